package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	ch10gen "github.com/Anthonymm0994/ch10-1553-flightgen"
	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/genlog"
	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/icd"
	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/runledger"
	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/scenario"
	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/writer"
)

// Server coordinates the daemon's HTTP handlers and the run ledger
// they read and write.
type Server struct {
	ledger *runledger.Ledger
}

// NewServer opens the run ledger at opts.LedgerPath.
func NewServer(opts Options) (*Server, error) {
	ledger, err := runledger.Open(opts.LedgerPath)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	return &Server{ledger: ledger}, nil
}

// Close releases the run ledger.
func (s *Server) Close() error {
	if s == nil || s.ledger == nil {
		return nil
	}
	return s.ledger.Close()
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.ledger == nil {
		http.Error(w, "ledger not open", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.ledger.List()
	if err != nil {
		http.Error(w, fmt.Sprintf("list runs: %v", err), http.StatusInternalServerError)
		return
	}
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		limit, err := strconv.Atoi(limitParam)
		if err != nil || limit < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		if limit < len(runs) {
			runs = runs[:limit]
		}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := muxVar(r, "id")
	if id == "" {
		http.Error(w, "missing run id", http.StatusBadRequest)
		return
	}
	run, err := s.ledger.Get(id)
	if err != nil {
		http.Error(w, fmt.Sprintf("get run: %v", err), http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// createRunRequest names the host-filesystem paths a POST /runs call
// generates from; each path is expected to already be reachable by
// the daemon process.
type createRunRequest struct {
	ICDPath      string `json:"icd"`
	ScenarioPath string `json:"scenario"`
	OutPath      string `json:"out"`
}

func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req createRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid json: %v", err), http.StatusBadRequest)
		return
	}
	if req.ICDPath == "" || req.ScenarioPath == "" || req.OutPath == "" {
		http.Error(w, "icd, scenario, and out are all required", http.StatusBadRequest)
		return
	}

	doc, err := icd.LoadFile(req.ICDPath)
	if err != nil {
		http.Error(w, fmt.Sprintf("load icd: %v", err), http.StatusBadRequest)
		return
	}
	scen, err := scenario.LoadFile(req.ScenarioPath, doc)
	if err != nil {
		http.Error(w, fmt.Sprintf("load scenario: %v", err), http.StatusBadRequest)
		return
	}

	runID := uuid.NewString()
	cfg := ch10gen.Config{Writer: writer.DefaultConfig()}
	run, err := ch10gen.GenerateToFile(doc, scen, cfg, req.OutPath, s.ledger, runID)
	if err != nil {
		genlog.Warnf("run %s failed: %v", runID, err)
		http.Error(w, fmt.Sprintf("generate: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
