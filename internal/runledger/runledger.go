// Package runledger records one entry per generate invocation — the
// ICD and scenario digests, the output manifest, and pass/fail
// status — in a small embedded store so the CLI history subcommand
// and the batch daemon can look runs up by ID.
package runledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/common"
)

var bucketRuns = []byte("runs")

// ManifestItem is one output file's identity, adapted from the
// teacher's flat manifest.Item shape.
type ManifestItem struct {
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	SHA256 string `json:"sha256"`
}

// Run is one recorded generate invocation.
type Run struct {
	ID          string         `json:"id"`
	CreatedAt   time.Time      `json:"createdAt"`
	ScenarioSHA string         `json:"scenarioSha256"`
	ICDSHA      string         `json:"icdSha256"`
	Manifest    []ManifestItem `json:"manifest"`
	Pass        bool           `json:"pass"`
	Errors      int            `json:"errors"`
	Warnings    int            `json:"warnings"`
	PacketCount int            `json:"packetCount"`
	MessageCount int           `json:"messageCount"`
}

// Ledger wraps an open bbolt database.
type Ledger struct {
	db *bbolt.DB
}

// Open opens (creating if necessary) the ledger file at path.
func Open(path string) (*Ledger, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketRuns)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}
	return &Ledger{db: db}, nil
}

// Close releases the underlying database handle.
func (l *Ledger) Close() error { return l.db.Close() }

// BuildManifest hashes each output path, following the teacher's
// manifest.Build convention.
func BuildManifest(paths []string) ([]ManifestItem, error) {
	items := make([]ManifestItem, 0, len(paths))
	for _, p := range paths {
		sum, size, err := common.Sha256OfFile(p)
		if err != nil {
			return nil, err
		}
		items = append(items, ManifestItem{Path: p, Size: size, SHA256: sum})
	}
	return items, nil
}

// Record stores run, keyed by run.ID.
func (l *Ledger) Record(run Run) error {
	b, err := json.Marshal(run)
	if err != nil {
		return err
	}
	return l.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRuns).Put([]byte(run.ID), b)
	})
}

var ErrNotFound = errors.New("runledger: run not found")

// Get looks up a single run by ID.
func (l *Ledger) Get(id string) (Run, error) {
	var run Run
	err := l.db.View(func(tx *bbolt.Tx) error {
		raw := tx.Bucket(bucketRuns).Get([]byte(id))
		if raw == nil {
			return ErrNotFound
		}
		return json.Unmarshal(raw, &run)
	})
	return run, err
}

// List returns every recorded run, most recently created first.
func (l *Ledger) List() ([]Run, error) {
	var runs []Run
	err := l.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRuns).ForEach(func(_, v []byte) error {
			var run Run
			if err := json.Unmarshal(v, &run); err != nil {
				return fmt.Errorf("runledger: decode run: %w", err)
			}
			runs = append(runs, run)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sortRunsByCreatedAtDesc(runs)
	return runs, nil
}

func sortRunsByCreatedAtDesc(runs []Run) {
	for i := 1; i < len(runs); i++ {
		for j := i; j > 0 && runs[j].CreatedAt.After(runs[j-1].CreatedAt); j-- {
			runs[j], runs[j-1] = runs[j-1], runs[j]
		}
	}
}
