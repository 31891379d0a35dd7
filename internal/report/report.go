// Package report renders a generate run's acceptance report (the
// validator's findings plus writer statistics) to JSON, PDF, and a
// manifest QR code for paperwork traceability, adapted from the
// teacher's gate-report renderer.
package report

import (
	"encoding/json"
	"os"

	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/runledger"
	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/validator"
)

// Acceptance bundles the validator's findings with the run metadata
// the PDF and QR renderers need.
type Acceptance struct {
	Run    runledger.Run
	Report validator.AcceptanceReport
}

// SaveAcceptanceJSON writes acc as indented JSON, matching the
// teacher's flat JSON report convention.
func SaveAcceptanceJSON(acc Acceptance, out string) error {
	b, err := json.MarshalIndent(acc, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(out, b, 0o644)
}

// LoadAcceptanceJSON reads back a previously saved acceptance report.
func LoadAcceptanceJSON(path string) (Acceptance, error) {
	var acc Acceptance
	b, err := os.ReadFile(path)
	if err != nil {
		return acc, err
	}
	err = json.Unmarshal(b, &acc)
	return acc, err
}

// ManifestSHA256 returns the digest of the run's primary output file,
// or "" if the run has no manifest entries — the value the QR code and
// PDF cover page both render.
func ManifestSHA256(run runledger.Run) string {
	if len(run.Manifest) == 0 {
		return ""
	}
	return run.Manifest[0].SHA256
}
