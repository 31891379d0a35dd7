package report

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/runledger"
	"github.com/Anthonymm0994/ch10-1553-flightgen/internal/validator"
)

func sampleAcceptance() Acceptance {
	return Acceptance{
		Run: runledger.Run{ID: "run-1", PacketCount: 3, MessageCount: 12, Manifest: []runledger.ManifestItem{
			{Path: "/out/run.ch10", Size: 4096, SHA256: "deadbeef"},
		}},
		Report: validator.AcceptanceReport{Findings: []validator.Diagnostic{
			{Code: "bad-checksum", Severity: validator.SeverityError, Offset: 24, Message: "header checksum mismatch"},
		}},
	}
}

func TestSaveAndLoadAcceptanceJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "acceptance.json")
	acc := sampleAcceptance()
	require.NoError(t, SaveAcceptanceJSON(acc, path))

	loaded, err := LoadAcceptanceJSON(path)
	require.NoError(t, err)
	assert.Equal(t, acc.Run.ID, loaded.Run.ID)
	require.Len(t, loaded.Report.Findings, 1)
	assert.Equal(t, "bad-checksum", loaded.Report.Findings[0].Code)
}

func TestManifestSHA256(t *testing.T) {
	acc := sampleAcceptance()
	assert.Equal(t, "deadbeef", ManifestSHA256(acc.Run))
	assert.Equal(t, "", ManifestSHA256(runledger.Run{}))
}

func TestSaveAcceptancePDFProducesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "acceptance.pdf")
	require.NoError(t, SaveAcceptancePDF(sampleAcceptance(), path))
}

func TestManifestHashToQR(t *testing.T) {
	png, err := ManifestHashToQR("deadbeef", 0)
	require.NoError(t, err)
	assert.NotEmpty(t, png)

	_, err = ManifestHashToQR("", 0)
	assert.Error(t, err)
}
