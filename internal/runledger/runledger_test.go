package runledger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTempLedger(t *testing.T) *Ledger {
	t.Helper()
	path := filepath.Join(t.TempDir(), "runs.db")
	l, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestBuildManifestHashesFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.ch10")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	items, err := BuildManifest([]string{path})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(5), items[0].Size)
	assert.NotEmpty(t, items[0].SHA256)
}

func TestRecordAndGet(t *testing.T) {
	l := openTempLedger(t)
	run := Run{ID: "run-1", CreatedAt: time.Now(), Pass: true, PacketCount: 3}
	require.NoError(t, l.Record(run))

	got, err := l.Get("run-1")
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.True(t, got.Pass)
}

func TestGetMissingReturnsErrNotFound(t *testing.T) {
	l := openTempLedger(t)
	_, err := l.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListOrdersNewestFirst(t *testing.T) {
	l := openTempLedger(t)
	base := time.Now()
	require.NoError(t, l.Record(Run{ID: "a", CreatedAt: base}))
	require.NoError(t, l.Record(Run{ID: "b", CreatedAt: base.Add(time.Minute)}))
	require.NoError(t, l.Record(Run{ID: "c", CreatedAt: base.Add(-time.Minute)}))

	runs, err := l.List()
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "b", runs[0].ID)
	assert.Equal(t, "a", runs[1].ID)
	assert.Equal(t, "c", runs[2].ID)
}
