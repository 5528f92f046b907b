package sqlite_test

import (
	"path/filepath"
	"testing"

	"github.com/aretw0/branchtale/pkg/adapters/sqlite"
	"github.com/aretw0/branchtale/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore_Contract(t *testing.T) {
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "transcripts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ports.RunTranscriptStoreContract(t, store)
}

func TestSQLiteStore_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcripts.db")

	store, err := sqlite.Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	// Migrations are idempotent.
	store, err = sqlite.Open(path)
	require.NoError(t, err)
	defer store.Close()
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := sqlite.Open("  ")
	assert.Error(t, err)
}

func TestMigrate_NilDB(t *testing.T) {
	assert.Error(t, sqlite.Migrate(nil))
}
