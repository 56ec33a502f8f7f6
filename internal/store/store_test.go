package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenCreatesJournalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestOpenReopensExistingJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	hash, err := s.WriteDocument(ctx, testDocument())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	doc, err := s.ReadDocument(ctx, hash)
	require.NoError(t, err)
	assert.Equal(t, testDocument().Transforms, doc.Transforms)
}

func TestOpenPragmas(t *testing.T) {
	s := createTestStore(t)

	for name, want := range map[string]string{
		"journal_mode": "wal",
		"foreign_keys": "1",
		"busy_timeout": "5000",
		"user_version": "1",
	} {
		got, err := s.pragma(name)
		require.NoError(t, err)
		assert.Equal(t, want, got, name)
	}
}

func TestOpenCreatesIndexes(t *testing.T) {
	s := createTestStore(t)

	for _, index := range []string{"idx_runs_batch", "idx_runs_document"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type = 'index' AND name = ?", index,
		).Scan(&name)
		assert.NoError(t, err, index)
	}
}

func TestOpenRefusesNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")

	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.db.Exec("PRAGMA user_version = 2")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema version 2 is newer than supported version 1")
}

func TestOpenInMemoryKeepsSchemaAcrossCalls(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	hash, err := s.WriteDocument(ctx, testDocument())
	require.NoError(t, err)

	_, err = s.ReadDocument(ctx, hash)
	require.NoError(t, err)

	batches, err := s.ListBatches(ctx)
	require.NoError(t, err)
	assert.Empty(t, batches)
}

func TestCloseZeroStore(t *testing.T) {
	assert.NoError(t, (&Store{}).Close())
}
