package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/yakshavingxyz/datadance/internal/ir"
)

// createTestStore creates a new temp-dir store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testDocument returns a small valid document.
func testDocument() ir.Document {
	return ir.Document{
		Name:     "orders",
		Settings: ir.Settings{MergeMethod: "overwrite"},
		Transforms: []ir.Rule{
			{"total": ir.Scalar("input.a + input.b")},
		},
	}
}

// writeTestDocument stores testDocument and returns its hash.
func writeTestDocument(t *testing.T, s *Store) string {
	t.Helper()
	hash, err := s.WriteDocument(context.Background(), testDocument())
	if err != nil {
		t.Fatalf("WriteDocument() failed: %v", err)
	}
	return hash
}

// createTestRun creates a run with minimal required fields.
func createTestRun(id, batchToken, documentHash string, seq int64) Run {
	return Run{
		ID:            id,
		BatchToken:    batchToken,
		Seq:           seq,
		DocumentHash:  documentHash,
		Input:         ir.Object{"a": ir.Int(1), "b": ir.Int(2)},
		Result:        ir.Object{"a": ir.Int(1), "b": ir.Int(2), "total": ir.Int(3)},
		Derived:       ir.Object{"a": ir.Int(1), "b": ir.Int(2), "total": ir.Int(3)},
		EngineVersion: ir.EngineVersion,
	}
}
