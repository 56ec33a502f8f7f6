package store

import (
	"context"
	"fmt"

	"github.com/yakshavingxyz/datadance/internal/ir"
)

// WriteDocument stores a document under its content hash and returns the
// hash. Uses ON CONFLICT(hash) DO NOTHING: the first name stored for a given
// body wins.
func (s *Store) WriteDocument(ctx context.Context, doc ir.Document) (string, error) {
	hash, err := ir.DocumentHash(doc)
	if err != nil {
		return "", fmt.Errorf("write document: %w", err)
	}

	body, err := marshalObject("document", doc.Value())
	if err != nil {
		return "", fmt.Errorf("write document: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (hash, name, body)
		VALUES (?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`, hash, doc.Name, body)
	if err != nil {
		return "", fmt.Errorf("write document: %w", err)
	}

	return hash, nil
}

// WriteRun inserts a run record into the store.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are silently ignored.
//
// Note: The document referenced by DocumentHash must exist (foreign key constraint).
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	inputJSON, err := marshalObject("input", run.Input)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	resultJSON, err := marshalObject("result", run.Result)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	derivedJSON, err := marshalObject("derived", run.Derived)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs
		(id, batch_token, seq, document_hash, input, result, derived, error_code, engine_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		run.ID,
		run.BatchToken,
		run.Seq,
		run.DocumentHash,
		inputJSON,
		resultJSON,
		derivedJSON,
		run.ErrorCode,
		run.EngineVersion,
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}

	return nil
}
