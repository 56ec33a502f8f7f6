package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/yakshavingxyz/datadance/internal/ir"
)

const runColumns = `id, batch_token, seq, document_hash, input, result, derived, error_code, engine_version`

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// ReadDocument retrieves a document by content hash.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadDocument(ctx context.Context, hash string) (ir.Document, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM documents WHERE hash = ?`, hash).Scan(&body)
	if err != nil {
		return ir.Document{}, err
	}

	obj, err := unmarshalObject("document", body)
	if err != nil {
		return ir.Document{}, err
	}
	doc, err := ir.DecodeDocument(obj)
	if err != nil {
		return ir.Document{}, fmt.Errorf("decode document %s: %w", hash, err)
	}
	return doc, nil
}

// ReadRun retrieves a single run by ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ReadRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	return scanRun(row)
}

// ReadBatch returns all runs of a batch ordered by seq ASC, id ASC.
// Returns an empty slice (not nil) if the batch does not exist.
func (s *Store) ReadBatch(ctx context.Context, batchToken string) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE batch_token = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, batchToken)
	if err != nil {
		return nil, fmt.Errorf("query batch: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batch: %w", err)
	}
	return runs, nil
}

// ListBatches summarizes every batch, ordered by first seq.
func (s *Store) ListBatches(ctx context.Context) ([]BatchSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT batch_token,
		       MIN(document_hash),
		       COUNT(*),
		       SUM(CASE WHEN error_code != '' THEN 1 ELSE 0 END),
		       MIN(seq),
		       MAX(seq)
		FROM runs
		GROUP BY batch_token
		ORDER BY MIN(seq) ASC, batch_token COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query batches: %w", err)
	}
	defer rows.Close()

	batches := []BatchSummary{}
	for rows.Next() {
		var b BatchSummary
		if err := rows.Scan(&b.Token, &b.DocumentHash, &b.Runs, &b.Errors, &b.FirstSeq, &b.LastSeq); err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate batches: %w", err)
	}
	return batches, nil
}

// LastSeq returns the highest seq in the journal, or 0 when it is empty.
// The runner resumes its clock from here.
func (s *Store) LastSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(seq) FROM runs`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("query last seq: %w", err)
	}
	return seq.Int64, nil
}

func scanRun(sc scanner) (Run, error) {
	var (
		run                                Run
		inputJSON, resultJSON, derivedJSON string
	)
	err := sc.Scan(
		&run.ID,
		&run.BatchToken,
		&run.Seq,
		&run.DocumentHash,
		&inputJSON,
		&resultJSON,
		&derivedJSON,
		&run.ErrorCode,
		&run.EngineVersion,
	)
	if err != nil {
		return Run{}, err
	}

	if run.Input, err = unmarshalObject("input", inputJSON); err != nil {
		return Run{}, err
	}
	if run.Result, err = unmarshalObject("result", resultJSON); err != nil {
		return Run{}, err
	}
	if run.Derived, err = unmarshalObject("derived", derivedJSON); err != nil {
		return Run{}, err
	}
	return run, nil
}
