package store

import (
	"context"
	"fmt"
	"strings"
)

// Predicate filters journal runs.
//
// This is a sealed interface: Equals, NotEquals and And are the only
// implementations, so compilers can switch over them exhaustively.
type Predicate interface {
	predicateNode()
}

// Equals matches runs whose column equals Value.
type Equals struct {
	Column string
	Value  any
}

// NotEquals matches runs whose column differs from Value.
type NotEquals struct {
	Column string
	Value  any
}

// And matches runs satisfying every predicate. An empty And matches all
// runs.
type And struct {
	Predicates []Predicate
}

func (Equals) predicateNode()    {}
func (NotEquals) predicateNode() {}
func (And) predicateNode()       {}

// Queryable columns of the runs table.
const (
	ColumnBatchToken    = "batch_token"
	ColumnDocumentHash  = "document_hash"
	ColumnErrorCode     = "error_code"
	ColumnEngineVersion = "engine_version"
	ColumnSeq           = "seq"
)

var queryableColumns = map[string]bool{
	ColumnBatchToken:    true,
	ColumnDocumentHash:  true,
	ColumnErrorCode:     true,
	ColumnEngineVersion: true,
	ColumnSeq:           true,
}

// RunQuery selects runs. A nil Filter selects every run; Limit <= 0 means
// no limit.
type RunQuery struct {
	Filter Predicate
	Limit  int
}

// ByBatch matches the runs of one batch.
func ByBatch(token string) Predicate { return Equals{Column: ColumnBatchToken, Value: token} }

// ByDocument matches the runs of one document hash.
func ByDocument(hash string) Predicate { return Equals{Column: ColumnDocumentHash, Value: hash} }

// ByErrorCode matches failed runs with the given wire code.
func ByErrorCode(code string) Predicate { return Equals{Column: ColumnErrorCode, Value: code} }

// Failed matches every run that produced an error object.
func Failed() Predicate { return NotEquals{Column: ColumnErrorCode, Value: ""} }

// FindRuns returns the runs matching q, ordered by seq ASC, id ASC.
func (s *Store) FindRuns(ctx context.Context, q RunQuery) ([]Run, error) {
	query, params, err := compileRunQuery(q)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
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
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// compileRunQuery converts q to parameterized SQL. Values are never
// interpolated, and every query is ordered by seq with id as tiebreaker.
func compileRunQuery(q RunQuery) (string, []any, error) {
	var b strings.Builder
	b.WriteString(`SELECT ` + runColumns + ` FROM runs`)

	var params []any
	if q.Filter != nil {
		where, p, err := compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		b.WriteString(" WHERE ")
		b.WriteString(where)
		params = p
	}

	b.WriteString(" ORDER BY seq ASC, id COLLATE BINARY ASC")
	if q.Limit > 0 {
		b.WriteString(" LIMIT ?")
		params = append(params, q.Limit)
	}
	return b.String(), params, nil
}

func compilePredicate(p Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case nil:
		return "1 = 1", nil, nil
	case Equals:
		return compileComparison(pred.Column, "=", pred.Value)
	case NotEquals:
		return compileComparison(pred.Column, "!=", pred.Value)
	case And:
		if len(pred.Predicates) == 0 {
			return "1 = 1", nil, nil
		}
		parts := make([]string, 0, len(pred.Predicates))
		var params []any
		for _, sub := range pred.Predicates {
			sql, p, err := compilePredicate(sub)
			if err != nil {
				return "", nil, err
			}
			parts = append(parts, sql)
			params = append(params, p...)
		}
		return "(" + strings.Join(parts, " AND ") + ")", params, nil
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func compileComparison(column, op string, value any) (string, []any, error) {
	if !queryableColumns[column] {
		return "", nil, fmt.Errorf("column %q is not queryable", column)
	}
	switch value.(type) {
	case string, int, int64:
	default:
		return "", nil, fmt.Errorf("column %s: unsupported parameter type %T", column, value)
	}
	return fmt.Sprintf("%s %s ?", column, op), []any{value}, nil
}
