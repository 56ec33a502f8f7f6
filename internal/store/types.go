package store

import "github.com/yakshavingxyz/datadance/internal/ir"

// Run is one journaled transformation.
type Run struct {
	// ID is ir.RunID(BatchToken, DocumentHash, Input, Seq).
	ID string

	// BatchToken groups the runs of one batch.
	BatchToken string

	// Seq is the logical clock value when the run completed.
	Seq int64

	// DocumentHash identifies the document that was applied.
	DocumentHash string

	// Input is the source record.
	Input ir.Object

	// Result is the wire result: the output mapping or the error object.
	Result ir.Object

	// Derived is the derived state after the run.
	Derived ir.Object

	// ErrorCode is the wire code of a failed run, "" on success.
	ErrorCode string

	// EngineVersion is the engine version that produced the run.
	EngineVersion string
}

// BatchSummary describes one batch in the journal.
type BatchSummary struct {
	Token        string
	DocumentHash string
	Runs         int
	Errors       int
	FirstSeq     int64
	LastSeq      int64
}
