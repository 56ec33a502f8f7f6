package runner

import (
	"sync"

	"github.com/google/uuid"
)

// TokenGenerator generates batch tokens.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type TokenGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 batch tokens, so that
// batches listed by token come out in creation order.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (g UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator returns predetermined batch tokens, for tests and the
// scenario harness.
//
// Thread-safety: FixedGenerator is safe for concurrent use via internal mutex.
type FixedGenerator struct {
	mu         sync.Mutex
	tokens     []string
	idx        int
	repeatLast bool
}

// NewFixedGenerator creates a generator that returns tokens in order.
//
// Example:
//
//	gen := NewFixedGenerator("batch-1", "batch-2")
//	gen.Generate() // "batch-1"
//	gen.Generate() // "batch-2"
//	gen.Generate() // panic: all tokens exhausted
func NewFixedGenerator(tokens ...string) *FixedGenerator {
	return &FixedGenerator{tokens: tokens}
}

// NewRepeatingGenerator is like NewFixedGenerator but keeps returning the
// last token once the list runs out, so any number of batches share it.
func NewRepeatingGenerator(tokens ...string) *FixedGenerator {
	return &FixedGenerator{tokens: tokens, repeatLast: true}
}

// Generate returns the next predetermined token.
//
// Panics if all tokens have been consumed and the generator does not
// repeat, which means a test ran more batches than it planned for.
func (g *FixedGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.tokens) {
		if g.repeatLast && len(g.tokens) > 0 {
			return g.tokens[len(g.tokens)-1]
		}
		panic("FixedGenerator: all tokens exhausted")
	}
	token := g.tokens[g.idx]
	g.idx++
	return token
}
