package content

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// TempIDPrefix marks locally generated placeholder identifiers.
// Permanent identifiers are issued by the backend and never carry it.
const TempIDPrefix = "tmp_"

// IsTempID reports whether id is a locally generated placeholder that
// still needs reconciling against a server-issued identifier.
func IsTempID(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}

// IDGenerator produces placeholder identifiers for entities created
// before the backend has assigned permanent ones.
//
// Implemented by TempIDGenerator (production) and
// testutil.FixedIDGenerator (tests).
type IDGenerator interface {
	NewID() string
}

// TempIDGenerator generates "tmp_"-prefixed UUIDv7 identifiers.
//
// UUIDv7 embeds a timestamp in the most significant bits, so
// placeholder identifiers sort by creation time - helpful when reading
// logs of a long editing session.
//
// Thread-safety: TempIDGenerator is stateless and safe for concurrent use.
type TempIDGenerator struct{}

// NewID creates a new placeholder identifier.
//
// Format: "tmp_550e8400-e29b-41d4-a716-446655440000"
//
// Panics if UUID generation fails (should never happen in practice).
func (TempIDGenerator) NewID() string {
	return TempIDPrefix + uuid.Must(uuid.NewV7()).String()
}

// FixedIDGenerator returns predetermined identifiers in order.
//
// This enables deterministic tests and golden snapshots: a test can
// name the placeholder identifiers it expects and assert exact store
// contents.
//
// Thread-safety: safe for concurrent use via internal mutex.
type FixedIDGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedIDGenerator creates a generator that returns ids in order.
//
// Example:
//
//	gen := NewFixedIDGenerator("tmp_a", "tmp_b")
//	gen.NewID() // "tmp_a"
//	gen.NewID() // "tmp_b"
//	gen.NewID() // panic: all ids exhausted
func NewFixedIDGenerator(ids ...string) *FixedIDGenerator {
	return &FixedIDGenerator{ids: ids}
}

// NewID returns the next predetermined identifier.
//
// Panics when all identifiers have been consumed. Fail-fast catches
// test misconfiguration (the test created more entities than expected).
func (g *FixedIDGenerator) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.ids) {
		panic("FixedIDGenerator: all ids exhausted")
	}
	id := g.ids[g.idx]
	g.idx++
	return id
}
