package state

import (
	"fmt"

	"github.com/google/uuid"
)

// RefGenerator issues stroke references unique to one participant session:
// a per-session uuid followed by a counter.
type RefGenerator struct {
	session string
	next    uint64
}

// NewRefGenerator starts a fresh session.
func NewRefGenerator() *RefGenerator {
	return &RefGenerator{session: uuid.NewString()}
}

// Session returns the id embedded in every reference this generator issues.
func (g *RefGenerator) Session() string { return g.session }

// Next returns a reference never returned before in this session.
func (g *RefGenerator) Next() string {
	g.next++
	return fmt.Sprintf("%s-%d", g.session, g.next)
}
