// Package idgen allocates identifiers for events, attendees, entrances and
// badges. Every allocator is safe for concurrent use and never hands out the
// same value twice within a process.
package idgen

import (
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Allocator hands out unique identifiers.
type Allocator interface {
	Next() string
}

// UUID allocates random v4 UUIDs. Collision-resistant across processes, so it
// is the default for the durable store.
type UUID struct{}

func (UUID) Next() string { return uuid.NewString() }

// Sequence allocates strictly increasing decimal identifiers from an atomic
// counter. Values are never reused, including after deletions.
type Sequence struct {
	n atomic.Uint64
}

// NewSequence returns a Sequence whose first identifier is start+1.
func NewSequence(start uint64) *Sequence {
	s := &Sequence{}
	s.n.Store(start)
	return s
}

func (s *Sequence) Next() string {
	return strconv.FormatUint(s.n.Add(1), 10)
}

// BadgeID builds the badge assigned to bulk-imported attendees that did not
// bring one: "B" + unix milliseconds + "-" + the attendee id.
func BadgeID(at time.Time, attendeeID string) string {
	return fmt.Sprintf("B%d-%s", at.UnixMilli(), attendeeID)
}
