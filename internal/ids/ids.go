// Package ids issues the sortable identifiers used for crops, tokens,
// settlements, and audit events.
//
// Identifiers have the form "PREFIX_20250901143207123456": the prefix names
// the entity kind and the suffix is a UTC timestamp with microsecond
// precision, so ids sort in creation order as plain strings.
package ids

import (
	"fmt"
	"sync"
	"time"
)

// timeLayout renders a UTC instant as YYYYMMDDHHMMSS; the microsecond
// fraction is appended separately because the stdlib layout would insert
// a separator.
const timeLayout = "20060102150405"

// Generator produces unique, monotonically increasing identifiers.
// The zero value is ready to use and safe for concurrent callers.
type Generator struct {
	mu   sync.Mutex
	last time.Time
}

// Next returns a fresh identifier with the given prefix. Two calls in the
// same microsecond never collide: the second is bumped forward one
// microsecond, which also keeps the sequence strictly increasing.
func (g *Generator) Next(prefix string) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now().UTC().Truncate(time.Microsecond)
	if !now.After(g.last) {
		now = g.last.Add(time.Microsecond)
	}
	g.last = now

	return fmt.Sprintf("%s_%s%06d", prefix, now.Format(timeLayout), now.Nanosecond()/1000)
}
