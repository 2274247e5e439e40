// Package idpool generates and releases train IDs from a per-line monotonic
// counter. Released IDs are not immediately recycled (spec testable
// property 10) — the pool simply never rewinds its counter on release.
package idpool

import (
	"fmt"
	"sync"

	"github.com/ctcsys/ctc-core/internal/models"
)

type Pool struct {
	mu       sync.Mutex
	counters map[models.Line]int
	released map[string]bool
}

func New() *Pool {
	return &Pool{counters: make(map[models.Line]int), released: make(map[string]bool)}
}

func letterFor(line models.Line) byte {
	switch line {
	case models.LineRed:
		return 'R'
	case models.LineGreen:
		return 'G'
	case models.LineBlue:
		return 'B'
	}
	return '?'
}

// Generate returns the next ID for a line, e.g. "R001" then "R002".
func (p *Pool) Generate(line models.Line) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.counters[line]++
	return fmt.Sprintf("%c%03d", letterFor(line), p.counters[line])
}

// Release marks an ID as no longer in use. It does not decrement the
// counter, so the ID is never handed out again by Generate.
func (p *Pool) Release(id string) {
	p.mu.Lock()
	p.released[id] = true
	p.mu.Unlock()
}

func (p *Pool) IsReleased(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.released[id]
}
