// internal/session/session.go
package session

import (
	"time"

	"github.com/tamzrod/modbus-scanner/internal/register"
	"github.com/tamzrod/modbus-scanner/internal/scanner"
)

// Session is one end-to-end scan run.
// Created at start, filled by the runner as categories complete.
type Session struct {
	Host   string
	Port   int
	UnitID uint8

	BlockSize int
	Delay     time.Duration

	// Categories is the requested scan order.
	Categories []register.Category

	// Interrupted is set when the operator stopped the run early.
	Interrupted bool

	results map[register.Category]scanner.Result
}

// New creates an empty session.
func New(host string, port int, unitID uint8, blockSize int, delay time.Duration, cats []register.Category) *Session {
	return &Session{
		Host:       host,
		Port:       port,
		UnitID:     unitID,
		BlockSize:  blockSize,
		Delay:      delay,
		Categories: append([]register.Category(nil), cats...),
		results:    make(map[register.Category]scanner.Result),
	}
}

// Store records the result for its category, replacing any earlier one.
func (s *Session) Store(r scanner.Result) {
	if s.results == nil {
		s.results = make(map[register.Category]scanner.Result)
	}
	s.results[r.Category] = r
}

// Result returns the stored result for c.
func (s *Session) Result(c register.Category) (scanner.Result, bool) {
	r, ok := s.results[c]
	return r, ok
}

// Scanned lists categories with a stored result, in requested order.
func (s *Session) Scanned() []register.Category {
	out := make([]register.Category, 0, len(s.results))
	for _, c := range s.Categories {
		if _, ok := s.results[c]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Total is the number of readings across all categories.
func (s *Session) Total() int {
	n := 0
	for _, r := range s.results {
		n += len(r.Readings)
	}
	return n
}
