package library

import (
	"fmt"
	"sync"
)

// Identifier prefixes for generated ids.
const (
	PrefixVideo     = "VID"
	PrefixMagazine  = "MAG"
	PrefixMember    = "MBR"
	PrefixLibrarian = "LBR"
)

// Sequence hands out ids of the form PREFIX0001, one independent counter per
// prefix. The zero value is ready to use.
type Sequence struct {
	mu   sync.Mutex
	last map[string]int
}

func NewSequence() *Sequence { return &Sequence{} }

// Next advances the prefix's counter and formats the new id.
func (s *Sequence) Next(prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		s.last = make(map[string]int)
	}
	s.last[prefix]++
	return FormatID(prefix, s.last[prefix])
}

// Counters returns the last value issued per prefix.
func (s *Sequence) Counters() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]int, len(s.last))
	for k, v := range s.last {
		out[k] = v
	}
	return out
}

// Advance moves each counter forward to at least the given value. Counters
// never move backwards, so ids stay unique after a restore.
func (s *Sequence) Advance(counters map[string]int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		s.last = make(map[string]int)
	}
	for k, v := range counters {
		if v > s.last[k] {
			s.last[k] = v
		}
	}
}

// FormatID renders a generated identifier, e.g. FormatID("VID", 7) == "VID0007".
func FormatID(prefix string, n int) string {
	return fmt.Sprintf("%s%04d", prefix, n)
}

// ParseID splits a generated identifier back into prefix and number.
func ParseID(id string) (prefix string, n int, err error) {
	if len(id) < 4 {
		return "", 0, fmt.Errorf("malformed id %q", id)
	}
	prefix = id[:3]
	if _, err := fmt.Sscanf(id[3:], "%d", &n); err != nil {
		return "", 0, fmt.Errorf("malformed id %q: %w", id, err)
	}
	return prefix, n, nil
}
