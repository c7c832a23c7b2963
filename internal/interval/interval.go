// Package interval coalesces overlapping or touching time windows into
// a minimal disjoint set. Dimension tables carrying time-bounded
// attributes (subscription validity windows) must be merged before any
// join against fact rows: joining against unmerged overlapping windows
// multiplies matching rows and double-counts revenue downstream.
package interval

import (
	"log"
	"sort"
	"time"
)

// Span is one validity window. Both endpoints are inclusive: an order
// earned exactly at End is still covered.
type Span struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the span.
func (s Span) Contains(t time.Time) bool {
	return !t.Before(s.Start) && !t.After(s.End)
}

// Merge coalesces spans into the minimal disjoint set covering the same
// instants. Touching spans (end of one equals start of the next) are
// merged, not left adjacent, so the boundary instant is attributed once.
// The input is not modified; output is sorted by Start.
func Merge(spans []Span) []Span {
	if len(spans) <= 1 {
		return append([]Span(nil), spans...)
	}

	sorted := append([]Span(nil), spans...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Start.Before(sorted[j].Start)
	})

	merged := []Span{sorted[0]}
	for _, s := range sorted[1:] {
		last := &merged[len(merged)-1]
		if !s.Start.After(last.End) {
			if s.End.After(last.End) {
				last.End = s.End
			}
		} else {
			merged = append(merged, s)
		}
	}
	return merged
}

// MergeByEntity merges each entity's spans independently and returns
// the per-entity result plus the total number of windows collapsed.
// Entities are independent, so order does not matter.
func MergeByEntity(byEntity map[string][]Span) (map[string][]Span, int) {
	merged := make(map[string][]Span, len(byEntity))
	collapsed := 0
	for id, spans := range byEntity {
		m := Merge(spans)
		collapsed += len(spans) - len(m)
		merged[id] = m
	}
	return merged, collapsed
}

// MergeByEntityLogged is MergeByEntity with the collapse count surfaced
// as a warning, since overlapping source windows are the historical
// cause of double-counted revenue.
func MergeByEntityLogged(byEntity map[string][]Span) map[string][]Span {
	merged, collapsed := MergeByEntity(byEntity)
	if collapsed > 0 {
		log.Printf("[WARN] interval: merged %d overlapping windows across %d entities",
			collapsed, len(byEntity))
	}
	return merged
}
