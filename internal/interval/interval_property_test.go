package interval

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// genSpans builds an arbitrary set of day-granular spans inside a few
// years of range. Day granularity keeps the covered-instant comparison
// exact.
func genSpans() gopter.Gen {
	genSpan := gopter.CombineGens(
		gen.IntRange(0, 1460),
		gen.IntRange(0, 120),
	).Map(func(vals []interface{}) Span {
		base := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
		start := base.AddDate(0, 0, vals[0].(int))
		end := start.AddDate(0, 0, vals[1].(int))
		return Span{Start: start, End: end}
	})
	return gen.SliceOf(genSpan)
}

// coveredDays enumerates every covered day as a set.
func coveredDays(spans []Span) map[int64]struct{} {
	covered := make(map[int64]struct{})
	for _, s := range spans {
		for d := s.Start; !d.After(s.End); d = d.AddDate(0, 0, 1) {
			covered[d.Unix()] = struct{}{}
		}
	}
	return covered
}

func TestProperty_MergedSpansAreDisjointAndNonTouching(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("no two merged spans overlap or touch", prop.ForAll(
		func(spans []Span) bool {
			merged := Merge(spans)
			for i := 1; i < len(merged); i++ {
				// Strictly after the previous end: equal would mean a
				// touch that should have been coalesced.
				if !merged[i].Start.After(merged[i-1].End) {
					return false
				}
			}
			return true
		},
		genSpans(),
	))

	properties.Property("union of covered instants is preserved", prop.ForAll(
		func(spans []Span) bool {
			// Bound the enumeration cost.
			if len(spans) > 20 {
				spans = spans[:20]
			}
			before := coveredDays(spans)
			after := coveredDays(Merge(spans))
			if len(before) != len(after) {
				return false
			}
			for d := range before {
				if _, ok := after[d]; !ok {
					return false
				}
			}
			return true
		},
		genSpans(),
	))

	properties.Property("merge is idempotent", prop.ForAll(
		func(spans []Span) bool {
			once := Merge(spans)
			twice := Merge(once)
			if len(once) != len(twice) {
				return false
			}
			for i := range once {
				if !once[i].Start.Equal(twice[i].Start) || !once[i].End.Equal(twice[i].End) {
					return false
				}
			}
			return true
		},
		genSpans(),
	))

	properties.TestingRun(t)
}
