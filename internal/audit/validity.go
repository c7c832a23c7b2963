// Package audit provides the post-load validity gate and the run-level
// summary artifact. Checks are a monitoring gate, not a hard
// constraint: the upstream POS exports are not controlled by this
// system, so violations are quantified and surfaced, never blocking.
package audit

import (
	"log"

	"github.com/moonwalk/moonwalk/internal/typecast"
)

// SampleLimit bounds the offending-identifier sample in logs and the
// summary artifact.
const SampleLimit = 20

// Check declares one post-join invariant: Column must be non-null on
// the subset of rows selected by Where (nil means every row).
type Check struct {
	// Name identifies the check in logs and the summary
	Name string

	// Column is the column that must be non-null on the subset
	Column string

	// IDColumn names the row identifier used for the diagnostic sample
	IDColumn string

	// Where selects the semantically meaningful subset
	Where func(t *typecast.Table, row int) bool
}

// Violation is the quantified outcome of one failed check.
type Violation struct {
	Check     string   `json:"check"`
	Column    string   `json:"column"`
	Count     int      `json:"count"`
	Subset    int      `json:"subset"`
	Pct       float64  `json:"pct"`
	SampleIDs []string `json:"sample_ids"`
}

// Run evaluates every check against the typed table and logs one
// warning per violated check with count, percentage and a bounded
// sample of offending row identifiers.
func Run(table *typecast.Table, checks []Check) []Violation {
	var violations []Violation
	for _, check := range checks {
		col, ok := table.Column(check.Column)
		if !ok {
			log.Printf("[WARN] validity check %s: column %s not in table %s, skipping",
				check.Name, check.Column, table.Schema.Name)
			continue
		}
		idCol, _ := table.Column(check.IDColumn)

		subset := 0
		count := 0
		var sample []string
		for r := 0; r < table.NumRows(); r++ {
			if check.Where != nil && !check.Where(table, r) {
				continue
			}
			subset++
			if col.Values[r] != nil {
				continue
			}
			count++
			if len(sample) < SampleLimit {
				id := "?"
				if idCol.Values != nil && idCol.Values[r] != nil {
					if s, ok := idCol.Values[r].(string); ok {
						id = s
					}
				}
				sample = append(sample, id)
			}
		}
		if count == 0 {
			continue
		}

		pct := float64(count) / float64(subset) * 100
		log.Printf("[WARN] validity check %s: %d/%d (%.1f%%) rows have null %s; sample %v",
			check.Name, count, subset, pct, check.Column, sample)
		violations = append(violations, Violation{
			Check:     check.Name,
			Column:    check.Column,
			Count:     count,
			Subset:    subset,
			Pct:       pct,
			SampleIDs: sample,
		})
	}
	return violations
}

// NonNull is a helper Where predicate: the subset of rows where the
// named column is present.
func NonNull(column string) func(t *typecast.Table, row int) bool {
	return func(t *typecast.Table, row int) bool {
		c, ok := t.Column(column)
		if !ok {
			return false
		}
		return c.Values[row] != nil
	}
}

// IsTrue is a helper Where predicate: the subset of rows where the
// named boolean column is true.
func IsTrue(column string) func(t *typecast.Table, row int) bool {
	return func(t *typecast.Table, row int) bool {
		c, ok := t.Column(column)
		if !ok {
			return false
		}
		b, ok := c.Values[row].(bool)
		return ok && b
	}
}
