package frame

import (
	"fmt"

	"github.com/moonwalk/moonwalk/internal/errors"
)

// LeftJoin enriches fact with dim's columns, one output row per fact
// row regardless of match. Unmatched keys yield null dimension cells,
// never a dropped row. The dim key must be unique: a duplicate key is
// an AMBIGUOUS_KEY input error rather than an arbitrary pick, because
// cardinality-of-one on the dimension side is the joiner's
// precondition (enforced upstream by interval merging or dedup).
func LeftJoin(fact, dim *Frame, factKey, dimKey string) (*Frame, error) {
	if !dim.HasColumn(dimKey) {
		return nil, errors.NewInputError(errors.CodeMissingColumn,
			fmt.Sprintf("dimension %s has no key column %q", dim.Name, dimKey), nil)
	}

	lookup := make(map[string]int, dim.NumRows())
	for r := 0; r < dim.NumRows(); r++ {
		k := dim.Value(r, dimKey)
		if k == "" {
			continue
		}
		if prev, dup := lookup[k]; dup {
			return nil, errors.NewInputError(errors.CodeAmbiguousKey,
				fmt.Sprintf("dimension %s key %q appears in rows %d and %d",
					dim.Name, k, prev, r), nil)
		}
		lookup[k] = r
	}

	// Dim columns other than the key, renamed on collision with fact.
	var dimCols []string
	outName := make(map[string]string)
	for _, c := range dim.Columns() {
		if c == dimKey {
			continue
		}
		dimCols = append(dimCols, c)
		if fact.HasColumn(c) {
			outName[c] = dim.Name + "." + c
		} else {
			outName[c] = c
		}
	}

	out := New(fact.Name, fact.Columns())
	for r := 0; r < fact.NumRows(); r++ {
		row := make([]string, 0, len(fact.Columns()))
		for _, c := range fact.Columns() {
			row = append(row, fact.Value(r, c))
		}
		if err := out.Append(row); err != nil {
			return nil, errors.NewInternalError("left join row copy", err)
		}
	}

	for _, c := range dimCols {
		values := make([]string, fact.NumRows())
		for r := 0; r < fact.NumRows(); r++ {
			k := fact.Value(r, factKey)
			if k == "" {
				continue
			}
			if dr, ok := lookup[k]; ok {
				values[r] = dim.Value(dr, c)
			}
		}
		if err := out.AddColumn(outName[c], values); err != nil {
			return nil, errors.NewInternalError("left join column append", err)
		}
	}
	return out, nil
}
