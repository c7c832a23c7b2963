// Package typecast loads untyped staged columns into the typed,
// constrained target schema. Every cast path returns both a value
// (possibly null) and a contribution to a run-level audit record: no
// cast failure is allowed to be invisible, and none is allowed to
// abort the load. A row with one lossy column still loads with that
// column null.
package typecast

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/moonwalk/moonwalk/internal/errors"
	"github.com/moonwalk/moonwalk/internal/frame"
	"github.com/moonwalk/moonwalk/pkg/types"
)

// TypedColumn is the result of casting one staged column. Values hold
// nil for nulls and failed casts, otherwise time.Time, bool, int64,
// float64 or string depending on the spec kind.
type TypedColumn struct {
	Spec   types.ColumnSpec
	Values []interface{}
}

// Table is a fully cast staged table, ready for the store builder.
type Table struct {
	Schema  types.TableSchema
	Columns []TypedColumn

	// Extras carries, per row, the staged cells not covered by the
	// schema (only when the schema asks for them)
	Extras []map[string]string
}

// NumRows returns the table's row count.
func (t *Table) NumRows() int {
	if len(t.Columns) == 0 {
		return 0
	}
	return len(t.Columns[0].Values)
}

// Column returns the typed column by name, if present.
func (t *Table) Column(name string) (TypedColumn, bool) {
	for _, c := range t.Columns {
		if c.Spec.Name == name {
			return c, true
		}
	}
	return TypedColumn{}, false
}

// Source exports encode absence several ways; all of them are
// pre-existing nulls, not cast losses.
var nullTokens = map[string]struct{}{
	"": {}, "nan": {}, "NaN": {}, "None": {}, "null": {}, "NULL": {},
}

// IsNull reports whether a staged cell is a source null.
func IsNull(raw string) bool {
	_, ok := nullTokens[strings.TrimSpace(raw)]
	return ok
}

// excelSerialPattern matches Excel serial day numbers, with or without
// a trailing ".0" artifact.
var excelSerialPattern = regexp.MustCompile(`^\d{1,5}(?:\.0*)?$`)

// excelEpoch is the Excel serial date base (day 0).
var excelEpoch = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)

// dateLayouts are the ISO-normalizable encodings the loader accepts.
// Anything else is a loss, never a best-effort guess.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2 Jan 2006 15:04",
	"2 Jan 2006",
}

// ParseDate parses one raw date cell. Returns ok=false for
// unparseable values; the caller decides whether that is a loss.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if IsNull(s) {
		return time.Time{}, false
	}
	if excelSerialPattern.MatchString(s) {
		digits := strings.SplitN(s, ".", 2)[0]
		days, err := strconv.Atoi(digits)
		if err == nil && days >= 2 && days <= 99998 {
			return excelEpoch.AddDate(0, 0, days), true
		}
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

var truthyTokens = map[string]struct{}{
	"1": {}, "true": {}, "t": {}, "yes": {}, "y": {},
}

var falsyTokens = map[string]struct{}{
	"0": {}, "false": {}, "f": {}, "no": {}, "n": {},
}

// ParseBool parses one raw boolean cell against the recognized
// truthy/falsy token sets, case-insensitive.
func ParseBool(raw string) (bool, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if _, ok := truthyTokens[s]; ok {
		return true, true
	}
	if _, ok := falsyTokens[s]; ok {
		return false, true
	}
	return false, false
}

// ParseSmallInt parses one raw cell as an integral value within
// [min, max]. A trailing ".0" tail ("3.0", an upstream staging
// artifact, like the serial dates) is accepted; exponent notation,
// fractional or out-of-range values are a loss, never a truncation.
func ParseSmallInt(raw string, min, max int64) (int64, bool) {
	s := strings.TrimSpace(raw)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		if strings.Trim(s[i+1:], "0") != "" {
			return 0, false
		}
		s = s[:i]
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	if n < min || n > max {
		return 0, false
	}
	return n, true
}

// CastColumn casts one staged column per its spec, producing the typed
// column and its audit record. Failed casts become nulls.
func CastColumn(raw []string, spec types.ColumnSpec) (TypedColumn, CastAudit, error) {
	if spec.Kind == types.KindEnum && spec.Domain == nil {
		return TypedColumn{}, CastAudit{}, errors.NewCastError(errors.CodeInvalidSpec,
			fmt.Sprintf("enum column %q has no domain", spec.Name))
	}

	col := TypedColumn{Spec: spec, Values: make([]interface{}, len(raw))}
	audit := CastAudit{Column: spec.Name}

	for i, cell := range raw {
		if IsNull(cell) {
			continue
		}
		audit.Meaningful++

		var v interface{}
		var ok bool
		switch spec.Kind {
		case types.KindText:
			v, ok = strings.TrimSpace(cell), true
		case types.KindDate:
			v, ok = ParseDate(cell)
		case types.KindBool:
			v, ok = ParseBool(cell)
		case types.KindSmallInt:
			min, max := spec.IntBounds()
			v, ok = ParseSmallInt(cell, min, max)
		case types.KindFloat:
			f, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			v, ok = f, err == nil
		case types.KindEnum:
			s := strings.TrimSpace(cell)
			v, ok = s, spec.Domain.Contains(s)
		default:
			return TypedColumn{}, CastAudit{}, errors.NewCastError(errors.CodeUnknownKind,
				fmt.Sprintf("column %q has unknown kind %q", spec.Name, spec.Kind))
		}

		if ok {
			col.Values[i] = v
			audit.Successful++
		}
	}
	return col, audit, nil
}

// CastTable casts every declared column of the staged frame and
// reports one audit record per column. Staged columns not in the
// schema are carried as per-row extras when the schema asks for them,
// otherwise dropped.
func CastTable(f *frame.Frame, schema types.TableSchema) (*Table, []CastAudit, error) {
	table := &Table{Schema: schema}
	var audits []CastAudit

	for _, spec := range schema.Columns {
		col, audit, err := CastColumn(f.Column(spec.Name), spec)
		if err != nil {
			return nil, nil, err
		}
		audit.Log()
		table.Columns = append(table.Columns, col)
		audits = append(audits, audit)
	}

	if schema.KeepExtras {
		covered := make(map[string]struct{}, len(schema.Columns))
		for _, spec := range schema.Columns {
			covered[spec.Name] = struct{}{}
		}
		table.Extras = make([]map[string]string, f.NumRows())
		for r := 0; r < f.NumRows(); r++ {
			extras := make(map[string]string)
			for _, c := range f.Columns() {
				if _, ok := covered[c]; ok {
					continue
				}
				if v := f.Value(r, c); !IsNull(v) {
					extras[c] = v
				}
			}
			table.Extras[r] = extras
		}
	}
	return table, audits, nil
}
