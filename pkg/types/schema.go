// Package types provides core data types shared across the Moonwalk pipeline.
package types

// Kind is the target type of a column in the analytics store.
type Kind string

const (
	// KindText stores the value as-is (TEXT).
	KindText Kind = "text"

	// KindDate accepts ISO-normalizable encodings and Excel serial days (DATE).
	KindDate Kind = "date"

	// KindBool accepts a configured set of truthy/falsy tokens (BOOLEAN).
	KindBool Kind = "bool"

	// KindSmallInt requires an integral parse inside a bounded range (SMALLINT).
	KindSmallInt Kind = "smallint"

	// KindFloat accepts any float-parseable value (REAL).
	KindFloat Kind = "float"

	// KindEnum requires exact membership in the column's accepted domain (TEXT).
	KindEnum Kind = "enum"
)

// ColumnSpec declares the target type and cast rules for one column.
type ColumnSpec struct {
	// Name is the column name in both the staged input and the store
	Name string `json:"name" yaml:"name"`

	// Kind is the target type
	Kind Kind `json:"kind" yaml:"kind"`

	// Domain is the accepted value set for enum columns
	Domain *Domain `json:"domain,omitempty" yaml:"domain,omitempty"`

	// MinInt and MaxInt bound smallint columns. Both zero means the
	// default SMALLINT range [-32768, 32767].
	MinInt int64 `json:"min_int,omitempty" yaml:"min_int,omitempty"`
	MaxInt int64 `json:"max_int,omitempty" yaml:"max_int,omitempty"`
}

// IntBounds returns the effective bounds for a smallint column.
func (c ColumnSpec) IntBounds() (int64, int64) {
	if c.MinInt == 0 && c.MaxInt == 0 {
		return -32768, 32767
	}
	return c.MinInt, c.MaxInt
}

// IndexDef defines an index on a store table.
type IndexDef struct {
	// Name is the index name
	Name string `json:"name"`

	// Columns lists the columns included in the index
	Columns []string `json:"columns"`

	// Unique indicates whether the index enforces uniqueness
	Unique bool `json:"unique"`
}

// TableSchema defines one typed table in the analytics store.
type TableSchema struct {
	// Name is the table name
	Name string `json:"name"`

	// Columns defines the typed columns, in output order
	Columns []ColumnSpec `json:"columns"`

	// Indexes defines the indexes to create after loading
	Indexes []IndexDef `json:"indexes"`

	// KeepExtras carries staged columns not covered by Columns as a
	// compressed JSON blob per row instead of dropping them
	KeepExtras bool `json:"keep_extras"`
}

// Column returns the spec for the named column, if declared.
func (t TableSchema) Column(name string) (ColumnSpec, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnSpec{}, false
}
