package types

import "sort"

// Domain is the fixed set of legal values for a categorical column.
// Categorical domains enumerated in code drift from real-world data
// over time; the loader checks observed values against the domain and
// reports the residue before enforcement.
type Domain struct {
	// Name identifies the domain in logs and audit output
	Name string `json:"name" yaml:"name"`

	// Accepted is the set of legal values
	Accepted []string `json:"accepted" yaml:"accepted"`
}

// NewDomain creates a named domain from its accepted values.
func NewDomain(name string, accepted ...string) *Domain {
	return &Domain{Name: name, Accepted: accepted}
}

// Contains reports whether v is a member of the domain.
func (d *Domain) Contains(v string) bool {
	for _, a := range d.Accepted {
		if a == v {
			return true
		}
	}
	return false
}

// Residue returns the distinct observed values outside the domain,
// sorted. An empty result means no drift.
func (d *Domain) Residue(observed []string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, v := range observed {
		if v == "" {
			continue
		}
		if d.Contains(v) {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
