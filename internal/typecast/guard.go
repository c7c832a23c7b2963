package typecast

import (
	"log"

	"github.com/moonwalk/moonwalk/internal/frame"
	"github.com/moonwalk/moonwalk/pkg/types"
)

// DomainResidue reports categorical drift for one enum column:
// distinct observed values outside the accepted domain.
type DomainResidue struct {
	Column  string   `json:"column"`
	Domain  string   `json:"domain"`
	Values  []string `json:"values"`
	Checked int      `json:"checked"`
}

// GuardDomains scans the staged frame for values outside each enum
// column's accepted domain before the domain is enforced. Residue is
// logged with the offending values and the load proceeds; enforcement
// in CastColumn then turns the residue into counted losses rather than
// a crash or a silent truncation. Categorical domains are small, so
// logging the full residue set stays bounded.
func GuardDomains(f *frame.Frame, schema types.TableSchema) []DomainResidue {
	var residues []DomainResidue
	for _, spec := range schema.Columns {
		if spec.Kind != types.KindEnum || spec.Domain == nil {
			continue
		}
		observed := f.Column(spec.Name)
		var meaningful []string
		for _, v := range observed {
			if !IsNull(v) {
				meaningful = append(meaningful, v)
			}
		}
		residue := spec.Domain.Residue(meaningful)
		if len(residue) == 0 {
			continue
		}
		log.Printf("[WARN] enum drift in column %s (domain %s): unexpected values %v -- these will load as null until the domain is extended",
			spec.Name, spec.Domain.Name, residue)
		residues = append(residues, DomainResidue{
			Column:  spec.Name,
			Domain:  spec.Domain.Name,
			Values:  residue,
			Checked: len(meaningful),
		})
	}
	return residues
}
