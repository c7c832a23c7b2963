package typecast

import "log"

// CastAudit accounts for one column's cast outcome. Meaningful counts
// non-null, non-empty source cells only: a value that was already
// absent in the export is not a loss.
type CastAudit struct {
	Column     string `json:"column"`
	Meaningful int    `json:"meaningful"`
	Successful int    `json:"successful"`
}

// Loss is the number of meaningful values that failed the cast.
// Always >= 0 by construction.
func (a CastAudit) Loss() int {
	return a.Meaningful - a.Successful
}

// LossPct is the loss as a percentage of meaningful inputs.
func (a CastAudit) LossPct() float64 {
	if a.Meaningful == 0 {
		return 0
	}
	return float64(a.Loss()) / float64(a.Meaningful) * 100
}

// Log surfaces a positive loss to the operator, once per column per
// run. Per-value logging is deliberately absent to keep log volume
// bounded regardless of input size.
func (a CastAudit) Log() {
	if a.Loss() > 0 {
		log.Printf("[WARN] cast [%s]: %d/%d (%.1f%%) values lost to failed casts -- possible format change in source CSV",
			a.Column, a.Loss(), a.Meaningful, a.LossPct())
	}
}
