package audit

import (
	"encoding/json"
	"os"
	"time"

	"github.com/moonwalk/moonwalk/internal/errors"
	"github.com/moonwalk/moonwalk/internal/typecast"
)

// TableSummary aggregates all data-quality outcomes for one table.
type TableSummary struct {
	Name       string                   `json:"name"`
	Rows       int                      `json:"rows"`
	Casts      []typecast.CastAudit     `json:"casts"`
	Residues   []typecast.DomainResidue `json:"residues,omitempty"`
	Violations []Violation              `json:"violations,omitempty"`
}

// Summary is the machine-consumable per-run artifact, written next to
// the published store. Log lines serve the operator; this serves
// whatever wants to chart loss rates over time.
type Summary struct {
	RunID      string         `json:"run_id"`
	Mode       string         `json:"mode"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
	Tables     []TableSummary `json:"tables"`
}

// AddTable appends one table's outcomes.
func (s *Summary) AddTable(ts TableSummary) {
	s.Tables = append(s.Tables, ts)
}

// TotalLoss sums cast losses across all tables.
func (s *Summary) TotalLoss() int {
	total := 0
	for _, t := range s.Tables {
		for _, c := range t.Casts {
			total += c.Loss()
		}
	}
	return total
}

// Write persists the summary as indented JSON. Written after the
// store publish: a summary describes a snapshot that exists.
func (s *Summary) Write(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.NewInternalError("marshal run summary", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.NewStoreError(errors.CodeBuildFailed, "write run summary", err)
	}
	return nil
}

// ReadSummary loads a previously written run summary.
func ReadSummary(path string) (*Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewInputError(errors.CodeFileNotFound, "read run summary", err)
	}
	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.NewInputError(errors.CodeUnreadableInput, "parse run summary", err)
	}
	return &s, nil
}
