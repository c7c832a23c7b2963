// Package docs is the confidence-gated document ingestion pipeline:
// structured fields are extracted from semi-structured HR documents,
// each field carrying its extraction method's weight as a confidence
// score. Records whose weakest field falls below the acceptance
// threshold are quarantined for manual review instead of being
// committed, because a silently wrong contract expiry date is worse
// than a queued one.
package docs

import (
	"github.com/spaolacci/murmur3"
)

// Status is a record's position in the ingestion state machine:
// Received -> Parsed -> Accepted or Exception.
type Status string

const (
	StatusReceived  Status = "received"
	StatusParsed    Status = "parsed"
	StatusAccepted  Status = "accepted"
	StatusException Status = "exception"
)

// Extraction methods and their confidence weights.
const (
	MethodExact     = "exact"
	MethodFuzzy     = "fuzzy"
	MethodHeuristic = "heuristic"
	MethodManual    = "manual"

	ConfidenceExact     = 1.0
	ConfidenceFuzzy     = 0.85
	ConfidenceHeuristic = 0.60
)

// DefaultThreshold is the record-level acceptance floor.
const DefaultThreshold = 0.95

// Field is one extracted value with its provenance.
type Field struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	Method     string  `json:"method"`
}

// Record is one document's extraction outcome.
type Record struct {
	NaturalKey string
	Source     string
	Status     Status
	Fields     map[string]Field
}

// ID derives the stable 64-bit record id from the natural key, so
// re-ingesting the same document always lands on the same row. A
// record whose key could not be extracted is identified by its source
// instead, keeping distinct broken documents distinct in the queue.
func (r *Record) ID() int64 {
	if r.NaturalKey == "" {
		return int64(murmur3.Sum64([]byte("source:" + r.Source)))
	}
	return int64(murmur3.Sum64([]byte(r.NaturalKey)))
}

// Confidence is the record-level score: the minimum across all field
// confidences. A record is only as trustworthy as its weakest field.
func (r *Record) Confidence() float64 {
	conf := 1.0
	for _, f := range r.Fields {
		if f.Confidence < conf {
			conf = f.Confidence
		}
	}
	if len(r.Fields) == 0 {
		return 0
	}
	return conf
}

// Correct applies a manual fix to one field and re-scores it at full
// confidence. Corrected exception records re-enter the normal upsert
// path through the pipeline.
func (r *Record) Correct(name, value string) {
	if r.Fields == nil {
		r.Fields = make(map[string]Field)
	}
	r.Fields[name] = Field{Value: value, Confidence: ConfidenceExact, Method: MethodManual}
}
