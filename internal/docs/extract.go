package docs

import (
	"regexp"
	"strings"

	"github.com/moonwalk/moonwalk/internal/errors"
)

// FieldSpec declares how one field is pulled out of a document, in
// descending order of trust: an exact labeled pattern, a fuzzy
// pattern, then a heuristic. The first method that produces a value
// wins and stamps the field with its confidence weight.
type FieldSpec struct {
	Name string

	// Exact and Fuzzy capture the field value in group 1
	Exact *regexp.Regexp
	Fuzzy *regexp.Regexp

	// Heuristic returns "" when it cannot infer a value
	Heuristic func(text string) string

	// Required fields gate acceptance; a missing required field is a
	// zero-confidence extraction
	Required bool
}

// Extractor extracts one document class. Key names the field whose
// value is the document's natural key.
type Extractor struct {
	Key   string
	Specs []FieldSpec
}

// NewExtractor validates and builds an extractor.
func NewExtractor(key string, specs []FieldSpec) (*Extractor, error) {
	if key == "" {
		return nil, errors.NewExtractError(errors.CodeMissingNaturalKey, "extractor has no key field")
	}
	for _, s := range specs {
		if s.Name == key {
			return &Extractor{Key: key, Specs: specs}, nil
		}
	}
	return nil, errors.NewExtractError(errors.CodeMissingNaturalKey,
		"key field "+key+" has no field spec")
}

// Extract runs every field spec against the document text and returns
// the parsed record. The record is Parsed, never Accepted or
// Exception: routing against the threshold is the pipeline's call,
// not the extractor's.
func (e *Extractor) Extract(source, text string) *Record {
	rec := &Record{
		Source: source,
		Status: StatusParsed,
		Fields: make(map[string]Field, len(e.Specs)),
	}
	for _, spec := range e.Specs {
		if f, ok := extractField(spec, text); ok {
			rec.Fields[spec.Name] = f
		} else if spec.Required {
			rec.Fields[spec.Name] = Field{Confidence: 0, Method: ""}
		}
	}
	if key, ok := rec.Fields[e.Key]; ok {
		rec.NaturalKey = key.Value
	}
	return rec
}

func extractField(spec FieldSpec, text string) (Field, bool) {
	if spec.Exact != nil {
		if m := spec.Exact.FindStringSubmatch(text); len(m) > 1 && strings.TrimSpace(m[1]) != "" {
			return Field{Value: strings.TrimSpace(m[1]), Confidence: ConfidenceExact, Method: MethodExact}, true
		}
	}
	if spec.Fuzzy != nil {
		if m := spec.Fuzzy.FindStringSubmatch(text); len(m) > 1 && strings.TrimSpace(m[1]) != "" {
			return Field{Value: strings.TrimSpace(m[1]), Confidence: ConfidenceFuzzy, Method: MethodFuzzy}, true
		}
	}
	if spec.Heuristic != nil {
		if v := strings.TrimSpace(spec.Heuristic(text)); v != "" {
			return Field{Value: v, Confidence: ConfidenceHeuristic, Method: MethodHeuristic}, true
		}
	}
	return Field{}, false
}
