package docs

import (
	"regexp"
	"strings"
)

// The stock extractor for employee document summaries (labor cards,
// visas, contracts) as exported by the HR system: a loosely labeled
// key/value text block per document.

var (
	employeeIDExact = regexp.MustCompile(`(?m)^Employee ID:\s*(EMP-\d{4})\s*$`)
	employeeIDFuzzy = regexp.MustCompile(`(?i)emp(?:loyee)?\s*(?:id|no\.?|#)?\s*[:#]?\s*(EMP-?\d{3,6})`)

	fullNameExact = regexp.MustCompile(`(?m)^Name:\s*(\S.*)$`)
	fullNameFuzzy = regexp.MustCompile(`(?i)(?:full\s+)?name\s*[:\-]\s*([A-Za-z][A-Za-z .'-]+)`)

	docTypeExact = regexp.MustCompile(`(?m)^Document Type:\s*(\S.*)$`)

	expiryExact = regexp.MustCompile(`(?m)^Expiry Date:\s*(\d{4}-\d{2}-\d{2})\s*$`)
	expiryFuzzy = regexp.MustCompile(`(?i)expir\w*\s*(?:date)?\s*[:\-]?\s*(\d{4}-\d{2}-\d{2})`)
)

// guessDocType infers the document class from body keywords when no
// labeled type line exists.
func guessDocType(text string) string {
	upper := strings.ToUpper(text)
	switch {
	case strings.Contains(upper, "LABOUR CARD"), strings.Contains(upper, "LABOR CARD"):
		return "Labor Card"
	case strings.Contains(upper, "RESIDENCE VISA"), strings.Contains(upper, "VISA"):
		return "Visa"
	case strings.Contains(upper, "CONTRACT"):
		return "Contract"
	default:
		return ""
	}
}

// EmployeeDocExtractor builds the extractor for employee documents.
// The employee id is the natural key: re-ingesting an employee's
// document updates their canonical record in place.
func EmployeeDocExtractor() *Extractor {
	ex, err := NewExtractor("employee_id", []FieldSpec{
		{Name: "employee_id", Exact: employeeIDExact, Fuzzy: employeeIDFuzzy, Required: true},
		{Name: "full_name", Exact: fullNameExact, Fuzzy: fullNameFuzzy, Required: true},
		{Name: "document_type", Exact: docTypeExact, Heuristic: guessDocType, Required: true},
		{Name: "expiry_date", Exact: expiryExact, Fuzzy: expiryFuzzy, Required: true},
	})
	if err != nil {
		// Static specs; cannot fail at runtime.
		panic(err)
	}
	return ex
}
