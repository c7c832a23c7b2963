// Package transform rebuilds the POS exports into the analytics
// tables: reconciling customer and order identity across source
// systems, deriving revenue attribution dates, and flagging orders
// covered by an active subscription window.
package transform

import (
	"fmt"
	"strings"
	"time"
)

// Source system tags.
const (
	SourceLegacy  = "Legacy"
	SourceCurrent = "CC_2025"
)

// Transaction types.
const (
	TxnOrder        = "Order"
	TxnSubscription = "Subscription"
	TxnInvoice      = "Invoice Payment"
)

// Store IDs as they appear in the exports.
const (
	moonwalkStoreID = "36319"
	hieloStoreID    = "38516"
)

// NormalizeName collapses a customer name for cross-system matching:
// uppercase, with spaces, hyphens, dots, apostrophes and commas
// stripped. The invoice export carries names, not customer ids, so
// this is the only join key available for those rows.
func NormalizeName(name string) string {
	s := strings.ToUpper(strings.TrimSpace(name))
	for _, r := range []string{" ", "-", ".", "'", ","} {
		s = strings.ReplaceAll(s, r, "")
	}
	return s
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func zfill(s string, width int) string {
	for len(s) < width {
		s = "0" + s
	}
	return s
}

// CustomerID standardizes a raw customer id to the MW-xxxx (legacy) or
// CC-xxxx (current) scheme. Pre-formatted ids pass through; ids with
// no digits standardize to null.
func CustomerID(raw, source string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "MW-") || strings.HasPrefix(s, "CC-") {
		return s
	}
	digits := digitsOnly(s)
	if digits == "" {
		return ""
	}
	if source == SourceLegacy {
		return "MW-" + zfill(digits, 4)
	}
	return "CC-" + zfill(digits, 4)
}

// OrderID standardizes a raw order id. Subscriptions and invoice
// payments have no order id in the export and get synthetic S-/I- ids
// from their row position; legacy R ids are normalized to R-; the rest
// are zero-padded and prefixed by store (H- Hielo, M- Moon Walk).
func OrderID(raw, storeStd, txnType string, rowIdx int) string {
	switch txnType {
	case TxnSubscription:
		return fmt.Sprintf("S-%05d", rowIdx)
	case TxnInvoice:
		return fmt.Sprintf("I-%05d", rowIdx)
	}

	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if strings.HasPrefix(s, "R-") {
		return s
	}
	if strings.HasPrefix(s, "R") {
		return "R-" + s[1:]
	}
	if strings.HasPrefix(s, "H-") || strings.HasPrefix(s, "M-") {
		return s
	}
	digits := digitsOnly(s)
	if digits == "" {
		return ""
	}
	if storeStd == "Hielo" {
		return "H-" + zfill(digits, 5)
	}
	return "M-" + zfill(digits, 5)
}

// StoreName resolves the standardized store from the export's store id,
// falling back to the store name and finally to the source system
// (every legacy row is Moon Walk). Unresolvable stores are null and
// their rows are dropped from the fact table.
func StoreName(storeID, storeName, source string) string {
	switch digitsOnly(storeID) {
	case moonwalkStoreID:
		return "Moon Walk"
	case hieloStoreID:
		return "Hielo"
	}
	upper := strings.ToUpper(storeName)
	if strings.Contains(upper, "MOON") {
		return "Moon Walk"
	}
	if strings.Contains(upper, "HIELO") {
		return "Hielo"
	}
	if source == SourceLegacy {
		return "Moon Walk"
	}
	return ""
}

// PaymentType standardizes the free-text payment method.
func PaymentType(raw string) string {
	pt := strings.ToUpper(strings.TrimSpace(raw))
	switch {
	case strings.Contains(pt, "CASH"):
		return "Cash"
	case strings.Contains(pt, "CARD"), strings.Contains(pt, "TERMINAL"):
		return "Terminal"
	case strings.Contains(pt, "BANK"), strings.Contains(pt, "STRIPE"):
		return "Stripe"
	case strings.Contains(pt, "INVOICE"):
		return "Receivable"
	default:
		return "Other"
	}
}

// Item and section keywords, matched against the collapsed text.
// Precedence is traditional wear, then linens, then professional wear,
// then extras; anything unmatched is Others.
var (
	traditionalKeywords = []string{"kandura", "kandoora", "thobe", "abaya", "sheyla", "shayla", "hijab", "ghutra", "jalabeya"}
	linenKeywords       = []string{"duvet", "comforter", "bedsheet", "sheet", "pillowcase", "pillow", "towel", "curtain", "tablecloth"}
	profKeywords        = []string{"uniform", "suit", "blazer", "jacket", "shirt", "blouse", "top", "polo", "pant", "trouser"}
	extrasKeywords      = []string{"shoe", "carpet", "tailor", "alteration"}
)

// itemText collapses free text for keyword matching: lowercase with
// spaces, hyphens, ampersands and apostrophes stripped.
func itemText(s string) string {
	s = strings.ToLower(s)
	for _, r := range []string{" ", "-", "&", "'"} {
		s = strings.ReplaceAll(s, r, "")
	}
	return s
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// ItemCategory buckets a line item by keywords in its name and section.
func ItemCategory(item, section string) string {
	combined := itemText(item) + itemText(section)
	switch {
	case containsAny(combined, traditionalKeywords):
		return "Traditional Wear"
	case containsAny(combined, linenKeywords):
		return "Home Linens"
	case containsAny(combined, profKeywords):
		return "Professional Wear"
	case containsAny(combined, extrasKeywords):
		return "Extras"
	default:
		return "Others"
	}
}

// ServiceType buckets a line item's section into the service offered.
func ServiceType(section string) string {
	s := itemText(section)
	switch {
	case strings.Contains(s, "drycle"):
		return "Dry Cleaning"
	case strings.Contains(s, "wash"), strings.Contains(s, "laund"):
		return "Wash & Press"
	case strings.Contains(s, "press"), strings.Contains(s, "iron"):
		return "Press Only"
	default:
		return "Other Service"
	}
}

// RouteCategory buckets a delivery route number.
func RouteCategory(route float64) string {
	switch {
	case route >= 1 && route <= 3:
		return "Inside Abu Dhabi"
	case route > 3:
		return "Outer Abu Dhabi"
	default:
		return "Other"
	}
}

// TruncateMonth returns the first instant of t's month.
func TruncateMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// MonthsSinceCohort is the whole-month distance between a customer's
// cohort month and the order's cohort month.
func MonthsSinceCohort(orderMonth, cohortMonth time.Time) int {
	return (orderMonth.Year()-cohortMonth.Year())*12 + int(orderMonth.Month()) - int(cohortMonth.Month())
}
