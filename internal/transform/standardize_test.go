package transform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"John Smith", "JOHNSMITH"},
		{"  al-rashid, m. o'neil ", "ALRASHIDMONEIL"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeName(tt.in), "in=%q", tt.in)
	}
}

func TestCustomerID(t *testing.T) {
	tests := []struct {
		raw, source, want string
	}{
		{"17", SourceLegacy, "MW-0017"},
		{"17", SourceCurrent, "CC-0017"},
		{"17.0", SourceCurrent, "CC-0170"}, // digits only, no float parsing
		{"MW-0042", SourceCurrent, "MW-0042"},
		{"CC-1234", SourceLegacy, "CC-1234"},
		{"12345", SourceCurrent, "CC-12345"},
		{"n/a", SourceCurrent, ""},
		{"", SourceLegacy, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CustomerID(tt.raw, tt.source), "raw=%q source=%s", tt.raw, tt.source)
	}
}

func TestOrderID(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		store    string
		txn      string
		row      int
		want     string
	}{
		{"subscription synthetic", "whatever", "Moon Walk", TxnSubscription, 7, "S-00007"},
		{"invoice synthetic", "", "Moon Walk", TxnInvoice, 123, "I-00123"},
		{"legacy R dash kept", "R-0042", "Moon Walk", TxnOrder, 0, "R-0042"},
		{"legacy R no dash", "R0042", "Moon Walk", TxnOrder, 0, "R-0042"},
		{"preformatted hielo", "H-00009", "Hielo", TxnOrder, 0, "H-00009"},
		{"numeric moon walk", "93", "Moon Walk", TxnOrder, 0, "M-00093"},
		{"numeric hielo", "93", "Hielo", TxnOrder, 0, "H-00093"},
		{"no digits", "??", "Moon Walk", TxnOrder, 0, ""},
		{"null", "", "Moon Walk", TxnOrder, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, OrderID(tt.raw, tt.store, tt.txn, tt.row))
		})
	}
}

func TestStoreName(t *testing.T) {
	tests := []struct {
		id, name, source, want string
	}{
		{"36319", "", SourceCurrent, "Moon Walk"},
		{"38516", "", SourceCurrent, "Hielo"},
		{"36319.0", "", SourceCurrent, "Moon Walk"},
		{"", "Moon Walk Laundry", SourceCurrent, "Moon Walk"},
		{"", "HIELO DOWNTOWN", SourceCurrent, "Hielo"},
		{"", "", SourceLegacy, "Moon Walk"},
		{"99999", "Unknown Branch", SourceCurrent, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StoreName(tt.id, tt.name, tt.source),
			"id=%q name=%q source=%s", tt.id, tt.name, tt.source)
	}
}

func TestPaymentType(t *testing.T) {
	tests := []struct {
		raw, want string
	}{
		{"cash", "Cash"},
		{"Credit Card", "Terminal"},
		{"TERMINAL", "Terminal"},
		{"Bank Transfer", "Stripe"},
		{"stripe link", "Stripe"},
		{"Invoice", "Receivable"},
		{"Cheque", "Other"},
		{"", "Other"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PaymentType(tt.raw), "raw=%q", tt.raw)
	}
}

func TestRouteCategory(t *testing.T) {
	assert.Equal(t, "Inside Abu Dhabi", RouteCategory(1))
	assert.Equal(t, "Inside Abu Dhabi", RouteCategory(3))
	assert.Equal(t, "Outer Abu Dhabi", RouteCategory(4))
	assert.Equal(t, "Outer Abu Dhabi", RouteCategory(12))
	assert.Equal(t, "Other", RouteCategory(0))
	assert.Equal(t, "Other", RouteCategory(-1))
}

func TestMonthsSinceCohort(t *testing.T) {
	cohort := time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, MonthsSinceCohort(cohort, cohort))
	assert.Equal(t, 2, MonthsSinceCohort(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), cohort))
	assert.Equal(t, -1, MonthsSinceCohort(time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC), cohort))
}

func TestTruncateMonth(t *testing.T) {
	got := TruncateMonth(time.Date(2025, 3, 17, 14, 30, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), got)
}
