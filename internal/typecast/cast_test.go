package typecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonwalk/moonwalk/internal/frame"
	"github.com/moonwalk/moonwalk/pkg/types"
)

func TestCastAuditAccounting(t *testing.T) {
	// 15 values: 3 empty, 2 unparseable dates among the remaining 12.
	raw := []string{
		"2025-01-01", "2025-01-02", "2025-01-03", "2025-01-04",
		"2025-01-05", "2025-01-06", "2025-01-07", "2025-01-08",
		"2025-01-09", "2025-01-10",
		"not-a-date", "13/45/2025",
		"", "", "",
	}
	col, audit, err := CastColumn(raw, types.ColumnSpec{Name: "Placed_Date", Kind: types.KindDate})
	require.NoError(t, err)

	assert.Equal(t, 12, audit.Meaningful)
	assert.Equal(t, 10, audit.Successful)
	assert.Equal(t, 2, audit.Loss())
	assert.InDelta(t, 16.7, audit.LossPct(), 0.1)

	assert.Nil(t, col.Values[10], "failed cast becomes null")
	assert.Nil(t, col.Values[12], "source null stays null")
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), col.Values[0])
}

func TestParseDateFormats(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2025-01-15", time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), true},
		{"2025-03-21 01:29:10", time.Date(2025, 3, 21, 1, 29, 10, 0, time.UTC), true},
		{"21 Mar 2025 00:39", time.Date(2025, 3, 21, 0, 39, 0, 0, time.UTC), true},
		{"21 Mar 2025", time.Date(2025, 3, 21, 0, 0, 0, 0, time.UTC), true},
		// Excel serial: 45292 days after 1899-12-30 is 2024-01-01.
		{"45292", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"45292.0", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"1", time.Time{}, false},      // below serial range
		{"99999", time.Time{}, false},  // above serial range
		{"15/01/2025", time.Time{}, false},
		{"nan", time.Time{}, false},
		{"None", time.Time{}, false},
		{"", time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseDate(tt.in)
		assert.Equal(t, tt.ok, ok, "input %q", tt.in)
		if tt.ok {
			assert.Equal(t, tt.want, got, "input %q", tt.in)
		}
	}
}

func TestParseBoolTokens(t *testing.T) {
	for _, s := range []string{"1", "true", "TRUE", "t", "yes", "Y"} {
		v, ok := ParseBool(s)
		assert.True(t, ok, s)
		assert.True(t, v, s)
	}
	for _, s := range []string{"0", "false", "f", "no", "N"} {
		v, ok := ParseBool(s)
		assert.True(t, ok, s)
		assert.False(t, v, s)
	}
	for _, s := range []string{"2", "maybe", ""} {
		_, ok := ParseBool(s)
		assert.False(t, ok, s)
	}
}

func TestParseSmallIntBounds(t *testing.T) {
	v, ok := ParseSmallInt("3", -32768, 32767)
	assert.True(t, ok)
	assert.Equal(t, int64(3), v)

	v, ok = ParseSmallInt("3.0", -32768, 32767)
	assert.True(t, ok, "float-formatted integral accepted")
	assert.Equal(t, int64(3), v)

	_, ok = ParseSmallInt("3.5", -32768, 32767)
	assert.False(t, ok, "fractional is a loss, not a truncation")

	_, ok = ParseSmallInt("40000", -32768, 32767)
	assert.False(t, ok, "out of range is a loss")

	_, ok = ParseSmallInt("-40000", -32768, 32767)
	assert.False(t, ok)

	_, ok = ParseSmallInt("abc", -32768, 32767)
	assert.False(t, ok)
}

func TestParseSmallIntRequiresIntegralNotation(t *testing.T) {
	v, ok := ParseSmallInt("-12.000", -32768, 32767)
	assert.True(t, ok, "long zero tail still integral")
	assert.Equal(t, int64(-12), v)

	v, ok = ParseSmallInt("3.", -32768, 32767)
	assert.True(t, ok)
	assert.Equal(t, int64(3), v)

	_, ok = ParseSmallInt("1e3", -32768, 32767)
	assert.False(t, ok, "exponent notation is not an integral parse")

	_, ok = ParseSmallInt("1E2", -32768, 32767)
	assert.False(t, ok)

	_, ok = ParseSmallInt("32767.0000001", -32768, 32767)
	assert.False(t, ok, "near-integral float artifact is a loss")
}

func TestCastEnumColumn(t *testing.T) {
	domain := types.NewDomain("payment_type", "Cash", "Terminal", "Stripe", "Receivable", "Other")
	raw := []string{"Cash", "Stripe", "Crypto", ""}

	col, audit, err := CastColumn(raw, types.ColumnSpec{
		Name: "Payment_Type_Std", Kind: types.KindEnum, Domain: domain,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, audit.Meaningful)
	assert.Equal(t, 2, audit.Successful)
	assert.Equal(t, 1, audit.Loss())
	assert.Equal(t, "Cash", col.Values[0])
	assert.Nil(t, col.Values[2], "out-of-domain value loads as null")
	assert.Nil(t, col.Values[3])
}

func TestCastEnumWithoutDomainIsSpecError(t *testing.T) {
	_, _, err := CastColumn([]string{"x"}, types.ColumnSpec{Name: "c", Kind: types.KindEnum})
	assert.Error(t, err)
}

func TestCastUnknownKind(t *testing.T) {
	_, _, err := CastColumn([]string{"x"}, types.ColumnSpec{Name: "c", Kind: "decimal128"})
	assert.Error(t, err)
}

func TestCastTableWithExtras(t *testing.T) {
	f := frame.New("sales", []string{"Total_Num", "Paid", "Notes"})
	require.NoError(t, f.Append([]string{"12.5", "1", "rush order"}))
	require.NoError(t, f.Append([]string{"8.0", "0", ""}))

	schema := types.TableSchema{
		Name: "sales",
		Columns: []types.ColumnSpec{
			{Name: "Total_Num", Kind: types.KindFloat},
			{Name: "Paid", Kind: types.KindBool},
		},
		KeepExtras: true,
	}

	table, audits, err := CastTable(f, schema)
	require.NoError(t, err)
	assert.Len(t, audits, 2)
	assert.Equal(t, 2, table.NumRows())

	total, ok := table.Column("Total_Num")
	require.True(t, ok)
	assert.Equal(t, 12.5, total.Values[0])

	paid, ok := table.Column("Paid")
	require.True(t, ok)
	assert.Equal(t, true, paid.Values[0])
	assert.Equal(t, false, paid.Values[1])

	assert.Equal(t, map[string]string{"Notes": "rush order"}, table.Extras[0])
	assert.Empty(t, table.Extras[1], "null extras are not carried")
}

func TestGuardDomainsResidue(t *testing.T) {
	f := frame.New("sales", []string{"Category"})
	for _, v := range []string{"A", "B", "D", "E", "A", ""} {
		require.NoError(t, f.Append([]string{v}))
	}

	schema := types.TableSchema{
		Name: "sales",
		Columns: []types.ColumnSpec{
			{Name: "Category", Kind: types.KindEnum, Domain: types.NewDomain("category", "A", "B", "C")},
		},
	}

	residues := GuardDomains(f, schema)
	require.Len(t, residues, 1)
	assert.Equal(t, []string{"D", "E"}, residues[0].Values)
	assert.Equal(t, 5, residues[0].Checked)
}

func TestGuardDomainsNoDrift(t *testing.T) {
	f := frame.New("sales", []string{"Category"})
	require.NoError(t, f.Append([]string{"A"}))

	schema := types.TableSchema{
		Name: "sales",
		Columns: []types.ColumnSpec{
			{Name: "Category", Kind: types.KindEnum, Domain: types.NewDomain("category", "A")},
		},
	}
	assert.Empty(t, GuardDomains(f, schema))
}
