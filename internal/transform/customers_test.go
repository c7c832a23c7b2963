package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonwalk/moonwalk/internal/frame"
)

func ccCustomers(t *testing.T, rows ...[]string) *frame.Frame {
	t.Helper()
	f := frame.New("customers_export", []string{
		"Customer ID", "Name", "Store ID", "Signed Up Date",
		"Route #", "Business ID", "Phone", "Email",
	})
	for _, row := range rows {
		require.NoError(t, f.Append(row))
	}
	return f
}

func legacyOrders(t *testing.T, rows ...[]string) *frame.Frame {
	t.Helper()
	f := frame.New("legacy_archive", []string{"Customer ID", "Customer", "Placed"})
	for _, row := range rows {
		require.NoError(t, f.Append(row))
	}
	return f
}

func dimRow(t *testing.T, dim *frame.Frame, id string) int {
	t.Helper()
	for r := 0; r < dim.NumRows(); r++ {
		if dim.Value(r, "CustomerID_Std") == id {
			return r
		}
	}
	t.Fatalf("no dim row for %s", id)
	return -1
}

func TestBuildCustomerDimCurrentCustomers(t *testing.T) {
	cc := ccCustomers(t,
		[]string{"7", "John Smith", "36319", "2024-11-05", "2.0", "", " 0501234567 ", "John@Example.COM"},
		[]string{"8", "Acme Corp", "38516", "45292", "", "B-77", "0", ""},
	)

	dim, err := BuildCustomerDim(cc, nil)
	require.NoError(t, err)
	require.Equal(t, 2, dim.NumRows())

	r := dimRow(t, dim, "CC-0007")
	assert.Equal(t, "John Smith", dim.Value(r, "CustomerName"))
	assert.Equal(t, "Moon Walk", dim.Value(r, "Store_Std"))
	assert.Equal(t, "2024-11-05", dim.Value(r, "SignedUp_Date"))
	assert.Equal(t, "2024-11-01", dim.Value(r, "CohortMonth"))
	assert.Equal(t, "2", dim.Value(r, "Route_Num"))
	assert.Equal(t, "0", dim.Value(r, "IsBusinessAccount"))
	assert.Equal(t, "0501234567", dim.Value(r, "Phone"))
	assert.Equal(t, "john@example.com", dim.Value(r, "Email"))

	// Excel serial signup, business flag, junk phone nulled.
	r = dimRow(t, dim, "CC-0008")
	assert.Equal(t, "Hielo", dim.Value(r, "Store_Std"))
	assert.Equal(t, "2024-01-01", dim.Value(r, "SignedUp_Date"))
	assert.Equal(t, "1", dim.Value(r, "IsBusinessAccount"))
	assert.Equal(t, "0", dim.Value(r, "Route_Num"))
	assert.Equal(t, "", dim.Value(r, "Phone"))
}

func TestBuildCustomerDimDuplicateIDKeepsFirst(t *testing.T) {
	cc := ccCustomers(t,
		[]string{"7", "First", "36319", "", "", "", "", ""},
		[]string{"7", "Second", "36319", "", "", "", "", ""},
	)
	dim, err := BuildCustomerDim(cc, nil)
	require.NoError(t, err)
	require.Equal(t, 1, dim.NumRows())
	assert.Equal(t, "First", dim.Value(0, "CustomerName"))
}

func TestBuildCustomerDimLegacyAggregation(t *testing.T) {
	cc := ccCustomers(t,
		[]string{"7", "John Smith", "36319", "2024-11-05", "2", "", "", ""},
	)
	legacy := legacyOrders(t,
		[]string{"9", "", "2023-05-10"},
		[]string{"9", "Maryam K", "2023-01-02"},
		[]string{"9", "Maryam Khalifa", "2023-08-01"},
	)

	dim, err := BuildCustomerDim(cc, legacy)
	require.NoError(t, err)
	require.Equal(t, 2, dim.NumRows())

	r := dimRow(t, dim, "MW-0009")
	assert.Equal(t, "Maryam K", dim.Value(r, "CustomerName"), "first non-null name")
	assert.Equal(t, "2023-01-02", dim.Value(r, "SignedUp_Date"), "earliest placed date")
	assert.Equal(t, "2023-01-01", dim.Value(r, "CohortMonth"))
	assert.Equal(t, "Moon Walk", dim.Value(r, "Store_Std"))
	assert.Equal(t, SourceLegacy, dim.Value(r, "Source_System"))
}

func TestBuildCustomerDimMissingColumn(t *testing.T) {
	f := frame.New("customers_export", []string{"Customer ID"})
	_, err := BuildCustomerDim(f, nil)
	assert.Error(t, err)
}
