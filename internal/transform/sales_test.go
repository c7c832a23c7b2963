package transform

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moonwalk/moonwalk/internal/frame"
	"github.com/moonwalk/moonwalk/internal/typecast"
)

func ordersFrame(t *testing.T, rows ...[]string) *frame.Frame {
	t.Helper()
	f := frame.New("orders_export", []string{
		"Order ID", "Customer ID", "Placed", "Cleaned", "Collected",
		"Pickup Date", "Payment Date", "Paid", "Pieces", "Delivery",
		"Total", "Payment Type", "Store ID",
	})
	for _, row := range rows {
		require.NoError(t, f.Append(row))
	}
	return f
}

func invoicesFrame(t *testing.T, rows ...[]string) *frame.Frame {
	t.Helper()
	f := frame.New("invoices_export", []string{
		"Reference", "Customer", "Payment Date", "Amount", "Payment Method",
	})
	for _, row := range rows {
		require.NoError(t, f.Append(row))
	}
	return f
}

// buildFixture assembles a small but full cross-section of the
// pipeline: current orders (paid, unpaid, business, broken), a legacy
// order, an invoice payment and two overlapping subscription payments.
func buildFixture(t *testing.T) (*Result, *typecast.Table) {
	t.Helper()

	customers := ccCustomers(t,
		[]string{"1", "John Smith", "36319", "2024-11-05", "2", "", "", ""},
		[]string{"2", "Acme Corp", "36319", "2024-01-01", "", "B-77", "", ""},
		[]string{"3", "Sara Lee", "38516", "45292", "5", "", "", ""},
	)
	orders := ordersFrame(t,
		// Paid order inside John's subscription window.
		[]string{"101", "1", "2025-01-10", "2025-01-12", "2025-01-14", "", "2025-01-14", "1", "5", "0", "100", "Cash", "36319"},
		// Not yet cleaned: no earned date under the current-source policy.
		[]string{"102", "1", "2025-02-01", "", "", "", "", "0", "2", "0", "40", "Credit Card", "36319"},
		// Business account, excluded.
		[]string{"103", "2", "2025-01-05", "2025-01-06", "", "", "", "1", "1", "0", "500", "Invoice", "36319"},
		// No customer id, excluded.
		[]string{"104", "", "2025-01-05", "2025-01-06", "", "", "", "1", "1", "0", "10", "Cash", "36319"},
		// Unresolvable store, excluded.
		[]string{"105", "1", "2025-01-05", "2025-01-06", "", "", "", "1", "1", "0", "10", "Cash", "99999"},
		// Hielo receivable.
		[]string{"7", "3", "2025-01-18", "2025-01-20", "", "", "", "1", "3", "1", "60", "Invoice", "38516"},
	)
	invoices := invoicesFrame(t,
		[]string{"SUBSCRIPTION JAN", "John Smith", "2025-01-05", "300", "Stripe"},
		[]string{"INV-55", "Sara Lee", "2025-01-15", "80", "Bank Transfer"},
		[]string{"SUBSCRIPTION FEB", "John Smith", "2025-01-20", "300", "Stripe"},
	)
	legacy := frame.New("legacy_archive", []string{
		"Order ID", "Customer ID", "Customer", "Placed", "Cleaned", "Paid", "Total", "Payment Type",
	})
	require.NoError(t, legacy.Append([]string{"R123", "9", "Maryam K", "2 Jan 2023", "", "1", "55", "cash"}))

	dim, err := BuildCustomerDim(customers, legacy)
	require.NoError(t, err)

	res, err := BuildSales(Inputs{
		Customers: customers,
		Orders:    orders,
		Invoices:  invoices,
		Legacy:    legacy,
		Dim:       dim,
	}, Options{})
	require.NoError(t, err)
	return res, res.Table
}

func rowWhere(t *testing.T, tbl *typecast.Table, col, want string) int {
	t.Helper()
	c, ok := tbl.Column(col)
	require.True(t, ok)
	for r := 0; r < tbl.NumRows(); r++ {
		if s, ok := c.Values[r].(string); ok && s == want {
			return r
		}
	}
	t.Fatalf("no row with %s=%q", col, want)
	return -1
}

func cell(t *testing.T, tbl *typecast.Table, col string, row int) interface{} {
	t.Helper()
	c, ok := tbl.Column(col)
	require.True(t, ok)
	return c.Values[row]
}

func TestBuildSalesRowAccounting(t *testing.T) {
	res, tbl := buildFixture(t)

	// 1 legacy + 6 current orders + 3 invoice rows, minus the three
	// excluded orders.
	assert.Equal(t, 7, tbl.NumRows())
	assert.Equal(t, 1, res.DroppedNoStore)
	assert.Equal(t, 1, res.DroppedNoID)
	assert.Equal(t, 1, res.DroppedBusiness)
	assert.Empty(t, res.Residues, "all categoricals inside their domains")
}

func TestBuildSalesPaidOrder(t *testing.T) {
	_, tbl := buildFixture(t)
	r := rowWhere(t, tbl, "OrderID_Std", "M-00101")

	assert.Equal(t, SourceCurrent, cell(t, tbl, "Source", r))
	assert.Equal(t, TxnOrder, cell(t, tbl, "Transaction_Type", r))
	assert.Equal(t, "CC-0001", cell(t, tbl, "CustomerID_Std", r))
	assert.Equal(t, "Moon Walk", cell(t, tbl, "Store_Std", r))
	assert.Equal(t, "Cash", cell(t, tbl, "Payment_Type_Std", r))
	assert.Equal(t, time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC), cell(t, tbl, "Earned_Date", r))
	assert.Equal(t, true, cell(t, tbl, "Is_Earned", r))
	assert.Equal(t, 100.0, cell(t, tbl, "Total_Num", r))
	assert.Equal(t, 100.0, cell(t, tbl, "Collections", r))
	assert.Equal(t, int64(5), cell(t, tbl, "Pieces", r))

	// Enrichment from the customer dimension.
	assert.Equal(t, time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC), cell(t, tbl, "CohortMonth", r))
	assert.Equal(t, int64(2), cell(t, tbl, "MonthsSinceCohort", r))
	assert.Equal(t, int64(2), cell(t, tbl, "Route_Num", r))
	assert.Equal(t, "Inside Abu Dhabi", cell(t, tbl, "Route_Category", r))

	// Earned 2025-01-12 falls inside the merged subscription window.
	assert.Equal(t, true, cell(t, tbl, "IsSubscriptionService", r))

	assert.Equal(t, 2.0, cell(t, tbl, "Processing_Days", r))
	assert.Equal(t, 2.0, cell(t, tbl, "TimeInStore_Days", r))
	assert.Equal(t, 4.0, cell(t, tbl, "DaysToPayment", r))
}

func TestBuildSalesUnearnedOrder(t *testing.T) {
	_, tbl := buildFixture(t)
	r := rowWhere(t, tbl, "OrderID_Std", "M-00102")

	assert.Nil(t, cell(t, tbl, "Earned_Date", r), "current-source rows earn only once cleaned")
	assert.Equal(t, false, cell(t, tbl, "Is_Earned", r))
	assert.Nil(t, cell(t, tbl, "OrderCohortMonth", r))
	assert.Nil(t, cell(t, tbl, "MonthsSinceCohort", r))
	assert.Equal(t, 0.0, cell(t, tbl, "Collections", r), "unpaid collects nothing")
	assert.Equal(t, "Terminal", cell(t, tbl, "Payment_Type_Std", r))
}

func TestBuildSalesReceivable(t *testing.T) {
	_, tbl := buildFixture(t)
	r := rowWhere(t, tbl, "OrderID_Std", "H-00007")

	assert.Equal(t, "Hielo", cell(t, tbl, "Store_Std", r))
	assert.Equal(t, "Receivable", cell(t, tbl, "Payment_Type_Std", r))
	assert.Equal(t, 0.0, cell(t, tbl, "Collections", r), "receivables collect nothing yet")
	assert.Equal(t, 60.0, cell(t, tbl, "Total_Num", r))
	assert.Equal(t, "Outer Abu Dhabi", cell(t, tbl, "Route_Category", r))
	assert.Equal(t, true, cell(t, tbl, "Delivery", r))
	assert.Equal(t, false, cell(t, tbl, "IsSubscriptionService", r), "no subscription for this customer")
}

func TestBuildSalesLegacyFallback(t *testing.T) {
	_, tbl := buildFixture(t)
	r := rowWhere(t, tbl, "OrderID_Std", "R-123")

	assert.Equal(t, SourceLegacy, cell(t, tbl, "Source", r))
	assert.Equal(t, "MW-0009", cell(t, tbl, "CustomerID_Std", r))
	assert.Equal(t, "Moon Walk", cell(t, tbl, "Store_Std", r), "legacy rows default to Moon Walk")
	assert.Equal(t, time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), cell(t, tbl, "Earned_Date", r),
		"legacy rows fall back to the placed date")
	assert.Equal(t, int64(0), cell(t, tbl, "MonthsSinceCohort", r))
}

func TestBuildSalesInvoiceRows(t *testing.T) {
	_, tbl := buildFixture(t)

	txn, _ := tbl.Column("Transaction_Type")
	oid, _ := tbl.Column("OrderID_Std")
	subs, invs := 0, 0
	for r := 0; r < tbl.NumRows(); r++ {
		switch txn.Values[r] {
		case TxnSubscription:
			subs++
			assert.True(t, strings.HasPrefix(oid.Values[r].(string), "S-"))
		case TxnInvoice:
			invs++
			assert.True(t, strings.HasPrefix(oid.Values[r].(string), "I-"))
			assert.Equal(t, "CC-0003", cell(t, tbl, "CustomerID_Std", r),
				"invoice identity recovered through the name index")
			assert.Equal(t, 80.0, cell(t, tbl, "Collections", r),
				"invoices collect their own amount")
			assert.Equal(t, "Stripe", cell(t, tbl, "Payment_Type_Std", r))
		}
	}
	assert.Equal(t, 2, subs)
	assert.Equal(t, 1, invs)
}

func TestBuildSalesMissingInput(t *testing.T) {
	_, err := BuildSales(Inputs{}, Options{})
	assert.Error(t, err)
}
