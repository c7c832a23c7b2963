package transform

import "github.com/moonwalk/moonwalk/pkg/types"

// Accepted categorical domains. New upstream values show up as logged
// residue and load as null until the domain here is extended.
var (
	SourceDomain = types.NewDomain("source", SourceLegacy, SourceCurrent)

	TxnTypeDomain = types.NewDomain("transaction_type", TxnOrder, TxnSubscription, TxnInvoice)

	PaymentTypeDomain = types.NewDomain("payment_type", "Cash", "Terminal", "Stripe", "Receivable", "Other")

	StoreDomain = types.NewDomain("store", "Moon Walk", "Hielo")

	RouteDomain = types.NewDomain("route_category", "Inside Abu Dhabi", "Outer Abu Dhabi", "Other")

	ItemCategoryDomain = types.NewDomain("item_category", "Traditional Wear", "Home Linens", "Professional Wear", "Extras", "Others")

	ServiceTypeDomain = types.NewDomain("service_type", "Dry Cleaning", "Wash & Press", "Press Only", "Other Service")
)

// SalesSchema is the typed target for the unified sales fact table.
func SalesSchema() types.TableSchema {
	return types.TableSchema{
		Name: "sales",
		Columns: []types.ColumnSpec{
			{Name: "Source", Kind: types.KindEnum, Domain: SourceDomain},
			{Name: "Transaction_Type", Kind: types.KindEnum, Domain: TxnTypeDomain},
			{Name: "Payment_Type_Std", Kind: types.KindEnum, Domain: PaymentTypeDomain},
			{Name: "Store_Std", Kind: types.KindEnum, Domain: StoreDomain},
			{Name: "CustomerID_Std", Kind: types.KindText},
			{Name: "OrderID_Std", Kind: types.KindText},
			{Name: "Placed_Date", Kind: types.KindDate},
			{Name: "Cleaned_Date", Kind: types.KindDate},
			{Name: "Collected_Date", Kind: types.KindDate},
			{Name: "Payment_Date", Kind: types.KindDate},
			{Name: "Delivery_Date", Kind: types.KindDate},
			{Name: "Earned_Date", Kind: types.KindDate},
			{Name: "OrderCohortMonth", Kind: types.KindDate},
			{Name: "CohortMonth", Kind: types.KindDate},
			{Name: "MonthsSinceCohort", Kind: types.KindSmallInt, MinInt: -1200, MaxInt: 1200},
			{Name: "Total_Num", Kind: types.KindFloat},
			{Name: "Collections", Kind: types.KindFloat},
			{Name: "Paid", Kind: types.KindBool},
			{Name: "Is_Earned", Kind: types.KindBool},
			{Name: "Pieces", Kind: types.KindSmallInt},
			{Name: "Delivery", Kind: types.KindBool},
			{Name: "HasDelivery", Kind: types.KindBool},
			{Name: "HasPickup", Kind: types.KindBool},
			{Name: "Route_Num", Kind: types.KindSmallInt},
			{Name: "Route_Category", Kind: types.KindEnum, Domain: RouteDomain},
			{Name: "IsSubscriptionService", Kind: types.KindBool},
			{Name: "Processing_Days", Kind: types.KindFloat},
			{Name: "TimeInStore_Days", Kind: types.KindFloat},
			{Name: "DaysToPayment", Kind: types.KindFloat},
		},
		Indexes: []types.IndexDef{
			{Name: "idx_sales_customer", Columns: []string{"CustomerID_Std"}},
			{Name: "idx_sales_order", Columns: []string{"OrderID_Std"}},
			{Name: "idx_sales_earned", Columns: []string{"Earned_Date"}},
			{Name: "idx_sales_cohort", Columns: []string{"CohortMonth"}},
			{Name: "idx_sales_txn", Columns: []string{"Transaction_Type"}},
		},
		KeepExtras: true,
	}
}

// ItemsSchema is the typed target for the line-item table. The items
// export carries per-customer contact and pricing columns the
// analytics layer never reads, so extras are dropped rather than
// carried.
func ItemsSchema() types.TableSchema {
	return types.TableSchema{
		Name: "items",
		Columns: []types.ColumnSpec{
			{Name: "Source", Kind: types.KindEnum, Domain: SourceDomain},
			{Name: "Store_Std", Kind: types.KindEnum, Domain: StoreDomain},
			{Name: "CustomerID_Std", Kind: types.KindText},
			{Name: "OrderID_Std", Kind: types.KindText},
			{Name: "ItemDate", Kind: types.KindDate},
			{Name: "ItemCohortMonth", Kind: types.KindDate},
			{Name: "Item", Kind: types.KindText},
			{Name: "Section", Kind: types.KindText},
			{Name: "Quantity", Kind: types.KindSmallInt},
			{Name: "Total", Kind: types.KindFloat},
			{Name: "Express", Kind: types.KindBool},
			{Name: "Item_Category", Kind: types.KindEnum, Domain: ItemCategoryDomain},
			{Name: "Service_Type", Kind: types.KindEnum, Domain: ServiceTypeDomain},
			{Name: "IsBusinessAccount", Kind: types.KindBool},
		},
		Indexes: []types.IndexDef{
			{Name: "idx_items_order", Columns: []string{"OrderID_Std"}},
			{Name: "idx_items_customer", Columns: []string{"CustomerID_Std"}},
			{Name: "idx_items_category", Columns: []string{"Item_Category"}},
			{Name: "idx_items_date", Columns: []string{"ItemDate"}},
		},
	}
}

// CustomersSchema is the typed target for the customer dimension.
func CustomersSchema() types.TableSchema {
	return types.TableSchema{
		Name: "customers",
		Columns: []types.ColumnSpec{
			{Name: "CustomerID_Std", Kind: types.KindText},
			{Name: "CustomerName", Kind: types.KindText},
			{Name: "Store_Std", Kind: types.KindEnum, Domain: StoreDomain},
			{Name: "SignedUp_Date", Kind: types.KindDate},
			{Name: "CohortMonth", Kind: types.KindDate},
			{Name: "Route_Num", Kind: types.KindSmallInt},
			{Name: "IsBusinessAccount", Kind: types.KindBool},
			{Name: "Source_System", Kind: types.KindEnum, Domain: SourceDomain},
			{Name: "Phone", Kind: types.KindText},
			{Name: "Email", Kind: types.KindText},
		},
		Indexes: []types.IndexDef{
			{Name: "idx_customers_id", Columns: []string{"CustomerID_Std"}, Unique: true},
			{Name: "idx_customers_cohort", Columns: []string{"CohortMonth"}},
		},
		KeepExtras: true,
	}
}
