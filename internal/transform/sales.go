package transform

import (
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/moonwalk/moonwalk/internal/audit"
	"github.com/moonwalk/moonwalk/internal/errors"
	"github.com/moonwalk/moonwalk/internal/frame"
	"github.com/moonwalk/moonwalk/internal/interval"
	"github.com/moonwalk/moonwalk/internal/typecast"
)

// DefaultSubscriptionValidityDays is how long one subscription payment
// covers orders for.
const DefaultSubscriptionValidityDays = 30

// Inputs are the staged source exports for one sales build.
type Inputs struct {
	Customers *frame.Frame // current customer export
	Orders    *frame.Frame // current order export
	Invoices  *frame.Frame // invoice and subscription payment export
	Legacy    *frame.Frame // legacy order archive, may be nil
	Dim       *frame.Frame // staged customer dimension (BuildCustomerDim)
}

// Options tune the sales build.
type Options struct {
	SubscriptionValidityDays int
}

// Result is the typed sales table plus every data-quality outcome of
// the build.
type Result struct {
	Table      *typecast.Table
	Audits     []typecast.CastAudit
	Residues   []typecast.DomainResidue
	Violations []audit.Violation

	DroppedNoStore  int
	DroppedNoID     int
	DroppedBusiness int
}

// BuildSales unifies the order, invoice and legacy exports into one
// typed fact table: per-row identity standardization, subscription
// window attribution, revenue date policy, dimension enrichment and
// the full cast/guard/audit gauntlet.
func BuildSales(in Inputs, opts Options) (*Result, error) {
	if in.Orders == nil || in.Customers == nil || in.Invoices == nil || in.Dim == nil {
		return nil, errors.NewInputError(errors.CodeFileNotFound, "sales build requires customers, orders, invoices and the customer dimension", nil)
	}
	validity := opts.SubscriptionValidityDays
	if validity <= 0 {
		validity = DefaultSubscriptionValidityDays
	}

	business := businessAccounts(in.Customers)
	nameToID := customerNameIndex(in.Customers)
	subs := subscriptionWindows(in.Invoices, nameToID, validity)

	staged := stageAll(in)
	if err := attachCustomerIDs(staged, nameToID); err != nil {
		return nil, err
	}
	staged, err := frame.LeftJoin(staged, in.Dim, "CustomerID_Std", "CustomerID_Std")
	if err != nil {
		return nil, err
	}

	out := frame.New("sales", []string{
		"Source", "Transaction_Type", "Payment_Type_Std", "Store_Std",
		"CustomerID_Std", "OrderID_Std",
		"Placed_Date", "Cleaned_Date", "Collected_Date", "Payment_Date",
		"Delivery_Date", "Earned_Date", "OrderCohortMonth", "CohortMonth",
		"MonthsSinceCohort", "Total_Num", "Collections", "Paid", "Is_Earned",
		"Pieces", "Delivery", "HasDelivery", "HasPickup",
		"Route_Num", "Route_Category", "IsSubscriptionService",
		"Processing_Days", "TimeInStore_Days", "DaysToPayment",
		"Ready By", "Pickup Date",
	})

	res := &Result{}
	for r := 0; r < staged.NumRows(); r++ {
		row, keep := deriveRow(staged, r, business, subs, res)
		if !keep {
			continue
		}
		if err := out.Append(row); err != nil {
			return nil, errors.NewInternalError("stage sales row", err)
		}
	}
	if res.DroppedNoStore+res.DroppedNoID+res.DroppedBusiness > 0 {
		log.Printf("[INFO] sales: dropped %d rows with no store, %d with no id, %d business accounts",
			res.DroppedNoStore, res.DroppedNoID, res.DroppedBusiness)
	}

	schema := SalesSchema()
	res.Residues = typecast.GuardDomains(out, schema)

	table, audits, err := typecast.CastTable(out, schema)
	if err != nil {
		return nil, err
	}
	res.Table = table
	res.Audits = audits

	res.Violations = audit.Run(table, []audit.Check{
		{
			Name:     "cohort_on_earned",
			Column:   "CohortMonth",
			IDColumn: "OrderID_Std",
			Where:    audit.IsTrue("Is_Earned"),
		},
		{
			Name:     "earned_on_orders",
			Column:   "Earned_Date",
			IDColumn: "OrderID_Std",
			Where:    txnIs(TxnOrder),
		},
		{
			Name:     "customer_id_present",
			Column:   "CustomerID_Std",
			IDColumn: "OrderID_Std",
		},
	})
	return res, nil
}

// txnIs selects rows of one transaction type.
func txnIs(txn string) func(t *typecast.Table, row int) bool {
	return func(t *typecast.Table, row int) bool {
		c, ok := t.Column("Transaction_Type")
		if !ok {
			return false
		}
		s, ok := c.Values[row].(string)
		return ok && s == txn
	}
}

// businessAccounts collects the standardized ids of customers carrying
// a business id. Their orders are invoiced through the B2B ledger and
// would double-count against the invoice payments.
func businessAccounts(customers *frame.Frame) map[string]struct{} {
	set := make(map[string]struct{})
	for r := 0; r < customers.NumRows(); r++ {
		if strings.TrimSpace(customers.Value(r, "Business ID")) == "" {
			continue
		}
		if id := CustomerID(customers.Value(r, "Customer ID"), SourceCurrent); id != "" {
			set[id] = struct{}{}
		}
	}
	return set
}

// customerNameIndex maps normalized customer names to standardized
// ids. Invoice rows carry only names; this recovers their identity.
// First occurrence wins on name collision.
func customerNameIndex(customers *frame.Frame) map[string]string {
	index := make(map[string]string)
	for r := 0; r < customers.NumRows(); r++ {
		key := NormalizeName(customers.Value(r, "Name"))
		if key == "" {
			continue
		}
		id := CustomerID(customers.Value(r, "Customer ID"), SourceCurrent)
		if id == "" {
			continue
		}
		if _, taken := index[key]; !taken {
			index[key] = id
		}
	}
	return index
}

// subscriptionWindows derives each customer's merged validity spans
// from subscription payments: one payment covers [payment date,
// payment date + validity days], both ends inclusive.
func subscriptionWindows(invoices *frame.Frame, nameToID map[string]string, validityDays int) map[string][]interval.Span {
	byCustomer := make(map[string][]interval.Span)
	for r := 0; r < invoices.NumRows(); r++ {
		ref := strings.ToUpper(strings.TrimSpace(invoices.Value(r, "Reference")))
		if !strings.HasPrefix(ref, "SUBSCRIPTION") {
			continue
		}
		paid, ok := typecast.ParseDate(invoices.Value(r, "Payment Date"))
		if !ok {
			continue
		}
		cid := nameToID[NormalizeName(invoices.Value(r, "Customer"))]
		if cid == "" {
			continue
		}
		byCustomer[cid] = append(byCustomer[cid], interval.Span{
			Start: paid,
			End:   paid.AddDate(0, 0, validityDays),
		})
	}
	return interval.MergeByEntityLogged(byCustomer)
}

// attachCustomerIDs standardizes every staged row's customer id and
// appends it as the enrichment join key. Invoice-shaped rows carry
// only a customer name; the name index recovers their id.
func attachCustomerIDs(staged *frame.Frame, nameToID map[string]string) error {
	ids := make([]string, staged.NumRows())
	for r := range ids {
		id := CustomerID(staged.Value(r, "Customer ID"), staged.Value(r, "Source"))
		txn := staged.Value(r, "Transaction_Type")
		if txn == TxnSubscription || txn == TxnInvoice {
			if mapped := nameToID[NormalizeName(staged.Value(r, "Customer_Name"))]; mapped != "" {
				id = mapped
			}
		}
		ids[r] = id
	}
	if err := staged.AddColumn("CustomerID_Std", ids); err != nil {
		return errors.NewInternalError("attach customer ids", err)
	}
	return nil
}

// stageAll concatenates the three transaction sources into one staged
// frame with a shared column set.
func stageAll(in Inputs) *frame.Frame {
	parts := []*frame.Frame{
		stageOrders(in.Orders, SourceCurrent),
		stageInvoices(in.Invoices),
	}
	if in.Legacy != nil && in.Legacy.NumRows() > 0 {
		parts = append([]*frame.Frame{stageOrders(in.Legacy, SourceLegacy)}, parts...)
	}
	return frame.Concat("sales_staged", parts...)
}

func constColumn(n int, v string) []string {
	col := make([]string, n)
	for i := range col {
		col[i] = v
	}
	return col
}

// stageOrders tags an order export with its source. Order exports
// carry no customer name; identity comes from the id column.
func stageOrders(orders *frame.Frame, source string) *frame.Frame {
	staged := orders.Filter(func(int) bool { return true })
	staged.Name = "orders_" + source
	staged.DropColumns("Source", "Transaction_Type", "Customer_Name")
	staged.AddColumn("Source", constColumn(staged.NumRows(), source))
	staged.AddColumn("Transaction_Type", constColumn(staged.NumRows(), TxnOrder))
	staged.AddColumn("Customer_Name", nil)
	return staged
}

// stageInvoices reshapes the invoice export into order-shaped rows.
// A row whose reference starts with SUBSCRIPTION is a subscription
// payment; everything else is an invoice payment. The payment date
// stands in for placed, cleaned and collected. Rows with an
// unparseable payment date are kept only when they are subscriptions,
// so the validity audit can surface them.
func stageInvoices(invoices *frame.Frame) *frame.Frame {
	staged := frame.New("invoices_staged", []string{
		"Order ID", "Customer ID", "Customer_Name",
		"Placed", "Cleaned", "Collected", "Payment Date",
		"Paid", "Pieces", "Delivery", "Total", "Collections_Inv",
		"Payment Type", "Source", "Transaction_Type",
		"Store ID", "Store Name",
	})
	for r := 0; r < invoices.NumRows(); r++ {
		ref := strings.ToUpper(strings.TrimSpace(invoices.Value(r, "Reference")))
		isSub := strings.HasPrefix(ref, "SUBSCRIPTION")
		_, dated := typecast.ParseDate(invoices.Value(r, "Payment Date"))
		if !dated && !isSub {
			continue
		}

		txn := TxnInvoice
		if isSub {
			txn = TxnSubscription
		}
		amount := floatOrZero(invoices.Value(r, "Amount"))
		pay := invoices.Value(r, "Payment Date")
		method := invoices.Value(r, "Payment Method")
		if typecast.IsNull(method) {
			method = invoices.Value(r, "Payment Type")
		}

		staged.Append([]string{
			"", "", invoices.Value(r, "Customer"),
			pay, pay, pay, pay,
			"1", "0", "0", amount, amount,
			method, SourceCurrent, txn,
			invoices.Value(r, "Store ID"), invoices.Value(r, "Store Name"),
		})
	}
	return staged
}

func floatOrZero(raw string) string {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return "0"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func intOrZero(raw string) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return int(f)
}

func boolCell(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func isoOrNull(t time.Time, ok bool) string {
	if !ok {
		return ""
	}
	return t.Format("2006-01-02")
}

func daysBetween(from, to time.Time) string {
	days := to.Sub(from).Hours() / 24
	return strconv.FormatFloat(days, 'f', -1, 64)
}

// deriveRow computes one output row from the staged, dimension-joined
// frame, or reports that the row is dropped (unresolvable store or
// identity, or a business account).
func deriveRow(
	staged *frame.Frame, r int,
	business map[string]struct{},
	subs map[string][]interval.Span,
	res *Result,
) ([]string, bool) {
	source := staged.Value(r, "Source")
	txn := staged.Value(r, "Transaction_Type")

	store := StoreName(staged.Value(r, "Store ID"), staged.Value(r, "Store Name"), source)
	if store == "" && txn != TxnOrder {
		// Invoicing runs out of the main store; payment exports often
		// omit the store columns entirely.
		store = "Moon Walk"
	}
	if store == "" {
		res.DroppedNoStore++
		return nil, false
	}

	placed, placedOK := typecast.ParseDate(staged.Value(r, "Placed"))
	cleaned, cleanedOK := typecast.ParseDate(staged.Value(r, "Cleaned"))
	collected, collectedOK := typecast.ParseDate(staged.Value(r, "Collected"))
	payment, paymentOK := typecast.ParseDate(staged.Value(r, "Payment Date"))

	// Revenue date policy: legacy sources fall back to the placed
	// date when the cleaned date is missing; current rows earn only
	// once cleaned.
	var earned time.Time
	earnedOK := false
	if source != SourceCurrent {
		if cleanedOK {
			earned, earnedOK = cleaned, true
		} else if placedOK {
			earned, earnedOK = placed, true
		}
	} else if cleanedOK {
		earned, earnedOK = cleaned, true
	}

	cid := staged.Value(r, "CustomerID_Std")
	oid := OrderID(staged.Value(r, "Order ID"), store, txn, r)
	if cid == "" || oid == "" {
		res.DroppedNoID++
		return nil, false
	}
	if _, b2b := business[cid]; b2b {
		res.DroppedBusiness++
		return nil, false
	}

	totalNum := floatOrZero(staged.Value(r, "Total"))
	paid := intOrZero(staged.Value(r, "Paid"))
	pieces := intOrZero(staged.Value(r, "Pieces"))
	delivery := intOrZero(staged.Value(r, "Delivery"))
	ptype := PaymentType(staged.Value(r, "Payment Type"))

	// Collections: invoices collect their own amount; unpaid and
	// receivable orders collect nothing yet.
	var collections string
	switch {
	case !typecast.IsNull(staged.Value(r, "Collections_Inv")):
		collections = floatOrZero(staged.Value(r, "Collections_Inv"))
	case paid == 0, ptype == "Receivable":
		collections = "0"
	default:
		collections = totalNum
	}

	cohort, cohortOK := typecast.ParseDate(staged.Value(r, "CohortMonth"))
	months := ""
	orderCohort := ""
	if earnedOK {
		orderCohort = TruncateMonth(earned).Format("2006-01-02")
		if cohortOK {
			months = strconv.Itoa(MonthsSinceCohort(TruncateMonth(earned), TruncateMonth(cohort)))
		}
	}

	route, _ := strconv.ParseFloat(staged.Value(r, "Route_Num"), 64)
	hasPickup := !typecast.IsNull(staged.Value(r, "Pickup Date"))
	deliveryDate := ""
	if delivery == 1 && collectedOK {
		deliveryDate = collected.Format("2006-01-02")
	}

	inSub := false
	if txn == TxnOrder && earnedOK {
		for _, span := range subs[cid] {
			if span.Contains(earned) {
				inSub = true
				break
			}
		}
	}

	processing, timeInStore, toPayment := "", "", ""
	if txn == TxnOrder && placedOK && cleanedOK {
		processing = daysBetween(placed, cleaned)
	}
	if txn == TxnOrder && cleanedOK && collectedOK {
		timeInStore = daysBetween(cleaned, collected)
	}
	if placedOK && paymentOK {
		toPayment = daysBetween(placed, payment)
	}

	return []string{
		source, txn, ptype, store,
		cid, oid,
		isoOrNull(placed, placedOK),
		isoOrNull(cleaned, cleanedOK),
		isoOrNull(collected, collectedOK),
		isoOrNull(payment, paymentOK),
		deliveryDate,
		isoOrNull(earned, earnedOK),
		orderCohort,
		isoOrNull(TruncateMonth(cohort), cohortOK),
		months,
		totalNum,
		collections,
		boolCell(paid != 0),
		boolCell(earnedOK),
		strconv.Itoa(pieces),
		boolCell(delivery == 1),
		boolCell(delivery == 1),
		boolCell(hasPickup),
		strconv.Itoa(int(route)),
		RouteCategory(route),
		boolCell(inSub),
		processing,
		timeInStore,
		toPayment,
		staged.Value(r, "Ready By"),
		staged.Value(r, "Pickup Date"),
	}, true
}
