package transform

import (
	"log"
	"strconv"
	"strings"

	"github.com/moonwalk/moonwalk/internal/errors"
	"github.com/moonwalk/moonwalk/internal/frame"
	"github.com/moonwalk/moonwalk/internal/typecast"
)

// ItemsResult is the typed line-item table plus its data-quality
// outcomes.
type ItemsResult struct {
	Table    *typecast.Table
	Audits   []typecast.CastAudit
	Residues []typecast.DomainResidue

	DroppedNoStore int
}

// BuildItems rebuilds the item-level export into the typed line-item
// table: per-item date and cohort month, category and service
// bucketing, and the business-account flag. Unlike the sales table,
// business-account rows are kept and flagged, so item mix can be
// analyzed for both segments.
func BuildItems(items, customers *frame.Frame) (*ItemsResult, error) {
	if items == nil || customers == nil {
		return nil, errors.NewInputError(errors.CodeFileNotFound, "items build requires the items and customers exports", nil)
	}
	business := businessAccounts(customers)

	out := frame.New("items", []string{
		"Source", "Store_Std", "CustomerID_Std", "OrderID_Std",
		"ItemDate", "ItemCohortMonth", "Item", "Section",
		"Quantity", "Total", "Express",
		"Item_Category", "Service_Type", "IsBusinessAccount",
	})

	res := &ItemsResult{}
	for r := 0; r < items.NumRows(); r++ {
		store := StoreName(items.Value(r, "Store ID"), items.Value(r, "Store Name"), SourceCurrent)
		if store == "" {
			res.DroppedNoStore++
			continue
		}

		itemDate, dateOK := typecast.ParseDate(items.Value(r, "Placed"))
		cohort := ""
		if dateOK {
			cohort = TruncateMonth(itemDate).Format("2006-01-02")
		}

		cid := CustomerID(items.Value(r, "Customer ID"), SourceCurrent)
		oid := OrderID(items.Value(r, "Order ID"), store, TxnOrder, r)
		_, b2b := business[cid]

		item := strings.TrimSpace(items.Value(r, "Item"))
		section := strings.TrimSpace(items.Value(r, "Section"))

		if err := out.Append([]string{
			SourceCurrent, store, cid, oid,
			isoOrNull(itemDate, dateOK), cohort,
			item, section,
			strconv.Itoa(intOrZero(items.Value(r, "Quantity"))),
			floatOrZero(items.Value(r, "Total")),
			boolCell(intOrZero(items.Value(r, "Express")) != 0),
			ItemCategory(item, section),
			ServiceType(section),
			boolCell(b2b),
		}); err != nil {
			return nil, errors.NewInternalError("stage item row", err)
		}
	}
	if res.DroppedNoStore > 0 {
		log.Printf("[INFO] items: dropped %d rows with no store", res.DroppedNoStore)
	}

	schema := ItemsSchema()
	res.Residues = typecast.GuardDomains(out, schema)

	table, audits, err := typecast.CastTable(out, schema)
	if err != nil {
		return nil, err
	}
	res.Table = table
	res.Audits = audits
	return res, nil
}
