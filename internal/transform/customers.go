package transform

import (
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/moonwalk/moonwalk/internal/errors"
	"github.com/moonwalk/moonwalk/internal/frame"
	"github.com/moonwalk/moonwalk/internal/typecast"
)

// phoneJunk are placeholder values the POS stores instead of null.
var phoneJunk = map[string]struct{}{
	"": {}, "0": {}, "00": {}, "000000": {}, "00000000": {},
}

// BuildCustomerDim stages the customer dimension from the current
// customer export plus the legacy order archive. Current customers win
// on id collision; legacy customers are reconstructed from their order
// history (first seen name, earliest placed date as signup).
func BuildCustomerDim(cc, legacy *frame.Frame) (*frame.Frame, error) {
	for _, col := range []string{"Customer ID", "Name"} {
		if !cc.HasColumn(col) {
			return nil, errors.NewInputError(errors.CodeMissingColumn,
				"customer export missing column "+col, nil)
		}
	}

	out := frame.New("customers", []string{
		"CustomerID_Std", "CustomerName", "Store_Std", "SignedUp_Date",
		"CohortMonth", "Route_Num", "IsBusinessAccount", "Source_System",
		"Phone", "Email",
	})

	seen := make(map[string]struct{})
	for r := 0; r < cc.NumRows(); r++ {
		id := CustomerID(cc.Value(r, "Customer ID"), SourceCurrent)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			log.Printf("[WARN] customers: duplicate id %s in export, keeping first", id)
			continue
		}
		seen[id] = struct{}{}

		signedUp, cohort := "", ""
		if t, ok := typecast.ParseDate(cc.Value(r, "Signed Up Date")); ok {
			signedUp = t.Format("2006-01-02")
			cohort = TruncateMonth(t).Format("2006-01-02")
		}

		isBiz := "0"
		if strings.TrimSpace(cc.Value(r, "Business ID")) != "" {
			isBiz = "1"
		}

		if err := out.Append([]string{
			id,
			strings.TrimSpace(cc.Value(r, "Name")),
			StoreName(cc.Value(r, "Store ID"), "", SourceCurrent),
			signedUp,
			cohort,
			routeNum(cc.Value(r, "Route #")),
			isBiz,
			SourceCurrent,
			cleanPhone(cc.Value(r, "Phone")),
			cleanEmail(cc.Value(r, "Email")),
		}); err != nil {
			return nil, errors.NewInternalError("stage customer row", err)
		}
	}

	if legacy != nil && legacy.NumRows() > 0 {
		if err := appendLegacyCustomers(out, legacy, seen); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// appendLegacyCustomers folds the legacy order archive into one row per
// customer: first non-null name, earliest placed date.
func appendLegacyCustomers(out, legacy *frame.Frame, seen map[string]struct{}) error {
	type agg struct {
		name   string
		signed time.Time
	}
	byID := make(map[string]*agg)
	var order []string

	for r := 0; r < legacy.NumRows(); r++ {
		id := CustomerID(legacy.Value(r, "Customer ID"), SourceLegacy)
		if id == "" {
			continue
		}
		if _, taken := seen[id]; taken {
			continue
		}
		a, ok := byID[id]
		if !ok {
			a = &agg{}
			byID[id] = a
			order = append(order, id)
		}
		if a.name == "" {
			a.name = strings.TrimSpace(legacy.Value(r, "Customer"))
		}
		if t, ok := typecast.ParseDate(legacy.Value(r, "Placed")); ok {
			if a.signed.IsZero() || t.Before(a.signed) {
				a.signed = t
			}
		}
	}
	sort.Strings(order)

	for _, id := range order {
		a := byID[id]
		signedUp, cohort := "", ""
		if !a.signed.IsZero() {
			signedUp = a.signed.Format("2006-01-02")
			cohort = TruncateMonth(a.signed).Format("2006-01-02")
		}
		if err := out.Append([]string{
			id, a.name, "Moon Walk", signedUp, cohort,
			"0", "0", SourceLegacy, "", "",
		}); err != nil {
			return errors.NewInternalError("stage legacy customer row", err)
		}
	}
	return nil
}

// routeNum normalizes the raw route cell to an integral string, null
// mapping to 0 (store pickup).
func routeNum(raw string) string {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return "0"
	}
	return strconv.Itoa(int(f))
}

func cleanPhone(raw string) string {
	s := strings.TrimSpace(raw)
	if _, junk := phoneJunk[s]; junk {
		return ""
	}
	return s
}

func cleanEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
