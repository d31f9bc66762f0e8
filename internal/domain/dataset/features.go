package dataset

import (
	"fmt"
	"time"
)

const day = 24 * time.Hour

// Enrich derives the analytic columns from a normalized table set and returns
// a new table set; the input is left untouched.
//
// Products get their English category (falling back to UnknownCategory) and
// lose the source-language column. Orders get delivery_time_days,
// delivery_diff_days, delivery_status and the purchase calendar parts.
// Geolocation points are reduced to one centroid per zip-code prefix.
//
// Enrich is idempotent: enriching its own output yields the same values.
func Enrich(ts *TableSet) (*TableSet, error) {
	if ts == nil {
		return nil, &SchemaError{Table: TableOrders}
	}

	out := *ts
	out.Products = translateCategories(ts.Products, ts.CategoryTranslations)

	out.Orders = make(Orders, len(ts.Orders))
	for i := range ts.Orders {
		o := ts.Orders[i]
		if err := deriveOrderFeatures(&o); err != nil {
			return nil, err
		}
		out.Orders[i] = o
	}

	out.Geolocation = ReduceGeolocation(ts.Geolocation)
	return &out, nil
}

// translateCategories left-joins products to the translation lookup
func translateCategories(products Products, translations []CategoryTranslation) Products {
	lookup := make(map[string]string, len(translations))
	for _, t := range translations {
		if _, seen := lookup[t.CategoryName]; !seen {
			lookup[t.CategoryName] = t.CategoryNameEnglish
		}
	}

	out := make(Products, len(products))
	for i, p := range products {
		if p.CategoryName != "" {
			if en, ok := lookup[p.CategoryName]; ok && en != "" {
				p.CategoryNameEnglish = en
			}
		}
		p.CategoryName = ""
		if p.CategoryNameEnglish == "" {
			p.CategoryNameEnglish = UnknownCategory
		}
		out[i] = p
	}
	return out
}

func deriveOrderFeatures(o *Order) error {
	o.DeliveryTimeDays = daysBetween(o.PurchaseTimestamp, o.DeliveredCustomerDate)
	o.DeliveryDiffDays = daysBetween(o.DeliveredCustomerDate, o.EstimatedDeliveryDate)

	o.DeliveryStatus = ClassifyDelivery(o.DeliveryDiffDays)
	if o.DeliveryStatus == DeliveryError {
		return fmt.Errorf("order %s: %w", o.OrderID, ErrDeliveryClassification)
	}

	if o.PurchaseTimestamp == nil {
		o.PurchaseYear, o.PurchaseMonth, o.PurchaseDayOfWeek = 0, 0, ""
		return nil
	}
	p := *o.PurchaseTimestamp
	o.PurchaseYear = p.Year()
	o.PurchaseMonth = int(p.Month())
	// time.Weekday names are fixed English strings, independent of locale
	o.PurchaseDayOfWeek = p.Weekday().String()
	return nil
}

// ClassifyDelivery maps delivery_diff_days to a delivery status.
// Rules are evaluated in priority order; DeliveryError means none matched.
func ClassifyDelivery(diffDays *int) DeliveryStatus {
	switch {
	case diffDays == nil:
		return DeliveryInTransitCancelled
	case *diffDays < 0:
		return DeliveryDelayed
	case *diffDays >= 0:
		return DeliveryOnTime
	}
	return DeliveryError
}

// daysBetween returns to-from in whole days, floored, or nil if either side is nil
func daysBetween(from, to *time.Time) *int {
	if from == nil || to == nil {
		return nil
	}
	n := FloorDays(to.Sub(*from))
	return &n
}

// FloorDays converts a duration to whole days, rounding toward negative
// infinity (-1h is -1 day).
func FloorDays(d time.Duration) int {
	n := d / day
	if d%day < 0 {
		n--
	}
	return int(n)
}
