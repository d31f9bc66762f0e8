package analytics

import (
	"sort"
	"time"

	"github.com/olist/dashboard/internal/domain/dataset"
	"github.com/shopspring/decimal"
)

// MonthLabelLayout formats a month bucket
const MonthLabelLayout = "2006-01"

// MonthlyRevenuePoint is the revenue of one purchase month
type MonthlyRevenuePoint struct {
	Month   time.Time       `json:"month"`
	Label   string          `json:"label"`
	Revenue decimal.Decimal `json:"revenue"`
}

// ScoreCount is the number of reviews with a score
type ScoreCount struct {
	Score int `json:"score"`
	Count int `json:"count"`
}

// ScoreDeliveryTime is the mean delivery time of orders reviewed with a score.
// AvgDeliveryDays is nil when none of those orders has a delivery time.
type ScoreDeliveryTime struct {
	Score           int      `json:"score"`
	AvgDeliveryDays *float64 `json:"avg_delivery_days"`
	Orders          int      `json:"orders"`
}

// GeoDensityPoint is the number of distinct orders at a zip-code centroid
type GeoDensityPoint struct {
	ZipCodePrefix int     `json:"zip_code_prefix"`
	Lat           float64 `json:"lat"`
	Lng           float64 `json:"lng"`
	City          string  `json:"city"`
	State         string  `json:"state"`
	Orders        int     `json:"orders"`
}

// CategoryRevenue is the item revenue of one product category
type CategoryRevenue struct {
	Category string          `json:"category"`
	Revenue  decimal.Decimal `json:"revenue"`
	Items    int             `json:"items"`
}

func monthOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// MonthlyRevenue sums payments by purchase month. Orders without payments
// count as zero and orders without a purchase timestamp are skipped. Months
// between the first and last month with orders are present with zero revenue.
func MonthlyRevenue(ft *FilteredTables) []MonthlyRevenuePoint {
	paid := make(map[string]decimal.Decimal, len(ft.Payments))
	for _, p := range ft.Payments {
		paid[p.OrderID] = paid[p.OrderID].Add(p.Value)
	}

	byMonth := make(map[time.Time]decimal.Decimal)
	var first, last time.Time
	for i := range ft.Orders {
		o := &ft.Orders[i]
		if o.PurchaseTimestamp == nil {
			continue
		}
		m := monthOf(*o.PurchaseTimestamp)
		byMonth[m] = byMonth[m].Add(paid[o.OrderID])
		if first.IsZero() || m.Before(first) {
			first = m
		}
		if last.IsZero() || m.After(last) {
			last = m
		}
	}

	out := make([]MonthlyRevenuePoint, 0, len(byMonth))
	if len(byMonth) == 0 {
		return out
	}
	for m := first; !m.After(last); m = m.AddDate(0, 1, 0) {
		out = append(out, MonthlyRevenuePoint{
			Month:   m,
			Label:   m.Format(MonthLabelLayout),
			Revenue: byMonth[m],
		})
	}
	return out
}

// ReviewScoreDistribution counts reviews per score. Every score from 1 to 5
// is present, in ascending order.
func ReviewScoreDistribution(ft *FilteredTables) []ScoreCount {
	out := make([]ScoreCount, 0, MaxReviewScore-MinReviewScore+1)
	for s := MinReviewScore; s <= MaxReviewScore; s++ {
		out = append(out, ScoreCount{Score: s})
	}
	for _, r := range ft.Reviews {
		if validScore(r.Score) {
			out[r.Score-MinReviewScore].Count++
		}
	}
	return out
}

// DeliveryTimeByScore joins reviews to their orders and averages delivery
// time per score. Only scores that occur are returned, in ascending order.
func DeliveryTimeByScore(ft *FilteredTables) []ScoreDeliveryTime {
	orders := make(map[string]*dataset.Order, len(ft.Orders))
	for i := range ft.Orders {
		orders[ft.Orders[i].OrderID] = &ft.Orders[i]
	}

	type acc struct {
		sum, timed, rows int
	}
	byScore := make(map[int]*acc)
	for _, r := range ft.Reviews {
		if !validScore(r.Score) {
			continue
		}
		o, ok := orders[r.OrderID]
		if !ok {
			continue
		}
		a := byScore[r.Score]
		if a == nil {
			a = &acc{}
			byScore[r.Score] = a
		}
		a.rows++
		if o.DeliveryTimeDays != nil {
			a.sum += *o.DeliveryTimeDays
			a.timed++
		}
	}

	out := make([]ScoreDeliveryTime, 0, len(byScore))
	for s := MinReviewScore; s <= MaxReviewScore; s++ {
		a, ok := byScore[s]
		if !ok {
			continue
		}
		point := ScoreDeliveryTime{Score: s, Orders: a.rows}
		if a.timed > 0 {
			avg := float64(a.sum) / float64(a.timed)
			point.AvgDeliveryDays = &avg
		}
		out = append(out, point)
	}
	return out
}

// GeoDensity counts distinct orders per customer zip-code centroid. Orders
// whose customer has no centroid are left out.
func GeoDensity(ft *FilteredTables, centroids []dataset.GeolocationPoint) []GeoDensityPoint {
	index := dataset.CentroidIndex(centroids)

	zipOf := make(map[string]int, len(ft.Customers))
	for _, c := range ft.Customers {
		zipOf[c.CustomerID] = c.ZipCodePrefix
	}

	byZip := make(map[int]map[string]struct{})
	for i := range ft.Orders {
		o := &ft.Orders[i]
		zip, ok := zipOf[o.CustomerID]
		if !ok {
			continue
		}
		if _, ok := index[zip]; !ok {
			continue
		}
		if byZip[zip] == nil {
			byZip[zip] = make(map[string]struct{})
		}
		byZip[zip][o.OrderID] = struct{}{}
	}

	out := make([]GeoDensityPoint, 0, len(byZip))
	for zip, ids := range byZip {
		c := index[zip]
		out = append(out, GeoDensityPoint{
			ZipCodePrefix: zip,
			Lat:           c.Lat,
			Lng:           c.Lng,
			City:          c.City,
			State:         c.State,
			Orders:        len(ids),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ZipCodePrefix < out[j].ZipCodePrefix
	})
	return out
}

// DeliveryStatusCounts counts orders per delivery status. Every status is present.
func DeliveryStatusCounts(ft *FilteredTables) map[dataset.DeliveryStatus]int {
	out := make(map[dataset.DeliveryStatus]int, len(dataset.DeliveryStatuses))
	for _, s := range dataset.DeliveryStatuses {
		out[s] = 0
	}
	for i := range ft.Orders {
		out[ft.Orders[i].DeliveryStatus]++
	}
	return out
}

// RevenueByCategory sums item prices per English category, highest first.
// A limit of zero or less returns every category.
func RevenueByCategory(ft *FilteredTables, limit int) []CategoryRevenue {
	category := make(map[string]string, len(ft.Products))
	for _, p := range ft.Products {
		category[p.ProductID] = p.CategoryNameEnglish
	}

	byCategory := make(map[string]*CategoryRevenue)
	for _, it := range ft.OrderItems {
		name := category[it.ProductID]
		if name == "" {
			name = dataset.UnknownCategory
		}
		c := byCategory[name]
		if c == nil {
			c = &CategoryRevenue{Category: name, Revenue: decimal.Zero}
			byCategory[name] = c
		}
		c.Revenue = c.Revenue.Add(it.Price)
		c.Items++
	}

	out := make([]CategoryRevenue, 0, len(byCategory))
	for _, c := range byCategory {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool {
		if cmp := out[i].Revenue.Cmp(out[j].Revenue); cmp != 0 {
			return cmp > 0
		}
		return out[i].Category < out[j].Category
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// PreviewOrders returns the first n orders by purchase time; orders without
// a purchase timestamp sort last.
func PreviewOrders(ft *FilteredTables, n int) []dataset.Order {
	out := append([]dataset.Order(nil), ft.Orders...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].PurchaseTimestamp, out[j].PurchaseTimestamp
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return a.Before(*b)
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	if out == nil {
		out = []dataset.Order{}
	}
	return out
}
