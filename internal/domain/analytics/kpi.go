package analytics

import (
	"math"

	"github.com/olist/dashboard/internal/domain/dataset"
	"github.com/shopspring/decimal"
)

// KPI keys
const (
	KPITotalRevenue            = "total_revenue"
	KPITotalOrders             = "total_orders"
	KPITotalCustomers          = "total_customers"
	KPIAvgReviewScore          = "avg_review_score"
	KPIOnTimeDeliveryRate      = "on_time_delivery_rate"
	KPIDeliveredOnScheduleRate = "delivered_on_schedule_rate"
)

// Review scores outside this range are not counted by any score aggregate
const (
	MinReviewScore = 1
	MaxReviewScore = 5
)

// KPIs are the scalar indicators of a filtered table set.
// AvgReviewScore is NaN when there are no reviews.
type KPIs struct {
	TotalRevenue            decimal.Decimal
	TotalOrders             int
	TotalCustomers          int
	AvgReviewScore          float64
	OnTimeDeliveryRate      float64
	DeliveredOnScheduleRate float64
}

// AsMap returns the KPIs keyed by name
func (k KPIs) AsMap() map[string]float64 {
	return map[string]float64{
		KPITotalRevenue:            k.TotalRevenue.InexactFloat64(),
		KPITotalOrders:             float64(k.TotalOrders),
		KPITotalCustomers:          float64(k.TotalCustomers),
		KPIAvgReviewScore:          k.AvgReviewScore,
		KPIOnTimeDeliveryRate:      k.OnTimeDeliveryRate,
		KPIDeliveredOnScheduleRate: k.DeliveredOnScheduleRate,
	}
}

// HasReviewScore reports whether AvgReviewScore is defined
func (k KPIs) HasReviewScore() bool {
	return !math.IsNaN(k.AvgReviewScore)
}

func validScore(score int) bool {
	return score >= MinReviewScore && score <= MaxReviewScore
}

// ComputeKPIs computes the scalar indicators. An empty set gives zero counts
// and rates and an undefined average review score.
func ComputeKPIs(ft *FilteredTables) KPIs {
	k := KPIs{TotalRevenue: decimal.Zero, AvgReviewScore: math.NaN()}

	for _, p := range ft.Payments {
		k.TotalRevenue = k.TotalRevenue.Add(p.Value)
	}

	orders := make(map[string]struct{}, len(ft.Orders))
	var delivered, onSchedule int
	for i := range ft.Orders {
		o := &ft.Orders[i]
		orders[o.OrderID] = struct{}{}
		if o.IsDelivered() {
			delivered++
		}
		if o.DeliveryStatus == dataset.DeliveryOnTime {
			onSchedule++
		}
	}
	k.TotalOrders = len(orders)
	if n := len(ft.Orders); n > 0 {
		k.OnTimeDeliveryRate = float64(delivered) / float64(n)
		k.DeliveredOnScheduleRate = float64(onSchedule) / float64(n)
	}

	people := make(map[string]struct{}, len(ft.Customers))
	for _, c := range ft.Customers {
		people[c.CustomerUniqueID] = struct{}{}
	}
	k.TotalCustomers = len(people)

	var sum, n int
	for _, r := range ft.Reviews {
		if !validScore(r.Score) {
			continue
		}
		sum += r.Score
		n++
	}
	if n > 0 {
		k.AvgReviewScore = float64(sum) / float64(n)
	}
	return k
}
