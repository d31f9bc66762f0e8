package dto

import (
	"math"
	"strings"
	"time"

	"github.com/olist/dashboard/internal/application/dashboard"
	"github.com/olist/dashboard/internal/domain/analytics"
	"github.com/olist/dashboard/internal/domain/dataset"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Query parameters that are not facet names
const (
	QueryForce = "force"
)

// SelectionQuery is the facet selection of a dashboard request. Each facet
// name is a query key; values repeat the key or are comma separated.
type SelectionQuery struct {
	Facets map[string][]string `json:"facets" binding:"max=16,dive,keys,min=1,max=64,endkeys,max=200,dive,max=256"`
}

// NewSelectionQuery collects every non-reserved query key
func NewSelectionQuery(query map[string][]string) SelectionQuery {
	q := SelectionQuery{Facets: make(map[string][]string, len(query))}
	for key, values := range query {
		if key == QueryForce {
			continue
		}
		for _, v := range values {
			for _, part := range strings.Split(v, ",") {
				q.Facets[key] = append(q.Facets[key], strings.TrimSpace(part))
			}
		}
	}
	return q
}

// Selection returns the query as an analytics selection
func (q SelectionQuery) Selection() analytics.Selection {
	return analytics.Selection(q.Facets)
}

// KPIResponse holds the scalar indicators. AvgReviewScore is null when no
// order in the selection has a review.
type KPIResponse struct {
	TotalRevenue            float64  `json:"total_revenue"`
	TotalOrders             int      `json:"total_orders"`
	TotalCustomers          int      `json:"total_customers"`
	AvgReviewScore          *float64 `json:"avg_review_score"`
	OnTimeDeliveryRate      float64  `json:"on_time_delivery_rate"`
	DeliveredOnScheduleRate float64  `json:"delivered_on_schedule_rate"`
}

// MonthlyRevenueResponse is one month of revenue
type MonthlyRevenueResponse struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
}

// CategoryRevenueResponse is one category of revenue
type CategoryRevenueResponse struct {
	Category string  `json:"category"`
	Revenue  float64 `json:"revenue"`
	Items    int     `json:"items"`
}

// StatusCountResponse is the number of orders with one delivery status
type StatusCountResponse struct {
	Status string `json:"status"`
	Orders int    `json:"orders"`
}

// OrderResponse is one preview row
type OrderResponse struct {
	OrderID               string     `json:"order_id"`
	CustomerID            string     `json:"customer_id"`
	Status                string     `json:"order_status"`
	PurchaseTimestamp     *time.Time `json:"order_purchase_timestamp"`
	DeliveredCustomerDate *time.Time `json:"order_delivered_customer_date"`
	EstimatedDeliveryDate *time.Time `json:"order_estimated_delivery_date"`
	DeliveryTimeDays      *int       `json:"delivery_time_days"`
	DeliveryDiffDays      *int       `json:"delivery_diff_days"`
	DeliveryStatus        string     `json:"delivery_status"`
}

// DashboardResponse is a complete dashboard
type DashboardResponse struct {
	RunID             string                        `json:"run_id"`
	Fingerprint       string                        `json:"fingerprint"`
	GeneratedAt       time.Time                     `json:"generated_at"`
	Selection         map[string][]string           `json:"selection"`
	MatchedOrders     int                           `json:"matched_orders"`
	KPIs              KPIResponse                   `json:"kpis"`
	MonthlyRevenue    []MonthlyRevenueResponse      `json:"monthly_revenue"`
	ScoreDistribution []analytics.ScoreCount        `json:"review_score_distribution"`
	DeliveryByScore   []analytics.ScoreDeliveryTime `json:"delivery_time_by_score"`
	GeoDensity        []analytics.GeoDensityPoint   `json:"geo_density"`
	DeliveryStatus    []StatusCountResponse         `json:"delivery_status"`
	RevenueByCategory []CategoryRevenueResponse     `json:"revenue_by_category"`
	Preview           []OrderResponse               `json:"preview"`
}

// FacetResponse is a facet and its selectable values
type FacetResponse struct {
	Name   string   `json:"name"`
	Label  string   `json:"label"`
	Table  string   `json:"table"`
	Column string   `json:"column"`
	Values []string `json:"values"`
}

// ReloadResponse describes a reload
type ReloadResponse struct {
	RunID       string `json:"run_id"`
	Fingerprint string `json:"fingerprint"`
	Changed     bool   `json:"changed"`
	FromCache   bool   `json:"from_cache"`
	Orders      int    `json:"orders"`
	DurationMS  int64  `json:"duration_ms"`
}

// StatusResponse describes the snapshot being served
type StatusResponse struct {
	Ready       bool       `json:"ready"`
	Fingerprint string     `json:"fingerprint,omitempty"`
	LoadedAt    *time.Time `json:"loaded_at,omitempty"`
	Orders      int        `json:"orders"`
	Error       string     `json:"error,omitempty"`
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// NewKPIResponse converts KPIs
func NewKPIResponse(k analytics.KPIs) KPIResponse {
	return KPIResponse{
		TotalRevenue:            k.TotalRevenue.InexactFloat64(),
		TotalOrders:             k.TotalOrders,
		TotalCustomers:          k.TotalCustomers,
		AvgReviewScore:          finite(k.AvgReviewScore),
		OnTimeDeliveryRate:      k.OnTimeDeliveryRate,
		DeliveredOnScheduleRate: k.DeliveredOnScheduleRate,
	}
}

// NewDashboardResponse converts a computed dashboard
func NewDashboardResponse(res *dashboard.Result) DashboardResponse {
	out := DashboardResponse{
		RunID:             res.RunID.String(),
		Fingerprint:       res.Fingerprint,
		GeneratedAt:       res.GeneratedAt,
		Selection:         map[string][]string(res.Selection),
		KPIs:              NewKPIResponse(res.KPIs),
		MonthlyRevenue:    make([]MonthlyRevenueResponse, 0, len(res.MonthlyRevenue)),
		ScoreDistribution: res.ScoreDistribution,
		DeliveryByScore:   res.DeliveryByScore,
		GeoDensity:        res.GeoDensity,
		DeliveryStatus:    make([]StatusCountResponse, 0, len(dataset.DeliveryStatuses)),
		RevenueByCategory: make([]CategoryRevenueResponse, 0, len(res.RevenueByCategory)),
		Preview:           make([]OrderResponse, 0, len(res.Preview)),
	}
	if out.Selection == nil {
		out.Selection = map[string][]string{}
	}
	if res.Tables != nil {
		out.MatchedOrders = res.Tables.OrderIDs.Len()
	}
	for _, p := range res.MonthlyRevenue {
		out.MonthlyRevenue = append(out.MonthlyRevenue, MonthlyRevenueResponse{Month: p.Label, Revenue: p.Revenue.InexactFloat64()})
	}
	for _, s := range dataset.DeliveryStatuses {
		out.DeliveryStatus = append(out.DeliveryStatus, StatusCountResponse{Status: string(s), Orders: res.DeliveryStatusCounts[s]})
	}
	for _, c := range res.RevenueByCategory {
		out.RevenueByCategory = append(out.RevenueByCategory, CategoryRevenueResponse{
			Category: c.Category,
			Revenue:  c.Revenue.InexactFloat64(),
			Items:    c.Items,
		})
	}
	for _, o := range res.Preview {
		out.Preview = append(out.Preview, OrderResponse{
			OrderID:               o.OrderID,
			CustomerID:            o.CustomerID,
			Status:                string(o.Status),
			PurchaseTimestamp:     o.PurchaseTimestamp,
			DeliveredCustomerDate: o.DeliveredCustomerDate,
			EstimatedDeliveryDate: o.EstimatedDeliveryDate,
			DeliveryTimeDays:      o.DeliveryTimeDays,
			DeliveryDiffDays:      o.DeliveryDiffDays,
			DeliveryStatus:        string(o.DeliveryStatus),
		})
	}
	return out
}

// FacetLabel turns a facet name into a display label
func FacetLabel(name string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(name, "_", " "))
}

// NewFacetResponses converts facet options
func NewFacetResponses(opts []dashboard.FacetOptions) []FacetResponse {
	out := make([]FacetResponse, 0, len(opts))
	for _, o := range opts {
		values := o.Values
		if values == nil {
			values = []string{}
		}
		out = append(out, FacetResponse{
			Name:   o.Facet.Name,
			Label:  FacetLabel(o.Facet.Name),
			Table:  o.Facet.Table,
			Column: o.Facet.Column,
			Values: values,
		})
	}
	return out
}

// NewReloadResponse converts a reload result
func NewReloadResponse(r *dashboard.ReloadResult) ReloadResponse {
	return ReloadResponse{
		RunID:       r.RunID.String(),
		Fingerprint: r.Fingerprint,
		Changed:     r.Changed,
		FromCache:   r.FromCache,
		Orders:      r.Orders,
		DurationMS:  r.Duration.Milliseconds(),
	}
}

// NewStatusResponse converts a service status
func NewStatusResponse(s dashboard.Status) StatusResponse {
	out := StatusResponse{
		Ready:       s.Ready,
		Fingerprint: s.Fingerprint,
		Orders:      s.Orders,
		Error:       s.Error,
	}
	if !s.LoadedAt.IsZero() {
		loaded := s.LoadedAt
		out.LoadedAt = &loaded
	}
	return out
}
