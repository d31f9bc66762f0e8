// Package export renders computed dashboards as downloadable workbooks
package export

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/olist/dashboard/internal/application/dashboard"
	"github.com/olist/dashboard/internal/domain/analytics"
	"github.com/olist/dashboard/internal/domain/dataset"
	"github.com/xuri/excelize/v2"
)

// ContentTypeXLSX is the media type of WriteXLSX output
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Sheet names, in workbook order
const (
	SheetSummary        = "Summary"
	SheetMonthlyRevenue = "Monthly Revenue"
	SheetCategories     = "Categories"
	SheetReviewScores   = "Review Scores"
	SheetDelivery       = "Delivery Status"
	SheetGeoDensity     = "Geo Density"
	SheetOrders         = "Orders"
)

const timeLayout = "2006-01-02 15:04:05"

// sheet is a header and its rows
type sheet struct {
	name   string
	header []any
	rows   [][]any
	widths []float64
}

// Filename returns a download name for res
func Filename(res *dashboard.Result) string {
	return fmt.Sprintf("olist-dashboard-%s.xlsx", res.GeneratedAt.UTC().Format("20060102-150405"))
}

// WriteXLSX writes res as a workbook with one sheet per aggregate
func WriteXLSX(w io.Writer, res *dashboard.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	sheets := []sheet{
		summarySheet(res),
		monthlySheet(res.MonthlyRevenue),
		categorySheet(res.RevenueByCategory),
		scoreSheet(res.ScoreDistribution, res.DeliveryByScore),
		deliverySheet(res.DeliveryStatusCounts),
		geoSheet(res.GeoDensity),
		ordersSheet(res.Preview),
	}

	for i, s := range sheets {
		if i == 0 {
			f.SetSheetName(f.GetSheetName(0), s.name)
		} else if _, err := f.NewSheet(s.name); err != nil {
			return fmt.Errorf("create sheet %s: %w", s.name, err)
		}
		if err := writeSheet(f, s, bold); err != nil {
			return fmt.Errorf("write sheet %s: %w", s.name, err)
		}
	}
	f.SetActiveSheet(0)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, s sheet, headerStyle int) error {
	if err := f.SetSheetRow(s.name, "A1", &s.header); err != nil {
		return err
	}
	if err := f.SetRowStyle(s.name, 1, 1, headerStyle); err != nil {
		return err
	}
	for i, row := range s.rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(s.name, cell, &row); err != nil {
			return err
		}
	}
	for i, width := range s.widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(s.name, col, col, width); err != nil {
			return err
		}
	}
	return nil
}

// number leaves undefined values as empty cells
func number(v float64) any {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return v
}

func timestamp(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(timeLayout)
}

func summarySheet(res *dashboard.Result) sheet {
	s := sheet{name: SheetSummary, header: []any{"Field", "Value"}, widths: []float64{30, 40}}
	add := func(k string, v any) { s.rows = append(s.rows, []any{k, v}) }

	add("Generated at", res.GeneratedAt.UTC().Format(timeLayout))
	add("Dataset fingerprint", res.Fingerprint)
	add("Run id", res.RunID.String())

	facets := make([]string, 0, len(res.Selection))
	for name := range res.Selection {
		facets = append(facets, name)
	}
	sort.Strings(facets)
	if len(facets) == 0 {
		add("Filters", "none")
	}
	for _, name := range facets {
		add("Filter: "+name, strings.Join(res.Selection[name], ", "))
	}

	k := res.KPIs
	add(analytics.KPITotalRevenue, k.TotalRevenue.InexactFloat64())
	add(analytics.KPITotalOrders, k.TotalOrders)
	add(analytics.KPITotalCustomers, k.TotalCustomers)
	add(analytics.KPIAvgReviewScore, number(k.AvgReviewScore))
	add(analytics.KPIOnTimeDeliveryRate, number(k.OnTimeDeliveryRate))
	add(analytics.KPIDeliveredOnScheduleRate, number(k.DeliveredOnScheduleRate))
	return s
}

func monthlySheet(points []analytics.MonthlyRevenuePoint) sheet {
	s := sheet{name: SheetMonthlyRevenue, header: []any{"Month", "Revenue"}, widths: []float64{12, 16}}
	for _, p := range points {
		s.rows = append(s.rows, []any{p.Label, p.Revenue.InexactFloat64()})
	}
	return s
}

func categorySheet(cats []analytics.CategoryRevenue) sheet {
	s := sheet{name: SheetCategories, header: []any{"Category", "Revenue", "Items"}, widths: []float64{36, 16, 10}}
	for _, c := range cats {
		s.rows = append(s.rows, []any{c.Category, c.Revenue.InexactFloat64(), c.Items})
	}
	return s
}

func scoreSheet(dist []analytics.ScoreCount, delivery []analytics.ScoreDeliveryTime) sheet {
	s := sheet{name: SheetReviewScores, header: []any{"Score", "Reviews", "Avg Delivery Days"}, widths: []float64{8, 10, 18}}
	byScore := make(map[int]*float64, len(delivery))
	for _, d := range delivery {
		byScore[d.Score] = d.AvgDeliveryDays
	}
	for _, c := range dist {
		var avg any
		if v := byScore[c.Score]; v != nil {
			avg = *v
		}
		s.rows = append(s.rows, []any{c.Score, c.Count, avg})
	}
	return s
}

func deliverySheet(counts map[dataset.DeliveryStatus]int) sheet {
	s := sheet{name: SheetDelivery, header: []any{"Status", "Orders"}, widths: []float64{24, 10}}
	for _, status := range dataset.DeliveryStatuses {
		s.rows = append(s.rows, []any{string(status), counts[status]})
	}
	return s
}

func geoSheet(points []analytics.GeoDensityPoint) sheet {
	s := sheet{
		name:   SheetGeoDensity,
		header: []any{"Zip Prefix", "City", "State", "Lat", "Lng", "Orders"},
		widths: []float64{12, 24, 8, 12, 12, 10},
	}
	for _, p := range points {
		s.rows = append(s.rows, []any{p.ZipCodePrefix, p.City, p.State, p.Lat, p.Lng, p.Orders})
	}
	return s
}

func ordersSheet(orders []dataset.Order) sheet {
	s := sheet{
		name: SheetOrders,
		header: []any{
			dataset.ColOrderID, dataset.ColCustomerID, dataset.ColOrderStatus,
			dataset.ColPurchaseTimestamp, dataset.ColDeliveredCustomerDate, dataset.ColEstimatedDeliveryDate,
			dataset.ColDeliveryTimeDays, dataset.ColDeliveryStatus,
		},
		widths: []float64{34, 34, 12, 20, 20, 20, 10, 22},
	}
	for _, o := range orders {
		var days any
		if o.DeliveryTimeDays != nil {
			days = *o.DeliveryTimeDays
		}
		s.rows = append(s.rows, []any{
			o.OrderID, o.CustomerID, string(o.Status),
			timestamp(o.PurchaseTimestamp), timestamp(o.DeliveredCustomerDate), timestamp(o.EstimatedDeliveryDate),
			days, string(o.DeliveryStatus),
		})
	}
	return s
}
