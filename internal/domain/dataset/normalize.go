package dataset

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/olist/dashboard/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// RawTable is a table as delivered by a loader: a header and textual rows
type RawTable struct {
	Name    string
	Columns []string
	Rows    [][]string
}

// HasColumn reports whether the header contains the column
func (t *RawTable) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// RawTableSet maps a logical table name to its raw table
type RawTableSet map[string]*RawTable

// TimestampColumns are the order columns coerced from text to timestamps
var TimestampColumns = []string{
	ColPurchaseTimestamp,
	ColApprovedAt,
	ColDeliveredCarrierDate,
	ColDeliveredCustomerDate,
	ColEstimatedDeliveryDate,
}

// timestampLayouts are tried in order
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02",
}

// requiredColumns declares, per table, the columns the pipeline cannot run without
var requiredColumns = map[string][]string{
	TableOrders: append([]string{ColOrderID, ColCustomerID, ColOrderStatus}, TimestampColumns...),
	TableCustomers: {
		ColCustomerID, ColCustomerUniqueID, ColCustomerZipPrefix, ColCustomerCity, ColCustomerState,
	},
	TableProducts:            {ColProductID},
	TableOrderItems:          {ColOrderID, ColProductID, ColPrice, ColFreightValue},
	TablePayments:            {ColOrderID, ColPaymentValue},
	TableReviews:             {ColOrderID, ColReviewScore},
	TableGeolocation:         {ColGeoZipPrefix, ColGeoLat, ColGeoLng, ColGeoCity, ColGeoState},
	TableCategoryTranslation: {ColCategoryName, ColCategoryNameEnglish},
}

// schemaOrder fixes the order tables are checked in, so the reported error is stable
var schemaOrder = []string{
	TableOrders,
	TableCustomers,
	TableProducts,
	TableOrderItems,
	TablePayments,
	TableReviews,
	TableGeolocation,
	TableCategoryTranslation,
}

// optionalTables may be absent from the input
var optionalTables = map[string]bool{
	TableGeolocation: true,
}

// Normalize coerces a raw table set into typed tables.
// Rows are never dropped. An absent table or column yields a *SchemaError and a
// present value that fails coercion yields a *ParseError.
func Normalize(raw RawTableSet) (*TableSet, error) {
	if len(raw) == 0 {
		return nil, shared.ErrNoDataAvailable
	}

	for _, table := range schemaOrder {
		cols := requiredColumns[table]
		t, ok := raw[table]
		if !ok || t == nil {
			if optionalTables[table] {
				continue
			}
			return nil, &SchemaError{Table: table}
		}
		for _, col := range cols {
			if !t.HasColumn(col) {
				return nil, &SchemaError{Table: table, Column: col}
			}
		}
	}
	if p := raw[TableProducts]; !p.HasColumn(ColCategoryName) && !p.HasColumn(ColCategoryNameEnglish) {
		return nil, &SchemaError{Table: TableProducts, Column: ColCategoryName}
	}

	ts := &TableSet{}
	var err error
	if ts.Orders, err = normalizeOrders(raw[TableOrders]); err != nil {
		return nil, err
	}
	if ts.Customers, err = normalizeCustomers(raw[TableCustomers]); err != nil {
		return nil, err
	}
	ts.Products = normalizeProducts(raw[TableProducts])
	if ts.OrderItems, err = normalizeOrderItems(raw[TableOrderItems]); err != nil {
		return nil, err
	}
	if ts.Payments, err = normalizePayments(raw[TablePayments]); err != nil {
		return nil, err
	}
	if ts.Reviews, err = normalizeReviews(raw[TableReviews]); err != nil {
		return nil, err
	}
	if g, ok := raw[TableGeolocation]; ok && g != nil {
		if ts.Geolocation, err = normalizeGeolocation(g); err != nil {
			return nil, err
		}
	}
	ts.CategoryTranslations = normalizeTranslations(raw[TableCategoryTranslation])

	return ts, nil
}

// ParseTimestamp parses a textual timestamp. An empty value yields nil.
func ParseTimestamp(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, value)
		if err == nil {
			return &t, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// rowReader reads typed values out of one raw row
type rowReader struct {
	table *RawTable
	index map[string]int
	row   int
}

func newRowReader(t *RawTable) *rowReader {
	idx := make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		idx[c] = i
	}
	return &rowReader{table: t, index: idx}
}

func (r *rowReader) at(row int) *rowReader {
	r.row = row
	return r
}

func (r *rowReader) str(col string) string {
	i, ok := r.index[col]
	if !ok {
		return ""
	}
	fields := r.table.Rows[r.row]
	if i >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[i])
}

func (r *rowReader) fail(col, value string, err error) error {
	return &ParseError{Table: r.table.Name, Column: col, Row: r.row + 1, Value: value, Err: err}
}

func (r *rowReader) timestamp(col string) (*time.Time, error) {
	v := r.str(col)
	t, err := ParseTimestamp(v)
	if err != nil {
		return nil, r.fail(col, v, err)
	}
	return t, nil
}

func (r *rowReader) integer(col string) (int, error) {
	v := r.str(col)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		// Integer columns written through a float-typed frame come back as "3.0"
		f, ferr := strconv.ParseFloat(v, 64)
		if ferr != nil || f != math.Trunc(f) {
			return 0, r.fail(col, v, err)
		}
		return int(f), nil
	}
	return n, nil
}

func (r *rowReader) money(col string) (decimal.Decimal, error) {
	v := r.str(col)
	if v == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, r.fail(col, v, err)
	}
	return d, nil
}

func (r *rowReader) float(col string) (float64, error) {
	v := r.str(col)
	if v == "" {
		return math.NaN(), nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, r.fail(col, v, err)
	}
	return f, nil
}

func normalizeOrders(t *RawTable) (Orders, error) {
	out := make(Orders, len(t.Rows))
	r := newRowReader(t)
	for i := range t.Rows {
		r.at(i)
		o := Order{
			OrderID:    r.str(ColOrderID),
			CustomerID: r.str(ColCustomerID),
			Status:     OrderStatus(strings.ToLower(r.str(ColOrderStatus))),
		}
		targets := []**time.Time{
			&o.PurchaseTimestamp,
			&o.ApprovedAt,
			&o.DeliveredCarrierDate,
			&o.DeliveredCustomerDate,
			&o.EstimatedDeliveryDate,
		}
		for j, col := range TimestampColumns {
			ts, err := r.timestamp(col)
			if err != nil {
				return nil, err
			}
			*targets[j] = ts
		}
		out[i] = o
	}
	return out, nil
}

func normalizeCustomers(t *RawTable) (Customers, error) {
	out := make(Customers, len(t.Rows))
	r := newRowReader(t)
	for i := range t.Rows {
		r.at(i)
		zip, err := r.integer(ColCustomerZipPrefix)
		if err != nil {
			return nil, err
		}
		out[i] = Customer{
			CustomerID:       r.str(ColCustomerID),
			CustomerUniqueID: r.str(ColCustomerUniqueID),
			ZipCodePrefix:    zip,
			City:             r.str(ColCustomerCity),
			State:            r.str(ColCustomerState),
		}
	}
	return out, nil
}

func normalizeProducts(t *RawTable) Products {
	out := make(Products, len(t.Rows))
	r := newRowReader(t)
	for i := range t.Rows {
		r.at(i)
		out[i] = Product{
			ProductID:           r.str(ColProductID),
			CategoryName:        r.str(ColCategoryName),
			CategoryNameEnglish: r.str(ColCategoryNameEnglish),
		}
	}
	return out
}

func normalizeOrderItems(t *RawTable) (OrderItems, error) {
	out := make(OrderItems, len(t.Rows))
	r := newRowReader(t)
	for i := range t.Rows {
		r.at(i)
		itemID, err := r.integer(ColOrderItemID)
		if err != nil {
			return nil, err
		}
		price, err := r.money(ColPrice)
		if err != nil {
			return nil, err
		}
		freight, err := r.money(ColFreightValue)
		if err != nil {
			return nil, err
		}
		out[i] = OrderItem{
			OrderID:      r.str(ColOrderID),
			OrderItemID:  itemID,
			ProductID:    r.str(ColProductID),
			SellerID:     r.str(ColSellerID),
			Price:        price,
			FreightValue: freight,
		}
	}
	return out, nil
}

func normalizePayments(t *RawTable) (Payments, error) {
	out := make(Payments, len(t.Rows))
	r := newRowReader(t)
	for i := range t.Rows {
		r.at(i)
		seq, err := r.integer(ColPaymentSequential)
		if err != nil {
			return nil, err
		}
		inst, err := r.integer(ColPaymentInstallments)
		if err != nil {
			return nil, err
		}
		value, err := r.money(ColPaymentValue)
		if err != nil {
			return nil, err
		}
		out[i] = Payment{
			OrderID:      r.str(ColOrderID),
			Sequential:   seq,
			Type:         r.str(ColPaymentType),
			Installments: inst,
			Value:        value,
		}
	}
	return out, nil
}

func normalizeReviews(t *RawTable) (Reviews, error) {
	out := make(Reviews, len(t.Rows))
	r := newRowReader(t)
	for i := range t.Rows {
		r.at(i)
		score, err := r.integer(ColReviewScore)
		if err != nil {
			return nil, err
		}
		out[i] = Review{
			ReviewID: r.str(ColReviewID),
			OrderID:  r.str(ColOrderID),
			Score:    score,
		}
	}
	return out, nil
}

func normalizeGeolocation(t *RawTable) ([]GeolocationPoint, error) {
	out := make([]GeolocationPoint, len(t.Rows))
	r := newRowReader(t)
	for i := range t.Rows {
		r.at(i)
		zip, err := r.integer(ColGeoZipPrefix)
		if err != nil {
			return nil, err
		}
		lat, err := r.float(ColGeoLat)
		if err != nil {
			return nil, err
		}
		lng, err := r.float(ColGeoLng)
		if err != nil {
			return nil, err
		}
		out[i] = GeolocationPoint{
			ZipCodePrefix: zip,
			Lat:           lat,
			Lng:           lng,
			City:          r.str(ColGeoCity),
			State:         r.str(ColGeoState),
		}
	}
	return out, nil
}

func normalizeTranslations(t *RawTable) []CategoryTranslation {
	out := make([]CategoryTranslation, len(t.Rows))
	r := newRowReader(t)
	for i := range t.Rows {
		r.at(i)
		out[i] = CategoryTranslation{
			CategoryName:        r.str(ColCategoryName),
			CategoryNameEnglish: r.str(ColCategoryNameEnglish),
		}
	}
	return out
}

// String implements fmt.Stringer for log fields
func (s RawTableSet) String() string {
	parts := make([]string, 0, len(s))
	for name, t := range s {
		if t == nil {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s(%d)", name, len(t.Rows)))
	}
	slices.Sort(parts)
	return strings.Join(parts, ", ")
}
