package dataset

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Logical table names, derived from the source file names with the
// "olist_" prefix and "_dataset" suffix removed.
const (
	TableOrders              = "orders"
	TableCustomers           = "customers"
	TableProducts            = "products"
	TableOrderItems          = "order_items"
	TablePayments            = "order_payments"
	TableReviews             = "order_reviews"
	TableGeolocation         = "geolocation"
	TableCategoryTranslation = "product_category_name_translation"
)

// Column names shared by the raw input and the typed tables.
const (
	ColOrderID               = "order_id"
	ColCustomerID            = "customer_id"
	ColOrderStatus           = "order_status"
	ColPurchaseTimestamp     = "order_purchase_timestamp"
	ColApprovedAt            = "order_approved_at"
	ColDeliveredCarrierDate  = "order_delivered_carrier_date"
	ColDeliveredCustomerDate = "order_delivered_customer_date"
	ColEstimatedDeliveryDate = "order_estimated_delivery_date"
	ColDeliveryTimeDays      = "delivery_time_days"
	ColDeliveryDiffDays      = "delivery_diff_days"
	ColDeliveryStatus        = "delivery_status"
	ColPurchaseYear          = "purchase_year"
	ColPurchaseMonth         = "purchase_month"
	ColPurchaseDayOfWeek     = "purchase_dayofweek"

	ColCustomerUniqueID    = "customer_unique_id"
	ColCustomerZipPrefix   = "customer_zip_code_prefix"
	ColCustomerCity        = "customer_city"
	ColCustomerState       = "customer_state"
	ColZipCodePrefix       = "zip_code_prefix"
	ColProductID           = "product_id"
	ColCategoryName        = "product_category_name"
	ColCategoryNameEnglish = "product_category_name_english"

	ColOrderItemID  = "order_item_id"
	ColSellerID     = "seller_id"
	ColPrice        = "price"
	ColFreightValue = "freight_value"

	ColPaymentSequential   = "payment_sequential"
	ColPaymentType         = "payment_type"
	ColPaymentInstallments = "payment_installments"
	ColPaymentValue        = "payment_value"

	ColReviewID    = "review_id"
	ColReviewScore = "review_score"

	ColGeoZipPrefix = "geolocation_zip_code_prefix"
	ColGeoLat       = "geolocation_lat"
	ColGeoLng       = "geolocation_lng"
	ColGeoCity      = "geolocation_city"
	ColGeoState     = "geolocation_state"
)

// UnknownCategory is the English category assigned to products whose
// category has no translation.
const UnknownCategory = "unknown"

// OrderStatus is the lifecycle state of an order as recorded upstream
type OrderStatus string

const (
	OrderStatusCreated     OrderStatus = "created"
	OrderStatusApproved    OrderStatus = "approved"
	OrderStatusInvoiced    OrderStatus = "invoiced"
	OrderStatusProcessing  OrderStatus = "processing"
	OrderStatusShipped     OrderStatus = "shipped"
	OrderStatusDelivered   OrderStatus = "delivered"
	OrderStatusCanceled    OrderStatus = "canceled"
	OrderStatusUnavailable OrderStatus = "unavailable"
)

// DeliveryStatus classifies an order by its delivery date against the estimate
type DeliveryStatus string

const (
	DeliveryOnTime             DeliveryStatus = "On Time"
	DeliveryDelayed            DeliveryStatus = "Delayed"
	DeliveryInTransitCancelled DeliveryStatus = "In Transit/Cancelled"
	// DeliveryError is never produced for well-typed input; Enrich reports it as an error.
	DeliveryError DeliveryStatus = "Error"
)

// DeliveryStatuses lists the statuses a well-typed order can take, in display order.
var DeliveryStatuses = []DeliveryStatus{DeliveryOnTime, DeliveryDelayed, DeliveryInTransitCancelled}

// Order is an order row with its derived analytic columns
type Order struct {
	OrderID               string      `json:"order_id"`
	CustomerID            string      `json:"customer_id"`
	Status                OrderStatus `json:"order_status"`
	PurchaseTimestamp     *time.Time  `json:"order_purchase_timestamp,omitempty"`
	ApprovedAt            *time.Time  `json:"order_approved_at,omitempty"`
	DeliveredCarrierDate  *time.Time  `json:"order_delivered_carrier_date,omitempty"`
	DeliveredCustomerDate *time.Time  `json:"order_delivered_customer_date,omitempty"`
	EstimatedDeliveryDate *time.Time  `json:"order_estimated_delivery_date,omitempty"`

	DeliveryTimeDays  *int           `json:"delivery_time_days,omitempty"`
	DeliveryDiffDays  *int           `json:"delivery_diff_days,omitempty"`
	DeliveryStatus    DeliveryStatus `json:"delivery_status,omitempty"`
	PurchaseYear      int            `json:"purchase_year,omitempty"`
	PurchaseMonth     int            `json:"purchase_month,omitempty"`
	PurchaseDayOfWeek string         `json:"purchase_dayofweek,omitempty"`
}

// IsDelivered reports whether the upstream status is "delivered"
func (o *Order) IsDelivered() bool {
	return o.Status == OrderStatusDelivered
}

// Customer is one order touchpoint of a real person
type Customer struct {
	CustomerID       string `json:"customer_id"`
	CustomerUniqueID string `json:"customer_unique_id"`
	ZipCodePrefix    int    `json:"customer_zip_code_prefix"`
	City             string `json:"customer_city"`
	State            string `json:"customer_state"`
}

// Product carries the category in the source language until enrichment
// replaces it with the English translation.
type Product struct {
	ProductID           string `json:"product_id"`
	CategoryName        string `json:"product_category_name,omitempty"`
	CategoryNameEnglish string `json:"product_category_name_english,omitempty"`
}

// OrderItem links an order to a product
type OrderItem struct {
	OrderID      string          `json:"order_id"`
	OrderItemID  int             `json:"order_item_id"`
	ProductID    string          `json:"product_id"`
	SellerID     string          `json:"seller_id,omitempty"`
	Price        decimal.Decimal `json:"price"`
	FreightValue decimal.Decimal `json:"freight_value"`
}

// Payment is one payment made against an order
type Payment struct {
	OrderID      string          `json:"order_id"`
	Sequential   int             `json:"payment_sequential"`
	Type         string          `json:"payment_type"`
	Installments int             `json:"payment_installments"`
	Value        decimal.Decimal `json:"payment_value"`
}

// Review is a customer review score for an order
type Review struct {
	ReviewID string `json:"review_id,omitempty"`
	OrderID  string `json:"order_id"`
	Score    int    `json:"review_score"`
}

// GeolocationPoint is a raw coordinate for a zip-code prefix, or a centroid
// once reduced.
type GeolocationPoint struct {
	ZipCodePrefix int     `json:"geolocation_zip_code_prefix"`
	Lat           float64 `json:"geolocation_lat"`
	Lng           float64 `json:"geolocation_lng"`
	City          string  `json:"geolocation_city"`
	State         string  `json:"geolocation_state"`
}

// CategoryTranslation maps a source-language category to English
type CategoryTranslation struct {
	CategoryName        string `json:"product_category_name"`
	CategoryNameEnglish string `json:"product_category_name_english"`
}

// TableSet is the typed, column-checked form of the dataset.
// It is treated as immutable once built.
type TableSet struct {
	Orders               Orders                `json:"orders"`
	Customers            Customers             `json:"customers"`
	Products             Products              `json:"products"`
	OrderItems           OrderItems            `json:"order_items"`
	Payments             Payments              `json:"order_payments"`
	Reviews              Reviews               `json:"order_reviews"`
	Geolocation          []GeolocationPoint    `json:"geolocation"`
	CategoryTranslations []CategoryTranslation `json:"product_category_name_translation"`
}

// Orders is the orders table
type Orders []Order

// Len returns the number of rows
func (t Orders) Len() int { return len(t) }

// Value returns the textual value of a column for a row
func (t Orders) Value(row int, column string) (string, bool) {
	o := &t[row]
	switch column {
	case ColOrderID:
		return o.OrderID, true
	case ColCustomerID:
		return o.CustomerID, true
	case ColOrderStatus:
		return string(o.Status), true
	case ColDeliveryStatus:
		return string(o.DeliveryStatus), true
	case ColPurchaseYear:
		if o.PurchaseTimestamp == nil {
			return "", true
		}
		return strconv.Itoa(o.PurchaseYear), true
	case ColPurchaseMonth:
		if o.PurchaseTimestamp == nil {
			return "", true
		}
		return strconv.Itoa(o.PurchaseMonth), true
	case ColPurchaseDayOfWeek:
		return o.PurchaseDayOfWeek, true
	}
	return "", false
}

// Customers is the customers table
type Customers []Customer

// Len returns the number of rows
func (t Customers) Len() int { return len(t) }

// Value returns the textual value of a column for a row
func (t Customers) Value(row int, column string) (string, bool) {
	c := &t[row]
	switch column {
	case ColCustomerID:
		return c.CustomerID, true
	case ColCustomerUniqueID:
		return c.CustomerUniqueID, true
	case ColCustomerZipPrefix, ColZipCodePrefix:
		return strconv.Itoa(c.ZipCodePrefix), true
	case ColCustomerCity:
		return c.City, true
	case ColCustomerState:
		return c.State, true
	}
	return "", false
}

// Products is the products table
type Products []Product

// Len returns the number of rows
func (t Products) Len() int { return len(t) }

// Value returns the textual value of a column for a row
func (t Products) Value(row int, column string) (string, bool) {
	p := &t[row]
	switch column {
	case ColProductID:
		return p.ProductID, true
	case ColCategoryName:
		return p.CategoryName, true
	case ColCategoryNameEnglish:
		return p.CategoryNameEnglish, true
	}
	return "", false
}

// OrderItems is the order_items bridge table
type OrderItems []OrderItem

// Len returns the number of rows
func (t OrderItems) Len() int { return len(t) }

// Value returns the textual value of a column for a row
func (t OrderItems) Value(row int, column string) (string, bool) {
	it := &t[row]
	switch column {
	case ColOrderID:
		return it.OrderID, true
	case ColProductID:
		return it.ProductID, true
	case ColSellerID:
		return it.SellerID, true
	}
	return "", false
}

// Payments is the order_payments table
type Payments []Payment

// Len returns the number of rows
func (t Payments) Len() int { return len(t) }

// Value returns the textual value of a column for a row
func (t Payments) Value(row int, column string) (string, bool) {
	p := &t[row]
	switch column {
	case ColOrderID:
		return p.OrderID, true
	case ColPaymentType:
		return p.Type, true
	}
	return "", false
}

// Reviews is the order_reviews table
type Reviews []Review

// Len returns the number of rows
func (t Reviews) Len() int { return len(t) }

// Value returns the textual value of a column for a row
func (t Reviews) Value(row int, column string) (string, bool) {
	r := &t[row]
	switch column {
	case ColOrderID:
		return r.OrderID, true
	case ColReviewID:
		return r.ReviewID, true
	case ColReviewScore:
		return strconv.Itoa(r.Score), true
	}
	return "", false
}

// Centroids is a reduced geolocation table, one row per zip-code prefix
type Centroids []GeolocationPoint

// Len returns the number of rows
func (t Centroids) Len() int { return len(t) }

// Value returns the textual value of a column for a row
func (t Centroids) Value(row int, column string) (string, bool) {
	g := &t[row]
	switch column {
	case ColZipCodePrefix, ColGeoZipPrefix:
		return strconv.Itoa(g.ZipCodePrefix), true
	case ColGeoCity:
		return g.City, true
	case ColGeoState:
		return g.State, true
	}
	return "", false
}
