package analytics

import (
	"time"

	"github.com/olist/dashboard/internal/domain/dataset"
	"github.com/shopspring/decimal"
)

func ts(s string) *time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// marketplace builds an enriched table set with four orders:
// O1..O3 purchased in 2017 (on time, delayed, in transit) and O4 in 2018.
func marketplace() *dataset.TableSet {
	raw := &dataset.TableSet{
		Orders: dataset.Orders{
			{
				OrderID: "O1", CustomerID: "C1", Status: dataset.OrderStatusDelivered,
				PurchaseTimestamp:     ts("2017-03-01 10:00:00"),
				DeliveredCustomerDate: ts("2017-03-03 10:00:00"),
				EstimatedDeliveryDate: ts("2017-03-08 10:00:00"),
			},
			{
				OrderID: "O2", CustomerID: "C2", Status: dataset.OrderStatusDelivered,
				PurchaseTimestamp:     ts("2017-04-10 08:00:00"),
				DeliveredCustomerDate: ts("2017-04-20 08:00:00"),
				EstimatedDeliveryDate: ts("2017-04-18 08:00:00"),
			},
			{
				OrderID: "O3", CustomerID: "C3", Status: dataset.OrderStatusShipped,
				PurchaseTimestamp:     ts("2017-05-06 12:00:00"),
				EstimatedDeliveryDate: ts("2017-05-20 12:00:00"),
			},
			{
				OrderID: "O4", CustomerID: "C4", Status: dataset.OrderStatusDelivered,
				PurchaseTimestamp:     ts("2018-01-15 09:00:00"),
				DeliveredCustomerDate: ts("2018-01-20 09:00:00"),
				EstimatedDeliveryDate: ts("2018-01-25 09:00:00"),
			},
		},
		Customers: dataset.Customers{
			{CustomerID: "C1", CustomerUniqueID: "U1", ZipCodePrefix: 1000, City: "sao paulo", State: "SP"},
			{CustomerID: "C2", CustomerUniqueID: "U2", ZipCodePrefix: 2000, City: "rio de janeiro", State: "RJ"},
			{CustomerID: "C3", CustomerUniqueID: "U3", ZipCodePrefix: 1000, City: "sao paulo", State: "SP"},
			{CustomerID: "C4", CustomerUniqueID: "U1", ZipCodePrefix: 9999, City: "belo horizonte", State: "MG"},
		},
		Products: dataset.Products{
			{ProductID: "P1", CategoryName: "moveis"},
			{ProductID: "P2", CategoryNameEnglish: "toys"},
		},
		CategoryTranslations: []dataset.CategoryTranslation{
			{CategoryName: "moveis", CategoryNameEnglish: "furniture"},
		},
		OrderItems: dataset.OrderItems{
			{OrderID: "O1", OrderItemID: 1, ProductID: "P1", Price: money("100"), FreightValue: money("5")},
			{OrderID: "O2", OrderItemID: 1, ProductID: "P2", Price: money("40"), FreightValue: money("10")},
			{OrderID: "O3", OrderItemID: 1, ProductID: "P1", Price: money("20"), FreightValue: money("10")},
			{OrderID: "O4", OrderItemID: 1, ProductID: "P2", Price: money("10"), FreightValue: money("0")},
		},
		Payments: dataset.Payments{
			{OrderID: "O1", Sequential: 1, Value: money("100")},
			{OrderID: "O2", Sequential: 1, Value: money("50")},
			{OrderID: "O3", Sequential: 1, Value: money("30")},
			{OrderID: "O4", Sequential: 1, Value: money("10")},
		},
		Reviews: dataset.Reviews{
			{ReviewID: "R1", OrderID: "O1", Score: 5},
			{ReviewID: "R2", OrderID: "O2", Score: 3},
			{ReviewID: "R3", OrderID: "O3", Score: 3},
			{ReviewID: "R4", OrderID: "O4", Score: 4},
			{ReviewID: "R5", OrderID: "O3", Score: 0},
		},
		Geolocation: []dataset.GeolocationPoint{
			{ZipCodePrefix: 1000, Lat: -23.5, Lng: -46.6, City: "sao paulo", State: "SP"},
			{ZipCodePrefix: 2000, Lat: -22.9, Lng: -43.2, City: "rio de janeiro", State: "RJ"},
		},
	}
	out, err := dataset.Enrich(raw)
	if err != nil {
		panic(err)
	}
	return out
}
