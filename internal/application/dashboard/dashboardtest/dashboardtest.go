// Package dashboardtest provides an in-memory loader and a small marketplace
// dataset for tests of packages built on the dashboard service.
package dashboardtest

import (
	"context"
	"sync"

	"github.com/olist/dashboard/internal/domain/dataset"
)

var orderColumns = []string{
	dataset.ColOrderID, dataset.ColCustomerID, dataset.ColOrderStatus,
	dataset.ColPurchaseTimestamp, dataset.ColApprovedAt, dataset.ColDeliveredCarrierDate,
	dataset.ColDeliveredCustomerDate, dataset.ColEstimatedDeliveryDate,
}

// SampleRaw returns three orders:
//
//	O1  2017-03  SP  furniture  paid 100  review 5  delivered early  (On Time)
//	O2  2017-04  RJ  toys       paid  50  review 3  delivered late   (Delayed)
//	O3  2018-01  SP  furniture  paid  30  review 3  shipped          (In Transit/Cancelled)
func SampleRaw() dataset.RawTableSet {
	table := func(name string, columns []string, rows ...[]string) *dataset.RawTable {
		return &dataset.RawTable{Name: name, Columns: columns, Rows: rows}
	}
	return dataset.RawTableSet{
		dataset.TableOrders: table(dataset.TableOrders, orderColumns,
			[]string{"O1", "C1", "delivered", "2017-03-01 10:00:00", "2017-03-01 11:00:00", "2017-03-02 08:00:00", "2017-03-05 12:00:00", "2017-03-10 00:00:00"},
			[]string{"O2", "C2", "delivered", "2017-04-10 09:30:00", "2017-04-10 10:00:00", "2017-04-12 08:00:00", "2017-04-20 18:00:00", "2017-04-15 00:00:00"},
			[]string{"O3", "C3", "shipped", "2018-01-15 14:00:00", "2018-01-15 15:00:00", "2018-01-16 08:00:00", "", "2018-02-01 00:00:00"},
		),
		dataset.TableCustomers: table(dataset.TableCustomers,
			[]string{dataset.ColCustomerID, dataset.ColCustomerUniqueID, dataset.ColCustomerZipPrefix, dataset.ColCustomerCity, dataset.ColCustomerState},
			[]string{"C1", "U1", "01001", "sao paulo", "SP"},
			[]string{"C2", "U2", "20010", "rio de janeiro", "RJ"},
			[]string{"C3", "U3", "01001", "sao paulo", "SP"},
		),
		dataset.TableProducts: table(dataset.TableProducts,
			[]string{dataset.ColProductID, dataset.ColCategoryName},
			[]string{"P1", "moveis_decoracao"},
			[]string{"P2", "brinquedos"},
		),
		dataset.TableOrderItems: table(dataset.TableOrderItems,
			[]string{dataset.ColOrderID, dataset.ColOrderItemID, dataset.ColProductID, dataset.ColSellerID, dataset.ColPrice, dataset.ColFreightValue},
			[]string{"O1", "1", "P1", "S1", "90.00", "10.00"},
			[]string{"O2", "1", "P2", "S2", "45.00", "5.00"},
			[]string{"O3", "1", "P1", "S1", "25.00", "5.00"},
		),
		dataset.TablePayments: table(dataset.TablePayments,
			[]string{dataset.ColOrderID, dataset.ColPaymentSequential, dataset.ColPaymentType, dataset.ColPaymentInstallments, dataset.ColPaymentValue},
			[]string{"O1", "1", "credit_card", "2", "100.00"},
			[]string{"O2", "1", "boleto", "1", "50.00"},
			[]string{"O3", "1", "credit_card", "1", "30.00"},
		),
		dataset.TableReviews: table(dataset.TableReviews,
			[]string{dataset.ColReviewID, dataset.ColOrderID, dataset.ColReviewScore},
			[]string{"R1", "O1", "5"},
			[]string{"R2", "O2", "3"},
			[]string{"R3", "O3", "3"},
		),
		dataset.TableGeolocation: table(dataset.TableGeolocation,
			[]string{dataset.ColGeoZipPrefix, dataset.ColGeoLat, dataset.ColGeoLng, dataset.ColGeoCity, dataset.ColGeoState},
			[]string{"1001", "-23.55", "-46.63", "sao paulo", "SP"},
			[]string{"1001", "-23.45", "-46.53", "sao paulo", "SP"},
			[]string{"20010", "-22.90", "-43.17", "rio de janeiro", "RJ"},
		),
		dataset.TableCategoryTranslation: table(dataset.TableCategoryTranslation,
			[]string{dataset.ColCategoryName, dataset.ColCategoryNameEnglish},
			[]string{"moveis_decoracao", "furniture_decor"},
			[]string{"brinquedos", "toys"},
		),
	}
}

// Loader serves a fixed raw table set. Fields may be changed between calls.
type Loader struct {
	mu          sync.Mutex
	raw         dataset.RawTableSet
	fingerprint string
	loadErr     error
	fpErr       error
	loads       int
}

// NewLoader creates a Loader serving raw under fingerprint
func NewLoader(raw dataset.RawTableSet, fingerprint string) *Loader {
	return &Loader{raw: raw, fingerprint: fingerprint}
}

// Load returns the raw set, or the configured error
func (l *Loader) Load(ctx context.Context) (dataset.RawTableSet, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loads++
	if l.loadErr != nil {
		return nil, l.loadErr
	}
	return l.raw, nil
}

// Fingerprint returns the configured fingerprint, or error
func (l *Loader) Fingerprint(ctx context.Context) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fpErr != nil {
		return "", l.fpErr
	}
	return l.fingerprint, nil
}

// Replace swaps the served data
func (l *Loader) Replace(raw dataset.RawTableSet, fingerprint string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.raw = raw
	l.fingerprint = fingerprint
}

// FailLoad makes Load return err; nil clears it
func (l *Loader) FailLoad(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loadErr = err
}

// FailFingerprint makes Fingerprint return err; nil clears it
func (l *Loader) FailFingerprint(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fpErr = err
}

// Loads returns how many times Load was called
func (l *Loader) Loads() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loads
}

// NopCache is a dataset cache that never holds anything
type NopCache struct{}

func (NopCache) Get(context.Context, string) (*dataset.TableSet, bool, error) { return nil, false, nil }
func (NopCache) Set(context.Context, string, *dataset.TableSet) error          { return nil }
func (NopCache) Delete(context.Context, string) error                          { return nil }
func (NopCache) Backend() string                                               { return "none" }
func (NopCache) Close() error                                                  { return nil }
