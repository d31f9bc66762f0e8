package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/olist/dashboard/internal/domain/dataset"
	"github.com/olist/dashboard/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
}

func TestTableName(t *testing.T) {
	tests := []struct {
		file string
		want string
	}{
		{"olist_orders_dataset.csv", dataset.TableOrders},
		{"olist_order_items_dataset.csv", dataset.TableOrderItems},
		{"olist_order_payments_dataset.csv", dataset.TablePayments},
		{"olist_geolocation_dataset.csv", dataset.TableGeolocation},
		{"product_category_name_translation.csv", dataset.TableCategoryTranslation},
		{"raw/2018/olist_customers_dataset.CSV", dataset.TableCustomers},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			assert.Equal(t, tt.want, TableName(tt.file))
		})
	}
}

func TestDirSource(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.csv", "x\n1\n")
	writeFile(t, dir, "a.csv", "x\n")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested"), 0o755))

	src := NewDirSource(dir)
	objects, err := src.List(context.Background())
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "a.csv", objects[0].Name)
	assert.Equal(t, int64(4), objects[1].Size)

	_, err = src.Open(context.Background(), "../a.csv")
	assert.Error(t, err)

	_, err = NewDirSource(filepath.Join(dir, "absent")).List(context.Background())
	assert.Error(t, err)
}

func TestCSVLoader_Load(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "olist_orders_dataset.csv", "order_id,customer_id,order_status\nO1,C1,delivered\nO2,C2,shipped\n")
	writeFile(t, dir, "product_category_name_translation.csv", "product_category_name,product_category_name_english\nmoveis,furniture\n")
	writeFile(t, dir, "README.md", "not a table")

	loader := NewCSVLoader(NewDirSource(dir), zap.NewNop())
	raw, err := loader.Load(context.Background())
	require.NoError(t, err)

	require.Len(t, raw, 2)
	orders := raw[dataset.TableOrders]
	require.NotNil(t, orders)
	assert.Equal(t, []string{"order_id", "customer_id", "order_status"}, orders.Columns)
	assert.Len(t, orders.Rows, 2)
	assert.True(t, raw[dataset.TableCategoryTranslation].HasColumn(dataset.ColCategoryNameEnglish))
}

func TestCSVLoader_EmptySource(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notes.txt", "nothing here")

	loader := NewCSVLoader(NewDirSource(dir), zap.NewNop())

	_, err := loader.Load(context.Background())
	assert.ErrorIs(t, err, shared.ErrNoDataAvailable)

	_, err = loader.Fingerprint(context.Background())
	assert.ErrorIs(t, err, shared.ErrNoDataAvailable)
}

func TestCSVLoader_DuplicateTable(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "olist_orders_dataset.csv", "order_id\nO1\n")
	writeFile(t, dir, "orders.csv", "order_id\nO2\n")

	_, err := NewCSVLoader(NewDirSource(dir), zap.NewNop()).Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "both map to table")
}

func TestCSVLoader_EmptyFileFails(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "olist_orders_dataset.csv", "")

	_, err := NewCSVLoader(NewDirSource(dir), zap.NewNop()).Load(context.Background())
	require.Error(t, err)

	var rowErr *RowError
	require.True(t, errors.As(err, &rowErr))
	assert.Equal(t, dataset.TableOrders, rowErr.Table)
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestCSVLoader_CanceledContext(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "olist_orders_dataset.csv", "order_id\nO1\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCSVLoader(NewDirSource(dir), zap.NewNop()).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCSVLoader_Fingerprint(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "olist_orders_dataset.csv")
	writeFile(t, dir, "olist_orders_dataset.csv", "order_id\nO1\n")

	loader := NewCSVLoader(NewDirSource(dir), zap.NewNop())
	ctx := context.Background()

	first, err := loader.Fingerprint(ctx)
	require.NoError(t, err)
	assert.Len(t, first, 16)

	again, err := loader.Fingerprint(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, again, "unchanged files keep their fingerprint")

	writeFile(t, dir, "notes.txt", "ignored")
	ignored, err := loader.Fingerprint(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, ignored, "non-CSV files do not count")

	writeFile(t, dir, "olist_orders_dataset.csv", "order_id\nO1\nO2\n")
	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, later, later))

	changed, err := loader.Fingerprint(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first, changed)
}
