package source

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCSVParser(t *testing.T) {
	t.Run("UTF-8 BOM is stripped", func(t *testing.T) {
		parser, err := NewCSVParser(strings.NewReader("\xEF\xBB\xBForder_id,customer_id\nO1,C1"))
		require.NoError(t, err)
		require.NoError(t, parser.ParseHeader())

		assert.Equal(t, []string{"order_id", "customer_id"}, parser.Headers())
	})

	t.Run("empty file returns error", func(t *testing.T) {
		parser, err := NewCSVParser(strings.NewReader(""))
		assert.Nil(t, parser)
		assert.ErrorIs(t, err, ErrEmptyFile)
	})

	t.Run("invalid UTF-8 returns error", func(t *testing.T) {
		_, err := NewCSVParser(strings.NewReader("city\n\xff\xfe\n"))
		assert.ErrorIs(t, err, ErrInvalidEncoding)
	})

	t.Run("rune split by the validation window is accepted", func(t *testing.T) {
		// "ã" is two bytes; place it across the 4096 byte boundary
		content := "city\n" + strings.Repeat("a", 4096-5-1) + "ã\n"
		_, err := NewCSVParser(strings.NewReader(content))
		assert.NoError(t, err)
	})

	t.Run("custom delimiter", func(t *testing.T) {
		parser, err := NewCSVParser(strings.NewReader("a;b\n1;2"), WithDelimiter(';'))
		require.NoError(t, err)
		require.NoError(t, parser.ParseHeader())

		assert.Equal(t, []string{"a", "b"}, parser.Headers())
	})
}

func TestCSVParser_ReadRecord(t *testing.T) {
	parser, err := NewCSVParser(strings.NewReader("a, b ,c\n 1 ,2\n4,5,6,7\n"))
	require.NoError(t, err)
	require.NoError(t, parser.ParseHeader())
	assert.Equal(t, []string{"a", "b", "c"}, parser.Headers())

	row, err := parser.ReadRecord()
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", ""}, row, "short rows are padded")

	row, err = parser.ReadRecord()
	require.NoError(t, err)
	assert.Equal(t, []string{"4", "5", "6"}, row, "long rows are truncated")

	_, err = parser.ReadRecord()
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, 2, parser.TotalRows())
	assert.Equal(t, 3, parser.CurrentRow())
}

func TestCSVParser_ReadTable(t *testing.T) {
	t.Run("quoted fields and empty values", func(t *testing.T) {
		content := "product_id,product_category_name\nP1,\"cama,mesa\"\nP2,\n"
		parser, err := NewCSVParser(strings.NewReader(content))
		require.NoError(t, err)

		table, err := parser.ReadTable("products")
		require.NoError(t, err)

		assert.Equal(t, "products", table.Name)
		assert.Equal(t, []string{"product_id", "product_category_name"}, table.Columns)
		assert.Equal(t, [][]string{{"P1", "cama,mesa"}, {"P2", ""}}, table.Rows)
	})

	t.Run("header only gives no rows", func(t *testing.T) {
		parser, err := NewCSVParser(strings.NewReader("order_id\n"))
		require.NoError(t, err)

		table, err := parser.ReadTable("orders")
		require.NoError(t, err)
		assert.Empty(t, table.Rows)
	})

	t.Run("missing header", func(t *testing.T) {
		parser, err := NewCSVParser(strings.NewReader("\n\n"))
		require.NoError(t, err)

		_, err = parser.ReadTable("orders")
		require.Error(t, err)

		var rowErr *RowError
		require.True(t, errors.As(err, &rowErr))
		assert.Equal(t, "orders", rowErr.Table)
		assert.Equal(t, ErrCodeMissingHeader, rowErr.Code)
		assert.ErrorIs(t, err, ErrMissingHeader)
	})

	t.Run("malformed row", func(t *testing.T) {
		parser, err := NewCSVParser(strings.NewReader("a,b\n1,2\n\"x,3\n"), WithLazyQuotes(false))
		require.NoError(t, err)

		_, err = parser.ReadTable("reviews")
		require.Error(t, err)

		var rowErr *RowError
		require.True(t, errors.As(err, &rowErr))
		assert.Equal(t, ErrCodeMalformedRow, rowErr.Code)
		assert.Equal(t, 3, rowErr.Row)
		assert.Contains(t, rowErr.Error(), "reviews row 3")
	})
}
