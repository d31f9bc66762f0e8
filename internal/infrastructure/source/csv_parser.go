package source

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/olist/dashboard/internal/domain/dataset"
)

// CSVParser reads one delimited file into header and rows
type CSVParser struct {
	delimiter  rune
	lazyQuotes bool
	trimSpace  bool
	headers    []string
	currentRow int
	totalRows  int
	reader     *csv.Reader
	bufReader  *bufio.Reader
}

// ParserOption configures a CSVParser
type ParserOption func(*CSVParser)

// WithDelimiter sets the field delimiter (default is comma)
func WithDelimiter(d rune) ParserOption {
	return func(p *CSVParser) {
		p.delimiter = d
	}
}

// WithLazyQuotes enables lazy quote handling
func WithLazyQuotes(lazy bool) ParserOption {
	return func(p *CSVParser) {
		p.lazyQuotes = lazy
	}
}

// WithTrimSpace enables trimming of leading/trailing spaces from fields
func WithTrimSpace(trim bool) ParserOption {
	return func(p *CSVParser) {
		p.trimSpace = trim
	}
}

// NewCSVParser wraps r. A UTF-8 BOM is discarded and the first 4KiB must be valid UTF-8.
func NewCSVParser(r io.Reader, opts ...ParserOption) (*CSVParser, error) {
	parser := &CSVParser{
		delimiter:  ',',
		lazyQuotes: true,
		trimSpace:  true,
	}
	for _, opt := range opts {
		opt(parser)
	}

	parser.bufReader = bufio.NewReader(r)

	content, err := parser.bufReader.Peek(3)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(content) >= 3 && content[0] == 0xEF && content[1] == 0xBB && content[2] == 0xBF {
		_, _ = parser.bufReader.Discard(3)
	}

	if err := validateUTF8(parser.bufReader); err != nil {
		return nil, err
	}

	parser.reader = csv.NewReader(parser.bufReader)
	parser.reader.Comma = parser.delimiter
	parser.reader.LazyQuotes = parser.lazyQuotes
	parser.reader.TrimLeadingSpace = parser.trimSpace
	parser.reader.FieldsPerRecord = -1
	parser.reader.ReuseRecord = false

	return parser, nil
}

// validateUTF8 checks the head of the stream. A rune cut by the peek window is not an error.
func validateUTF8(r *bufio.Reader) error {
	const checkSize = 4096
	content, err := r.Peek(checkSize)
	if err != nil && err != io.EOF && !errors.Is(err, bufio.ErrBufferFull) {
		return fmt.Errorf("failed to read file for encoding validation: %w", err)
	}
	if len(content) == 0 {
		return ErrEmptyFile
	}

	if len(content) == checkSize {
		for cut := 1; cut < utf8.UTFMax && cut <= len(content); cut++ {
			if utf8.RuneStart(content[len(content)-cut]) {
				if !utf8.FullRune(content[len(content)-cut:]) {
					content = content[:len(content)-cut]
				}
				break
			}
		}
	}

	if !utf8.Valid(content) {
		return ErrInvalidEncoding
	}
	return nil
}

// ParseHeader reads the header row
func (p *CSVParser) ParseHeader() error {
	record, err := p.reader.Read()
	if err == io.EOF {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	p.headers = make([]string, len(record))
	for i, h := range record {
		if p.trimSpace {
			h = strings.TrimSpace(h)
		}
		p.headers[i] = h
	}
	if len(p.headers) == 0 || (len(p.headers) == 1 && p.headers[0] == "") {
		return ErrMissingHeader
	}

	p.currentRow = 1
	return nil
}

// Headers returns the parsed header names
func (p *CSVParser) Headers() []string {
	return p.headers
}

// ReadRecord reads the next row, padded or truncated to the header width
func (p *CSVParser) ReadRecord() ([]string, error) {
	record, err := p.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	p.currentRow++
	if err != nil {
		return nil, fmt.Errorf("error reading row %d: %w", p.currentRow, err)
	}
	p.totalRows++

	row := make([]string, len(p.headers))
	for i := range p.headers {
		if i < len(record) {
			v := record[i]
			if p.trimSpace {
				v = strings.TrimSpace(v)
			}
			row[i] = v
		}
	}
	return row, nil
}

// ReadTable parses the header and every remaining row into a raw table.
// Blank lines are skipped by the underlying reader; rows with only empty fields are kept.
func (p *CSVParser) ReadTable(name string) (*dataset.RawTable, error) {
	if err := p.ParseHeader(); err != nil {
		return nil, NewRowError(name, 1, ErrCodeMissingHeader, err)
	}

	table := &dataset.RawTable{Name: name, Columns: p.Headers()}
	for {
		row, err := p.ReadRecord()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, NewRowError(name, p.currentRow, ErrCodeMalformedRow, err)
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

// CurrentRow returns the current row number (1-indexed, header included)
func (p *CSVParser) CurrentRow() int {
	return p.currentRow
}

// TotalRows returns the number of data rows read
func (p *CSVParser) TotalRows() int {
	return p.totalRows
}
