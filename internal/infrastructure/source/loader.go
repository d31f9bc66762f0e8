package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/olist/dashboard/internal/domain/dataset"
	"github.com/olist/dashboard/internal/domain/shared"
	"go.uber.org/zap"
)

// CSVLoader builds a raw table set from the CSV files of a Source
type CSVLoader struct {
	src    Source
	opts   []ParserOption
	logger *zap.Logger
}

// NewCSVLoader creates a CSVLoader
func NewCSVLoader(src Source, logger *zap.Logger, opts ...ParserOption) *CSVLoader {
	return &CSVLoader{
		src:    src,
		opts:   opts,
		logger: logger.Named("csv_loader"),
	}
}

// Name identifies the loader in logs and spans
func (l *CSVLoader) Name() string {
	return l.src.String()
}

// Load parses every CSV file. Non-CSV files are ignored and an empty
// source yields shared.ErrNoDataAvailable.
func (l *CSVLoader) Load(ctx context.Context) (dataset.RawTableSet, error) {
	objects, err := l.csvObjects(ctx)
	if err != nil {
		return nil, err
	}
	if len(objects) == 0 {
		return nil, fmt.Errorf("%s: %w", l.src, shared.ErrNoDataAvailable)
	}

	raw := make(dataset.RawTableSet, len(objects))
	files := make(map[string]string, len(objects))
	for _, obj := range objects {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := TableName(obj.Name)
		if prev, dup := files[name]; dup {
			return nil, fmt.Errorf("files %q and %q both map to table %q", prev, obj.Name, name)
		}
		files[name] = obj.Name
		table, err := l.readTable(ctx, obj.Name, name)
		if err != nil {
			return nil, err
		}
		raw[name] = table

		l.logger.Debug("Table loaded",
			zap.String("file", obj.Name),
			zap.String("table", name),
			zap.Int("rows", len(table.Rows)),
			zap.Int("columns", len(table.Columns)),
		)
	}

	l.logger.Info("Raw tables loaded",
		zap.String("source", l.src.String()),
		zap.Int("tables", len(raw)),
	)
	return raw, nil
}

func (l *CSVLoader) readTable(ctx context.Context, file, name string) (*dataset.RawTable, error) {
	rc, err := l.src.Open(ctx, file)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	parser, err := NewCSVParser(rc, l.opts...)
	if err != nil {
		return nil, NewRowError(name, 0, ErrCodeCSVParsing, err)
	}
	return parser.ReadTable(name)
}

// Fingerprint hashes the name, size, modification time and tag of every CSV
// file. It changes whenever a file is added, removed or rewritten.
func (l *CSVLoader) Fingerprint(ctx context.Context) (string, error) {
	objects, err := l.csvObjects(ctx)
	if err != nil {
		return "", err
	}
	if len(objects) == 0 {
		return "", fmt.Errorf("%s: %w", l.src, shared.ErrNoDataAvailable)
	}

	h := sha256.New()
	for _, obj := range objects {
		h.Write([]byte(obj.Name))
		h.Write([]byte{0})
		h.Write([]byte(strconv.FormatInt(obj.Size, 10)))
		h.Write([]byte{0})
		h.Write([]byte(strconv.FormatInt(obj.ModTime.UnixNano(), 10)))
		h.Write([]byte{0})
		h.Write([]byte(obj.ETag))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))[:16], nil
}

func (l *CSVLoader) csvObjects(ctx context.Context) ([]Object, error) {
	all, err := l.src.List(ctx)
	if err != nil {
		return nil, err
	}
	objects := all[:0:0]
	for _, obj := range all {
		if IsCSV(obj.Name) {
			objects = append(objects, obj)
		}
	}
	return objects, nil
}
