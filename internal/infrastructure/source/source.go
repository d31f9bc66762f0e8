// Package source loads the raw marketplace tables from delimited files.
package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Object is one file offered by a Source
type Object struct {
	Name    string // base name, e.g. olist_orders_dataset.csv
	Size    int64
	ModTime time.Time
	ETag    string // content tag when the backend has one
}

// Source lists and opens the raw files of one dataset
type Source interface {
	List(ctx context.Context) ([]Object, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	String() string
}

// TableName maps a file name to its logical table name:
// "olist_order_items_dataset.csv" -> "order_items".
func TableName(file string) string {
	name := strings.TrimSuffix(path.Base(filepath.ToSlash(file)), path.Ext(file))
	name = strings.TrimPrefix(name, "olist_")
	name = strings.TrimSuffix(name, "_dataset")
	return strings.ToLower(name)
}

// IsCSV reports whether the file has a .csv extension
func IsCSV(file string) bool {
	return strings.EqualFold(path.Ext(file), ".csv")
}

// DirSource reads CSV files from a local directory
type DirSource struct {
	dir string
}

// NewDirSource creates a DirSource
func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

// List returns the regular files of the directory, sorted by name
func (s *DirSource) List(ctx context.Context) ([]Object, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset directory %s: %w", s.dir, err)
	}

	objects := make([]Object, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", e.Name(), err)
		}
		objects = append(objects, Object{
			Name:    e.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime().UTC(),
		})
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Name < objects[j].Name })
	return objects, nil
}

// Open opens one file of the directory
func (s *DirSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if name != filepath.Base(name) {
		return nil, fmt.Errorf("invalid file name %q", name)
	}
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", name, err)
	}
	return f, nil
}

func (s *DirSource) String() string {
	return "dir:" + s.dir
}
