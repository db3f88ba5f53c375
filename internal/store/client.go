// Package store provides access to the backing tabular dataset. Row and
// column addressing is 1-based; the header row is row 1.
package store

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrSchemaMismatch is returned when an expected column header is
	// absent from a partition.
	ErrSchemaMismatch = errors.New("schema mismatch: expected column not found")

	// ErrPartitionNotFound is returned for an unknown partition name.
	ErrPartitionNotFound = errors.New("partition not found")
)

// Client is the backing tabular store collaborator.
type Client interface {
	ListPartitions(ctx context.Context) ([]string, error)
	// ReadRows returns the header row and the data rows of a partition.
	ReadRows(ctx context.Context, partition string) (headers []string, rows [][]string, err error)
	// WriteCell writes value at (row, col), 1-based.
	WriteCell(ctx context.Context, partition string, row, col int, value string) error
	// AppendColumn appends name at the end of the header row and
	// returns its 1-based column.
	AppendColumn(ctx context.Context, partition, name string) (int, error)
}

// ColumnIndex resolves a header name to a 0-based index, or
// ErrSchemaMismatch when absent.
func ColumnIndex(headers []string, name string) (int, error) {
	for i, h := range headers {
		if h == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrSchemaMismatch, name)
}
