package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/balitek/villabot/internal/config"
)

// SQLStore keeps the dataset as a sparse cell grid in SQL, one row per
// populated (partition, row, col) cell. Works against sqlite3 or
// postgres; the driver is chosen by configuration.
type SQLStore struct {
	db         *sqlx.DB
	partitions []string
	logger     *zap.Logger
}

// row_idx instead of row: "row" is a reserved word in postgres.
const cellsSchema = `
CREATE TABLE IF NOT EXISTS cells (
	partition TEXT    NOT NULL,
	row_idx   INTEGER NOT NULL,
	col       INTEGER NOT NULL,
	value     TEXT    NOT NULL,
	PRIMARY KEY (partition, row_idx, col)
)`

// NewSQLStore opens the database and ensures the cell grid exists.
// partitions fixes the partition set served by ListPartitions; reading
// an unknown partition fails.
func NewSQLStore(cfg config.StoreConfig, partitions []string, logger *zap.Logger) (*SQLStore, error) {
	db, err := sqlx.Connect(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to store: %w", err)
	}
	if _, err := db.Exec(cellsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}
	return &SQLStore{db: db, partitions: partitions, logger: logger}, nil
}

// NewSQLStoreWithDB wraps an existing connection (used by tests).
func NewSQLStoreWithDB(db *sqlx.DB, partitions []string, logger *zap.Logger) *SQLStore {
	return &SQLStore{db: db, partitions: partitions, logger: logger}
}

// ListPartitions returns the configured partition names in order.
func (s *SQLStore) ListPartitions(ctx context.Context) ([]string, error) {
	out := make([]string, len(s.partitions))
	copy(out, s.partitions)
	return out, nil
}

func (s *SQLStore) knownPartition(name string) bool {
	for _, p := range s.partitions {
		if p == name {
			return true
		}
	}
	return false
}

type cellRow struct {
	Row   int    `db:"row_idx"`
	Col   int    `db:"col"`
	Value string `db:"value"`
}

// ReadRows reconstructs the header row and data rows of a partition
// from the cell grid. Missing cells come back as empty strings.
func (s *SQLStore) ReadRows(ctx context.Context, partition string) ([]string, [][]string, error) {
	if !s.knownPartition(partition) {
		return nil, nil, fmt.Errorf("%w: %q", ErrPartitionNotFound, partition)
	}

	query := s.db.Rebind(`SELECT row_idx, col, value FROM cells WHERE partition = ? ORDER BY row_idx, col`)
	var cells []cellRow
	if err := s.db.SelectContext(ctx, &cells, query, partition); err != nil {
		return nil, nil, fmt.Errorf("failed to read partition %q: %w", partition, err)
	}
	if len(cells) == 0 {
		return nil, nil, nil
	}

	maxRow, maxCol := 0, 0
	for _, c := range cells {
		if c.Row > maxRow {
			maxRow = c.Row
		}
		if c.Col > maxCol {
			maxCol = c.Col
		}
	}

	grid := make([][]string, maxRow)
	for i := range grid {
		grid[i] = make([]string, maxCol)
	}
	for _, c := range cells {
		grid[c.Row-1][c.Col-1] = c.Value
	}
	return grid[0], grid[1:], nil
}

// WriteCell upserts value at (row, col), 1-based.
func (s *SQLStore) WriteCell(ctx context.Context, partition string, row, col int, value string) error {
	if !s.knownPartition(partition) {
		return fmt.Errorf("%w: %q", ErrPartitionNotFound, partition)
	}
	if row < 1 || col < 1 {
		return fmt.Errorf("invalid cell address (%d, %d)", row, col)
	}

	query := s.db.Rebind(`INSERT INTO cells (partition, row_idx, col, value) VALUES (?, ?, ?, ?)
		ON CONFLICT (partition, row_idx, col) DO UPDATE SET value = excluded.value`)
	if _, err := s.db.ExecContext(ctx, query, partition, row, col, value); err != nil {
		return fmt.Errorf("failed to write cell (%d, %d): %w", row, col, err)
	}
	return nil
}

// AppendColumn writes name into the first free header cell of row 1
// and returns its 1-based column.
func (s *SQLStore) AppendColumn(ctx context.Context, partition, name string) (int, error) {
	if !s.knownPartition(partition) {
		return 0, fmt.Errorf("%w: %q", ErrPartitionNotFound, partition)
	}

	maxCol, err := s.headerWidth(ctx, partition)
	if err != nil {
		return 0, err
	}

	if err := s.WriteCell(ctx, partition, 1, maxCol+1, name); err != nil {
		return 0, err
	}
	s.logger.Info("Appended column",
		zap.String("partition", partition),
		zap.String("column", name),
		zap.Int("col", maxCol+1),
	)
	return maxCol + 1, nil
}

// EnsureHeaders seeds the canonical header row into every partition
// that has no headers yet. Partitions with any header cell are left
// untouched.
func (s *SQLStore) EnsureHeaders(ctx context.Context, headers []string) error {
	for _, partition := range s.partitions {
		width, err := s.headerWidth(ctx, partition)
		if err != nil {
			return err
		}
		if width > 0 {
			continue
		}
		for i, h := range headers {
			if err := s.WriteCell(ctx, partition, 1, i+1, h); err != nil {
				return err
			}
		}
		s.logger.Info("Seeded header row",
			zap.String("partition", partition),
			zap.Int("columns", len(headers)),
		)
	}
	return nil
}

// headerWidth is the highest populated column of the header row, 0 for
// an empty partition.
func (s *SQLStore) headerWidth(ctx context.Context, partition string) (int, error) {
	query := s.db.Rebind(`SELECT COALESCE(MAX(col), 0) FROM cells WHERE partition = ? AND row_idx = 1`)
	var maxCol int
	if err := s.db.GetContext(ctx, &maxCol, query, partition); err != nil && err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to read header row: %w", err)
	}
	return maxCol, nil
}

// Close releases the underlying connection pool.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
