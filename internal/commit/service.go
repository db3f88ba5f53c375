// Package commit applies confirmed proposals to the backing store.
package commit

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/balitek/villabot/internal/metrics"
	"github.com/balitek/villabot/internal/models"
	"github.com/balitek/villabot/internal/store"
	"github.com/balitek/villabot/internal/tracing"
)

// ErrRowNotFound is returned when the target row no longer exists;
// commit then did nothing.
var ErrRowNotFound = errors.New("target row not found")

// Service writes confirmed attribute updates, appending columns as
// needed. Commits are not transactional: a later cell write can fail
// after earlier ones succeeded, and earlier writes are kept.
type Service struct {
	store  store.Client
	logger *zap.Logger
}

func NewService(st store.Client, logger *zap.Logger) *Service {
	return &Service{store: st, logger: logger}
}

// Commit locates the row by exact (Name, Village) match and writes each
// update to its resolved cell. Non-empty attributes are never
// overwritten; their updates are skipped.
func (s *Service) Commit(ctx context.Context, key models.RecordKey, updates map[string]string) error {
	ctx, span := tracing.StartSpan(ctx, "commit")
	defer span.End()

	headers, rows, err := s.store.ReadRows(ctx, key.Partition)
	if err != nil {
		return fmt.Errorf("failed to read partition: %w", err)
	}

	nameIdx, err := store.ColumnIndex(headers, models.AttrName)
	if err != nil {
		return err
	}
	villageIdx, err := store.ColumnIndex(headers, models.AttrVillage)
	if err != nil {
		return err
	}

	// 1-based sheet row of the target; header is row 1.
	targetRow := 0
	var targetValues []string
	for i, row := range rows {
		if cell(row, nameIdx) == key.Name && cell(row, villageIdx) == key.Village {
			targetRow = i + 2
			targetValues = row
			break
		}
	}
	if targetRow == 0 {
		s.logger.Warn("Commit target row not found",
			zap.String("partition", key.Partition),
			zap.String("name", key.Name),
			zap.String("village", key.Village),
		)
		return ErrRowNotFound
	}

	// Deterministic write order across runs.
	attrs := make([]string, 0, len(updates))
	for a := range updates {
		attrs = append(attrs, a)
	}
	sort.Strings(attrs)

	for _, attr := range attrs {
		colIdx, err := store.ColumnIndex(headers, attr)
		if errors.Is(err, store.ErrSchemaMismatch) {
			col, appendErr := s.store.AppendColumn(ctx, key.Partition, attr)
			if appendErr != nil {
				metrics.CommitFailures.Inc()
				s.logger.Error("Failed to append column",
					zap.String("partition", key.Partition),
					zap.String("column", attr),
					zap.Error(appendErr),
				)
				return fmt.Errorf("failed to append column %q: %w", attr, appendErr)
			}
			// Trust the column the store chose: the local header slice
			// may be padded wider than the real header row.
			for len(headers) < col {
				headers = append(headers, "")
			}
			headers[col-1] = attr
			colIdx = col - 1
		} else if err != nil {
			return err
		}

		if strings.TrimSpace(cell(targetValues, colIdx)) != "" {
			s.logger.Warn("Skipping non-empty attribute",
				zap.String("attribute", attr),
				zap.Int("row", targetRow),
			)
			continue
		}

		if err := s.store.WriteCell(ctx, key.Partition, targetRow, colIdx+1, updates[attr]); err != nil {
			metrics.CommitFailures.Inc()
			s.logger.Error("Failed to write cell",
				zap.String("partition", key.Partition),
				zap.String("attribute", attr),
				zap.Int("row", targetRow),
				zap.Int("col", colIdx+1),
				zap.Error(err),
			)
			return fmt.Errorf("failed to write %q: %w", attr, err)
		}
		metrics.CommitCellWrites.Inc()
	}

	s.logger.Info("Committed proposal",
		zap.String("partition", key.Partition),
		zap.String("name", key.Name),
		zap.Int("attributes", len(attrs)),
	)
	return nil
}

func cell(row []string, idx int) string {
	if idx < len(row) {
		return row[idx]
	}
	return ""
}
