package store

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testPartitions = []string{"Villa, Hotel, Resort Sidemen", "Villa, Hotel, Resort Amed"}

func newMockStore(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewSQLStoreWithDB(sqlx.NewDb(db, "sqlite3"), testPartitions, zap.NewNop()), mock
}

func TestListPartitions(t *testing.T) {
	s, _ := newMockStore(t)
	got, err := s.ListPartitions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, testPartitions, got)
}

func TestReadRowsReconstructsGrid(t *testing.T) {
	s, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"row_idx", "col", "value"}).
		AddRow(1, 1, "Nama").
		AddRow(1, 5, "Desa").
		AddRow(2, 1, "Villa Damai").
		AddRow(2, 5, "Sidemen").
		AddRow(3, 1, "Hotel Segara")

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT row_idx, col, value FROM cells WHERE partition = ? ORDER BY row_idx, col`)).
		WithArgs(testPartitions[0]).
		WillReturnRows(rows)

	headers, data, err := s.ReadRows(context.Background(), testPartitions[0])
	require.NoError(t, err)
	assert.Equal(t, []string{"Nama", "", "", "", "Desa"}, headers)
	require.Len(t, data, 2)
	assert.Equal(t, []string{"Villa Damai", "", "", "", "Sidemen"}, data[0])
	assert.Equal(t, []string{"Hotel Segara", "", "", "", ""}, data[1])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReadRowsEmptyPartition(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT row_idx, col, value FROM cells`)).
		WithArgs(testPartitions[0]).
		WillReturnRows(sqlmock.NewRows([]string{"row_idx", "col", "value"}))

	headers, data, err := s.ReadRows(context.Background(), testPartitions[0])
	require.NoError(t, err)
	assert.Nil(t, headers)
	assert.Nil(t, data)
}

func TestReadRowsUnknownPartition(t *testing.T) {
	s, _ := newMockStore(t)
	_, _, err := s.ReadRows(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrPartitionNotFound)
}

func TestWriteCellUpserts(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO cells (partition, row_idx, col, value) VALUES (?, ?, ?, ?)
		ON CONFLICT (partition, row_idx, col) DO UPDATE SET value = excluded.value`)).
		WithArgs(testPartitions[0], 2, 8, "+62811222333").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := s.WriteCell(context.Background(), testPartitions[0], 2, 8, "+62811222333")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWriteCellRejectsInvalidAddress(t *testing.T) {
	s, _ := newMockStore(t)
	assert.Error(t, s.WriteCell(context.Background(), testPartitions[0], 0, 1, "x"))
	assert.Error(t, s.WriteCell(context.Background(), testPartitions[0], 1, 0, "x"))
}

func TestAppendColumnUsesNextFreeHeaderCell(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(MAX(col), 0) FROM cells WHERE partition = ? AND row_idx = 1`)).
		WithArgs(testPartitions[0]).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(9))

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO cells`)).
		WithArgs(testPartitions[0], 1, 10, "Ulasan Review IT").
		WillReturnResult(sqlmock.NewResult(1, 1))

	col, err := s.AppendColumn(context.Background(), testPartitions[0], "Ulasan Review IT")
	require.NoError(t, err)
	assert.Equal(t, 10, col, "must report the column it wrote")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureHeadersSeedsEmptyPartitionsOnly(t *testing.T) {
	s, mock := newMockStore(t)
	headerQuery := regexp.QuoteMeta(`SELECT COALESCE(MAX(col), 0) FROM cells WHERE partition = ? AND row_idx = 1`)

	// First partition already has headers; second is empty.
	mock.ExpectQuery(headerQuery).
		WithArgs(testPartitions[0]).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(9))
	mock.ExpectQuery(headerQuery).
		WithArgs(testPartitions[1]).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(0))
	for i, h := range []string{"Nama", "Desa"} {
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO cells`)).
			WithArgs(testPartitions[1], 1, i+1, h).
			WillReturnResult(sqlmock.NewResult(1, 1))
	}

	err := s.EnsureHeaders(context.Background(), []string{"Nama", "Desa"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStatementsAvoidReservedRowIdentifier(t *testing.T) {
	// "row" is a reserved word in postgres; the grid must not use it as
	// a bare column name.
	assert.NotRegexp(t, `\brow\b`, cellsSchema)
}

func TestColumnIndex(t *testing.T) {
	headers := []string{"Nama", "Jenis", "Desa"}

	idx, err := ColumnIndex(headers, "Desa")
	require.NoError(t, err)
	assert.Equal(t, 2, idx)

	_, err = ColumnIndex(headers, "Contact Person")
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}
