package commit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/balitek/villabot/internal/models"
	"github.com/balitek/villabot/internal/store"
)

type cellWrite struct {
	Row, Col int
	Value    string
}

// fakeStore is a single-partition in-memory store.Client that records
// every mutation.
type fakeStore struct {
	partition string
	headers   []string
	rows      [][]string
	writes    []cellWrite
	appended  []string
	writeErr  error
}

func (f *fakeStore) ListPartitions(ctx context.Context) ([]string, error) {
	return []string{f.partition}, nil
}

func (f *fakeStore) ReadRows(ctx context.Context, partition string) ([]string, [][]string, error) {
	if partition != f.partition {
		return nil, nil, store.ErrPartitionNotFound
	}
	return f.headers, f.rows, nil
}

func (f *fakeStore) WriteCell(ctx context.Context, partition string, row, col int, value string) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes = append(f.writes, cellWrite{Row: row, Col: col, Value: value})
	return nil
}

// AppendColumn fills the first free header cell, the way the SQL grid
// picks MAX(col)+1 of the header row.
func (f *fakeStore) AppendColumn(ctx context.Context, partition, name string) (int, error) {
	f.appended = append(f.appended, name)
	for i, h := range f.headers {
		if h == "" {
			f.headers[i] = name
			return i + 1, nil
		}
	}
	f.headers = append(f.headers, name)
	return len(f.headers), nil
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		partition: "Villa, Hotel, Resort Sidemen",
		headers:   []string{"Nama", "Desa", "Contact Person"},
		rows: [][]string{
			{"Villa Damai", "Sidemen", ""},
			{"Hotel Segara", "Telaga", "+62800"},
		},
	}
}

func key(name, village string) models.RecordKey {
	return models.RecordKey{
		Partition: "Villa, Hotel, Resort Sidemen",
		Name:      name,
		Village:   village,
	}
}

func TestCommitWritesOneCell(t *testing.T) {
	fs := newFakeStore()
	svc := NewService(fs, zap.NewNop())

	err := svc.Commit(context.Background(), key("Villa Damai", "Sidemen"),
		map[string]string{"Contact Person": "+62811222333"})
	require.NoError(t, err)

	require.Len(t, fs.writes, 1, "exactly one cell write expected")
	// Villa Damai is the first data row: sheet row 2; Contact Person is
	// the third column.
	assert.Equal(t, cellWrite{Row: 2, Col: 3, Value: "+62811222333"}, fs.writes[0])
	assert.Empty(t, fs.appended)
}

func TestCommitAppendsMissingColumn(t *testing.T) {
	fs := newFakeStore()
	svc := NewService(fs, zap.NewNop())

	err := svc.Commit(context.Background(), key("Villa Damai", "Sidemen"),
		map[string]string{"Ulasan Review IT": "Wifi cepat."})
	require.NoError(t, err)

	assert.Equal(t, []string{"Ulasan Review IT"}, fs.appended)
	require.Len(t, fs.writes, 1)
	assert.Equal(t, cellWrite{Row: 2, Col: 4, Value: "Wifi cepat."}, fs.writes[0])
}

func TestCommitWritesAtColumnChosenByStore(t *testing.T) {
	fs := newFakeStore()
	// A data row wider than the header row pads the in-memory headers;
	// the store still appends into the first free header cell.
	fs.headers = append(fs.headers, "", "")
	svc := NewService(fs, zap.NewNop())

	err := svc.Commit(context.Background(), key("Villa Damai", "Sidemen"),
		map[string]string{"Ulasan Review IT": "Wifi cepat."})
	require.NoError(t, err)

	assert.Equal(t, []string{"Ulasan Review IT"}, fs.appended)
	require.Len(t, fs.writes, 1)
	// Col 4, where the store put the header, not col 6 off the padded slice.
	assert.Equal(t, cellWrite{Row: 2, Col: 4, Value: "Wifi cepat."}, fs.writes[0])
}

func TestCommitRowNotFoundIsNoOp(t *testing.T) {
	fs := newFakeStore()
	svc := NewService(fs, zap.NewNop())

	err := svc.Commit(context.Background(), key("Ghost Villa", "Nowhere"),
		map[string]string{"Contact Person": "+62811"})
	assert.ErrorIs(t, err, ErrRowNotFound)
	assert.Empty(t, fs.writes)
	assert.Empty(t, fs.appended)
}

func TestCommitNeverOverwritesNonEmptyAttribute(t *testing.T) {
	fs := newFakeStore()
	svc := NewService(fs, zap.NewNop())

	err := svc.Commit(context.Background(), key("Hotel Segara", "Telaga"),
		map[string]string{"Contact Person": "+62811999888"})
	require.NoError(t, err)
	assert.Empty(t, fs.writes, "non-empty attribute must not be overwritten")
}

func TestCommitSchemaMismatchAborts(t *testing.T) {
	fs := newFakeStore()
	fs.headers = []string{"Jenis", "Lokasi"} // no Nama/Desa
	svc := NewService(fs, zap.NewNop())

	err := svc.Commit(context.Background(), key("Villa Damai", "Sidemen"),
		map[string]string{"Contact Person": "+62811"})
	assert.ErrorIs(t, err, store.ErrSchemaMismatch)
	assert.Empty(t, fs.writes)
}

func TestCommitReturnsFirstWriteError(t *testing.T) {
	fs := newFakeStore()
	fs.writeErr = errors.New("quota exceeded")
	svc := NewService(fs, zap.NewNop())

	err := svc.Commit(context.Background(), key("Villa Damai", "Sidemen"),
		map[string]string{"Contact Person": "+62811"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Contact Person")
}
