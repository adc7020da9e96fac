package badger

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasuganosora/gridsource/pkg/logger"
	"github.com/kasuganosora/gridsource/pkg/resource/domain"
)

func newInMemory(t *testing.T, name string, writable bool) *DataSource {
	t.Helper()
	ds := NewDataSource(&domain.DataSourceConfig{
		Type:     domain.DataSourceTypeBadger,
		Name:     name,
		Writable: writable,
		Options:  map[string]interface{}{"in_memory": true},
	})
	require.NoError(t, ds.Connect(context.Background()))
	t.Cleanup(func() { _ = ds.Close(context.Background()) })
	return ds
}

func TestDataSource_InsertPreservesOrder(t *testing.T) {
	ds := newInMemory(t, "cars", true)
	ctx := context.Background()

	rows := make([]domain.Row, 0, 300)
	for i := 0; i < 300; i++ {
		rows = append(rows, domain.Row{"id": i, "make": fmt.Sprintf("m%03d", 299-i)})
	}
	// 分两批插入，跨越序列租约边界
	n, err := ds.Insert(ctx, rows[:150])
	require.NoError(t, err)
	assert.Equal(t, int64(150), n)
	_, err = ds.Insert(ctx, rows[150:])
	require.NoError(t, err)

	got, err := ds.Rows(ctx)
	require.NoError(t, err)
	require.Len(t, got, 300)
	for i, row := range got {
		assert.Equal(t, int64(i), row["id"])
	}

	count, err := ds.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(300), count)
}

func TestDataSource_ValueTypes(t *testing.T) {
	ds := newInMemory(t, "types", true)
	ctx := context.Background()

	_, err := ds.Insert(ctx, []domain.Row{{
		"id": 1, "price": 35000.5, "make": "Ford", "sold": true, "note": nil,
	}})
	require.NoError(t, err)

	rows, err := ds.Rows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1), rows[0]["id"])
	assert.Equal(t, 35000.5, rows[0]["price"])
	assert.Equal(t, "Ford", rows[0]["make"])
	assert.Equal(t, true, rows[0]["sold"])
	v, ok := rows[0]["note"]
	assert.True(t, ok)
	assert.Nil(t, v)
}

func TestDataSource_DatasetsIsolated(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	a := NewDataSource(&domain.DataSourceConfig{Name: "a", Writable: true, Options: map[string]interface{}{"data_dir": dir}})
	require.NoError(t, a.Connect(ctx))
	_, err := a.Insert(ctx, []domain.Row{{"id": 1}, {"id": 2}})
	require.NoError(t, err)
	require.NoError(t, a.Close(ctx))

	// 重新打开后数据仍在，并且新行排在旧行之后
	reopened := NewDataSource(&domain.DataSourceConfig{Name: "a", Writable: true, Options: map[string]interface{}{"data_dir": dir}})
	require.NoError(t, reopened.Connect(ctx))
	defer reopened.Close(ctx)
	_, err = reopened.Insert(ctx, []domain.Row{{"id": 3}})
	require.NoError(t, err)

	rows, err := reopened.Rows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, int64(3), rows[2]["id"])
}

func TestDataSource_ReadOnlyAndNotConnected(t *testing.T) {
	ctx := context.Background()

	ro := newInMemory(t, "ro", false)
	_, err := ro.Insert(ctx, []domain.Row{{"id": 1}})
	var readOnly *domain.ErrReadOnly
	assert.True(t, errors.As(err, &readOnly))

	closed := NewDataSource(&domain.DataSourceConfig{Name: "x", Options: map[string]interface{}{"in_memory": true}})
	_, err = closed.Rows(ctx)
	var notConnected *domain.ErrNotConnected
	assert.True(t, errors.As(err, &notConnected))
}

func TestDataSource_MissingDataDir(t *testing.T) {
	ds := NewDataSourceWithConfig(nil, &DataSourceConfig{})
	err := ds.Connect(context.Background())
	var invalid *domain.ErrInvalidConfig
	assert.True(t, errors.As(err, &invalid))
}

func TestDataSource_WithLoggerAdapter(t *testing.T) {
	cfg := DefaultDataSourceConfig("")
	cfg.Logger = NewLogger(logger.NewNoOpLogger())
	ds := NewDataSourceWithConfig(nil, cfg)
	require.NoError(t, ds.Connect(context.Background()))
	assert.True(t, ds.IsConnected())
	assert.True(t, ds.IsWritable())
	require.NoError(t, ds.Close(context.Background()))
	assert.False(t, ds.IsConnected())
}

func TestBadgerFactory(t *testing.T) {
	f := NewBadgerFactory()
	assert.Equal(t, domain.DataSourceTypeBadger, f.GetType())
	ds, err := f.Create(nil)
	require.NoError(t, err)
	assert.Equal(t, "badger", ds.GetConfig().Name)
}

func TestDataSource_Update(t *testing.T) {
	ds := newInMemory(t, "friends", true)
	ctx := context.Background()

	_, err := ds.Insert(ctx, []domain.Row{
		{"id": 1, "name": "Alice", "age": 30},
		{"id": 2, "name": "Bob", "age": 41},
		{"id": 3, "name": "Carol", "age": 25},
	})
	require.NoError(t, err)

	row, err := ds.Update(ctx, "2", "age", 42.0)
	require.NoError(t, err)
	assert.Equal(t, domain.Row{"id": int64(2), "name": "Bob", "age": int64(42)}, row)

	rows, err := ds.Rows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, row, rows[1], "update keeps the row in place")
	assert.Equal(t, "Carol", rows[2]["name"])

	var invalid *domain.ErrInvalidUpdate
	_, err = ds.Update(ctx, 2, "colour", "red")
	assert.True(t, errors.As(err, &invalid))
	_, err = ds.Update(ctx, 2, "id", 9)
	assert.True(t, errors.As(err, &invalid))

	var notFound *domain.ErrRowNotFound
	_, err = ds.Update(ctx, 99, "age", 1)
	assert.True(t, errors.As(err, &notFound))

	maxID, err := ds.MaxID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), maxID)
}

func TestDataSource_UpdateReadOnly(t *testing.T) {
	ro := newInMemory(t, "ro", false)
	_, err := ro.Update(context.Background(), 1, "name", "x")
	var readOnly *domain.ErrReadOnly
	assert.True(t, errors.As(err, &readOnly))
}
