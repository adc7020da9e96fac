package sql

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasuganosora/gridsource/pkg/resource/domain"
	"github.com/kasuganosora/gridsource/pkg/resource/memory"
	"github.com/kasuganosora/gridsource/pkg/window"
)

type testCar struct {
	ID       int64   `gorm:"column:id;primaryKey;autoIncrement:false"`
	Make     *string `gorm:"column:make"`
	Model    string  `gorm:"column:model"`
	Price    *int64  `gorm:"column:price"`
	Electric bool    `gorm:"column:electric"`
}

func carRows() []domain.Row {
	car := func(id int64, make interface{}, model string, price interface{}, electric bool) domain.Row {
		return domain.Row{"id": id, "make": make, "model": model, "price": price, "electric": electric}
	}
	return []domain.Row{
		car(1, "Toyota", "Celica", int64(35000), false),
		car(2, "Ford", "Mondeo", int64(32000), false),
		car(3, "Porsche", "Boxster", int64(72000), false),
		car(4, "Tesla", "Model 3", nil, true),
		car(5, "ford", "Focus", int64(32000), false),
		car(6, nil, "Unknown", int64(0), false),
		car(7, "Škoda", "Enyaq", int64(45000), true),
		car(8, "Toyota", "Prius", int64(28000), true),
	}
}

func newSQLiteCars(t *testing.T, writable bool) *DataSource {
	t.Helper()
	return newSQLiteRows(t, carRows(), writable)
}

func newSQLiteRows(t *testing.T, rows []domain.Row, writable bool) *DataSource {
	t.Helper()
	ctx := context.Background()

	ds, err := NewDataSource(&domain.DataSourceConfig{
		Type:     domain.DataSourceTypeSQLite,
		Name:     "cars",
		Writable: true,
		Options:  map[string]interface{}{"columns": map[string]interface{}{"electric": "bool"}},
	})
	require.NoError(t, err)
	require.NoError(t, ds.Connect(ctx))
	t.Cleanup(func() { ds.Close(context.Background()) })

	require.NoError(t, ds.Migrate(ctx, &testCar{}))
	n, err := ds.Insert(ctx, rows)
	require.NoError(t, err)
	require.Equal(t, int64(len(rows)), n)

	ds.config.Writable = writable
	return ds
}

func newMemoryCars(t *testing.T) *memory.DataSource {
	t.Helper()
	ds := memory.NewDataSource(&domain.DataSourceConfig{Type: domain.DataSourceTypeMemory, Name: "cars"}, carRows())
	require.NoError(t, ds.Connect(context.Background()))
	return ds
}

func ids(rows []domain.Row) []int64 {
	out := make([]int64, 0, len(rows))
	for _, r := range rows {
		out = append(out, r["id"].(int64))
	}
	return out
}

func TestDataSource_RowsAndColumns(t *testing.T) {
	ds := newSQLiteCars(t, true)
	ctx := context.Background()

	rows, err := ds.Rows(ctx)
	require.NoError(t, err)
	assert.Equal(t, carRows(), rows)

	count, err := ds.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(8), count)

	cols := ds.Columns()
	assert.Equal(t, ColumnKindNumber, cols["id"])
	assert.Equal(t, ColumnKindText, cols["make"])
	assert.Equal(t, ColumnKindNumber, cols["price"])
	assert.Equal(t, ColumnKindBool, cols["electric"])
}

func TestDataSource_NotConnected(t *testing.T) {
	ds, err := NewDataSource(&domain.DataSourceConfig{Type: domain.DataSourceTypeSQLite, Name: "cars"})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = ds.Rows(ctx)
	var notConnected *domain.ErrNotConnected
	assert.True(t, errors.As(err, &notConnected))

	_, err = ds.Count(ctx)
	assert.Error(t, err)
	_, err = ds.Window(ctx, &domain.WindowRequest{EndRow: 1})
	assert.Error(t, err)
	assert.False(t, ds.SupportsFiltering(&domain.WindowRequest{EndRow: 1}))
	assert.NoError(t, ds.Close(ctx))
}

func TestDataSource_InsertReadOnly(t *testing.T) {
	ds := newSQLiteCars(t, false)

	_, err := ds.Insert(context.Background(), []domain.Row{{"id": int64(9)}})
	var readOnly *domain.ErrReadOnly
	assert.True(t, errors.As(err, &readOnly))
	assert.False(t, ds.IsWritable())
}

func TestNewDataSource_InvalidType(t *testing.T) {
	_, err := NewDataSource(&domain.DataSourceConfig{Type: domain.DataSourceTypeMemory, Name: "cars"})
	assert.Error(t, err)
	_, err = NewDataSource(nil)
	assert.Error(t, err)
}

func TestDataSource_WindowPastEnd(t *testing.T) {
	ds := newSQLiteCars(t, true)

	res, err := ds.Window(context.Background(), &domain.WindowRequest{StartRow: 20, EndRow: 30})
	require.NoError(t, err)
	assert.Equal(t, int64(8), res.RowCount)
	assert.NotNil(t, res.Rows)
	assert.Empty(t, res.Rows)
}

func TestDataSource_PushdownMatchesMemory(t *testing.T) {
	sqlDS := newSQLiteCars(t, true)
	memDS := newMemoryCars(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		req      domain.WindowRequest
		pushdown bool
		wantIDs  []int64
	}{
		{
			name:     "everything",
			req:      domain.WindowRequest{StartRow: 0, EndRow: 100},
			pushdown: true,
			wantIDs:  []int64{1, 2, 3, 4, 5, 6, 7, 8},
		},
		{
			name:     "middle window",
			req:      domain.WindowRequest{StartRow: 2, EndRow: 5},
			pushdown: true,
			wantIDs:  []int64{3, 4, 5},
		},
		{
			name:     "sort make ascending puts null first",
			req:      domain.WindowRequest{StartRow: 0, EndRow: 100, SortModel: domain.SortModel{{ColID: "make"}}},
			pushdown: true,
			wantIDs:  []int64{6, 2, 3, 4, 1, 8, 5, 7},
		},
		{
			name: "sort price descending then make",
			req: domain.WindowRequest{StartRow: 0, EndRow: 100, SortModel: domain.SortModel{
				{ColID: "price", Sort: domain.SortDesc},
				{ColID: "make", Sort: domain.SortAsc},
			}},
			pushdown: true,
			wantIDs:  []int64{3, 7, 1, 2, 5, 8, 6, 4},
		},
		{
			name:     "sort bool",
			req:      domain.WindowRequest{StartRow: 0, EndRow: 100, SortModel: domain.SortModel{{ColID: "electric", Sort: domain.SortDesc}}},
			pushdown: true,
			wantIDs:  []int64{4, 7, 8, 1, 2, 3, 5, 6},
		},
		{
			name:     "text contains",
			req:      domain.WindowRequest{StartRow: 0, EndRow: 100, FilterModel: domain.FilterModel{"make": domain.Text(domain.TextContains, "o")}},
			pushdown: true,
			wantIDs:  []int64{1, 2, 3, 5, 7, 8},
		},
		{
			name:     "text equals ignores row case",
			req:      domain.WindowRequest{StartRow: 0, EndRow: 100, FilterModel: domain.FilterModel{"make": domain.Text(domain.TextEquals, "ford")}},
			pushdown: true,
			wantIDs:  []int64{2, 5},
		},
		{
			name:     "uppercase term never matches",
			req:      domain.WindowRequest{StartRow: 0, EndRow: 100, FilterModel: domain.FilterModel{"make": domain.Text(domain.TextEquals, "Ford")}},
			pushdown: true,
			wantIDs:  []int64{},
		},
		{
			name: "text or",
			req: domain.WindowRequest{StartRow: 0, EndRow: 100, FilterModel: domain.FilterModel{
				"make": domain.Or(domain.Text(domain.TextStartsWith, "to"), domain.Text(domain.TextEndsWith, "la")),
			}},
			pushdown: true,
			wantIDs:  []int64{1, 4, 8},
		},
		{
			name:     "text not contains keeps null",
			req:      domain.WindowRequest{StartRow: 0, EndRow: 100, FilterModel: domain.FilterModel{"make": domain.Text(domain.TextNotContains, "o")}},
			pushdown: true,
			wantIDs:  []int64{4, 6},
		},
		{
			name:     "text not equal",
			req:      domain.WindowRequest{StartRow: 0, EndRow: 100, FilterModel: domain.FilterModel{"make": domain.Text(domain.TextNotEqual, "toyota")}},
			pushdown: true,
			wantIDs:  []int64{2, 3, 4, 5, 6, 7},
		},
		{
			name:     "number greater than skips null",
			req:      domain.WindowRequest{StartRow: 0, EndRow: 100, FilterModel: domain.FilterModel{"price": domain.Number(domain.NumberGreaterThan, 30000)}},
			pushdown: true,
			wantIDs:  []int64{1, 2, 3, 5, 7},
		},
		{
			name:     "number not equal skips null",
			req:      domain.WindowRequest{StartRow: 0, EndRow: 100, FilterModel: domain.FilterModel{"price": domain.Number(domain.NumberNotEqual, 32000)}},
			pushdown: true,
			wantIDs:  []int64{1, 3, 6, 7, 8},
		},
		{
			name:     "number in range is inclusive",
			req:      domain.WindowRequest{StartRow: 0, EndRow: 100, FilterModel: domain.FilterModel{"price": domain.NumberRange(32000, 45000)}},
			pushdown: true,
			wantIDs:  []int64{1, 2, 5, 7},
		},
		{
			name:     "number blank",
			req:      domain.WindowRequest{StartRow: 0, EndRow: 100, FilterModel: domain.FilterModel{"price": domain.Number(domain.NumberBlank, 0)}},
			pushdown: true,
			wantIDs:  []int64{4, 6},
		},
		{
			name:     "text blank",
			req:      domain.WindowRequest{StartRow: 0, EndRow: 100, FilterModel: domain.FilterModel{"make": domain.Text(domain.TextBlank, "")}},
			pushdown: true,
			wantIDs:  []int64{6},
		},
		{
			name:     "bool compared as number",
			req:      domain.WindowRequest{StartRow: 0, EndRow: 100, FilterModel: domain.FilterModel{"electric": domain.Number(domain.NumberEquals, 1)}},
			pushdown: true,
			wantIDs:  []int64{4, 7, 8},
		},
		{
			name:     "number filter on text column",
			req:      domain.WindowRequest{StartRow: 0, EndRow: 100, FilterModel: domain.FilterModel{"make": domain.Number(domain.NumberLessThan, 5)}},
			pushdown: true,
			wantIDs:  []int64{},
		},
		{
			name:     "unrecognized filter type",
			req:      domain.WindowRequest{StartRow: 0, EndRow: 100, FilterModel: domain.FilterModel{"model": &domain.UnrecognizedFilter{FilterType: "set"}}},
			pushdown: true,
			wantIDs:  []int64{},
		},
		{
			name: "filter sort and window",
			req: domain.WindowRequest{
				StartRow: 1,
				EndRow:   3,
				FilterModel: domain.FilterModel{
					"make":  domain.Text(domain.TextContains, "o"),
					"price": domain.Number(domain.NumberLessThan, 40000),
				},
				SortModel: domain.SortModel{{ColID: "price", Sort: domain.SortAsc}},
			},
			pushdown: true,
			wantIDs:  []int64{2, 5},
		},
		{
			name:     "window past end",
			req:      domain.WindowRequest{StartRow: 50, EndRow: 60},
			pushdown: true,
			wantIDs:  []int64{},
		},
		{
			name:     "non-ASCII term",
			req:      domain.WindowRequest{StartRow: 0, EndRow: 100, FilterModel: domain.FilterModel{"make": domain.Text(domain.TextStartsWith, "š")}},
			pushdown: true,
			wantIDs:  []int64{7},
		},
		{
			name:     "text filter on number column falls back",
			req:      domain.WindowRequest{StartRow: 0, EndRow: 100, FilterModel: domain.FilterModel{"price": domain.Text(domain.TextStartsWith, "32")}},
			pushdown: false,
			wantIDs:  []int64{2, 5},
		},
		{
			name:     "unknown column falls back and excludes rows",
			req:      domain.WindowRequest{StartRow: 0, EndRow: 100, FilterModel: domain.FilterModel{"colour": domain.Text(domain.TextEquals, "red")}},
			pushdown: false,
			wantIDs:  []int64{},
		},
		{
			name:     "unknown sort column falls back",
			req:      domain.WindowRequest{StartRow: 0, EndRow: 3, SortModel: domain.SortModel{{ColID: "colour"}}},
			pushdown: false,
			wantIDs:  []int64{1, 2, 3},
		},
	}

	resolver := window.NewResolver()
	noPushdown := window.NewResolver(window.WithPushdown(false))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req

			got, err := resolver.Resolve(ctx, sqlDS, &req)
			require.NoError(t, err)
			assert.Equal(t, tt.pushdown, got.Stats.Pushdown)
			assert.Equal(t, tt.wantIDs, ids(got.Rows))

			want, err := resolver.Resolve(ctx, memDS, &req)
			require.NoError(t, err)
			assert.Equal(t, want.RowCount, got.RowCount)
			assert.Equal(t, want.Rows, got.Rows)

			inMemory, err := noPushdown.Resolve(ctx, sqlDS, &req)
			require.NoError(t, err)
			assert.False(t, inMemory.Stats.Pushdown)
			assert.Equal(t, want.Rows, inMemory.Rows)
			assert.Equal(t, want.RowCount, inMemory.RowCount)
		})
	}
}

func TestDataSource_PushdownUnicodeLowercase(t *testing.T) {
	car := func(id int64, make string) domain.Row {
		return domain.Row{"id": id, "make": make, "model": "", "price": nil, "electric": false}
	}
	rows := []domain.Row{
		car(1, "\u212A"), // Kelvin sign, lowercases to "k"
		car(2, "ÉCOLE"),
		car(3, "\u0130NCI"), // dotted capital I, lowercases to "i" and U+0307
		car(4, "Kia"),
	}
	sqlDS := newSQLiteRows(t, rows, true)
	memDS := memory.NewDataSource(&domain.DataSourceConfig{Type: domain.DataSourceTypeMemory, Name: "cars"}, rows)
	require.NoError(t, memDS.Connect(context.Background()))

	tests := []struct {
		name    string
		filter  domain.FilterNode
		wantIDs []int64
	}{
		{"kelvin row contains ascii k", domain.Text(domain.TextContains, "k"), []int64{1, 4}},
		{"kelvin row equals ascii k", domain.Text(domain.TextEquals, "k"), []int64{1}},
		{"accented row", domain.Text(domain.TextStartsWith, "éc"), []int64{2}},
		{"ascii i does not equal dotted i", domain.Text(domain.TextStartsWith, "in"), []int64{}},
		{"dotted i with combining mark", domain.Text(domain.TextStartsWith, "i\u0307n"), []int64{3}},
		{"ends with", domain.Text(domain.TextEndsWith, "ia"), []int64{4}},
		{"not contains", domain.Text(domain.TextNotContains, "k"), []int64{2, 3}},
	}

	resolver := window.NewResolver()
	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := domain.WindowRequest{StartRow: 0, EndRow: 10, FilterModel: domain.FilterModel{"make": tt.filter}}

			got, err := resolver.Resolve(ctx, sqlDS, &req)
			require.NoError(t, err)
			assert.True(t, got.Stats.Pushdown)
			assert.Equal(t, tt.wantIDs, ids(got.Rows))

			want, err := resolver.Resolve(ctx, memDS, &req)
			require.NoError(t, err)
			assert.Equal(t, want.RowCount, got.RowCount)
			assert.Equal(t, want.Rows, got.Rows)
		})
	}
}

func TestFactory_Create(t *testing.T) {
	f := NewFactory(domain.DataSourceTypeSQLite, nil)
	assert.Equal(t, domain.DataSourceTypeSQLite, f.GetType())

	ds, err := f.Create(&domain.DataSourceConfig{Name: "cars"})
	require.NoError(t, err)
	assert.Equal(t, domain.DataSourceTypeSQLite, ds.GetConfig().Type)

	_, ok := domain.AsFilterable(ds)
	assert.True(t, ok)

	_, err = f.Create(nil)
	assert.Error(t, err)
}

func TestDataSource_Update(t *testing.T) {
	ds := newSQLiteCars(t, true)
	ctx := context.Background()

	row, err := ds.Update(ctx, "2", "price", 33500)
	require.NoError(t, err)
	assert.Equal(t, int64(2), row["id"])
	assert.Equal(t, int64(33500), row["price"])
	assert.Equal(t, "Ford", row["make"])

	row, err = ds.Update(ctx, int64(4), "make", "TESLA")
	require.NoError(t, err)
	assert.Equal(t, "TESLA", row["make"])

	rows, err := ds.Rows(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(33500), rows[1]["price"])
	assert.Equal(t, "TESLA", rows[3]["make"])

	var invalid *domain.ErrInvalidUpdate
	_, err = ds.Update(ctx, 2, "colour", "red")
	assert.True(t, errors.As(err, &invalid))
	_, err = ds.Update(ctx, 2, "id", 20)
	assert.True(t, errors.As(err, &invalid))

	var notFound *domain.ErrRowNotFound
	_, err = ds.Update(ctx, "99", "price", 1)
	assert.True(t, errors.As(err, &notFound))
	_, err = ds.Update(ctx, "abc", "price", 1)
	assert.True(t, errors.As(err, &notFound))

	maxID, err := ds.MaxID(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(8), maxID)
}

func TestDataSource_UpdateReadOnly(t *testing.T) {
	ds := newSQLiteCars(t, false)
	_, err := ds.Update(context.Background(), 1, "make", "x")
	var readOnly *domain.ErrReadOnly
	assert.True(t, errors.As(err, &readOnly))
}

func TestCoerceID(t *testing.T) {
	v, ok := coerceID(ColumnKindNumber, "7")
	assert.True(t, ok)
	assert.Equal(t, int64(7), v)

	_, ok = coerceID(ColumnKindNumber, "seven")
	assert.False(t, ok)

	v, ok = coerceID(ColumnKindText, "seven")
	assert.True(t, ok)
	assert.Equal(t, "seven", v)
}
