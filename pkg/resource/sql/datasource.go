package sql

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/kasuganosora/gridsource/pkg/logger"
	"github.com/kasuganosora/gridsource/pkg/resource/domain"
)

const insertBatchSize = 500

// Option configures a DataSource
type Option func(*DataSource)

// WithLogger sets the logger used for pushdown decisions and gorm output
func WithLogger(l logger.Logger) Option {
	return func(ds *DataSource) { ds.logger = l }
}

// DataSource implements domain.WritableDataSource and
// domain.FilterableDataSource over a single table using gorm.
// SQLite, MySQL and PostgreSQL share this type through their Dialect.
type DataSource struct {
	mu        sync.RWMutex
	config    *domain.DataSourceConfig
	sqlCfg    *SQLConfig
	dialect   Dialect
	logger    logger.Logger
	db        *gorm.DB
	columns   map[string]ColumnKind
	connected bool
}

// NewDataSource creates a SQL datasource for config.Type
func NewDataSource(config *domain.DataSourceConfig, opts ...Option) (*DataSource, error) {
	if config == nil {
		return nil, domain.NewErrInvalidConfig("config", "nil datasource config")
	}
	dialect, err := NewDialect(config.Type)
	if err != nil {
		return nil, err
	}
	sqlCfg, err := ParseSQLConfig(config)
	if err != nil {
		return nil, err
	}

	ds := &DataSource{
		config:  config,
		sqlCfg:  sqlCfg,
		dialect: dialect,
		logger:  logger.NewNoOpLogger(),
	}
	for _, opt := range opts {
		opt(ds)
	}
	return ds, nil
}

// Connect opens the database, configures the pool and loads column kinds
func (ds *DataSource) Connect(ctx context.Context) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if ds.connected {
		return nil
	}

	dsType := string(ds.dialect.Type())
	dsn, err := ds.dialect.BuildDSN(ds.config, ds.sqlCfg)
	if err != nil {
		return domain.NewErrConnectionFailed(dsType, fmt.Sprintf("build DSN: %v", err))
	}

	db, err := gorm.Open(ds.dialect.Dialector(dsn), &gorm.Config{
		Logger:                 NewGormLogger(ds.logger, time.Duration(ds.sqlCfg.SlowThreshold)*time.Millisecond),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return domain.NewErrConnectionFailed(dsType, err.Error())
	}

	sqlDB, err := db.DB()
	if err != nil {
		return domain.NewErrConnectionFailed(dsType, err.Error())
	}

	// Configure pool; a memory database lives only as long as its connection
	if ds.dialect.MemoryDSN(dsn) {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
		sqlDB.SetConnMaxIdleTime(0)
	} else {
		sqlDB.SetMaxOpenConns(ds.sqlCfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(ds.sqlCfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(time.Duration(ds.sqlCfg.ConnMaxLifetime) * time.Second)
		sqlDB.SetConnMaxIdleTime(time.Duration(ds.sqlCfg.ConnMaxIdleTime) * time.Second)
	}

	// Verify connectivity
	pingCtx, cancel := context.WithTimeout(ctx, time.Duration(ds.sqlCfg.ConnectTimeout)*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(pingCtx); err != nil {
		sqlDB.Close()
		return domain.NewErrConnectionFailed(dsType, err.Error())
	}

	ds.db = db
	columns, err := ds.loadColumns(ctx)
	if err != nil {
		sqlDB.Close()
		ds.db = nil
		return fmt.Errorf("load columns of %s: %w", ds.sqlCfg.Table, err)
	}
	ds.columns = columns
	ds.connected = true
	return nil
}

// Close closes the database connection.
func (ds *DataSource) Close(ctx context.Context) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if !ds.connected {
		return nil
	}
	ds.connected = false

	sqlDB, err := ds.db.DB()
	ds.db = nil
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// IsConnected returns whether the datasource is connected.
func (ds *DataSource) IsConnected() bool {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.connected
}

// IsWritable returns whether the datasource is writable.
func (ds *DataSource) IsWritable() bool {
	return ds.config.Writable
}

// GetConfig returns the datasource configuration.
func (ds *DataSource) GetConfig() *domain.DataSourceConfig {
	return ds.config
}

// Dialect returns the SQL dialect
func (ds *DataSource) Dialect() Dialect {
	return ds.dialect
}

// Table returns the backing table name
func (ds *DataSource) Table() string {
	return ds.sqlCfg.Table
}

// Columns returns a copy of the known column kinds
func (ds *DataSource) Columns() map[string]ColumnKind {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	out := make(map[string]ColumnKind, len(ds.columns))
	for k, v := range ds.columns {
		out[k] = v
	}
	return out
}

// Migrate creates or alters the backing table from gorm models and
// reloads the column kinds
func (ds *DataSource) Migrate(ctx context.Context, models ...interface{}) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if !ds.connected {
		return domain.NewErrNotConnected(string(ds.dialect.Type()))
	}
	if err := ds.db.WithContext(ctx).Table(ds.sqlCfg.Table).AutoMigrate(models...); err != nil {
		return fmt.Errorf("migrate %s: %w", ds.sqlCfg.Table, err)
	}
	columns, err := ds.loadColumns(ctx)
	if err != nil {
		return err
	}
	ds.columns = columns
	return nil
}

// loadColumns must be called with ds.mu held
func (ds *DataSource) loadColumns(ctx context.Context) (map[string]ColumnKind, error) {
	columns := make(map[string]ColumnKind)
	migrator := ds.db.WithContext(ctx).Migrator()
	if migrator.HasTable(ds.sqlCfg.Table) {
		types, err := migrator.ColumnTypes(ds.sqlCfg.Table)
		if err != nil {
			return nil, err
		}
		for _, ct := range types {
			columns[ct.Name()] = ClassifyColumnType(ct.DatabaseTypeName())
		}
	}
	for name, raw := range ds.sqlCfg.Columns {
		kind, _ := parseColumnKind(raw)
		columns[name] = kind
	}
	return columns, nil
}

func (ds *DataSource) builder() *Builder {
	return NewBuilder(ds.dialect, ds.sqlCfg.Table, ds.sqlCfg.OrderKey, ds.columns)
}

// Rows returns every row in order-key order
func (ds *DataSource) Rows(ctx context.Context) ([]domain.Row, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	if !ds.connected {
		return nil, domain.NewErrNotConnected(string(ds.dialect.Type()))
	}

	query := fmt.Sprintf("SELECT * FROM %s ORDER BY %s ASC",
		ds.dialect.QuoteIdentifier(ds.sqlCfg.Table), ds.dialect.QuoteIdentifier(ds.sqlCfg.OrderKey))
	sqlRows, err := ds.db.WithContext(ctx).Raw(query).Rows()
	if err != nil {
		return nil, fmt.Errorf("query rows: %w", err)
	}
	defer sqlRows.Close()

	return ScanRows(sqlRows, ds.columns)
}

// Count returns the number of rows in the table
func (ds *DataSource) Count(ctx context.Context) (int64, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	if !ds.connected {
		return 0, domain.NewErrNotConnected(string(ds.dialect.Type()))
	}

	var n int64
	if err := ds.db.WithContext(ctx).Table(ds.sqlCfg.Table).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count rows: %w", err)
	}
	return n, nil
}

// Insert appends rows in batches inside one transaction
func (ds *DataSource) Insert(ctx context.Context, rows []domain.Row) (int64, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if !ds.connected {
		return 0, domain.NewErrNotConnected(string(ds.dialect.Type()))
	}
	if !ds.config.Writable {
		return 0, domain.NewErrReadOnly(string(ds.dialect.Type()), "insert")
	}
	if len(rows) == 0 {
		return 0, nil
	}

	var inserted int64
	err := ds.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for start := 0; start < len(rows); start += insertBatchSize {
			end := start + insertBatchSize
			if end > len(rows) {
				end = len(rows)
			}
			batch := make([]map[string]interface{}, 0, end-start)
			for _, row := range rows[start:end] {
				batch = append(batch, map[string]interface{}(row.Clone()))
			}
			res := tx.Table(ds.sqlCfg.Table).Create(batch)
			if res.Error != nil {
				return res.Error
			}
			inserted += res.RowsAffected
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("insert into %s: %w", ds.sqlCfg.Table, err)
	}
	return inserted, nil
}

// SupportsFiltering reports whether the request compiles to SQL with
// results identical to in-memory evaluation
func (ds *DataSource) SupportsFiltering(req *domain.WindowRequest) bool {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	if !ds.connected || req == nil {
		return false
	}
	if _, err := ds.builder().Compile(req); err != nil {
		ds.logger.Debug("[SQL] %s: falling back to memory: %v", ds.config.Name, err)
		return false
	}
	return true
}

// Window filters, sorts and slices in the database. The count and the
// page are read in one transaction so they describe the same snapshot.
func (ds *DataSource) Window(ctx context.Context, req *domain.WindowRequest) (*domain.WindowResult, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	if !ds.connected {
		return nil, domain.NewErrNotConnected(string(ds.dialect.Type()))
	}
	if req.StartRow < 0 || req.EndRow <= req.StartRow {
		return nil, domain.NewErrInvalidWindow(req.StartRow, req.EndRow)
	}

	b := ds.builder()
	q, err := b.Compile(req)
	if err != nil {
		return nil, err
	}

	var total int64
	rows := make([]domain.Row, 0)
	err = ds.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Raw(b.BuildCountSQL(q), q.Args...).Scan(&total).Error; err != nil {
			return fmt.Errorf("count window: %w", err)
		}
		if total <= int64(req.StartRow) {
			return nil
		}

		sqlRows, err := tx.Raw(b.BuildSelectSQL(q, req.StartRow, req.Size()), q.Args...).Rows()
		if err != nil {
			return fmt.Errorf("select window: %w", err)
		}
		defer sqlRows.Close()

		rows, err = ScanRows(sqlRows, ds.columns)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &domain.WindowResult{
		Rows:     rows,
		RowCount: total,
		Stats:    domain.WindowStats{Scanned: len(rows)},
	}, nil
}

// Update sets one column of the row whose id matches and reads the row
// back in the same transaction
func (ds *DataSource) Update(ctx context.Context, id interface{}, field string, value interface{}) (domain.Row, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if !ds.connected {
		return nil, domain.NewErrNotConnected(string(ds.dialect.Type()))
	}
	if !ds.config.Writable {
		return nil, domain.NewErrReadOnly(string(ds.dialect.Type()), "update")
	}
	if field == domain.RowIDField {
		return nil, domain.NewErrInvalidUpdate(field, "row id cannot be changed")
	}
	if _, ok := ds.columns[field]; !ok {
		return nil, domain.NewErrUnknownField(field)
	}
	idKind, ok := ds.columns[domain.RowIDField]
	if !ok {
		return nil, domain.NewErrInvalidUpdate(field, "table has no "+domain.RowIDField+" column")
	}

	key, ok := coerceID(idKind, id)
	if !ok {
		return nil, domain.NewErrRowNotFound(id)
	}
	table := ds.dialect.QuoteIdentifier(ds.sqlCfg.Table)
	where := ds.dialect.QuoteIdentifier(domain.RowIDField) + " = ?"

	var row domain.Row
	err := ds.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Table(ds.sqlCfg.Table).Where(where, key).Update(field, value).Error; err != nil {
			return fmt.Errorf("update %s.%s: %w", ds.sqlCfg.Table, field, err)
		}
		sqlRows, err := tx.Raw("SELECT * FROM "+table+" WHERE "+where, key).Rows()
		if err != nil {
			return fmt.Errorf("read back row: %w", err)
		}
		defer sqlRows.Close()

		rows, err := ScanRows(sqlRows, ds.columns)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return domain.NewErrRowNotFound(id)
		}
		row = rows[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

// MaxID returns the largest id in the table, 0 when it is empty
func (ds *DataSource) MaxID(ctx context.Context) (int64, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	if !ds.connected {
		return 0, domain.NewErrNotConnected(string(ds.dialect.Type()))
	}

	query := fmt.Sprintf("SELECT COALESCE(MAX(%s), 0) FROM %s",
		ds.dialect.QuoteIdentifier(domain.RowIDField), ds.dialect.QuoteIdentifier(ds.sqlCfg.Table))
	var n int64
	if err := ds.db.WithContext(ctx).Raw(query).Scan(&n).Error; err != nil {
		return 0, fmt.Errorf("max id: %w", err)
	}
	return n, nil
}

// coerceID turns a textual id from a URL into a number for numeric id
// columns; false means no row can have that id
func coerceID(kind ColumnKind, id interface{}) (interface{}, bool) {
	s, ok := id.(string)
	if !ok || kind != ColumnKindNumber {
		return id, true
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f, true
	}
	return nil, false
}
