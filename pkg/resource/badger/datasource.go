package badger

import (
	"context"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/kasuganosora/gridsource/pkg/resource/domain"
	"github.com/kasuganosora/gridsource/pkg/resource/util"
)

// DataSource implements domain.WritableDataSource on a Badger KV store.
// Rows of one dataset live under row:{dataset}: and are read back in
// insertion order inside a single read transaction.
type DataSource struct {
	config    *domain.DataSourceConfig
	badgerCfg *DataSourceConfig
	db        *badger.DB
	seq       *badger.Sequence
	connected bool
	mu        sync.RWMutex

	rowCodec   *RowCodec
	keyEncoder *KeyEncoder
}

// NewDataSource creates a new DataSource from the domain config.
// Options: data_dir (string), in_memory (bool), sync_writes (bool).
func NewDataSource(config *domain.DataSourceConfig) *DataSource {
	badgerCfg := DefaultDataSourceConfig("")
	if config != nil && config.Options != nil {
		if dir, ok := config.Options["data_dir"].(string); ok && dir != "" {
			badgerCfg.DataDir = dir
			badgerCfg.InMemory = false
		}
		if inMem, ok := config.Options["in_memory"].(bool); ok {
			badgerCfg.InMemory = inMem
		}
		if syncWrites, ok := config.Options["sync_writes"].(bool); ok {
			badgerCfg.SyncWrites = syncWrites
		}
	}
	return NewDataSourceWithConfig(config, badgerCfg)
}

// NewDataSourceWithConfig creates a new DataSource with custom badger config
func NewDataSourceWithConfig(domainCfg *domain.DataSourceConfig, badgerCfg *DataSourceConfig) *DataSource {
	if domainCfg == nil {
		domainCfg = &domain.DataSourceConfig{Type: domain.DataSourceTypeBadger, Name: "badger", Writable: true}
	}
	if badgerCfg == nil {
		badgerCfg = DefaultDataSourceConfig("")
	}
	return &DataSource{
		config:     domainCfg,
		badgerCfg:  badgerCfg,
		rowCodec:   NewRowCodec(),
		keyEncoder: NewKeyEncoder(),
	}
}

func (ds *DataSource) dataset() string {
	if ds.config.Name == "" {
		return "default"
	}
	return ds.config.Name
}

// Connect opens the Badger database
func (ds *DataSource) Connect(ctx context.Context) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if ds.connected {
		return nil
	}

	var opts badger.Options
	if ds.badgerCfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if ds.badgerCfg.DataDir == "" {
			return domain.NewErrInvalidConfig("data_dir", "required unless in_memory is set")
		}
		opts = badger.DefaultOptions(ds.badgerCfg.DataDir)
	}
	opts = opts.WithSyncWrites(ds.badgerCfg.SyncWrites)
	opts = opts.WithCompression(ds.badgerCfg.compression())
	// nil logger silences badger
	opts = opts.WithLogger(nil)
	if ds.badgerCfg.Logger != nil {
		opts = opts.WithLogger(ds.badgerCfg.Logger)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return domain.NewErrConnectionFailed(string(domain.DataSourceTypeBadger), err.Error())
	}

	seq, err := db.GetSequence(ds.keyEncoder.EncodeSeqKey(ds.dataset()), seqBandwidth)
	if err != nil {
		db.Close()
		return fmt.Errorf("failed to open row sequence: %w", err)
	}

	ds.db = db
	ds.seq = seq
	ds.connected = true
	return nil
}

// Close releases the sequence and closes the database
func (ds *DataSource) Close(ctx context.Context) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if !ds.connected {
		return nil
	}

	if ds.seq != nil {
		if err := ds.seq.Release(); err != nil {
			return fmt.Errorf("failed to release row sequence: %w", err)
		}
	}
	if err := ds.db.Close(); err != nil {
		return fmt.Errorf("failed to close badger database: %w", err)
	}

	ds.connected = false
	return nil
}

// IsConnected returns connection status
func (ds *DataSource) IsConnected() bool {
	ds.mu.RLock()
	defer ds.mu.RUnlock()
	return ds.connected
}

// IsWritable reports the configured writability
func (ds *DataSource) IsWritable() bool {
	return ds.config.Writable
}

// GetConfig returns the data source configuration
func (ds *DataSource) GetConfig() *domain.DataSourceConfig {
	return ds.config
}

// Rows returns all rows in insertion order from one read transaction
func (ds *DataSource) Rows(ctx context.Context) ([]domain.Row, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	if !ds.connected {
		return nil, domain.NewErrNotConnected(string(domain.DataSourceTypeBadger))
	}

	prefix := ds.keyEncoder.EncodeRowPrefix(ds.dataset())
	rows := make([]domain.Row, 0)
	err := ds.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var row domain.Row
			err := it.Item().Value(func(val []byte) error {
				decoded, err := ds.rowCodec.Decode(val)
				row = decoded
				return err
			})
			if err != nil {
				return err
			}
			rows = append(rows, row)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan rows: %w", err)
	}
	return rows, nil
}

// Count counts row keys without loading values
func (ds *DataSource) Count(ctx context.Context) (int64, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	if !ds.connected {
		return 0, domain.NewErrNotConnected(string(domain.DataSourceTypeBadger))
	}

	prefix := ds.keyEncoder.EncodeRowPrefix(ds.dataset())
	var count int64
	err := ds.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// Insert appends rows under fresh sequence numbers
func (ds *DataSource) Insert(ctx context.Context, rows []domain.Row) (int64, error) {
	// 写锁保证并发插入时键顺序与提交顺序一致
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if !ds.connected {
		return 0, domain.NewErrNotConnected(string(domain.DataSourceTypeBadger))
	}
	if !ds.config.Writable {
		return 0, domain.NewErrReadOnly(string(domain.DataSourceTypeBadger), "insert")
	}
	if len(rows) == 0 {
		return 0, nil
	}

	wb := ds.db.NewWriteBatch()
	defer wb.Cancel()

	var inserted int64
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		n, err := ds.seq.Next()
		if err != nil {
			return 0, fmt.Errorf("failed to allocate row key: %w", err)
		}
		data, err := ds.rowCodec.Encode(row)
		if err != nil {
			return 0, fmt.Errorf("failed to encode row: %w", err)
		}
		if err := wb.Set(ds.keyEncoder.EncodeRowKey(ds.dataset(), n), data); err != nil {
			return 0, fmt.Errorf("failed to insert row: %w", err)
		}
		inserted++
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("failed to flush rows: %w", err)
	}
	return inserted, nil
}

// Update rewrites one field of the first row whose id matches, inside a
// single read-write transaction
func (ds *DataSource) Update(ctx context.Context, id interface{}, field string, value interface{}) (domain.Row, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if !ds.connected {
		return nil, domain.NewErrNotConnected(string(domain.DataSourceTypeBadger))
	}
	if !ds.config.Writable {
		return nil, domain.NewErrReadOnly(string(domain.DataSourceTypeBadger), "update")
	}
	if field == domain.RowIDField {
		return nil, domain.NewErrInvalidUpdate(field, "row id cannot be changed")
	}

	prefix := ds.keyEncoder.EncodeRowPrefix(ds.dataset())
	var encoded []byte
	err := ds.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			var row domain.Row
			err := item.Value(func(val []byte) error {
				decoded, err := ds.rowCodec.Decode(val)
				row = decoded
				return err
			})
			if err != nil {
				return err
			}
			if !util.SameID(row[domain.RowIDField], id) {
				continue
			}
			if _, ok := row[field]; !ok {
				return domain.NewErrUnknownField(field)
			}

			row[field] = value
			data, err := ds.rowCodec.Encode(row)
			if err != nil {
				return fmt.Errorf("failed to encode row: %w", err)
			}
			encoded = data
			return txn.Set(item.KeyCopy(nil), data)
		}
		return domain.NewErrRowNotFound(id)
	})
	if err != nil {
		return nil, err
	}
	// decoded from the stored bytes so callers see what Rows will return
	return ds.rowCodec.Decode(encoded)
}

// MaxID scans the dataset for the largest numeric id
func (ds *DataSource) MaxID(ctx context.Context) (int64, error) {
	rows, err := ds.Rows(ctx)
	if err != nil {
		return 0, err
	}
	return util.MaxID(rows), nil
}
