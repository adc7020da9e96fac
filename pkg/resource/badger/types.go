// Package badger provides a persistent row store backed by the Badger KV store.
// Rows are keyed by a monotonically increasing sequence so that iteration
// order equals insertion order.
package badger

import (
	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
)

// Key prefixes for Badger key-value store
const (
	// PrefixRow row data prefix
	PrefixRow = "row:"
	// PrefixSeq sequence number prefix
	PrefixSeq = "seq:"
)

// seqBandwidth number of sequence values leased per round trip
const seqBandwidth = 256

// DataSourceConfig configuration for DataSource
type DataSourceConfig struct {
	// DataDir directory for storing data files
	DataDir string `json:"data_dir"`

	// InMemory if true, runs in pure memory mode (no disk persistence)
	InMemory bool `json:"in_memory"`

	// SyncWrites if true, syncs writes to disk immediately
	SyncWrites bool `json:"sync_writes"`

	// Compression compression type (0=none, 1=snappy, 2=zstd)
	Compression int `json:"compression"`

	// Logger optional custom logger
	Logger badger.Logger `json:"-"`
}

// DefaultDataSourceConfig returns default configuration
func DefaultDataSourceConfig(dataDir string) *DataSourceConfig {
	return &DataSourceConfig{
		DataDir:     dataDir,
		InMemory:    dataDir == "",
		SyncWrites:  false,
		Compression: 1, // snappy
	}
}

func (c *DataSourceConfig) compression() options.CompressionType {
	switch c.Compression {
	case 1:
		return options.Snappy
	case 2:
		return options.ZSTD
	default:
		return options.None
	}
}
