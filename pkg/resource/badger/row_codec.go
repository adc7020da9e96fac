package badger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/kasuganosora/gridsource/pkg/resource/domain"
)

// RowCodec handles serialization and deserialization of row data
type RowCodec struct{}

// NewRowCodec creates a new RowCodec
func NewRowCodec() *RowCodec {
	return &RowCodec{}
}

// Encode serializes a row to bytes
func (c *RowCodec) Encode(row domain.Row) ([]byte, error) {
	if row == nil {
		return nil, nil
	}
	return json.Marshal(row)
}

// Decode deserializes bytes to a row
// Integral numbers decode as int64, others as float64.
func (c *RowCodec) Decode(data []byte) (domain.Row, error) {
	if len(data) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var row domain.Row
	if err := dec.Decode(&row); err != nil {
		return nil, fmt.Errorf("failed to decode row: %w", err)
	}
	for k, v := range row {
		if n, ok := v.(json.Number); ok {
			row[k] = normalizeNumber(n)
		}
	}
	return row, nil
}

func normalizeNumber(n json.Number) interface{} {
	if i, err := n.Int64(); err == nil {
		return i
	}
	if f, err := n.Float64(); err == nil && !math.IsInf(f, 0) {
		return f
	}
	return n.String()
}
