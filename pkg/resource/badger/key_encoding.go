package badger

import (
	"encoding/binary"
	"strings"
)

// KeyEncoder encodes keys for Badger storage
type KeyEncoder struct{}

// NewKeyEncoder creates a new KeyEncoder
func NewKeyEncoder() *KeyEncoder {
	return &KeyEncoder{}
}

// EncodeRowKey encodes row data key
// Format: row:{dataset}:{seq as 8 byte big endian}
// Big endian keeps lexicographic key order equal to numeric sequence order.
func (e *KeyEncoder) EncodeRowKey(dataset string, seq uint64) []byte {
	prefix := e.EncodeRowPrefix(dataset)
	key := make([]byte, len(prefix)+8)
	copy(key, prefix)
	binary.BigEndian.PutUint64(key[len(prefix):], seq)
	return key
}

// DecodeRowKey decodes dataset name and sequence from row key
func (e *KeyEncoder) DecodeRowKey(key []byte) (dataset string, seq uint64, ok bool) {
	s := string(key)
	if !strings.HasPrefix(s, PrefixRow) || len(key) < len(PrefixRow)+9 {
		return "", 0, false
	}
	body := key[len(PrefixRow):]
	sep := len(body) - 9
	if body[sep] != ':' {
		return "", 0, false
	}
	return string(body[:sep]), binary.BigEndian.Uint64(body[sep+1:]), true
}

// EncodeRowPrefix encodes row key prefix for dataset scan
// Format: row:{dataset}:
func (e *KeyEncoder) EncodeRowPrefix(dataset string) []byte {
	return []byte(PrefixRow + dataset + ":")
}

// EncodeSeqKey encodes the sequence key of a dataset
// Format: seq:{dataset}
func (e *KeyEncoder) EncodeSeqKey(dataset string) []byte {
	return []byte(PrefixSeq + dataset)
}
