package badger

import (
	"bytes"
	"testing"
)

func TestKeyEncoder_RowKeyRoundTrip(t *testing.T) {
	enc := NewKeyEncoder()
	key := enc.EncodeRowKey("friends", 258)

	if !bytes.HasPrefix(key, enc.EncodeRowPrefix("friends")) {
		t.Fatalf("row key %q missing dataset prefix", key)
	}

	dataset, seq, ok := enc.DecodeRowKey(key)
	if !ok || dataset != "friends" || seq != 258 {
		t.Errorf("DecodeRowKey = (%q, %d, %v), want (friends, 258, true)", dataset, seq, ok)
	}

	if _, _, ok := enc.DecodeRowKey([]byte("seq:friends")); ok {
		t.Errorf("DecodeRowKey accepted a sequence key")
	}
}

func TestKeyEncoder_OrderMatchesSequence(t *testing.T) {
	enc := NewKeyEncoder()
	prev := enc.EncodeRowKey("d", 0)
	for _, seq := range []uint64{1, 255, 256, 65535, 1 << 40} {
		key := enc.EncodeRowKey("d", seq)
		if bytes.Compare(prev, key) >= 0 {
			t.Errorf("key for %d does not sort after previous key", seq)
		}
		prev = key
	}
}
