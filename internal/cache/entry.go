package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// record is the persisted form of an entry.
type record struct {
	Key       string          `json:"key"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
	TTL       time.Duration   `json:"ttl"`
}

func (r record) encode() ([]byte, error) {
	return json.Marshal(r)
}

func decodeRecord(raw []byte, key string) (record, error) {
	var r record
	if err := json.Unmarshal(raw, &r); err != nil {
		return record{}, fmt.Errorf("decode cache record: %w", err)
	}
	if r.Key != key {
		return record{}, errors.New("cache record key mismatch")
	}
	if r.TTL <= 0 || r.CreatedAt.IsZero() || len(r.Payload) == 0 {
		return record{}, errors.New("cache record is incomplete")
	}
	return r, nil
}

// memEntry is a memory-tier entry.
type memEntry struct {
	payload []byte
	created time.Time
	ttl     time.Duration
}

func (e *memEntry) size(key string) int {
	return len(key) + len(e.payload)
}
