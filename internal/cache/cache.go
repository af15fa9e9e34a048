// Package cache provides bounded key/value stores for transcripts and summaries.
//
// Every backend honours the same capacity contract: the number of entries never
// exceeds the configured capacity. What happens when a Put arrives at a full
// store depends on the Policy.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Policy decides how a full store treats new insertions.
type Policy string

const (
	// PolicyLRU evicts the least recently used entry to make room.
	PolicyLRU Policy = "lru"
	// PolicyFreeze drops the insertion and keeps the existing entries.
	PolicyFreeze Policy = "freeze"
)

// ParsePolicy maps a config value to a Policy. Unknown values fall back to LRU.
func ParsePolicy(s string) Policy {
	if Policy(strings.ToLower(strings.TrimSpace(s))) == PolicyFreeze {
		return PolicyFreeze
	}
	return PolicyLRU
}

// Store is a bounded, concurrency-safe byte store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	Len(ctx context.Context) (int, error)
	Capacity() int
}

// Key derives a stable cache key from a namespace and every input that affects
// the cached value. Parts are NUL separated so ("ab","c") and ("a","bc") differ.
func Key(namespace string, parts ...string) string {
	h := sha256.New()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write([]byte(p))
	}
	return fmt.Sprintf("%s:%s", namespace, hex.EncodeToString(h.Sum(nil)))
}

// Stats is a point-in-time view of one store.
type Stats struct {
	Entries  int `json:"entries"`
	Capacity int `json:"capacity"`
}

func StatsOf(ctx context.Context, s Store) (Stats, error) {
	n, err := s.Len(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Stats{Entries: n, Capacity: s.Capacity()}, nil
}
