package cache

import (
	"context"

	"github.com/video-digest/backend/internal/db"
)

// SQLite persists entries in the service database so they survive restarts.
type SQLite struct {
	db       *db.Database
	ns       string
	capacity int
	policy   Policy
}

func NewSQLite(database *db.Database, namespace string, capacity int, policy Policy) *SQLite {
	if capacity < 1 {
		capacity = 1
	}
	return &SQLite{db: database, ns: namespace, capacity: capacity, policy: policy}
}

func (s *SQLite) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.db.CacheGet(ctx, s.ns, key, s.policy == PolicyLRU)
}

func (s *SQLite) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.CachePut(ctx, s.ns, key, value, s.capacity, s.policy == PolicyLRU)
	return err
}

func (s *SQLite) Len(ctx context.Context) (int, error) {
	return s.db.CacheCount(ctx, s.ns)
}

func (s *SQLite) Capacity() int {
	return s.capacity
}
