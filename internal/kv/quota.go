// ABOUTME: Size-budget wrapper that gives any backend a storage quota.
// ABOUTME: Rejects writes that would exceed the budget with ErrQuotaExceeded.

package kv

import (
	"errors"
	"fmt"
	"sync"
)

// LowSpaceThreshold is the remaining space under which Usage.Low reports true.
const LowSpaceThreshold = 100 * 1024

// Usage describes how much of the quota is in use.
type Usage struct {
	Used      int64
	Limit     int64 // <= 0 means unlimited
	Remaining int64
}

// Low reports whether the store is close to its limit.
func (u Usage) Low() bool {
	return u.Limit > 0 && u.Remaining < LowSpaceThreshold
}

// Quota enforces a total byte budget over key and value sizes.
// It assumes it is the only writer to the wrapped store.
type Quota struct {
	inner Store
	limit int64

	mu    sync.Mutex
	sizes map[string]int64
	used  int64
}

// NewQuota wraps inner with a budget of limit bytes. A limit <= 0 disables
// the check but still tracks usage.
func NewQuota(inner Store, limit int64) (*Quota, error) {
	q := &Quota{inner: inner, limit: limit, sizes: make(map[string]int64)}

	keys, err := inner.Keys()
	if err != nil {
		return nil, fmt.Errorf("scan keys: %w", err)
	}
	for _, k := range keys {
		v, err := inner.Get(k)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("measure %q: %w", k, err)
		}
		size := entrySize(k, v)
		q.sizes[k] = size
		q.used += size
	}
	return q, nil
}

func entrySize(key string, value []byte) int64 {
	return int64(len(key) + len(value))
}

func (q *Quota) Get(key string) ([]byte, error) {
	return q.inner.Get(key)
}

func (q *Quota) Set(key string, value []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	size := entrySize(key, value)
	next := q.used - q.sizes[key] + size
	if q.limit > 0 && next > q.limit {
		return fmt.Errorf("%w: writing %q needs %d bytes, %d of %d in use",
			ErrQuotaExceeded, key, size, q.used, q.limit)
	}

	if err := q.inner.Set(key, value); err != nil {
		return err
	}
	q.used = next
	q.sizes[key] = size
	return nil
}

func (q *Quota) Delete(key string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.inner.Delete(key); err != nil {
		return err
	}
	q.used -= q.sizes[key]
	delete(q.sizes, key)
	return nil
}

func (q *Quota) Keys() ([]string, error) {
	return q.inner.Keys()
}

func (q *Quota) Close() error {
	return q.inner.Close()
}

// Usage reports the current consumption against the budget.
func (q *Quota) Usage() Usage {
	q.mu.Lock()
	defer q.mu.Unlock()

	u := Usage{Used: q.used, Limit: q.limit}
	if q.limit > 0 {
		u.Remaining = q.limit - q.used
	}
	return u
}
