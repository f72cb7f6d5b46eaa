// ABOUTME: Badger-backed key-value store, the default local backend.
// ABOUTME: Translates badger's space errors into ErrQuotaExceeded.

package kv

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dgraph-io/badger/v3"
	"github.com/harper/cookbook/internal/logger"
)

// ErrLocked means another process holds the badger directory.
var ErrLocked = errors.New("database is in use by another cookbook process")

// lockWait bounds how long OpenBadger waits for another process to let go.
const lockWait = 3 * time.Second

// Badger stores values in an embedded badger database.
type Badger struct {
	db *badger.DB
}

// OpenBadger opens (or creates) a badger database in dir.
func OpenBadger(dir string, log *logger.Logger) (*Badger, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 50 * time.Millisecond
	bo.MaxElapsedTime = lockWait

	var b *Badger
	err := backoff.Retry(func() error {
		var err error
		b, err = openBadger(badger.DefaultOptions(dir), log)
		if err != nil && isLockErr(err) {
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}, bo)
	if err != nil && isLockErr(err) {
		return nil, fmt.Errorf("%w: %v", ErrLocked, err)
	}
	return b, err
}

func isLockErr(err error) bool {
	return strings.Contains(err.Error(), "Cannot acquire directory lock")
}

// OpenBadgerInMemory opens a badger database that never touches disk.
func OpenBadgerInMemory(log *logger.Logger) (*Badger, error) {
	return openBadger(badger.DefaultOptions("").WithInMemory(true), log)
}

func openBadger(opts badger.Options, log *logger.Logger) (*Badger, error) {
	if log == nil {
		log = logger.Nop()
	}
	db, err := badger.Open(opts.WithLogger(log.Badger()))
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Badger{db: db}, nil
}

func (b *Badger) Get(key string) ([]byte, error) {
	var val []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	return val, err
}

func (b *Badger) Set(key string, value []byte) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
	return translateBadgerErr(err)
}

func (b *Badger) Delete(key string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	return translateBadgerErr(err)
}

func (b *Badger) Keys() ([]string, error) {
	var keys []string
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	return keys, err
}

func (b *Badger) Close() error {
	return b.db.Close()
}

func translateBadgerErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, badger.ErrTxnTooBig) || errors.Is(err, syscall.ENOSPC) {
		return quotaError(err)
	}
	return err
}
