// Package badger provides the durable key-value slot that holds the signed-in
// identity between process runs, backed by BadgerDB.
package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"

	"github.com/Ammar-alrfee/fit-manager/internal/storage"
)

// DefaultKey is the key under which the session identity is stored.
const DefaultKey = "fitmanager_user"

// Config configures the slot database.
type Config struct {
	// Path is the directory for BadgerDB files. Ignored when InMemory is true.
	Path string

	// InMemory keeps everything in memory. Used by tests.
	InMemory bool

	// Key is the slot key. Defaults to DefaultKey.
	Key string

	// Logger receives BadgerDB's internal log lines. Nil disables them.
	Logger *slog.Logger
}

// badgerLogger adapts slog.Logger to badger.Logger.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Slot is a single durable key-value slot.
type Slot struct {
	db  *badger.DB
	key []byte
}

// Open opens (or creates) the slot database.
func Open(cfg Config) (*Slot, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent slot")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0700); err != nil {
			return nil, fmt.Errorf("failed to create slot directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path).WithSyncWrites(true)
	}
	opts = opts.WithNumVersionsToKeep(1)

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open slot database: %w", err)
	}

	key := cfg.Key
	if key == "" {
		key = DefaultKey
	}

	return &Slot{db: db, key: []byte(key)}, nil
}

// OpenInMemory opens a slot that lives only as long as the process.
func OpenInMemory() (*Slot, error) {
	return Open(Config{InMemory: true})
}

// Load returns the stored payload, or storage.ErrNotFound when the slot is empty.
func (s *Slot) Load(ctx context.Context) ([]byte, error) {
	var payload []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(s.key)
		if err != nil {
			return err
		}
		payload, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read slot: %w", err)
	}
	return payload, nil
}

// Save overwrites the slot.
func (s *Slot) Save(ctx context.Context, payload []byte) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.key, payload)
	})
	if err != nil {
		return fmt.Errorf("failed to write slot: %w", err)
	}
	return nil
}

// Clear empties the slot. Clearing an empty slot is not an error.
func (s *Slot) Clear(ctx context.Context) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(s.key)
	})
	if err != nil {
		return fmt.Errorf("failed to clear slot: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Slot) Close() error {
	return s.db.Close()
}
