// Package badger is the embedded key-value backend of the document store.
//
// Layout:
//
//	doc\x00<collection>\x00<key>                      document body
//	rec\x00<collection>\x00<user>\x00<nanos>\x00<id>  record (JSON encoded docstore.Record)
//	rid\x00<collection>\x00<id>                       record id index
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"studystreak/internal/platform/docstore"
	apperrors "studystreak/internal/platform/errors"
)

const maxConflictRetries = 64

var _ docstore.Store = (*Store)(nil)

// Config holds configuration for a BadgerDB instance.
type Config struct {
	// Path is the directory for BadgerDB files. Ignored when InMemory is true.
	Path string

	InMemory bool

	SyncWrites bool

	// Logger receives BadgerDB's internal logs. If nil they are dropped.
	Logger *slog.Logger
}

func DefaultConfig(path string) Config {
	return Config{Path: path, SyncWrites: true}
}

func InMemoryConfig() Config {
	return Config{InMemory: true}
}

type Store struct {
	db *badger.DB
}

type txKey struct{ store *Store }

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

func Open(cfg Config) (*Store, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, errors.New("badger path is required")
		}
		opts = badger.DefaultOptions(cfg.Path).WithSyncWrites(cfg.SyncWrites)
	}
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Within runs fn in a read-write transaction and retries it when badger
// reports a conflicting concurrent commit.
func (s *Store) Within(ctx context.Context, fn func(context.Context) error) error {
	if _, ok := ctx.Value(txKey{s}).(*badger.Txn); ok {
		return fn(ctx)
	}
	for attempt := 0; ; attempt++ {
		err := s.db.Update(func(txn *badger.Txn) error {
			return fn(context.WithValue(ctx, txKey{s}, txn))
		})
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		if attempt >= maxConflictRetries {
			return fmt.Errorf("%w: %w", apperrors.ErrTransientIO, err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
}

func (s *Store) view(ctx context.Context, fn func(*badger.Txn) error) error {
	if txn, ok := ctx.Value(txKey{s}).(*badger.Txn); ok {
		return fn(txn)
	}
	return s.db.View(fn)
}

func (s *Store) update(ctx context.Context, fn func(*badger.Txn) error) error {
	if txn, ok := ctx.Value(txKey{s}).(*badger.Txn); ok {
		return fn(txn)
	}
	return s.Within(ctx, func(ctx context.Context) error {
		return fn(ctx.Value(txKey{s}).(*badger.Txn))
	})
}

func (s *Store) Get(ctx context.Context, collection, key string) ([]byte, error) {
	var out []byte
	err := s.view(ctx, func(txn *badger.Txn) error {
		item, err := txn.Get(docKey(collection, key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("%s/%s: %w", collection, key, apperrors.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("%w: get %s/%s: %w", apperrors.ErrTransientIO, collection, key, err)
		}
		out, err = item.ValueCopy(nil)
		if err != nil {
			return fmt.Errorf("%w: read %s/%s: %w", apperrors.ErrTransientIO, collection, key, err)
		}
		return nil
	})
	return out, err
}

func (s *Store) Put(ctx context.Context, collection, key string, body []byte) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		if err := txn.Set(docKey(collection, key), body); err != nil {
			return fmt.Errorf("%w: put %s/%s: %w", apperrors.ErrTransientIO, collection, key, err)
		}
		return nil
	})
}

func (s *Store) Insert(ctx context.Context, collection, key string, body []byte) error {
	return s.update(ctx, func(txn *badger.Txn) error {
		k := docKey(collection, key)
		if exists, err := has(txn, k); err != nil {
			return fmt.Errorf("%w: insert %s/%s: %w", apperrors.ErrTransientIO, collection, key, err)
		} else if exists {
			return fmt.Errorf("%s/%s: %w", collection, key, apperrors.ErrAlreadyExists)
		}
		if err := txn.Set(k, body); err != nil {
			return fmt.Errorf("%w: insert %s/%s: %w", apperrors.ErrTransientIO, collection, key, err)
		}
		return nil
	})
}

func (s *Store) Append(ctx context.Context, collection string, rec docstore.Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record %s: %w", rec.ID, err)
	}
	return s.update(ctx, func(txn *badger.Txn) error {
		idKey := recordIDKey(collection, rec.ID)
		if exists, err := has(txn, idKey); err != nil {
			return fmt.Errorf("%w: append %s/%s: %w", apperrors.ErrTransientIO, collection, rec.ID, err)
		} else if exists {
			return fmt.Errorf("%s/%s: %w", collection, rec.ID, apperrors.ErrAlreadyExists)
		}
		key := recordKey(collection, rec)
		if err := txn.Set(key, payload); err != nil {
			return fmt.Errorf("%w: append %s/%s: %w", apperrors.ErrTransientIO, collection, rec.ID, err)
		}
		if err := txn.Set(idKey, key); err != nil {
			return fmt.Errorf("%w: index %s/%s: %w", apperrors.ErrTransientIO, collection, rec.ID, err)
		}
		return nil
	})
}

func (s *Store) Query(ctx context.Context, collection string, q docstore.Query) ([]docstore.Record, error) {
	prefixes := [][]byte{recordPrefix(collection, "")}
	if len(q.UserIDs) > 0 {
		prefixes = prefixes[:0]
		for _, userID := range q.UserIDs {
			prefixes = append(prefixes, recordPrefix(collection, userID))
		}
	}
	out := []docstore.Record{}
	err := s.view(ctx, func(txn *badger.Txn) error {
		for _, prefix := range prefixes {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = prefix
			it := txn.NewIterator(opts)
			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				rec := docstore.Record{}
				if err := it.Item().Value(func(v []byte) error {
					return json.Unmarshal(v, &rec)
				}); err != nil {
					it.Close()
					return fmt.Errorf("%w: read %s: %w", apperrors.ErrTransientIO, collection, err)
				}
				if q.Matches(rec) {
					out = append(out, rec)
				}
			}
			it.Close()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return q.Finish(out), nil
}

func has(txn *badger.Txn, key []byte) (bool, error) {
	_, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func docKey(collection, key string) []byte {
	return []byte("doc\x00" + collection + "\x00" + key)
}

func recordPrefix(collection, userID string) []byte {
	if userID == "" {
		return []byte("rec\x00" + collection + "\x00")
	}
	return []byte("rec\x00" + collection + "\x00" + userID + "\x00")
}

func recordKey(collection string, rec docstore.Record) []byte {
	return []byte(fmt.Sprintf("rec\x00%s\x00%s\x00%020d\x00%s", collection, rec.UserID, rec.CreatedAt.UnixNano(), rec.ID))
}

func recordIDKey(collection, id string) []byte {
	return []byte("rid\x00" + collection + "\x00" + id)
}
