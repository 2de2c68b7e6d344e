// Package docstore defines the document-store collaborator used by the
// study modules: one JSON document per key plus append-only record
// collections indexed by user and calendar day.
package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"studystreak/internal/platform/tx"
)

// Record is one immutable entry of an append-only collection.
type Record struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Date      string          `json:"date"`
	CreatedAt time.Time       `json:"created_at"`
	Body      json.RawMessage `json:"body"`
}

// Query selects records of a collection. Empty UserIDs matches every user and
// empty From/To leave the day range open. Days compare lexicographically.
type Query struct {
	UserIDs []string
	From    string
	To      string
	Limit   int
	Newest  bool
}

// Store is implemented by every backend. Operations join the transaction
// carried by ctx when called inside Within and run on their own otherwise.
//
// Get returns apperrors.ErrNotFound for a missing key. Insert and Append
// return apperrors.ErrAlreadyExists instead of overwriting. Backend failures
// wrap apperrors.ErrTransientIO.
type Store interface {
	tx.Manager
	Get(ctx context.Context, collection, key string) ([]byte, error)
	Put(ctx context.Context, collection, key string, body []byte) error
	Insert(ctx context.Context, collection, key string, body []byte) error
	Append(ctx context.Context, collection string, rec Record) error
	Query(ctx context.Context, collection string, q Query) ([]Record, error)
	Close() error
}

func (q Query) Matches(rec Record) bool {
	if q.From != "" && rec.Date < q.From {
		return false
	}
	if q.To != "" && rec.Date > q.To {
		return false
	}
	if len(q.UserIDs) == 0 {
		return true
	}
	for _, id := range q.UserIDs {
		if id == rec.UserID {
			return true
		}
	}
	return false
}

// Finish orders records by creation time (ties broken by id) and applies the limit.
func (q Query) Finish(records []Record) []Record {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if q.Newest {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.CreatedAt.Before(b.CreatedAt)
		}
		if q.Newest {
			return a.ID > b.ID
		}
		return a.ID < b.ID
	})
	if q.Limit > 0 && len(records) > q.Limit {
		records = records[:q.Limit]
	}
	return records
}

func GetJSON[T any](ctx context.Context, s Store, collection, key string) (T, error) {
	var out T
	raw, err := s.Get(ctx, collection, key)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode %s/%s: %w", collection, key, err)
	}
	return out, nil
}

func PutJSON(ctx context.Context, s Store, collection, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, key, err)
	}
	return s.Put(ctx, collection, key, raw)
}

func InsertJSON(ctx context.Context, s Store, collection, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, key, err)
	}
	return s.Insert(ctx, collection, key, raw)
}

// NewRecord wraps v as the body of a record.
func NewRecord(id, userID, date string, createdAt time.Time, v any) (Record, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return Record{}, fmt.Errorf("encode record %s: %w", id, err)
	}
	return Record{ID: id, UserID: userID, Date: date, CreatedAt: createdAt, Body: raw}, nil
}
