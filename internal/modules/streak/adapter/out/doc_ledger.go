package out

import (
	"context"
	"encoding/json"
	"fmt"

	"studystreak/internal/modules/streak/domain"
	streakout "studystreak/internal/modules/streak/port/out"
	"studystreak/internal/platform/calendar"
	"studystreak/internal/platform/docstore"
)

const sessionsCollection = "sessions"

type DocLedger struct {
	store docstore.Store
}

func NewDocLedger(store docstore.Store) streakout.Ledger {
	return &DocLedger{store: store}
}

func (l *DocLedger) Append(ctx context.Context, entry domain.SessionEntry) error {
	rec, err := docstore.NewRecord(entry.ID, entry.UserID, entry.Date.String(), entry.CreatedAt, entry)
	if err != nil {
		return err
	}
	if err := l.store.Append(ctx, sessionsCollection, rec); err != nil {
		return fmt.Errorf("append session %s: %w", entry.ID, err)
	}
	return nil
}

func (l *DocLedger) List(ctx context.Context, userID string, from, to calendar.Day) ([]domain.SessionEntry, error) {
	records, err := l.store.Query(ctx, sessionsCollection, docstore.Query{
		UserIDs: []string{userID},
		From:    from.String(),
		To:      to.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("list sessions for %s: %w", userID, err)
	}
	entries := make([]domain.SessionEntry, 0, len(records))
	for _, rec := range records {
		entry := domain.SessionEntry{}
		if err := json.Unmarshal(rec.Body, &entry); err != nil {
			return nil, fmt.Errorf("decode session %s: %w", rec.ID, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
