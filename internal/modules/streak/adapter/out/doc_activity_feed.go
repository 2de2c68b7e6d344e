package out

import (
	"context"
	"encoding/json"
	"fmt"

	"studystreak/internal/modules/streak/domain"
	streakout "studystreak/internal/modules/streak/port/out"
	"studystreak/internal/platform/docstore"
)

const activitiesCollection = "activities"

const defaultFeedLimit = 50

type DocActivityFeed struct {
	store docstore.Store
}

func NewDocActivityFeed(store docstore.Store) streakout.ActivityFeed {
	return &DocActivityFeed{store: store}
}

func (f *DocActivityFeed) Emit(ctx context.Context, activity domain.Activity) error {
	rec, err := docstore.NewRecord(activity.ID, activity.UserID, activity.Date.String(), activity.CreatedAt, activity)
	if err != nil {
		return err
	}
	if err := f.store.Append(ctx, activitiesCollection, rec); err != nil {
		return fmt.Errorf("emit %s activity: %w", activity.Kind, err)
	}
	return nil
}

// Recent returns the newest activities of userIDs, newest first.
func (f *DocActivityFeed) Recent(ctx context.Context, userIDs []string, limit int) ([]domain.Activity, error) {
	if len(userIDs) == 0 {
		return []domain.Activity{}, nil
	}
	if limit <= 0 {
		limit = defaultFeedLimit
	}
	records, err := f.store.Query(ctx, activitiesCollection, docstore.Query{UserIDs: userIDs, Limit: limit, Newest: true})
	if err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}
	out := make([]domain.Activity, 0, len(records))
	for _, rec := range records {
		activity := domain.Activity{}
		if err := json.Unmarshal(rec.Body, &activity); err != nil {
			return nil, fmt.Errorf("decode activity %s: %w", rec.ID, err)
		}
		out = append(out, activity)
	}
	return out, nil
}
