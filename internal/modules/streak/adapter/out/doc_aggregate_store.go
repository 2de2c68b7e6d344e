package out

import (
	"context"
	"fmt"

	"studystreak/internal/modules/streak/domain"
	streakout "studystreak/internal/modules/streak/port/out"
	"studystreak/internal/platform/docstore"
)

const usersCollection = "users"

type DocAggregateStore struct {
	store docstore.Store
}

func NewDocAggregateStore(store docstore.Store) streakout.AggregateStore {
	return &DocAggregateStore{store: store}
}

func (s *DocAggregateStore) Create(ctx context.Context, user domain.UserAggregate) error {
	if err := docstore.InsertJSON(ctx, s.store, usersCollection, user.UserID, user); err != nil {
		return fmt.Errorf("create user %s: %w", user.UserID, err)
	}
	return nil
}

func (s *DocAggregateStore) Get(ctx context.Context, userID string) (domain.UserAggregate, error) {
	user, err := docstore.GetJSON[domain.UserAggregate](ctx, s.store, usersCollection, userID)
	if err != nil {
		return domain.UserAggregate{}, fmt.Errorf("load user %s: %w", userID, err)
	}
	if user.CharacterXP == nil {
		user.CharacterXP = domain.XPMap{}
	}
	if user.SchemaVersion == 0 {
		user.SchemaVersion = domain.SchemaVersion
	}
	return user, nil
}

func (s *DocAggregateStore) Save(ctx context.Context, user domain.UserAggregate) error {
	if err := docstore.PutJSON(ctx, s.store, usersCollection, user.UserID, user); err != nil {
		return fmt.Errorf("save user %s: %w", user.UserID, err)
	}
	return nil
}
