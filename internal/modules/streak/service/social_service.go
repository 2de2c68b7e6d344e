package service

import (
	"context"
	"fmt"

	"studystreak/internal/modules/streak/domain"
	apperrors "studystreak/internal/platform/errors"
)

type SocialService struct {
	deps Deps
}

func NewSocialService(deps Deps) *SocialService {
	return &SocialService{deps: deps.withDefaults()}
}

// Follow links follower to followee on both aggregates in one transaction.
// It reports whether anything changed; following twice is a no-op.
func (s *SocialService) Follow(ctx context.Context, followerID, followeeID string) (bool, error) {
	if err := checkPair(followerID, followeeID); err != nil {
		return false, err
	}
	changed := false
	err := s.deps.Tx.Within(ctx, func(txCtx context.Context) error {
		follower, followee, err := s.loadPair(txCtx, followerID, followeeID)
		if err != nil {
			return err
		}
		a := follower.AddFollowing(followeeID)
		b := followee.AddFollower(followerID)
		changed = a || b
		if !changed {
			return nil
		}
		return s.savePair(txCtx, follower, followee)
	})
	if err != nil {
		return false, err
	}
	if changed {
		emitActivity(ctx, s.deps, domain.Activity{
			UserID:       followerID,
			Kind:         domain.ActivityFollowed,
			TargetUserID: followeeID,
		})
	}
	return changed, nil
}

func (s *SocialService) Unfollow(ctx context.Context, followerID, followeeID string) (bool, error) {
	if err := checkPair(followerID, followeeID); err != nil {
		return false, err
	}
	changed := false
	err := s.deps.Tx.Within(ctx, func(txCtx context.Context) error {
		follower, followee, err := s.loadPair(txCtx, followerID, followeeID)
		if err != nil {
			return err
		}
		a := follower.RemoveFollowing(followeeID)
		b := followee.RemoveFollower(followerID)
		changed = a || b
		if !changed {
			return nil
		}
		return s.savePair(txCtx, follower, followee)
	})
	return changed, err
}

// Feed lists recent activity of userID and everyone they follow, newest first.
func (s *SocialService) Feed(ctx context.Context, userID string, limit int) ([]domain.Activity, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: limit must be non-negative", apperrors.ErrInvalidInput)
	}
	user, err := s.deps.Users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s.deps.Feed == nil {
		return []domain.Activity{}, nil
	}
	ids := append([]string{userID}, user.Following...)
	return s.deps.Feed.Recent(ctx, ids, limit)
}

func checkPair(followerID, followeeID string) error {
	if followerID == "" || followeeID == "" {
		return fmt.Errorf("%w: both user ids are required", apperrors.ErrInvalidInput)
	}
	if followerID == followeeID {
		return fmt.Errorf("%w: users cannot follow themselves", apperrors.ErrInvalidInput)
	}
	return nil
}

func (s *SocialService) loadPair(ctx context.Context, followerID, followeeID string) (domain.UserAggregate, domain.UserAggregate, error) {
	follower, err := s.deps.Users.Get(ctx, followerID)
	if err != nil {
		return domain.UserAggregate{}, domain.UserAggregate{}, err
	}
	followee, err := s.deps.Users.Get(ctx, followeeID)
	if err != nil {
		return domain.UserAggregate{}, domain.UserAggregate{}, err
	}
	return follower, followee, nil
}

func (s *SocialService) savePair(ctx context.Context, follower, followee domain.UserAggregate) error {
	now := s.deps.Calendar.Now()
	follower.UpdatedAt = now
	followee.UpdatedAt = now
	if err := s.deps.Users.Save(ctx, follower); err != nil {
		return err
	}
	return s.deps.Users.Save(ctx, followee)
}
