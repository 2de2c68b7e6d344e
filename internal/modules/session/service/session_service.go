package service

import (
	"context"
	"fmt"
	"time"

	"studystreak/internal/modules/session/domain"
	"studystreak/internal/platform/clock"
	apperrors "studystreak/internal/platform/errors"
	"studystreak/internal/platform/id"
)

type SessionService struct {
	clock clock.Clock
	idGen id.Generator
}

func NewSessionService(clock clock.Clock, idGen id.Generator) *SessionService {
	return &SessionService{clock: clock, idGen: idGen}
}

func (s *SessionService) Start(_ context.Context, userID, subjectID, chapterID string, plannedSeconds int) (domain.ActiveSession, error) {
	if userID == "" {
		return domain.ActiveSession{}, fmt.Errorf("%w: user id is required", apperrors.ErrInvalidInput)
	}
	return domain.ActiveSession{
		SchemaVersion:  domain.SchemaVersion,
		SessionID:      s.idGen.New(),
		UserID:         userID,
		SubjectID:      subjectID,
		ChapterID:      chapterID,
		PlannedSeconds: plannedSeconds,
		StartedAt:      s.clock.Now(),
	}, nil
}

// Elapsed measures a running session against the service clock.
func (s *SessionService) Elapsed(active domain.ActiveSession) int {
	return active.ElapsedSeconds(s.clock.Now())
}

func (s *SessionService) Snapshot(active domain.ActiveSession) (int, time.Duration) {
	now := s.clock.Now()
	return active.ElapsedSeconds(now), active.Remaining(now)
}
