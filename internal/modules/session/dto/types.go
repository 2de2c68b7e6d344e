package dto

import (
	"time"

	streakdto "studystreak/internal/modules/streak/dto"
)

type StartInput struct {
	UserID         string `validate:"required,max=128,excludesall=/"`
	SubjectID      string `validate:"omitempty,max=128"`
	ChapterID      string `validate:"omitempty,max=128"`
	PlannedSeconds int    `validate:"gte=0,lte=86400"`
}

type StartOutput struct {
	SessionID      string
	UserID         string
	StartedAt      time.Time
	PlannedSeconds int
}

type EndInput struct {
	UserID    string `validate:"required,max=128,excludesall=/"`
	SessionID string
}

type EndOutput struct {
	SessionID       string
	DurationSeconds int
	Result          streakdto.CompleteSessionOutput
}

type ActiveSessionOutput struct {
	SessionID      string
	UserID         string
	SubjectID      string
	ChapterID      string
	StartedAt      time.Time
	PlannedSeconds int
	ElapsedSeconds int
	Remaining      time.Duration
}
