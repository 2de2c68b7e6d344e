package in

import (
	"context"

	sessiondto "studystreak/internal/modules/session/dto"
	sessionin "studystreak/internal/modules/session/port/in"
)

type CLIHandler struct {
	usecase sessionin.Usecase
}

func NewCLIHandler(usecase sessionin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Start(ctx context.Context, userID, subjectID, chapterID string, plannedSeconds int) (sessiondto.StartOutput, error) {
	return h.usecase.Start(ctx, sessiondto.StartInput{UserID: userID, SubjectID: subjectID, ChapterID: chapterID, PlannedSeconds: plannedSeconds})
}

func (h CLIHandler) End(ctx context.Context, userID, sessionID string) (sessiondto.EndOutput, error) {
	return h.usecase.End(ctx, sessiondto.EndInput{UserID: userID, SessionID: sessionID})
}

func (h CLIHandler) Cancel(ctx context.Context, userID string) error {
	return h.usecase.Cancel(ctx, userID)
}

func (h CLIHandler) GetActive(ctx context.Context, userID string) (sessiondto.ActiveSessionOutput, error) {
	return h.usecase.GetActive(ctx, userID)
}
