package out

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"studystreak/internal/modules/session/domain"
	sessionout "studystreak/internal/modules/session/port/out"
	apperrors "studystreak/internal/platform/errors"
)

// FileActiveSessionStore keeps one JSON file per user so a timer survives
// process restarts between "session start" and "session stop".
type FileActiveSessionStore struct {
	dir string
}

func NewFileActiveSessionStore(dataDir string) sessionout.ActiveSessionStore {
	return &FileActiveSessionStore{dir: filepath.Join(dataDir, ".studystreak", "active")}
}

func (s *FileActiveSessionStore) path(userID string) string {
	return filepath.Join(s.dir, url.PathEscape(userID)+".json")
}

func (s *FileActiveSessionStore) SaveActive(_ context.Context, session domain.ActiveSession) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create active session dir: %w", err)
	}
	session.SchemaVersion = domain.SchemaVersion
	payload, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal active session: %w", err)
	}
	tmp := s.path(session.UserID) + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("write active session: %w", err)
	}
	if err := os.Rename(tmp, s.path(session.UserID)); err != nil {
		return fmt.Errorf("commit active session: %w", err)
	}
	return nil
}

func (s *FileActiveSessionStore) LoadActive(_ context.Context, userID string) (domain.ActiveSession, error) {
	payload, err := os.ReadFile(s.path(userID))
	if err != nil {
		if os.IsNotExist(err) {
			return domain.ActiveSession{}, apperrors.ErrNoActiveSession
		}
		return domain.ActiveSession{}, fmt.Errorf("read active session: %w", err)
	}
	active := domain.ActiveSession{}
	if err := json.Unmarshal(payload, &active); err != nil {
		return domain.ActiveSession{}, fmt.Errorf("decode active session: %w", err)
	}
	if active.SessionID == "" {
		return domain.ActiveSession{}, apperrors.ErrNoActiveSession
	}
	return active, nil
}

func (s *FileActiveSessionStore) ClearActive(_ context.Context, userID string) error {
	if err := os.Remove(s.path(userID)); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("clear active session: %w", err)
	}
	return nil
}
