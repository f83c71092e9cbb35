package userclient

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"mock-exam/internal/exam"
)

const defaultSnapshotPath = ".exam-session.json"

// SnapshotStore keeps the in-flight exam session on disk so an attempt
// survives a restart of the client.
type SnapshotStore struct {
	path string
}

func NewSnapshotStore(path string) *SnapshotStore {
	if path == "" {
		path = defaultSnapshotPath
	}
	return &SnapshotStore{path: path}
}

func (s *SnapshotStore) Path() string {
	return s.path
}

// Load returns nil without error when no snapshot exists.
func (s *SnapshotStore) Load() (*exam.Session, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var session exam.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, err
	}
	if session.Answers == nil {
		session.Answers = make(map[string]int)
	}
	return &session, nil
}

// Save replaces the snapshot atomically.
func (s *SnapshotStore) Save(session *exam.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".exam-session-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func (s *SnapshotStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
