package userclient

import (
	"path/filepath"
	"testing"
	"time"

	"mock-exam/internal/exam"
)

func TestSnapshotStoreSaveLoadClear(t *testing.T) {
	store := NewSnapshotStore(filepath.Join(t.TempDir(), "nested", "session.json"))

	loaded, err := store.Load()
	if err != nil || loaded != nil {
		t.Fatalf("expected no snapshot, got %+v %v", loaded, err)
	}

	session := exam.NewSession(exam.ExamTypeFull, "", []exam.Question{{ID: "q1", Options: []string{"a", "b", "c", "d"}}}, time.Hour)
	if err := session.Start(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	session.ToggleBookmark("q1")
	if err := store.Save(session); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err = store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Status != exam.SessionInProgress || !loaded.IsBookmarked("q1") || loaded.DurationSeconds != 3600 {
		t.Fatalf("unexpected snapshot: %+v", loaded)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("second Clear failed: %v", err)
	}
	if loaded, _ := store.Load(); loaded != nil {
		t.Fatalf("expected snapshot to be gone")
	}
}
