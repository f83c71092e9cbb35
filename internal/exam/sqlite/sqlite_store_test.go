package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mock-exam/internal/exam"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	store, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
		_ = os.Remove(path)
		_ = os.Remove(path + "-wal")
		_ = os.Remove(path + "-shm")
		_ = os.Remove(path + "-journal")
	})
	return store
}

func testQuestion(id string, category exam.Category, difficulty exam.Difficulty, createdAt time.Time) exam.Question {
	return exam.Question{
		ID:                 id,
		QuestionText:       "คำถาม " + id,
		Options:            []string{"ก", "ข", "ค", "ง"},
		CorrectAnswerIndex: 2,
		Explanation:        "Explanation for " + id,
		Category:           category,
		Difficulty:         difficulty,
		CreatedAt:          createdAt,
	}
}

func TestSQLiteStoreQuestionCRUD(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()
	now := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)

	question := testQuestion("q1", exam.CategoryThai, exam.DifficultyEasy, now)
	if err := store.CreateQuestion(ctx, question); err != nil {
		t.Fatalf("CreateQuestion failed: %v", err)
	}

	got, err := store.GetQuestion(ctx, "q1")
	if err != nil {
		t.Fatalf("GetQuestion failed: %v", err)
	}
	if got.QuestionText != question.QuestionText || len(got.Options) != 4 || got.Options[3] != "ง" {
		t.Fatalf("unexpected question: %+v", got)
	}
	if !got.CreatedAt.Equal(now) || got.Category != exam.CategoryThai || got.Difficulty != exam.DifficultyEasy {
		t.Fatalf("unexpected metadata: %+v", got)
	}

	got.Explanation = "updated"
	if err := store.UpdateQuestion(ctx, got); err != nil {
		t.Fatalf("UpdateQuestion failed: %v", err)
	}
	got, err = store.GetQuestion(ctx, "q1")
	if err != nil {
		t.Fatalf("GetQuestion failed: %v", err)
	}
	if got.Explanation != "updated" {
		t.Fatalf("expected updated explanation, got %q", got.Explanation)
	}

	if err := store.UpdateQuestion(ctx, testQuestion("missing", exam.CategoryThai, exam.DifficultyEasy, now)); !errors.Is(err, exam.ErrQuestionNotFound) {
		t.Fatalf("expected ErrQuestionNotFound, got %v", err)
	}

	deleted, err := store.DeleteQuestion(ctx, "q1")
	if err != nil || !deleted {
		t.Fatalf("expected delete to succeed, got %v %v", deleted, err)
	}
	deleted, err = store.DeleteQuestion(ctx, "q1")
	if err != nil || deleted {
		t.Fatalf("expected second delete to report false, got %v %v", deleted, err)
	}
	if _, err := store.GetQuestion(ctx, "q1"); !errors.Is(err, exam.ErrQuestionNotFound) {
		t.Fatalf("expected ErrQuestionNotFound, got %v", err)
	}
}

func TestSQLiteStoreListQuestionsFilters(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()
	base := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)

	for _, question := range []exam.Question{
		testQuestion("a", exam.CategoryThai, exam.DifficultyEasy, base),
		testQuestion("b", exam.CategoryThai, exam.DifficultyHard, base.Add(time.Minute)),
		testQuestion("c", exam.CategoryEnglish, exam.DifficultyEasy, base.Add(2*time.Minute)),
		testQuestion("d", exam.CategoryThai, exam.DifficultyEasy, base.Add(time.Minute)),
	} {
		if err := store.CreateQuestion(ctx, question); err != nil {
			t.Fatalf("CreateQuestion failed: %v", err)
		}
	}

	all, err := store.ListQuestions(ctx, exam.QuestionFilter{Category: "all", Difficulty: "all"})
	if err != nil {
		t.Fatalf("ListQuestions failed: %v", err)
	}
	wantOrder := []string{"c", "b", "d", "a"}
	if len(all) != len(wantOrder) {
		t.Fatalf("expected %d questions, got %d", len(wantOrder), len(all))
	}
	for idx, id := range wantOrder {
		if all[idx].ID != id {
			t.Fatalf("position %d: expected %s, got %s", idx, id, all[idx].ID)
		}
	}

	thai, err := store.ListQuestions(ctx, exam.QuestionFilter{Category: string(exam.CategoryThai), Difficulty: "easy"})
	if err != nil {
		t.Fatalf("ListQuestions failed: %v", err)
	}
	if len(thai) != 2 || thai[0].ID != "d" || thai[1].ID != "a" {
		t.Fatalf("unexpected Thai easy questions: %+v", thai)
	}

	searched, err := store.ListQuestions(ctx, exam.QuestionFilter{Search: "EXPLANATION FOR C"})
	if err != nil {
		t.Fatalf("ListQuestions failed: %v", err)
	}
	if len(searched) != 1 || searched[0].ID != "c" {
		t.Fatalf("unexpected search result: %+v", searched)
	}

	none, err := store.ListQuestions(ctx, exam.QuestionFilter{Difficulty: "impossible"})
	if err != nil {
		t.Fatalf("ListQuestions failed: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected unknown difficulty to match nothing, got %d", len(none))
	}

	byCategory, err := store.QuestionsByCategory(ctx, exam.CategoryThai)
	if err != nil {
		t.Fatalf("QuestionsByCategory failed: %v", err)
	}
	if len(byCategory) != 3 {
		t.Fatalf("expected 3 Thai questions, got %d", len(byCategory))
	}

	picked, err := store.GetQuestions(ctx, []string{"a", "zzz", "c"})
	if err != nil {
		t.Fatalf("GetQuestions failed: %v", err)
	}
	if len(picked) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(picked))
	}

	count, err := store.CountQuestions(ctx)
	if err != nil || count != 4 {
		t.Fatalf("expected 4 questions, got %d %v", count, err)
	}
}

func TestSQLiteStoreExamSets(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	set := exam.ExamSet{
		ID:                   "set-1",
		Name:                 "ชุดทดลอง",
		Description:          "สำหรับทดสอบ",
		CategoryDistribution: exam.Distribution{exam.CategoryThai: 10, exam.CategoryLaw: 5},
		IsActive:             true,
		CreatedAt:            time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := store.CreateExamSet(ctx, set); err != nil {
		t.Fatalf("CreateExamSet failed: %v", err)
	}

	got, err := store.GetExamSet(ctx, "set-1")
	if err != nil {
		t.Fatalf("GetExamSet failed: %v", err)
	}
	if got.CategoryDistribution[exam.CategoryThai] != 10 || got.CategoryDistribution.Total() != 15 || !got.IsActive {
		t.Fatalf("unexpected exam set: %+v", got)
	}

	byName, err := store.FindExamSetByName(ctx, "ชุดทดลอง")
	if err != nil || byName.ID != "set-1" {
		t.Fatalf("FindExamSetByName: %+v %v", byName, err)
	}

	got.IsActive = false
	if err := store.UpdateExamSet(ctx, got); err != nil {
		t.Fatalf("UpdateExamSet failed: %v", err)
	}
	sets, err := store.ListExamSets(ctx)
	if err != nil {
		t.Fatalf("ListExamSets failed: %v", err)
	}
	if len(sets) != 1 || sets[0].IsActive {
		t.Fatalf("unexpected exam sets: %+v", sets)
	}

	deleted, err := store.DeleteExamSet(ctx, "set-1")
	if err != nil || !deleted {
		t.Fatalf("DeleteExamSet: %v %v", deleted, err)
	}
	if _, err := store.GetExamSet(ctx, "set-1"); !errors.Is(err, exam.ErrExamSetNotFound) {
		t.Fatalf("expected ErrExamSetNotFound, got %v", err)
	}
}

func TestSQLiteStoreScoresNewestFirst(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	for idx, id := range []string{"s1", "s2", "s3"} {
		score := exam.Score{
			ID:                id,
			TotalScore:        50,
			TotalQuestions:    2,
			CorrectAnswers:    1,
			DateTaken:         base.Add(time.Duration(idx) * time.Hour),
			TimeSpent:         120,
			ExamType:          exam.ExamTypeFull,
			AnswersGiven:      map[string]int{"q1": 0},
			CategoryBreakdown: map[string]exam.CategoryResult{string(exam.CategoryThai): {Correct: 1, Total: 2}},
			QuestionIDs:       []string{"q1", "q2"},
		}
		if err := store.CreateScore(ctx, score); err != nil {
			t.Fatalf("CreateScore failed: %v", err)
		}
	}

	scores, err := store.ListScores(ctx, 0)
	if err != nil {
		t.Fatalf("ListScores failed: %v", err)
	}
	if len(scores) != 3 || scores[0].ID != "s3" || scores[2].ID != "s1" {
		t.Fatalf("unexpected order: %+v", scores)
	}
	if scores[0].CategoryBreakdown[string(exam.CategoryThai)].Total != 2 || scores[0].AnswersGiven["q1"] != 0 || len(scores[0].QuestionIDs) != 2 {
		t.Fatalf("unexpected decoded score: %+v", scores[0])
	}

	limited, err := store.ListScores(ctx, 2)
	if err != nil {
		t.Fatalf("ListScores failed: %v", err)
	}
	if len(limited) != 2 || limited[0].ID != "s3" {
		t.Fatalf("unexpected limited list: %+v", limited)
	}
}

func TestSQLiteStoreBacksService(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()
	service := exam.NewService(store, exam.NewCatalog(), exam.WithShuffler(exam.NewShuffler(5)))

	if err := service.SeedDefaults(ctx, true); err != nil {
		t.Fatalf("SeedDefaults failed: %v", err)
	}
	if err := service.SeedDefaults(ctx, true); err != nil {
		t.Fatalf("SeedDefaults failed: %v", err)
	}

	sets, err := service.ListExamSets(ctx)
	if err != nil || len(sets) != 1 {
		t.Fatalf("expected one seeded exam set, got %d %v", len(sets), err)
	}

	generated, err := service.GenerateExam(ctx, exam.ExamRequest{ExamSetID: sets[0].ID})
	if err != nil {
		t.Fatalf("GenerateExam failed: %v", err)
	}
	if len(generated.Questions) != 5 {
		t.Fatalf("expected all 5 sample questions, got %d", len(generated.Questions))
	}
}
