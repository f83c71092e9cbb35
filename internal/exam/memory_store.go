package exam

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryStore keeps everything in process memory. It backs the offline
// practice runner and the service tests; the HTTP service uses SQLite.
type MemoryStore struct {
	mu        sync.RWMutex
	questions map[string]Question
	examSets  map[string]ExamSet
	scores    map[string]Score
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		questions: make(map[string]Question),
		examSets:  make(map[string]ExamSet),
		scores:    make(map[string]Score),
	}
}

func (m *MemoryStore) ListQuestions(_ context.Context, filter QuestionFilter) ([]Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Question, 0, len(m.questions))
	for _, question := range m.questions {
		if filter.Matches(question) {
			out = append(out, cloneQuestion(question))
		}
	}
	SortNewestFirst(out)
	return out, nil
}

func (m *MemoryStore) GetQuestion(_ context.Context, id string) (Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	question, ok := m.questions[id]
	if !ok {
		return Question{}, ErrQuestionNotFound
	}
	return cloneQuestion(question), nil
}

func (m *MemoryStore) GetQuestions(_ context.Context, ids []string) ([]Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Question, 0, len(ids))
	for _, id := range ids {
		if question, ok := m.questions[id]; ok {
			out = append(out, cloneQuestion(question))
		}
	}
	return out, nil
}

func (m *MemoryStore) CreateQuestion(_ context.Context, question Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.questions[question.ID] = cloneQuestion(question)
	return nil
}

func (m *MemoryStore) UpdateQuestion(_ context.Context, question Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.questions[question.ID]; !ok {
		return ErrQuestionNotFound
	}
	m.questions[question.ID] = cloneQuestion(question)
	return nil
}

func (m *MemoryStore) DeleteQuestion(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.questions[id]; !ok {
		return false, nil
	}
	delete(m.questions, id)
	return true, nil
}

func (m *MemoryStore) CountQuestions(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.questions), nil
}

func (m *MemoryStore) QuestionsByCategory(_ context.Context, category Category) ([]Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Question, 0)
	for _, question := range m.questions {
		if question.Category == category {
			out = append(out, cloneQuestion(question))
		}
	}
	// Map iteration is random; sort so a seeded shuffle is reproducible.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemoryStore) ListExamSets(_ context.Context) ([]ExamSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]ExamSet, 0, len(m.examSets))
	for _, set := range m.examSets {
		out = append(out, cloneExamSet(set))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryStore) GetExamSet(_ context.Context, id string) (ExamSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	set, ok := m.examSets[id]
	if !ok {
		return ExamSet{}, ErrExamSetNotFound
	}
	return cloneExamSet(set), nil
}

func (m *MemoryStore) FindExamSetByName(_ context.Context, name string) (ExamSet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, set := range m.examSets {
		if strings.EqualFold(set.Name, name) {
			return cloneExamSet(set), nil
		}
	}
	return ExamSet{}, ErrExamSetNotFound
}

func (m *MemoryStore) CreateExamSet(_ context.Context, set ExamSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.examSets[set.ID] = cloneExamSet(set)
	return nil
}

func (m *MemoryStore) UpdateExamSet(_ context.Context, set ExamSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.examSets[set.ID]; !ok {
		return ErrExamSetNotFound
	}
	m.examSets[set.ID] = cloneExamSet(set)
	return nil
}

func (m *MemoryStore) DeleteExamSet(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.examSets[id]; !ok {
		return false, nil
	}
	delete(m.examSets, id)
	return true, nil
}

func (m *MemoryStore) CreateScore(_ context.Context, score Score) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.scores[score.ID] = score
	return nil
}

func (m *MemoryStore) ListScores(_ context.Context, limit int) ([]Score, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Score, 0, len(m.scores))
	for _, score := range m.scores {
		out = append(out, score)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DateTaken.Equal(out[j].DateTaken) {
			return out[i].DateTaken.After(out[j].DateTaken)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func cloneQuestion(question Question) Question {
	question.Options = append([]string(nil), question.Options...)
	return question
}

func cloneExamSet(set ExamSet) ExamSet {
	dist := make(Distribution, len(set.CategoryDistribution))
	for category, count := range set.CategoryDistribution {
		dist[category] = count
	}
	set.CategoryDistribution = dist
	return set
}
