package exam

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrQuestionNotFound     = errors.New("question not found")
	ErrExamSetNotFound      = errors.New("exam set not found")
	ErrExamSetInactive      = errors.New("exam set is not active")
	ErrDistributionTooLarge = errors.New("distribution exceeds the maximum exam size")
	ErrEmptyDistribution    = errors.New("distribution requests no questions")
	ErrInvalidCredentials   = errors.New("invalid credentials")
)

// ValidationError reports a malformed request field. It never carries a
// partial state change.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func newValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a validation failure.
func IsValidation(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr) ||
		errors.Is(err, ErrDistributionTooLarge) ||
		errors.Is(err, ErrEmptyDistribution)
}

type QuestionFilter struct {
	Category   string
	Difficulty string
	Search     string
}

type QuestionRepository interface {
	ListQuestions(ctx context.Context, filter QuestionFilter) ([]Question, error)
	GetQuestion(ctx context.Context, id string) (Question, error)
	GetQuestions(ctx context.Context, ids []string) ([]Question, error)
	CreateQuestion(ctx context.Context, question Question) error
	UpdateQuestion(ctx context.Context, question Question) error
	DeleteQuestion(ctx context.Context, id string) (bool, error)
	CountQuestions(ctx context.Context) (int, error)
	// QuestionsByCategory returns every question of one category in storage order.
	QuestionsByCategory(ctx context.Context, category Category) ([]Question, error)
}

type ExamSetRepository interface {
	ListExamSets(ctx context.Context) ([]ExamSet, error)
	GetExamSet(ctx context.Context, id string) (ExamSet, error)
	FindExamSetByName(ctx context.Context, name string) (ExamSet, error)
	CreateExamSet(ctx context.Context, set ExamSet) error
	UpdateExamSet(ctx context.Context, set ExamSet) error
	DeleteExamSet(ctx context.Context, id string) (bool, error)
}

type ScoreRepository interface {
	CreateScore(ctx context.Context, score Score) error
	// ListScores returns scores newest first; limit <= 0 means all.
	ListScores(ctx context.Context, limit int) ([]Score, error)
}

// Store is the full persistence surface the service needs.
type Store interface {
	QuestionRepository
	ExamSetRepository
	ScoreRepository
}
