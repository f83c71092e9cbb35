package exam

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Routing keys of the domain events published by the service.
const (
	EventQuestionCreated   = "question.created"
	EventQuestionUpdated   = "question.updated"
	EventQuestionDeleted   = "question.deleted"
	EventQuestionsImported = "questions.imported"
	EventExamSetChanged    = "examset.changed"
	EventExamGenerated     = "exam.generated"
	EventScoreSubmitted    = "score.submitted"
)

type Stats struct {
	TotalQuestions int `json:"totalQuestions"`
	TotalExams     int `json:"totalExams"`
	AverageScore   int `json:"averageScore"`
	AverageTime    int `json:"averageTime"`
}

// StatsCache holds the last computed admin stats.
type StatsCache interface {
	GetStats(ctx context.Context) (Stats, bool, error)
	SetStats(ctx context.Context, stats Stats) error
	InvalidateStats(ctx context.Context) error
}

// Publisher fans domain events out to other systems. Delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// Authenticator checks admin credentials and returns a bearer token.
type Authenticator interface {
	Login(username, password string) (string, error)
}

type Service struct {
	store     Store
	catalog   *Catalog
	generator *Generator
	shuffler  *Shuffler
	stats     StatsCache
	events    Publisher
	auth      Authenticator
	now       func() time.Time

	// writes counts afterWrite calls; Stats only caches figures computed
	// while it did not move.
	writes atomic.Uint64
}

type Option func(*Service)

func WithStatsCache(cache StatsCache) Option {
	return func(s *Service) {
		if cache != nil {
			s.stats = cache
		}
	}
}

func WithPublisher(publisher Publisher) Option {
	return func(s *Service) {
		if publisher != nil {
			s.events = publisher
		}
	}
}

func WithAuthenticator(auth Authenticator) Option {
	return func(s *Service) { s.auth = auth }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithShuffler fixes the generator's random source; tests pass a seeded one.
func WithShuffler(shuffler *Shuffler) Option {
	return func(s *Service) { s.shuffler = shuffler }
}

func NewService(store Store, catalog *Catalog, opts ...Option) *Service {
	if catalog == nil {
		catalog = NewCatalog()
	}
	s := &Service{
		store:   store,
		catalog: catalog,
		stats:   nopStatsCache{},
		events:  nopPublisher{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.generator = NewGenerator(store, store, catalog, s.shuffler)
	return s
}

func (s *Service) Catalog() *Catalog {
	return s.catalog
}

// SeedDefaults creates the standard exam set when missing and, if asked,
// loads the sample questions into an empty bank. It is safe to call on
// every start.
func (s *Service) SeedDefaults(ctx context.Context, withSamples bool) error {
	_, err := s.store.FindExamSetByName(ctx, StandardExamSetName)
	switch {
	case errors.Is(err, ErrExamSetNotFound):
		set := standardExamSet()
		set.ID = uuid.NewString()
		set.CreatedAt = s.now().UTC()
		if err := s.store.CreateExamSet(ctx, set); err != nil {
			return fmt.Errorf("seed standard exam set: %w", err)
		}
		log.Printf("seeded exam set %q", set.Name)
	case err != nil:
		return fmt.Errorf("look up standard exam set: %w", err)
	}

	if !withSamples {
		return nil
	}
	count, err := s.store.CountQuestions(ctx)
	if err != nil {
		return fmt.Errorf("count questions: %w", err)
	}
	if count > 0 {
		return nil
	}
	for _, input := range sampleQuestions() {
		if _, err := s.CreateQuestion(ctx, input); err != nil {
			return fmt.Errorf("seed sample question: %w", err)
		}
	}
	log.Printf("seeded %d sample questions", len(sampleQuestions()))
	return nil
}

func (s *Service) ListQuestions(ctx context.Context, filter QuestionFilter) ([]Question, error) {
	return s.store.ListQuestions(ctx, filter)
}

func (s *Service) GetQuestion(ctx context.Context, id string) (Question, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Question{}, ErrQuestionNotFound
	}
	return s.store.GetQuestion(ctx, id)
}

func (s *Service) CreateQuestion(ctx context.Context, input QuestionInput) (Question, error) {
	question, err := BuildQuestion(input, s.catalog)
	if err != nil {
		return Question{}, err
	}
	question.ID = NewQuestionID()
	question.CreatedAt = s.now().UTC()

	if err := s.store.CreateQuestion(ctx, question); err != nil {
		return Question{}, err
	}
	s.afterWrite(ctx, EventQuestionCreated, question)
	return question, nil
}

func (s *Service) UpdateQuestion(ctx context.Context, id string, patch QuestionPatch) (Question, error) {
	existing, err := s.GetQuestion(ctx, id)
	if err != nil {
		return Question{}, err
	}
	merged, err := existing.Apply(patch, s.catalog)
	if err != nil {
		return Question{}, err
	}
	if err := s.store.UpdateQuestion(ctx, merged); err != nil {
		return Question{}, err
	}
	s.afterWrite(ctx, EventQuestionUpdated, merged)
	return merged, nil
}

func (s *Service) DeleteQuestion(ctx context.Context, id string) error {
	existed, err := s.store.DeleteQuestion(ctx, strings.TrimSpace(id))
	if err != nil {
		return err
	}
	if !existed {
		return ErrQuestionNotFound
	}
	s.afterWrite(ctx, EventQuestionDeleted, map[string]string{"id": id})
	return nil
}

func (s *Service) ListExamSets(ctx context.Context) ([]ExamSet, error) {
	return s.store.ListExamSets(ctx)
}

func (s *Service) GetExamSet(ctx context.Context, id string) (ExamSet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return ExamSet{}, ErrExamSetNotFound
	}
	return s.store.GetExamSet(ctx, id)
}

func (s *Service) CreateExamSet(ctx context.Context, input ExamSetInput) (ExamSet, error) {
	set, err := BuildExamSet(input, s.catalog)
	if err != nil {
		return ExamSet{}, err
	}
	set.ID = uuid.NewString()
	set.CreatedAt = s.now().UTC()

	if err := s.store.CreateExamSet(ctx, set); err != nil {
		return ExamSet{}, err
	}
	s.publish(ctx, EventExamSetChanged, set)
	return set, nil
}

func (s *Service) UpdateExamSet(ctx context.Context, id string, patch ExamSetPatch) (ExamSet, error) {
	existing, err := s.GetExamSet(ctx, id)
	if err != nil {
		return ExamSet{}, err
	}
	merged, err := existing.Apply(patch, s.catalog)
	if err != nil {
		return ExamSet{}, err
	}
	if err := s.store.UpdateExamSet(ctx, merged); err != nil {
		return ExamSet{}, err
	}
	s.publish(ctx, EventExamSetChanged, merged)
	return merged, nil
}

func (s *Service) DeleteExamSet(ctx context.Context, id string) error {
	existed, err := s.store.DeleteExamSet(ctx, strings.TrimSpace(id))
	if err != nil {
		return err
	}
	if !existed {
		return ErrExamSetNotFound
	}
	s.publish(ctx, EventExamSetChanged, map[string]string{"id": id, "action": "deleted"})
	return nil
}

func (s *Service) GenerateExam(ctx context.Context, request ExamRequest) (GeneratedExam, error) {
	generated, err := s.generator.Generate(ctx, request)
	if err != nil {
		return GeneratedExam{}, err
	}
	for _, warning := range generated.Warnings {
		log.Printf("mock exam under-filled: %s", warning)
	}
	s.publish(ctx, EventExamGenerated, map[string]any{
		"examSetId":    generated.ExamSetID,
		"distribution": generated.Distribution.ToWire(),
		"questions":    len(generated.Questions),
	})
	return generated, nil
}

// SubmitScore records a finished attempt. When the submission lists its
// questions the result is scored here from the stored answer keys; otherwise
// the client tallies are validated and only the percentage is recomputed.
func (s *Service) SubmitScore(ctx context.Context, submission ScoreSubmission) (Score, error) {
	if err := submission.validate(); err != nil {
		return Score{}, err
	}
	for id, option := range submission.AnswersGiven {
		if option < 0 || option >= OptionCount {
			return Score{}, newValidationError("answersGiven", "answer for %q must be between 0 and %d", id, OptionCount-1)
		}
	}

	examSetID := strings.TrimSpace(submission.ExamSetID)
	if examSetID != "" {
		if _, err := s.store.GetExamSet(ctx, examSetID); err != nil {
			return Score{}, err
		}
	}

	score := Score{
		ID:           uuid.NewString(),
		DateTaken:    s.now().UTC(),
		TimeSpent:    submission.TimeSpent,
		ExamType:     strings.TrimSpace(submission.ExamType),
		ExamSetID:    examSetID,
		AnswersGiven: copyAnswers(submission.AnswersGiven),
	}

	if len(submission.QuestionIDs) > 0 {
		if len(submission.QuestionIDs) > MaxExamQuestions {
			return Score{}, newValidationError("questionIds", "at most %d questions per exam", MaxExamQuestions)
		}
		questions, err := s.loadExamQuestions(ctx, submission.QuestionIDs)
		if err != nil {
			return Score{}, err
		}
		result := Calculate(questions, submission.AnswersGiven)
		score.TotalScore = result.TotalScore
		score.TotalQuestions = result.TotalQuestions
		score.CorrectAnswers = result.CorrectAnswers
		score.CategoryBreakdown = result.CategoryBreakdown
		score.QuestionIDs = make([]string, 0, len(questions))
		for _, question := range questions {
			score.QuestionIDs = append(score.QuestionIDs, question.ID)
		}
	} else {
		score.TotalQuestions = submission.TotalQuestions
		score.CorrectAnswers = submission.CorrectAnswers
		score.TotalScore = Percentage(submission.CorrectAnswers, submission.TotalQuestions)
		score.CategoryBreakdown = submission.CategoryBreakdown
		if score.CategoryBreakdown == nil {
			score.CategoryBreakdown = make(map[string]CategoryResult)
		}
	}

	if err := s.store.CreateScore(ctx, score); err != nil {
		return Score{}, err
	}
	s.afterWrite(ctx, EventScoreSubmitted, score)
	return score, nil
}

// loadExamQuestions returns the questions in submission order. Ids deleted
// since the exam was generated are dropped.
func (s *Service) loadExamQuestions(ctx context.Context, ids []string) ([]Question, error) {
	seen := make(map[string]struct{}, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	found, err := s.store.GetQuestions(ctx, unique)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]Question, len(found))
	for _, question := range found {
		byID[question.ID] = question
	}

	questions := make([]Question, 0, len(unique))
	var missing []string
	for _, id := range unique {
		question, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		questions = append(questions, question)
	}
	if len(missing) > 0 {
		log.Printf("score submission: dropped %d unknown question ids: %s", len(missing), strings.Join(missing, ","))
	}
	return questions, nil
}

func (s *Service) ListScores(ctx context.Context, limit int) ([]Score, error) {
	return s.store.ListScores(ctx, limit)
}

func (s *Service) ExportScores(ctx context.Context, w io.Writer) error {
	scores, err := s.store.ListScores(ctx, 0)
	if err != nil {
		return err
	}
	return WriteScoresCSV(w, scores)
}

// ImportQuestions stores every valid CSV row. One bad row never aborts the
// rest; it is only counted.
func (s *Service) ImportQuestions(ctx context.Context, r io.Reader) (ImportResult, error) {
	questions, rowErrors, err := ParseQuestionsCSV(r, s.catalog)
	if err != nil {
		return ImportResult{}, fmt.Errorf("read csv: %w", err)
	}

	result := ImportResult{Errors: len(rowErrors)}
	for _, rowErr := range rowErrors {
		log.Printf("csv import: skipped %v", rowErr)
	}

	now := s.now().UTC()
	for _, question := range questions {
		question.ID = NewQuestionID()
		question.CreatedAt = now
		if err := s.store.CreateQuestion(ctx, question); err != nil {
			log.Printf("csv import: create question failed: %v", err)
			result.Errors++
			continue
		}
		result.Success++
	}

	if result.Success > 0 {
		s.afterWrite(ctx, EventQuestionsImported, result)
	}
	return result, nil
}

// Stats serves the admin dashboard figures, from cache when possible.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	if cached, ok, err := s.stats.GetStats(ctx); err != nil {
		log.Printf("stats cache read failed: %v", err)
	} else if ok {
		return cached, nil
	}

	generation := s.writes.Load()
	totalQuestions, err := s.store.CountQuestions(ctx)
	if err != nil {
		return Stats{}, err
	}
	scores, err := s.store.ListScores(ctx, 0)
	if err != nil {
		return Stats{}, err
	}

	stats := computeStats(totalQuestions, scores)
	if s.writes.Load() != generation {
		return stats, nil
	}
	if err := s.stats.SetStats(ctx, stats); err != nil {
		log.Printf("stats cache write failed: %v", err)
	}
	return stats, nil
}

func computeStats(totalQuestions int, scores []Score) Stats {
	stats := Stats{TotalQuestions: totalQuestions, TotalExams: len(scores)}
	if len(scores) == 0 {
		return stats
	}

	var ratioSum float64
	var ratioCount int
	var timeSum int
	for _, score := range scores {
		timeSum += score.TimeSpent
		if score.TotalQuestions > 0 {
			ratioSum += float64(score.CorrectAnswers) / float64(score.TotalQuestions)
			ratioCount++
		}
	}
	if ratioCount > 0 {
		stats.AverageScore = int(math.Round(ratioSum / float64(ratioCount) * 100))
	}
	stats.AverageTime = int(math.Round(float64(timeSum) / float64(len(scores))))
	return stats
}

// Login exchanges admin credentials for a token. Without an authenticator
// every attempt is rejected.
func (s *Service) Login(username, password string) (string, error) {
	if s.auth == nil {
		return "", ErrInvalidCredentials
	}
	return s.auth.Login(username, password)
}

func (s *Service) afterWrite(ctx context.Context, routingKey string, payload any) {
	s.writes.Add(1)
	if err := s.stats.InvalidateStats(ctx); err != nil {
		log.Printf("stats cache invalidate failed: %v", err)
	}
	s.publish(ctx, routingKey, payload)
}

func (s *Service) publish(ctx context.Context, routingKey string, payload any) {
	if err := s.events.Publish(ctx, routingKey, payload); err != nil {
		log.Printf("publish %s failed: %v", routingKey, err)
	}
}

func copyAnswers(answers map[string]int) map[string]int {
	out := make(map[string]int, len(answers))
	for id, option := range answers {
		out[id] = option
	}
	return out
}

type nopStatsCache struct{}

func (nopStatsCache) GetStats(context.Context) (Stats, bool, error) { return Stats{}, false, nil }
func (nopStatsCache) SetStats(context.Context, Stats) error         { return nil }
func (nopStatsCache) InvalidateStats(context.Context) error         { return nil }

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, any) error { return nil }
