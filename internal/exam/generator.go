package exam

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"
)

const (
	ExamTypeFull   = "full"
	ExamTypeCustom = "custom"
)

// Shuffler is a goroutine-safe source of uniform permutations.
type Shuffler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewShuffler(seed int64) *Shuffler {
	return &Shuffler{rng: rand.New(rand.NewSource(seed))}
}

func (s *Shuffler) Shuffle(n int, swap func(i, j int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rng.Shuffle(n, swap)
}

// Sample draws questions per category quota without replacement. A category
// with fewer questions than its quota contributes all it has. The combined
// list is shuffled once more so category order gives nothing away.
func Sample(ctx context.Context, repo QuestionRepository, dist Distribution, catalog *Catalog, shuffler *Shuffler) ([]Question, error) {
	selected := make([]Question, 0, dist.Total())
	for _, category := range dist.Ordered(catalog) {
		count := dist[category]
		if count <= 0 {
			continue
		}

		pool, err := repo.QuestionsByCategory(ctx, category)
		if err != nil {
			return nil, err
		}
		shuffler.Shuffle(len(pool), func(i, j int) {
			pool[i], pool[j] = pool[j], pool[i]
		})
		if count > len(pool) {
			count = len(pool)
		}
		selected = append(selected, pool[:count]...)
	}

	shuffler.Shuffle(len(selected), func(i, j int) {
		selected[i], selected[j] = selected[j], selected[i]
	})
	return selected, nil
}

// ExamRequest selects one of three generation modes: a named exam set, a
// custom per-category distribution, or the default full exam.
type ExamRequest struct {
	Type             string         `json:"type,omitempty"`
	ExamSetID        string         `json:"examSetId,omitempty"`
	Categories       map[string]int `json:"categories,omitempty"`
	CustomCategories map[string]int `json:"customCategories,omitempty"`
}

type GeneratedExam struct {
	Questions    []Question   `json:"questions"`
	Distribution Distribution `json:"distribution"`
	ExamSetID    string       `json:"examSetId,omitempty"`
	Warnings     []string     `json:"warnings,omitempty"`
}

type Generator struct {
	questions QuestionRepository
	examSets  ExamSetRepository
	catalog   *Catalog
	shuffler  *Shuffler
}

func NewGenerator(questions QuestionRepository, examSets ExamSetRepository, catalog *Catalog, shuffler *Shuffler) *Generator {
	if catalog == nil {
		catalog = NewCatalog()
	}
	if shuffler == nil {
		shuffler = NewShuffler(time.Now().UnixNano())
	}
	return &Generator{
		questions: questions,
		examSets:  examSets,
		catalog:   catalog,
		shuffler:  shuffler,
	}
}

func (g *Generator) Generate(ctx context.Context, request ExamRequest) (GeneratedExam, error) {
	dist, err := g.Resolve(ctx, request)
	if err != nil {
		return GeneratedExam{}, err
	}

	questions, err := Sample(ctx, g.questions, dist, g.catalog, g.shuffler)
	if err != nil {
		return GeneratedExam{}, err
	}

	return GeneratedExam{
		Questions:    questions,
		Distribution: dist,
		ExamSetID:    strings.TrimSpace(request.ExamSetID),
		Warnings:     underfillWarnings(dist, questions, g.catalog),
	}, nil
}

// Resolve turns a request into the distribution that will be sampled.
// Exam sets are scaled down to MaxExamQuestions; custom distributions over
// the cap are rejected.
func (g *Generator) Resolve(ctx context.Context, request ExamRequest) (Distribution, error) {
	examSetID := strings.TrimSpace(request.ExamSetID)
	custom := request.CustomCategories
	if custom == nil {
		custom = request.Categories
	}
	examType := strings.ToLower(strings.TrimSpace(request.Type))

	switch {
	case examSetID != "" && custom != nil:
		return nil, newValidationError("examSetId", "examSetId and custom categories are mutually exclusive")
	case examSetID != "":
		return g.resolveExamSet(ctx, examSetID)
	case custom != nil:
		return g.resolveCustom(custom)
	case examType == ExamTypeCustom:
		return nil, newValidationError("categories", "custom exams require categories")
	case examType == "" || examType == ExamTypeFull:
		return DefaultDistribution(), nil
	default:
		return nil, newValidationError("type", "unknown exam type %q", request.Type)
	}
}

func (g *Generator) resolveExamSet(ctx context.Context, id string) (Distribution, error) {
	set, err := g.examSets.GetExamSet(ctx, id)
	if err != nil {
		return nil, err
	}
	if !set.IsActive {
		return nil, ErrExamSetInactive
	}
	return set.CategoryDistribution.ScaleTo(MaxExamQuestions, g.catalog), nil
}

func (g *Generator) resolveCustom(raw map[string]int) (Distribution, error) {
	dist, err := ParseDistribution(raw, g.catalog)
	if err != nil {
		return nil, err
	}
	total := dist.Total()
	if total > MaxExamQuestions {
		return nil, fmt.Errorf("%w: requested %d, maximum is %d", ErrDistributionTooLarge, total, MaxExamQuestions)
	}
	if total == 0 {
		return nil, ErrEmptyDistribution
	}
	return dist, nil
}

func underfillWarnings(dist Distribution, questions []Question, catalog *Catalog) []string {
	got := make(map[Category]int, len(dist))
	for _, question := range questions {
		got[question.Category]++
	}

	var warnings []string
	for _, category := range dist.Ordered(catalog) {
		if want := dist[category]; got[category] < want {
			warnings = append(warnings, fmt.Sprintf("category %q: requested %d, available %d", category, want, got[category]))
		}
	}
	return warnings
}

// IsNotFound reports whether err names a missing entity.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrQuestionNotFound) || errors.Is(err, ErrExamSetNotFound)
}
