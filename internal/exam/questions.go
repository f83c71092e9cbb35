package exam

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// OptionCount is the fixed number of answer options per question.
const OptionCount = 4

type Question struct {
	ID                 string     `json:"id"`
	QuestionText       string     `json:"questionText"`
	Options            []string   `json:"options"`
	CorrectAnswerIndex int        `json:"correctAnswerIndex"`
	Explanation        string     `json:"explanation"`
	Category           Category   `json:"category"`
	Difficulty         Difficulty `json:"difficulty"`
	CreatedAt          time.Time  `json:"createdAt"`
}

// QuestionInput is the client-supplied shape of a new question.
type QuestionInput struct {
	QuestionText       string   `json:"questionText"`
	Options            []string `json:"options"`
	CorrectAnswerIndex *int     `json:"correctAnswerIndex"`
	Explanation        string   `json:"explanation"`
	Category           string   `json:"category"`
	Difficulty         string   `json:"difficulty"`
}

// QuestionPatch is a partial update; nil fields are left unchanged.
type QuestionPatch struct {
	QuestionText       *string   `json:"questionText"`
	Options            *[]string `json:"options"`
	CorrectAnswerIndex *int      `json:"correctAnswerIndex"`
	Explanation        *string   `json:"explanation"`
	Category           *string   `json:"category"`
	Difficulty         *string   `json:"difficulty"`
}

func NewQuestionID() string {
	return uuid.NewString()
}

// BuildQuestion validates input against the catalog and returns a question
// without id or timestamp.
func BuildQuestion(input QuestionInput, catalog *Catalog) (Question, error) {
	if input.CorrectAnswerIndex == nil {
		return Question{}, newValidationError("correctAnswerIndex", "correctAnswerIndex is required")
	}

	category, err := catalog.ParseCategory(input.Category)
	if err != nil {
		return Question{}, err
	}

	difficulty := DifficultyMedium
	if strings.TrimSpace(input.Difficulty) != "" {
		difficulty, err = ParseDifficulty(input.Difficulty)
		if err != nil {
			return Question{}, err
		}
	}

	question := Question{
		QuestionText:       strings.TrimSpace(input.QuestionText),
		Options:            trimOptions(input.Options),
		CorrectAnswerIndex: *input.CorrectAnswerIndex,
		Explanation:        strings.TrimSpace(input.Explanation),
		Category:           category,
		Difficulty:         difficulty,
	}
	if err := question.Validate(); err != nil {
		return Question{}, err
	}
	return question, nil
}

// Apply merges a patch into a copy of q and re-validates the result.
func (q Question) Apply(patch QuestionPatch, catalog *Catalog) (Question, error) {
	merged := q
	if patch.QuestionText != nil {
		merged.QuestionText = strings.TrimSpace(*patch.QuestionText)
	}
	if patch.Options != nil {
		merged.Options = trimOptions(*patch.Options)
	}
	if patch.CorrectAnswerIndex != nil {
		merged.CorrectAnswerIndex = *patch.CorrectAnswerIndex
	}
	if patch.Explanation != nil {
		merged.Explanation = strings.TrimSpace(*patch.Explanation)
	}
	if patch.Category != nil {
		category, err := catalog.ParseCategory(*patch.Category)
		if err != nil {
			return Question{}, err
		}
		merged.Category = category
	}
	if patch.Difficulty != nil {
		difficulty, err := ParseDifficulty(*patch.Difficulty)
		if err != nil {
			return Question{}, err
		}
		merged.Difficulty = difficulty
	}

	if err := merged.Validate(); err != nil {
		return Question{}, err
	}
	return merged, nil
}

func (q Question) Validate() error {
	if q.QuestionText == "" {
		return newValidationError("questionText", "question text is required")
	}
	if len(q.Options) != OptionCount {
		return newValidationError("options", "exactly %d options are required, got %d", OptionCount, len(q.Options))
	}
	for idx, option := range q.Options {
		if option == "" {
			return newValidationError("options", "option %d is empty", idx)
		}
	}
	if q.CorrectAnswerIndex < 0 || q.CorrectAnswerIndex >= len(q.Options) {
		return newValidationError("correctAnswerIndex", "must be between 0 and %d", len(q.Options)-1)
	}
	if q.Category == "" {
		return newValidationError("category", "category is required")
	}
	if q.Difficulty == "" {
		return newValidationError("difficulty", "difficulty is required")
	}
	return nil
}

// Matches applies the AND semantics of a list filter to one question.
func (f QuestionFilter) Matches(q Question) bool {
	if !isFilterAll(f.Category) && string(q.Category) != strings.TrimSpace(f.Category) {
		return false
	}
	if !isFilterAll(f.Difficulty) {
		difficulty, err := ParseDifficulty(f.Difficulty)
		if err != nil || q.Difficulty != difficulty {
			return false
		}
	}
	return f.MatchesSearch(q)
}

// MatchesSearch is a case-insensitive substring match over text or explanation.
func (f QuestionFilter) MatchesSearch(q Question) bool {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	if search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(q.QuestionText), search) ||
		strings.Contains(strings.ToLower(q.Explanation), search)
}

// SortNewestFirst orders by creation time descending, ties by id ascending.
func SortNewestFirst(questions []Question) {
	sort.SliceStable(questions, func(i, j int) bool {
		if !questions[i].CreatedAt.Equal(questions[j].CreatedAt) {
			return questions[i].CreatedAt.After(questions[j].CreatedAt)
		}
		return questions[i].ID < questions[j].ID
	})
}

func isFilterAll(value string) bool {
	value = strings.TrimSpace(value)
	return value == "" || strings.EqualFold(value, filterAll)
}

func trimOptions(options []string) []string {
	if options == nil {
		return nil
	}
	out := make([]string, len(options))
	for idx, option := range options {
		out[idx] = strings.TrimSpace(option)
	}
	return out
}
