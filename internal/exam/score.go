package exam

import (
	"strings"
	"time"
)

type CategoryResult struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

type Score struct {
	ID                string                    `json:"id"`
	TotalScore        int                       `json:"totalScore"`
	TotalQuestions    int                       `json:"totalQuestions"`
	CorrectAnswers    int                       `json:"correctAnswers"`
	DateTaken         time.Time                 `json:"dateTaken"`
	TimeSpent         int                       `json:"timeSpent"`
	ExamType          string                    `json:"examType"`
	ExamSetID         string                    `json:"examSetId,omitempty"`
	AnswersGiven      map[string]int            `json:"answersGiven"`
	CategoryBreakdown map[string]CategoryResult `json:"categoryBreakdown"`
	QuestionIDs       []string                  `json:"questionIds,omitempty"`
}

// ScoreSubmission is what a client sends after finishing an attempt.
// TotalScore is accepted for compatibility and always recomputed.
type ScoreSubmission struct {
	TotalScore        *int                      `json:"totalScore,omitempty"`
	TotalQuestions    int                       `json:"totalQuestions"`
	CorrectAnswers    int                       `json:"correctAnswers"`
	TimeSpent         int                       `json:"timeSpent"`
	ExamType          string                    `json:"examType"`
	ExamSetID         string                    `json:"examSetId,omitempty"`
	AnswersGiven      map[string]int            `json:"answersGiven"`
	CategoryBreakdown map[string]CategoryResult `json:"categoryBreakdown,omitempty"`
	QuestionIDs       []string                  `json:"questionIds,omitempty"`
}

func (s ScoreSubmission) validate() error {
	if strings.TrimSpace(s.ExamType) == "" {
		return newValidationError("examType", "examType is required")
	}
	if s.TimeSpent < 0 {
		return newValidationError("timeSpent", "timeSpent must not be negative")
	}
	if len(s.QuestionIDs) > 0 {
		return nil
	}
	if s.TotalQuestions < 0 {
		return newValidationError("totalQuestions", "totalQuestions must not be negative")
	}
	if s.CorrectAnswers < 0 || s.CorrectAnswers > s.TotalQuestions {
		return newValidationError("correctAnswers", "correctAnswers must be between 0 and totalQuestions")
	}
	for label, result := range s.CategoryBreakdown {
		if result.Correct < 0 || result.Total < 0 || result.Correct > result.Total {
			return newValidationError("categoryBreakdown", "invalid tally for %q", label)
		}
	}
	return nil
}

// Percentage rounds correct/total*100 half up; an empty exam scores 0.
func Percentage(correct, total int) int {
	if total <= 0 {
		return 0
	}
	if correct < 0 {
		correct = 0
	}
	if correct > total {
		correct = total
	}
	return (200*correct + total) / (2 * total)
}
