package exam

import (
	"errors"
	"time"
)

// DefaultExamDuration is the time allowed for a full mock exam.
const DefaultExamDuration = 3 * time.Hour

var (
	ErrSessionNotStarted = errors.New("exam session has not started")
	ErrSessionSubmitted  = errors.New("exam session already submitted")
	ErrSessionExpired    = errors.New("exam time is up")
)

type SessionStatus string

const (
	SessionNotStarted SessionStatus = "not_started"
	SessionInProgress SessionStatus = "in_progress"
	SessionSubmitted  SessionStatus = "submitted"
)

// Session is the client-held state of one exam attempt. The server never
// stores it; clients persist the snapshot themselves and send the final
// answers through ToSubmission.
type Session struct {
	Status          SessionStatus  `json:"status"`
	ExamType        string         `json:"examType"`
	ExamSetID       string         `json:"examSetId,omitempty"`
	Questions       []Question     `json:"questions"`
	Answers         map[string]int `json:"answers"`
	Bookmarks       []string       `json:"bookmarks"`
	CurrentIndex    int            `json:"currentIndex"`
	StartedAt       time.Time      `json:"startedAt"`
	DurationSeconds int            `json:"durationSeconds"`
	SubmittedAt     *time.Time     `json:"submittedAt,omitempty"`
	ForcedSubmit    bool           `json:"forcedSubmit,omitempty"`
}

func NewSession(examType, examSetID string, questions []Question, duration time.Duration) *Session {
	if duration <= 0 {
		duration = DefaultExamDuration
	}
	if len(questions) > MaxExamQuestions {
		questions = questions[:MaxExamQuestions]
	}
	return &Session{
		Status:          SessionNotStarted,
		ExamType:        examType,
		ExamSetID:       examSetID,
		Questions:       questions,
		Answers:         make(map[string]int),
		DurationSeconds: int(duration / time.Second),
	}
}

func (s *Session) Start(now time.Time) error {
	switch s.Status {
	case SessionSubmitted:
		return ErrSessionSubmitted
	case SessionInProgress:
		return nil
	}
	s.Status = SessionInProgress
	s.StartedAt = now.UTC()
	if s.Answers == nil {
		s.Answers = make(map[string]int)
	}
	return nil
}

func (s *Session) Deadline() time.Time {
	return s.StartedAt.Add(time.Duration(s.DurationSeconds) * time.Second)
}

func (s *Session) Remaining(now time.Time) time.Duration {
	if s.Status != SessionInProgress {
		return 0
	}
	remaining := s.Deadline().Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (s *Session) Expired(now time.Time) bool {
	return s.Status == SessionInProgress && !now.Before(s.Deadline())
}

// Answer records a choice. Answering after the deadline force-submits the
// session and reports ErrSessionExpired.
func (s *Session) Answer(questionID string, option int, now time.Time) error {
	if err := s.checkWritable(now); err != nil {
		return err
	}
	if option < 0 || option >= OptionCount {
		return newValidationError("answer", "option must be between 0 and %d", OptionCount-1)
	}
	if !s.hasQuestion(questionID) {
		return ErrQuestionNotFound
	}
	s.Answers[questionID] = option
	return nil
}

func (s *Session) ToggleBookmark(questionID string) bool {
	for idx, id := range s.Bookmarks {
		if id == questionID {
			s.Bookmarks = append(s.Bookmarks[:idx], s.Bookmarks[idx+1:]...)
			return false
		}
	}
	s.Bookmarks = append(s.Bookmarks, questionID)
	return true
}

func (s *Session) IsBookmarked(questionID string) bool {
	for _, id := range s.Bookmarks {
		if id == questionID {
			return true
		}
	}
	return false
}

// Submit moves the session to its terminal state. Only the first call wins.
func (s *Session) Submit(now time.Time) error {
	switch s.Status {
	case SessionNotStarted:
		return ErrSessionNotStarted
	case SessionSubmitted:
		return ErrSessionSubmitted
	}
	submittedAt := now.UTC()
	if deadline := s.Deadline(); submittedAt.After(deadline) {
		submittedAt = deadline
		s.ForcedSubmit = true
	}
	s.SubmittedAt = &submittedAt
	s.Status = SessionSubmitted
	return nil
}

// ForceSubmit is the deadline callback; it is a no-op once submitted.
func (s *Session) ForceSubmit(now time.Time) bool {
	if s.Status != SessionInProgress {
		return false
	}
	_ = s.Submit(now)
	s.ForcedSubmit = true
	return true
}

func (s *Session) TimeSpent() int {
	if s.Status == SessionNotStarted || s.SubmittedAt == nil {
		return 0
	}
	spent := int(s.SubmittedAt.Sub(s.StartedAt) / time.Second)
	if spent < 0 {
		return 0
	}
	return spent
}

func (s *Session) QuestionIDs() []string {
	ids := make([]string, 0, len(s.Questions))
	for _, question := range s.Questions {
		ids = append(ids, question.ID)
	}
	return ids
}

// ToSubmission builds the payload for a submitted session. Client-side
// tallies are included for display; the server recomputes them.
func (s *Session) ToSubmission() (ScoreSubmission, error) {
	if s.Status != SessionSubmitted {
		return ScoreSubmission{}, errors.New("exam session is not submitted")
	}

	result := Calculate(s.Questions, s.Answers)
	answers := make(map[string]int, len(s.Answers))
	for id, option := range s.Answers {
		answers[id] = option
	}
	totalScore := result.TotalScore

	return ScoreSubmission{
		TotalScore:        &totalScore,
		TotalQuestions:    result.TotalQuestions,
		CorrectAnswers:    result.CorrectAnswers,
		TimeSpent:         s.TimeSpent(),
		ExamType:          s.ExamType,
		ExamSetID:         s.ExamSetID,
		AnswersGiven:      answers,
		CategoryBreakdown: result.CategoryBreakdown,
		QuestionIDs:       s.QuestionIDs(),
	}, nil
}

func (s *Session) checkWritable(now time.Time) error {
	switch s.Status {
	case SessionNotStarted:
		return ErrSessionNotStarted
	case SessionSubmitted:
		return ErrSessionSubmitted
	}
	if s.Expired(now) {
		s.ForceSubmit(now)
		return ErrSessionExpired
	}
	return nil
}

func (s *Session) hasQuestion(questionID string) bool {
	for _, question := range s.Questions {
		if question.ID == questionID {
			return true
		}
	}
	return false
}
