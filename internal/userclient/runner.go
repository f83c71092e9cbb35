package userclient

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"mock-exam/internal/exam"
)

const examTypeExamSet = "exam_set"

var errNoSession = errors.New("no exam in progress; type 'start' or 'resume'")

// runner owns the current exam session. The REPL and the deadline timer both
// go through mu; output has its own lock so the timer can print while the
// REPL is waiting for input.
type runner struct {
	mu         sync.Mutex
	client     *HTTPClient
	snapshots  *SnapshotStore
	serverURL  string
	now        func() time.Time
	session    *exam.Session
	timer      *time.Timer
	categories []exam.Category

	outMu sync.Mutex
	out   io.Writer
}

func newRunner(client *HTTPClient, snapshots *SnapshotStore, out io.Writer, serverURL string) *runner {
	return &runner{
		client:    client,
		snapshots: snapshots,
		serverURL: serverURL,
		now:       time.Now,
		out:       out,
	}
}

func (r *runner) printf(format string, args ...any) {
	r.outMu.Lock()
	defer r.outMu.Unlock()
	fmt.Fprintf(r.out, format, args...)
}

func (r *runner) loadCategories(ctx context.Context) ([]exam.Category, error) {
	r.mu.Lock()
	cached := r.categories
	r.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	categories, err := r.client.Categories(ctx)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.categories = categories
	r.mu.Unlock()
	return categories, nil
}

func (r *runner) start(ctx context.Context, reader *bufio.Reader, spec string) error {
	r.mu.Lock()
	active := r.session != nil && r.session.Status == exam.SessionInProgress
	r.mu.Unlock()
	if active {
		return errors.New("an exam is already in progress; submit it first")
	}

	saved, err := r.snapshots.Load()
	if err != nil {
		return err
	}
	if saved != nil {
		discard, err := promptYesNo(reader, r.out, "A saved exam exists. Discard it? (yes/no): ")
		if err != nil {
			return err
		}
		if !discard {
			r.printf("Type 'resume' to continue the saved exam.\n")
			return nil
		}
	}

	var categories []exam.Category
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(spec)), exam.ExamTypeCustom) {
		if categories, err = r.loadCategories(ctx); err != nil {
			return err
		}
	}
	request, err := parseExamRequest(spec, categories)
	if err != nil {
		return err
	}

	generated, err := r.client.GenerateExam(ctx, request)
	if err != nil {
		return err
	}
	if len(generated.Questions) == 0 {
		return errors.New("the question bank has no questions for this exam")
	}
	for _, warning := range generated.Warnings {
		r.printf("warning: %s\n", warning)
	}

	examType := request.Type
	if request.ExamSetID != "" {
		examType = examTypeExamSet
	}
	session := exam.NewSession(examType, request.ExamSetID, generated.Questions, generated.Duration)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := session.Start(r.now()); err != nil {
		return err
	}
	r.session = session
	r.saveLocked()
	r.armLocked()

	r.printf("Exam started: %d questions, %s allowed.\n", len(session.Questions), formatClock(time.Duration(session.DurationSeconds)*time.Second))
	r.showLocked()
	return nil
}

// resume reloads the snapshot. A snapshot that was submitted but never
// reached the server is sent again.
func (r *runner) resume(ctx context.Context) error {
	saved, err := r.snapshots.Load()
	if err != nil {
		return err
	}
	if saved == nil {
		return errors.New("no saved exam")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopTimerLocked()
	r.session = saved

	switch saved.Status {
	case exam.SessionSubmitted:
		r.printf("Saved exam was already submitted; sending the score.\n")
		r.finishLocked(ctx)
		return nil
	case exam.SessionNotStarted:
		if err := saved.Start(r.now()); err != nil {
			return err
		}
	}

	now := r.now()
	if saved.Expired(now) {
		saved.ForceSubmit(now)
		r.printf("Time ran out while the client was closed. Exam submitted automatically.\n")
		r.finishLocked(ctx)
		return nil
	}

	r.saveLocked()
	r.armLocked()
	r.printf("Exam resumed.\n")
	r.showLocked()
	return nil
}

func (r *runner) show() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return errNoSession
	}
	r.showLocked()
	return nil
}

func (r *runner) move(delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return errNoSession
	}
	return r.jumpLocked(r.session.CurrentIndex + delta)
}

func (r *runner) jump(index int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return errNoSession
	}
	return r.jumpLocked(index)
}

func (r *runner) jumpLocked(index int) error {
	if index < 0 || index >= len(r.session.Questions) {
		return fmt.Errorf("question number must be between 1 and %d", len(r.session.Questions))
	}
	r.session.CurrentIndex = index
	r.saveLocked()
	r.showLocked()
	return nil
}

func (r *runner) answer(ctx context.Context, letter string) error {
	option, ok := parseOptionLetter(letter)
	if !ok {
		return fmt.Errorf("answer must be a letter A-%s", optionLetter(exam.OptionCount-1))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return errNoSession
	}

	question := r.session.Questions[r.session.CurrentIndex]
	err := r.session.Answer(question.ID, option, r.now())
	if errors.Is(err, exam.ErrSessionExpired) {
		r.printf("Time is up. Exam submitted automatically.\n")
		r.finishLocked(ctx)
		return nil
	}
	if err != nil {
		return err
	}

	r.saveLocked()
	r.printf("Answer %s saved for question %d.\n", optionLetter(option), r.session.CurrentIndex+1)
	return nil
}

func (r *runner) toggleBookmark() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return errNoSession
	}

	question := r.session.Questions[r.session.CurrentIndex]
	if r.session.ToggleBookmark(question.ID) {
		r.printf("Question %d bookmarked.\n", r.session.CurrentIndex+1)
	} else {
		r.printf("Bookmark removed from question %d.\n", r.session.CurrentIndex+1)
	}
	r.saveLocked()
	return nil
}

func (r *runner) listBookmarks() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return errNoSession
	}

	var numbers []string
	for idx, question := range r.session.Questions {
		if r.session.IsBookmarked(question.ID) {
			numbers = append(numbers, fmt.Sprint(idx+1))
		}
	}
	if len(numbers) == 0 {
		r.printf("No bookmarked questions.\n")
		return nil
	}
	r.printf("Bookmarked: %s\n", strings.Join(numbers, ", "))
	return nil
}

func (r *runner) status() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return errNoSession
	}

	r.printf("Status: %s\n", r.session.Status)
	r.printf("Answered: %d/%d\n", len(r.session.Answers), len(r.session.Questions))
	r.printf("Bookmarked: %d\n", len(r.session.Bookmarks))
	if r.session.Status == exam.SessionInProgress {
		r.printf("Time remaining: %s\n", formatClock(r.session.Remaining(r.now())))
	}
	return nil
}

func (r *runner) submit(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return errNoSession
	}
	if err := r.session.Submit(r.now()); err != nil {
		return err
	}
	r.finishLocked(ctx)
	return nil
}

func (r *runner) review() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil {
		return errNoSession
	}
	if r.session.Status != exam.SessionSubmitted {
		return errors.New("review is available after the exam is submitted")
	}

	for idx, question := range r.session.Questions {
		given, answered := r.session.Answers[question.ID]
		mark := "wrong"
		switch {
		case !answered:
			mark = "unanswered"
			given = -1
		case given == question.CorrectAnswerIndex:
			mark = "correct"
		}
		r.printf("\n%d. [%s] %s\n", idx+1, question.Category, question.QuestionText)
		r.printf("   your answer: %s, correct: %s (%s)\n", optionLetter(given), optionLetter(question.CorrectAnswerIndex), mark)
		if question.Explanation != "" {
			r.printf("   %s\n", question.Explanation)
		}
	}
	return nil
}

// onDeadline is the timer callback. ForceSubmit makes it a no-op once the
// session has been submitted by any other path.
func (r *runner) onDeadline() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.session == nil || !r.session.ForceSubmit(r.now()) {
		return
	}

	r.printf("\nTime is up. Exam submitted automatically.\n")
	ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
	defer cancel()
	r.finishLocked(ctx)
}

// finishLocked sends a submitted session to the server. On failure the
// snapshot is kept so 'resume' can retry.
func (r *runner) finishLocked(ctx context.Context) {
	r.stopTimerLocked()
	r.saveLocked()

	submission, err := r.session.ToSubmission()
	if err != nil {
		r.printf("error: %v\n", err)
		return
	}
	score, err := r.client.SubmitScore(ctx, submission)
	if err != nil {
		r.printf("error: could not send score: %v\n", describeClientError(err, r.serverURL))
		r.printf("The exam is saved. Type 'resume' to retry.\n")
		return
	}
	if err := r.snapshots.Clear(); err != nil {
		log.Printf("clear exam snapshot: %v", err)
	}

	r.printf("\nScore: %d%% (%d/%d correct, time %s)\n",
		score.TotalScore,
		score.CorrectAnswers,
		score.TotalQuestions,
		formatClock(time.Duration(score.TimeSpent)*time.Second),
	)
	for _, category := range sessionCategories(r.session) {
		result := score.CategoryBreakdown[string(category)]
		r.printf("  %s: %d/%d\n", category, result.Correct, result.Total)
	}
	r.printf("Type 'review' to see the answers.\n")
}

func (r *runner) showLocked() {
	session := r.session
	question := session.Questions[session.CurrentIndex]

	header := fmt.Sprintf("Question %d/%d [%s]", session.CurrentIndex+1, len(session.Questions), question.Category)
	if session.IsBookmarked(question.ID) {
		header += " (bookmarked)"
	}
	r.printf("\n%s\n%s\n\n", header, question.QuestionText)
	for idx, option := range question.Options {
		r.printf("%s. %s\n", optionLetter(idx), option)
	}
	if given, ok := session.Answers[question.ID]; ok {
		r.printf("\nYour answer: %s\n", optionLetter(given))
	}
	if session.Status == exam.SessionInProgress {
		r.printf("Time remaining: %s\n", formatClock(session.Remaining(r.now())))
	}
}

func (r *runner) armLocked() {
	r.stopTimerLocked()
	r.timer = time.AfterFunc(r.session.Remaining(r.now()), r.onDeadline)
}

func (r *runner) stopTimerLocked() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

func (r *runner) saveLocked() {
	if err := r.snapshots.Save(r.session); err != nil {
		log.Printf("save exam snapshot: %v", err)
	}
}

// leave stops the deadline timer. An unfinished exam stays in the snapshot.
func (r *runner) leave() {
	r.mu.Lock()
	inProgress := r.session != nil && r.session.Status == exam.SessionInProgress
	r.mu.Unlock()
	r.stop()
	if inProgress {
		r.printf("Exam saved. Type 'resume' next time to continue.\n")
	}
}

func (r *runner) stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopTimerLocked()
}

func sessionCategories(session *exam.Session) []exam.Category {
	seen := make(map[exam.Category]struct{})
	var categories []exam.Category
	for _, question := range session.Questions {
		if _, ok := seen[question.Category]; ok {
			continue
		}
		seen[question.Category] = struct{}{}
		categories = append(categories, question.Category)
	}
	return categories
}
