package httpapi

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"mock-exam/internal/exam"
)

const (
	headerExamWarning  = "X-Exam-Warning"
	headerExamDuration = "X-Exam-Duration-Seconds"
)

// HandleMockExam generates an exam. The body is optional; without one a
// full exam with the default distribution is drawn.
func (a *API) HandleMockExam(w http.ResponseWriter, r *http.Request) {
	var request exam.ExamRequest
	if err := decodeJSON(r, &request); err != nil && !errors.Is(err, errEmptyBody) {
		writeBadJSON(w, err)
		return
	}

	generated, err := a.service.GenerateExam(r.Context(), request)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	a.metrics.observeExam(examMode(request))

	for _, warning := range generated.Warnings {
		w.Header().Add(headerExamWarning, warning)
	}
	w.Header().Set(headerExamDuration, strconv.Itoa(int(a.examDuration/time.Second)))
	writeJSON(w, http.StatusOK, generated.Questions)
}

func (a *API) HandleSubmitScore(w http.ResponseWriter, r *http.Request) {
	var submission exam.ScoreSubmission
	if err := decodeJSON(r, &submission); err != nil {
		writeBadJSON(w, err)
		return
	}

	score, err := a.service.SubmitScore(r.Context(), submission)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	a.metrics.observeScore(score.ExamType)
	writeJSON(w, http.StatusCreated, score)
}

func (a *API) HandleListScores(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	scores, err := a.service.ListScores(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, scores)
}

// HandleExportScores renders the whole history before writing so a storage
// failure still produces a JSON error instead of a truncated file.
func (a *API) HandleExportScores(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := a.service.ExportScores(r.Context(), &buf); err != nil {
		writeServiceError(w, err)
		return
	}

	filename := fmt.Sprintf("exam-scores-%s.csv", time.Now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
