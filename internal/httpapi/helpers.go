package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"mock-exam/internal/exam"
)

const maxJSONBodyBytes = 1 << 20

var errEmptyBody = errors.New("request body is empty")

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case exam.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, exam.ErrQuestionNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "question not found"})
	case errors.Is(err, exam.ErrExamSetNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "exam set not found"})
	case errors.Is(err, exam.ErrExamSetInactive):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "exam set is not active"})
	case errors.Is(err, exam.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid credentials"})
	default:
		log.Printf("request failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "request failed"})
	}
}

// decodeJSON reads a bounded JSON body into dst. An empty body yields errEmptyBody.
func decodeJSON(r *http.Request, dst any) error {
	defer r.Body.Close()

	decoder := json.NewDecoder(io.LimitReader(r.Body, maxJSONBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func writeBadJSON(w http.ResponseWriter, err error) {
	if errors.Is(err, errEmptyBody) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "request body is required"})
		return
	}
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
}

func parseLimit(r *http.Request) (int, error) {
	value := strings.TrimSpace(r.URL.Query().Get("limit"))
	if value == "" {
		return 0, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.New("limit must be an integer")
	}
	// <=0 means "all scores".
	return parsed, nil
}

func examMode(request exam.ExamRequest) string {
	switch {
	case strings.TrimSpace(request.ExamSetID) != "":
		return "exam_set"
	case request.Categories != nil || request.CustomCategories != nil:
		return exam.ExamTypeCustom
	default:
		return exam.ExamTypeFull
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}
