package httpapi

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"mock-exam/internal/exam"
)

const csvFormField = "csvFile"

func (a *API) HandleAdminLogin(w http.ResponseWriter, r *http.Request) {
	var request loginRequest
	if err := decodeJSON(r, &request); err != nil {
		a.metrics.observeLogin(false)
		writeBadJSON(w, err)
		return
	}

	token, err := a.service.Login(request.Username, request.Password)
	if err != nil {
		a.metrics.observeLogin(false)
		if errors.Is(err, exam.ErrInvalidCredentials) {
			writeJSON(w, http.StatusUnauthorized, loginResponse{
				Success: false,
				Message: "invalid credentials",
				Error:   "invalid credentials",
			})
			return
		}
		writeServiceError(w, err)
		return
	}

	a.metrics.observeLogin(true)
	writeJSON(w, http.StatusOK, loginResponse{
		Success: true,
		Token:   token,
		Message: "login successful",
	})
}

func (a *API) HandleAdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.service.Stats(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// HandleImportCSV accepts either a multipart upload in the csvFile field or
// a raw CSV body. Uploads are capped at 10 MiB.
func (a *API) HandleImportCSV(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	defer r.Body.Close()

	source, closeSource, err := csvSource(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "CSV file exceeds 10 MiB"})
		case errors.Is(err, http.ErrMissingFile):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "no CSV file uploaded"})
		default:
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid upload: " + err.Error()})
		}
		return
	}
	defer closeSource()

	result, err := a.service.ImportQuestions(r.Context(), source)
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "CSV file exceeds 10 MiB"})
		case errors.Is(err, exam.ErrEmptyCSV):
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "no CSV file uploaded"})
		default:
			writeServiceError(w, err)
		}
		return
	}
	a.metrics.observeImport(result.Success, result.Errors)
	writeJSON(w, http.StatusOK, result)
}

func csvSource(r *http.Request) (io.Reader, func(), error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if !strings.HasPrefix(mediaType, "multipart/") {
		return r.Body, func() {}, nil
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return nil, nil, err
	}
	file, _, err := r.FormFile(csvFormField)
	if err != nil {
		return nil, nil, err
	}
	return file, func() {
		_ = file.Close()
		_ = r.MultipartForm.RemoveAll()
	}, nil
}

func (a *API) HandleCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, categoriesResponse{
		Categories:   a.service.Catalog().Categories(),
		Difficulties: exam.Difficulties(),
	})
}

func (a *API) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}
