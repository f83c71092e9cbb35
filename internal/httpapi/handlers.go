package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"mock-exam/internal/exam"
)

func (a *API) HandleListQuestions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	questions, err := a.service.ListQuestions(r.Context(), exam.QuestionFilter{
		Category:   query.Get("category"),
		Difficulty: query.Get("difficulty"),
		Search:     query.Get("search"),
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

func (a *API) HandleGetQuestion(w http.ResponseWriter, r *http.Request) {
	question, err := a.service.GetQuestion(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, question)
}

func (a *API) HandleCreateQuestion(w http.ResponseWriter, r *http.Request) {
	var input exam.QuestionInput
	if err := decodeJSON(r, &input); err != nil {
		writeBadJSON(w, err)
		return
	}

	question, err := a.service.CreateQuestion(r.Context(), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, question)
}

func (a *API) HandleUpdateQuestion(w http.ResponseWriter, r *http.Request) {
	var patch exam.QuestionPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeBadJSON(w, err)
		return
	}

	question, err := a.service.UpdateQuestion(r.Context(), mux.Vars(r)["id"], patch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, question)
}

func (a *API) HandleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	if err := a.service.DeleteQuestion(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) HandleListExamSets(w http.ResponseWriter, r *http.Request) {
	sets, err := a.service.ListExamSets(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sets)
}

func (a *API) HandleGetExamSet(w http.ResponseWriter, r *http.Request) {
	set, err := a.service.GetExamSet(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

func (a *API) HandleCreateExamSet(w http.ResponseWriter, r *http.Request) {
	var input exam.ExamSetInput
	if err := decodeJSON(r, &input); err != nil {
		writeBadJSON(w, err)
		return
	}

	set, err := a.service.CreateExamSet(r.Context(), input)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, set)
}

func (a *API) HandleUpdateExamSet(w http.ResponseWriter, r *http.Request) {
	var patch exam.ExamSetPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeBadJSON(w, err)
		return
	}

	set, err := a.service.UpdateExamSet(r.Context(), mux.Vars(r)["id"], patch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, set)
}

func (a *API) HandleDeleteExamSet(w http.ResponseWriter, r *http.Request) {
	if err := a.service.DeleteExamSet(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
