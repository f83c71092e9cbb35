package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"

	"mock-exam/internal/exam"
)

func NewRouter(service *exam.Service, opts ...Option) http.Handler {
	return NewAPI(service, opts...).Routes()
}

// Routes builds the full handler tree. Admin-only routes are wrapped in
// requireAdmin; every request goes through the access log.
func (a *API) Routes() http.Handler {
	router := mux.NewRouter()
	notFound := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
	})
	methodNotAllowed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	})
	router.NotFoundHandler = notFound
	router.MethodNotAllowedHandler = methodNotAllowed
	router.Use(a.metrics.Middleware)

	router.HandleFunc("/healthz", a.HandleHealth).Methods(http.MethodGet)
	router.Handle("/metrics", a.metrics.Handler()).Methods(http.MethodGet)

	// Subrouters answer their own misses; without these a wrong method under
	// /api falls through as a 404.
	api := router.PathPrefix("/api").Subrouter()
	api.NotFoundHandler = notFound
	api.MethodNotAllowedHandler = methodNotAllowed

	api.HandleFunc("/questions", a.HandleListQuestions).Methods(http.MethodGet)
	api.HandleFunc("/questions", a.requireAdmin(a.HandleCreateQuestion)).Methods(http.MethodPost)
	api.HandleFunc("/questions/{id}", a.HandleGetQuestion).Methods(http.MethodGet)
	api.HandleFunc("/questions/{id}", a.requireAdmin(a.HandleUpdateQuestion)).Methods(http.MethodPut, http.MethodPatch)
	api.HandleFunc("/questions/{id}", a.requireAdmin(a.HandleDeleteQuestion)).Methods(http.MethodDelete)

	api.HandleFunc("/exam-sets", a.HandleListExamSets).Methods(http.MethodGet)
	api.HandleFunc("/exam-sets", a.requireAdmin(a.HandleCreateExamSet)).Methods(http.MethodPost)
	api.HandleFunc("/exam-sets/{id}", a.HandleGetExamSet).Methods(http.MethodGet)
	api.HandleFunc("/exam-sets/{id}", a.requireAdmin(a.HandleUpdateExamSet)).Methods(http.MethodPut, http.MethodPatch)
	api.HandleFunc("/exam-sets/{id}", a.requireAdmin(a.HandleDeleteExamSet)).Methods(http.MethodDelete)

	api.HandleFunc("/mock-exam", a.HandleMockExam).Methods(http.MethodPost)

	api.HandleFunc("/scores", a.HandleListScores).Methods(http.MethodGet)
	api.HandleFunc("/scores", a.HandleSubmitScore).Methods(http.MethodPost)
	api.HandleFunc("/scores/export", a.HandleExportScores).Methods(http.MethodGet, http.MethodPost)

	api.HandleFunc("/import-csv", a.requireAdmin(a.HandleImportCSV)).Methods(http.MethodPost)
	api.HandleFunc("/admin/login", a.HandleAdminLogin).Methods(http.MethodPost)
	api.HandleFunc("/admin/stats", a.requireAdmin(a.HandleAdminStats)).Methods(http.MethodGet)
	api.HandleFunc("/categories", a.HandleCategories).Methods(http.MethodGet)

	return loggingMiddleware(router)
}
