package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"mock-exam/internal/auth"
	"mock-exam/internal/exam"
)

const csvHeader = "subject,question,option_a,option_b,option_c,option_d,correct_answer,explanation\n"

func newTestServer(t *testing.T) (http.Handler, *exam.Service, string) {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("GenerateFromPassword failed: %v", err)
	}
	admin, err := auth.NewAdmin("admin", string(hash), "test-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewAdmin failed: %v", err)
	}
	token, err := admin.Issue("admin")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	service := exam.NewService(exam.NewMemoryStore(), exam.NewCatalog(),
		exam.WithAuthenticator(admin),
		exam.WithShuffler(exam.NewShuffler(1)),
	)
	handler := NewRouter(service, WithTokenVerifier(admin), WithExamDuration(90*time.Minute))
	return handler, service, token
}

func doRequest(t *testing.T, handler http.Handler, method, path, token string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func jsonBody(t *testing.T, payload any) io.Reader {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	return bytes.NewReader(raw)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
}

func seedQuestions(t *testing.T, service *exam.Service, category exam.Category, n int) []exam.Question {
	t.Helper()
	out := make([]exam.Question, 0, n)
	for i := 0; i < n; i++ {
		correct := i % exam.OptionCount
		question, err := service.CreateQuestion(context.Background(), exam.QuestionInput{
			QuestionText:       fmt.Sprintf("%s ข้อ %d", category, i),
			Options:            []string{"ก", "ข", "ค", "ง"},
			CorrectAnswerIndex: &correct,
			Explanation:        "เฉลย",
			Category:           string(category),
		})
		if err != nil {
			t.Fatalf("CreateQuestion failed: %v", err)
		}
		out = append(out, question)
	}
	return out
}

func TestParseLimit(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/scores", nil)
	if got, err := parseLimit(req); err != nil || got != 0 {
		t.Fatalf("default parseLimit = (%d, %v), want (0, nil)", got, err)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/scores?limit=5", nil)
	if got, err := parseLimit(req); err != nil || got != 5 {
		t.Fatalf("parseLimit = (%d, %v), want (5, nil)", got, err)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/scores?limit=abc", nil)
	if _, err := parseLimit(req); err == nil {
		t.Fatalf("expected integer validation error")
	}
}

func TestWriteServiceErrorMapsStatuses(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{&exam.ValidationError{Field: "options", Message: "bad"}, http.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", exam.ErrDistributionTooLarge), http.StatusBadRequest},
		{exam.ErrQuestionNotFound, http.StatusNotFound},
		{exam.ErrExamSetNotFound, http.StatusNotFound},
		{exam.ErrExamSetInactive, http.StatusConflict},
		{exam.ErrInvalidCredentials, http.StatusUnauthorized},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeServiceError(rec, tc.err)
		if rec.Code != tc.want {
			t.Fatalf("%v: status = %d, want %d", tc.err, rec.Code, tc.want)
		}
		var payload errorResponse
		decodeBody(t, rec, &payload)
		if payload.Error == "" {
			t.Fatalf("%v: empty error message", tc.err)
		}
		if tc.want == http.StatusInternalServerError && strings.Contains(payload.Error, "disk") {
			t.Fatalf("internal error detail leaked: %q", payload.Error)
		}
	}
}

func TestQuestionCRUDRequiresAdmin(t *testing.T) {
	handler, _, token := newTestServer(t)
	input := map[string]any{
		"questionText":       "ข้อใดคือเมืองหลวงของไทย",
		"options":            []string{"เชียงใหม่", "กรุงเทพมหานคร", "ขอนแก่น", "ภูเก็ต"},
		"correctAnswerIndex": 1,
		"explanation":        "กรุงเทพมหานคร",
		"category":           string(exam.CategorySociety),
		"difficulty":         "easy",
	}

	rec := doRequest(t, handler, http.MethodPost, "/api/questions", "", jsonBody(t, input))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status without token = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	rec = doRequest(t, handler, http.MethodPost, "/api/questions", "garbage", jsonBody(t, input))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status with bad token = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	rec = doRequest(t, handler, http.MethodPost, "/api/questions", token, jsonBody(t, input))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body %s", rec.Code, rec.Body.String())
	}
	var created exam.Question
	decodeBody(t, rec, &created)
	if created.ID == "" || created.Difficulty != exam.DifficultyEasy {
		t.Fatalf("unexpected created question: %+v", created)
	}

	rec = doRequest(t, handler, http.MethodPut, "/api/questions/"+created.ID, token, jsonBody(t, map[string]any{"explanation": "เมืองหลวง"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d, body %s", rec.Code, rec.Body.String())
	}
	var updated exam.Question
	decodeBody(t, rec, &updated)
	if updated.Explanation != "เมืองหลวง" || updated.CorrectAnswerIndex != 1 {
		t.Fatalf("unexpected update: %+v", updated)
	}

	rec = doRequest(t, handler, http.MethodPut, "/api/questions/"+created.ID, token, jsonBody(t, map[string]any{"correctAnswerIndex": 9}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid update status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	rec = doRequest(t, handler, http.MethodGet, "/api/questions/"+created.ID, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	rec = doRequest(t, handler, http.MethodDelete, "/api/questions/"+created.ID, token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}
	rec = doRequest(t, handler, http.MethodDelete, "/api/questions/"+created.ID, token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestListQuestionsFilters(t *testing.T) {
	handler, service, _ := newTestServer(t)
	seedQuestions(t, service, exam.CategoryThai, 3)
	seedQuestions(t, service, exam.CategoryEnglish, 2)

	rec := doRequest(t, handler, http.MethodGet, "/api/questions?category=%E0%B8%A0%E0%B8%B2%E0%B8%A9%E0%B8%B2%E0%B9%84%E0%B8%97%E0%B8%A2&difficulty=all", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var questions []exam.Question
	decodeBody(t, rec, &questions)
	if len(questions) != 3 {
		t.Fatalf("expected 3 Thai questions, got %d", len(questions))
	}
	for _, question := range questions {
		if question.Category != exam.CategoryThai {
			t.Fatalf("unexpected category %q", question.Category)
		}
	}
}

func TestMockExamModes(t *testing.T) {
	handler, service, token := newTestServer(t)
	seedQuestions(t, service, exam.CategoryThai, 4)
	seedQuestions(t, service, exam.CategoryLaw, 4)

	rec := doRequest(t, handler, http.MethodPost, "/api/mock-exam", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("full exam status = %d, body %s", rec.Code, rec.Body.String())
	}
	var questions []exam.Question
	decodeBody(t, rec, &questions)
	if len(questions) != 8 {
		t.Fatalf("expected every available question, got %d", len(questions))
	}
	if len(rec.Header().Values(headerExamWarning)) == 0 {
		t.Fatal("expected under-fill warnings")
	}
	if rec.Header().Get(headerExamDuration) != "5400" {
		t.Fatalf("unexpected duration header %q", rec.Header().Get(headerExamDuration))
	}

	rec = doRequest(t, handler, http.MethodPost, "/api/mock-exam", "", jsonBody(t, map[string]any{
		"type":       "custom",
		"categories": map[string]int{string(exam.CategoryThai): 2},
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("custom exam status = %d, body %s", rec.Code, rec.Body.String())
	}
	questions = nil
	decodeBody(t, rec, &questions)
	if len(questions) != 2 || questions[0].Category != exam.CategoryThai {
		t.Fatalf("unexpected custom exam: %+v", questions)
	}

	rec = doRequest(t, handler, http.MethodPost, "/api/mock-exam", "", jsonBody(t, map[string]any{
		"categories": map[string]int{string(exam.CategoryThai): 100, string(exam.CategoryLaw): 51},
	}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("oversized custom status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	rec = doRequest(t, handler, http.MethodPost, "/api/mock-exam", "", jsonBody(t, map[string]any{"examSetId": "missing"}))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing set status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	rec = doRequest(t, handler, http.MethodPost, "/api/exam-sets", token, jsonBody(t, map[string]any{
		"name":                 "ปิดแล้ว",
		"categoryDistribution": map[string]int{string(exam.CategoryThai): 2},
		"isActive":             false,
	}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create set status = %d, body %s", rec.Code, rec.Body.String())
	}
	var set exam.ExamSet
	decodeBody(t, rec, &set)

	rec = doRequest(t, handler, http.MethodPost, "/api/mock-exam", "", jsonBody(t, map[string]any{"examSetId": set.ID}))
	if rec.Code != http.StatusConflict {
		t.Fatalf("inactive set status = %d, want %d", rec.Code, http.StatusConflict)
	}

	rec = doRequest(t, handler, http.MethodPost, "/api/mock-exam", "", strings.NewReader("{broken"))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("broken JSON status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestScoresSubmitListAndExport(t *testing.T) {
	handler, service, _ := newTestServer(t)
	questions := seedQuestions(t, service, exam.CategoryComputer, 2)

	submission := map[string]any{
		"totalScore":     100,
		"totalQuestions": 2,
		"correctAnswers": 2,
		"timeSpent":      125,
		"examType":       "custom",
		"answersGiven": map[string]int{
			questions[0].ID: questions[0].CorrectAnswerIndex,
			questions[1].ID: (questions[1].CorrectAnswerIndex + 1) % exam.OptionCount,
		},
		"questionIds": []string{questions[0].ID, questions[1].ID},
	}
	rec := doRequest(t, handler, http.MethodPost, "/api/scores", "", jsonBody(t, submission))
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit status = %d, body %s", rec.Code, rec.Body.String())
	}
	var score exam.Score
	decodeBody(t, rec, &score)
	if score.TotalScore != 50 || score.CorrectAnswers != 1 {
		t.Fatalf("expected server-side scoring, got %+v", score)
	}

	rec = doRequest(t, handler, http.MethodPost, "/api/scores", "", jsonBody(t, map[string]any{
		"totalQuestions": 2, "correctAnswers": 3, "examType": "full",
	}))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid submit status = %d, want %d", rec.Code, http.StatusBadRequest)
	}

	rec = doRequest(t, handler, http.MethodGet, "/api/scores?limit=10", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var scores []exam.Score
	decodeBody(t, rec, &scores)
	if len(scores) != 1 {
		t.Fatalf("expected 1 score, got %d", len(scores))
	}

	rec = doRequest(t, handler, http.MethodPost, "/api/scores/export", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export status = %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv") {
		t.Fatalf("unexpected content type %q", rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "attachment") {
		t.Fatalf("expected attachment disposition, got %q", rec.Header().Get("Content-Disposition"))
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 2 || !strings.HasSuffix(lines[1], ",custom,50,1,2,2") {
		t.Fatalf("unexpected export body %q", rec.Body.String())
	}
}

func TestImportCSV(t *testing.T) {
	handler, service, token := newTestServer(t)
	content := csvHeader +
		"ภาษาไทย,ข้อ 1,a,b,c,d,a,หนึ่ง\n" +
		"ภาษาไทย,ข้อ 2,a,b,c,d,B,สอง\n" +
		"ภาษาไทย,ข้อ 3,a,b,c,d,x,ผิด\n"

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile(csvFormField, "questions.csv")
	if err != nil {
		t.Fatalf("CreateFormFile failed: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/import-csv", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("import status = %d, body %s", rec.Code, rec.Body.String())
	}
	var result exam.ImportResult
	decodeBody(t, rec, &result)
	if result.Success != 2 || result.Errors != 1 {
		t.Fatalf("expected 2/1, got %+v", result)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/import-csv", strings.NewReader(csvHeader+"ภาษาอังกฤษ,Q,a,b,c,d,d,x\n"))
	req.Header.Set("Content-Type", "text/csv")
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("raw import status = %d, body %s", rec.Code, rec.Body.String())
	}

	questions, err := service.ListQuestions(context.Background(), exam.QuestionFilter{})
	if err != nil {
		t.Fatalf("ListQuestions failed: %v", err)
	}
	if len(questions) != 3 {
		t.Fatalf("expected 3 imported questions, got %d", len(questions))
	}

	req = httptest.NewRequest(http.MethodPost, "/api/import-csv", strings.NewReader(content))
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous import status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestImportCSVRejectsEmptyUpload(t *testing.T) {
	handler, service, token := newTestServer(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if _, err := writer.CreateFormFile(csvFormField, "empty.csv"); err != nil {
		t.Fatalf("CreateFormFile failed: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	uploads := []struct {
		name        string
		body        io.Reader
		contentType string
	}{
		{name: "raw", body: strings.NewReader(""), contentType: "text/csv"},
		{name: "multipart", body: &body, contentType: writer.FormDataContentType()},
	}
	for _, upload := range uploads {
		req := httptest.NewRequest(http.MethodPost, "/api/import-csv", upload.body)
		req.Header.Set("Content-Type", upload.contentType)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: status = %d, want %d, body %s", upload.name, rec.Code, http.StatusBadRequest, rec.Body.String())
		}
		var resp errorResponse
		decodeBody(t, rec, &resp)
		if resp.Error != "no CSV file uploaded" {
			t.Fatalf("%s: unexpected error %q", upload.name, resp.Error)
		}
	}

	questions, err := service.ListQuestions(context.Background(), exam.QuestionFilter{})
	if err != nil {
		t.Fatalf("ListQuestions failed: %v", err)
	}
	if len(questions) != 0 {
		t.Fatalf("expected no questions, got %d", len(questions))
	}
}

func TestAdminLoginAndStats(t *testing.T) {
	handler, service, _ := newTestServer(t)
	seedQuestions(t, service, exam.CategoryThai, 2)

	rec := doRequest(t, handler, http.MethodPost, "/api/admin/login", "", jsonBody(t, loginRequest{Username: "admin", Password: "wrong"}))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	var failed loginResponse
	decodeBody(t, rec, &failed)
	if failed.Success || failed.Token != "" {
		t.Fatalf("unexpected failed login payload: %+v", failed)
	}

	rec = doRequest(t, handler, http.MethodPost, "/api/admin/login", "", jsonBody(t, loginRequest{Username: "admin", Password: "s3cret"}))
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}
	var login loginResponse
	decodeBody(t, rec, &login)
	if !login.Success || login.Token == "" {
		t.Fatalf("unexpected login payload: %+v", login)
	}

	rec = doRequest(t, handler, http.MethodGet, "/api/admin/stats", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous stats status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	rec = doRequest(t, handler, http.MethodGet, "/api/admin/stats", login.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats status = %d", rec.Code)
	}
	var stats exam.Stats
	decodeBody(t, rec, &stats)
	if stats.TotalQuestions != 2 || stats.TotalExams != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestAdminRoutesDisabledWithoutVerifier(t *testing.T) {
	handler := NewRouter(exam.NewService(exam.NewMemoryStore(), nil))

	rec := doRequest(t, handler, http.MethodGet, "/api/admin/stats", "anything", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	rec = doRequest(t, handler, http.MethodPost, "/api/admin/login", "", jsonBody(t, loginRequest{Username: "admin", Password: "x"}))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("login status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestCategoriesHealthAndMetrics(t *testing.T) {
	handler, _, _ := newTestServer(t)

	rec := doRequest(t, handler, http.MethodGet, "/api/categories", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("categories status = %d", rec.Code)
	}
	var categories categoriesResponse
	decodeBody(t, rec, &categories)
	if len(categories.Categories) != len(exam.DefaultCategories()) || len(categories.Difficulties) != 3 {
		t.Fatalf("unexpected categories payload: %+v", categories)
	}

	rec = doRequest(t, handler, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("health status = %d", rec.Code)
	}

	rec = doRequest(t, handler, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "exam_http_requests_total") {
		t.Fatalf("expected request counter in metrics output")
	}
}

func TestScoreMetricLabelsStayBounded(t *testing.T) {
	handler, _, _ := newTestServer(t)

	examTypes := []string{"full", " FULL ", "custom", "exam_set", "weekly-quiz", "x\"y", "ทดลอง", "full-2"}
	for idx := 0; idx < 50; idx++ {
		examTypes = append(examTypes, fmt.Sprintf("random-%d", idx))
	}
	for _, examType := range examTypes {
		rec := doRequest(t, handler, http.MethodPost, "/api/scores", "", jsonBody(t, map[string]any{
			"totalQuestions": 2, "correctAnswers": 1, "examType": examType,
		}))
		if rec.Code != http.StatusCreated {
			t.Fatalf("submit %q status = %d, body %s", examType, rec.Code, rec.Body.String())
		}
	}

	rec := doRequest(t, handler, http.MethodGet, "/metrics", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	want := map[string]string{
		`exam_scores_submitted_total{exam_type="full"}`:     "2",
		`exam_scores_submitted_total{exam_type="custom"}`:   "1",
		`exam_scores_submitted_total{exam_type="exam_set"}`: "1",
		`exam_scores_submitted_total{exam_type="other"}`:    "54",
	}
	got := make(map[string]string)
	for _, line := range strings.Split(rec.Body.String(), "\n") {
		if !strings.HasPrefix(line, "exam_scores_submitted_total{") {
			continue
		}
		series, value, _ := strings.Cut(line, " ")
		got[series] = value
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d exam_type series, got %v", len(want), got)
	}
	for series, value := range want {
		if got[series] != value {
			t.Fatalf("%s = %q, want %q (all: %v)", series, got[series], value, got)
		}
	}
}

func TestScoreLabel(t *testing.T) {
	cases := map[string]string{
		"full":      "full",
		" Custom ":  "custom",
		"EXAM_SET":  "exam_set",
		"":          "other",
		"midterm":   "other",
		"full\nset": "other",
	}
	for input, want := range cases {
		if got := scoreLabel(input); got != want {
			t.Fatalf("scoreLabel(%q) = %q, want %q", input, got, want)
		}
	}
}
