package userclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"mock-exam/internal/exam"
)

var ErrServiceUnavailable = errors.New("exam service unavailable")

type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return e.Message
}

// HTTPClient talks to the exam service REST API. Admin calls reuse the token
// obtained through Login.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// GeneratedExam is a freshly drawn exam plus the server's advisory headers.
type GeneratedExam struct {
	Questions []exam.Question
	Warnings  []string
	Duration  time.Duration
}

type categoriesResponse struct {
	Categories []exam.Category `json:"categories"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewHTTPClient(baseURL string, httpClient *http.Client) *HTTPClient {
	baseURL = strings.TrimSpace(baseURL)
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = defaultServer
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &HTTPClient{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

func (c *HTTPClient) Categories(ctx context.Context) ([]exam.Category, error) {
	var payload categoriesResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/categories", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Categories, nil
}

func (c *HTTPClient) ListExamSets(ctx context.Context) ([]exam.ExamSet, error) {
	var sets []exam.ExamSet
	if err := c.doJSON(ctx, http.MethodGet, "/api/exam-sets", nil, &sets); err != nil {
		return nil, err
	}
	return sets, nil
}

func (c *HTTPClient) GenerateExam(ctx context.Context, request exam.ExamRequest) (GeneratedExam, error) {
	encoded, err := json.Marshal(request)
	if err != nil {
		return GeneratedExam{}, err
	}

	response, err := c.do(ctx, http.MethodPost, "/api/mock-exam", "application/json", bytes.NewReader(encoded))
	if err != nil {
		return GeneratedExam{}, err
	}
	defer response.Body.Close()

	generated := GeneratedExam{
		Warnings: response.Header.Values("X-Exam-Warning"),
		Duration: exam.DefaultExamDuration,
	}
	if seconds, err := strconv.Atoi(response.Header.Get("X-Exam-Duration-Seconds")); err == nil && seconds > 0 {
		generated.Duration = time.Duration(seconds) * time.Second
	}
	if err := json.NewDecoder(response.Body).Decode(&generated.Questions); err != nil {
		return GeneratedExam{}, err
	}
	return generated, nil
}

func (c *HTTPClient) SubmitScore(ctx context.Context, submission exam.ScoreSubmission) (exam.Score, error) {
	var score exam.Score
	if err := c.doJSON(ctx, http.MethodPost, "/api/scores", submission, &score); err != nil {
		return exam.Score{}, err
	}
	return score, nil
}

func (c *HTTPClient) ListScores(ctx context.Context, limit int) ([]exam.Score, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))

	var scores []exam.Score
	if err := c.doJSON(ctx, http.MethodGet, "/api/scores?"+query.Encode(), nil, &scores); err != nil {
		return nil, err
	}
	return scores, nil
}

// ExportScores copies the score history CSV into w.
func (c *HTTPClient) ExportScores(ctx context.Context, w io.Writer) error {
	response, err := c.do(ctx, http.MethodGet, "/api/scores/export", "", nil)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	_, err = io.Copy(w, response.Body)
	return err
}

// Login exchanges admin credentials for a bearer token and keeps it for
// later admin calls.
func (c *HTTPClient) Login(ctx context.Context, username, password string) error {
	var payload loginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/admin/login", loginRequest{Username: username, Password: password}, &payload); err != nil {
		return err
	}
	if !payload.Success || payload.Token == "" {
		return &APIError{StatusCode: http.StatusUnauthorized, Message: "invalid credentials"}
	}
	c.token = payload.Token
	return nil
}

func (c *HTTPClient) Stats(ctx context.Context) (exam.Stats, error) {
	var stats exam.Stats
	if err := c.doJSON(ctx, http.MethodGet, "/api/admin/stats", nil, &stats); err != nil {
		return exam.Stats{}, err
	}
	return stats, nil
}

func (c *HTTPClient) ImportCSV(ctx context.Context, r io.Reader) (exam.ImportResult, error) {
	response, err := c.do(ctx, http.MethodPost, "/api/import-csv", "text/csv", r)
	if err != nil {
		return exam.ImportResult{}, err
	}
	defer response.Body.Close()

	var result exam.ImportResult
	if err := json.NewDecoder(response.Body).Decode(&result); err != nil {
		return exam.ImportResult{}, err
	}
	return result, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, path string, requestBody any, responseBody any) error {
	var (
		body        io.Reader
		contentType string
	)
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
		contentType = "application/json"
	}

	response, err := c.do(ctx, method, path, contentType, body)
	if err != nil {
		return err
	}
	defer response.Body.Close()

	if responseBody == nil {
		return nil
	}
	return json.NewDecoder(response.Body).Decode(responseBody)
}

// do sends a request and turns transport failures and non-2xx statuses into
// errors. On success the caller owns the response body.
func (c *HTTPClient) do(ctx context.Context, method, path, contentType string, body io.Reader) (*http.Response, error) {
	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		request.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		request.Header.Set("Authorization", "Bearer "+c.token)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		defer response.Body.Close()
		apiErr := APIError{StatusCode: response.StatusCode}
		var payload errorResponse
		if err := json.NewDecoder(response.Body).Decode(&payload); err == nil && strings.TrimSpace(payload.Error) != "" {
			apiErr.Message = payload.Error
		}
		if apiErr.Message == "" {
			apiErr.Message = response.Status
		}
		return nil, &apiErr
	}
	return response, nil
}
