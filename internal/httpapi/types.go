package httpapi

import "mock-exam/internal/exam"

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

type categoriesResponse struct {
	Categories   []exam.Category   `json:"categories"`
	Difficulties []exam.Difficulty `json:"difficulties"`
}

type healthResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Error string `json:"error"`
}
