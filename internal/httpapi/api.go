package httpapi

import (
	"time"

	"mock-exam/internal/auth"
	"mock-exam/internal/exam"
)

const maxUploadBytes = 10 << 20

// TokenVerifier validates admin bearer tokens.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type API struct {
	service      *exam.Service
	tokens       TokenVerifier
	metrics      *Metrics
	examDuration time.Duration
}

type Option func(*API)

// WithTokenVerifier enables the admin routes. Without it they answer 401.
func WithTokenVerifier(tokens TokenVerifier) Option {
	return func(a *API) { a.tokens = tokens }
}

func WithMetrics(metrics *Metrics) Option {
	return func(a *API) {
		if metrics != nil {
			a.metrics = metrics
		}
	}
}

// WithExamDuration sets the time limit advertised to clients with each exam.
func WithExamDuration(duration time.Duration) Option {
	return func(a *API) {
		if duration > 0 {
			a.examDuration = duration
		}
	}
}

func NewAPI(service *exam.Service, opts ...Option) *API {
	api := &API{
		service:      service,
		examDuration: exam.DefaultExamDuration,
	}
	for _, opt := range opts {
		opt(api)
	}
	if api.metrics == nil {
		api.metrics = NewMetrics()
	}
	return api
}
