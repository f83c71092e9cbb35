package httpapi

import (
	"bytes"
	"log"
	"net/http"
	"strings"
	"time"
)

const maxLoggedBodyBytes = 512

// statusRecorder captures the status code and size of a response, and keeps
// the first maxLogBytes of the body so failed requests can be logged.
type statusRecorder struct {
	http.ResponseWriter
	statusCode   int
	maxLogBytes  int
	bytesWritten int
	logBody      bytes.Buffer
	truncated    bool
	wroteHeader  bool
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	if !r.wroteHeader {
		r.statusCode = statusCode
		r.wroteHeader = true
	}
	r.ResponseWriter.WriteHeader(statusCode)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	r.wroteHeader = true
	if remaining := r.maxLogBytes - r.logBody.Len(); remaining > 0 {
		if len(p) > remaining {
			r.logBody.Write(p[:remaining])
			r.truncated = true
		} else {
			r.logBody.Write(p)
		}
	} else if len(p) > 0 && r.maxLogBytes > 0 {
		r.truncated = true
	}

	written, err := r.ResponseWriter.Write(p)
	r.bytesWritten += written
	return written, err
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
			maxLogBytes:    maxLoggedBodyBytes,
		}

		next.ServeHTTP(recorder, r)

		duration := time.Since(start)
		if recorder.statusCode >= http.StatusInternalServerError {
			body := strings.TrimSpace(recorder.logBody.String())
			if recorder.truncated {
				body += "...(truncated)"
			}
			log.Printf("%s %s -> %d (%d bytes, %s) body=%s", r.Method, r.URL.Path, recorder.statusCode, recorder.bytesWritten, duration, body)
			return
		}
		log.Printf("%s %s -> %d (%d bytes, %s)", r.Method, r.URL.Path, recorder.statusCode, recorder.bytesWritten, duration)
	})
}

// requireAdmin rejects requests without a valid admin bearer token.
func (a *API) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if a.tokens == nil {
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "admin access is disabled"})
			return
		}

		header := strings.TrimSpace(r.Header.Get("Authorization"))
		token, found := strings.CutPrefix(header, "Bearer ")
		token = strings.TrimSpace(token)
		if !found || token == "" {
			w.Header().Set("WWW-Authenticate", `Bearer realm="admin"`)
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "admin token required"})
			return
		}

		if _, err := a.tokens.Verify(token); err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="admin", error="invalid_token"`)
			writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "invalid or expired token"})
			return
		}
		next(w, r)
	}
}
