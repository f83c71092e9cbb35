package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStatusRecorderWriteTracksAndTruncates(t *testing.T) {
	base := httptest.NewRecorder()
	recorder := &statusRecorder{
		ResponseWriter: base,
		statusCode:     http.StatusOK,
		maxLogBytes:    10,
	}

	payload := []byte("abcdefghijklmnopqrstuvwxyz")
	written, err := recorder.Write(payload)
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if written != len(payload) {
		t.Fatalf("written bytes = %d, want %d", written, len(payload))
	}
	if recorder.bytesWritten != len(payload) {
		t.Fatalf("bytesWritten = %d, want %d", recorder.bytesWritten, len(payload))
	}
	if recorder.logBody.Len() != 10 {
		t.Fatalf("log body length = %d, want 10", recorder.logBody.Len())
	}
	if !recorder.truncated {
		t.Fatalf("expected truncated flag to be true")
	}
}

func TestStatusRecorderKeepsFirstStatus(t *testing.T) {
	base := httptest.NewRecorder()
	recorder := &statusRecorder{ResponseWriter: base, statusCode: http.StatusOK, maxLogBytes: 64}

	recorder.WriteHeader(http.StatusTeapot)
	recorder.WriteHeader(http.StatusInternalServerError)
	if _, err := recorder.Write([]byte("short")); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	if recorder.statusCode != http.StatusTeapot {
		t.Fatalf("statusCode = %d, want %d", recorder.statusCode, http.StatusTeapot)
	}
	if recorder.truncated || recorder.logBody.String() != "short" {
		t.Fatalf("unexpected log body %q (truncated=%v)", recorder.logBody.String(), recorder.truncated)
	}
}

func TestRouterUnknownRouteAndMethod(t *testing.T) {
	handler, _, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodDelete, "/api/scores"},
		{http.MethodPut, "/api/scores/export"},
		{http.MethodGet, "/api/import-csv"},
		{http.MethodPost, "/healthz"},
	} {
		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Fatalf("%s %s: status = %d, want %d", tc.method, tc.path, rec.Code, http.StatusMethodNotAllowed)
		}
		var resp errorResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil || resp.Error != "method not allowed" {
			t.Fatalf("%s %s: unexpected body %q (%v)", tc.method, tc.path, rec.Body.String(), err)
		}
	}
}
