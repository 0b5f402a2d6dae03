package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
)

func newRouter(token string, origins []string) *mux.Router {
	router := mux.NewRouter()
	Register(router, token, origins)
	ok := func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }
	router.HandleFunc("/health", ok)
	router.HandleFunc("/analyze", ok).Methods("POST", "OPTIONS")
	return router
}

func TestAuth(t *testing.T) {
	router := newRouter("s3cret", nil)

	tests := []struct {
		name   string
		method string
		target string
		header string
		want   int
	}{
		{"health is open", "GET", "/health", "", http.StatusOK},
		{"missing token", "POST", "/analyze", "", http.StatusUnauthorized},
		{"wrong token", "POST", "/analyze", "Bearer nope", http.StatusUnauthorized},
		{"bearer token", "POST", "/analyze", "Bearer s3cret", http.StatusOK},
		{"query token", "POST", "/analyze?token=s3cret", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestAuth_Disabled(t *testing.T) {
	w := httptest.NewRecorder()
	newRouter("", nil).ServeHTTP(w, httptest.NewRequest("POST", "/analyze", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORS(t *testing.T) {
	router := newRouter("", []string{"https://app.example"})

	req := httptest.NewRequest(http.MethodOptions, "/analyze", nil)
	req.Header.Set("Origin", "https://app.example")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://app.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/analyze", nil)
	req.Header.Set("Origin", "https://evil.example")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestLoggerMiddleware(t *testing.T) {
	nextCalled := false
	handler := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.True(t, nextCalled)
	assert.Equal(t, http.StatusTeapot, w.Code)
}

func TestRecovererMiddleware_Panic(t *testing.T) {
	handler := Recoverer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("test panic")
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
