package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// do sends a synthetic request through h and returns the recorded response.
func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

// assertStatus fails the test if the recorded status code doesn't match want.
func assertStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Errorf("status = %d, want %d\nbody: %s", w.Code, want, w.Body.String())
	}
}

// assertBody fails the test if the recorded body doesn't match want exactly.
func assertBody(t *testing.T, w *httptest.ResponseRecorder, want string) {
	t.Helper()
	if got := w.Body.String(); got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
}
