package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAuthMiddleware(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		key       string
		header    string
		wantCode  int
		wantError string
		challenge string
	}{
		{name: "disabled", key: "", header: "", wantCode: http.StatusOK},
		{name: "disabled ignores header", key: "", header: "Bearer anything", wantCode: http.StatusOK},
		{name: "missing", key: "secret", wantCode: http.StatusUnauthorized, wantError: "authorization required", challenge: `realm="sbke"`},
		{name: "wrong token", key: "secret", header: "Bearer nope", wantCode: http.StatusUnauthorized, wantError: "invalid token", challenge: `error="invalid_token"`},
		{name: "prefix of key", key: "secret", header: "Bearer secre", wantCode: http.StatusUnauthorized, wantError: "invalid token"},
		{name: "basic scheme", key: "secret", header: "Basic dXNlcjpwYXNz", wantCode: http.StatusUnauthorized, wantError: "authorization required"},
		{name: "correct", key: "secret", header: "Bearer secret", wantCode: http.StatusOK},
		{name: "lowercase scheme", key: "secret", header: "bearer secret", wantCode: http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodPost, "/api/summarize", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			authMiddleware(tc.key, okHandler).ServeHTTP(w, req)

			if w.Code != tc.wantCode {
				t.Fatalf("want %d, got %d", tc.wantCode, w.Code)
			}
			if tc.wantCode == http.StatusOK {
				return
			}
			if got := decodeBody[errorResponse](t, w).Error; got != tc.wantError {
				t.Errorf("error: want %q, got %q", tc.wantError, got)
			}
			if ch := w.Header().Get("WWW-Authenticate"); !strings.HasPrefix(ch, "Bearer") || !strings.Contains(ch, tc.challenge) {
				t.Errorf("WWW-Authenticate: want Bearer challenge containing %q, got %q", tc.challenge, ch)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Bearer abc":         "abc",
		"BEARER abc":         "abc",
		"Bearer  padded ":    "padded",
		"Basic dXNlcjpwYXNz": "",
		"Bearer":             "",
		"abc":                "",
		"":                   "",
	}
	for header, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		if got := bearerToken(req); got != want {
			t.Errorf("header=%q: want %q, got %q", header, want, got)
		}
	}
}
