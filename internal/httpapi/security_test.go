package httpapi

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestMiddlewareSetsSecurityHeaders(t *testing.T) {
	api := newTestAPI(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()

	api.Handler().ServeHTTP(res, req)

	if got := res.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("expected X-Content-Type-Options nosniff, got %q", got)
	}
	if got := res.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("expected X-Frame-Options DENY, got %q", got)
	}
	if got := res.Header().Get("Referrer-Policy"); got == "" {
		t.Fatalf("expected Referrer-Policy to be set")
	}
}

func TestRequestIDIsEchoedOrGenerated(t *testing.T) {
	handler := newTestAPI(t).Handler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "trace-123")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if got := res.Header().Get(requestIDHeader); got != "trace-123" {
		t.Fatalf("expected caller request id to be echoed, got %q", got)
	}

	res = httptest.NewRecorder()
	handler.ServeHTTP(res, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if got := res.Header().Get(requestIDHeader); len(got) != 36 {
		t.Fatalf("expected a generated uuid, got %q", got)
	}
}

func TestJSONBodyTooLargeRejected(t *testing.T) {
	api := newTestAPI(t)
	veryLong := strings.Repeat("a", (1<<20)+1024)
	body := fmt.Sprintf(`{"widget":"kpis","data":"%s"}`, veryLong)

	req := httptest.NewRequest(http.MethodPost, "/api/ai/summarize", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()

	api.Handler().ServeHTTP(res, req)

	if res.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 for too large body, got %d", res.Code)
	}
}

func TestCORSPreflightAllowsConfiguredOrigin(t *testing.T) {
	handler := newTestAPI(t).Handler()

	req := httptest.NewRequest(http.MethodOptions, "/api/ai/summarize", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if got := res.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("expected configured origin to be allowed, got %q", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/api/ai/summarize", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if got := res.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected unknown origin to be refused, got %q", got)
	}
}

func TestIntParamFallsBack(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{"", 30},
		{"abc", 30},
		{" 45 ", 45},
		{"-5", -5},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/?days="+url.QueryEscape(tc.raw), nil)
		if got := intParam(req, "days", 30); got != tc.want {
			t.Fatalf("intParam(%q) = %d, want %d", tc.raw, got, tc.want)
		}
	}
}

func TestHoursParamRejectsOutOfRange(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?hours=8,9,24", nil)
	if _, err := hoursParam(req, "hours"); err == nil {
		t.Fatalf("expected hour 24 to be rejected")
	}

	req = httptest.NewRequest(http.MethodGet, "/?hours=22,+23,0", nil)
	hours, err := hoursParam(req, "hours")
	if err != nil || len(hours) != 3 || hours[2] != 0 {
		t.Fatalf("unexpected hours %v, err %v", hours, err)
	}
}
