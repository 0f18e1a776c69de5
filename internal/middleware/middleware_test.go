package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestCORS(t *testing.T) {
	h := CORS([]string{"http://dash.local/"})(okHandler)

	req := httptest.NewRequest("GET", "/schedules", nil)
	req.Header.Set("Origin", "http://dash.local")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://dash.local" {
		t.Errorf("allow origin = %q", got)
	}
	if !strings.Contains(rr.Header().Get("Access-Control-Allow-Headers"), "Cache-Control") {
		t.Errorf("allow headers missing Cache-Control: %q", rr.Header().Get("Access-Control-Allow-Headers"))
	}

	req = httptest.NewRequest("GET", "/schedules", nil)
	req.Header.Set("Origin", "http://evil.local")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unexpected allow origin %q", got)
	}

	req = httptest.NewRequest("OPTIONS", "/schedules", nil)
	req.Header.Set("Origin", "http://dash.local")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d", rr.Code)
	}
}

func TestCORS_Wildcard(t *testing.T) {
	h := CORS([]string{"*"})(okHandler)
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "http://anything")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "http://anything" {
		t.Errorf("allow origin = %q", got)
	}
}

func TestMaxBytes(t *testing.T) {
	var readErr error
	h := MaxBytes(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("POST", "/schedules", strings.NewReader(`{"a":"too long"}`)))
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("declared length: got %d, want 413", rr.Code)
	}

	req := httptest.NewRequest("POST", "/schedules", io.NopCloser(strings.NewReader(`{"a":"too long"}`)))
	req.ContentLength = -1
	h.ServeHTTP(httptest.NewRecorder(), req)
	if readErr == nil {
		t.Error("expected read error past the limit")
	}
}

func TestRateLimiter(t *testing.T) {
	l := NewIPRateLimiter(rate.Limit(1.0/60.0), 2)
	h := l.Middleware(okHandler)

	codes := make([]int, 3)
	for i := range codes {
		req := httptest.NewRequest("POST", "/schedules", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes[i] = rr.Code
		if i == 2 && rr.Header().Get("Retry-After") == "" {
			t.Error("missing Retry-After")
		}
	}
	if codes[0] != 200 || codes[1] != 200 || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}

	// Another port of the same host shares the bucket; another host does not.
	req := httptest.NewRequest("POST", "/schedules", nil)
	req.RemoteAddr = "10.0.0.1:6666"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("same host other port: %d", rr.Code)
	}
	req.RemoteAddr = "10.0.0.2:5555"
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("other host: %d", rr.Code)
	}
}

func TestRateLimiter_DropsIdleBuckets(t *testing.T) {
	l := NewIPRateLimiter(rate.Limit(1), 1)
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.allow("a")
	now = now.Add(11 * time.Minute)
	l.allow("b")
	if _, ok := l.ips["a"]; ok {
		t.Error("idle bucket not dropped")
	}
}

func TestWriteRateLimiter_Disabled(t *testing.T) {
	if l := WriteRateLimiter(0); l != nil {
		t.Fatal("expected nil limiter")
	}
	var l *IPRateLimiter
	rr := httptest.NewRecorder()
	l.Middleware(okHandler).ServeHTTP(rr, httptest.NewRequest("POST", "/", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("nil limiter blocked request: %d", rr.Code)
	}
}

func TestRecoverer(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := chimw.RequestID(Recoverer(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/status", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "internal server error") {
		t.Errorf("body = %q", rr.Body.String())
	}
	if !strings.Contains(buf.String(), "panic recovered") || !strings.Contains(buf.String(), "request_id") {
		t.Errorf("log = %q", buf.String())
	}
}

func TestRequestLog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	h := RequestLog(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/boom" {
			w.WriteHeader(http.StatusBadGateway)
		}
		w.Write([]byte("hello"))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/timeline", nil))
	if !strings.Contains(buf.String(), `"status":200`) || !strings.Contains(buf.String(), `"size":5`) {
		t.Errorf("log = %q", buf.String())
	}

	buf.Reset()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/health", nil))
	if buf.Len() != 0 {
		t.Errorf("health check logged at info: %q", buf.String())
	}

	buf.Reset()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/boom", nil))
	if !strings.Contains(buf.String(), `"level":"WARN"`) || !strings.Contains(buf.String(), `"status":502`) {
		t.Errorf("log = %q", buf.String())
	}
}

func TestSecurityHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	SecurityHeaders(true, "")(okHandler).ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	if rr.Header().Get("Content-Security-Policy") != APIContentSecurityPolicy {
		t.Errorf("csp = %q", rr.Header().Get("Content-Security-Policy"))
	}
	if rr.Header().Get("Strict-Transport-Security") == "" || rr.Header().Get("X-Frame-Options") != "DENY" {
		t.Errorf("headers = %v", rr.Header())
	}

	rr = httptest.NewRecorder()
	SecurityHeaders(false, WebContentSecurityPolicy)(okHandler).ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))
	if rr.Header().Get("Strict-Transport-Security") != "" {
		t.Error("unexpected HSTS")
	}
}

func TestPrometheus_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Prometheus)
	var seen string
	r.Get("/schedules/{id}", func(w http.ResponseWriter, r *http.Request) {
		seen = chi.URLParam(r, "id")
	})
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/schedules/abc", nil))
	if rr.Code != http.StatusOK || seen != "abc" {
		t.Errorf("route not served: %d %q", rr.Code, seen)
	}
}
