package middleware

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// IPRateLimiter limits requests per client IP using a token bucket per IP.
type IPRateLimiter struct {
	mu    sync.Mutex
	ips   map[string]*visitor
	limit rate.Limit
	burst int
	ttl   time.Duration
	now   func() time.Time
}

type visitor struct {
	lim  *rate.Limiter
	seen time.Time
}

// NewIPRateLimiter creates a per-IP rate limiter. limit is events per second; burst is max tokens per bucket.
// Buckets idle for longer than ten minutes are dropped.
func NewIPRateLimiter(limit rate.Limit, burst int) *IPRateLimiter {
	return &IPRateLimiter{
		ips:   make(map[string]*visitor),
		limit: limit,
		burst: burst,
		ttl:   10 * time.Minute,
		now:   time.Now,
	}
}

// WriteRateLimiter limits schedule and settings writes to perMinute per IP. Zero or less disables limiting.
func WriteRateLimiter(perMinute int) *IPRateLimiter {
	if perMinute <= 0 {
		return nil
	}
	burst := perMinute / 4
	if burst < 1 {
		burst = 1
	}
	return NewIPRateLimiter(rate.Limit(float64(perMinute)/60.0), burst)
}

func (l *IPRateLimiter) allow(ip string) (bool, time.Duration) {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()

	for k, v := range l.ips {
		if now.Sub(v.seen) > l.ttl {
			delete(l.ips, k)
		}
	}
	v, ok := l.ips[ip]
	if !ok {
		v = &visitor{lim: rate.NewLimiter(l.limit, l.burst)}
		l.ips[ip] = v
	}
	v.seen = now

	res := v.lim.ReserveN(now, 1)
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// clientIP returns the client IP from X-Forwarded-For, X-Real-IP, or RemoteAddr without the port.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// Middleware returns 429 with Retry-After when the client IP exceeds the rate.
// A nil limiter passes every request through.
func (l *IPRateLimiter) Middleware(next http.Handler) http.Handler {
	if l == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ok, wait := l.allow(clientIP(r))
		if !ok {
			secs := int(wait.Seconds())
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}
