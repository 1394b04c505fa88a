package api

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// rateLimiter is a fixed-window per-client request throttle. It fronts
// the authentication endpoints only; stale windows are swept lazily on
// the requests that touch them.
type rateLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	message string
	clients map[string]*clientWindow
	swept   time.Time
}

type clientWindow struct {
	count int
	start time.Time
}

func newRateLimiter(max int, window time.Duration, message string) *rateLimiter {
	return &rateLimiter{
		max:     max,
		window:  window,
		message: message,
		clients: make(map[string]*clientWindow),
		swept:   time.Now(),
	}
}

// allow records a hit for key and reports whether it is within the limit
func (rl *rateLimiter) allow(key string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.swept) > rl.window {
		for k, cw := range rl.clients {
			if now.Sub(cw.start) > rl.window {
				delete(rl.clients, k)
			}
		}
		rl.swept = now
	}

	cw, ok := rl.clients[key]
	if !ok || now.Sub(cw.start) > rl.window {
		rl.clients[key] = &clientWindow{count: 1, start: now}
		return true
	}

	cw.count++
	return cw.count <= rl.max
}

// middleware rejects over-limit clients with 429
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientIP(r)) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"success":false,"message":"` + rl.message + `"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP returns the remote address without the port. RealIP
// middleware has already resolved forwarded headers by this point.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
