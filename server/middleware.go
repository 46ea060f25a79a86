package server

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/juju/ratelimit"

	"github.com/rawmatterx/oncostaging/config"
	"github.com/rawmatterx/oncostaging/logging"
	"github.com/rawmatterx/oncostaging/metrics"
)

// Token bucket parameters per client.
const (
	rateLimitPerSecond = 3
	rateLimitCapacity  = 1000
)

// RealIPMiddleware extracts the real IP from X-Forwarded-For header
func RealIPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			// Take the first IP from the comma-separated list
			if idx := strings.Index(xff, ","); idx != -1 {
				xff = xff[:idx]
			}
			r.RemoteAddr = strings.TrimSpace(xff)
		} else if xrip := r.Header.Get("X-Real-IP"); xrip != "" {
			r.RemoteAddr = strings.TrimSpace(xrip)
		}
		next.ServeHTTP(w, r)
	})
}

// RequestSizeMiddleware limits the size of request headers and body
func RequestSizeMiddleware(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > cfg.MaxRequestBody {
				logging.Warn("Request body too large",
					"content_length", r.ContentLength,
					"max_allowed", cfg.MaxRequestBody,
					"remote_addr", r.RemoteAddr,
					"user_agent", r.UserAgent())

				respondWithJSON(w, http.StatusRequestEntityTooLarge, map[string]any{
					"error":   http.StatusText(http.StatusRequestEntityTooLarge),
					"message": fmt.Sprintf("Request body too large. Maximum allowed size is %d bytes", cfg.MaxRequestBody),
					"code":    http.StatusRequestEntityTooLarge,
				})
				return
			}

			// Check header size (rough estimate)
			headerSize := int64(0)
			for key, values := range r.Header {
				headerSize += int64(len(key))
				for _, value := range values {
					headerSize += int64(len(value))
				}
			}

			if headerSize > cfg.MaxHeaderSize {
				logging.Warn("Request headers too large",
					"header_size", headerSize,
					"max_allowed", cfg.MaxHeaderSize,
					"remote_addr", r.RemoteAddr,
					"user_agent", r.UserAgent())

				respondWithJSON(w, http.StatusRequestHeaderFieldsTooLarge, map[string]any{
					"error":   http.StatusText(http.StatusRequestHeaderFieldsTooLarge),
					"message": fmt.Sprintf("Request headers too large. Maximum allowed size is %d bytes", cfg.MaxHeaderSize),
					"code":    http.StatusRequestHeaderFieldsTooLarge,
				})
				return
			}

			// Bodies without a Content-Length are cut off while being read
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxRequestBody)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimiter manages per-client rate limiting
type RateLimiter struct {
	clients map[string]*ratelimit.Bucket
	mu      sync.RWMutex
	stop    chan struct{}
	once    sync.Once
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*ratelimit.Bucket),
		stop:    make(chan struct{}),
	}
}

func (rl *RateLimiter) getBucket(clientIP string) *ratelimit.Bucket {
	rl.mu.RLock()
	bucket, exists := rl.clients[clientIP]
	rl.mu.RUnlock()

	if !exists {
		rl.mu.Lock()
		if bucket, exists = rl.clients[clientIP]; !exists {
			bucket = ratelimit.NewBucketWithRate(rateLimitPerSecond, rateLimitCapacity)
			rl.clients[clientIP] = bucket
		}
		rl.mu.Unlock()
	}

	return bucket
}

// sweep removes clients whose buckets have refilled completely
func (rl *RateLimiter) sweep() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for ip, bucket := range rl.clients {
		if bucket.Available() == bucket.Capacity() {
			delete(rl.clients, ip)
		}
	}
	metrics.RateLimiterBucketsTotal.Set(float64(len(rl.clients)))
	return len(rl.clients)
}

// StartCleanup sweeps idle clients every interval until Stop is called
func (rl *RateLimiter) StartCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.sweep()
			case <-rl.stop:
				return
			}
		}
	}()
}

// Stop ends the cleanup goroutine
func (rl *RateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stop) })
}

// routeCosts prices a request by the work it triggers. Analysis runs the
// whole pipeline and may write an audit row, so it costs the most.
var routeCosts = map[string]int64{
	"/metrics":         0,
	"/health":          5,
	"/v1/cancer-types": 5,
	"/v1/stage":        10,
	"/v1/extract":      20,
	"/v1/analyze":      50,
	"/v1/audit":        20,
}

const (
	defaultTokenCost     = 5
	auditRecordTokenCost = 10
)

func getTokenCost(r *http.Request) int64 {
	if cost, ok := routeCosts[r.URL.Path]; ok {
		return cost
	}
	if strings.HasPrefix(r.URL.Path, "/v1/audit/") {
		return auditRecordTokenCost
	}
	return defaultTokenCost
}

// retryAfterSeconds is how long until the bucket holds cost tokens again.
func retryAfterSeconds(available, cost int64) int64 {
	deficit := cost - available
	if deficit <= 0 {
		return 0
	}
	return (deficit + rateLimitPerSecond - 1) / rateLimitPerSecond
}

// Handler rejects a request with 429 unless the client's bucket covers its
// whole cost. A rejected request consumes nothing.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := r.RemoteAddr
		if host, _, err := net.SplitHostPort(clientIP); err == nil {
			clientIP = host
		}

		bucket := rl.getBucket(clientIP)
		cost := getTokenCost(r)

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rateLimitCapacity))
		w.Header().Set("X-RateLimit-Rate", strconv.Itoa(rateLimitPerSecond))

		if cost > 0 {
			if _, ok := bucket.TakeMaxDuration(cost, 0); !ok {
				retry := retryAfterSeconds(bucket.Available(), cost)
				logging.Warn("Rate limit exceeded", "client_ip", clientIP, "path", r.URL.Path, "cost", cost)
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("Retry-After", strconv.FormatInt(max(retry, 1), 10))
				respondWithJSON(w, http.StatusTooManyRequests, map[string]any{
					"error":   http.StatusText(http.StatusTooManyRequests),
					"message": "Rate limit exceeded. Please try again later.",
					"code":    http.StatusTooManyRequests,
				})
				return
			}
		}

		w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(bucket.Available(), 10))
		next.ServeHTTP(w, r)
	})
}

// respondWithJSON writes a JSON response
func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			logging.Error("Failed to encode JSON response", "error", err)
		}
	}
}
