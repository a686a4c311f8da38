package middleware

import (
	"net/http"
	"sync"
	"time"

	"stayvoucher/pkg/logger"
)

type SubjectExtractor func(r *http.Request) string

// SubjectRateLimiter throttles requests per subject identity using a sliding
// window. Requests without a subject pass through; they are rejected later by
// the handlers that require one.
type SubjectRateLimiter struct {
	mu        sync.RWMutex
	requests  map[string][]time.Time
	limit     int
	window    time.Duration
	extractor SubjectExtractor
	log       *logger.Logger
	stopCh    chan struct{}
}

func NewSubjectRateLimiter(limit int, window time.Duration, extractor SubjectExtractor, log *logger.Logger) *SubjectRateLimiter {
	limiter := &SubjectRateLimiter{
		requests:  make(map[string][]time.Time),
		limit:     limit,
		window:    window,
		extractor: extractor,
		log:       log,
		stopCh:    make(chan struct{}),
	}

	go limiter.cleanup()

	return limiter
}

func (rl *SubjectRateLimiter) cleanup() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			for subject, timestamps := range rl.requests {
				if len(timestamps) == 0 || time.Since(timestamps[len(timestamps)-1]) > rl.window {
					delete(rl.requests, subject)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *SubjectRateLimiter) Stop() {
	close(rl.stopCh)
}

func (rl *SubjectRateLimiter) Allow(subject string) bool {
	if subject == "" {
		return true
	}

	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	valid := make([]time.Time, 0, len(rl.requests[subject]))
	for _, ts := range rl.requests[subject] {
		if now.Sub(ts) < rl.window {
			valid = append(valid, ts)
		}
	}

	if len(valid) >= rl.limit {
		rl.requests[subject] = valid
		return false
	}

	rl.requests[subject] = append(valid, now)
	return true
}

func SubjectRateLimit(limiter *SubjectRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := ""
			if limiter.extractor != nil {
				subject = limiter.extractor(r)
			} else {
				subject = r.Header.Get(SubjectHeader)
			}

			if subject == "" || limiter.Allow(subject) {
				next.ServeHTTP(w, r)
				return
			}

			limiter.log.Warn("Rate limit exceeded",
				"request_id", requestIDFrom(r.Context()),
				"subject_id", subject,
				"path", r.URL.Path,
			)

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"Rate limit exceeded"}`))
		})
	}
}

func DefaultSubjectExtractor(r *http.Request) string {
	return r.Header.Get(SubjectHeader)
}
