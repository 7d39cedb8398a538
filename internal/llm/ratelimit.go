package llm

import (
	"time"

	"golang.org/x/time/rate"
)

// newRateLimiter creates a token bucket allowing requestsPerMinute calls, with
// a full minute's worth of burst.
func newRateLimiter(requestsPerMinute int) *rate.Limiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60 // Default to 60 requests per minute
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), requestsPerMinute)
}
