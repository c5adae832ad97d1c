package security

import (
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"campusportal/internal/config"
	"campusportal/internal/kms"
)

var (
	// Interaction writes are cheap but user-triggered; keep a per-IP cap so a
	// stuck client cannot hammer the results store.
	requestsPerMinute = 60
	rateLimiters      = make(map[string]*rate.Limiter)
	rateLimitMutex    sync.Mutex
)

// InitSecurity prepares the KMS-backed answer encryption and its rotation
// schedule, plus the per-IP limiter for interaction routes.
func InitSecurity() error {
	initRateLimiters()

	if err := config.InitKMS(); err != nil {
		return err
	}

	if err := kms.InitRotation(); err != nil {
		return err
	}

	return nil
}

// RateLimiter caps interaction writes per client IP.
func RateLimiter(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ip := c.RealIP()

		rateLimitMutex.Lock()
		limiter, exists := rateLimiters[ip]
		if !exists {
			limiter = rate.NewLimiter(rate.Limit(requestsPerMinute), requestsPerMinute)
			rateLimiters[ip] = limiter
		}
		rateLimitMutex.Unlock()

		if !limiter.Allow() {
			return c.JSON(http.StatusTooManyRequests, map[string]string{
				"error": "Rate limit exceeded. Please try again later.",
			})
		}

		return next(c)
	}
}

func initRateLimiters() {
	rateLimitMutex.Lock()
	defer rateLimitMutex.Unlock()
	rateLimiters = make(map[string]*rate.Limiter)
}
