package auth

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	limiterpkg "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

var (
	Validate    *validator.Validate
	RateLimiter *limiterpkg.Limiter
)

func InitSecurity() {
	Validate = validator.New()
	Validate.RegisterValidation("password", validatePassword)

	// 30 requests per minute per IP on the auth routes
	rate := limiterpkg.Rate{
		Period: 1 * time.Minute,
		Limit:  30,
	}
	store := memory.NewStore()
	RateLimiter = limiterpkg.New(store, rate)
}

func validatePassword(fl validator.FieldLevel) bool {
	password := fl.Field().String()

	if len(password) < 8 {
		return false
	}

	if !strings.ContainsAny(password, "ABCDEFGHIJKLMNOPQRSTUVWXYZ") {
		return false
	}

	if !strings.ContainsAny(password, "abcdefghijklmnopqrstuvwxyz") {
		return false
	}

	if !strings.ContainsAny(password, "0123456789") {
		return false
	}

	if !strings.ContainsAny(password, "!@#$%^&*()_+-=[]{}|;:,.<>?") {
		return false
	}

	return true
}

func ValidateEmail(email string) error {
	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	if !emailRegex.MatchString(email) {
		return errors.New("invalid email format")
	}

	if len(email) > 255 {
		return errors.New("email too long")
	}

	return nil
}

// RateLimitMiddleware applies the shared per-IP limit to auth routes.
func RateLimitMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ip := c.RealIP()
		context, err := RateLimiter.Get(c.Request().Context(), ip)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{
				"error": "rate limit error",
			})
		}

		if context.Reached {
			return c.JSON(http.StatusTooManyRequests, map[string]string{
				"error": "Rate limit exceeded. Please try again later.",
			})
		}

		return next(c)
	}
}
