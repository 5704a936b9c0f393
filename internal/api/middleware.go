package api

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"

	"todopro/internal/auth"
	"todopro/internal/model"
)

// UserContextKey is the key used to store the authenticated user in the Fiber context.
const UserContextKey = "user"

// TokenValidator checks access tokens.
type TokenValidator interface {
	ValidateAccessToken(token string) (*auth.Claims, error)
}

// UserLoader resolves the user named by a token.
type UserLoader interface {
	GetUser(ctx context.Context, userID uint) (*model.User, error)
}

// AuthMiddleware validates the bearer token and loads its user. Admin rights are read
// from the stored user, not from the token.
func AuthMiddleware(tokens TokenValidator, users UserLoader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return unauthorized(c, "Authorization header is required")
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			return unauthorized(c, "Invalid authorization header format. Use: Bearer <token>")
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			return unauthorized(c, "Token is required")
		}

		claims, err := tokens.ValidateAccessToken(token)
		if err != nil {
			return unauthorized(c, "Invalid or expired token")
		}

		user, err := users.GetUser(c.UserContext(), claims.UserID)
		if err != nil {
			return unauthorized(c, "User not found")
		}

		c.Locals(UserContextKey, user)
		return c.Next()
	}
}

// currentUser returns the user stored by AuthMiddleware.
func currentUser(c *fiber.Ctx) *model.User {
	user, _ := c.Locals(UserContextKey).(*model.User)
	return user
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
		Error:   "unauthorized",
		Message: message,
	})
}

// visitorTTL is how long an idle client IP keeps its limiter.
const visitorTTL = 3 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipLimiters keeps one limiter per client IP and drops the ones idle for longer than ttl.
type ipLimiters struct {
	mu        sync.Mutex
	visitors  map[string]*visitor
	r         rate.Limit
	b         int
	ttl       time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func newIPLimiters(r rate.Limit, b int, ttl time.Duration, now func() time.Time) *ipLimiters {
	return &ipLimiters{
		visitors: make(map[string]*visitor),
		r:        r,
		b:        b,
		ttl:      ttl,
		now:      now,
	}
}

func (l *ipLimiters) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.ttl {
		for key, v := range l.visitors {
			if now.Sub(v.lastSeen) >= l.ttl {
				delete(l.visitors, key)
			}
		}
		l.lastSweep = now
	}

	v, exists := l.visitors[ip]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(l.r, l.b)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

func (l *ipLimiters) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

// RateLimiter allows r requests per second with bursts of b per client IP.
func RateLimiter(r rate.Limit, b int) fiber.Handler {
	limiters := newIPLimiters(r, b, visitorTTL, time.Now)

	return func(c *fiber.Ctx) error {
		if !limiters.get(c.IP()).Allow() {
			return c.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse{
				Error:   "rate_limited",
				Message: "Rate limit exceeded",
			})
		}
		return c.Next()
	}
}
