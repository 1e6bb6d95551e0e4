// Package auth decides whether an API request may proceed.
package auth

import (
	"crypto/subtle"
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

// Header carries the shared secret.
const Header = "X-API-Key"

// Policy authorizes a request from its presented key.
type Policy interface {
	Allow(presented string) bool
	Name() string
}

// Disabled accepts every request.
type Disabled struct{}

func (Disabled) Allow(string) bool { return true }
func (Disabled) Name() string      { return "disabled" }

// SharedSecret accepts requests presenting exactly the configured secret.
type SharedSecret struct {
	secret []byte
}

// NewSharedSecret returns a policy checking against secret.
func NewSharedSecret(secret string) SharedSecret {
	return SharedSecret{secret: []byte(secret)}
}

func (p SharedSecret) Allow(presented string) bool {
	return subtle.ConstantTimeCompare([]byte(presented), p.secret) == 1
}

func (SharedSecret) Name() string { return "shared-secret" }

// FromKey picks the policy for the configured API key. An empty key
// disables the check, which is logged as a warning.
func FromKey(key string, logger *slog.Logger) Policy {
	if key == "" {
		logger.Warn("no API key configured, authentication is disabled")
		return Disabled{}
	}
	return NewSharedSecret(key)
}

// Middleware rejects requests the policy does not allow with 401.
func Middleware(p Policy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !p.Allow(c.Get(Header)) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"status":  fiber.StatusUnauthorized,
				"message": "missing or invalid " + Header,
			})
		}
		return c.Next()
	}
}
