package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/docecostura/internal/config"
	"github.com/example/docecostura/internal/utils"
)

const identityContextKey = "currentIdentity"

// Identity is the outcome of token verification for one request. Verified is
// false for missing, malformed and expired tokens alike; UserID is only
// meaningful when Verified is true.
type Identity struct {
	Verified bool
	UserID   uuid.UUID
}

// IdentityMiddleware verifies the bearer token when one is present and
// records the outcome. It never rejects a request: endpoints decide whether
// an unverified identity is acceptable.
func IdentityMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(identityContextKey, resolveIdentity(c, cfg.JWTSecret))
		return c.Next()
	}
}

func resolveIdentity(c *fiber.Ctx, secret string) Identity {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return Identity{}
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return Identity{}
	}

	userID, err := utils.ParseToken(secret, parts[1])
	if err != nil {
		return Identity{}
	}

	return Identity{Verified: true, UserID: userID}
}

// CurrentIdentity extracts the verification outcome from context.
func CurrentIdentity(c *fiber.Ctx) Identity {
	if id, ok := c.Locals(identityContextKey).(Identity); ok {
		return id
	}
	return Identity{}
}

// RequireUser returns the verified user id or a 401 error for the handler to
// bubble up.
func RequireUser(c *fiber.Ctx) (uuid.UUID, error) {
	identity := CurrentIdentity(c)
	if !identity.Verified {
		return uuid.Nil, fiber.NewError(fiber.StatusUnauthorized, "authentication required")
	}
	return identity.UserID, nil
}
