package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/seu-repo/sigeb/internal/domain"
)

// AuthRequired extracts the rider identity from a bearer token. Credential
// issuance lives outside this core; here the token is only parsed and its
// signature checked.
func AuthRequired(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return domain.E(domain.KindUnauthorized, "missing authorization header")
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return domain.E(domain.KindUnauthorized, "invalid authorization header format")
		}

		token, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, domain.E(domain.KindUnauthorized, "unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return domain.E(domain.KindUnauthorized, "invalid or expired token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return domain.E(domain.KindUnauthorized, "invalid token claims")
		}
		sub, _ := claims["sub"].(string)
		if sub == "" {
			return domain.E(domain.KindUnauthorized, "token missing subject")
		}

		c.Locals("user_id", sub)

		return c.Next()
	}
}
