package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"minddrag/config"
	"minddrag/models"
	"minddrag/utils"
)

// Protected requires a valid bearer token and stores the resolved user in
// c.Locals("user"). Requests without valid credentials get 401.
func Protected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := bearerToken(c)
		if !ok {
			c.Set("WWW-Authenticate", `Bearer realm="`+config.AppConfig.AuthRealm+`"`)
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Authorization required",
			})
		}

		user, err := resolveUser(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		c.Locals("user", user)
		return c.Next()
	}
}

// OptionalAuth resolves the user when credentials are present but lets
// anonymous requests through with a nil principal. Endpoints behind it must
// treat a missing "user" local as the anonymous principal.
func OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token, ok := bearerToken(c); ok {
			if user, err := resolveUser(token); err == nil {
				c.Locals("user", user)
			}
		}
		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	authHeader := c.Get("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && parts[0] == "Bearer" {
			return parts[1], true
		}
		return "", false
	}

	// Fall back to cookie if header not present
	if token := c.Cookies("access_token"); token != "" {
		return token, true
	}
	return "", false
}

func resolveUser(token string) (*models.User, error) {
	claims, err := utils.ParseJWTToken(token)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
	}

	var user models.User
	if err := config.DB.First(&user, claims.UserID).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "User not found")
	}

	if !user.IsActive {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Account is not active")
	}

	return &user, nil
}
