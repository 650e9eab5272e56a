package middleware

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/fitness-tracker-api/internal/utils"
)

// Locals keys set by JWTProtected.
const (
	LocalUserID   = "user_id"
	LocalUserRole = "user_role"
)

// AccessClaims is the claim set of every bearer token the API issues. The
// subject holds the numeric account id.
type AccessClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// UserID parses the subject as an account id.
func (c AccessClaims) UserID() (uint, bool) {
	id, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// JWTProtected returns a middleware that validates HS256 bearer tokens and
// stores the account id and role in the request locals.
func JWTProtected(secret string) fiber.Handler {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	keyFunc := func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}

	return func(c *fiber.Ctx) error {
		authorization := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
		if authorization == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}

		scheme, tokenString, found := strings.Cut(authorization, " ")
		if !found || !strings.EqualFold(scheme, "bearer") {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid authorization header")
		}

		var claims AccessClaims
		if _, err := parser.ParseWithClaims(strings.TrimSpace(tokenString), &claims, keyFunc); err != nil {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		userID, ok := claims.UserID()
		role := strings.ToLower(strings.TrimSpace(claims.Role))
		if !ok || role == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token claims")
		}

		c.Locals(LocalUserID, userID)
		c.Locals(LocalUserRole, role)
		return c.Next()
	}
}

// UserID returns the authenticated account id, zero when absent.
func UserID(c *fiber.Ctx) uint {
	id, _ := c.Locals(LocalUserID).(uint)
	return id
}

// UserRole returns the authenticated role, empty when absent.
func UserRole(c *fiber.Ctx) string {
	role, _ := c.Locals(LocalUserRole).(string)
	return role
}
