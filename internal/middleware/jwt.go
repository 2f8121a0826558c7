package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/speakerhub/backend/internal/auth"
	"github.com/speakerhub/backend/internal/models"
	"github.com/speakerhub/backend/pkg/response"
)

// ContextIdentity is the key for the caller identity in gin context.
const ContextIdentity = "identity"

// TokenValidator resolves a bearer token to claims.
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// JWT returns a middleware that validates the bearer token and stores the caller identity.
// Every failure answers the same 401 so callers cannot tell why a token was rejected.
func JWT(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Unauthorized(c, "unauthorized")
			c.Abort()
			return
		}
		claims, err := validator.Validate(token)
		if err != nil {
			response.Unauthorized(c, "unauthorized")
			c.Abort()
			return
		}
		c.Set(ContextIdentity, claims.Identity())
		c.Next()
	}
}

// Caller returns the identity stored by JWT. ok is false on routes without the middleware.
func Caller(c *gin.Context) (models.Identity, bool) {
	v, ok := c.Get(ContextIdentity)
	if !ok {
		return models.Identity{}, false
	}
	id, ok := v.(models.Identity)
	return id, ok
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// MustCaller is Caller for handlers mounted behind JWT. It answers 401 and returns false when no identity is set.
func MustCaller(c *gin.Context) (models.Identity, bool) {
	id, ok := Caller(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
	}
	return id, ok
}
