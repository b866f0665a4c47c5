package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"chkin-backend/services"
	"chkin-backend/utils"
)

const actorKey = "actor"

// RequireAuth rejects requests without a valid bearer token and stores the
// caller on the context.
func RequireAuth(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			utils.JSONError(c, http.StatusUnauthorized, "missing bearer token")
			c.Abort()
			return
		}
		actor, err := auth.ParseToken(strings.TrimSpace(token))
		if err != nil {
			utils.JSONError(c, http.StatusUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

// RequireRole must run after RequireAuth.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			utils.JSONError(c, http.StatusUnauthorized, "not authenticated")
			c.Abort()
			return
		}
		for _, r := range roles {
			if actor.Role == r {
				c.Next()
				return
			}
		}
		utils.JSONError(c, http.StatusForbidden, "insufficient role")
		c.Abort()
	}
}

func ActorFrom(c *gin.Context) (services.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return services.Actor{}, false
	}
	actor, ok := v.(services.Actor)
	return actor, ok
}
