package middleware

import (
	"log"
	"net/http"

	"worklog/models"
	"worklog/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const actorContextKey = "actor"

// ResolveActor resolves the acting user from the X-User-ID header and stores
// it on the request context. Requests without the header act as the default
// admin user, which keeps local and scripted use simple.
func ResolveActor(users ports.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("X-User-ID")
		if header == "" {
			actor, err := users.GetOrCreateDefaultUser(c.Request.Context())
			if err != nil {
				log.Printf("[ResolveActor] default user lookup failed: %v", err)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "could not resolve acting user"})
				return
			}
			c.Set(actorContextKey, actor)
			c.Next()
			return
		}

		userID, err := uuid.Parse(header)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "X-User-ID must be a UUID"})
			return
		}
		actor, err := users.GetByID(c.Request.Context(), userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
			return
		}
		c.Set(actorContextKey, actor)
		c.Next()
	}
}

// Actor returns the acting user stored by ResolveActor.
func Actor(c *gin.Context) *models.User {
	if v, ok := c.Get(actorContextKey); ok {
		if actor, ok := v.(*models.User); ok {
			return actor
		}
	}
	return nil
}
