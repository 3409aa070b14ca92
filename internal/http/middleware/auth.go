package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nurpe/carmate-contracts/internal/model"
)

const actorKey = "actor"

type TokenParser interface {
	Parse(token string) (model.Actor, error)
}

// Auth rejects requests without a valid bearer access token and stores the
// resolved actor on the context.
func Auth(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if len(header) < 7 || !strings.EqualFold(header[:7], "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid token"})
			return
		}
		actor, err := parser.Parse(strings.TrimSpace(header[7:]))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

func MustActor(c *gin.Context) (model.Actor, bool) {
	value, ok := c.Get(actorKey)
	if !ok {
		return model.Actor{}, false
	}
	actor, ok := value.(model.Actor)
	return actor, ok
}
