package http

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nurpe/carmate-contracts/internal/http/middleware"
)

func NewRouter(handler *Handler, authMiddleware gin.HandlerFunc, env string, corsOrigins []string) *gin.Engine {
	if !isDevelopment(env) {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(handler.log))
	router.Use(middleware.CORS(corsOrigins))

	handler.Register(router, authMiddleware)
	return router
}

func isDevelopment(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "development", "dev", "local", "test":
		return true
	default:
		return false
	}
}
