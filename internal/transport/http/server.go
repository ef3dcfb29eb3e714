package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Mutua-sr/apptwo-sub001/internal/auth"
	"github.com/Mutua-sr/apptwo-sub001/internal/calls"
	"github.com/Mutua-sr/apptwo-sub001/internal/config"
	"github.com/Mutua-sr/apptwo-sub001/internal/core"
)

// Deps aggregates what the HTTP layer needs from the rest of the system.
type Deps struct {
	Hub      *core.Hub
	Messages *core.MessageRelay
	Signals  *core.SignalRelay
	Calls    *calls.Service
	Auth     *auth.Service
	Resolver auth.Resolver
}

// NewServer builds the HTTP server: REST API, admin endpoints, and the
// websocket entry point.
func NewServer(deps Deps, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	api := NewAPIHandlers(deps.Auth, deps.Hub.Presence(), logger)
	admin := NewAdminHandlers(deps.Calls, logger)
	ws := NewWSHandler(deps, logger)

	router.GET("/health", func(c *gin.Context) {
		c.String(stdhttp.StatusOK, "ok")
	})

	router.POST("/api/register", api.Register)
	router.POST("/api/login", api.Login)

	authorized := router.Group("/api", AuthMiddleware(deps.Resolver, logger))
	authorized.GET("/presence/:user_id", api.GetPresence)

	router.POST("/api/admin/cleanup", AdminMiddleware(cfg.AdminToken, logger), admin.Cleanup)

	router.GET("/ws", gin.WrapH(ws))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
