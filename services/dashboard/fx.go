package dashboard

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"earnplay-core/pkg/middleware"
)

var Module = fx.Module("dashboard.service",
	fx.Provide(NewService),
	fx.Invoke(registerRoutes),
)

type routeParams struct {
	fx.In

	Engine  *gin.Engine
	Service *Service
}

func registerRoutes(p routeParams) {
	api := p.Engine.Group("/api", middleware.Auth())
	api.GET("/dashboard/stats", p.Service.getStats)
}
