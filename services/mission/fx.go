package mission

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"earnplay-core/pkg/middleware"
)

var Module = fx.Module("mission.service",
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
	api.GET("/missions", p.Service.getMissions)
	api.POST("/missions/:id/complete", p.Service.postComplete)
}
