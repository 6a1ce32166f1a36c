package referral

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"earnplay-core/pkg/middleware"
)

var Module = fx.Module("referral.service",
	fx.Provide(NewService),
	fx.Invoke(registerRoutes),
)

// WorkerModule consumes the referral lifecycle queue.
var WorkerModule = fx.Module("referral.worker",
	fx.Provide(NewService, NewWorker),
	fx.Invoke(registerTaskHandlers),
)

type routeParams struct {
	fx.In

	Engine  *gin.Engine
	Service *Service
}

func registerRoutes(p routeParams) {
	api := p.Engine.Group("/api", middleware.Auth())
	api.GET("/referrals", p.Service.getReferrals)
}
