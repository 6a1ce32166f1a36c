package account

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"earnplay-core/pkg/middleware"
	"earnplay-core/services/wallet"
)

var Module = fx.Module("account.service",
	fx.Provide(NewService),
	fx.Invoke(bindRoleResolver),
	fx.Invoke(registerRoutes),
)

// WorkerModule runs the nightly pro-expiry sweep.
var WorkerModule = fx.Module("account.worker",
	fx.Provide(NewService),
	fx.Invoke(bindRoleResolver),
	fx.Invoke(registerTaskHandlers),
	fx.Invoke(startSweepScheduler),
)

func bindRoleResolver(s *Service, w *wallet.Service) {
	w.SetRoleResolver(s)
}

type routeParams struct {
	fx.In

	Engine  *gin.Engine
	Service *Service
}

func registerRoutes(p routeParams) {
	p.Engine.POST("/api/auth/register", p.Service.postRegister)

	api := p.Engine.Group("/api", middleware.Auth())
	api.GET("/auth/user", p.Service.getUser)
	api.POST("/user/upgrade-pro", p.Service.postUpgradePro)
}
