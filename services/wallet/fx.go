package wallet

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"

	"earnplay-core/pkg/middleware"
)

var Module = fx.Module("wallet.service",
	fx.Provide(NewService),
	fx.Invoke(registerRoutes),
)

// WorkerModule exposes the ledger without HTTP routes for the worker
// binary and consumes the withdrawal reconcile queue.
var WorkerModule = fx.Module("wallet.worker",
	fx.Provide(NewService),
	fx.Invoke(registerTaskHandlers),
)

type routeParams struct {
	fx.In

	Engine  *gin.Engine
	Service *Service
}

func registerRoutes(p routeParams) {
	api := p.Engine.Group("/api", middleware.Auth())
	api.GET("/wallet", p.Service.getWallet)
	api.GET("/earnings", p.Service.getEarnings)
	api.POST("/wallet/withdraw", p.Service.postWithdraw)
}
