package main

import (
	"log"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"earnplay-core/pkg/config"
	"earnplay-core/pkg/db"
	"earnplay-core/pkg/gen"
	"earnplay-core/pkg/logger"
	"earnplay-core/pkg/redis"
	"earnplay-core/pkg/sequence"
	"earnplay-core/pkg/task"
	"earnplay-core/services/account"
	"earnplay-core/services/referral"
	"earnplay-core/services/wallet"
)

func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		redis.Module,
		task.Client,
		task.Server,
		sequence.Module,
		gen.Module,

		wallet.WorkerModule,
		account.WorkerModule,
		referral.WorkerModule,

		fxLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	fx.New(opts...).Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})
