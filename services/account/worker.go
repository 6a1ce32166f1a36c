package account

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"earnplay-core/pkg/task"
	"earnplay-core/pkg/taskname"
)

func registerTaskHandlers(mux *asynq.ServeMux, s *Service) {
	mux.HandleFunc(taskname.AccountProExpirySweep, s.HandleProExpirySweep)
}

func (s *Service) HandleProExpirySweep(ctx context.Context, t *asynq.Task) error {
	demoted, err := s.ExpireLapsedPro(ctx)
	if err != nil {
		zap.L().Error("pro expiry sweep failed", zap.Error(err))
		return err
	}

	zap.L().Info("pro expiry sweep finished", zap.Int("demoted", demoted))
	return nil
}

// startSweepScheduler enqueues the sweep once a day at 01:00 server
// time.
func startSweepScheduler(lc fx.Lifecycle, enqueuer task.Enqueuer) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go runSweepLoop(ctx, enqueuer)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}

func runSweepLoop(ctx context.Context, enqueuer task.Enqueuer) {
	zap.L().Info("[Scheduler] started pro expiry scheduler")

	for {
		now := time.Now()
		next := time.Date(now.Year(), now.Month(), now.Day(), 1, 0, 0, 0, now.Location())
		if !next.After(now) {
			next = next.AddDate(0, 0, 1)
		}

		select {
		case <-time.After(next.Sub(now)):
			if _, err := enqueuer.Enqueue(asynq.NewTask(taskname.AccountProExpirySweep, nil)); err != nil {
				zap.L().Error("[Scheduler] failed to enqueue pro expiry sweep", zap.Error(err))
			}
		case <-ctx.Done():
			zap.L().Warn("[Scheduler] stopped")
			return
		}
	}
}
