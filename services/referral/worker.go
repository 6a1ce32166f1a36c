package referral

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"earnplay-core/pkg/task"
	"earnplay-core/pkg/taskname"
)

// Worker consumes the referral lifecycle tasks enqueued at signup.
type Worker struct {
	service  *Service
	enqueuer task.Enqueuer
}

func NewWorker(service *Service, enqueuer task.Enqueuer) *Worker {
	return &Worker{service: service, enqueuer: enqueuer}
}

func registerTaskHandlers(mux *asynq.ServeMux, w *Worker) {
	mux.HandleFunc(taskname.ReferralVerify, w.HandleVerify)
	mux.HandleFunc(taskname.ReferralComplete, w.HandleComplete)
}

func (w *Worker) HandleVerify(ctx context.Context, t *asynq.Task) error {
	var payload taskname.ReferralEventPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return err
	}

	ref, err := w.service.Verify(ctx, payload.AccountID)
	if err != nil {
		zap.L().Error("referral verification failed",
			zap.String("account_id", payload.AccountID),
			zap.Error(err),
		)
		return err
	}

	// schedule the release after the fraud-review hold
	if _, err := w.enqueuer.Enqueue(
		asynq.NewTask(taskname.ReferralComplete, t.Payload()),
		asynq.ProcessIn(completionHold),
	); err != nil {
		zap.L().Error("failed to schedule referral completion",
			zap.String("referral_id", ref.ID),
			zap.Error(err),
		)
		return err
	}

	zap.L().Info("referral verified",
		zap.String("referral_id", ref.ID),
		zap.String("referrer_id", ref.ReferrerID),
	)
	return nil
}

func (w *Worker) HandleComplete(ctx context.Context, t *asynq.Task) error {
	var payload taskname.ReferralEventPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return err
	}

	ref, err := w.service.Complete(ctx, payload.AccountID)
	if err != nil {
		zap.L().Error("referral completion failed",
			zap.String("account_id", payload.AccountID),
			zap.Error(err),
		)
		return err
	}

	zap.L().Info("referral completed", zap.String("referral_id", ref.ID))
	return nil
}
