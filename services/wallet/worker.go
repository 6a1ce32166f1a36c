package wallet

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"earnplay-core/pkg/taskname"
)

// stalePendingAge is how long a payout may sit in pending before the
// reconcile job flags it.
const stalePendingAge = 24 * time.Hour

// ReconcilePayload carries a processor outcome into the ledger. An
// empty payload runs the stale-payout audit instead.
type ReconcilePayload struct {
	WithdrawalID           string           `json:"withdrawal_id"`
	Status                 WithdrawalStatus `json:"status"`
	ProcessorTransactionID string           `json:"processor_transaction_id,omitempty"`
	FailureReason          string           `json:"failure_reason,omitempty"`
}

func registerTaskHandlers(mux *asynq.ServeMux, s *Service) {
	mux.HandleFunc(taskname.WithdrawalReconcile, s.HandleReconcile)
}

func (s *Service) HandleReconcile(ctx context.Context, t *asynq.Task) error {
	if len(t.Payload()) == 0 {
		return s.auditStalePending(ctx)
	}

	var payload ReconcilePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return err
	}

	w, err := s.UpdateWithdrawalStatus(ctx, payload.WithdrawalID, StatusUpdate{
		Status:                 payload.Status,
		ProcessorTransactionID: payload.ProcessorTransactionID,
		FailureReason:          payload.FailureReason,
	})
	if err != nil {
		zap.L().Error("withdrawal reconcile failed",
			zap.String("withdrawal_id", payload.WithdrawalID),
			zap.String("status", string(payload.Status)),
			zap.Error(err),
		)
		return err
	}

	zap.L().Info("withdrawal reconciled",
		zap.String("withdrawal_id", w.ID),
		zap.String("code", w.Code),
		zap.String("status", string(w.Status)),
	)
	return nil
}

func (s *Service) auditStalePending(ctx context.Context) error {
	stale, err := s.StaleWithdrawals(ctx, stalePendingAge)
	if err != nil {
		return err
	}

	for _, w := range stale {
		zap.L().Warn("withdrawal stuck in pending",
			zap.String("withdrawal_id", w.ID),
			zap.String("code", w.Code),
			zap.Time("created_at", w.CreatedAt),
		)
	}

	return nil
}
