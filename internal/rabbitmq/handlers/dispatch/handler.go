package dispatch

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/kimsangwoo/bizmsg/internal/model"
	"github.com/kimsangwoo/bizmsg/internal/rabbitmq/queue"
	dispatchsvc "github.com/kimsangwoo/bizmsg/internal/service/dispatch"
)

//go:generate mockgen -source=handler.go -destination=../../../mocks/rabbitmq/handlers/dispatch/mock.go -package=mocks
type dispatchService interface {
	Dispatch(ctx context.Context, batchID uuid.UUID, d model.Draft) (model.DispatchResult, error)
	FinishBatch(ctx context.Context, strategy retry.Strategy, id uuid.UUID, result model.DispatchResult, dispatchErr error)
	SetStatus(ctx context.Context, strategy retry.Strategy, id uuid.UUID, status string) error
}

// Handler executes queued dispatch batches when they come due.
type Handler struct {
	service dispatchService
}

func NewHandler(svc dispatchService) *Handler {
	return &Handler{service: svc}
}

// HandleMessage waits until the batch's send time, runs the orchestrator and
// records the outcome. A validation failure marks the batch failed; partial
// send failures are part of the result, not an error.
func (h *Handler) HandleMessage(ctx context.Context, msg queue.DispatchMessage, strategy retry.Strategy) {
	zlog.Logger.Info().Msgf("Handle Message: got batch %s for channel %s, due at %v", msg.ID, msg.Draft.Channel, msg.SendAt)

	if wait := time.Until(msg.SendAt); wait > 0 {
		timer := time.NewTimer(wait)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			zlog.Logger.Printf("Handle Message: shutdown before batch %s came due", msg.ID)
			return
		case <-timer.C:
		}
	}

	result, err := h.service.Dispatch(ctx, msg.ID, msg.Draft)
	if err != nil {
		var vf *dispatchsvc.ValidationFailure
		if errors.As(err, &vf) {
			zlog.Logger.Warn().Err(err).Msgf("Handle Message: batch %s rejected by validation", msg.ID)
		} else {
			zlog.Logger.Error().Err(err).Msgf("Handle Message: batch %s failed", msg.ID)
		}

		if setErr := h.service.SetStatus(ctx, strategy, msg.ID, model.BatchFailed); setErr != nil {
			zlog.Logger.Error().Err(setErr).Msgf("failed to set status=failed for %s", msg.ID)
		}
		return
	}

	zlog.Logger.Info().Msgf(
		"Handle Message: batch %s finished, %d sent, %d failed",
		msg.ID, result.SuccessCount, result.FailureCount,
	)

	h.service.FinishBatch(ctx, strategy, msg.ID, result, nil)
}
