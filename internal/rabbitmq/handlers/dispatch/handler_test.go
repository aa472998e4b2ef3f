package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/retry"

	"github.com/kimsangwoo/bizmsg/internal/model"
	"github.com/kimsangwoo/bizmsg/internal/rabbitmq/queue"
	dispatchsvc "github.com/kimsangwoo/bizmsg/internal/service/dispatch"
)

type fakeService struct {
	mu sync.Mutex

	dispatchResult model.DispatchResult
	dispatchErr    error
	dispatched     []uuid.UUID

	finished  []uuid.UUID
	statuses  map[uuid.UUID]string
	statusErr error
}

func (s *fakeService) Dispatch(_ context.Context, batchID uuid.UUID, _ model.Draft) (model.DispatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dispatched = append(s.dispatched, batchID)

	return s.dispatchResult, s.dispatchErr
}

func (s *fakeService) FinishBatch(_ context.Context, _ retry.Strategy, id uuid.UUID, _ model.DispatchResult, _ error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.finished = append(s.finished, id)
}

func (s *fakeService) SetStatus(_ context.Context, _ retry.Strategy, id uuid.UUID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.statuses == nil {
		s.statuses = make(map[uuid.UUID]string)
	}
	s.statuses[id] = status

	return s.statusErr
}

var strategy = retry.Strategy{Attempts: 1, Delay: time.Millisecond}

func TestHandler_HandleMessage_Success(t *testing.T) {
	svc := &fakeService{dispatchResult: model.DispatchResult{SuccessCount: 2}}
	h := NewHandler(svc)

	msg := queue.DispatchMessage{ID: uuid.New(), SendAt: time.Now().Add(-time.Minute)}

	h.HandleMessage(context.Background(), msg, strategy)

	assert.Equal(t, []uuid.UUID{msg.ID}, svc.dispatched)
	assert.Equal(t, []uuid.UUID{msg.ID}, svc.finished)
	assert.Empty(t, svc.statuses)
}

func TestHandler_HandleMessage_WaitsUntilDue(t *testing.T) {
	svc := &fakeService{dispatchResult: model.DispatchResult{SuccessCount: 1}}
	h := NewHandler(svc)

	due := time.Now().Add(60 * time.Millisecond)
	msg := queue.DispatchMessage{ID: uuid.New(), SendAt: due}

	h.HandleMessage(context.Background(), msg, strategy)

	assert.False(t, time.Now().Before(due), "dispatch must not run before the batch comes due")
	assert.Equal(t, []uuid.UUID{msg.ID}, svc.dispatched)
}

func TestHandler_HandleMessage_ValidationFailureMarksFailed(t *testing.T) {
	svc := &fakeService{
		dispatchErr: &dispatchsvc.ValidationFailure{Violations: []model.ValidationError{
			model.Violation(model.CodeEmptyRecipientList, "", "recipient list is empty"),
		}},
	}
	h := NewHandler(svc)

	msg := queue.DispatchMessage{ID: uuid.New(), SendAt: time.Now().Add(-time.Minute)}

	h.HandleMessage(context.Background(), msg, strategy)

	assert.Equal(t, model.BatchFailed, svc.statuses[msg.ID])
	assert.Empty(t, svc.finished)
}

func TestHandler_HandleMessage_DispatchErrorMarksFailed(t *testing.T) {
	svc := &fakeService{dispatchErr: errors.New("boom")}
	h := NewHandler(svc)

	msg := queue.DispatchMessage{ID: uuid.New(), SendAt: time.Now().Add(-time.Minute)}

	h.HandleMessage(context.Background(), msg, strategy)

	assert.Equal(t, model.BatchFailed, svc.statuses[msg.ID])
	assert.Empty(t, svc.finished)
}

func TestHandler_HandleMessage_ShutdownBeforeDue(t *testing.T) {
	svc := &fakeService{}
	h := NewHandler(svc)

	msg := queue.DispatchMessage{ID: uuid.New(), SendAt: time.Now().Add(time.Hour)}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h.HandleMessage(ctx, msg, strategy)

	require.Empty(t, svc.dispatched)
	require.Empty(t, svc.finished)
}
