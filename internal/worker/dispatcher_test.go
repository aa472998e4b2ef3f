package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/wb-go/wbf/retry"

	"github.com/kimsangwoo/bizmsg/internal/model"
	"github.com/kimsangwoo/bizmsg/internal/rabbitmq/queue"
)

type fakeQueue struct {
	messages []queue.DispatchMessage
}

func (q *fakeQueue) Consume(out chan<- queue.DispatchMessage, _ retry.Strategy) error {
	for _, msg := range q.messages {
		out <- msg
	}

	return nil
}

type fakeHandler struct {
	mu      sync.Mutex
	handled []uuid.UUID
}

func (h *fakeHandler) HandleMessage(_ context.Context, msg queue.DispatchMessage, _ retry.Strategy) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.handled = append(h.handled, msg.ID)
}

func (h *fakeHandler) handledIDs() []uuid.UUID {
	h.mu.Lock()
	defer h.mu.Unlock()

	return append([]uuid.UUID(nil), h.handled...)
}

type fakeStatusService struct {
	statuses map[uuid.UUID]string
	err      error
}

func (s *fakeStatusService) GetBatchStatusByID(_ context.Context, _ retry.Strategy, id uuid.UUID) (string, error) {
	if s.err != nil {
		return "", s.err
	}

	return s.statuses[id], nil
}

var strategy = retry.Strategy{Attempts: 1, Delay: time.Millisecond}

func TestDispatcher_Run_HandlesPendingBatch(t *testing.T) {
	msg := queue.DispatchMessage{ID: uuid.New(), SendAt: time.Now()}

	q := &fakeQueue{messages: []queue.DispatchMessage{msg}}
	h := &fakeHandler{}
	svc := &fakeStatusService{statuses: map[uuid.UUID]string{msg.ID: model.BatchPending}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go NewDispatcher(q, h, svc).Run(ctx, strategy, 1)

	time.Sleep(50 * time.Millisecond)
	cancel()
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, []uuid.UUID{msg.ID}, h.handledIDs())
}

func TestDispatcher_Run_SkipsCancelledBatch(t *testing.T) {
	msg := queue.DispatchMessage{ID: uuid.New(), SendAt: time.Now()}

	q := &fakeQueue{messages: []queue.DispatchMessage{msg}}
	h := &fakeHandler{}
	svc := &fakeStatusService{statuses: map[uuid.UUID]string{msg.ID: model.BatchCancelled}}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go NewDispatcher(q, h, svc).Run(ctx, strategy, 1)

	time.Sleep(50 * time.Millisecond)
	cancel()
	time.Sleep(50 * time.Millisecond)

	assert.Empty(t, h.handledIDs())
}

func TestDispatcher_Run_StatusErrorSkipsMessage(t *testing.T) {
	msg := queue.DispatchMessage{ID: uuid.New(), SendAt: time.Now()}

	q := &fakeQueue{messages: []queue.DispatchMessage{msg}}
	h := &fakeHandler{}
	svc := &fakeStatusService{err: errors.New("db error")}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go NewDispatcher(q, h, svc).Run(ctx, strategy, 1)

	time.Sleep(50 * time.Millisecond)
	cancel()
	time.Sleep(50 * time.Millisecond)

	assert.Empty(t, h.handledIDs())
}
