package worker

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/kimsangwoo/bizmsg/internal/model"
	"github.com/kimsangwoo/bizmsg/internal/rabbitmq/queue"
)

type dispatchQueue interface {
	Consume(out chan<- queue.DispatchMessage, strategy retry.Strategy) error
}

type messageHandler interface {
	HandleMessage(ctx context.Context, msg queue.DispatchMessage, strategy retry.Strategy)
}

type dispatchService interface {
	GetBatchStatusByID(ctx context.Context, strategy retry.Strategy, id uuid.UUID) (string, error)
}

// Dispatcher consumes queued dispatch batches and hands them to the message
// handler, skipping batches cancelled while they waited in the queue.
type Dispatcher struct {
	queue   dispatchQueue
	handler messageHandler
	service dispatchService
}

func NewDispatcher(q dispatchQueue, h messageHandler, s dispatchService) *Dispatcher {
	return &Dispatcher{
		queue:   q,
		handler: h,
		service: s,
	}
}

func (d *Dispatcher) Run(ctx context.Context, strategy retry.Strategy, workerCount int) {
	var wg sync.WaitGroup
	msgChan := make(chan queue.DispatchMessage, workerCount*10)

	go func() {
		if err := d.queue.Consume(msgChan, strategy); err != nil {
			zlog.Logger.Error().Err(err).Msg("failed to consume messages")
		}
	}()

	wg.Add(workerCount)
	for i := 0; i < workerCount; i++ {
		go func(id int) {
			defer wg.Done()

			zlog.Logger.Printf("worker-%d started", id)

			for {
				select {
				case <-ctx.Done():
					zlog.Logger.Printf("worker-%d shutting down", id)
					return
				case msg, ok := <-msgChan:
					if !ok {
						zlog.Logger.Printf("worker-%d channel closed, shutting down", id)
						return
					}

					status, err := d.service.GetBatchStatusByID(ctx, strategy, msg.ID)
					if err != nil {
						zlog.Logger.Printf("failed to get status for %s: %v", msg.ID, err)
						continue
					}

					if status == model.BatchCancelled {
						zlog.Logger.Printf("batch %s cancelled, skipping", msg.ID)
						continue
					}

					d.handler.HandleMessage(ctx, msg, strategy)
				}
			}
		}(i)
	}

	<-ctx.Done()
	wg.Wait()
	zlog.Logger.Print("dispatcher stopped")
}
