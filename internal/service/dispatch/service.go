package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/kimsangwoo/bizmsg/internal/channel"
	"github.com/kimsangwoo/bizmsg/internal/model"
	"github.com/kimsangwoo/bizmsg/internal/rabbitmq/queue"
	tmpl "github.com/kimsangwoo/bizmsg/internal/template"
)

// ErrBatchNotCancellable is returned when cancelling a batch that already
// started or finished.
var ErrBatchNotCancellable = errors.New("batch is not pending, cannot cancel")

// ValidationFailure carries every pre-send rule violation of a draft. It
// aborts the whole batch; no partial send ever happens.
type ValidationFailure struct {
	Violations []model.ValidationError
}

func (e *ValidationFailure) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		msgs = append(msgs, v.Error())
	}

	return "validation failed: " + strings.Join(msgs, "; ")
}

//go:generate mockgen -source=service.go -destination=../../mocks/service/dispatch/mock.go -package=mocks

// Sender executes one built provider request and reports the
// per-recipient outcome.
type Sender interface {
	Send(ctx context.Context, req channel.Request) ([]channel.SendStatus, error)
}

type batchRepository interface {
	CreateBatch(ctx context.Context, b model.Batch) (uuid.UUID, error)
	GetBatchByID(ctx context.Context, id uuid.UUID) (model.Batch, error)
	GetBatchStatusByID(ctx context.Context, id uuid.UUID) (string, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	SaveResult(ctx context.Context, id uuid.UUID, result model.DispatchResult) error
}

type batchPublisher interface {
	Publish(msg queue.DispatchMessage, strategy retry.Strategy) error
}

type cache interface {
	SetWithRetry(ctx context.Context, strategy retry.Strategy, key string, value interface{}) error
	GetWithRetry(ctx context.Context, strategy retry.Strategy, key string) (string, error)
}

// Service is the dispatch orchestrator: it gates a batch behind the channel
// validators, resolves per-recipient text, builds payloads, drives the
// external senders with bounded concurrency and aggregates outcomes.
type Service struct {
	repo    batchRepository
	queue   batchPublisher
	senders map[model.Channel]Sender
	cache   cache
	workers int
	now     func() time.Time
}

func NewService(
	repo batchRepository,
	q batchPublisher,
	senders map[model.Channel]Sender,
	cache cache,
	workers int,
) *Service {
	if workers < 1 {
		workers = 1
	}

	return &Service{
		repo:    repo,
		queue:   q,
		senders: senders,
		cache:   cache,
		workers: workers,
		now:     time.Now,
	}
}

// Preview is the caller-facing confirmation summary: what would be sent, and
// to how many recipients.
type Preview struct {
	Channel        model.Channel `json:"channel"`
	RecipientCount int           `json:"recipient_count"`
	SampleText     string        `json:"sample_text"`
}

// Preview validates the draft and returns the confirmation summary. The
// sample text is resolved for the first recipient.
func (s *Service) Preview(d model.Draft) (Preview, []model.ValidationError) {
	if errs := s.validate(&d); len(errs) > 0 {
		return Preview{}, errs
	}

	var sample string
	if len(d.Recipients) > 0 {
		sample = tmpl.Resolve(d.Content(), d.Channel, d.CommonVars, d.Recipients[0])
	}

	return Preview{
		Channel:        d.Channel,
		RecipientCount: len(d.Recipients),
		SampleText:     sample,
	}, nil
}

// SubmitRequest is one dispatch submission. Confirmed must be true: the
// caller has to surface the preview before committing the send.
type SubmitRequest struct {
	Draft     model.Draft
	Confirmed bool
	SendAt    time.Time // zero means immediately
}

// Submit persists the batch and queues it for execution at SendAt. The
// whole draft is validated up front; a rejected draft is never queued.
func (s *Service) Submit(ctx context.Context, strategy retry.Strategy, req SubmitRequest) (uuid.UUID, error) {
	if !req.Confirmed {
		return uuid.Nil, &ValidationFailure{Violations: []model.ValidationError{
			model.Violation(model.CodeDispatchNotConfirmed, "", "dispatch requires explicit confirmation"),
		}}
	}

	if errs := s.validate(&req.Draft); len(errs) > 0 {
		return uuid.Nil, &ValidationFailure{Violations: errs}
	}

	sendAt := req.SendAt
	if sendAt.IsZero() {
		sendAt = s.now()
	}

	batch := model.Batch{
		Channel: req.Draft.Channel,
		Status:  model.BatchPending,
		SendAt:  sendAt,
		Draft:   req.Draft,
	}

	id, err := s.repo.CreateBatch(ctx, batch)
	if err != nil {
		return uuid.Nil, fmt.Errorf("create batch: %w", err)
	}

	if err := s.cache.SetWithRetry(ctx, strategy, id.String(), model.BatchPending); err != nil {
		zlog.Logger.Error().Err(err).Str("id", id.String()).Msg("failed to cache batch status")
	}

	msg := queue.DispatchMessage{
		ID:     id,
		SendAt: sendAt,
		Draft:  req.Draft,
	}

	if err := s.queue.Publish(msg, strategy); err != nil {
		zlog.Logger.Error().Err(err).Str("id", id.String()).Msg("failed to publish batch")
	}

	return id, nil
}

// Dispatch executes one batch synchronously and returns the aggregated
// result. An all-failed batch is a result, not an error; only validation
// failures abort.
func (s *Service) Dispatch(ctx context.Context, batchID uuid.UUID, d model.Draft) (model.DispatchResult, error) {
	if errs := s.validate(&d); len(errs) > 0 {
		return model.DispatchResult{}, &ValidationFailure{Violations: errs}
	}

	texts := resolveTexts(&d)

	h, _ := channel.For(d.Channel)
	reqs := h.Build(&d, texts)

	outcomes := make([]model.RecipientOutcome, len(d.Recipients))
	index := make(map[string]int, len(d.Recipients))
	for i, r := range d.Recipients {
		phone, _ := model.NormalizePhone(r.Phone)
		outcomes[i] = model.RecipientOutcome{Phone: phone}
		index[phone] = i
	}

	if d.Channel.BatchesRecipients() {
		s.sendBatched(ctx, reqs, index, outcomes)
	} else {
		s.sendEach(ctx, reqs, index, outcomes)
	}

	if d.Fallback.Enabled {
		s.runFallback(ctx, &d, outcomes)
	}

	result := model.DispatchResult{BatchID: batchID, Channel: d.Channel, Recipients: outcomes}
	for i := range outcomes {
		outcomes[i].Success = outcomes[i].Primary.Success ||
			(outcomes[i].Fallback != nil && outcomes[i].Fallback.Success)

		if outcomes[i].Success {
			result.SuccessCount++
		} else {
			result.FailureCount++
		}
	}

	return result, nil
}

// validate runs the channel constraint gate, plus the SMS re-validation of
// the fallback body when fallback is enabled.
func (s *Service) validate(d *model.Draft) []model.ValidationError {
	h, ok := channel.For(d.Channel)
	if !ok {
		return []model.ValidationError{
			model.Violation(model.CodeUnknownChannel, string(d.Channel), "unknown channel %q", d.Channel),
		}
	}

	if _, ok := s.senders[d.Channel]; !ok {
		return []model.ValidationError{
			model.Violation(model.CodeUnknownChannel, string(d.Channel), "no sender configured for channel %q", d.Channel),
		}
	}

	now := s.now()
	errs := h.Validate(d, now)

	if d.Fallback.Enabled && d.Channel != model.ChannelSMS {
		sms, _ := channel.For(model.ChannelSMS)
		errs = append(errs, sms.Validate(fallbackDraft(d, d.Recipients), now)...)
	}

	return errs
}

func fallbackDraft(d *model.Draft, recipients []model.Recipient) *model.Draft {
	return &model.Draft{
		Channel:    model.ChannelSMS,
		ProfileID:  d.ProfileID,
		Body:       d.Fallback.Body,
		Subject:    d.Fallback.Subject,
		CommonVars: d.CommonVars,
		Recipients: recipients,
	}
}

func resolveTexts(d *model.Draft) map[string]string {
	content := d.Content()

	texts := make(map[string]string, len(d.Recipients))
	for _, r := range d.Recipients {
		phone, err := model.NormalizePhone(r.Phone)
		if err != nil {
			continue
		}

		texts[phone] = tmpl.Resolve(content, d.Channel, d.CommonVars, r)
	}

	return texts
}

// sendBatched issues the single multi-recipient request of a Kakao channel
// and maps the provider's per-recipient statuses back onto the outcomes.
func (s *Service) sendBatched(ctx context.Context, reqs []channel.Request, index map[string]int, outcomes []model.RecipientOutcome) {
	for _, req := range reqs {
		statuses, err := s.senders[req.Channel].Send(ctx, req)
		if err != nil {
			// Provider unavailable: every recipient of this request
			// unit fails.
			for _, r := range req.Recipients {
				phone, _ := model.NormalizePhone(r.Phone)
				if i, ok := index[phone]; ok {
					outcomes[i].Primary = model.Attempt{Channel: req.Channel, Error: err.Error()}
				}
			}
			continue
		}

		for _, st := range statuses {
			if i, ok := index[st.Phone]; ok {
				outcomes[i].Primary = model.Attempt{Channel: req.Channel, Success: st.Success, Error: st.Error}
			}
		}
	}
}

// sendEach issues per-recipient requests through a bounded worker pool.
// Cancelling the context suppresses un-started requests only; in-flight
// provider calls cannot be recalled.
func (s *Service) sendEach(ctx context.Context, reqs []channel.Request, index map[string]int, outcomes []model.RecipientOutcome) {
	jobs := make(chan channel.Request)

	var wg sync.WaitGroup
	for w := 0; w < s.workers; w++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for req := range jobs {
				s.sendOne(ctx, req, index, outcomes)
			}
		}()
	}

produce:
	for _, req := range reqs {
		select {
		case <-ctx.Done():
			break produce
		case jobs <- req:
		}
	}
	close(jobs)

	wg.Wait()

	// Recipients whose request never started are recorded, not dropped.
	for i := range outcomes {
		if outcomes[i].Primary.Channel == "" {
			outcomes[i].Primary = model.Attempt{Channel: reqChannel(reqs), Error: "cancelled before send"}
		}
	}
}

func reqChannel(reqs []channel.Request) model.Channel {
	if len(reqs) > 0 {
		return reqs[0].Channel
	}

	return ""
}

func (s *Service) sendOne(ctx context.Context, req channel.Request, index map[string]int, outcomes []model.RecipientOutcome) {
	phone, _ := model.NormalizePhone(req.Recipients[0].Phone)

	i, ok := index[phone]
	if !ok {
		return
	}

	statuses, err := s.senders[req.Channel].Send(ctx, req)
	if err != nil {
		outcomes[i].Primary = model.Attempt{Channel: req.Channel, Error: err.Error()}
		return
	}

	attempt := model.Attempt{Channel: req.Channel, Error: "no status returned"}
	for _, st := range statuses {
		if st.Phone == phone {
			attempt = model.Attempt{Channel: req.Channel, Success: st.Success, Error: st.Error}
			break
		}
	}

	outcomes[i].Primary = attempt
}

// runFallback re-sends failed recipients over SMS with the fallback body.
// Recipients skipped by cancellation are not retried.
func (s *Service) runFallback(ctx context.Context, d *model.Draft, outcomes []model.RecipientOutcome) {
	sms, _ := channel.For(model.ChannelSMS)

	sender, ok := s.senders[model.ChannelSMS]
	if !ok {
		zlog.Logger.Error().Msg("fallback enabled but no sms sender configured")
		return
	}

	var failed []int
	for i := range outcomes {
		if !outcomes[i].Primary.Success && outcomes[i].Primary.Error != "cancelled before send" {
			failed = append(failed, i)
		}
	}

	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < s.workers; w++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for i := range jobs {
				recipient := d.Recipients[i]
				fb := fallbackDraft(d, []model.Recipient{recipient})

				reqs := sms.Build(fb, resolveTexts(fb))
				if len(reqs) == 0 {
					continue
				}

				attempt := model.Attempt{Channel: model.ChannelSMS}

				statuses, err := sender.Send(ctx, reqs[0])
				switch {
				case err != nil:
					attempt.Error = err.Error()
				case len(statuses) > 0:
					attempt.Success = statuses[0].Success
					attempt.Error = statuses[0].Error
				default:
					attempt.Error = "no status returned"
				}

				outcomes[i].Fallback = &attempt
			}
		}()
	}

produce:
	for _, i := range failed {
		select {
		case <-ctx.Done():
			break produce
		case jobs <- i:
		}
	}
	close(jobs)

	wg.Wait()
}

// FinishBatch records the outcome of an executed batch.
func (s *Service) FinishBatch(ctx context.Context, strategy retry.Strategy, id uuid.UUID, result model.DispatchResult, dispatchErr error) {
	status := model.BatchSent
	if dispatchErr != nil || result.SuccessCount == 0 {
		status = model.BatchFailed
	}

	if err := s.repo.SaveResult(ctx, id, result); err != nil {
		zlog.Logger.Error().Err(err).Str("id", id.String()).Msg("failed to save batch result")
	}

	if err := s.SetStatus(ctx, strategy, id, status); err != nil {
		zlog.Logger.Error().Err(err).Str("id", id.String()).Msg("failed to set batch status")
	}
}

// SetStatus updates a batch status in the store and the cache.
func (s *Service) SetStatus(ctx context.Context, strategy retry.Strategy, id uuid.UUID, status string) error {
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return fmt.Errorf("update batch status: %w", err)
	}

	if err := s.cache.SetWithRetry(ctx, strategy, id.String(), status); err != nil {
		zlog.Logger.Error().Err(err).Str("id", id.String()).Msg("failed to cache batch status")
	}

	return nil
}

// GetBatchStatusByID reads the batch status, cache first.
func (s *Service) GetBatchStatusByID(ctx context.Context, strategy retry.Strategy, id uuid.UUID) (string, error) {
	status, err := s.cache.GetWithRetry(ctx, strategy, id.String())
	if err != nil && !errors.Is(err, goredis.Nil) {
		zlog.Logger.Error().Err(err).Str("id", id.String()).Msg("failed to get batch status from cache")
	}

	if err != nil {
		status, err = s.repo.GetBatchStatusByID(ctx, id)
		if err != nil {
			return "", fmt.Errorf("get batch status: %w", err)
		}

		if cErr := s.cache.SetWithRetry(ctx, strategy, id.String(), status); cErr != nil {
			zlog.Logger.Error().Err(cErr).Str("id", id.String()).Msg("failed to cache batch status")
		}
	}

	return status, nil
}

// GetBatch returns the stored batch record.
func (s *Service) GetBatch(ctx context.Context, id uuid.UUID) (model.Batch, error) {
	b, err := s.repo.GetBatchByID(ctx, id)
	if err != nil {
		return model.Batch{}, fmt.Errorf("get batch: %w", err)
	}

	return b, nil
}

// Cancel marks a pending batch cancelled. The worker checks this status
// before executing, so a cancelled reserved batch never starts. Batches
// already executing cannot be recalled.
func (s *Service) Cancel(ctx context.Context, strategy retry.Strategy, id uuid.UUID) error {
	b, err := s.repo.GetBatchByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get batch: %w", err)
	}

	if b.Status != model.BatchPending {
		return ErrBatchNotCancellable
	}

	return s.SetStatus(ctx, strategy, id, model.BatchCancelled)
}
