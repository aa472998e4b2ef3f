package template

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/kimsangwoo/bizmsg/internal/channel"
	"github.com/kimsangwoo/bizmsg/internal/model"
)

var (
	// ErrInvalidTransition is returned when a lifecycle operation is
	// attempted from a state that does not allow it.
	ErrInvalidTransition = errors.New("invalid template state transition")

	// ErrTemplateCodeExists is returned by Create when the code is already
	// taken for the account+channel.
	ErrTemplateCodeExists = errors.New("template code already exists")

	// ErrDeletePending is returned by Delete while the template is under
	// inspection; the inspection must be cancelled first.
	ErrDeletePending = errors.New("template is pending inspection, cancel first")
)

// ValidationFailure carries every button rule violation found at template
// registration. It aborts the registration; an invalid template never enters
// the lifecycle.
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

type templateRepository interface {
	CreateTemplate(ctx context.Context, t model.Template) (uuid.UUID, error)
	GetTemplateByID(ctx context.Context, id uuid.UUID) (model.Template, error)
	ExistsByCode(ctx context.Context, accountID uuid.UUID, ch model.Channel, code string) (bool, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.TemplateStatus, rejectReason string) error
	DeleteTemplate(ctx context.Context, id uuid.UUID) error
	ListTemplates(ctx context.Context, accountID uuid.UUID) ([]model.Template, error)
}

// InspectionGateway is the provider-side review API: submit a template for
// review, withdraw it, and poll the current decision.
type InspectionGateway interface {
	SubmitInspection(ctx context.Context, t model.Template) error
	CancelInspection(ctx context.Context, t model.Template) error
	InspectionStatus(ctx context.Context, t model.Template) (model.TemplateStatus, string, error)
}

type cache interface {
	SetWithRetry(ctx context.Context, strategy retry.Strategy, key string, value interface{}) error
}

// Service drives templates through their lifecycle. Transitions are
// serialized per template identity so concurrent requests on the same
// template cannot race.
type Service struct {
	repo     templateRepository
	gateways map[model.Channel]InspectionGateway
	cache    cache

	locks sync.Map // uuid.UUID -> *sync.Mutex
}

func NewService(repo templateRepository, gateways map[model.Channel]InspectionGateway, cache cache) *Service {
	return &Service{repo: repo, gateways: gateways, cache: cache}
}

func (s *Service) lock(id uuid.UUID) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// Create registers a new template in REGISTERED state. The code must be
// unique per account+channel and the buttons must satisfy the shared button
// rules; the same rules are re-checked on every dispatch draft.
func (s *Service) Create(ctx context.Context, t model.Template) (uuid.UUID, error) {
	if errs := channel.ValidateButtons(t.Buttons); len(errs) > 0 {
		return uuid.Nil, &ValidationFailure{Violations: errs}
	}

	exists, err := s.repo.ExistsByCode(ctx, t.AccountID, t.Channel, t.Code)
	if err != nil {
		return uuid.Nil, fmt.Errorf("check template code: %w", err)
	}

	if exists {
		return uuid.Nil, ErrTemplateCodeExists
	}

	t.Status = model.TemplateRegistered

	id, err := s.repo.CreateTemplate(ctx, t)
	if err != nil {
		return uuid.Nil, fmt.Errorf("create template: %w", err)
	}

	return id, nil
}

// RequestInspection submits a REGISTERED template for provider review.
func (s *Service) RequestInspection(ctx context.Context, strategy retry.Strategy, id uuid.UUID) error {
	mu := s.lock(id)
	mu.Lock()
	defer mu.Unlock()

	t, err := s.repo.GetTemplateByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get template: %w", err)
	}

	if t.Status != model.TemplateRegistered {
		return fmt.Errorf("%w: cannot request inspection from %s", ErrInvalidTransition, t.Status)
	}

	if gw, ok := s.gateways[t.Channel]; ok {
		if err := gw.SubmitInspection(ctx, t); err != nil {
			return fmt.Errorf("submit inspection: %w", err)
		}
	}

	return s.setStatus(ctx, strategy, id, model.TemplatePendingInspection, "")
}

// CancelInspection withdraws a PENDING_INSPECTION template back to
// REGISTERED.
func (s *Service) CancelInspection(ctx context.Context, strategy retry.Strategy, id uuid.UUID) error {
	mu := s.lock(id)
	mu.Lock()
	defer mu.Unlock()

	t, err := s.repo.GetTemplateByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get template: %w", err)
	}

	if t.Status != model.TemplatePendingInspection {
		return fmt.Errorf("%w: cannot cancel inspection from %s", ErrInvalidTransition, t.Status)
	}

	if gw, ok := s.gateways[t.Channel]; ok {
		if err := gw.CancelInspection(ctx, t); err != nil {
			return fmt.Errorf("cancel inspection: %w", err)
		}
	}

	return s.setStatus(ctx, strategy, id, model.TemplateRegistered, "")
}

// ApplyInspectionResult records the provider's decision. Only APPROVED and
// REJECTED are accepted, and only from PENDING_INSPECTION.
func (s *Service) ApplyInspectionResult(ctx context.Context, strategy retry.Strategy, id uuid.UUID, result model.TemplateStatus, rejectReason string) error {
	if result != model.TemplateApproved && result != model.TemplateRejected {
		return fmt.Errorf("%w: %s is not an inspection result", ErrInvalidTransition, result)
	}

	mu := s.lock(id)
	mu.Lock()
	defer mu.Unlock()

	t, err := s.repo.GetTemplateByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get template: %w", err)
	}

	if t.Status != model.TemplatePendingInspection {
		return fmt.Errorf("%w: cannot apply inspection result from %s", ErrInvalidTransition, t.Status)
	}

	return s.setStatus(ctx, strategy, id, result, rejectReason)
}

// Sync polls the provider for the current review decision of a pending
// template and applies it when terminal. Non-pending templates are returned
// as-is.
func (s *Service) Sync(ctx context.Context, strategy retry.Strategy, id uuid.UUID) (model.Template, error) {
	t, err := s.repo.GetTemplateByID(ctx, id)
	if err != nil {
		return model.Template{}, fmt.Errorf("get template: %w", err)
	}

	if t.Status != model.TemplatePendingInspection {
		return t, nil
	}

	gw, ok := s.gateways[t.Channel]
	if !ok {
		return t, nil
	}

	status, reason, err := gw.InspectionStatus(ctx, t)
	if err != nil {
		return model.Template{}, fmt.Errorf("poll inspection status: %w", err)
	}

	if status != model.TemplateApproved && status != model.TemplateRejected {
		return t, nil // still under review
	}

	if err := s.ApplyInspectionResult(ctx, strategy, id, status, reason); err != nil {
		return model.Template{}, err
	}

	return s.repo.GetTemplateByID(ctx, id)
}

// Delete removes a template. Templates under inspection cannot be deleted
// until the inspection is cancelled.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	mu := s.lock(id)
	mu.Lock()
	defer mu.Unlock()

	t, err := s.repo.GetTemplateByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get template: %w", err)
	}

	if t.Status == model.TemplatePendingInspection {
		return ErrDeletePending
	}

	if err := s.repo.DeleteTemplate(ctx, id); err != nil {
		return fmt.Errorf("delete template: %w", err)
	}

	s.locks.Delete(id)

	return nil
}

// Get returns one template by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (model.Template, error) {
	t, err := s.repo.GetTemplateByID(ctx, id)
	if err != nil {
		return model.Template{}, fmt.Errorf("get template: %w", err)
	}

	return t, nil
}

// List returns every template owned by an account.
func (s *Service) List(ctx context.Context, accountID uuid.UUID) ([]model.Template, error) {
	templates, err := s.repo.ListTemplates(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}

	return templates, nil
}

func (s *Service) setStatus(ctx context.Context, strategy retry.Strategy, id uuid.UUID, status model.TemplateStatus, rejectReason string) error {
	if err := s.repo.UpdateStatus(ctx, id, status, rejectReason); err != nil {
		return fmt.Errorf("update template status: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetWithRetry(ctx, strategy, "template:"+id.String(), string(status)); err != nil {
			zlog.Logger.Error().Err(err).Str("id", id.String()).Msg("failed to cache template status")
		}
	}

	return nil
}
