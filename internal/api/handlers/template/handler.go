package template

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/kimsangwoo/bizmsg/internal/api/respond"
	"github.com/kimsangwoo/bizmsg/internal/config"
	"github.com/kimsangwoo/bizmsg/internal/model"
	templaterepo "github.com/kimsangwoo/bizmsg/internal/repository/template"
	templatesvc "github.com/kimsangwoo/bizmsg/internal/service/template"
)

// templateService defines the lifecycle operations the Handler depends on.
//
//go:generate mockgen -source=handler.go -destination=../../../mocks/api/handlers/template/mock.go -package=mocks
type templateService interface {
	Create(ctx context.Context, t model.Template) (uuid.UUID, error)
	Get(ctx context.Context, id uuid.UUID) (model.Template, error)
	List(ctx context.Context, accountID uuid.UUID) ([]model.Template, error)
	Delete(ctx context.Context, id uuid.UUID) error
	RequestInspection(ctx context.Context, strategy retry.Strategy, id uuid.UUID) error
	CancelInspection(ctx context.Context, strategy retry.Strategy, id uuid.UUID) error
	Sync(ctx context.Context, strategy retry.Strategy, id uuid.UUID) (model.Template, error)
}

// Handler handles HTTP requests related to templates and their lifecycle.
type Handler struct {
	service   templateService
	validator *validator.Validate
	cfg       *config.Config
}

func NewHandler(s templateService, v *validator.Validate, cfg *config.Config) *Handler {
	return &Handler{service: s, validator: v, cfg: cfg}
}

// CreateRequest represents the JSON body expected when registering a template.
type CreateRequest struct {
	AccountID string         `json:"account_id" validate:"required"`
	Channel   string         `json:"channel" validate:"required"`
	Code      string         `json:"code" validate:"required"`
	Name      string         `json:"name" validate:"required"`
	Body      string         `json:"body" validate:"required"`
	Buttons   []model.Button `json:"buttons"`
	ImageURL  string         `json:"image_url"`
	Category  string         `json:"category"`
}

// Create handles HTTP POST requests to register a new template.
func (h *Handler) Create(c *ginext.Context) {
	var req CreateRequest

	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to decode request body")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("invalid request body"))
		return
	}

	if err := h.validator.Struct(req); err != nil {
		zlog.Logger.Warn().Err(err).Msg("failed to validate request body")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("validation error: %s", err.Error()))
		return
	}

	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("invalid account_id"))
		return
	}

	ch := model.Channel(req.Channel)
	if !ch.Valid() {
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("unknown channel %q", req.Channel))
		return
	}

	tpl := model.Template{
		AccountID: accountID,
		Channel:   ch,
		Code:      req.Code,
		Name:      req.Name,
		Body:      req.Body,
		Buttons:   req.Buttons,
		ImageURL:  req.ImageURL,
		Category:  req.Category,
	}

	id, err := h.service.Create(c.Request.Context(), tpl)
	if err != nil {
		var vf *templatesvc.ValidationFailure
		if errors.As(err, &vf) {
			respond.FailWithDetail(c.Writer, http.StatusBadRequest, fmt.Errorf("template is invalid"), vf.Violations)
			return
		}

		if errors.Is(err, templatesvc.ErrTemplateCodeExists) {
			respond.Fail(c.Writer, http.StatusConflict, err)
			return
		}

		zlog.Logger.Error().Err(err).Str("code", req.Code).Msg("failed to create template")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respond.Created(c.Writer, id)
}

// List handles HTTP GET requests to list an account's templates.
func (h *Handler) List(c *ginext.Context) {
	accountID, err := uuid.Parse(c.Query("account_id"))
	if err != nil {
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("invalid account_id"))
		return
	}

	templates, err := h.service.List(c.Request.Context(), accountID)
	if err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to list templates")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respond.OK(c.Writer, templates)
}

// Get handles HTTP GET requests to retrieve one template.
func (h *Handler) Get(c *ginext.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	tpl, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, id, err, "failed to get template")
		return
	}

	respond.OK(c.Writer, tpl)
}

// Delete handles HTTP DELETE requests. Templates under inspection cannot be
// deleted until the inspection is cancelled.
func (h *Handler) Delete(c *ginext.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, templatesvc.ErrDeletePending) {
			respond.Fail(c.Writer, http.StatusConflict, err)
			return
		}

		h.fail(c, id, err, "failed to delete template")
		return
	}

	respond.OK(c.Writer, "template deleted")
}

// RequestInspection handles HTTP POST requests to submit a template for
// provider review.
func (h *Handler) RequestInspection(c *ginext.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.service.RequestInspection(c.Request.Context(), h.cfg.Retry, id); err != nil {
		if errors.Is(err, templatesvc.ErrInvalidTransition) {
			respond.Fail(c.Writer, http.StatusConflict, err)
			return
		}

		h.fail(c, id, err, "failed to request inspection")
		return
	}

	respond.OK(c.Writer, "inspection requested")
}

// CancelInspection handles HTTP DELETE requests to withdraw a template from
// review.
func (h *Handler) CancelInspection(c *ginext.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.service.CancelInspection(c.Request.Context(), h.cfg.Retry, id); err != nil {
		if errors.Is(err, templatesvc.ErrInvalidTransition) {
			respond.Fail(c.Writer, http.StatusConflict, err)
			return
		}

		h.fail(c, id, err, "failed to cancel inspection")
		return
	}

	respond.OK(c.Writer, "inspection cancelled")
}

// Sync handles HTTP POST requests to refresh a pending template's review
// status from the provider.
func (h *Handler) Sync(c *ginext.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	tpl, err := h.service.Sync(c.Request.Context(), h.cfg.Retry, id)
	if err != nil {
		h.fail(c, id, err, "failed to sync template")
		return
	}

	respond.OK(c.Writer, tpl)
}

func (h *Handler) parseID(c *ginext.Context) (uuid.UUID, bool) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil || id == uuid.Nil {
		zlog.Logger.Warn().Str("idStr", idStr).Msg("invalid template id")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("invalid id"))
		return uuid.Nil, false
	}

	return id, true
}

func (h *Handler) fail(c *ginext.Context, id uuid.UUID, err error, msg string) {
	if errors.Is(err, templaterepo.ErrTemplateNotFound) {
		zlog.Logger.Warn().Interface("id", id).Err(err).Msg("template not found")
		respond.Fail(c.Writer, http.StatusNotFound, fmt.Errorf("template not found"))
		return
	}

	zlog.Logger.Error().Err(err).Interface("id", id).Msg(msg)
	respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
}
