package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/kimsangwoo/bizmsg/internal/api/respond"
	"github.com/kimsangwoo/bizmsg/internal/config"
	"github.com/kimsangwoo/bizmsg/internal/model"
	batchrepo "github.com/kimsangwoo/bizmsg/internal/repository/batch"
	dispatchsvc "github.com/kimsangwoo/bizmsg/internal/service/dispatch"
)

// dispatchService defines the orchestrator operations the Handler depends on.
//
//go:generate mockgen -source=handler.go -destination=../../../mocks/api/handlers/dispatch/mock.go -package=mocks
type dispatchService interface {
	Preview(d model.Draft) (dispatchsvc.Preview, []model.ValidationError)
	Submit(ctx context.Context, strategy retry.Strategy, req dispatchsvc.SubmitRequest) (uuid.UUID, error)
	GetBatch(ctx context.Context, id uuid.UUID) (model.Batch, error)
	GetBatchStatusByID(ctx context.Context, strategy retry.Strategy, id uuid.UUID) (string, error)
	Cancel(ctx context.Context, strategy retry.Strategy, id uuid.UUID) error
}

// Handler handles HTTP requests that submit, inspect and cancel dispatch
// batches.
type Handler struct {
	service   dispatchService
	validator *validator.Validate
	cfg       *config.Config
}

func NewHandler(s dispatchService, v *validator.Validate, cfg *config.Config) *Handler {
	return &Handler{service: s, validator: v, cfg: cfg}
}

// CreateRequest represents the JSON body expected when submitting a batch.
// SendAt is optional; when set, the batch is reserved until that time.
type CreateRequest struct {
	Draft     model.Draft `json:"draft" validate:"required"`
	Confirmed bool        `json:"confirmed"`
	SendAt    string      `json:"send_at,omitempty"`
}

// Preview handles HTTP POST requests that validate a draft and return the
// confirmation summary without sending anything.
func (h *Handler) Preview(c *ginext.Context) {
	var draft model.Draft
	if err := json.NewDecoder(c.Request.Body).Decode(&draft); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to decode request body")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("invalid request body"))
		return
	}

	preview, violations := h.service.Preview(draft)
	if len(violations) > 0 {
		respond.FailWithDetail(c.Writer, http.StatusBadRequest, fmt.Errorf("draft is invalid"), violations)
		return
	}

	respond.OK(c.Writer, preview)
}

// Create handles HTTP POST requests to submit a confirmed batch.
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

	var sendAt time.Time
	if req.SendAt != "" {
		loc, err := time.LoadLocation("Asia/Seoul")
		if err != nil {
			zlog.Logger.Fatal().Err(err).Msg("failed to load Seoul timezone")
		}

		sendAt, err = time.ParseInLocation(time.DateTime, req.SendAt, loc)
		if err != nil {
			zlog.Logger.Error().Err(err).Msg("failed to parse send_at time")
			respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("invalid send_at format"))
			return
		}
	}

	id, err := h.service.Submit(c.Request.Context(), h.cfg.Retry, dispatchsvc.SubmitRequest{
		Draft:     req.Draft,
		Confirmed: req.Confirmed,
		SendAt:    sendAt,
	})
	if err != nil {
		var vf *dispatchsvc.ValidationFailure
		if errors.As(err, &vf) {
			respond.FailWithDetail(c.Writer, http.StatusBadRequest, fmt.Errorf("draft is invalid"), vf.Violations)
			return
		}

		zlog.Logger.Error().Err(err).Msg("failed to submit batch")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respond.Created(c.Writer, id)
}

// Get handles HTTP GET requests to retrieve one batch record.
func (h *Handler) Get(c *ginext.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	b, err := h.service.GetBatch(c.Request.Context(), id)
	if err != nil {
		h.fail(c, id, err, "failed to get batch")
		return
	}

	respond.OK(c.Writer, b)
}

// GetStatus handles HTTP GET requests to retrieve the status of a batch.
func (h *Handler) GetStatus(c *ginext.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	status, err := h.service.GetBatchStatusByID(c.Request.Context(), h.cfg.Retry, id)
	if err != nil {
		h.fail(c, id, err, "failed to get batch status")
		return
	}

	respond.OK(c.Writer, status)
}

// Cancel handles HTTP DELETE requests to cancel a reserved batch before it
// starts. Batches already executing cannot be recalled.
func (h *Handler) Cancel(c *ginext.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.service.Cancel(c.Request.Context(), h.cfg.Retry, id); err != nil {
		if errors.Is(err, dispatchsvc.ErrBatchNotCancellable) {
			respond.Fail(c.Writer, http.StatusConflict, err)
			return
		}

		h.fail(c, id, err, "failed to cancel batch")
		return
	}

	respond.OK(c.Writer, "batch cancelled")
}

func (h *Handler) parseID(c *ginext.Context) (uuid.UUID, bool) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil || id == uuid.Nil {
		zlog.Logger.Warn().Str("idStr", idStr).Msg("invalid batch id")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("invalid id"))
		return uuid.Nil, false
	}

	return id, true
}

func (h *Handler) fail(c *ginext.Context, id uuid.UUID, err error, msg string) {
	if errors.Is(err, batchrepo.ErrBatchNotFound) {
		zlog.Logger.Warn().Interface("id", id).Err(err).Msg("batch not found")
		respond.Fail(c.Writer, http.StatusNotFound, fmt.Errorf("batch not found"))
		return
	}

	zlog.Logger.Error().Err(err).Interface("id", id).Msg(msg)
	respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
}
