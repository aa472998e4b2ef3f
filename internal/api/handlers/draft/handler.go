package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	goredis "github.com/go-redis/redis/v8"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/kimsangwoo/bizmsg/internal/api/respond"
	"github.com/kimsangwoo/bizmsg/internal/config"
	draftstore "github.com/kimsangwoo/bizmsg/internal/draft"
	"github.com/kimsangwoo/bizmsg/internal/model"
)

type draftStore interface {
	Save(ctx context.Context, strategy retry.Strategy, snap draftstore.Snapshot) error
	Load(ctx context.Context, strategy retry.Strategy, key string) (draftstore.Snapshot, error)
}

// Handler saves and restores in-progress campaign drafts for the UI layer.
type Handler struct {
	store draftStore
	cfg   *config.Config
}

func NewHandler(s draftStore, cfg *config.Config) *Handler {
	return &Handler{store: s, cfg: cfg}
}

// Save handles HTTP PUT requests that persist a draft snapshot under a key.
func (h *Handler) Save(c *ginext.Context) {
	key := c.Param("key")
	if key == "" {
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("missing key"))
		return
	}

	var d model.Draft
	if err := json.NewDecoder(c.Request.Body).Decode(&d); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to decode request body")
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("invalid request body"))
		return
	}

	snap := draftstore.Snapshot{Key: key, Draft: d}
	if err := h.store.Save(c.Request.Context(), h.cfg.Retry, snap); err != nil {
		zlog.Logger.Error().Err(err).Str("key", key).Msg("failed to save draft")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respond.OK(c.Writer, "draft saved")
}

// Load handles HTTP GET requests that restore a draft snapshot by key.
func (h *Handler) Load(c *ginext.Context) {
	key := c.Param("key")
	if key == "" {
		respond.Fail(c.Writer, http.StatusBadRequest, fmt.Errorf("missing key"))
		return
	}

	snap, err := h.store.Load(c.Request.Context(), h.cfg.Retry, key)
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			respond.Fail(c.Writer, http.StatusNotFound, fmt.Errorf("draft not found"))
			return
		}

		zlog.Logger.Error().Err(err).Str("key", key).Msg("failed to load draft")
		respond.Fail(c.Writer, http.StatusInternalServerError, fmt.Errorf("internal server error"))
		return
	}

	respond.OK(c.Writer, snap)
}
