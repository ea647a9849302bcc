package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"serverpe-gateway/cache"
	"serverpe-gateway/logger"
	"serverpe-gateway/middleware"
	"serverpe-gateway/models"
	"serverpe-gateway/services/auth"
	"serverpe-gateway/services/serverpe"
)

// JSONCache is the slice of cache.Cache the catalog reads through.
type JSONCache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

const statesCacheKey = "catalog:states"

type CatalogHandler struct {
	responder
	client    *serverpe.Client
	cache     JSONCache
	statesTTL time.Duration
}

// NewCatalogHandler serves the public catalog. cache may be nil.
func NewCatalogHandler(store *middleware.SessionStore, flow *auth.Flow, client *serverpe.Client, cache JSONCache, statesTTL time.Duration) *CatalogHandler {
	return &CatalogHandler{
		responder: responder{store: store, flow: flow},
		client:    client,
		cache:     cache,
		statesTTL: statesTTL,
	}
}

// States lists the states for the buyer state picker. The list rarely
// changes, so it is served from redis when possible; a cache failure only
// costs a backend round trip.
func (h *CatalogHandler) States(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.cache != nil {
		var cached []models.State
		hit, err := h.cache.GetJSON(ctx, statesCacheKey, &cached)
		if err != nil {
			logger.Log.Warn("states cache read failed", zap.Error(err))
		}
		if errors.Is(err, cache.ErrCorrupt) {
			if err := h.cache.Delete(ctx, statesCacheKey); err != nil {
				logger.Log.Warn("states cache evict failed", zap.Error(err))
			}
		}
		if hit {
			h.ok(w, r, "", cached)
			return
		}
	}

	states, err := h.client.States(ctx)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if h.cache != nil && len(states) > 0 {
		if err := h.cache.SetJSON(ctx, statesCacheKey, states, h.statesTTL); err != nil {
			logger.Log.Warn("states cache write failed", zap.Error(err))
		}
	}
	h.ok(w, r, "", states)
}

func (h *CatalogHandler) Projects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.client.Projects(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, "", projects)
}

func (h *CatalogHandler) Project(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	project, err := h.client.Project(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, "", project)
}

func (h *CatalogHandler) ContactCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.client.ContactCategories(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, r, "", categories)
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || id <= 0 {
		return 0, errBadRequest
	}
	return id, nil
}
