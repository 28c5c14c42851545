package engagement

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/inkwell-press/inkwell/internal/observability"
	"github.com/inkwell-press/inkwell/internal/platform/httpx"
	"github.com/inkwell-press/inkwell/internal/rbac"
)

// Handler wires HTTP endpoints for like toggles.
type Handler struct {
	logger  *slog.Logger
	mutator *Mutator
	cache   *Cache
	rbac    rbac.Middleware
	metrics *observability.Metrics
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, mutator *Mutator, cache *Cache, rbacMW rbac.Middleware, metrics *observability.Metrics) *Handler {
	return &Handler{logger: logger, mutator: mutator, cache: cache, rbac: rbacMW, metrics: metrics}
}

// MountRoutes registers engagement routes on the posts subtree.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{postID}/likes", h.likes)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAuthenticated)
		r.Post("/{postID}/like", h.toggle)
	})
}

type likeView struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"like_count"`
}

func (h *Handler) toggle(w http.ResponseWriter, r *http.Request) {
	postID, ok := h.parsePostID(w, r)
	if !ok {
		return
	}
	actor := rbac.ActorFromContext(r.Context())

	current, err := h.mutator.Current(r.Context(), postID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	mutation, err := h.mutator.ToggleLike(r.Context(), actor, postID, current)
	if err != nil {
		h.respondError(w, err)
		return
	}
	committed, err := mutation.Commit(r.Context())
	if err != nil {
		if errors.Is(err, ErrConflict) {
			// The request-scoped view rolls back to mutation.Snapshot by
			// discarding the optimistic set; reconcile for the client.
			authoritative, recErr := h.mutator.Reconcile(r.Context(), postID)
			if recErr != nil {
				h.respondError(w, recErr)
				return
			}
			httpx.JSON(w, http.StatusConflict, likeView{
				Liked:     authoritative.Contains(actor.ID),
				LikeCount: authoritative.Count(),
			})
			return
		}
		h.respondError(w, err)
		return
	}
	if h.metrics != nil {
		h.metrics.ObserveLikeToggle(committed.Contains(actor.ID))
	}
	httpx.JSON(w, http.StatusOK, likeView{
		Liked:     committed.Contains(actor.ID),
		LikeCount: committed.Count(),
	})
}

func (h *Handler) likes(w http.ResponseWriter, r *http.Request) {
	postID, ok := h.parsePostID(w, r)
	if !ok {
		return
	}
	actor := rbac.ActorFromContext(r.Context())

	if count, hit, err := h.cache.GetCount(r.Context(), postID); err == nil && hit && !actor.Authenticated {
		httpx.JSON(w, http.StatusOK, likeView{Liked: false, LikeCount: count})
		return
	}
	set, err := h.mutator.Current(r.Context(), postID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, likeView{
		Liked:     actor.Authenticated && set.Contains(actor.ID),
		LikeCount: set.Count(),
	})
}

func (h *Handler) parsePostID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "postID")
	id, err := uuid.Parse(raw)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid post id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in to like posts")
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "post not found")
	default:
		if h.logger != nil {
			h.logger.Error("engagement handler", slog.Any("error", err))
		}
		httpx.Problem(w, http.StatusBadGateway, "Upstream Failure", "durable write failed, please retry")
	}
}
