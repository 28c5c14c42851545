package posts

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/inkwell-press/inkwell/internal/observability"
	"github.com/inkwell-press/inkwell/internal/platform/httpx"
	"github.com/inkwell-press/inkwell/internal/rbac"
	"github.com/inkwell-press/inkwell/internal/shared"
)

// IdempotencyPort guards replayed mutating requests per module.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
}

var _ IdempotencyPort = (*shared.IdempotencyStore)(nil)

// Handler wires HTTP endpoints for the post lifecycle.
type Handler struct {
	logger      *slog.Logger
	service     *Service
	idempotency IdempotencyPort
	rbac        rbac.Middleware
	metrics     *observability.Metrics
	validator   *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, idempotency IdempotencyPort, rbacMW rbac.Middleware, metrics *observability.Metrics) *Handler {
	return &Handler{
		logger:      logger,
		service:     service,
		idempotency: idempotency,
		rbac:        rbacMW,
		metrics:     metrics,
		validator:   validator.New(),
	}
}

// MountRoutes registers post routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/{postID}", h.get)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAuthenticated)
		r.Post("/", h.create)
		r.Put("/{postID}", h.update)
		r.Delete("/{postID}", h.delete)
		r.Post("/{postID}/transition", h.transition)
		r.Get("/{postID}/moderation", h.moderationHistory)
	})
}

type createRequest struct {
	Title      string `json:"title" validate:"required,min=3,max=200"`
	Body       string `json:"body"`
	CategoryID int64  `json:"category_id"`
	Draft      bool   `json:"draft"`
}

type transitionRequest struct {
	To   string `json:"to" validate:"required"`
	Note string `json:"note" validate:"max=500"`
}

type updateRequest struct {
	Title string `json:"title" validate:"required,min=3,max=200"`
	Body  string `json:"body"`
}

type postView struct {
	ID        string `json:"id"`
	AuthorID  int64  `json:"author_id"`
	Title     string `json:"title"`
	Slug      string `json:"slug"`
	Body      string `json:"body"`
	Status    string `json:"status"`
	LikeCount int    `json:"like_count"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toView(p Post) postView {
	return postView{
		ID:        p.ID.String(),
		AuthorID:  p.AuthorID,
		Title:     p.Title,
		Slug:      p.Slug,
		Body:      p.Body,
		Status:    string(p.Status),
		LikeCount: p.LikeCount(),
		CreatedAt: p.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt: p.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor := rbac.ActorFromContext(r.Context())
	post, err := h.service.Create(r.Context(), actor, CreateInput{
		Title:      req.Title,
		Body:       req.Body,
		CategoryID: req.CategoryID,
		AsDraft:    req.Draft,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toView(post))
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	postID, ok := h.parsePostID(w, r)
	if !ok {
		return
	}
	actor := rbac.ActorFromContext(r.Context())
	post, err := h.service.Get(r.Context(), actor, postID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toView(post))
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	actor := rbac.ActorFromContext(r.Context())
	filter := ListFilter{}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, ok := ParseStatus(raw)
		if !ok {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "unknown status")
			return
		}
		filter.Status = status
	}
	if raw := r.URL.Query().Get("page"); raw != "" {
		if page, err := strconv.Atoi(raw); err == nil {
			filter.Page = page
		}
	}
	result, err := h.service.List(r.Context(), actor, filter)
	if err != nil {
		h.respondError(w, err)
		return
	}
	views := make([]postView, 0, len(result))
	for _, p := range result {
		views = append(views, toView(p))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"posts": views})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	postID, ok := h.parsePostID(w, r)
	if !ok {
		return
	}
	var req updateRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	actor := rbac.ActorFromContext(r.Context())
	post, err := h.service.UpdateContent(r.Context(), actor, postID, req.Title, req.Body)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toView(post))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	postID, ok := h.parsePostID(w, r)
	if !ok {
		return
	}
	actor := rbac.ActorFromContext(r.Context())
	if err := h.service.Delete(r.Context(), actor, postID); err != nil {
		h.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request) {
	postID, ok := h.parsePostID(w, r)
	if !ok {
		return
	}
	var req transitionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	to, known := ParseStatus(req.To)
	if !known {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "unknown target status")
		return
	}
	if key := r.Header.Get("Idempotency-Key"); key != "" && h.idempotency != nil {
		if err := h.idempotency.CheckAndInsert(r.Context(), key, "posts"); err != nil {
			h.respondError(w, err)
			return
		}
	}
	actor := rbac.ActorFromContext(r.Context())
	post, err := h.service.Transition(r.Context(), actor, postID, to, req.Note)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if h.metrics != nil {
		h.metrics.ObserveTransition(string(post.Status))
	}
	httpx.JSON(w, http.StatusOK, toView(post))
}

func (h *Handler) moderationHistory(w http.ResponseWriter, r *http.Request) {
	postID, ok := h.parsePostID(w, r)
	if !ok {
		return
	}
	actor := rbac.ActorFromContext(r.Context())
	history, err := h.service.ModerationHistory(r.Context(), actor, postID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"moderation": history})
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
	var invalid *InvalidTransitionError
	switch {
	case errors.As(err, &invalid):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Invalid Transition", invalid.Error())
	case errors.Is(err, rbac.ErrPermissionDenied):
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "you do not have permission for this action")
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "post not found")
	case errors.Is(err, ErrValidation):
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid post payload")
	case errors.Is(err, shared.ErrIdempotencyConflict):
		httpx.Problem(w, http.StatusConflict, "Conflict", "request already processed")
	default:
		if h.logger != nil {
			h.logger.Error("posts handler", slog.Any("error", err))
		}
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
