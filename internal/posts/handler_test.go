package posts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-press/inkwell/internal/rbac"
	"github.com/inkwell-press/inkwell/internal/shared"
)

type memoryIdempotency struct {
	keys map[string]struct{}
}

func (s *memoryIdempotency) CheckAndInsert(ctx context.Context, key, module string) error {
	if s.keys == nil {
		s.keys = make(map[string]struct{})
	}
	if _, ok := s.keys[module+":"+key]; ok {
		return shared.ErrIdempotencyConflict
	}
	s.keys[module+":"+key] = struct{}{}
	return nil
}

func newPostsRouter(svc *Service, idempotency IdempotencyPort, actor rbac.Actor) http.Handler {
	handler := NewHandler(nil, svc, idempotency, rbac.Middleware{}, nil)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(rbac.ContextWithActor(req.Context(), actor)))
		})
	})
	r.Route("/posts", handler.MountRoutes)
	return r
}

func transitionRequestWithKey(t *testing.T, postID, key string) *http.Request {
	t.Helper()
	body := `{"to":"approved","note":"ship it"}`
	req := httptest.NewRequest(http.MethodPost, "/posts/"+postID+"/transition", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", key)
	return req
}

// Replaying a keyed transition returns a conflict without touching the post
// or emitting a second event.
func TestTransitionIdempotencyReplay(t *testing.T) {
	svc, repo, bridge := newTestService()
	writer := actorWith(rbac.RoleWriter, 2)
	admin := actorWith(rbac.RoleAdmin, 1)

	post, err := svc.Create(context.Background(), writer, CreateInput{Title: "Needs Review"})
	require.NoError(t, err)
	bridge.events = nil

	router := newPostsRouter(svc, &memoryIdempotency{}, admin)

	first := httptest.NewRecorder()
	router.ServeHTTP(first, transitionRequestWithKey(t, post.ID.String(), "approve-once"))
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, 1, bridge.countByType(EventApproval))

	replay := httptest.NewRecorder()
	router.ServeHTTP(replay, transitionRequestWithKey(t, post.ID.String(), "approve-once"))
	require.Equal(t, http.StatusConflict, replay.Code)
	require.Equal(t, 1, bridge.countByType(EventApproval))

	stored, err := repo.Get(context.Background(), post.ID)
	require.NoError(t, err)
	require.Equal(t, StatusApproved, stored.Status)
}

// A fresh key proceeds; idempotency binds to the key, not the endpoint.
func TestTransitionDistinctKeysProceed(t *testing.T) {
	svc, _, _ := newTestService()
	writer := actorWith(rbac.RoleWriter, 2)
	admin := actorWith(rbac.RoleAdmin, 1)

	post, err := svc.Create(context.Background(), writer, CreateInput{Title: "Second Review"})
	require.NoError(t, err)

	router := newPostsRouter(svc, &memoryIdempotency{}, admin)

	first := httptest.NewRecorder()
	router.ServeHTTP(first, transitionRequestWithKey(t, post.ID.String(), "key-a"))
	require.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	router.ServeHTTP(second, transitionRequestWithKey(t, post.ID.String(), "key-b"))
	require.Equal(t, http.StatusOK, second.Code)
}
