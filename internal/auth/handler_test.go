package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/inkwell-press/inkwell/internal/auth"
	"github.com/inkwell-press/inkwell/internal/rbac"
	"github.com/inkwell-press/inkwell/internal/shared"
	_ "github.com/inkwell-press/inkwell/testing"
)

type stubRepo struct {
	user     *auth.User
	sessions map[string]int64
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	if s.sessions == nil {
		s.sessions = make(map[string]int64)
	}
	s.sessions[id] = userID
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	delete(s.sessions, id)
	return nil
}

func newAuthRouter(t *testing.T, repo auth.Repository) (chi.Router, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessionManager := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	csrfManager := shared.NewCSRFManager("csrfsecret")
	handler := auth.NewHandler(nil, auth.NewService(repo), sessionManager, csrfManager)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			sess, err := sessionManager.Load(req.Context(), req)
			require.NoError(t, err)
			ctx := shared.ContextWithSession(req.Context(), sess)
			next.ServeHTTP(&commitWriter{ResponseWriter: w, commit: func() {
				require.NoError(t, sessionManager.Commit(ctx, w, req, sess))
			}}, req.WithContext(ctx))
		})
	})
	r.Route("/auth", handler.MountRoutes)
	return r, sessionManager
}

// commitWriter persists the session right before the first byte of the
// response, mirroring the production middleware.
type commitWriter struct {
	http.ResponseWriter
	commit    func()
	committed bool
}

func (w *commitWriter) WriteHeader(status int) {
	if !w.committed {
		w.committed = true
		w.commit()
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *commitWriter) Write(data []byte) (int, error) {
	if !w.committed {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(data)
}

func activeUser(t *testing.T) *auth.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)
	return &auth.User{
		ID:            42,
		Email:         "writer@example.com",
		Name:          "Writer",
		PasswordHash:  string(hash),
		Role:          rbac.RoleWriter,
		EmailVerified: true,
		IsActive:      true,
	}
}

func sessionCookie(t *testing.T, res *httptest.ResponseRecorder, sessions *shared.SessionManager) *http.Cookie {
	t.Helper()
	for _, c := range res.Result().Cookies() {
		if c.Name == sessions.CookieName() {
			return c
		}
	}
	return nil
}

func TestLoginSuccessIssuesSessionAndToken(t *testing.T) {
	repo := &stubRepo{user: activeUser(t)}
	router, sessions := newAuthRouter(t, repo)

	body := `{"email":"writer@example.com","password":"correct-horse"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusOK, res.Code)

	var view struct {
		UserID      int64  `json:"user_id"`
		Role        string `json:"role"`
		CSRFToken   string `json:"csrf_token"`
		Permissions struct {
			CanCreate   bool `json:"can_create"`
			CanModerate bool `json:"can_moderate"`
		} `json:"permissions"`
	}
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &view))
	require.Equal(t, int64(42), view.UserID)
	require.Equal(t, "writer", view.Role)
	require.NotEmpty(t, view.CSRFToken)
	require.True(t, view.Permissions.CanCreate)
	require.False(t, view.Permissions.CanModerate)

	require.Len(t, repo.sessions, 1)
	require.NotNil(t, sessionCookie(t, res, sessions))
}

func TestLoginInvalidCredentials(t *testing.T) {
	repo := &stubRepo{user: activeUser(t)}
	router, _ := newAuthRouter(t, repo)

	body := `{"email":"writer@example.com","password":"wrong-password"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusUnauthorized, res.Code)
	require.Empty(t, repo.sessions)
}

func TestLoginInactiveAccountRejected(t *testing.T) {
	user := activeUser(t)
	user.IsActive = false
	router, _ := newAuthRouter(t, &stubRepo{user: user})

	body := `{"email":"writer@example.com","password":"correct-horse"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestLogoutDestroysSession(t *testing.T) {
	repo := &stubRepo{user: activeUser(t)}
	router, sessions := newAuthRouter(t, repo)

	login := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"writer@example.com","password":"correct-horse"}`))
	login.Header.Set("Content-Type", "application/json")
	loginRes := httptest.NewRecorder()
	router.ServeHTTP(loginRes, login)
	require.Equal(t, http.StatusOK, loginRes.Code)
	cookie := sessionCookie(t, loginRes, sessions)
	require.NotNil(t, cookie)

	logout := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	logout.AddCookie(cookie)
	logoutRes := httptest.NewRecorder()
	router.ServeHTTP(logoutRes, logout)
	require.Equal(t, http.StatusNoContent, logoutRes.Code)
	require.Empty(t, repo.sessions)
}
