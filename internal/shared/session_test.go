package shared_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-press/inkwell/internal/shared"
	_ "github.com/inkwell-press/inkwell/testing"
)

func newSessionManager(t *testing.T) *shared.SessionManager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return shared.NewSessionManager(client, "test_session", "secret", time.Hour, false)
}

func TestSessionRoundTrip(t *testing.T) {
	sm := newSessionManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)
	sess.SetUser("42")
	sess.Set("theme", "dark")

	res := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, res, req, sess))

	cookies := res.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, "test_session", cookies[0].Name)

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(cookies[0])
	reloaded, err := sm.Load(ctx, next)
	require.NoError(t, err)
	require.Equal(t, "42", reloaded.User())
	require.Equal(t, "dark", reloaded.Get("theme"))
}

func TestSessionDestroyClearsCookieAndStore(t *testing.T) {
	sm := newSessionManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)
	sess.SetUser("42")

	res := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, res, req, sess))
	cookie := res.Result().Cookies()[0]

	sm.Destroy(sess)
	res2 := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, res2, req, sess))
	cleared := res2.Result().Cookies()[0]
	require.Equal(t, -1, cleared.MaxAge)

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(cookie)
	reloaded, err := sm.Load(ctx, next)
	require.NoError(t, err)
	require.Empty(t, reloaded.User())
}

func TestCSRFTokenLifecycle(t *testing.T) {
	sm := newSessionManager(t)
	csrf := shared.NewCSRFManager("csrfsecret")
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)

	token, err := csrf.EnsureToken(ctx, sess)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	// Stable for the lifetime of the session.
	again, err := csrf.EnsureToken(ctx, sess)
	require.NoError(t, err)
	require.Equal(t, token, again)

	require.NoError(t, csrf.VerifyToken(ctx, sess, token))
	require.ErrorIs(t, csrf.VerifyToken(ctx, sess, ""), shared.ErrCSRFTokenMissing)
	require.ErrorIs(t, csrf.VerifyToken(ctx, sess, "forged"), shared.ErrCSRFTokenMismatch)
	require.ErrorIs(t, csrf.VerifyToken(ctx, nil, token), shared.ErrCSRFTokenMissing)
}
