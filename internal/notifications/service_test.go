package notifications

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-press/inkwell/internal/rbac"
	"github.com/inkwell-press/inkwell/jobs"
)

type memoryNotifRepo struct {
	rows []Notification
}

func (r *memoryNotifRepo) Insert(ctx context.Context, n Notification) error {
	r.rows = append(r.rows, n)
	return nil
}

func (r *memoryNotifRepo) ListForAudiences(ctx context.Context, audiences []string, limit, offset int) ([]Notification, error) {
	allowed := make(map[string]struct{}, len(audiences))
	for _, a := range audiences {
		allowed[a] = struct{}{}
	}
	var out []Notification
	for _, n := range r.rows {
		if _, ok := allowed[n.UserID]; ok {
			out = append(out, n)
		}
	}
	return out, nil
}

func TestDispatchStoresRow(t *testing.T) {
	repo := &memoryNotifRepo{}
	svc := NewService(repo, nil)
	postID := uuid.New()

	err := svc.Dispatch(context.Background(), jobs.NotifyDispatchPayload{
		Type:     "approval",
		PostID:   postID.String(),
		Message:  "\"Hello\" was approved",
		Audience: AudienceAll,
	})
	require.NoError(t, err)
	require.Len(t, repo.rows, 1)
	require.Equal(t, AudienceAll, repo.rows[0].UserID)
	require.Equal(t, postID, repo.rows[0].PostID)
	require.NotEqual(t, uuid.Nil, repo.rows[0].ID)
}

// A malformed post ID is dropped rather than retried forever.
func TestDispatchDropsBadPostID(t *testing.T) {
	repo := &memoryNotifRepo{}
	svc := NewService(repo, nil)

	err := svc.Dispatch(context.Background(), jobs.NotifyDispatchPayload{Type: "approval", PostID: "not-a-uuid"})
	require.NoError(t, err)
	require.Empty(t, repo.rows)
}

func TestListForAudienceRouting(t *testing.T) {
	repo := &memoryNotifRepo{rows: []Notification{
		{ID: uuid.New(), UserID: AudienceAll, Type: "approval"},
		{ID: uuid.New(), UserID: AudienceModerators, Type: "new_post"},
		{ID: uuid.New(), UserID: "42", Type: "approval"},
		{ID: uuid.New(), UserID: "99", Type: "approval"},
	}}
	svc := NewService(repo, nil)
	ctx := context.Background()

	reader := rbac.Actor{ID: 42, Role: rbac.RoleUser, Authenticated: true}
	rows, err := svc.ListFor(ctx, reader, 20, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	admin := rbac.Actor{ID: 7, Role: rbac.RoleAdmin, Authenticated: true}
	rows, err = svc.ListFor(ctx, admin, 20, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, n := range rows {
		require.NotEqual(t, "42", n.UserID)
	}
}
