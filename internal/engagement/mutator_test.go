package engagement

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/inkwell-press/inkwell/internal/rbac"
	"github.com/inkwell-press/inkwell/internal/shared"
)

type memoryStore struct {
	mu    sync.Mutex
	sets  map[uuid.UUID][]int64
	fail  error
	calls int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{sets: make(map[uuid.UUID][]int64)}
}

func (s *memoryStore) seed(postID uuid.UUID, members ...int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets[postID] = NewLikeSet(members...).Members()
}

func (s *memoryStore) GetLikedBy(ctx context.Context, postID uuid.UUID) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	members, ok := s.sets[postID]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]int64(nil), members...), nil
}

func (s *memoryStore) ReplaceLikedBy(ctx context.Context, postID uuid.UUID, expect, next []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.fail != nil {
		return s.fail
	}
	current, ok := s.sets[postID]
	if !ok {
		return ErrNotFound
	}
	if !FromMembers(current).Equal(FromMembers(expect)) {
		return ErrConflict
	}
	s.sets[postID] = append([]int64(nil), next...)
	return nil
}

func likerActor(id int64) rbac.Actor {
	return rbac.Actor{ID: id, Name: "liker", Role: rbac.RoleUser, Authenticated: true, EmailVerified: true}
}

func TestToggleIsItsOwnInverse(t *testing.T) {
	current := NewLikeSet(1, 2)
	once := Toggle(3, current)
	require.True(t, once.Contains(3))
	twice := Toggle(3, once)
	require.True(t, twice.Equal(current))

	// The observed set is never mutated in place.
	require.False(t, current.Contains(3))
}

func TestToggleLikeRequiresAuthentication(t *testing.T) {
	mutator := NewMutator(newMemoryStore(), nil, nil)
	_, err := mutator.ToggleLike(context.Background(), rbac.Actor{}, uuid.New(), NewLikeSet())
	require.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestToggleLikeCommit(t *testing.T) {
	store := newMemoryStore()
	postID := uuid.New()
	store.seed(postID)
	mutator := NewMutator(store, nil, nil)

	mutation, err := mutator.ToggleLike(context.Background(), likerActor(5), postID, NewLikeSet())
	require.NoError(t, err)
	require.True(t, mutation.Optimistic.Contains(5))
	require.Equal(t, 0, mutation.Snapshot.Count())

	committed, err := mutation.Commit(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, committed.Count())

	stored, err := store.GetLikedBy(context.Background(), postID)
	require.NoError(t, err)
	require.Equal(t, []int64{5}, stored)
}

// Two concurrent toggles from the same stale snapshot: exactly one wins the
// compare-and-set, the loser reconciles to the authoritative set and retries.
func TestConcurrentTogglesConverge(t *testing.T) {
	store := newMemoryStore()
	postID := uuid.New()
	store.seed(postID)
	mutator := NewMutator(store, nil, nil)

	stale := NewLikeSet()
	first, err := mutator.ToggleLike(context.Background(), likerActor(1), postID, stale)
	require.NoError(t, err)
	second, err := mutator.ToggleLike(context.Background(), likerActor(2), postID, stale)
	require.NoError(t, err)

	_, err = first.Commit(context.Background())
	require.NoError(t, err)

	_, err = second.Commit(context.Background())
	require.ErrorIs(t, err, ErrConflict)

	authoritative, err := mutator.Reconcile(context.Background(), postID)
	require.NoError(t, err)
	require.Equal(t, 1, authoritative.Count())
	require.True(t, authoritative.Contains(1))

	retry, err := mutator.ToggleLike(context.Background(), likerActor(2), postID, authoritative)
	require.NoError(t, err)
	committed, err := retry.Commit(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, committed.Count())
}

// A failed commit leaves the snapshot as the exact rollback target and the
// stored set untouched. No second write is attempted.
func TestCommitFailureRollsBackToSnapshot(t *testing.T) {
	store := newMemoryStore()
	postID := uuid.New()
	store.seed(postID, 1, 2)
	mutator := NewMutator(store, nil, nil)

	before, err := mutator.Current(context.Background(), postID)
	require.NoError(t, err)

	store.fail = errors.New("connection reset")
	mutation, err := mutator.ToggleLike(context.Background(), likerActor(3), postID, before)
	require.NoError(t, err)

	_, err = mutation.Commit(context.Background())
	require.Error(t, err)
	require.Equal(t, 1, store.calls)
	require.True(t, mutation.Snapshot.Equal(before))

	store.fail = nil
	stored, err := mutator.Current(context.Background(), postID)
	require.NoError(t, err)
	require.True(t, stored.Equal(before))
}

func TestCommitRefreshesLikeCountCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCache(client, time.Minute)

	store := newMemoryStore()
	postID := uuid.New()
	store.seed(postID, 8)
	mutator := NewMutator(store, cache, nil)

	current, err := mutator.Current(context.Background(), postID)
	require.NoError(t, err)
	mutation, err := mutator.ToggleLike(context.Background(), likerActor(9), postID, current)
	require.NoError(t, err)
	_, err = mutation.Commit(context.Background())
	require.NoError(t, err)

	count, hit, err := cache.GetCount(context.Background(), postID)
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, 2, count)

	require.True(t, mr.Exists(shared.LikeCountKey(postID.String())))
}

// A transport failure drops the cached count: the durable outcome is
// unknown, so no count is better than a possibly stale one.
func TestCommitTransportFailureDropsCachedCount(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCache(client, time.Minute)

	store := newMemoryStore()
	postID := uuid.New()
	store.seed(postID, 1, 2)
	mutator := NewMutator(store, cache, nil)

	require.NoError(t, cache.SetCount(context.Background(), postID, 2))

	current, err := mutator.Current(context.Background(), postID)
	require.NoError(t, err)
	store.fail = errors.New("connection reset")
	mutation, err := mutator.ToggleLike(context.Background(), likerActor(3), postID, current)
	require.NoError(t, err)

	_, err = mutation.Commit(context.Background())
	require.Error(t, err)
	require.False(t, mr.Exists(shared.LikeCountKey(postID.String())))

	// A lost compare-and-set keeps the cache: the conflict winner already
	// refreshed it with the authoritative count.
	store.fail = nil
	winner, err := mutator.ToggleLike(context.Background(), likerActor(4), postID, current)
	require.NoError(t, err)
	_, err = winner.Commit(context.Background())
	require.NoError(t, err)

	loser, err := mutator.ToggleLike(context.Background(), likerActor(5), postID, current)
	require.NoError(t, err)
	_, err = loser.Commit(context.Background())
	require.ErrorIs(t, err, ErrConflict)
	require.True(t, mr.Exists(shared.LikeCountKey(postID.String())))
}

func TestReconcileRefreshesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCache(client, time.Minute)

	store := newMemoryStore()
	postID := uuid.New()
	store.seed(postID, 1, 2, 3)
	mutator := NewMutator(store, cache, nil)

	set, err := mutator.Reconcile(context.Background(), postID)
	require.NoError(t, err)
	require.Equal(t, 3, set.Count())

	count, hit, err := cache.GetCount(context.Background(), postID)
	require.NoError(t, err)
	require.True(t, hit)
	require.Equal(t, 3, count)
}

func TestMembersAreSortedCanonical(t *testing.T) {
	set := NewLikeSet(42, 7, 19)
	require.Equal(t, []int64{7, 19, 42}, set.Members())
	require.Equal(t, set.Members(), FromMembers(set.Members()).Members())
}
