package engagement

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/inkwell-press/inkwell/internal/rbac"
)

// Toggle computes the next membership from the observed set: a member is
// removed, a non-member added. Pure; the caller is responsible for always
// threading the latest known snapshot, so two sequential calls toggle twice.
func Toggle(actorID int64, current LikeSet) LikeSet {
	next := current.Clone()
	if next.Contains(actorID) {
		delete(next, actorID)
	} else {
		next[actorID] = struct{}{}
	}
	return next
}

// StorePort persists full like sets. ReplaceLikedBy must write the entire
// set guarded by an expected-previous-value precondition, never an
// increment: full-set rewrites are what keep concurrent likers from
// silently dropping each other's membership.
type StorePort interface {
	GetLikedBy(ctx context.Context, postID uuid.UUID) ([]int64, error)
	ReplaceLikedBy(ctx context.Context, postID uuid.UUID, expect, next []int64) error
}

// Mutation is one optimistic toggle in flight. Optimistic is applied to the
// local view before the durable write settles; Snapshot is the exact
// rollback target held for the lifetime of the request. On Commit failure
// the caller restores Snapshot; re-toggling instead could double-apply
// if the user acted again in the interim.
type Mutation struct {
	Snapshot   LikeSet
	Optimistic LikeSet
	Commit     func(ctx context.Context) (LikeSet, error)
}

// Mutator applies at-most-once-per-user like toggles to shared counters.
type Mutator struct {
	store  StorePort
	cache  *Cache
	logger *slog.Logger
	flight singleflight.Group
}

// NewMutator constructs a Mutator.
func NewMutator(store StorePort, cache *Cache, logger *slog.Logger) *Mutator {
	return &Mutator{store: store, cache: cache, logger: logger}
}

// ToggleLike starts the three-phase protocol: snapshot, optimistic apply,
// commit-or-rollback. The actor must be authenticated; otherwise nothing is
// mutated and ErrNotAuthenticated is returned. Commit performs exactly one
// durable write; it fails with ErrConflict when the stored set drifted from
// the snapshot, or passes through transport errors for the caller's retry
// policy. Either way the mutator performs no queued rollbacks: one failed
// attempt, one restore of Snapshot by the caller.
func (m *Mutator) ToggleLike(ctx context.Context, actor rbac.Actor, postID uuid.UUID, current LikeSet) (Mutation, error) {
	if !actor.Authenticated {
		return Mutation{}, ErrNotAuthenticated
	}
	snapshot := current.Clone()
	next := Toggle(actor.ID, current)
	commit := func(ctx context.Context) (LikeSet, error) {
		if err := m.store.ReplaceLikedBy(ctx, postID, snapshot.Members(), next.Members()); err != nil {
			if !errors.Is(err, ErrConflict) && !errors.Is(err, ErrNotFound) {
				// A transport failure leaves the durable outcome unknown, so
				// the cached count cannot be trusted until a reconcile.
				m.invalidateCount(ctx, postID)
			}
			return nil, err
		}
		m.refreshCount(ctx, postID, next.Count())
		return next, nil
	}
	return Mutation{Snapshot: snapshot, Optimistic: next, Commit: commit}, nil
}

// Current loads the stored like set for a post.
func (m *Mutator) Current(ctx context.Context, postID uuid.UUID) (LikeSet, error) {
	members, err := m.store.GetLikedBy(ctx, postID)
	if err != nil {
		return nil, err
	}
	return FromMembers(members), nil
}

// Reconcile replaces any provisional local value with the authoritative
// stored set once a commit has settled. Concurrent reconciliations of the
// same post collapse into a single fetch.
func (m *Mutator) Reconcile(ctx context.Context, postID uuid.UUID) (LikeSet, error) {
	result := m.flight.DoChan(postID.String(), func() (interface{}, error) {
		return m.store.GetLikedBy(context.WithoutCancel(ctx), postID)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-result:
		if res.Err != nil {
			return nil, res.Err
		}
		set := FromMembers(res.Val.([]int64))
		m.refreshCount(ctx, postID, set.Count())
		return set, nil
	}
}

func (m *Mutator) refreshCount(ctx context.Context, postID uuid.UUID, count int) {
	if m.cache == nil {
		return
	}
	if err := m.cache.SetCount(ctx, postID, count); err != nil && m.logger != nil {
		m.logger.Warn("refresh like count", slog.String("post_id", postID.String()), slog.Any("error", err))
	}
}

func (m *Mutator) invalidateCount(ctx context.Context, postID uuid.UUID) {
	if m.cache == nil {
		return
	}
	if err := m.cache.Invalidate(ctx, postID); err != nil && m.logger != nil {
		m.logger.Warn("invalidate like count", slog.String("post_id", postID.String()), slog.Any("error", err))
	}
}
