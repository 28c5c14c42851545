package engagement

import (
	"errors"
	"sort"
)

var (
	// ErrNotAuthenticated indicates a toggle attempted without a session.
	// No optimistic state is ever produced for an unauthenticated caller.
	ErrNotAuthenticated = errors.New("engagement: not authenticated")
	// ErrConflict indicates the durable write was rejected because the
	// stored set no longer matches the snapshot precondition.
	ErrConflict = errors.New("engagement: stale like set")
	// ErrNotFound indicates the post is missing.
	ErrNotFound = errors.New("engagement: post not found")
)

// LikeSet is a set of actor IDs. It contains no duplicates and its
// cardinality is the authoritative like count; numeric counters are derived
// from it at read time, never persisted independently.
type LikeSet map[int64]struct{}

// NewLikeSet builds a set from the given members.
func NewLikeSet(members ...int64) LikeSet {
	set := make(LikeSet, len(members))
	for _, id := range members {
		set[id] = struct{}{}
	}
	return set
}

// FromMembers builds a set from a stored slice, dropping duplicates.
func FromMembers(members []int64) LikeSet {
	return NewLikeSet(members...)
}

// Contains reports membership.
func (s LikeSet) Contains(id int64) bool {
	_, ok := s[id]
	return ok
}

// Clone returns an independent copy.
func (s LikeSet) Clone() LikeSet {
	clone := make(LikeSet, len(s))
	for id := range s {
		clone[id] = struct{}{}
	}
	return clone
}

// Members returns the sorted member slice. Sorting keeps stored arrays
// canonical so that the compare-and-set precondition matches reliably.
func (s LikeSet) Members() []int64 {
	members := make([]int64, 0, len(s))
	for id := range s {
		members = append(members, id)
	}
	sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })
	return members
}

// Count returns the set cardinality.
func (s LikeSet) Count() int {
	return len(s)
}

// Equal reports set equality.
func (s LikeSet) Equal(other LikeSet) bool {
	if len(s) != len(other) {
		return false
	}
	for id := range s {
		if !other.Contains(id) {
			return false
		}
	}
	return true
}
