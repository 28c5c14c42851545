package posts

import (
	"github.com/inkwell-press/inkwell/internal/rbac"
)

// InitialStatus derives the creation status from the creating actor, never
// from a request field the caller could spoof. Admin-rank actors publish
// immediately; everyone else who may create enters review. Saving as draft
// is available to any actor who passed the create gate.
func InitialStatus(actor rbac.Actor, asDraft bool) (Status, error) {
	if !rbac.CanCreatePost(actor) {
		return "", rbac.ErrPermissionDenied
	}
	if asDraft {
		return StatusDraft, nil
	}
	if actor.Role.AtLeast(rbac.RoleAdmin) {
		return StatusApproved, nil
	}
	return StatusPending, nil
}

// NextStatus validates the requested lifecycle move for the actor. A no-op
// request (from == to) is idempotent success so that retried network calls
// never surface as failures. A move outside the table fails with
// *InvalidTransitionError; a listed move without the required rank fails
// with rbac.ErrPermissionDenied. The decision is pure: nothing is applied.
func NextStatus(actor rbac.Actor, post Post, to Status) (Status, error) {
	from := post.Status
	if from == to {
		return to, nil
	}
	isAuthor := actor.Authenticated && actor.ID == post.AuthorID
	isModerator := rbac.CanModeratePosts(actor)
	allowed, legal := transitionRule(from, to, isAuthor, isModerator)
	if !legal {
		return "", &InvalidTransitionError{From: from, To: to, Perms: rbac.Resolve(actor)}
	}
	if !allowed {
		return "", rbac.ErrPermissionDenied
	}
	return to, nil
}

// transitionRule is the closed transition table. legal reports whether the
// pair appears in the table at all; allowed whether this actor may take it.
func transitionRule(from, to Status, isAuthor, isModerator bool) (allowed, legal bool) {
	// any -> draft: unpublish / edit-in-place.
	if to == StatusDraft {
		return isAuthor || isModerator, true
	}
	switch {
	case from == StatusDraft && to == StatusPending:
		return isAuthor || isModerator, true
	case from == StatusDraft && to == StatusApproved:
		return isModerator, true
	case from == StatusPending && to == StatusApproved:
		return isModerator, true
	case from == StatusPending && to == StatusRejected:
		return isModerator, true
	case from == StatusApproved && to == StatusPending:
		// re-review
		return isModerator, true
	case from == StatusRejected && to == StatusPending:
		// resubmission
		return isAuthor || isModerator, true
	}
	return false, false
}

// Broadcastable reports whether a successful move into next from prev emits
// a lifecycle event. Only arrivals into approved are broadcast-worthy;
// rejected and draft are not.
func Broadcastable(prev, next Status) bool {
	return next == StatusApproved && prev != StatusApproved
}
