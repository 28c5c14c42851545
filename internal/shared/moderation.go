package shared

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ModerationAction enumerates moderation log actions.
type ModerationAction string

const (
	// ModerationSubmit marks a post submitted for review.
	ModerationSubmit ModerationAction = "SUBMIT"
	// ModerationApprove marks an approve action.
	ModerationApprove ModerationAction = "APPROVE"
	// ModerationReject marks a reject action.
	ModerationReject ModerationAction = "REJECT"
	// ModerationUnpublish marks a pull back to draft.
	ModerationUnpublish ModerationAction = "UNPUBLISH"
)

// ModerationLog represents a single moderation record.
type ModerationLog struct {
	ID      int64
	PostID  uuid.UUID
	ActorID int64
	Action  ModerationAction
	Note    string
	At      time.Time
}

// ModerationRecorder persists moderation history.
type ModerationRecorder struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewModerationRecorder constructs ModerationRecorder.
func NewModerationRecorder(pool *pgxpool.Pool, logger *slog.Logger) *ModerationRecorder {
	return &ModerationRecorder{pool: pool, logger: logger}
}

// Record writes a moderation entry to the database.
func (r *ModerationRecorder) Record(ctx context.Context, log ModerationLog) error {
	if r == nil {
		return errors.New("moderation recorder not initialised")
	}
	if log.PostID == uuid.Nil {
		return errors.New("moderation post id required")
	}
	if log.ActorID == 0 {
		return errors.New("moderation actor required")
	}
	if log.Action == "" {
		return errors.New("moderation action required")
	}
	_, err := r.pool.Exec(ctx, `INSERT INTO moderation_log (post_id, actor_id, action, note, at)
VALUES ($1, $2, $3, $4, COALESCE($5, NOW()))`, log.PostID, log.ActorID, string(log.Action), log.Note, log.At)
	if err != nil {
		r.logger.Error("record moderation", slog.Any("error", err))
		return err
	}
	return nil
}

// List returns moderation entries for a post, oldest first.
func (r *ModerationRecorder) List(ctx context.Context, postID uuid.UUID) ([]ModerationLog, error) {
	if r == nil {
		return nil, errors.New("moderation recorder not initialised")
	}
	rows, err := r.pool.Query(ctx, `SELECT id, post_id, actor_id, action, note, at
FROM moderation_log WHERE post_id=$1 ORDER BY at ASC`, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var logs []ModerationLog
	for rows.Next() {
		var l ModerationLog
		var action string
		if err := rows.Scan(&l.ID, &l.PostID, &l.ActorID, &action, &l.Note, &l.At); err != nil {
			return nil, err
		}
		l.Action = ModerationAction(action)
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return logs, nil
}

// EnsureSubmit records a submit entry once per post.
func (r *ModerationRecorder) EnsureSubmit(ctx context.Context, postID uuid.UUID, actorID int64, note string) error {
	if r == nil {
		return errors.New("moderation recorder not initialised")
	}
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT true FROM moderation_log WHERE post_id=$1 AND action='SUBMIT' LIMIT 1`, postID).Scan(&exists)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r.Record(ctx, ModerationLog{PostID: postID, ActorID: actorID, Action: ModerationSubmit, Note: note})
		}
		return err
	}
	return nil
}
