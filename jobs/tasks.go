package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeNotifyDispatch is the task type for fanning out notifications.
	TaskTypeNotifyDispatch = "notify:dispatch"
	// TaskTypeMaintenanceCleanup is the task type for periodic cleanup of
	// expired idempotency keys and stale session rows.
	TaskTypeMaintenanceCleanup = "maintenance:cleanup"
)

// NotifyDispatchPayload carries one published event to the worker.
type NotifyDispatchPayload struct {
	Type      string `json:"type"`
	PostID    string `json:"post_id"`
	Message   string `json:"message"`
	ActorName string `json:"actor_name"`
	Audience  string `json:"audience"`
}

// NewNotifyDispatchTask constructs an Asynq task.
func NewNotifyDispatchTask(payload NotifyDispatchPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeNotifyDispatch, data), nil
}

// NewMaintenanceCleanupTask constructs the cron cleanup task.
func NewMaintenanceCleanupTask() *asynq.Task {
	return asynq.NewTask(TaskTypeMaintenanceCleanup, nil)
}
