package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/stockline-erp/stockline/internal/purchases"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTransitSync is the periodic transit reconciliation task.
	TaskTransitSync = "inventory:transit_sync"
	// TaskOrderNotify delivers purchase order transition notifications.
	TaskOrderNotify = "purchase:notify"
)

// NewTransitSyncTask constructs the reconciliation task.
func NewTransitSyncTask() (*asynq.Task, error) {
	return asynq.NewTask(TaskTransitSync, nil), nil
}

// NewOrderNotifyTask constructs a notification task. The event's stable ID
// doubles as the task ID, so a retried transition enqueues at most one task.
func NewOrderNotifyTask(evt purchases.OrderTransitionedEvent) (*asynq.Task, error) {
	data, err := json.Marshal(evt)
	if err != nil {
		return nil, err
	}
	opts := []asynq.Option{asynq.Queue(QueueDefault)}
	if evt.EventID != "" {
		opts = append(opts, asynq.TaskID(evt.EventID))
	}
	return asynq.NewTask(TaskOrderNotify, data, opts...), nil
}
