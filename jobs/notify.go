package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/stockline-erp/stockline/internal/purchases"
)

// HandleOrderNotifyTask processes TaskOrderNotify tasks. Actual supplier
// messaging is handled by an external collaborator; this worker only hands
// the event off and records the attempt.
func HandleOrderNotifyTask(ctx context.Context, t *asynq.Task) error {
	var evt purchases.OrderTransitionedEvent
	if err := json.Unmarshal(t.Payload(), &evt); err != nil {
		return asynq.SkipRetry
	}
	slog.Default().Info("purchase order notification",
		slog.Int64("order_id", evt.OrderID),
		slog.String("from", string(evt.From)),
		slog.String("to", string(evt.To)),
		slog.Bool("urgent", evt.IsUrgent))
	return nil
}
