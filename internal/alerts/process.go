package alerts

import (
	"context"

	"github.com/tphakala/wildlife-alert/internal/datastore"
	"github.com/tphakala/wildlife-alert/internal/logger"
)

// Notifier sends the alert message. *notification.TelegramNotifier
// implements it.
type Notifier interface {
	SendAlert(ctx context.Context, label, timestamp, imagePath, extraMessage string) bool
}

// Outcome is the result of Process.
type Outcome struct {
	StoreResult
	Notified bool
}

// Process stores the alert and, when n is not nil, sends the notification
// and marks the row telegram_sent on success. A failed status update is
// logged and leaves Notified true.
func (r *Recorder) Process(ctx context.Context, n Notifier, label, imagePath, message string) Outcome {
	traceID := logger.TraceID(ctx)
	if traceID == "" {
		ctx, _ = logger.NewTraceID(ctx)
	}

	out := Outcome{StoreResult: r.StoreAlert(ctx, label, imagePath)}
	if n == nil {
		return out
	}

	out.Notified = n.SendAlert(ctx, label, out.Timestamp, imagePath, message)
	if !out.Notified {
		return out
	}

	sent := true
	if _, err := r.UpdateAlertStatus(ctx, imagePath, datastore.StatusUpdate{TelegramSent: &sent}); err != nil {
		r.logger.WithContext(ctx).Warn("alert sent but telegram_sent flag not saved", logger.Error(err))
	}
	return out
}
