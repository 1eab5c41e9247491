package push

import (
	"context"

	"github.com/google/uuid"

	"github.com/grocerdash/grocerdash-backend/pkg/logger"
	"github.com/grocerdash/grocerdash-backend/pkg/metrics"
)

// Notifier delivers a push notification to a user's devices. Delivery is a
// collaborator concern; the core only calls this boundary.
type Notifier interface {
	Push(ctx context.Context, userID uuid.UUID, title, body string) error
}

// BestEffort wraps a Notifier so failures are logged and counted instead of
// propagated. Order mutations must never fail because delivery did.
type BestEffort struct {
	inner Notifier
	logg  *logger.Logger
}

// NewBestEffort builds the swallowing wrapper.
func NewBestEffort(inner Notifier, logg *logger.Logger) *BestEffort {
	return &BestEffort{inner: inner, logg: logg}
}

// Push attempts delivery and always succeeds from the caller's perspective.
func (b *BestEffort) Push(ctx context.Context, userID uuid.UUID, title, body string) {
	if b == nil || b.inner == nil {
		return
	}
	if err := b.inner.Push(ctx, userID, title, body); err != nil {
		metrics.PushFailures.Inc()
		if b.logg != nil {
			ctx = b.logg.WithFields(ctx, map[string]any{"user_id": userID.String(), "title": title})
			b.logg.Error(ctx, "push delivery failed", err)
		}
	}
}

// LogNotifier writes notifications to the log. Stands in until a provider
// integration is wired.
type LogNotifier struct {
	logg *logger.Logger
}

// NewLogNotifier builds the logging notifier.
func NewLogNotifier(logg *logger.Logger) *LogNotifier {
	return &LogNotifier{logg: logg}
}

func (n *LogNotifier) Push(ctx context.Context, userID uuid.UUID, title, body string) error {
	if n.logg != nil {
		ctx = n.logg.WithFields(ctx, map[string]any{
			"user_id": userID.String(),
			"title":   title,
			"body":    body,
		})
		n.logg.Info(ctx, "push notification")
	}
	return nil
}
