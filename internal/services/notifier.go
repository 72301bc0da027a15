package services

import (
	"context"

	"github.com/sirrryasir/edoskill360-sub000/internal/utils"
)

// Notifier delivers fire-and-forget notifications. Implementations must
// swallow their own failures: a notification must never roll back or block a
// verification state change.
type Notifier interface {
	Notify(ctx context.Context, userID utils.SixID, templateID string, payload map[string]interface{})
}

// NopNotifier discards all notifications. Used in tests and when no queue is
// configured.
type NopNotifier struct{}

func (NopNotifier) Notify(ctx context.Context, userID utils.SixID, templateID string, payload map[string]interface{}) {
}
