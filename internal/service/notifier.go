package service

import "context"

// Notifier dispatches a message to an account owner. Dispatch is
// fire-and-forget: implementations must never let a delivery failure
// affect the caller-visible result of an operation.
type Notifier interface {
	Notify(ctx context.Context, ownerID, message string)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) Notify(ctx context.Context, ownerID, message string) {}
