package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Notification is a message addressed to an account owner about ledger
// activity. Delivery is best effort and never blocks the originating
// operation.
type Notification struct {
	ID        uuid.UUID
	OwnerID   string
	Message   string
	Read      bool
	CreatedAt time.Time
}

// New creates a notification.
func New(ownerID, message string) *Notification {
	return &Notification{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Message:   message,
		CreatedAt: time.Now(),
	}
}

// Repository defines the interface for notification persistence
type Repository interface {
	// Create stores a delivered notification
	Create(ctx context.Context, n *Notification) error

	// ListForOwner retrieves notifications for an owner, newest first
	ListForOwner(ctx context.Context, ownerID string, limit, offset int) ([]*Notification, error)

	// MarkRead flags a notification as read by its owner
	MarkRead(ctx context.Context, id uuid.UUID, ownerID string) error
}
