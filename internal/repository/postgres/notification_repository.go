package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/rahatc/paydesh/internal/domain/errors"
	"github.com/rahatc/paydesh/internal/domain/notification"
)

// NotificationRepository implements notification.Repository using PostgreSQL.
type NotificationRepository struct {
	pool *pgxpool.Pool
}

// NewNotificationRepository creates a new NotificationRepository.
func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{pool: pool}
}

func (r *NotificationRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

// Create stores a delivered notification.
func (r *NotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO notifications (id, owner_id, message, read, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (id) DO NOTHING`,
		n.ID, n.OwnerID, n.Message, n.Read, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// ListForOwner retrieves notifications for an owner, newest first.
func (r *NotificationRepository) ListForOwner(ctx context.Context, ownerID string, limit, offset int) ([]*notification.Notification, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db(ctx).Query(ctx,
		`SELECT id, owner_id, message, read, created_at
		 FROM notifications WHERE owner_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		ownerID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []*notification.Notification
	for rows.Next() {
		n := &notification.Notification{}
		if err := rows.Scan(&n.ID, &n.OwnerID, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead flags a notification as read. Scoped to the owner so one user
// cannot touch another's notifications.
func (r *NotificationRepository) MarkRead(ctx context.Context, id uuid.UUID, ownerID string) error {
	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE notifications SET read = TRUE WHERE id = $1 AND owner_id = $2`,
		id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrNotificationNotFound
	}
	return nil
}
