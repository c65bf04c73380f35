// Package notifications persists per-user notifications in Cassandra and
// fans mutation events out to project members.
package notifications

import (
	"context"
	"os"
	"time"

	"github.com/gocql/gocql"

	"trello-project/tracking-service/errs"
	"trello-project/tracking-service/logging"
	"trello-project/tracking-service/models"
)

// Repository implements stores.NotificationStore on a Cassandra table keyed
// by recipient, with rows clustered newest-first.
type Repository struct {
	session *gocql.Session
}

// NewRepository connects to Cassandra, creating the keyspace and table if
// they do not exist. The cluster address comes from CASS_DB.
func NewRepository() (*Repository, error) {
	host := os.Getenv("CASS_DB")
	if host == "" {
		host = "127.0.0.1"
	}

	cluster := gocql.NewCluster(host)
	cluster.Keyspace = "system"
	session, err := cluster.CreateSession()
	if err != nil {
		return nil, errs.Internal(err, "failed to connect to Cassandra at %s", host)
	}

	err = session.Query(
		`CREATE KEYSPACE IF NOT EXISTS notifications
         WITH replication = {
             'class': 'SimpleStrategy',
             'replication_factor': 1
         }`).Exec()
	session.Close()
	if err != nil {
		return nil, errs.Internal(err, "failed to create notifications keyspace")
	}

	cluster.Keyspace = "notifications"
	cluster.Consistency = gocql.One
	session, err = cluster.CreateSession()
	if err != nil {
		return nil, errs.Internal(err, "failed to connect to notifications keyspace")
	}

	repo := &Repository{session: session}
	if err := repo.createTable(); err != nil {
		session.Close()
		return nil, err
	}

	logging.Logger.Info("Connected to Cassandra notifications keyspace")
	return repo, nil
}

func (r *Repository) createTable() error {
	err := r.session.Query(
		`CREATE TABLE IF NOT EXISTS notifications (
			id UUID,
			recipient TEXT,
			sender TEXT,
			message TEXT,
			related_item_id TEXT,
			related_item_type TEXT,
			is_read BOOLEAN,
			created_at TIMESTAMP,
			PRIMARY KEY ((recipient), created_at, id)
		) WITH CLUSTERING ORDER BY (created_at DESC, id ASC)`).Exec()
	if err != nil {
		return errs.Internal(err, "failed to create notifications table")
	}

	err = r.session.Query(
		`CREATE INDEX IF NOT EXISTS notifications_related_item_idx
		 ON notifications (related_item_id)`).Exec()
	if err != nil {
		return errs.Internal(err, "failed to create related item index")
	}
	return nil
}

// Close shuts down the Cassandra session.
func (r *Repository) Close() {
	r.session.Close()
	logging.Logger.Info("Cassandra session closed")
}

func (r *Repository) Insert(ctx context.Context, notification *models.Notification) error {
	if notification.ID == "" {
		notification.ID = gocql.TimeUUID().String()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}

	id, err := gocql.ParseUUID(notification.ID)
	if err != nil {
		return errs.ValidationFailed("invalid notification id %q", notification.ID)
	}

	err = r.session.Query(
		`INSERT INTO notifications (id, recipient, sender, message, related_item_id, related_item_type, is_read, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, notification.Recipient, notification.Sender, notification.Message,
		notification.RelatedItemID, string(notification.RelatedItemType),
		notification.IsRead, notification.CreatedAt,
	).WithContext(ctx).Exec()
	if err != nil {
		return errs.Internal(err, "failed to insert notification for %s", notification.Recipient)
	}
	return nil
}

func (r *Repository) FindByRecipient(ctx context.Context, recipient string, page, limit int) ([]models.Notification, int64, error) {
	all, err := r.scanRecipient(ctx, recipient)
	if err != nil {
		return nil, 0, err
	}

	total := int64(len(all))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	start := (page - 1) * limit
	if start >= len(all) {
		return []models.Notification{}, total, nil
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], total, nil
}

func (r *Repository) UnreadCount(ctx context.Context, recipient string) (int64, error) {
	var count int64
	err := r.session.Query(
		`SELECT COUNT(*) FROM notifications WHERE recipient = ? AND is_read = false ALLOW FILTERING`,
		recipient,
	).WithContext(ctx).Scan(&count)
	if err != nil {
		return 0, errs.Internal(err, "failed to count unread notifications for %s", recipient)
	}
	return count, nil
}

func (r *Repository) MarkRead(ctx context.Context, recipient, id string) error {
	notification, err := r.findRow(ctx, recipient, id)
	if err != nil {
		return err
	}
	uuid, _ := gocql.ParseUUID(notification.ID)
	err = r.session.Query(
		`UPDATE notifications SET is_read = true WHERE recipient = ? AND created_at = ? AND id = ?`,
		recipient, notification.CreatedAt, uuid,
	).WithContext(ctx).Exec()
	if err != nil {
		return errs.Internal(err, "failed to mark notification %s as read", id)
	}
	return nil
}

func (r *Repository) MarkAllRead(ctx context.Context, recipient string) error {
	all, err := r.scanRecipient(ctx, recipient)
	if err != nil {
		return err
	}
	for _, notification := range all {
		if notification.IsRead {
			continue
		}
		uuid, _ := gocql.ParseUUID(notification.ID)
		err := r.session.Query(
			`UPDATE notifications SET is_read = true WHERE recipient = ? AND created_at = ? AND id = ?`,
			recipient, notification.CreatedAt, uuid,
		).WithContext(ctx).Exec()
		if err != nil {
			return errs.Internal(err, "failed to mark notification %s as read", notification.ID)
		}
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, recipient, id string) error {
	notification, err := r.findRow(ctx, recipient, id)
	if err != nil {
		return err
	}
	uuid, _ := gocql.ParseUUID(notification.ID)
	err = r.session.Query(
		`DELETE FROM notifications WHERE recipient = ? AND created_at = ? AND id = ?`,
		recipient, notification.CreatedAt, uuid,
	).WithContext(ctx).Exec()
	if err != nil {
		return errs.Internal(err, "failed to delete notification %s", id)
	}
	return nil
}

// DeleteByItemIDs removes every notification referencing one of the given
// items, across all recipients. Used by cascading deletes.
func (r *Repository) DeleteByItemIDs(ctx context.Context, itemIDs []string) error {
	for _, itemID := range itemIDs {
		iter := r.session.Query(
			`SELECT recipient, created_at, id FROM notifications WHERE related_item_id = ?`,
			itemID,
		).WithContext(ctx).Iter()

		var (
			recipient string
			createdAt time.Time
			id        gocql.UUID
		)
		type rowKey struct {
			recipient string
			createdAt time.Time
			id        gocql.UUID
		}
		var keys []rowKey
		for iter.Scan(&recipient, &createdAt, &id) {
			keys = append(keys, rowKey{recipient, createdAt, id})
		}
		if err := iter.Close(); err != nil {
			return errs.Internal(err, "failed to look up notifications for item %s", itemID)
		}

		for _, key := range keys {
			err := r.session.Query(
				`DELETE FROM notifications WHERE recipient = ? AND created_at = ? AND id = ?`,
				key.recipient, key.createdAt, key.id,
			).WithContext(ctx).Exec()
			if err != nil {
				return errs.Internal(err, "failed to delete notification %s", key.id)
			}
		}
	}
	return nil
}

func (r *Repository) scanRecipient(ctx context.Context, recipient string) ([]models.Notification, error) {
	iter := r.session.Query(
		`SELECT id, recipient, sender, message, related_item_id, related_item_type, is_read, created_at
		 FROM notifications WHERE recipient = ?`,
		recipient,
	).WithContext(ctx).Iter()

	var (
		notifications []models.Notification
		notification  models.Notification
		itemType      string
	)
	for iter.Scan(&notification.ID, &notification.Recipient, &notification.Sender,
		&notification.Message, &notification.RelatedItemID, &itemType,
		&notification.IsRead, &notification.CreatedAt) {
		notification.RelatedItemType = models.ItemType(itemType)
		notifications = append(notifications, notification)
	}
	if err := iter.Close(); err != nil {
		return nil, errs.Internal(err, "failed to fetch notifications for %s", recipient)
	}
	return notifications, nil
}

func (r *Repository) findRow(ctx context.Context, recipient, id string) (*models.Notification, error) {
	all, err := r.scanRecipient(ctx, recipient)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, errs.NotFound("notification %s not found", id)
}
