package notifications

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"trello-project/tracking-service/logging"
	"trello-project/tracking-service/models"
	"trello-project/tracking-service/realtime"
	"trello-project/tracking-service/stores"
)

// Fanout delivers notifications for a mutation to every affected user except
// the actor. Writes go through a circuit breaker so a struggling Cassandra
// node degrades notifications instead of failing mutations; realtime pushes
// are best-effort on top.
type Fanout struct {
	store     stores.NotificationStore
	breaker   *gobreaker.CircuitBreaker
	publisher realtime.Publisher
}

func NewFanout(store stores.NotificationStore, publisher realtime.Publisher) *Fanout {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "NotificationStore",
		MaxRequests: 1,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Warnf("Circuit breaker %s changed state from %s to %s", name, from, to)
		},
	})
	return &Fanout{store: store, breaker: breaker, publisher: publisher}
}

// Recipients returns the project's members and manager, minus the actor,
// without duplicates.
func Recipients(project *models.Project, actorID primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]bool, len(project.Members)+1)
	recipients := make([]primitive.ObjectID, 0, len(project.Members)+1)

	add := func(id primitive.ObjectID) {
		if id == actorID || seen[id] {
			return
		}
		seen[id] = true
		recipients = append(recipients, id)
	}
	for _, member := range project.Members {
		add(member)
	}
	add(project.ManagerID)
	return recipients
}

// Notify writes one notification per recipient and pushes it to their open
// connections. Failures are logged and skipped; the caller's mutation has
// already committed.
func (f *Fanout) Notify(ctx context.Context, recipients []primitive.ObjectID, senderID primitive.ObjectID, message string, item models.RelatedItem) {
	for _, recipient := range recipients {
		notification := &models.Notification{
			Recipient:       recipient.Hex(),
			Sender:          senderID.Hex(),
			Message:         message,
			RelatedItemID:   item.ItemID.Hex(),
			RelatedItemType: item.ItemType,
			IsRead:          false,
			CreatedAt:       time.Now(),
		}

		_, err := f.breaker.Execute(func() (interface{}, error) {
			return nil, f.store.Insert(ctx, notification)
		})
		if err != nil {
			logging.Logger.Warnf("Failed to deliver notification to %s: %v", notification.Recipient, err)
			continue
		}

		if f.publisher != nil {
			if err := f.publisher.Publish(notification.Recipient, realtime.Event{
				Type: "notification",
				Data: notification,
			}); err != nil {
				logging.Logger.Warnf("Failed to push notification to %s: %v", notification.Recipient, err)
			}
		}
	}
}
