package notifications

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"trello-project/tracking-service/models"
	"trello-project/tracking-service/realtime"
	"trello-project/tracking-service/stores/memstore"
)

type capturePublisher struct {
	events map[string][]realtime.Event
}

func (p *capturePublisher) Publish(userID string, event realtime.Event) error {
	if p.events == nil {
		p.events = make(map[string][]realtime.Event)
	}
	p.events[userID] = append(p.events[userID], event)
	return nil
}

func TestRecipientsExcludesActorAndDedupes(t *testing.T) {
	manager := primitive.NewObjectID()
	member := primitive.NewObjectID()
	actor := primitive.NewObjectID()

	project := &models.Project{
		ManagerID: manager,
		// Manager appears in the member list too; a duplicate must not
		// produce two notifications.
		Members: []primitive.ObjectID{manager, member, actor},
	}

	got := Recipients(project, actor)
	assert.ElementsMatch(t, []primitive.ObjectID{manager, member}, got)

	// The manager acting on their own project is not notified.
	got = Recipients(project, manager)
	assert.ElementsMatch(t, []primitive.ObjectID{member, actor}, got)
}

func TestNotifyWritesAndPublishesPerRecipient(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	publisher := &capturePublisher{}
	fanout := NewFanout(store.Notifications(), publisher)

	sender := primitive.NewObjectID()
	first := primitive.NewObjectID()
	second := primitive.NewObjectID()
	item := models.RelatedItem{ItemID: primitive.NewObjectID(), ItemType: models.ItemTask}

	fanout.Notify(ctx, []primitive.ObjectID{first, second}, sender, "Task \"X\" was updated", item)

	for _, recipient := range []primitive.ObjectID{first, second} {
		inbox, total, err := store.Notifications().FindByRecipient(ctx, recipient.Hex(), 1, 10)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		assert.Equal(t, sender.Hex(), inbox[0].Sender)
		assert.Equal(t, item.ItemID.Hex(), inbox[0].RelatedItemID)
		assert.False(t, inbox[0].IsRead)

		events := publisher.events[recipient.Hex()]
		require.Len(t, events, 1)
		assert.Equal(t, "notification", events[0].Type)
	}
}

func TestNotifyWithoutPublisher(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	fanout := NewFanout(store.Notifications(), nil)

	recipient := primitive.NewObjectID()
	fanout.Notify(ctx, []primitive.ObjectID{recipient}, primitive.NewObjectID(), "hello",
		models.RelatedItem{ItemID: primitive.NewObjectID(), ItemType: models.ItemBoard})

	_, total, err := store.Notifications().FindByRecipient(ctx, recipient.Hex(), 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}
