package models

import "time"

// Notification rows live in Cassandra, keyed by recipient so a user's feed
// is a single partition read. IDs are time UUID strings from gocql.
type Notification struct {
	ID              string    `json:"id"`
	Recipient       string    `json:"recipient"`
	Sender          string    `json:"sender"`
	Message         string    `json:"message"`
	RelatedItemID   string    `json:"relatedItemId"`
	RelatedItemType ItemType  `json:"relatedItemType"`
	IsRead          bool      `json:"isRead"`
	CreatedAt       time.Time `json:"createdAt"`
}
