package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Activity categories.
const (
	ActivityGroup       = "GROUP"
	ActivityContent     = "CONTENT"
	ActivityInteraction = "INTERACTION"
)

// ActivityMetadata links an activity entry to the entity it describes.
type ActivityMetadata struct {
	ListID *primitive.ObjectID `bson:"listId,omitempty" json:"listId,omitempty"`
	ItemID *primitive.ObjectID `bson:"itemId,omitempty" json:"itemId,omitempty"`
	NoteID *primitive.ObjectID `bson:"noteId,omitempty" json:"noteId,omitempty"`
	PollID *primitive.ObjectID `bson:"pollId,omitempty" json:"pollId,omitempty"`
}

// ActivityLog is one entry of a group's activity feed.
type ActivityLog struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	GroupID    primitive.ObjectID `bson:"groupId" json:"groupId"`
	AuthorID   primitive.ObjectID `bson:"authorId" json:"authorId"`
	AuthorName string             `bson:"authorName" json:"authorName"`
	Category   string             `bson:"category" json:"category"`
	Message    string             `bson:"message" json:"message"`
	Metadata   ActivityMetadata   `bson:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt  time.Time          `bson:"createdAt" json:"createdAt"`
}

// Notification categories, matching member preference keys.
const (
	NotifyAssignment = "ASSIGNMENT"
	NotifyMention    = "MENTION"
	NotifyGroup      = "GROUP"
	NotifyReminder   = "REMINDER"
	NotifyPoll       = "POLL"
)

// Notification is a per-recipient message produced by group activity.
type Notification struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	RecipientID primitive.ObjectID  `bson:"recipientId" json:"recipientId"`
	AuthorID    *primitive.ObjectID `bson:"authorId,omitempty" json:"authorId,omitempty"`
	GroupID     *primitive.ObjectID `bson:"groupId,omitempty" json:"groupId,omitempty"`
	Category    string              `bson:"category" json:"category"`
	Message     string              `bson:"message" json:"message"`
	Metadata    ActivityMetadata    `bson:"metadata,omitempty" json:"metadata,omitempty"`
	IsRead      bool                `bson:"isRead" json:"isRead"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
}

// GroupActivityEvent is emitted over websocket connections for groups.
type GroupActivityEvent struct {
	Type     string       `json:"type"`
	Activity *ActivityLog `json:"activity,omitempty"`
}
