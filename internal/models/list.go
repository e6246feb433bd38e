package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultListColor is applied when a list is created without one.
const DefaultListColor = "#4D96FF"

// ShoppingList is a list of items, either personal or owned by a group.
// ClientID is the stable client-assigned key used by offline sync; at most
// one canonical record exists per ClientID.
type ShoppingList struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	ClientID    string              `bson:"clientId,omitempty" json:"clientId,omitempty"`
	AuthorID    primitive.ObjectID  `bson:"authorId" json:"authorId"`
	GroupID     *primitive.ObjectID `bson:"groupId,omitempty" json:"groupId,omitempty"`
	Name        string              `bson:"name" json:"name"`
	Description string              `bson:"description" json:"description"`
	Color       string              `bson:"color" json:"color"`
	Icon        string              `bson:"icon,omitempty" json:"icon,omitempty"`
	IsPinned    bool                `bson:"isPinned" json:"isPinned"`
	IsDeleted   bool                `bson:"isDeleted" json:"isDeleted"`
	IsDirty     bool                `bson:"isDirty" json:"isDirty"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// ListWithCount is a list plus the number of non-deleted items in it.
type ListWithCount struct {
	ShoppingList `bson:",inline"`
	ItemCount    int64 `bson:"itemCount" json:"itemCount"`
}

// ShoppingListItem is a single entry of a shopping list. Items are
// soft-deleted so offline clients can observe removals via the since filter.
type ShoppingListItem struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	ListID         primitive.ObjectID `bson:"listId" json:"listId"`
	AuthorID       primitive.ObjectID `bson:"authorId" json:"authorId"`
	Name           string             `bson:"name" json:"name"`
	Qty            float64            `bson:"qty" json:"qty"`
	Unit           string             `bson:"unit" json:"unit"`
	Category       string             `bson:"category,omitempty" json:"category,omitempty"`
	Store          string             `bson:"store,omitempty" json:"store,omitempty"`
	Priority       string             `bson:"priority" json:"priority"`
	Deadline       *time.Time         `bson:"deadline,omitempty" json:"deadline,omitempty"`
	Reminder       int                `bson:"reminder" json:"reminder"`
	IsReminderSent bool               `bson:"isReminderSent" json:"isReminderSent"`
	IsChecked      bool               `bson:"isChecked" json:"isChecked"`
	IsDeleted      bool               `bson:"isDeleted" json:"isDeleted"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}
