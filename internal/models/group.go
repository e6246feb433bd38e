package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationPreferences controls which notification categories a member
// receives. A missing category counts as enabled.
type NotificationPreferences map[string]bool

// GroupMember is one membership entry embedded in a group document,
// unique by UserID.
type GroupMember struct {
	UserID                  primitive.ObjectID      `bson:"userId" json:"userId"`
	Username                string                  `bson:"username" json:"username"`
	Role                    string                  `bson:"role" json:"role"`
	JoinedAt                time.Time               `bson:"joinedAt" json:"joinedAt"`
	IsPinned                bool                    `bson:"isPinned" json:"isPinned"`
	NotificationPreferences NotificationPreferences `bson:"notificationPreferences,omitempty" json:"notificationPreferences,omitempty"`
}

// Group is a collaboration group owning lists, notes and polls.
type Group struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description" json:"description"`
	Icon        string             `bson:"icon,omitempty" json:"icon,omitempty"`
	AuthorID    primitive.ObjectID `bson:"authorId" json:"authorId"`
	Members     []GroupMember      `bson:"members" json:"members"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Member returns the membership entry for the given user, or nil when the
// user does not belong to the group.
func (g *Group) Member(userID primitive.ObjectID) *GroupMember {
	for i := range g.Members {
		if g.Members[i].UserID == userID {
			return &g.Members[i]
		}
	}
	return nil
}

// DefaultPreferences are applied to members joining via invite.
func DefaultPreferences() NotificationPreferences {
	return NotificationPreferences{
		"ASSIGNMENT": false,
		"MENTION":    false,
		"GROUP":      true,
		"REMINDER":   true,
		"POLL":       true,
	}
}
