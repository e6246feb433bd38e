package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UnlimitedUses disables the use-count limit on an invite token.
const UnlimitedUses = -1

// Invite is a shareable link token granting group membership.
// UsesCount never exceeds MaxUses unless MaxUses is UnlimitedUses; exhausted
// or expired tokens are removed.
type Invite struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Token     string             `bson:"token" json:"token"`
	GroupID   primitive.ObjectID `bson:"groupId" json:"groupId"`
	CreatedBy primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	ExpiresAt time.Time          `bson:"expiresAt" json:"expiresAt"`
	MaxUses   int                `bson:"maxUses" json:"maxUses"`
	UsesCount int                `bson:"usesCount" json:"usesCount"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// Expired reports whether the token is past its expiry.
func (i *Invite) Expired(now time.Time) bool {
	return i.ExpiresAt.Before(now)
}

// Exhausted reports whether the token has reached its use limit.
func (i *Invite) Exhausted() bool {
	return i.MaxUses != UnlimitedUses && i.UsesCount >= i.MaxUses
}

// Invitation statuses.
const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationDeclined = "declined"
)

// GroupInvitation is a direct invitation sent to a user by username.
// At most one pending invitation exists per (group, recipient) pair.
type GroupInvitation struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	SenderID    primitive.ObjectID `bson:"senderId" json:"senderId"`
	RecipientID primitive.ObjectID `bson:"recipientId" json:"recipientId"`
	GroupID     primitive.ObjectID `bson:"groupId" json:"groupId"`
	Status      string             `bson:"status" json:"status"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`

	// Resolved for the "my invites" listing, not stored.
	GroupName      string `bson:"-" json:"groupName,omitempty"`
	SenderUsername string `bson:"-" json:"senderUsername,omitempty"`
}
