package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// User is the read-only slice of the account record this service consults.
// Account management lives in the auth service.
type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Username  string             `bson:"username" json:"username"`
	AvatarURL string             `bson:"avatarUrl,omitempty" json:"avatarUrl,omitempty"`
}
