package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PollOption is one votable choice. Votes holds the ids of the users who
// picked it; a user appears in at most one option of a poll.
type PollOption struct {
	ID    primitive.ObjectID   `bson:"_id" json:"_id"`
	Text  string               `bson:"text" json:"text"`
	Votes []primitive.ObjectID `bson:"votes" json:"votes"`
}

// Poll is a group poll.
type Poll struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	GroupID   primitive.ObjectID `bson:"groupId" json:"groupId"`
	AuthorID  primitive.ObjectID `bson:"authorId" json:"authorId"`
	Question  string             `bson:"question" json:"question"`
	Options   []PollOption       `bson:"options" json:"options"`
	IsClosed  bool               `bson:"isClosed" json:"isClosed"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
