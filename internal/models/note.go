package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Note is a group note. Deleting a note removes its comments.
type Note struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	GroupID        primitive.ObjectID `bson:"groupId" json:"groupId"`
	AuthorID       primitive.ObjectID `bson:"authorId" json:"authorId"`
	AuthorUsername string             `bson:"-" json:"authorUsername,omitempty"`
	Title          string             `bson:"title" json:"title"`
	Content        string             `bson:"content" json:"content"`
	IsPinned       bool               `bson:"isPinned" json:"isPinned"`
	IsDeleted      bool               `bson:"isDeleted" json:"isDeleted"`
	CommentCount   int                `bson:"commentCount" json:"commentCount"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// NoteComment is a comment attached to a note.
type NoteComment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	NoteID    primitive.ObjectID `bson:"noteId" json:"noteId"`
	AuthorID  primitive.ObjectID `bson:"authorId" json:"authorId"`
	Username  string             `bson:"username" json:"username"`
	Content   string             `bson:"content" json:"content"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
