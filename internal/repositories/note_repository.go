package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"docket-service/internal/models"
)

var (
	ErrNoteNotFound    = errors.New("note not found")
	ErrCommentNotFound = errors.New("comment not found")
)

// NoteRepository abstracts note persistence.
type NoteRepository interface {
	Create(ctx context.Context, note models.Note) (models.Note, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Note, error)
	ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.Note, error)
	Update(ctx context.Context, id primitive.ObjectID, upd NoteUpdate) (models.Note, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	IncCommentCount(ctx context.Context, id primitive.ObjectID, delta int) error
}

// NoteUpdate carries the mutable note fields; nil fields are untouched.
type NoteUpdate struct {
	Title     *string
	Content   *string
	IsPinned  *bool
	IsDeleted *bool
}

// CommentRepository abstracts note-comment persistence.
type CommentRepository interface {
	Create(ctx context.Context, comment models.NoteComment) (models.NoteComment, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.NoteComment, error)
	ListByNote(ctx context.Context, noteID primitive.ObjectID) ([]models.NoteComment, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByNote(ctx context.Context, noteID primitive.ObjectID) (int64, error)
}

// NoteRepo is a MongoDB implementation of NoteRepository.
type NoteRepo struct {
	c *mongo.Collection
}

func NewNoteRepo(db *mongo.Database) *NoteRepo {
	return &NoteRepo{c: db.Collection("notes")}
}

func (r *NoteRepo) Create(ctx context.Context, note models.Note) (models.Note, error) {
	now := time.Now().UTC()
	note.ID = primitive.NewObjectID()
	note.CreatedAt = now
	note.UpdatedAt = now
	if note.Title == "" {
		note.Title = "Untitled Note"
	}
	if _, err := r.c.InsertOne(ctx, note); err != nil {
		return models.Note{}, err
	}
	return note, nil
}

func (r *NoteRepo) GetByID(ctx context.Context, id primitive.ObjectID) (models.Note, error) {
	var note models.Note
	err := r.c.FindOne(ctx, bson.M{"_id": id}).Decode(&note)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Note{}, ErrNoteNotFound
	}
	return note, err
}

func (r *NoteRepo) ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.Note, error) {
	cur, err := r.c.Find(ctx, bson.M{"groupId": groupID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	notes := []models.Note{}
	if err := cur.All(ctx, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

func (r *NoteRepo) Update(ctx context.Context, id primitive.ObjectID, upd NoteUpdate) (models.Note, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if upd.Title != nil {
		set["title"] = *upd.Title
	}
	if upd.Content != nil {
		set["content"] = *upd.Content
	}
	if upd.IsPinned != nil {
		set["isPinned"] = *upd.IsPinned
	}
	if upd.IsDeleted != nil {
		set["isDeleted"] = *upd.IsDeleted
	}

	var note models.Note
	err := r.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&note)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Note{}, ErrNoteNotFound
	}
	return note, err
}

func (r *NoteRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNoteNotFound
	}
	return nil
}

func (r *NoteRepo) IncCommentCount(ctx context.Context, id primitive.ObjectID, delta int) error {
	res, err := r.c.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$inc": bson.M{"commentCount": delta}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNoteNotFound
	}
	return nil
}

// CommentRepo is a MongoDB implementation of CommentRepository.
type CommentRepo struct {
	c *mongo.Collection
}

func NewCommentRepo(db *mongo.Database) *CommentRepo {
	return &CommentRepo{c: db.Collection("note_comments")}
}

func (r *CommentRepo) Create(ctx context.Context, comment models.NoteComment) (models.NoteComment, error) {
	comment.ID = primitive.NewObjectID()
	comment.CreatedAt = time.Now().UTC()
	if _, err := r.c.InsertOne(ctx, comment); err != nil {
		return models.NoteComment{}, err
	}
	return comment, nil
}

func (r *CommentRepo) GetByID(ctx context.Context, id primitive.ObjectID) (models.NoteComment, error) {
	var comment models.NoteComment
	err := r.c.FindOne(ctx, bson.M{"_id": id}).Decode(&comment)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.NoteComment{}, ErrCommentNotFound
	}
	return comment, err
}

func (r *CommentRepo) ListByNote(ctx context.Context, noteID primitive.ObjectID) ([]models.NoteComment, error) {
	cur, err := r.c.Find(ctx, bson.M{"noteId": noteID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	comments := []models.NoteComment{}
	if err := cur.All(ctx, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *CommentRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrCommentNotFound
	}
	return nil
}

func (r *CommentRepo) DeleteByNote(ctx context.Context, noteID primitive.ObjectID) (int64, error) {
	res, err := r.c.DeleteMany(ctx, bson.M{"noteId": noteID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
