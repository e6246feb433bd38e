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

var ErrNotificationNotFound = errors.New("notification not found")

// ActivityRepository abstracts the group activity feed.
type ActivityRepository interface {
	Create(ctx context.Context, entry models.ActivityLog) (models.ActivityLog, error)
	ListByGroup(ctx context.Context, groupID primitive.ObjectID, limit int64) ([]models.ActivityLog, error)
}

// NotificationRepository abstracts per-user notifications.
type NotificationRepository interface {
	InsertMany(ctx context.Context, notifications []models.Notification) error
	ListForUser(ctx context.Context, recipientID primitive.ObjectID) ([]models.Notification, error)
	MarkRead(ctx context.Context, id, recipientID primitive.ObjectID) error
	MarkAllRead(ctx context.Context, recipientID primitive.ObjectID) (int64, error)
}

// ActivityRepo is a MongoDB implementation of ActivityRepository.
type ActivityRepo struct {
	c *mongo.Collection
}

func NewActivityRepo(db *mongo.Database) *ActivityRepo {
	return &ActivityRepo{c: db.Collection("activity_logs")}
}

func (r *ActivityRepo) Create(ctx context.Context, entry models.ActivityLog) (models.ActivityLog, error) {
	entry.ID = primitive.NewObjectID()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if _, err := r.c.InsertOne(ctx, entry); err != nil {
		return models.ActivityLog{}, err
	}
	return entry, nil
}

func (r *ActivityRepo) ListByGroup(ctx context.Context, groupID primitive.ObjectID, limit int64) ([]models.ActivityLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	cur, err := r.c.Find(ctx, bson.M{"groupId": groupID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(limit))
	if err != nil {
		return nil, err
	}
	entries := []models.ActivityLog{}
	if err := cur.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// NotificationRepo is a MongoDB implementation of NotificationRepository.
type NotificationRepo struct {
	c *mongo.Collection
}

func NewNotificationRepo(db *mongo.Database) *NotificationRepo {
	return &NotificationRepo{c: db.Collection("notifications")}
}

func (r *NotificationRepo) InsertMany(ctx context.Context, notifications []models.Notification) error {
	if len(notifications) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(notifications))
	now := time.Now().UTC()
	for _, n := range notifications {
		n.ID = primitive.NewObjectID()
		if n.CreatedAt.IsZero() {
			n.CreatedAt = now
		}
		docs = append(docs, n)
	}
	_, err := r.c.InsertMany(ctx, docs)
	return err
}

func (r *NotificationRepo) ListForUser(ctx context.Context, recipientID primitive.ObjectID) ([]models.Notification, error) {
	cur, err := r.c.Find(ctx, bson.M{"recipientId": recipientID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(100))
	if err != nil {
		return nil, err
	}
	notifications := []models.Notification{}
	if err := cur.All(ctx, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *NotificationRepo) MarkRead(ctx context.Context, id, recipientID primitive.ObjectID) error {
	res, err := r.c.UpdateOne(ctx,
		bson.M{"_id": id, "recipientId": recipientID},
		bson.M{"$set": bson.M{"isRead": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (r *NotificationRepo) MarkAllRead(ctx context.Context, recipientID primitive.ObjectID) (int64, error) {
	res, err := r.c.UpdateMany(ctx,
		bson.M{"recipientId": recipientID, "isRead": false},
		bson.M{"$set": bson.M{"isRead": true}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}
