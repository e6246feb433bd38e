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

var ErrListNotFound = errors.New("list not found")

// ListRepository abstracts shopping-list persistence.
type ListRepository interface {
	Create(ctx context.Context, list models.ShoppingList) (models.ShoppingList, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.ShoppingList, error)
	FindByClientID(ctx context.Context, clientID string) (models.ShoppingList, error)
	ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.ShoppingList, error)
	ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.ShoppingList, error)
	Update(ctx context.Context, id primitive.ObjectID, upd ListUpdate) (models.ShoppingList, error)
	Replace(ctx context.Context, list models.ShoppingList) (models.ShoppingList, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ListUpdate carries the mutable list fields; nil fields are untouched.
type ListUpdate struct {
	Name        *string
	Description *string
	Color       *string
	Icon        *string
	IsPinned    *bool
	IsDeleted   *bool
	IsDirty     *bool
}

// ListRepo is a MongoDB implementation of ListRepository.
type ListRepo struct {
	c *mongo.Collection
}

func NewListRepo(db *mongo.Database) *ListRepo {
	return &ListRepo{c: db.Collection("shopping_lists")}
}

func (r *ListRepo) Create(ctx context.Context, list models.ShoppingList) (models.ShoppingList, error) {
	now := time.Now().UTC()
	list.ID = primitive.NewObjectID()
	list.CreatedAt = now
	list.UpdatedAt = now
	if list.Color == "" {
		list.Color = models.DefaultListColor
	}
	if _, err := r.c.InsertOne(ctx, list); err != nil {
		return models.ShoppingList{}, err
	}
	return list, nil
}

func (r *ListRepo) GetByID(ctx context.Context, id primitive.ObjectID) (models.ShoppingList, error) {
	var list models.ShoppingList
	err := r.c.FindOne(ctx, bson.M{"_id": id}).Decode(&list)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ShoppingList{}, ErrListNotFound
	}
	return list, err
}

// FindByClientID resolves the canonical record for a client-assigned key.
func (r *ListRepo) FindByClientID(ctx context.Context, clientID string) (models.ShoppingList, error) {
	var list models.ShoppingList
	err := r.c.FindOne(ctx, bson.M{"clientId": clientID}).Decode(&list)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ShoppingList{}, ErrListNotFound
	}
	return list, err
}

// ListForUser returns the caller's own live lists, most recently updated
// first.
func (r *ListRepo) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.ShoppingList, error) {
	cur, err := r.c.Find(ctx, bson.M{"authorId": userID, "isDeleted": false},
		options.Find().SetSort(bson.D{{Key: "updatedAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	lists := []models.ShoppingList{}
	if err := cur.All(ctx, &lists); err != nil {
		return nil, err
	}
	return lists, nil
}

func (r *ListRepo) ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.ShoppingList, error) {
	cur, err := r.c.Find(ctx, bson.M{"groupId": groupID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	lists := []models.ShoppingList{}
	if err := cur.All(ctx, &lists); err != nil {
		return nil, err
	}
	return lists, nil
}

func (r *ListRepo) Update(ctx context.Context, id primitive.ObjectID, upd ListUpdate) (models.ShoppingList, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Color != nil {
		set["color"] = *upd.Color
	}
	if upd.Icon != nil {
		set["icon"] = *upd.Icon
	}
	if upd.IsPinned != nil {
		set["isPinned"] = *upd.IsPinned
	}
	if upd.IsDeleted != nil {
		set["isDeleted"] = *upd.IsDeleted
	}
	if upd.IsDirty != nil {
		set["isDirty"] = *upd.IsDirty
	}

	var list models.ShoppingList
	err := r.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&list)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ShoppingList{}, ErrListNotFound
	}
	return list, err
}

// Replace persists a fully hydrated list document, keeping its id.
func (r *ListRepo) Replace(ctx context.Context, list models.ShoppingList) (models.ShoppingList, error) {
	list.UpdatedAt = time.Now().UTC()
	res, err := r.c.ReplaceOne(ctx, bson.M{"_id": list.ID}, list)
	if err != nil {
		return models.ShoppingList{}, err
	}
	if res.MatchedCount == 0 {
		return models.ShoppingList{}, ErrListNotFound
	}
	return list, nil
}

func (r *ListRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrListNotFound
	}
	return nil
}
