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
	ErrGroupNotFound  = errors.New("group not found")
	ErrMemberNotFound = errors.New("member not found")
	ErrAlreadyMember  = errors.New("user is already a member")
)

// GroupRepository abstracts group persistence.
type GroupRepository interface {
	Create(ctx context.Context, group models.Group) (models.Group, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Group, error)
	ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Group, error)
	UpdateSettings(ctx context.Context, id primitive.ObjectID, upd GroupUpdate) (models.Group, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	AddMember(ctx context.Context, groupID primitive.ObjectID, member models.GroupMember) error
	RemoveMember(ctx context.Context, groupID, userID primitive.ObjectID) error
	SetMemberRole(ctx context.Context, groupID, userID primitive.ObjectID, role string) error
}

// GroupUpdate carries the mutable group settings; nil fields are untouched.
type GroupUpdate struct {
	Name        *string
	Description *string
	Icon        *string
}

// GroupRepo is a MongoDB implementation of GroupRepository.
type GroupRepo struct {
	c *mongo.Collection
}

func NewGroupRepo(db *mongo.Database) *GroupRepo {
	return &GroupRepo{c: db.Collection("groups")}
}

func (r *GroupRepo) Create(ctx context.Context, group models.Group) (models.Group, error) {
	now := time.Now().UTC()
	group.ID = primitive.NewObjectID()
	group.CreatedAt = now
	group.UpdatedAt = now
	if _, err := r.c.InsertOne(ctx, group); err != nil {
		return models.Group{}, err
	}
	return group, nil
}

func (r *GroupRepo) GetByID(ctx context.Context, id primitive.ObjectID) (models.Group, error) {
	var group models.Group
	err := r.c.FindOne(ctx, bson.M{"_id": id}).Decode(&group)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Group{}, ErrGroupNotFound
	}
	return group, err
}

func (r *GroupRepo) ListForUser(ctx context.Context, userID primitive.ObjectID) ([]models.Group, error) {
	cur, err := r.c.Find(ctx, bson.M{"members.userId": userID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	groups := []models.Group{}
	if err := cur.All(ctx, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *GroupRepo) UpdateSettings(ctx context.Context, id primitive.ObjectID, upd GroupUpdate) (models.Group, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.Icon != nil {
		set["icon"] = *upd.Icon
	}

	var group models.Group
	err := r.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&group)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Group{}, ErrGroupNotFound
	}
	return group, err
}

func (r *GroupRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrGroupNotFound
	}
	return nil
}

// AddMember appends the member unless the user already belongs to the group.
func (r *GroupRepo) AddMember(ctx context.Context, groupID primitive.ObjectID, member models.GroupMember) error {
	res, err := r.c.UpdateOne(ctx,
		bson.M{"_id": groupID, "members.userId": bson.M{"$ne": member.UserID}},
		bson.M{
			"$push": bson.M{"members": member},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// Either the group is gone or the user is already in it.
		n, err := r.c.CountDocuments(ctx, bson.M{"_id": groupID})
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrGroupNotFound
		}
		return ErrAlreadyMember
	}
	return nil
}

func (r *GroupRepo) RemoveMember(ctx context.Context, groupID, userID primitive.ObjectID) error {
	res, err := r.c.UpdateOne(ctx,
		bson.M{"_id": groupID},
		bson.M{
			"$pull": bson.M{"members": bson.M{"userId": userID}},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrGroupNotFound
	}
	if res.ModifiedCount == 0 {
		return ErrMemberNotFound
	}
	return nil
}

func (r *GroupRepo) SetMemberRole(ctx context.Context, groupID, userID primitive.ObjectID, role string) error {
	res, err := r.c.UpdateOne(ctx,
		bson.M{"_id": groupID, "members.userId": userID},
		bson.M{"$set": bson.M{
			"members.$.role": role,
			"updatedAt":      time.Now().UTC(),
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrMemberNotFound
	}
	return nil
}
