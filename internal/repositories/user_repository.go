package repositories

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"docket-service/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

// UserRepository is a read-only view of accounts managed by the auth
// service. This service never writes to the users collection.
type UserRepository interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
}

// UserRepo is a MongoDB implementation of UserRepository.
type UserRepo struct {
	c *mongo.Collection
}

func NewUserRepo(db *mongo.Database) *UserRepo {
	return &UserRepo{c: db.Collection("users")}
}

func (r *UserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var user models.User
	err := r.c.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}

// FindByUsername matches the username case-insensitively, as invite senders
// type names by hand.
func (r *UserRepo) FindByUsername(ctx context.Context, username string) (models.User, error) {
	pattern := fmt.Sprintf("^%s$", regexp.QuoteMeta(username))
	var user models.User
	err := r.c.FindOne(ctx, bson.M{
		"username": bson.M{"$regex": pattern, "$options": "i"},
	}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.User{}, ErrUserNotFound
	}
	return user, err
}
