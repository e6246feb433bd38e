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
	ErrPollNotFound   = errors.New("poll not found")
	ErrOptionNotFound = errors.New("poll option not found")
)

// PollRepository abstracts poll persistence.
type PollRepository interface {
	Create(ctx context.Context, poll models.Poll) (models.Poll, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Poll, error)
	ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.Poll, error)
	Update(ctx context.Context, id primitive.ObjectID, upd PollUpdate) (models.Poll, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	Vote(ctx context.Context, pollID, optionID, userID primitive.ObjectID) (models.Poll, error)
	AddOption(ctx context.Context, pollID primitive.ObjectID, option models.PollOption) (models.Poll, error)
}

// PollUpdate carries the mutable poll fields; nil fields are untouched.
type PollUpdate struct {
	Question *string
	IsClosed *bool
}

// PollRepo is a MongoDB implementation of PollRepository.
type PollRepo struct {
	c *mongo.Collection
}

func NewPollRepo(db *mongo.Database) *PollRepo {
	return &PollRepo{c: db.Collection("polls")}
}

func (r *PollRepo) Create(ctx context.Context, poll models.Poll) (models.Poll, error) {
	now := time.Now().UTC()
	poll.ID = primitive.NewObjectID()
	poll.CreatedAt = now
	poll.UpdatedAt = now
	for i := range poll.Options {
		if poll.Options[i].ID.IsZero() {
			poll.Options[i].ID = primitive.NewObjectID()
		}
		if poll.Options[i].Votes == nil {
			poll.Options[i].Votes = []primitive.ObjectID{}
		}
	}
	if _, err := r.c.InsertOne(ctx, poll); err != nil {
		return models.Poll{}, err
	}
	return poll, nil
}

func (r *PollRepo) GetByID(ctx context.Context, id primitive.ObjectID) (models.Poll, error) {
	var poll models.Poll
	err := r.c.FindOne(ctx, bson.M{"_id": id}).Decode(&poll)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Poll{}, ErrPollNotFound
	}
	return poll, err
}

func (r *PollRepo) ListByGroup(ctx context.Context, groupID primitive.ObjectID) ([]models.Poll, error) {
	cur, err := r.c.Find(ctx, bson.M{"groupId": groupID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	polls := []models.Poll{}
	if err := cur.All(ctx, &polls); err != nil {
		return nil, err
	}
	return polls, nil
}

func (r *PollRepo) Update(ctx context.Context, id primitive.ObjectID, upd PollUpdate) (models.Poll, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if upd.Question != nil {
		set["question"] = *upd.Question
	}
	if upd.IsClosed != nil {
		set["isClosed"] = *upd.IsClosed
	}

	var poll models.Poll
	err := r.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&poll)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Poll{}, ErrPollNotFound
	}
	return poll, err
}

func (r *PollRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrPollNotFound
	}
	return nil
}

// Vote records the user's vote on an option, moving it if the user had
// already voted elsewhere in the poll. The last write wins on concurrent
// votes; there is no version check.
func (r *PollRepo) Vote(ctx context.Context, pollID, optionID, userID primitive.ObjectID) (models.Poll, error) {
	// The filter matches on the option so an unknown one fails before the
	// pull discards the user's existing vote.
	res, err := r.c.UpdateOne(ctx,
		bson.M{"_id": pollID, "options._id": optionID},
		bson.M{"$pull": bson.M{"options.$[].votes": userID}})
	if err != nil {
		return models.Poll{}, err
	}
	if res.MatchedCount == 0 {
		if _, err := r.GetByID(ctx, pollID); err != nil {
			return models.Poll{}, err
		}
		return models.Poll{}, ErrOptionNotFound
	}

	if _, err := r.c.UpdateOne(ctx,
		bson.M{"_id": pollID},
		bson.M{
			"$push": bson.M{"options.$[opt].votes": userID},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		},
		options.Update().SetArrayFilters(options.ArrayFilters{
			Filters: []interface{}{bson.M{"opt._id": optionID}},
		})); err != nil {
		return models.Poll{}, err
	}
	return r.GetByID(ctx, pollID)
}

func (r *PollRepo) AddOption(ctx context.Context, pollID primitive.ObjectID, option models.PollOption) (models.Poll, error) {
	if option.ID.IsZero() {
		option.ID = primitive.NewObjectID()
	}
	if option.Votes == nil {
		option.Votes = []primitive.ObjectID{}
	}

	res, err := r.c.UpdateOne(ctx, bson.M{"_id": pollID},
		bson.M{
			"$push": bson.M{"options": option},
			"$set":  bson.M{"updatedAt": time.Now().UTC()},
		})
	if err != nil {
		return models.Poll{}, err
	}
	if res.MatchedCount == 0 {
		return models.Poll{}, ErrPollNotFound
	}
	return r.GetByID(ctx, pollID)
}
