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
	ErrInviteNotFound     = errors.New("invite not found")
	ErrInvitationNotFound = errors.New("invitation not found")
	ErrDuplicatePending   = errors.New("pending invitation already exists")
)

// InviteRepository abstracts link-token persistence.
type InviteRepository interface {
	Create(ctx context.Context, invite models.Invite) (models.Invite, error)
	FindByToken(ctx context.Context, token string) (models.Invite, error)
	IncrementUses(ctx context.Context, id primitive.ObjectID) (models.Invite, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error)
}

// InvitationRepository abstracts direct (by-username) invitations.
type InvitationRepository interface {
	Create(ctx context.Context, inv models.GroupInvitation) (models.GroupInvitation, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.GroupInvitation, error)
	HasPending(ctx context.Context, groupID, recipientID primitive.ObjectID) (bool, error)
	ListPendingForUser(ctx context.Context, recipientID primitive.ObjectID) ([]models.GroupInvitation, error)
	SetStatus(ctx context.Context, id primitive.ObjectID, status string) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// InviteRepo is a MongoDB implementation of InviteRepository.
type InviteRepo struct {
	c *mongo.Collection
}

func NewInviteRepo(db *mongo.Database) *InviteRepo {
	return &InviteRepo{c: db.Collection("invites")}
}

func (r *InviteRepo) Create(ctx context.Context, invite models.Invite) (models.Invite, error) {
	invite.ID = primitive.NewObjectID()
	invite.CreatedAt = time.Now().UTC()
	if _, err := r.c.InsertOne(ctx, invite); err != nil {
		return models.Invite{}, err
	}
	return invite, nil
}

func (r *InviteRepo) FindByToken(ctx context.Context, token string) (models.Invite, error) {
	var invite models.Invite
	err := r.c.FindOne(ctx, bson.M{"token": token}).Decode(&invite)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Invite{}, ErrInviteNotFound
	}
	return invite, err
}

func (r *InviteRepo) IncrementUses(ctx context.Context, id primitive.ObjectID) (models.Invite, error) {
	var invite models.Invite
	err := r.c.FindOneAndUpdate(ctx, bson.M{"_id": id},
		bson.M{"$inc": bson.M{"usesCount": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&invite)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Invite{}, ErrInviteNotFound
	}
	return invite, err
}

func (r *InviteRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrInviteNotFound
	}
	return nil
}

func (r *InviteRepo) DeleteByGroup(ctx context.Context, groupID primitive.ObjectID) (int64, error) {
	res, err := r.c.DeleteMany(ctx, bson.M{"groupId": groupID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// InvitationRepo is a MongoDB implementation of InvitationRepository.
type InvitationRepo struct {
	c *mongo.Collection
}

func NewInvitationRepo(db *mongo.Database) *InvitationRepo {
	return &InvitationRepo{c: db.Collection("group_invitations")}
}

// Create inserts a pending invitation. The partial unique index on
// (groupId, recipientId, status=pending) turns a duplicate into
// ErrDuplicatePending.
func (r *InvitationRepo) Create(ctx context.Context, inv models.GroupInvitation) (models.GroupInvitation, error) {
	inv.ID = primitive.NewObjectID()
	inv.Status = models.InvitationPending
	inv.CreatedAt = time.Now().UTC()
	if _, err := r.c.InsertOne(ctx, inv); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.GroupInvitation{}, ErrDuplicatePending
		}
		return models.GroupInvitation{}, err
	}
	return inv, nil
}

func (r *InvitationRepo) GetByID(ctx context.Context, id primitive.ObjectID) (models.GroupInvitation, error) {
	var inv models.GroupInvitation
	err := r.c.FindOne(ctx, bson.M{"_id": id}).Decode(&inv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.GroupInvitation{}, ErrInvitationNotFound
	}
	return inv, err
}

func (r *InvitationRepo) HasPending(ctx context.Context, groupID, recipientID primitive.ObjectID) (bool, error) {
	n, err := r.c.CountDocuments(ctx, bson.M{
		"groupId":     groupID,
		"recipientId": recipientID,
		"status":      models.InvitationPending,
	})
	return n > 0, err
}

func (r *InvitationRepo) ListPendingForUser(ctx context.Context, recipientID primitive.ObjectID) ([]models.GroupInvitation, error) {
	cur, err := r.c.Find(ctx,
		bson.M{"recipientId": recipientID, "status": models.InvitationPending},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	invs := []models.GroupInvitation{}
	if err := cur.All(ctx, &invs); err != nil {
		return nil, err
	}
	return invs, nil
}

func (r *InvitationRepo) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	res, err := r.c.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrInvitationNotFound
	}
	return nil
}

func (r *InvitationRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrInvitationNotFound
	}
	return nil
}
