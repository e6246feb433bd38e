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

var ErrItemNotFound = errors.New("item not found")

// ItemRepository abstracts shopping-list item persistence.
type ItemRepository interface {
	Create(ctx context.Context, item models.ShoppingListItem) (models.ShoppingListItem, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.ShoppingListItem, error)
	ListByList(ctx context.Context, listID primitive.ObjectID, since *time.Time) ([]models.ShoppingListItem, error)
	Update(ctx context.Context, id primitive.ObjectID, upd ItemUpdate) (models.ShoppingListItem, error)
	SoftDelete(ctx context.Context, id primitive.ObjectID) error
	DeleteByList(ctx context.Context, listID primitive.ObjectID) (int64, error)
	CountActive(ctx context.Context, listID primitive.ObjectID) (int64, error)
}

// ItemUpdate carries the mutable item fields; nil fields are untouched.
type ItemUpdate struct {
	Name      *string
	Qty       *float64
	Unit      *string
	Category  *string
	Store     *string
	Priority  *string
	Deadline  *time.Time
	Reminder  *int
	IsChecked *bool
	IsDeleted *bool
}

// ItemRepo is a MongoDB implementation of ItemRepository.
type ItemRepo struct {
	c *mongo.Collection
}

func NewItemRepo(db *mongo.Database) *ItemRepo {
	return &ItemRepo{c: db.Collection("shopping_list_items")}
}

func (r *ItemRepo) Create(ctx context.Context, item models.ShoppingListItem) (models.ShoppingListItem, error) {
	now := time.Now().UTC()
	item.ID = primitive.NewObjectID()
	item.CreatedAt = now
	item.UpdatedAt = now
	if item.Qty == 0 {
		item.Qty = 1
	}
	if item.Unit == "" {
		item.Unit = "pcs"
	}
	if item.Priority == "" {
		item.Priority = "normal"
	}
	if _, err := r.c.InsertOne(ctx, item); err != nil {
		return models.ShoppingListItem{}, err
	}
	return item, nil
}

func (r *ItemRepo) GetByID(ctx context.Context, id primitive.ObjectID) (models.ShoppingListItem, error) {
	var item models.ShoppingListItem
	err := r.c.FindOne(ctx, bson.M{"_id": id}).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ShoppingListItem{}, ErrItemNotFound
	}
	return item, err
}

// ListByList returns a list's items. With since set it returns everything
// updated after that instant, deletions included, so offline clients can
// catch up incrementally; otherwise it returns live items, unchecked first.
func (r *ItemRepo) ListByList(ctx context.Context, listID primitive.ObjectID, since *time.Time) ([]models.ShoppingListItem, error) {
	query := bson.M{"listId": listID}
	if since != nil {
		query["updatedAt"] = bson.M{"$gt": *since}
	} else {
		query["isDeleted"] = false
	}

	cur, err := r.c.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "isChecked", Value: 1}}))
	if err != nil {
		return nil, err
	}
	items := []models.ShoppingListItem{}
	if err := cur.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *ItemRepo) Update(ctx context.Context, id primitive.ObjectID, upd ItemUpdate) (models.ShoppingListItem, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Qty != nil {
		set["qty"] = *upd.Qty
	}
	if upd.Unit != nil {
		set["unit"] = *upd.Unit
	}
	if upd.Category != nil {
		set["category"] = *upd.Category
	}
	if upd.Store != nil {
		set["store"] = *upd.Store
	}
	if upd.Priority != nil {
		set["priority"] = *upd.Priority
	}
	if upd.Deadline != nil {
		set["deadline"] = *upd.Deadline
	}
	if upd.Reminder != nil {
		set["reminder"] = *upd.Reminder
	}
	if upd.IsChecked != nil {
		set["isChecked"] = *upd.IsChecked
	}
	if upd.IsDeleted != nil {
		set["isDeleted"] = *upd.IsDeleted
	}

	var item models.ShoppingListItem
	err := r.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ShoppingListItem{}, ErrItemNotFound
	}
	return item, err
}

func (r *ItemRepo) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.c.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"isDeleted": true, "updatedAt": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (r *ItemRepo) DeleteByList(ctx context.Context, listID primitive.ObjectID) (int64, error) {
	res, err := r.c.DeleteMany(ctx, bson.M{"listId": listID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *ItemRepo) CountActive(ctx context.Context, listID primitive.ObjectID) (int64, error) {
	return r.c.CountDocuments(ctx, bson.M{"listId": listID, "isDeleted": false})
}
