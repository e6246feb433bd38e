// Package reconcile resolves client-submitted shopping lists created or
// edited offline against the server-canonical records.
package reconcile

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"docket-service/internal/models"
	"docket-service/internal/repositories"
)

// Reconciler merges offline list edits into the canonical store. The merge
// key is the client-assigned clientId; server ids submitted by the client
// are never trusted.
type Reconciler struct {
	lists repositories.ListRepository
}

func New(lists repositories.ListRepository) *Reconciler {
	return &Reconciler{lists: lists}
}

// Reconcile processes the batch sequentially and returns the canonical
// record for each submission, in input order. Field replacement is
// last-write-wins: the client payload overwrites the server copy with no
// timestamp comparison, so divergent concurrent edits lose silently.
//
// The batch is not atomic. The first failure aborts the remainder and is
// surfaced as one batch error; records already processed stay committed.
func (r *Reconciler) Reconcile(ctx context.Context, userID primitive.ObjectID, clientLists []models.ShoppingList) ([]models.ShoppingList, error) {
	canonical := make([]models.ShoppingList, 0, len(clientLists))

	for i, clientList := range clientLists {
		resolved, err := r.reconcileOne(ctx, userID, clientList)
		if err != nil {
			return nil, fmt.Errorf("reconcile list %d (clientId %q): %w", i, clientList.ClientID, err)
		}
		canonical = append(canonical, resolved)
	}
	return canonical, nil
}

func (r *Reconciler) reconcileOne(ctx context.Context, userID primitive.ObjectID, clientList models.ShoppingList) (models.ShoppingList, error) {
	if clientList.ClientID != "" {
		existing, err := r.lists.FindByClientID(ctx, clientList.ClientID)
		switch {
		case err == nil:
			return r.lists.Replace(ctx, merge(existing, clientList))
		case !errors.Is(err, repositories.ErrListNotFound):
			return models.ShoppingList{}, err
		}
	}
	return r.create(ctx, userID, clientList)
}

// merge builds the canonical view of an existing record: client fields win,
// but id, clientId, groupId and authorship are never taken from the client.
func merge(existing, clientList models.ShoppingList) models.ShoppingList {
	existing.Name = clientList.Name
	existing.Description = clientList.Description
	existing.Color = clientList.Color
	existing.Icon = clientList.Icon
	existing.IsPinned = clientList.IsPinned
	existing.IsDeleted = clientList.IsDeleted
	existing.IsDirty = false
	return existing
}

func (r *Reconciler) create(ctx context.Context, userID primitive.ObjectID, clientList models.ShoppingList) (models.ShoppingList, error) {
	fresh := clientList
	fresh.ID = primitive.NilObjectID // server assigns the id
	fresh.AuthorID = userID
	fresh.IsDirty = false
	return r.lists.Create(ctx, fresh)
}
