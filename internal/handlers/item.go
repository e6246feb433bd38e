package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"docket-service/internal/dispatch"
	"docket-service/internal/models"
	"docket-service/internal/permissions"
	"docket-service/internal/repositories"
)

// ItemHandler serves shopping-list item endpoints.
type ItemHandler struct {
	items      repositories.ItemRepository
	lists      repositories.ListRepository
	groups     repositories.GroupRepository
	dispatcher *dispatch.Dispatcher
	logger     *zap.Logger
}

func NewItemHandler(
	items repositories.ItemRepository,
	lists repositories.ListRepository,
	groups repositories.GroupRepository,
	dispatcher *dispatch.Dispatcher,
	logger *zap.Logger,
) *ItemHandler {
	return &ItemHandler{items: items, lists: lists, groups: groups, dispatcher: dispatcher, logger: logger}
}

type createItemRequest struct {
	Name     string     `json:"name" binding:"required"`
	Qty      float64    `json:"qty"`
	Unit     string     `json:"unit"`
	Category string     `json:"category"`
	Store    string     `json:"store"`
	Priority string     `json:"priority"`
	Deadline *time.Time `json:"deadline"`
	Reminder int        `json:"reminder"`
}

func (h *ItemHandler) Create(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	listID, ok := pathID(c, "list_id")
	if !ok {
		return
	}

	var req createItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	list, _, ok := loadListForViewer(c, h.lists, h.groups, listID, userID)
	if !ok {
		return
	}

	created, err := h.items.Create(c.Request.Context(), models.ShoppingListItem{
		ListID:   listID,
		AuthorID: userID,
		Name:     req.Name,
		Qty:      req.Qty,
		Unit:     req.Unit,
		Category: req.Category,
		Store:    req.Store,
		Priority: req.Priority,
		Deadline: req.Deadline,
		Reminder: req.Reminder,
	})
	if err != nil {
		h.logger.Error("create item failed", zap.String("list_id", listID.Hex()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create item"})
		return
	}

	if list.GroupID != nil {
		h.dispatcher.LogActivity(models.ActivityLog{
			GroupID:    *list.GroupID,
			AuthorID:   userID,
			AuthorName: actorUsername(c),
			Category:   models.ActivityContent,
			Message:    actorUsername(c) + " added " + created.Name + " to " + list.Name,
			Metadata:   models.ActivityMetadata{ListID: &list.ID, ItemID: &created.ID},
		}, "")
	}

	c.JSON(http.StatusCreated, created)
}

// List returns a list's items. A since query parameter (RFC 3339) switches
// to incremental mode: every item updated after that instant is returned,
// soft-deleted ones included.
func (h *ItemHandler) List(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	listID, ok := pathID(c, "list_id")
	if !ok {
		return
	}

	if _, _, ok := loadListForViewer(c, h.lists, h.groups, listID, userID); !ok {
		return
	}

	var since *time.Time
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be an RFC 3339 timestamp"})
			return
		}
		since = &parsed
	}

	items, err := h.items.ListByList(c.Request.Context(), listID, since)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list items"})
		return
	}
	c.JSON(http.StatusOK, items)
}

// loadItemForEditor fetches the item and checks the caller may change it:
// the item author and the list author always can, other group members need
// moderation rights over the item author's resources.
func (h *ItemHandler) loadItemForEditor(c *gin.Context, itemID, userID primitive.ObjectID) (models.ShoppingListItem, models.ShoppingList, bool) {
	item, err := h.items.GetByID(c.Request.Context(), itemID)
	if errors.Is(err, repositories.ErrItemNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return models.ShoppingListItem{}, models.ShoppingList{}, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load item"})
		return models.ShoppingListItem{}, models.ShoppingList{}, false
	}

	list, err := h.lists.GetByID(c.Request.Context(), item.ListID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load item"})
		return models.ShoppingListItem{}, models.ShoppingList{}, false
	}

	if item.AuthorID == userID || list.AuthorID == userID {
		return item, list, true
	}
	if list.GroupID != nil {
		group, err := h.groups.GetByID(c.Request.Context(), *list.GroupID)
		if err == nil && permissions.Evaluate(membershipOf(&group, userID),
			permissions.ModifyOwnResource, item.AuthorID.Hex()) {
			return item, list, true
		}
	}

	c.JSON(http.StatusForbidden, gin.H{"error": "not authorized to edit this item"})
	return models.ShoppingListItem{}, models.ShoppingList{}, false
}

type updateItemRequest struct {
	Name      *string    `json:"name"`
	Qty       *float64   `json:"qty"`
	Unit      *string    `json:"unit"`
	Category  *string    `json:"category"`
	Store     *string    `json:"store"`
	Priority  *string    `json:"priority"`
	Deadline  *time.Time `json:"deadline"`
	Reminder  *int       `json:"reminder"`
	IsChecked *bool      `json:"isChecked"`
}

func (h *ItemHandler) Update(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	itemID, ok := pathID(c, "item_id")
	if !ok {
		return
	}

	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Name != nil && *req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name cannot be empty"})
		return
	}

	item, list, ok := h.loadItemForEditor(c, itemID, userID)
	if !ok {
		return
	}

	updated, err := h.items.Update(c.Request.Context(), itemID, repositories.ItemUpdate{
		Name:      req.Name,
		Qty:       req.Qty,
		Unit:      req.Unit,
		Category:  req.Category,
		Store:     req.Store,
		Priority:  req.Priority,
		Deadline:  req.Deadline,
		Reminder:  req.Reminder,
		IsChecked: req.IsChecked,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update item"})
		return
	}

	if list.GroupID != nil && req.IsChecked != nil && *req.IsChecked && !item.IsChecked {
		h.dispatcher.LogActivity(models.ActivityLog{
			GroupID:    *list.GroupID,
			AuthorID:   userID,
			AuthorName: actorUsername(c),
			Category:   models.ActivityInteraction,
			Message:    actorUsername(c) + " checked off " + updated.Name,
			Metadata:   models.ActivityMetadata{ListID: &list.ID, ItemID: &updated.ID},
		}, "")
	}

	c.JSON(http.StatusOK, updated)
}

// Delete soft-deletes the item so offline clients observe the removal.
func (h *ItemHandler) Delete(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	itemID, ok := pathID(c, "item_id")
	if !ok {
		return
	}

	item, list, ok := h.loadItemForEditor(c, itemID, userID)
	if !ok {
		return
	}

	if err := h.items.SoftDelete(c.Request.Context(), itemID); err != nil {
		if errors.Is(err, repositories.ErrItemNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete item"})
		return
	}

	if list.GroupID != nil {
		h.dispatcher.LogActivity(models.ActivityLog{
			GroupID:    *list.GroupID,
			AuthorID:   userID,
			AuthorName: actorUsername(c),
			Category:   models.ActivityContent,
			Message:    actorUsername(c) + " removed " + item.Name + " from " + list.Name,
			Metadata:   models.ActivityMetadata{ListID: &list.ID},
		}, "")
	}

	c.JSON(http.StatusOK, gin.H{"message": "item deleted"})
}
