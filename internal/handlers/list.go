package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"docket-service/internal/dispatch"
	"docket-service/internal/models"
	"docket-service/internal/permissions"
	"docket-service/internal/repositories"
)

// ListHandler serves shopping-list endpoints, both personal and group-owned.
type ListHandler struct {
	lists      repositories.ListRepository
	items      repositories.ItemRepository
	groups     repositories.GroupRepository
	dispatcher *dispatch.Dispatcher
	logger     *zap.Logger
}

func NewListHandler(
	lists repositories.ListRepository,
	items repositories.ItemRepository,
	groups repositories.GroupRepository,
	dispatcher *dispatch.Dispatcher,
	logger *zap.Logger,
) *ListHandler {
	return &ListHandler{lists: lists, items: items, groups: groups, dispatcher: dispatcher, logger: logger}
}

// loadListForViewer fetches the list and checks the caller may see it: the
// author always can, anyone else needs membership in the owning group. On
// failure the response is already written and ok is false.
func loadListForViewer(c *gin.Context, lists repositories.ListRepository, groups repositories.GroupRepository, listID, userID primitive.ObjectID) (models.ShoppingList, *models.Group, bool) {
	list, err := lists.GetByID(c.Request.Context(), listID)
	if errors.Is(err, repositories.ErrListNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "list not found"})
		return models.ShoppingList{}, nil, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load list"})
		return models.ShoppingList{}, nil, false
	}

	if list.AuthorID == userID {
		return list, nil, true
	}
	if list.GroupID == nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized for this list"})
		return models.ShoppingList{}, nil, false
	}

	group, err := groups.GetByID(c.Request.Context(), *list.GroupID)
	if err != nil || group.Member(userID) == nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized for this list"})
		return models.ShoppingList{}, nil, false
	}
	return list, &group, true
}

type createListRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Color       string  `json:"color"`
	Icon        string  `json:"icon"`
	ClientID    string  `json:"clientId"`
	GroupID     *string `json:"groupId"`
}

func (h *ListHandler) Create(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}

	var req createListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	list := models.ShoppingList{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		Icon:        req.Icon,
		ClientID:    req.ClientID,
		AuthorID:    userID,
	}

	if req.GroupID != nil {
		groupID, err := primitive.ObjectIDFromHex(*req.GroupID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid groupId"})
			return
		}
		group, err := h.groups.GetByID(c.Request.Context(), groupID)
		if errors.Is(err, repositories.ErrGroupNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create list"})
			return
		}
		if !permissions.Evaluate(membershipOf(&group, userID), permissions.CreateAndView, "") {
			c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this group"})
			return
		}
		list.GroupID = &groupID
	}

	created, err := h.lists.Create(c.Request.Context(), list)
	if err != nil {
		h.logger.Error("create list failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create list"})
		return
	}

	if created.GroupID != nil {
		h.dispatcher.LogActivity(models.ActivityLog{
			GroupID:    *created.GroupID,
			AuthorID:   userID,
			AuthorName: actorUsername(c),
			Category:   models.ActivityContent,
			Message:    actorUsername(c) + " created the list " + created.Name,
			Metadata:   models.ActivityMetadata{ListID: &created.ID},
		}, models.NotifyGroup)
	}

	c.JSON(http.StatusCreated, created)
}

func (h *ListHandler) ListMine(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}

	lists, err := h.lists.ListForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list lists"})
		return
	}
	c.JSON(http.StatusOK, lists)
}

// ListByGroup returns a group's lists with their live item counts.
func (h *ListHandler) ListByGroup(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	groupID, ok := pathID(c, "group_id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	group, err := h.groups.GetByID(ctx, groupID)
	if errors.Is(err, repositories.ErrGroupNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list lists"})
		return
	}
	if !permissions.Evaluate(membershipOf(&group, userID), permissions.CreateAndView, "") {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this group"})
		return
	}

	lists, err := h.lists.ListByGroup(ctx, groupID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list lists"})
		return
	}

	out := make([]models.ListWithCount, 0, len(lists))
	for _, list := range lists {
		count, err := h.items.CountActive(ctx, list.ID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list lists"})
			return
		}
		out = append(out, models.ListWithCount{ShoppingList: list, ItemCount: count})
	}
	c.JSON(http.StatusOK, out)
}

func (h *ListHandler) Get(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	listID, ok := pathID(c, "list_id")
	if !ok {
		return
	}

	list, _, ok := loadListForViewer(c, h.lists, h.groups, listID, userID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, list)
}

type updateListRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Color       *string `json:"color"`
	Icon        *string `json:"icon"`
	IsPinned    *bool   `json:"isPinned"`
}

func (h *ListHandler) Update(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	listID, ok := pathID(c, "list_id")
	if !ok {
		return
	}

	var req updateListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Name != nil && *req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name cannot be empty"})
		return
	}

	list, group, ok := loadListForViewer(c, h.lists, h.groups, listID, userID)
	if !ok {
		return
	}
	if list.AuthorID != userID {
		// Non-authors need moderation rights in the owning group.
		if group == nil || !permissions.Evaluate(membershipOf(group, userID),
			permissions.ModifyOwnResource, list.AuthorID.Hex()) {
			c.JSON(http.StatusForbidden, gin.H{"error": "not authorized to edit this list"})
			return
		}
	}

	updated, err := h.lists.Update(c.Request.Context(), listID, repositories.ListUpdate{
		Name:        req.Name,
		Description: req.Description,
		Color:       req.Color,
		Icon:        req.Icon,
		IsPinned:    req.IsPinned,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update list"})
		return
	}

	if updated.GroupID != nil {
		h.dispatcher.LogActivity(models.ActivityLog{
			GroupID:    *updated.GroupID,
			AuthorID:   userID,
			AuthorName: actorUsername(c),
			Category:   models.ActivityContent,
			Message:    actorUsername(c) + " updated the list " + updated.Name,
			Metadata:   models.ActivityMetadata{ListID: &updated.ID},
		}, "")
	}

	c.JSON(http.StatusOK, updated)
}

// Delete removes a list and all of its items.
func (h *ListHandler) Delete(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	listID, ok := pathID(c, "list_id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	list, group, ok := loadListForViewer(c, h.lists, h.groups, listID, userID)
	if !ok {
		return
	}
	if list.AuthorID != userID {
		if group == nil || !permissions.Evaluate(membershipOf(group, userID),
			permissions.ModerateContent, "") {
			c.JSON(http.StatusForbidden, gin.H{"error": "not authorized to delete this list"})
			return
		}
	}

	if _, err := h.items.DeleteByList(ctx, listID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete list"})
		return
	}
	if err := h.lists.Delete(ctx, listID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete list"})
		return
	}

	if list.GroupID != nil {
		h.dispatcher.LogActivity(models.ActivityLog{
			GroupID:    *list.GroupID,
			AuthorID:   userID,
			AuthorName: actorUsername(c),
			Category:   models.ActivityContent,
			Message:    actorUsername(c) + " deleted the list " + list.Name,
		}, models.NotifyGroup)
	}

	c.JSON(http.StatusOK, gin.H{"message": "list deleted"})
}
