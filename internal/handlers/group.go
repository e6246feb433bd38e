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

// GroupHandler serves the group lifecycle and membership endpoints.
type GroupHandler struct {
	groups     repositories.GroupRepository
	lists      repositories.ListRepository
	items      repositories.ItemRepository
	notes      repositories.NoteRepository
	comments   repositories.CommentRepository
	polls      repositories.PollRepository
	invites    repositories.InviteRepository
	dispatcher *dispatch.Dispatcher
	logger     *zap.Logger
}

func NewGroupHandler(
	groups repositories.GroupRepository,
	lists repositories.ListRepository,
	items repositories.ItemRepository,
	notes repositories.NoteRepository,
	comments repositories.CommentRepository,
	polls repositories.PollRepository,
	invites repositories.InviteRepository,
	dispatcher *dispatch.Dispatcher,
	logger *zap.Logger,
) *GroupHandler {
	return &GroupHandler{
		groups:     groups,
		lists:      lists,
		items:      items,
		notes:      notes,
		comments:   comments,
		polls:      polls,
		invites:    invites,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

type createGroupRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

func (h *GroupHandler) Create(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}

	var req createGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}

	group := models.Group{
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
		AuthorID:    userID,
		Members: []models.GroupMember{{
			UserID:                  userID,
			Username:                actorUsername(c),
			Role:                    string(permissions.RoleOwner),
			JoinedAt:                time.Now().UTC(),
			NotificationPreferences: models.DefaultPreferences(),
		}},
	}

	created, err := h.groups.Create(c.Request.Context(), group)
	if err != nil {
		h.logger.Error("create group failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create group"})
		return
	}

	h.dispatcher.LogActivity(models.ActivityLog{
		GroupID:    created.ID,
		AuthorID:   userID,
		AuthorName: actorUsername(c),
		Category:   models.ActivityGroup,
		Message:    actorUsername(c) + " created the group",
	}, "")

	c.JSON(http.StatusCreated, created)
}

func (h *GroupHandler) ListMine(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}

	groups, err := h.groups.ListForUser(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("list groups failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list groups"})
		return
	}
	c.JSON(http.StatusOK, groups)
}

func (h *GroupHandler) Get(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	groupID, ok := pathID(c, "group_id")
	if !ok {
		return
	}

	group, err := h.groups.GetByID(c.Request.Context(), groupID)
	if errors.Is(err, repositories.ErrGroupNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load group"})
		return
	}

	if !permissions.Evaluate(membershipOf(&group, userID), permissions.CreateAndView, "") {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this group"})
		return
	}
	c.JSON(http.StatusOK, group)
}

type updateGroupRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Icon        *string `json:"icon"`
}

func (h *GroupHandler) Update(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	groupID, ok := pathID(c, "group_id")
	if !ok {
		return
	}

	var req updateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Name != nil && *req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name cannot be empty"})
		return
	}

	group, err := h.groups.GetByID(c.Request.Context(), groupID)
	if errors.Is(err, repositories.ErrGroupNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load group"})
		return
	}

	if !permissions.Evaluate(membershipOf(&group, userID), permissions.UpdateSettings, "") {
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
		return
	}

	updated, err := h.groups.UpdateSettings(c.Request.Context(), groupID, repositories.GroupUpdate{
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
	})
	if err != nil {
		h.logger.Error("update group failed", zap.String("group_id", groupID.Hex()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update group"})
		return
	}

	h.dispatcher.LogActivity(models.ActivityLog{
		GroupID:    groupID,
		AuthorID:   userID,
		AuthorName: actorUsername(c),
		Category:   models.ActivityGroup,
		Message:    actorUsername(c) + " updated the group settings",
	}, models.NotifyGroup)

	c.JSON(http.StatusOK, updated)
}

// Delete destroys the group and everything it owns: lists with their items,
// notes with their comments, polls and invite tokens.
func (h *GroupHandler) Delete(c *gin.Context) {
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
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load group"})
		return
	}

	if !permissions.Evaluate(membershipOf(&group, userID), permissions.DeleteGroup, "") {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the owner can delete the group"})
		return
	}

	lists, err := h.lists.ListByGroup(ctx, groupID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete group"})
		return
	}
	for _, list := range lists {
		if _, err := h.items.DeleteByList(ctx, list.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete group"})
			return
		}
		if err := h.lists.Delete(ctx, list.ID); err != nil && !errors.Is(err, repositories.ErrListNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete group"})
			return
		}
	}

	notes, err := h.notes.ListByGroup(ctx, groupID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete group"})
		return
	}
	for _, note := range notes {
		if _, err := h.comments.DeleteByNote(ctx, note.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete group"})
			return
		}
		if err := h.notes.Delete(ctx, note.ID); err != nil && !errors.Is(err, repositories.ErrNoteNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete group"})
			return
		}
	}

	polls, err := h.polls.ListByGroup(ctx, groupID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete group"})
		return
	}
	for _, poll := range polls {
		if err := h.polls.Delete(ctx, poll.ID); err != nil && !errors.Is(err, repositories.ErrPollNotFound) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete group"})
			return
		}
	}

	if _, err := h.invites.DeleteByGroup(ctx, groupID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete group"})
		return
	}

	if err := h.groups.Delete(ctx, groupID); err != nil {
		h.logger.Error("delete group failed", zap.String("group_id", groupID.Hex()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete group"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "group deleted"})
}

type updateRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// UpdateMemberRole changes a member's role. The actor needs member
// management rights and must outrank the target; the owner role cannot be
// assigned.
func (h *GroupHandler) UpdateMemberRole(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	groupID, ok := pathID(c, "group_id")
	if !ok {
		return
	}
	targetID, ok := pathID(c, "user_id")
	if !ok {
		return
	}

	var req updateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role is required"})
		return
	}
	role := permissions.Role(req.Role)
	if !role.Valid() || role == permissions.RoleOwner {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
		return
	}

	group, err := h.groups.GetByID(c.Request.Context(), groupID)
	if errors.Is(err, repositories.ErrGroupNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load group"})
		return
	}

	actor := membershipOf(&group, userID)
	if !permissions.Evaluate(actor, permissions.ManageMembers, "") {
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
		return
	}
	target := membershipOf(&group, targetID)
	if target == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "member not found"})
		return
	}
	if !permissions.CanManageTarget(*actor, *target) {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot manage a member of equal or higher rank"})
		return
	}

	if err := h.groups.SetMemberRole(c.Request.Context(), groupID, targetID, string(role)); err != nil {
		if errors.Is(err, repositories.ErrMemberNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "member not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update role"})
		return
	}

	h.dispatcher.LogActivity(models.ActivityLog{
		GroupID:    groupID,
		AuthorID:   userID,
		AuthorName: actorUsername(c),
		Category:   models.ActivityGroup,
		Message:    actorUsername(c) + " changed " + targetMemberName(&group, targetID) + "'s role to " + string(role),
	}, models.NotifyGroup)

	c.JSON(http.StatusOK, gin.H{"message": "role updated"})
}

// KickMember removes a member from the group. Same gate as role changes:
// member management rights plus strictly higher rank than the target.
func (h *GroupHandler) KickMember(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	groupID, ok := pathID(c, "group_id")
	if !ok {
		return
	}
	targetID, ok := pathID(c, "user_id")
	if !ok {
		return
	}

	group, err := h.groups.GetByID(c.Request.Context(), groupID)
	if errors.Is(err, repositories.ErrGroupNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load group"})
		return
	}

	actor := membershipOf(&group, userID)
	if !permissions.Evaluate(actor, permissions.ManageMembers, "") {
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
		return
	}
	target := membershipOf(&group, targetID)
	if target == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "member not found"})
		return
	}
	if !permissions.CanManageTarget(*actor, *target) {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot manage a member of equal or higher rank"})
		return
	}

	kickedName := targetMemberName(&group, targetID)
	if err := h.groups.RemoveMember(c.Request.Context(), groupID, targetID); err != nil {
		if errors.Is(err, repositories.ErrMemberNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "member not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove member"})
		return
	}

	h.dispatcher.LogActivity(models.ActivityLog{
		GroupID:    groupID,
		AuthorID:   userID,
		AuthorName: actorUsername(c),
		Category:   models.ActivityGroup,
		Message:    actorUsername(c) + " removed " + kickedName + " from the group",
	}, models.NotifyGroup)

	c.JSON(http.StatusOK, gin.H{"message": "member removed"})
}

// Leave removes the caller from the group. The owner cannot leave; they must
// delete the group instead.
func (h *GroupHandler) Leave(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	groupID, ok := pathID(c, "group_id")
	if !ok {
		return
	}

	group, err := h.groups.GetByID(c.Request.Context(), groupID)
	if errors.Is(err, repositories.ErrGroupNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load group"})
		return
	}

	member := group.Member(userID)
	if member == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "member not found"})
		return
	}
	if member.Role == string(permissions.RoleOwner) {
		c.JSON(http.StatusConflict, gin.H{"error": "the owner cannot leave the group"})
		return
	}

	if err := h.groups.RemoveMember(c.Request.Context(), groupID, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to leave group"})
		return
	}

	h.dispatcher.LogActivity(models.ActivityLog{
		GroupID:    groupID,
		AuthorID:   userID,
		AuthorName: actorUsername(c),
		Category:   models.ActivityGroup,
		Message:    actorUsername(c) + " left the group",
	}, models.NotifyGroup)

	c.JSON(http.StatusOK, gin.H{"message": "left group"})
}

func targetMemberName(group *models.Group, userID primitive.ObjectID) string {
	if m := group.Member(userID); m != nil {
		return m.Username
	}
	return "a member"
}
