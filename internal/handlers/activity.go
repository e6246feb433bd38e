package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"docket-service/internal/permissions"
	"docket-service/internal/repositories"
)

// ActivityHandler serves the group activity feed.
type ActivityHandler struct {
	activity repositories.ActivityRepository
	groups   repositories.GroupRepository
}

func NewActivityHandler(activity repositories.ActivityRepository, groups repositories.GroupRepository) *ActivityHandler {
	return &ActivityHandler{activity: activity, groups: groups}
}

// ListByGroup returns the group's most recent activity entries, newest
// first. The limit query parameter caps the page size.
func (h *ActivityHandler) ListByGroup(c *gin.Context) {
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
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list activity"})
		return
	}
	if !permissions.Evaluate(membershipOf(&group, userID), permissions.CreateAndView, "") {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this group"})
		return
	}

	var limit int64
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a number"})
			return
		}
		limit = parsed
	}

	entries, err := h.activity.ListByGroup(c.Request.Context(), groupID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list activity"})
		return
	}
	c.JSON(http.StatusOK, entries)
}
