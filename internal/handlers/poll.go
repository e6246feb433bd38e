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

// PollHandler serves group polls and voting.
type PollHandler struct {
	polls      repositories.PollRepository
	groups     repositories.GroupRepository
	dispatcher *dispatch.Dispatcher
	logger     *zap.Logger
}

func NewPollHandler(
	polls repositories.PollRepository,
	groups repositories.GroupRepository,
	dispatcher *dispatch.Dispatcher,
	logger *zap.Logger,
) *PollHandler {
	return &PollHandler{polls: polls, groups: groups, dispatcher: dispatcher, logger: logger}
}

// loadPollAndGroup fetches the poll and its group, requiring the caller to
// be a group member.
func (h *PollHandler) loadPollAndGroup(c *gin.Context, pollID, userID primitive.ObjectID) (models.Poll, models.Group, bool) {
	poll, err := h.polls.GetByID(c.Request.Context(), pollID)
	if errors.Is(err, repositories.ErrPollNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "poll not found"})
		return models.Poll{}, models.Group{}, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load poll"})
		return models.Poll{}, models.Group{}, false
	}

	group, err := h.groups.GetByID(c.Request.Context(), poll.GroupID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load poll"})
		return models.Poll{}, models.Group{}, false
	}
	if !permissions.Evaluate(membershipOf(&group, userID), permissions.CreateAndView, "") {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this group"})
		return models.Poll{}, models.Group{}, false
	}
	return poll, group, true
}

type createPollRequest struct {
	Question string   `json:"question" binding:"required"`
	Options  []string `json:"options" binding:"required"`
}

func (h *PollHandler) Create(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	groupID, ok := pathID(c, "group_id")
	if !ok {
		return
	}

	var req createPollRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Options) < 2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "question and at least two options are required"})
		return
	}

	group, err := h.groups.GetByID(c.Request.Context(), groupID)
	if errors.Is(err, repositories.ErrGroupNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create poll"})
		return
	}
	if !permissions.Evaluate(membershipOf(&group, userID), permissions.CreateAndView, "") {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this group"})
		return
	}

	options := make([]models.PollOption, 0, len(req.Options))
	for _, text := range req.Options {
		if text == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "option text cannot be empty"})
			return
		}
		options = append(options, models.PollOption{Text: text})
	}

	created, err := h.polls.Create(c.Request.Context(), models.Poll{
		GroupID:  groupID,
		AuthorID: userID,
		Question: req.Question,
		Options:  options,
	})
	if err != nil {
		h.logger.Error("create poll failed", zap.String("group_id", groupID.Hex()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create poll"})
		return
	}

	h.dispatcher.LogActivity(models.ActivityLog{
		GroupID:    groupID,
		AuthorID:   userID,
		AuthorName: actorUsername(c),
		Category:   models.ActivityContent,
		Message:    actorUsername(c) + " started the poll " + created.Question,
		Metadata:   models.ActivityMetadata{PollID: &created.ID},
	}, models.NotifyPoll)

	c.JSON(http.StatusCreated, created)
}

func (h *PollHandler) ListByGroup(c *gin.Context) {
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
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list polls"})
		return
	}
	if !permissions.Evaluate(membershipOf(&group, userID), permissions.CreateAndView, "") {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this group"})
		return
	}

	polls, err := h.polls.ListByGroup(c.Request.Context(), groupID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list polls"})
		return
	}
	c.JSON(http.StatusOK, polls)
}

func (h *PollHandler) Get(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	pollID, ok := pathID(c, "poll_id")
	if !ok {
		return
	}

	poll, _, ok := h.loadPollAndGroup(c, pollID, userID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, poll)
}

type updatePollRequest struct {
	Question *string `json:"question"`
	IsClosed *bool   `json:"isClosed"`
}

func (h *PollHandler) Update(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	pollID, ok := pathID(c, "poll_id")
	if !ok {
		return
	}

	var req updatePollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	poll, group, ok := h.loadPollAndGroup(c, pollID, userID)
	if !ok {
		return
	}
	if !permissions.Evaluate(membershipOf(&group, userID),
		permissions.ModifyOwnResource, poll.AuthorID.Hex()) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized to edit this poll"})
		return
	}

	updated, err := h.polls.Update(c.Request.Context(), pollID, repositories.PollUpdate{
		Question: req.Question,
		IsClosed: req.IsClosed,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update poll"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *PollHandler) Delete(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	pollID, ok := pathID(c, "poll_id")
	if !ok {
		return
	}

	poll, group, ok := h.loadPollAndGroup(c, pollID, userID)
	if !ok {
		return
	}
	if !permissions.Evaluate(membershipOf(&group, userID),
		permissions.ModifyOwnResource, poll.AuthorID.Hex()) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized to delete this poll"})
		return
	}

	if err := h.polls.Delete(c.Request.Context(), pollID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete poll"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "poll deleted"})
}

type voteRequest struct {
	OptionID string `json:"optionId" binding:"required"`
}

// Vote records the caller's vote. Voting again moves the vote; closed polls
// reject votes.
func (h *PollHandler) Vote(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	pollID, ok := pathID(c, "poll_id")
	if !ok {
		return
	}

	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "optionId is required"})
		return
	}
	optionID, err := primitive.ObjectIDFromHex(req.OptionID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid optionId"})
		return
	}

	poll, _, ok := h.loadPollAndGroup(c, pollID, userID)
	if !ok {
		return
	}
	if poll.IsClosed {
		c.JSON(http.StatusConflict, gin.H{"error": "poll is closed"})
		return
	}

	// Reject unknown options before the write; the repo moves the existing
	// vote and must not do so for an option that does not exist.
	var known bool
	for _, opt := range poll.Options {
		if opt.ID == optionID {
			known = true
			break
		}
	}
	if !known {
		c.JSON(http.StatusNotFound, gin.H{"error": "poll option not found"})
		return
	}

	updated, err := h.polls.Vote(c.Request.Context(), pollID, optionID, userID)
	if errors.Is(err, repositories.ErrOptionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "poll option not found"})
		return
	}
	if errors.Is(err, repositories.ErrPollNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "poll not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to vote"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

type addOptionRequest struct {
	Text string `json:"text" binding:"required"`
}

// AddOption appends a new option to an open poll.
func (h *PollHandler) AddOption(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	pollID, ok := pathID(c, "poll_id")
	if !ok {
		return
	}

	var req addOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	poll, _, ok := h.loadPollAndGroup(c, pollID, userID)
	if !ok {
		return
	}
	if poll.IsClosed {
		c.JSON(http.StatusConflict, gin.H{"error": "poll is closed"})
		return
	}

	updated, err := h.polls.AddOption(c.Request.Context(), pollID, models.PollOption{Text: req.Text})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add option"})
		return
	}
	c.JSON(http.StatusOK, updated)
}
