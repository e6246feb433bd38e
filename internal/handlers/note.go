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

// NoteHandler serves group notes and their comments.
type NoteHandler struct {
	notes      repositories.NoteRepository
	comments   repositories.CommentRepository
	groups     repositories.GroupRepository
	users      repositories.UserRepository
	dispatcher *dispatch.Dispatcher
	logger     *zap.Logger
}

func NewNoteHandler(
	notes repositories.NoteRepository,
	comments repositories.CommentRepository,
	groups repositories.GroupRepository,
	users repositories.UserRepository,
	dispatcher *dispatch.Dispatcher,
	logger *zap.Logger,
) *NoteHandler {
	return &NoteHandler{notes: notes, comments: comments, groups: groups, users: users, dispatcher: dispatcher, logger: logger}
}

// loadNoteAndGroup fetches the note and its group, requiring the caller to
// be a group member. On failure the response is already written.
func (h *NoteHandler) loadNoteAndGroup(c *gin.Context, noteID, userID primitive.ObjectID) (models.Note, models.Group, bool) {
	note, err := h.notes.GetByID(c.Request.Context(), noteID)
	if errors.Is(err, repositories.ErrNoteNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "note not found"})
		return models.Note{}, models.Group{}, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load note"})
		return models.Note{}, models.Group{}, false
	}

	group, err := h.groups.GetByID(c.Request.Context(), note.GroupID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load note"})
		return models.Note{}, models.Group{}, false
	}
	if !permissions.Evaluate(membershipOf(&group, userID), permissions.CreateAndView, "") {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this group"})
		return models.Note{}, models.Group{}, false
	}
	return note, group, true
}

type createNoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content" binding:"required"`
}

func (h *NoteHandler) Create(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	groupID, ok := pathID(c, "group_id")
	if !ok {
		return
	}

	var req createNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}

	group, err := h.groups.GetByID(c.Request.Context(), groupID)
	if errors.Is(err, repositories.ErrGroupNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create note"})
		return
	}
	if !permissions.Evaluate(membershipOf(&group, userID), permissions.CreateAndView, "") {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this group"})
		return
	}

	created, err := h.notes.Create(c.Request.Context(), models.Note{
		GroupID:  groupID,
		AuthorID: userID,
		Title:    req.Title,
		Content:  req.Content,
	})
	if err != nil {
		h.logger.Error("create note failed", zap.String("group_id", groupID.Hex()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create note"})
		return
	}

	h.dispatcher.LogActivity(models.ActivityLog{
		GroupID:    groupID,
		AuthorID:   userID,
		AuthorName: actorUsername(c),
		Category:   models.ActivityContent,
		Message:    actorUsername(c) + " posted the note " + created.Title,
		Metadata:   models.ActivityMetadata{NoteID: &created.ID},
	}, models.NotifyGroup)

	c.JSON(http.StatusCreated, created)
}

func (h *NoteHandler) ListByGroup(c *gin.Context) {
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
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list notes"})
		return
	}
	if !permissions.Evaluate(membershipOf(&group, userID), permissions.CreateAndView, "") {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a member of this group"})
		return
	}

	notes, err := h.notes.ListByGroup(c.Request.Context(), groupID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list notes"})
		return
	}

	// Resolve author names from the group roster first; former members
	// need a user lookup.
	names := make(map[primitive.ObjectID]string, len(group.Members))
	for _, m := range group.Members {
		names[m.UserID] = m.Username
	}

	live := make([]models.Note, 0, len(notes))
	for _, note := range notes {
		if note.IsDeleted {
			continue
		}
		if name, ok := names[note.AuthorID]; ok {
			note.AuthorUsername = name
		} else if author, err := h.users.GetByID(c.Request.Context(), note.AuthorID); err == nil {
			note.AuthorUsername = author.Username
			names[note.AuthorID] = author.Username
		}
		live = append(live, note)
	}
	c.JSON(http.StatusOK, live)
}

func (h *NoteHandler) Get(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	noteID, ok := pathID(c, "note_id")
	if !ok {
		return
	}

	note, _, ok := h.loadNoteAndGroup(c, noteID, userID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, note)
}

type updateNoteRequest struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	IsPinned *bool   `json:"isPinned"`
}

func (h *NoteHandler) Update(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	noteID, ok := pathID(c, "note_id")
	if !ok {
		return
	}

	var req updateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	note, group, ok := h.loadNoteAndGroup(c, noteID, userID)
	if !ok {
		return
	}
	if !permissions.Evaluate(membershipOf(&group, userID),
		permissions.ModifyOwnResource, note.AuthorID.Hex()) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized to edit this note"})
		return
	}

	updated, err := h.notes.Update(c.Request.Context(), noteID, repositories.NoteUpdate{
		Title:    req.Title,
		Content:  req.Content,
		IsPinned: req.IsPinned,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update note"})
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Delete removes a note together with its comments.
func (h *NoteHandler) Delete(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	noteID, ok := pathID(c, "note_id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	note, group, ok := h.loadNoteAndGroup(c, noteID, userID)
	if !ok {
		return
	}
	if !permissions.Evaluate(membershipOf(&group, userID),
		permissions.ModifyOwnResource, note.AuthorID.Hex()) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized to delete this note"})
		return
	}

	if _, err := h.comments.DeleteByNote(ctx, noteID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete note"})
		return
	}
	if err := h.notes.Delete(ctx, noteID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete note"})
		return
	}

	h.dispatcher.LogActivity(models.ActivityLog{
		GroupID:    note.GroupID,
		AuthorID:   userID,
		AuthorName: actorUsername(c),
		Category:   models.ActivityContent,
		Message:    actorUsername(c) + " deleted the note " + note.Title,
	}, "")

	c.JSON(http.StatusOK, gin.H{"message": "note deleted"})
}

type createCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

func (h *NoteHandler) CreateComment(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	noteID, ok := pathID(c, "note_id")
	if !ok {
		return
	}

	var req createCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "content is required"})
		return
	}

	note, _, ok := h.loadNoteAndGroup(c, noteID, userID)
	if !ok {
		return
	}

	created, err := h.comments.Create(c.Request.Context(), models.NoteComment{
		NoteID:   noteID,
		AuthorID: userID,
		Username: actorUsername(c),
		Content:  req.Content,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create comment"})
		return
	}

	if err := h.notes.IncCommentCount(c.Request.Context(), noteID, 1); err != nil {
		h.logger.Warn("comment count update failed", zap.String("note_id", noteID.Hex()), zap.Error(err))
	}

	h.dispatcher.LogActivity(models.ActivityLog{
		GroupID:    note.GroupID,
		AuthorID:   userID,
		AuthorName: actorUsername(c),
		Category:   models.ActivityInteraction,
		Message:    actorUsername(c) + " commented on " + note.Title,
		Metadata:   models.ActivityMetadata{NoteID: &note.ID},
	}, "")

	c.JSON(http.StatusCreated, created)
}

func (h *NoteHandler) ListComments(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	noteID, ok := pathID(c, "note_id")
	if !ok {
		return
	}

	if _, _, ok := h.loadNoteAndGroup(c, noteID, userID); !ok {
		return
	}

	comments, err := h.comments.ListByNote(c.Request.Context(), noteID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list comments"})
		return
	}
	c.JSON(http.StatusOK, comments)
}

// DeleteComment removes a comment. The comment author may always delete
// their own; others need moderation rights in the group.
func (h *NoteHandler) DeleteComment(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	commentID, ok := pathID(c, "comment_id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	comment, err := h.comments.GetByID(ctx, commentID)
	if errors.Is(err, repositories.ErrCommentNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "comment not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete comment"})
		return
	}

	note, group, ok := h.loadNoteAndGroup(c, comment.NoteID, userID)
	if !ok {
		return
	}
	if !permissions.Evaluate(membershipOf(&group, userID),
		permissions.ModifyOwnResource, comment.AuthorID.Hex()) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not authorized to delete this comment"})
		return
	}

	if err := h.comments.Delete(ctx, commentID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete comment"})
		return
	}
	if err := h.notes.IncCommentCount(ctx, note.ID, -1); err != nil {
		h.logger.Warn("comment count update failed", zap.String("note_id", note.ID.Hex()), zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{"message": "comment deleted"})
}
