package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"docket-service/internal/dispatch"
	"docket-service/internal/models"
	"docket-service/internal/permissions"
	"docket-service/internal/repositories"
)

const (
	inviteTokenLength   = 20
	defaultInviteTTL    = 48 * time.Hour
	defaultInviteMaxUse = 1
)

// InviteHandler serves both invite flavors: shareable link tokens and
// direct invitations sent to a user by username.
type InviteHandler struct {
	invites       repositories.InviteRepository
	invitations   repositories.InvitationRepository
	groups        repositories.GroupRepository
	users         repositories.UserRepository
	notifications repositories.NotificationRepository
	dispatcher    *dispatch.Dispatcher
	logger        *zap.Logger
}

func NewInviteHandler(
	invites repositories.InviteRepository,
	invitations repositories.InvitationRepository,
	groups repositories.GroupRepository,
	users repositories.UserRepository,
	notifications repositories.NotificationRepository,
	dispatcher *dispatch.Dispatcher,
	logger *zap.Logger,
) *InviteHandler {
	return &InviteHandler{
		invites:       invites,
		invitations:   invitations,
		groups:        groups,
		users:         users,
		notifications: notifications,
		dispatcher:    dispatcher,
		logger:        logger,
	}
}

func newInviteToken() (string, error) {
	buf := make([]byte, inviteTokenLength/2)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

type generateInviteRequest struct {
	ExpiresInHours int `json:"expiresInHours"`
	MaxUses        int `json:"maxUses"`
}

// Generate creates a shareable invite token for the group.
func (h *InviteHandler) Generate(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	groupID, ok := pathID(c, "group_id")
	if !ok {
		return
	}

	var req generateInviteRequest
	// The body is optional; defaults apply when absent.
	_ = c.ShouldBindJSON(&req)

	group, err := h.groups.GetByID(c.Request.Context(), groupID)
	if errors.Is(err, repositories.ErrGroupNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load group"})
		return
	}

	if !permissions.Evaluate(membershipOf(&group, userID), permissions.ModerateContent, "") {
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
		return
	}

	token, err := newInviteToken()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate invite"})
		return
	}

	ttl := defaultInviteTTL
	if req.ExpiresInHours > 0 {
		ttl = time.Duration(req.ExpiresInHours) * time.Hour
	}
	maxUses := defaultInviteMaxUse
	if req.MaxUses > 0 || req.MaxUses == models.UnlimitedUses {
		maxUses = req.MaxUses
	}

	invite, err := h.invites.Create(c.Request.Context(), models.Invite{
		Token:     token,
		GroupID:   groupID,
		CreatedBy: userID,
		ExpiresAt: time.Now().UTC().Add(ttl),
		MaxUses:   maxUses,
	})
	if err != nil {
		h.logger.Error("create invite failed", zap.String("group_id", groupID.Hex()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate invite"})
		return
	}

	c.JSON(http.StatusCreated, invite)
}

// Lookup resolves an invite token to a public preview of the group. It does
// not require authentication so join pages can render before login.
func (h *InviteHandler) Lookup(c *gin.Context) {
	token := c.Param("token")

	invite, err := h.invites.FindByToken(c.Request.Context(), token)
	if errors.Is(err, repositories.ErrInviteNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "invite not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to look up invite"})
		return
	}

	group, err := h.groups.GetByID(c.Request.Context(), invite.GroupID)
	if errors.Is(err, repositories.ErrGroupNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to look up invite"})
		return
	}

	inviterUsername := ""
	if inviter, err := h.users.GetByID(c.Request.Context(), invite.CreatedBy); err == nil {
		inviterUsername = inviter.Username
	}

	c.JSON(http.StatusOK, gin.H{
		"groupName":       group.Name,
		"groupIcon":       group.Icon,
		"memberCount":     len(group.Members),
		"inviterUsername": inviterUsername,
		"isExpired":       invite.Expired(time.Now().UTC()) || invite.Exhausted(),
	})
}

// Accept redeems an invite token for the caller. Expired or exhausted
// tokens respond 410 and are removed; joining a group the caller already
// belongs to succeeds without consuming a use.
func (h *InviteHandler) Accept(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	token := c.Param("token")
	ctx := c.Request.Context()

	invite, err := h.invites.FindByToken(ctx, token)
	if errors.Is(err, repositories.ErrInviteNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "invite not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to accept invite"})
		return
	}

	if invite.Expired(time.Now().UTC()) || invite.Exhausted() {
		if err := h.invites.Delete(ctx, invite.ID); err != nil && !errors.Is(err, repositories.ErrInviteNotFound) {
			h.logger.Warn("stale invite cleanup failed", zap.String("invite_id", invite.ID.Hex()), zap.Error(err))
		}
		c.JSON(http.StatusGone, gin.H{"error": "invite is no longer valid"})
		return
	}

	group, err := h.groups.GetByID(ctx, invite.GroupID)
	if errors.Is(err, repositories.ErrGroupNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to accept invite"})
		return
	}

	if group.Member(userID) != nil {
		c.JSON(http.StatusOK, gin.H{"message": "already a member", "groupId": group.ID.Hex()})
		return
	}

	member := models.GroupMember{
		UserID:                  userID,
		Username:                actorUsername(c),
		Role:                    string(permissions.RoleMember),
		JoinedAt:                time.Now().UTC(),
		NotificationPreferences: models.DefaultPreferences(),
	}
	if err := h.groups.AddMember(ctx, invite.GroupID, member); err != nil {
		if errors.Is(err, repositories.ErrAlreadyMember) {
			c.JSON(http.StatusOK, gin.H{"message": "already a member", "groupId": group.ID.Hex()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to accept invite"})
		return
	}

	used, err := h.invites.IncrementUses(ctx, invite.ID)
	if err == nil && used.Exhausted() {
		if err := h.invites.Delete(ctx, used.ID); err != nil && !errors.Is(err, repositories.ErrInviteNotFound) {
			h.logger.Warn("exhausted invite cleanup failed", zap.String("invite_id", used.ID.Hex()), zap.Error(err))
		}
	}

	h.dispatcher.LogActivity(models.ActivityLog{
		GroupID:    group.ID,
		AuthorID:   userID,
		AuthorName: member.Username,
		Category:   models.ActivityGroup,
		Message:    member.Username + " joined the group",
	}, models.NotifyGroup)

	c.JSON(http.StatusOK, gin.H{"message": "joined group", "groupId": group.ID.Hex()})
}

type sendInviteRequest struct {
	Username string `json:"username" binding:"required"`
}

// SendInvite creates a pending direct invitation for a user by username.
func (h *InviteHandler) SendInvite(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	groupID, ok := pathID(c, "group_id")
	if !ok {
		return
	}

	var req sendInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username is required"})
		return
	}
	ctx := c.Request.Context()

	group, err := h.groups.GetByID(ctx, groupID)
	if errors.Is(err, repositories.ErrGroupNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "group not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send invitation"})
		return
	}

	if !permissions.Evaluate(membershipOf(&group, userID), permissions.ManageMembers, "") {
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
		return
	}

	recipient, err := h.users.FindByUsername(ctx, req.Username)
	if errors.Is(err, repositories.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send invitation"})
		return
	}

	if recipient.ID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot invite yourself"})
		return
	}
	if group.Member(recipient.ID) != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "user is already a member"})
		return
	}

	// Pre-check for a friendlier 409; the partial unique index stays the
	// backstop against a concurrent send.
	pending, err := h.invitations.HasPending(ctx, groupID, recipient.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send invitation"})
		return
	}
	if pending {
		c.JSON(http.StatusConflict, gin.H{"error": "an invitation is already pending"})
		return
	}

	invitation, err := h.invitations.Create(ctx, models.GroupInvitation{
		SenderID:    userID,
		RecipientID: recipient.ID,
		GroupID:     groupID,
	})
	if errors.Is(err, repositories.ErrDuplicatePending) {
		c.JSON(http.StatusConflict, gin.H{"error": "an invitation is already pending"})
		return
	}
	if err != nil {
		h.logger.Error("create invitation failed",
			zap.String("request_id", requestIDFromContext(c)),
			zap.String("group_id", groupID.Hex()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send invitation"})
		return
	}

	// Direct notification to the recipient; delivery is best effort.
	authorID := userID
	notifyErr := h.notifications.InsertMany(ctx, []models.Notification{{
		RecipientID: recipient.ID,
		AuthorID:    &authorID,
		GroupID:     &groupID,
		Category:    models.NotifyGroup,
		Message:     actorUsername(c) + " invited you to join " + group.Name,
	}})
	if notifyErr != nil {
		h.logger.Warn("invitation notification failed",
			zap.String("recipient_id", recipient.ID.Hex()), zap.Error(notifyErr))
	}

	c.JSON(http.StatusCreated, invitation)
}

// ListMyInvitations returns the caller's pending invitations with the group
// and sender names resolved.
func (h *InviteHandler) ListMyInvitations(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	invitations, err := h.invitations.ListPendingForUser(ctx, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list invitations"})
		return
	}

	for i := range invitations {
		if group, err := h.groups.GetByID(ctx, invitations[i].GroupID); err == nil {
			invitations[i].GroupName = group.Name
		}
		if sender, err := h.users.GetByID(ctx, invitations[i].SenderID); err == nil {
			invitations[i].SenderUsername = sender.Username
		}
	}

	c.JSON(http.StatusOK, invitations)
}

type respondInvitationRequest struct {
	Action string `json:"action" binding:"required"`
}

// Respond accepts or declines a direct invitation. Only the recipient may
// respond, and only while the invitation is still pending.
func (h *InviteHandler) Respond(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}
	invitationID, ok := pathID(c, "invitation_id")
	if !ok {
		return
	}

	var req respondInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil ||
		(req.Action != "accept" && req.Action != "decline") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "action must be accept or decline"})
		return
	}
	ctx := c.Request.Context()

	invitation, err := h.invitations.GetByID(ctx, invitationID)
	if errors.Is(err, repositories.ErrInvitationNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "invitation not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to respond to invitation"})
		return
	}

	if invitation.RecipientID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not the recipient of this invitation"})
		return
	}
	if invitation.Status != models.InvitationPending {
		c.JSON(http.StatusGone, gin.H{"error": "invitation already resolved"})
		return
	}

	if req.Action == "decline" {
		if err := h.invitations.SetStatus(ctx, invitationID, models.InvitationDeclined); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to respond to invitation"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "invitation declined"})
		return
	}

	member := models.GroupMember{
		UserID:                  userID,
		Username:                actorUsername(c),
		Role:                    string(permissions.RoleMember),
		JoinedAt:                time.Now().UTC(),
		NotificationPreferences: models.DefaultPreferences(),
	}
	if err := h.groups.AddMember(ctx, invitation.GroupID, member); err != nil {
		if errors.Is(err, repositories.ErrGroupNotFound) {
			// The group vanished after the invitation was sent.
			_ = h.invitations.Delete(ctx, invitationID)
			c.JSON(http.StatusGone, gin.H{"error": "the group no longer exists"})
			return
		}
		if !errors.Is(err, repositories.ErrAlreadyMember) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to respond to invitation"})
			return
		}
	}

	if err := h.invitations.SetStatus(ctx, invitationID, models.InvitationAccepted); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to respond to invitation"})
		return
	}

	h.dispatcher.LogActivity(models.ActivityLog{
		GroupID:    invitation.GroupID,
		AuthorID:   userID,
		AuthorName: member.Username,
		Category:   models.ActivityGroup,
		Message:    member.Username + " joined the group",
	}, models.NotifyGroup)

	c.JSON(http.StatusOK, gin.H{"message": "invitation accepted", "groupId": invitation.GroupID.Hex()})
}
