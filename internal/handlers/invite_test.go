package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"docket-service/internal/mocks"
	"docket-service/internal/models"
	"docket-service/internal/permissions"
	"docket-service/internal/repositories"
)

func newInviteRouter(actor primitive.ObjectID, username string, invites *mocks.InviteRepositoryMock, invitations *mocks.InvitationRepositoryMock, groups *mocks.GroupRepositoryMock, users *mocks.UserRepositoryMock, notifications *mocks.NotificationRepositoryMock) *gin.Engine {
	handler := NewInviteHandler(invites, invitations, groups, users, notifications, nil, zap.NewNop())

	router := gin.New()
	router.GET("/api/invites/:token", handler.Lookup)

	authed := router.Group("/")
	authed.Use(withActor(actor, username))
	authed.POST("/api/groups/:group_id/invites", handler.Generate)
	authed.POST("/api/invites/:token/accept", handler.Accept)
	authed.POST("/api/groups/:group_id/invitations", handler.SendInvite)
	authed.GET("/api/invitations", handler.ListMyInvitations)
	authed.POST("/api/invitations/:invitation_id", handler.Respond)
	return router
}

func TestAcceptExpiredInviteGoneAndRemoved(t *testing.T) {
	actor := primitive.NewObjectID()
	invite := models.Invite{
		ID:        primitive.NewObjectID(),
		Token:     "deadbeef",
		GroupID:   primitive.NewObjectID(),
		ExpiresAt: time.Now().UTC().Add(-time.Hour),
		MaxUses:   1,
	}

	invites := new(mocks.InviteRepositoryMock)
	invites.On("FindByToken", mock.Anything, "deadbeef").Return(invite, nil)
	invites.On("Delete", mock.Anything, invite.ID).Return(nil)

	router := newInviteRouter(actor, "mika", invites, nil, nil, nil, nil)
	rec := performRequest(t, router, http.MethodPost, "/api/invites/deadbeef/accept", nil)

	require.Equal(t, http.StatusGone, rec.Code)
	invites.AssertExpectations(t)
}

func TestAcceptExhaustedInviteGone(t *testing.T) {
	actor := primitive.NewObjectID()
	invite := models.Invite{
		ID:        primitive.NewObjectID(),
		Token:     "deadbeef",
		GroupID:   primitive.NewObjectID(),
		ExpiresAt: time.Now().UTC().Add(time.Hour),
		MaxUses:   1,
		UsesCount: 1,
	}

	invites := new(mocks.InviteRepositoryMock)
	invites.On("FindByToken", mock.Anything, "deadbeef").Return(invite, nil)
	invites.On("Delete", mock.Anything, invite.ID).Return(nil)

	router := newInviteRouter(actor, "mika", invites, nil, nil, nil, nil)
	rec := performRequest(t, router, http.MethodPost, "/api/invites/deadbeef/accept", nil)

	require.Equal(t, http.StatusGone, rec.Code)
	invites.AssertExpectations(t)
}

func TestAcceptInviteAlreadyMemberDoesNotConsumeUse(t *testing.T) {
	actor := primitive.NewObjectID()
	group := groupWithMembers(member(actor, "mika", permissions.RoleMember))
	invite := models.Invite{
		ID:        primitive.NewObjectID(),
		Token:     "deadbeef",
		GroupID:   group.ID,
		ExpiresAt: time.Now().UTC().Add(time.Hour),
		MaxUses:   5,
	}

	invites := new(mocks.InviteRepositoryMock)
	invites.On("FindByToken", mock.Anything, "deadbeef").Return(invite, nil)

	groups := new(mocks.GroupRepositoryMock)
	groups.On("GetByID", mock.Anything, group.ID).Return(group, nil)

	router := newInviteRouter(actor, "mika", invites, nil, groups, nil, nil)
	rec := performRequest(t, router, http.MethodPost, "/api/invites/deadbeef/accept", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	invites.AssertNotCalled(t, "IncrementUses", mock.Anything, mock.Anything)
}

func TestAcceptInviteJoinsGroupAndDeletesExhaustedToken(t *testing.T) {
	actor := primitive.NewObjectID()
	group := groupWithMembers(member(primitive.NewObjectID(), "jonas", permissions.RoleOwner))
	invite := models.Invite{
		ID:        primitive.NewObjectID(),
		Token:     "deadbeef",
		GroupID:   group.ID,
		ExpiresAt: time.Now().UTC().Add(time.Hour),
		MaxUses:   1,
	}
	used := invite
	used.UsesCount = 1

	invites := new(mocks.InviteRepositoryMock)
	invites.On("FindByToken", mock.Anything, "deadbeef").Return(invite, nil)
	invites.On("IncrementUses", mock.Anything, invite.ID).Return(used, nil)
	invites.On("Delete", mock.Anything, invite.ID).Return(nil)

	groups := new(mocks.GroupRepositoryMock)
	groups.On("GetByID", mock.Anything, group.ID).Return(group, nil)
	groups.On("AddMember", mock.Anything, group.ID, mock.MatchedBy(func(m models.GroupMember) bool {
		return m.UserID == actor && m.Role == string(permissions.RoleMember)
	})).Return(nil)

	router := newInviteRouter(actor, "mika", invites, nil, groups, nil, nil)
	rec := performRequest(t, router, http.MethodPost, "/api/invites/deadbeef/accept", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	invites.AssertExpectations(t)
	groups.AssertExpectations(t)
}

func TestSendInviteDuplicatePendingConflict(t *testing.T) {
	actor := primitive.NewObjectID()
	recipient := models.User{ID: primitive.NewObjectID(), Username: "jonas"}
	group := groupWithMembers(member(actor, "mika", permissions.RoleAdmin))

	groups := new(mocks.GroupRepositoryMock)
	groups.On("GetByID", mock.Anything, group.ID).Return(group, nil)

	users := new(mocks.UserRepositoryMock)
	users.On("FindByUsername", mock.Anything, "jonas").Return(recipient, nil)

	invitations := new(mocks.InvitationRepositoryMock)
	invitations.On("HasPending", mock.Anything, group.ID, recipient.ID).Return(true, nil)

	router := newInviteRouter(actor, "mika", nil, invitations, groups, users, nil)
	rec := performRequest(t, router, http.MethodPost,
		"/api/groups/"+group.ID.Hex()+"/invitations", gin.H{"username": "jonas"})

	require.Equal(t, http.StatusConflict, rec.Code)
	invitations.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

// The unique index backstops the pre-check when two sends race.
func TestSendInviteDuplicateRaceConflict(t *testing.T) {
	actor := primitive.NewObjectID()
	recipient := models.User{ID: primitive.NewObjectID(), Username: "jonas"}
	group := groupWithMembers(member(actor, "mika", permissions.RoleAdmin))

	groups := new(mocks.GroupRepositoryMock)
	groups.On("GetByID", mock.Anything, group.ID).Return(group, nil)

	users := new(mocks.UserRepositoryMock)
	users.On("FindByUsername", mock.Anything, "jonas").Return(recipient, nil)

	invitations := new(mocks.InvitationRepositoryMock)
	invitations.On("HasPending", mock.Anything, group.ID, recipient.ID).Return(false, nil)
	invitations.On("Create", mock.Anything, mock.Anything).
		Return(models.GroupInvitation{}, repositories.ErrDuplicatePending)

	router := newInviteRouter(actor, "mika", nil, invitations, groups, users, nil)
	rec := performRequest(t, router, http.MethodPost,
		"/api/groups/"+group.ID.Hex()+"/invitations", gin.H{"username": "jonas"})

	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestSendInviteToExistingMemberConflict(t *testing.T) {
	actor := primitive.NewObjectID()
	recipient := models.User{ID: primitive.NewObjectID(), Username: "jonas"}
	group := groupWithMembers(
		member(actor, "mika", permissions.RoleAdmin),
		member(recipient.ID, "jonas", permissions.RoleMember),
	)

	groups := new(mocks.GroupRepositoryMock)
	groups.On("GetByID", mock.Anything, group.ID).Return(group, nil)

	users := new(mocks.UserRepositoryMock)
	users.On("FindByUsername", mock.Anything, "jonas").Return(recipient, nil)

	invitations := new(mocks.InvitationRepositoryMock)

	router := newInviteRouter(actor, "mika", nil, invitations, groups, users, nil)
	rec := performRequest(t, router, http.MethodPost,
		"/api/groups/"+group.ID.Hex()+"/invitations", gin.H{"username": "jonas"})

	require.Equal(t, http.StatusConflict, rec.Code)
	invitations.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRespondNonRecipientForbidden(t *testing.T) {
	actor := primitive.NewObjectID()
	invitation := models.GroupInvitation{
		ID:          primitive.NewObjectID(),
		RecipientID: primitive.NewObjectID(),
		GroupID:     primitive.NewObjectID(),
		Status:      models.InvitationPending,
	}

	invitations := new(mocks.InvitationRepositoryMock)
	invitations.On("GetByID", mock.Anything, invitation.ID).Return(invitation, nil)

	router := newInviteRouter(actor, "mika", nil, invitations, nil, nil, nil)
	rec := performRequest(t, router, http.MethodPost,
		"/api/invitations/"+invitation.ID.Hex(), gin.H{"action": "accept"})

	require.Equal(t, http.StatusForbidden, rec.Code)
	invitations.AssertNotCalled(t, "SetStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestRespondResolvedInvitationGone(t *testing.T) {
	actor := primitive.NewObjectID()
	invitation := models.GroupInvitation{
		ID:          primitive.NewObjectID(),
		RecipientID: actor,
		GroupID:     primitive.NewObjectID(),
		Status:      models.InvitationDeclined,
	}

	invitations := new(mocks.InvitationRepositoryMock)
	invitations.On("GetByID", mock.Anything, invitation.ID).Return(invitation, nil)

	router := newInviteRouter(actor, "mika", nil, invitations, nil, nil, nil)
	rec := performRequest(t, router, http.MethodPost,
		"/api/invitations/"+invitation.ID.Hex(), gin.H{"action": "accept"})

	require.Equal(t, http.StatusGone, rec.Code)
}

func TestGenerateInviteRequiresModerator(t *testing.T) {
	actor := primitive.NewObjectID()
	group := groupWithMembers(member(actor, "mika", permissions.RoleMember))

	groups := new(mocks.GroupRepositoryMock)
	groups.On("GetByID", mock.Anything, group.ID).Return(group, nil)

	invites := new(mocks.InviteRepositoryMock)

	router := newInviteRouter(actor, "mika", invites, nil, groups, nil, nil)
	rec := performRequest(t, router, http.MethodPost,
		"/api/groups/"+group.ID.Hex()+"/invites", nil)

	require.Equal(t, http.StatusForbidden, rec.Code)
	invites.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestLookupInviteReportsExpiry(t *testing.T) {
	group := groupWithMembers(member(primitive.NewObjectID(), "jonas", permissions.RoleOwner))
	inviter := models.User{ID: primitive.NewObjectID(), Username: "jonas"}
	invite := models.Invite{
		ID:        primitive.NewObjectID(),
		Token:     "deadbeef",
		GroupID:   group.ID,
		CreatedBy: inviter.ID,
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
		MaxUses:   1,
	}

	invites := new(mocks.InviteRepositoryMock)
	invites.On("FindByToken", mock.Anything, "deadbeef").Return(invite, nil)

	groups := new(mocks.GroupRepositoryMock)
	groups.On("GetByID", mock.Anything, group.ID).Return(group, nil)

	users := new(mocks.UserRepositoryMock)
	users.On("GetByID", mock.Anything, inviter.ID).Return(inviter, nil)

	router := newInviteRouter(primitive.NewObjectID(), "mika", invites, nil, groups, users, nil)
	rec := performRequest(t, router, http.MethodGet, "/api/invites/deadbeef", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"isExpired":true`)
	require.Contains(t, rec.Body.String(), `"inviterUsername":"jonas"`)
}
