package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"docket-service/internal/mocks"
	"docket-service/internal/models"
	"docket-service/internal/permissions"
)

func newGroupRouter(actor primitive.ObjectID, username string, groups *mocks.GroupRepositoryMock, lists *mocks.ListRepositoryMock, items *mocks.ItemRepositoryMock, notes *mocks.NoteRepositoryMock, comments *mocks.CommentRepositoryMock, polls *mocks.PollRepositoryMock, invites *mocks.InviteRepositoryMock) *gin.Engine {
	handler := NewGroupHandler(groups, lists, items, notes, comments, polls, invites, nil, zap.NewNop())

	router := gin.New()
	router.Use(withActor(actor, username))
	router.POST("/api/groups", handler.Create)
	router.GET("/api/groups/:group_id", handler.Get)
	router.DELETE("/api/groups/:group_id", handler.Delete)
	router.PATCH("/api/groups/:group_id/members/:user_id", handler.UpdateMemberRole)
	router.DELETE("/api/groups/:group_id/members/:user_id", handler.KickMember)
	router.POST("/api/groups/:group_id/leave", handler.Leave)
	return router
}

func TestDeleteGroupForbiddenForAdmin(t *testing.T) {
	actor := primitive.NewObjectID()
	group := groupWithMembers(member(actor, "mika", permissions.RoleAdmin))

	groups := new(mocks.GroupRepositoryMock)
	groups.On("GetByID", mock.Anything, group.ID).Return(group, nil)

	router := newGroupRouter(actor, "mika", groups, nil, nil, nil, nil, nil, nil)
	rec := performRequest(t, router, http.MethodDelete, "/api/groups/"+group.ID.Hex(), nil)

	require.Equal(t, http.StatusForbidden, rec.Code)
	groups.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestDeleteGroupCascades(t *testing.T) {
	actor := primitive.NewObjectID()
	group := groupWithMembers(member(actor, "mika", permissions.RoleOwner))
	listID := primitive.NewObjectID()
	noteID := primitive.NewObjectID()
	pollID := primitive.NewObjectID()

	groups := new(mocks.GroupRepositoryMock)
	groups.On("GetByID", mock.Anything, group.ID).Return(group, nil)
	groups.On("Delete", mock.Anything, group.ID).Return(nil)

	lists := new(mocks.ListRepositoryMock)
	lists.On("ListByGroup", mock.Anything, group.ID).
		Return([]models.ShoppingList{{ID: listID}}, nil)
	lists.On("Delete", mock.Anything, listID).Return(nil)

	items := new(mocks.ItemRepositoryMock)
	items.On("DeleteByList", mock.Anything, listID).Return(int64(3), nil)

	notes := new(mocks.NoteRepositoryMock)
	notes.On("ListByGroup", mock.Anything, group.ID).
		Return([]models.Note{{ID: noteID}}, nil)
	notes.On("Delete", mock.Anything, noteID).Return(nil)

	comments := new(mocks.CommentRepositoryMock)
	comments.On("DeleteByNote", mock.Anything, noteID).Return(int64(2), nil)

	polls := new(mocks.PollRepositoryMock)
	polls.On("ListByGroup", mock.Anything, group.ID).
		Return([]models.Poll{{ID: pollID}}, nil)
	polls.On("Delete", mock.Anything, pollID).Return(nil)

	invites := new(mocks.InviteRepositoryMock)
	invites.On("DeleteByGroup", mock.Anything, group.ID).Return(int64(1), nil)

	router := newGroupRouter(actor, "mika", groups, lists, items, notes, comments, polls, invites)
	rec := performRequest(t, router, http.MethodDelete, "/api/groups/"+group.ID.Hex(), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	groups.AssertExpectations(t)
	lists.AssertExpectations(t)
	items.AssertExpectations(t)
	notes.AssertExpectations(t)
	comments.AssertExpectations(t)
	polls.AssertExpectations(t)
	invites.AssertExpectations(t)
}

func TestKickMemberEqualRankForbidden(t *testing.T) {
	actor := primitive.NewObjectID()
	target := primitive.NewObjectID()
	group := groupWithMembers(
		member(actor, "mika", permissions.RoleAdmin),
		member(target, "jonas", permissions.RoleAdmin),
	)

	groups := new(mocks.GroupRepositoryMock)
	groups.On("GetByID", mock.Anything, group.ID).Return(group, nil)

	router := newGroupRouter(actor, "mika", groups, nil, nil, nil, nil, nil, nil)
	rec := performRequest(t, router, http.MethodDelete,
		"/api/groups/"+group.ID.Hex()+"/members/"+target.Hex(), nil)

	require.Equal(t, http.StatusForbidden, rec.Code)
	groups.AssertNotCalled(t, "RemoveMember", mock.Anything, mock.Anything, mock.Anything)
}

func TestKickMemberByOwner(t *testing.T) {
	actor := primitive.NewObjectID()
	target := primitive.NewObjectID()
	group := groupWithMembers(
		member(actor, "mika", permissions.RoleOwner),
		member(target, "jonas", permissions.RoleAdmin),
	)

	groups := new(mocks.GroupRepositoryMock)
	groups.On("GetByID", mock.Anything, group.ID).Return(group, nil)
	groups.On("RemoveMember", mock.Anything, group.ID, target).Return(nil)

	router := newGroupRouter(actor, "mika", groups, nil, nil, nil, nil, nil, nil)
	rec := performRequest(t, router, http.MethodDelete,
		"/api/groups/"+group.ID.Hex()+"/members/"+target.Hex(), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	groups.AssertExpectations(t)
}

func TestUpdateMemberRoleRejectsOwner(t *testing.T) {
	actor := primitive.NewObjectID()
	target := primitive.NewObjectID()
	group := groupWithMembers(
		member(actor, "mika", permissions.RoleOwner),
		member(target, "jonas", permissions.RoleMember),
	)

	groups := new(mocks.GroupRepositoryMock)
	groups.On("GetByID", mock.Anything, group.ID).Return(group, nil)

	router := newGroupRouter(actor, "mika", groups, nil, nil, nil, nil, nil, nil)
	rec := performRequest(t, router, http.MethodPatch,
		"/api/groups/"+group.ID.Hex()+"/members/"+target.Hex(),
		gin.H{"role": "owner"})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	groups.AssertNotCalled(t, "SetMemberRole", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateMemberRoleByAdmin(t *testing.T) {
	actor := primitive.NewObjectID()
	target := primitive.NewObjectID()
	group := groupWithMembers(
		member(actor, "mika", permissions.RoleAdmin),
		member(target, "jonas", permissions.RoleMember),
	)

	groups := new(mocks.GroupRepositoryMock)
	groups.On("GetByID", mock.Anything, group.ID).Return(group, nil)
	groups.On("SetMemberRole", mock.Anything, group.ID, target, "moderator").Return(nil)

	router := newGroupRouter(actor, "mika", groups, nil, nil, nil, nil, nil, nil)
	rec := performRequest(t, router, http.MethodPatch,
		"/api/groups/"+group.ID.Hex()+"/members/"+target.Hex(),
		gin.H{"role": "moderator"})

	require.Equal(t, http.StatusOK, rec.Code)
	groups.AssertExpectations(t)
}

func TestLeaveGroupOwnerConflict(t *testing.T) {
	actor := primitive.NewObjectID()
	group := groupWithMembers(member(actor, "mika", permissions.RoleOwner))

	groups := new(mocks.GroupRepositoryMock)
	groups.On("GetByID", mock.Anything, group.ID).Return(group, nil)

	router := newGroupRouter(actor, "mika", groups, nil, nil, nil, nil, nil, nil)
	rec := performRequest(t, router, http.MethodPost,
		"/api/groups/"+group.ID.Hex()+"/leave", nil)

	require.Equal(t, http.StatusConflict, rec.Code)
	groups.AssertNotCalled(t, "RemoveMember", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetGroupNonMemberForbidden(t *testing.T) {
	actor := primitive.NewObjectID()
	group := groupWithMembers(member(primitive.NewObjectID(), "jonas", permissions.RoleOwner))

	groups := new(mocks.GroupRepositoryMock)
	groups.On("GetByID", mock.Anything, group.ID).Return(group, nil)

	router := newGroupRouter(actor, "mika", groups, nil, nil, nil, nil, nil, nil)
	rec := performRequest(t, router, http.MethodGet, "/api/groups/"+group.ID.Hex(), nil)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateGroupSetsOwnerMembership(t *testing.T) {
	actor := primitive.NewObjectID()

	groups := new(mocks.GroupRepositoryMock)
	groups.On("Create", mock.Anything, mock.MatchedBy(func(g models.Group) bool {
		return g.Name == "Trip" && len(g.Members) == 1 &&
			g.Members[0].UserID == actor &&
			g.Members[0].Role == string(permissions.RoleOwner)
	})).Return(models.Group{ID: primitive.NewObjectID(), Name: "Trip"}, nil)

	router := newGroupRouter(actor, "mika", groups, nil, nil, nil, nil, nil, nil)
	rec := performRequest(t, router, http.MethodPost, "/api/groups", gin.H{"name": "Trip"})

	require.Equal(t, http.StatusCreated, rec.Code)
	groups.AssertExpectations(t)
}
