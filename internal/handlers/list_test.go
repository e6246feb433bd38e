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

func newListRouter(actor primitive.ObjectID, username string, lists *mocks.ListRepositoryMock, items *mocks.ItemRepositoryMock, groups *mocks.GroupRepositoryMock) *gin.Engine {
	handler := NewListHandler(lists, items, groups, nil, zap.NewNop())

	router := gin.New()
	router.Use(withActor(actor, username))
	router.POST("/api/lists", handler.Create)
	router.GET("/api/lists", handler.ListMine)
	router.GET("/api/lists/:list_id", handler.Get)
	router.PATCH("/api/lists/:list_id", handler.Update)
	router.DELETE("/api/lists/:list_id", handler.Delete)
	router.GET("/api/groups/:group_id/lists", handler.ListByGroup)
	return router
}

func TestListByGroupRequiresMembership(t *testing.T) {
	actor := primitive.NewObjectID()
	group := groupWithMembers(member(primitive.NewObjectID(), "jonas", permissions.RoleOwner))

	groups := new(mocks.GroupRepositoryMock)
	groups.On("GetByID", mock.Anything, group.ID).Return(group, nil)

	lists := new(mocks.ListRepositoryMock)

	router := newListRouter(actor, "mika", lists, nil, groups)
	rec := performRequest(t, router, http.MethodGet, "/api/groups/"+group.ID.Hex()+"/lists", nil)

	require.Equal(t, http.StatusForbidden, rec.Code)
	lists.AssertNotCalled(t, "ListByGroup", mock.Anything, mock.Anything)
}

func TestListByGroupIncludesItemCounts(t *testing.T) {
	actor := primitive.NewObjectID()
	group := groupWithMembers(member(actor, "mika", permissions.RoleMember))
	listID := primitive.NewObjectID()

	groups := new(mocks.GroupRepositoryMock)
	groups.On("GetByID", mock.Anything, group.ID).Return(group, nil)

	lists := new(mocks.ListRepositoryMock)
	lists.On("ListByGroup", mock.Anything, group.ID).
		Return([]models.ShoppingList{{ID: listID, Name: "Groceries"}}, nil)

	items := new(mocks.ItemRepositoryMock)
	items.On("CountActive", mock.Anything, listID).Return(int64(7), nil)

	router := newListRouter(actor, "mika", lists, items, groups)
	rec := performRequest(t, router, http.MethodGet, "/api/groups/"+group.ID.Hex()+"/lists", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"itemCount":7`)
}

func TestGetListAuthorAllowed(t *testing.T) {
	actor := primitive.NewObjectID()
	list := models.ShoppingList{ID: primitive.NewObjectID(), AuthorID: actor, Name: "Groceries"}

	lists := new(mocks.ListRepositoryMock)
	lists.On("GetByID", mock.Anything, list.ID).Return(list, nil)

	router := newListRouter(actor, "mika", lists, nil, nil)
	rec := performRequest(t, router, http.MethodGet, "/api/lists/"+list.ID.Hex(), nil)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestGetPersonalListStrangerForbidden(t *testing.T) {
	actor := primitive.NewObjectID()
	list := models.ShoppingList{ID: primitive.NewObjectID(), AuthorID: primitive.NewObjectID()}

	lists := new(mocks.ListRepositoryMock)
	lists.On("GetByID", mock.Anything, list.ID).Return(list, nil)

	router := newListRouter(actor, "mika", lists, nil, nil)
	rec := performRequest(t, router, http.MethodGet, "/api/lists/"+list.ID.Hex(), nil)

	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUpdateGroupListByMemberForbidden(t *testing.T) {
	actor := primitive.NewObjectID()
	author := primitive.NewObjectID()
	group := groupWithMembers(
		member(actor, "mika", permissions.RoleMember),
		member(author, "jonas", permissions.RoleMember),
	)
	groupID := group.ID
	list := models.ShoppingList{ID: primitive.NewObjectID(), AuthorID: author, GroupID: &groupID}

	lists := new(mocks.ListRepositoryMock)
	lists.On("GetByID", mock.Anything, list.ID).Return(list, nil)

	groups := new(mocks.GroupRepositoryMock)
	groups.On("GetByID", mock.Anything, groupID).Return(group, nil)

	router := newListRouter(actor, "mika", lists, nil, groups)
	rec := performRequest(t, router, http.MethodPatch, "/api/lists/"+list.ID.Hex(),
		gin.H{"name": "Renamed"})

	require.Equal(t, http.StatusForbidden, rec.Code)
	lists.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestDeleteListCascadesItems(t *testing.T) {
	actor := primitive.NewObjectID()
	list := models.ShoppingList{ID: primitive.NewObjectID(), AuthorID: actor, Name: "Groceries"}

	lists := new(mocks.ListRepositoryMock)
	lists.On("GetByID", mock.Anything, list.ID).Return(list, nil)
	lists.On("Delete", mock.Anything, list.ID).Return(nil)

	items := new(mocks.ItemRepositoryMock)
	items.On("DeleteByList", mock.Anything, list.ID).Return(int64(4), nil)

	router := newListRouter(actor, "mika", lists, items, nil)
	rec := performRequest(t, router, http.MethodDelete, "/api/lists/"+list.ID.Hex(), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	lists.AssertExpectations(t)
	items.AssertExpectations(t)
}
