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
)

func newItemRouter(actor primitive.ObjectID, items *mocks.ItemRepositoryMock, lists *mocks.ListRepositoryMock, groups *mocks.GroupRepositoryMock) *gin.Engine {
	handler := NewItemHandler(items, lists, groups, nil, zap.NewNop())

	router := gin.New()
	router.Use(withActor(actor, "mika"))
	router.POST("/api/lists/:list_id/items", handler.Create)
	router.GET("/api/lists/:list_id/items", handler.List)
	router.PATCH("/api/items/:item_id", handler.Update)
	router.DELETE("/api/items/:item_id", handler.Delete)
	return router
}

func TestListItemsRejectsBadSince(t *testing.T) {
	actor := primitive.NewObjectID()
	list := models.ShoppingList{ID: primitive.NewObjectID(), AuthorID: actor}

	lists := new(mocks.ListRepositoryMock)
	lists.On("GetByID", mock.Anything, list.ID).Return(list, nil)

	items := new(mocks.ItemRepositoryMock)

	router := newItemRouter(actor, items, lists, nil)
	rec := performRequest(t, router, http.MethodGet,
		"/api/lists/"+list.ID.Hex()+"/items?since=yesterday", nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	items.AssertNotCalled(t, "ListByList", mock.Anything, mock.Anything, mock.Anything)
}

func TestListItemsForwardsSince(t *testing.T) {
	actor := primitive.NewObjectID()
	list := models.ShoppingList{ID: primitive.NewObjectID(), AuthorID: actor}
	since := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	lists := new(mocks.ListRepositoryMock)
	lists.On("GetByID", mock.Anything, list.ID).Return(list, nil)

	items := new(mocks.ItemRepositoryMock)
	items.On("ListByList", mock.Anything, list.ID, mock.MatchedBy(func(got *time.Time) bool {
		return got != nil && got.Equal(since)
	})).Return([]models.ShoppingListItem{}, nil)

	router := newItemRouter(actor, items, lists, nil)
	rec := performRequest(t, router, http.MethodGet,
		"/api/lists/"+list.ID.Hex()+"/items?since="+since.Format(time.RFC3339), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	items.AssertExpectations(t)
}

func TestUpdateItemByListAuthor(t *testing.T) {
	actor := primitive.NewObjectID()
	itemAuthor := primitive.NewObjectID()
	list := models.ShoppingList{ID: primitive.NewObjectID(), AuthorID: actor}
	item := models.ShoppingListItem{ID: primitive.NewObjectID(), ListID: list.ID, AuthorID: itemAuthor, Name: "Milk"}

	items := new(mocks.ItemRepositoryMock)
	items.On("GetByID", mock.Anything, item.ID).Return(item, nil)
	items.On("Update", mock.Anything, item.ID, mock.Anything).Return(item, nil)

	lists := new(mocks.ListRepositoryMock)
	lists.On("GetByID", mock.Anything, list.ID).Return(list, nil)

	router := newItemRouter(actor, items, lists, nil)
	rec := performRequest(t, router, http.MethodPatch, "/api/items/"+item.ID.Hex(),
		gin.H{"isChecked": true})

	require.Equal(t, http.StatusOK, rec.Code)
	items.AssertExpectations(t)
}

func TestDeleteItemByStrangerForbidden(t *testing.T) {
	actor := primitive.NewObjectID()
	list := models.ShoppingList{ID: primitive.NewObjectID(), AuthorID: primitive.NewObjectID()}
	item := models.ShoppingListItem{ID: primitive.NewObjectID(), ListID: list.ID, AuthorID: primitive.NewObjectID()}

	items := new(mocks.ItemRepositoryMock)
	items.On("GetByID", mock.Anything, item.ID).Return(item, nil)

	lists := new(mocks.ListRepositoryMock)
	lists.On("GetByID", mock.Anything, list.ID).Return(list, nil)

	router := newItemRouter(actor, items, lists, nil)
	rec := performRequest(t, router, http.MethodDelete, "/api/items/"+item.ID.Hex(), nil)

	require.Equal(t, http.StatusForbidden, rec.Code)
	items.AssertNotCalled(t, "SoftDelete", mock.Anything, mock.Anything)
}
