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
	"docket-service/internal/reconcile"
	"docket-service/internal/repositories"
)

func newSyncRouter(actor primitive.ObjectID, lists repositories.ListRepository) *gin.Engine {
	handler := NewSyncHandler(reconcile.New(lists), zap.NewNop())

	router := gin.New()
	router.Use(withActor(actor, "mika"))
	router.POST("/api/sync/lists", handler.SyncLists)
	return router
}

// The response body is the bare canonical array, not an envelope.
func TestSyncListsEmptyBatch(t *testing.T) {
	router := newSyncRouter(primitive.NewObjectID(), new(mocks.ListRepositoryMock))
	rec := performRequest(t, router, http.MethodPost, "/api/sync/lists",
		gin.H{"lists": []models.ShoppingList{}})

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "[]", rec.Body.String())
}

func TestSyncListsCreatesUnknownClientID(t *testing.T) {
	actor := primitive.NewObjectID()

	lists := new(mocks.ListRepositoryMock)
	lists.On("FindByClientID", mock.Anything, "c-1").
		Return(models.ShoppingList{}, repositories.ErrListNotFound)
	lists.On("Create", mock.Anything, mock.MatchedBy(func(l models.ShoppingList) bool {
		return l.ClientID == "c-1" && l.AuthorID == actor && !l.IsDirty
	})).Return(models.ShoppingList{
		ID:       primitive.NewObjectID(),
		ClientID: "c-1",
		AuthorID: actor,
		Name:     "Groceries",
	}, nil)

	router := newSyncRouter(actor, lists)
	rec := performRequest(t, router, http.MethodPost, "/api/sync/lists", gin.H{
		"lists": []gin.H{{"clientId": "c-1", "name": "Groceries", "isDirty": true}},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	lists.AssertExpectations(t)
}

func TestSyncListsOverwritesExisting(t *testing.T) {
	actor := primitive.NewObjectID()
	existing := models.ShoppingList{
		ID:       primitive.NewObjectID(),
		ClientID: "c-1",
		AuthorID: actor,
		Name:     "Old Name",
	}

	lists := new(mocks.ListRepositoryMock)
	lists.On("FindByClientID", mock.Anything, "c-1").Return(existing, nil)
	lists.On("Replace", mock.Anything, mock.MatchedBy(func(l models.ShoppingList) bool {
		return l.ID == existing.ID && l.Name == "New Name" && !l.IsDirty
	})).Return(existing, nil)

	router := newSyncRouter(actor, lists)
	rec := performRequest(t, router, http.MethodPost, "/api/sync/lists", gin.H{
		"lists": []gin.H{{"clientId": "c-1", "name": "New Name", "isDirty": true}},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	lists.AssertExpectations(t)
}

func TestSyncListsRepositoryFailure(t *testing.T) {
	actor := primitive.NewObjectID()

	lists := new(mocks.ListRepositoryMock)
	lists.On("FindByClientID", mock.Anything, "c-1").
		Return(models.ShoppingList{}, errMockDB)

	router := newSyncRouter(actor, lists)
	rec := performRequest(t, router, http.MethodPost, "/api/sync/lists", gin.H{
		"lists": []gin.H{{"clientId": "c-1", "name": "Groceries"}},
	})

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
