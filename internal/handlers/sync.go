package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"docket-service/internal/models"
	"docket-service/internal/reconcile"
)

// SyncHandler serves the offline-first list upload endpoint.
type SyncHandler struct {
	reconciler *reconcile.Reconciler
	logger     *zap.Logger
}

func NewSyncHandler(reconciler *reconcile.Reconciler, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{reconciler: reconciler, logger: logger}
}

type syncListsRequest struct {
	Lists []models.ShoppingList `json:"lists"`
}

// SyncLists reconciles a batch of client lists against the canonical store
// and returns the canonical records. An empty batch is a no-op success.
func (h *SyncHandler) SyncLists(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		return
	}

	var req syncListsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	synced, err := h.reconciler.Reconcile(c.Request.Context(), userID, req.Lists)
	if err != nil {
		h.logger.Error("list sync failed",
			zap.String("request_id", requestIDFromContext(c)),
			zap.String("user_id", userID.Hex()), zap.Int("batch", len(req.Lists)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sync lists"})
		return
	}
	if synced == nil {
		synced = []models.ShoppingList{}
	}
	c.JSON(http.StatusOK, synced)
}
