package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"docket-service/internal/middleware"
	"docket-service/internal/models"
	"docket-service/internal/permissions"
)

const requestIDContextKey = "request_id"

// RequestIDMiddleware ensures every request carries an id, propagating the
// upstream X-Request-ID when present.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDContextKey, requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)
		c.Next()
	}
}

func requestIDFromContext(c *gin.Context) string {
	if val, ok := c.Get(requestIDContextKey); ok {
		if id, ok := val.(string); ok {
			return id
		}
	}
	return ""
}

// actorID returns the authenticated user's id. It aborts with 401 when the
// context carries no parseable id, which only happens if the auth
// middleware was skipped.
func actorID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.GetString(middleware.ContextUserID))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid session"})
		return primitive.NilObjectID, false
	}
	return id, true
}

func actorUsername(c *gin.Context) string {
	return c.GetString(middleware.ContextUsername)
}

// pathID parses an ObjectID path parameter, responding 400 on garbage.
func pathID(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return primitive.NilObjectID, false
	}
	return id, true
}

// membershipOf adapts a group's embedded member entry to the evaluator's
// record. Returns nil when the user is not a member.
func membershipOf(group *models.Group, userID primitive.ObjectID) *permissions.Membership {
	member := group.Member(userID)
	if member == nil {
		return nil
	}
	return &permissions.Membership{
		UserID:   member.UserID.Hex(),
		Role:     permissions.Role(member.Role),
		JoinedAt: member.JoinedAt,
	}
}
