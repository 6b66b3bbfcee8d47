package middleware

import (
	"time"

	"fleetops/internal/utils"
	"fleetops/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CORSMiddleware configures CORS headers
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID, X-Org-ID, X-Actor-ID")
		c.Header("Access-Control-Expose-Headers", "Content-Length")
		c.Header("Access-Control-Allow-Credentials", "true")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// RequestIDMiddleware adds a request ID to each request
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// OrgContextMiddleware resolves the tenant. Every trip route is scoped to
// the organization in X-Org-ID; requests without one are rejected before
// they reach a handler. X-Actor-ID identifies the editing user for the
// audit trail and may be absent.
func OrgContextMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, err := primitive.ObjectIDFromHex(c.GetHeader("X-Org-ID"))
		if err != nil {
			utils.BadRequestResponse(c, "X-Org-ID header is required and must be a valid ID")
			c.Abort()
			return
		}
		c.Set("org_id", orgID)

		if actor := c.GetHeader("X-Actor-ID"); actor != "" {
			if actorID, err := primitive.ObjectIDFromHex(actor); err == nil {
				c.Set("actor_id", actorID)
			}
		}

		c.Next()
	}
}

// LoggingMiddleware logs one structured line per request
func LoggingMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		var orgID *primitive.ObjectID
		if v, exists := c.Get("org_id"); exists {
			if id, ok := v.(primitive.ObjectID); ok {
				orgID = &id
			}
		}

		log.LogAPIRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start), orgID)
	}
}
