package handler

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "trade-journal-linker/pkg/errors"
	"trade-journal-linker/pkg/logger"
)

// OwnerHeader carries the id of the user the request acts for. Authenticating
// that id is the gateway's concern.
const OwnerHeader = "X-User-ID"

const ownerKey = "owner_id"

// RequireOwner rejects requests without an owner header
func RequireOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		owner := strings.TrimSpace(c.GetHeader(OwnerHeader))
		if owner == "" {
			Fail(c, apperrors.InputError(apperrors.CodeMissingOwner, OwnerHeader, nil))
			c.Abort()
			return
		}
		c.Set(ownerKey, owner)
		c.Next()
	}
}

func ownerID(c *gin.Context) string {
	return c.GetString(ownerKey)
}

// RequestLogger logs one line per request with its status and latency
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	log = log.WithComponent("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logger.Fields{
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
		}
		if owner := ownerID(c); owner != "" {
			fields["owner_id"] = owner
		}
		entry := log.WithFields(fields)
		switch {
		case len(c.Errors) > 0 && c.Writer.Status() >= 500:
			entry.WithError(c.Errors.Last().Err).Error("Request failed")
		case c.Writer.Status() >= 400:
			entry.Warn("Request rejected")
		default:
			entry.Debug("Request served")
		}
	}
}
