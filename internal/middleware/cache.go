package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable/pkg/response"
)

const (
	cacheHitKey       = "cache_hit"
	processingTimeKey = "processing_time_ms"
)

const startedAtKey = "response_started_at"

// WithResponseMeta initialises response metadata storage for the request.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(response.MetaKey, map[string]interface{}{})
		c.Set(startedAtKey, time.Now())
		c.Next()
	}
}

// SetCacheHit records cache hit information for the current response, together with the
// elapsed processing time so far.
func SetCacheHit(c *gin.Context, hit bool) {
	response.SetMeta(c, cacheHitKey, hit)
	if started, ok := c.Get(startedAtKey); ok {
		if at, ok := started.(time.Time); ok {
			response.SetMeta(c, processingTimeKey, time.Since(at).Milliseconds())
		}
	}
}

// ExtractMeta returns the metadata map stored on the context.
func ExtractMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	if meta, exists := c.Get(response.MetaKey); exists {
		if typed, ok := meta.(map[string]interface{}); ok {
			return typed
		}
	}
	return nil
}
