package response

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable/internal/models"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
)

// Envelope represents the common response contract.
type Envelope struct {
	Data       interface{}            `json:"data,omitempty"`
	Error      *appErrors.Error       `json:"error,omitempty"`
	Pagination *models.Pagination     `json:"pagination,omitempty"`
	Meta       map[string]interface{} `json:"meta,omitempty"`
}

// MetaKey is the gin context key under which handlers stash response metadata.
const MetaKey = "response_meta"

// JSON sends a success response with optional pagination metadata.
func JSON(c *gin.Context, status int, data interface{}, pagination *models.Pagination, meta ...map[string]interface{}) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	envelope := Envelope{Data: data, Pagination: pagination, Meta: collectMeta(c, meta)}
	c.JSON(status, envelope)
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data, nil)
}

// Error sends an error response converting the error to the common structure.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	_ = c.Error(err)
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(appErr.Status, Envelope{Error: appErr})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Attachment streams a downloadable file.
func Attachment(c *gin.Context, filename, contentType string, content []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, contentType, content)
}

// SetMeta records a metadata key to be merged into the next JSON envelope.
func SetMeta(c *gin.Context, key string, value interface{}) {
	meta, _ := c.Get(MetaKey)
	m, ok := meta.(map[string]interface{})
	if !ok {
		m = make(map[string]interface{})
	}
	m[key] = value
	c.Set(MetaKey, m)
}

func collectMeta(c *gin.Context, explicit []map[string]interface{}) map[string]interface{} {
	var out map[string]interface{}
	if stored, ok := c.Get(MetaKey); ok {
		if m, ok := stored.(map[string]interface{}); ok && len(m) > 0 {
			out = make(map[string]interface{}, len(m))
			for k, v := range m {
				out[k] = v
			}
		}
	}
	for _, m := range explicit {
		for k, v := range m {
			if out == nil {
				out = make(map[string]interface{})
			}
			out[k] = v
		}
	}
	return out
}
