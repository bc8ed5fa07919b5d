package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable/internal/validation"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
)

// bindBody decodes a JSON object body, runs it through schema and decodes the coerced values into dest.
// An empty body is evaluated as an empty object so required-field errors are reported per field.
func bindBody(c *gin.Context, schema validation.Schema, dest interface{}) error {
	raw := map[string]interface{}{}
	if err := c.ShouldBindJSON(&raw); err != nil && !errors.Is(err, io.EOF) {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload")
	}
	return evaluate(schema, raw, dest)
}

// bindQuery evaluates the query string plus any path parameters against schema.
func bindQuery(c *gin.Context, schema validation.Schema, dest interface{}, params map[string]interface{}) error {
	raw := validation.FromValues(c.Request.URL.Query())
	for key, value := range params {
		raw[key] = value
	}
	return evaluate(schema, raw, dest)
}

func evaluate(schema validation.Schema, raw map[string]interface{}, dest interface{}) error {
	return schema.Evaluate(raw).Decode(dest)
}
