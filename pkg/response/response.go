// Package response defines the JSON envelope every endpoint replies with.
// Success payloads sit under data, failures under error, and request metadata
// such as timing and cache hits under meta.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/edupulse/feedback-api/pkg/errors"
)

// Envelope is the body shape shared by all endpoints.
type Envelope struct {
	Data  interface{}            `json:"data,omitempty"`
	Error *appErrors.Error       `json:"error,omitempty"`
	Meta  map[string]interface{} `json:"meta,omitempty"`
}

// JSON writes a success envelope. A single optional meta map is attached
// when provided.
func JSON(c *gin.Context, status int, data interface{}, meta ...map[string]interface{}) {
	envelope := Envelope{Data: data}
	if len(meta) > 0 && meta[0] != nil {
		envelope.Meta = meta[0]
	}
	noStore(c)
	c.JSON(status, envelope)
}

// Error maps err onto the envelope using its embedded status code. Unknown
// error values become a generic 500.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	noStore(c)
	c.JSON(appErr.Status, Envelope{Error: appErr})
}

// NoContent writes an empty 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Reports carry per-user data, so intermediaries must never cache them.
func noStore(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
}
