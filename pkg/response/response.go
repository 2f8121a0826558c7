package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/speakerhub/backend/internal/models"
)

// Body is the standard API response envelope.
type Body struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// OK sends a 200 JSON response with data.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Body{Success: true, Data: data})
}

// Created sends a 201 JSON response with data.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Body{Success: true, Data: data})
}

// NoContent sends 204.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// BadRequest sends 400 with error message.
func BadRequest(c *gin.Context, err string) {
	c.JSON(http.StatusBadRequest, Body{Success: false, Error: err})
}

// Unauthorized sends 401.
func Unauthorized(c *gin.Context, err string) {
	c.JSON(http.StatusUnauthorized, Body{Success: false, Error: err})
}

// Forbidden sends 403.
func Forbidden(c *gin.Context, err string) {
	c.JSON(http.StatusForbidden, Body{Success: false, Error: err})
}

// NotFound sends 404.
func NotFound(c *gin.Context, err string) {
	c.JSON(http.StatusNotFound, Body{Success: false, Error: err})
}

// Conflict sends 409.
func Conflict(c *gin.Context, err string) {
	c.JSON(http.StatusConflict, Body{Success: false, Error: err})
}

// ServiceUnavailable sends 503.
func ServiceUnavailable(c *gin.Context, err string) {
	c.JSON(http.StatusServiceUnavailable, Body{Success: false, Error: err})
}

// Internal sends 500.
func Internal(c *gin.Context, err string) {
	c.JSON(http.StatusInternalServerError, Body{Success: false, Error: err})
}

// Error maps a service error onto the status taxonomy. Unknown errors are attached to the
// gin context for the request logger and answered with fallback as a generic 500.
func Error(c *gin.Context, err error, fallback string) {
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		BadRequest(c, verr.Msg)
	case errors.Is(err, models.ErrForbidden):
		Forbidden(c, err.Error())
	case errors.Is(err, models.ErrNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, models.ErrConflict):
		Conflict(c, conflictMessage(err))
	default:
		_ = c.Error(err)
		Internal(c, fallback)
	}
}

// conflictMessage strips the generic "conflict: " prefix from sentinel conflicts.
func conflictMessage(err error) string {
	for _, known := range []error{models.ErrAlreadyRegistered, models.ErrEmailTaken, models.ErrRSVPClosed} {
		if errors.Is(err, known) {
			msg := known.Error()
			return msg[len(models.ErrConflict.Error())+2:]
		}
	}
	return err.Error()
}
