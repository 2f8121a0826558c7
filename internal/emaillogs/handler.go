package emaillogs

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/speakerhub/backend/internal/middleware"
	"github.com/speakerhub/backend/internal/models"
	"github.com/speakerhub/backend/pkg/response"
)

// Lister reads the delivery log of an event.
type Lister interface {
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.EmailLog, error)
}

// Handler handles email log HTTP endpoints.
type Handler struct {
	logs Lister
}

// NewHandler creates an email logs handler.
func NewHandler(logs Lister) *Handler {
	return &Handler{logs: logs}
}

// ListByEvent handles GET /events/:id/emails. Only speakers may read delivery logs.
func (h *Handler) ListByEvent(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	if err := caller.Require(models.RoleSpeaker); err != nil {
		response.Error(c, err, "")
		return
	}
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	logs, err := h.logs.ListByEvent(c.Request.Context(), eventID)
	if err != nil {
		response.Error(c, err, "failed to load email logs")
		return
	}
	response.OK(c, logs)
}
