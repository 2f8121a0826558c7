package chat

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/speakerhub/backend/internal/middleware"
	"github.com/speakerhub/backend/pkg/response"
)

const (
	defaultHistory = 100
	maxHistory     = 500
)

// Handler serves chat history.
type Handler struct {
	svc *Service
}

// NewHandler creates a chat history handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// History handles GET /api/events/:id/messages?limit=N.
func (h *Handler) History(c *gin.Context) {
	if _, ok := middleware.MustCaller(c); !ok {
		return
	}
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	limit := defaultHistory
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			response.BadRequest(c, "limit must be a positive integer")
			return
		}
		limit = min(n, maxHistory)
	}
	list, err := h.svc.History(c.Request.Context(), eventID, limit)
	if err != nil {
		response.Error(c, err, "failed to fetch messages")
		return
	}
	response.OK(c, list)
}
