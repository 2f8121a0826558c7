package dashboard

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/speakerhub/backend/internal/middleware"
	"github.com/speakerhub/backend/pkg/response"
)

// Source produces the dashboard summary.
type Source interface {
	Summary(ctx context.Context) (*Summary, error)
}

// Handler serves the dashboard.
type Handler struct {
	src Source
}

// NewHandler creates a dashboard handler.
func NewHandler(src Source) *Handler {
	return &Handler{src: src}
}

// Summary handles GET /api/dashboard/summary.
func (h *Handler) Summary(c *gin.Context) {
	if _, ok := middleware.MustCaller(c); !ok {
		return
	}
	s, err := h.src.Summary(c.Request.Context())
	if err != nil {
		response.Error(c, err, "failed to fetch dashboard data")
		return
	}
	response.OK(c, s)
}
