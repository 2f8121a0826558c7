package rsvps

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/speakerhub/backend/internal/middleware"
	"github.com/speakerhub/backend/internal/models"
	"github.com/speakerhub/backend/pkg/response"
)

// SubmitRequest is the body for POST /api/events/:id/rsvp.
type SubmitRequest struct {
	Status string `json:"status"`
}

// Handler handles RSVP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates an RSVP handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the RSVP routes on an authenticated group.
func (h *Handler) Register(api *gin.RouterGroup) {
	api.POST("/events/:id/rsvp", h.Submit)
	api.GET("/events/:id/rsvps", h.List)
}

// Submit handles POST /api/events/:id/rsvp.
func (h *Handler) Submit(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	v, err := h.svc.Submit(c.Request.Context(), caller, eventID, models.RSVPStatus(req.Status))
	if err != nil {
		response.Error(c, err, "failed to submit rsvp")
		return
	}
	response.OK(c, v)
}

// List handles GET /api/events/:id/rsvps.
func (h *Handler) List(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	list, err := h.svc.ListForEvent(c.Request.Context(), caller, eventID)
	if err != nil {
		response.Error(c, err, "failed to fetch rsvps")
		return
	}
	response.OK(c, list)
}
