package events

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/speakerhub/backend/internal/middleware"
	"github.com/speakerhub/backend/internal/models"
	"github.com/speakerhub/backend/pkg/response"
)

// CreateRequest is the body for POST /api/events.
// Invited speakers may be sent as speaker_ids or speakers; speaker_ids wins when both are present.
type CreateRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	DateTime    string   `json:"date_time"`
	MeetingLink string   `json:"meeting_link"`
	SpeakerIDs  []string `json:"speaker_ids"`
	Speakers    []string `json:"speakers"`
	RSVPState   string   `json:"rsvp_state"`
}

// UpdateRequest is the body for PUT /api/events/:id. Absent fields are left unchanged.
type UpdateRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	DateTime    *string  `json:"date_time"`
	MeetingLink *string  `json:"meeting_link"`
	SpeakerIDs  []string `json:"speaker_ids"`
	RSVPState   *string  `json:"rsvp_state"`
}

// Handler handles event HTTP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates an event handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the event routes on an authenticated group.
func (h *Handler) Register(api *gin.RouterGroup) {
	api.POST("/events", h.Create)
	api.GET("/events", h.List)
	api.GET("/events/:id", h.Get)
	api.PUT("/events/:id", h.Update)
	api.DELETE("/events/:id", h.Delete)
}

// Create handles POST /api/events (speakers only).
func (h *Handler) Create(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	in := CreateInput{
		Title:       req.Title,
		Description: req.Description,
		MeetingLink: req.MeetingLink,
		RSVPState:   models.RSVPState(req.RSVPState),
	}
	if req.DateTime != "" {
		t, err := time.Parse(time.RFC3339, req.DateTime)
		if err != nil {
			response.BadRequest(c, "invalid date_time")
			return
		}
		in.DateTime = t
	}
	invited := req.SpeakerIDs
	if invited == nil {
		invited = req.Speakers
	}
	ids, err := parseIDs(invited)
	if err != nil {
		response.BadRequest(c, "invalid speaker id")
		return
	}
	in.SpeakerIDs = ids

	e, err := h.svc.Create(c.Request.Context(), caller, in)
	if err != nil {
		response.Error(c, err, "failed to create event")
		return
	}
	response.Created(c, e)
}

// List handles GET /api/events.
func (h *Handler) List(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	list, err := h.svc.List(c.Request.Context(), caller)
	if err != nil {
		response.Error(c, err, "failed to list events")
		return
	}
	response.OK(c, list)
}

// Get handles GET /api/events/:id.
func (h *Handler) Get(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	e, err := h.svc.Get(c.Request.Context(), caller, id)
	if err != nil {
		response.Error(c, err, "failed to fetch event")
		return
	}
	response.OK(c, e)
}

// Update handles PUT /api/events/:id.
func (h *Handler) Update(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	upd := UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		MeetingLink: req.MeetingLink,
	}
	if req.DateTime != nil {
		t, err := time.Parse(time.RFC3339, *req.DateTime)
		if err != nil {
			response.BadRequest(c, "invalid date_time")
			return
		}
		upd.DateTime = &t
	}
	if req.RSVPState != nil {
		state := models.RSVPState(*req.RSVPState)
		upd.RSVPState = &state
	}
	if req.SpeakerIDs != nil {
		if upd.SpeakerIDs, err = parseIDs(req.SpeakerIDs); err != nil {
			response.BadRequest(c, "invalid speaker id")
			return
		}
	}

	e, err := h.svc.Update(c.Request.Context(), caller, id, upd)
	if err != nil {
		response.Error(c, err, "failed to update event")
		return
	}
	response.OK(c, e)
}

// Delete handles DELETE /api/events/:id.
func (h *Handler) Delete(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	if err := h.svc.Delete(c.Request.Context(), caller, id); err != nil {
		response.Error(c, err, "failed to delete event")
		return
	}
	response.OK(c, gin.H{"message": "event deleted"})
}

// parseIDs keeps a non-nil empty input non-nil so the service can reject it.
func parseIDs(raw []string) ([]uuid.UUID, error) {
	if raw == nil {
		return nil, nil
	}
	out := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
