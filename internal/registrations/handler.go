package registrations

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/speakerhub/backend/internal/middleware"
	"github.com/speakerhub/backend/internal/models"
	"github.com/speakerhub/backend/pkg/response"
)

// RegisterRequest is the body for POST /api/registrations.
type RegisterRequest struct {
	EventID     string `json:"event_id"`
	Name        string `json:"name"`
	Email       string `json:"email" binding:"omitempty,email"`
	ContactInfo string `json:"contact_info"`
}

// UpdateRequest is the body for PUT /api/registrations/:id.
type UpdateRequest struct {
	Name        *string `json:"name"`
	Email       *string `json:"email" binding:"omitempty,email"`
	ContactInfo *string `json:"contact_info"`
}

// Handler handles registration HTTP endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a registrations handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterPublic mounts the unauthenticated registration route.
func (h *Handler) RegisterPublic(api *gin.RouterGroup) {
	api.POST("/registrations", h.Register)
}

// RegisterAuthed mounts the routes that need a caller identity.
func (h *Handler) RegisterAuthed(api *gin.RouterGroup) {
	api.GET("/events/:id/attendees", h.ListAttendees)
	api.GET("/registrations/:id", h.Get)
	api.PUT("/registrations/:id", h.Update)
	api.DELETE("/registrations/:id", h.Delete)
}

// Register handles POST /api/registrations. No token required.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	in := RegisterInput{Name: req.Name, Email: req.Email, ContactInfo: req.ContactInfo}
	if req.EventID != "" {
		id, err := uuid.Parse(req.EventID)
		if err != nil {
			response.BadRequest(c, "invalid event_id")
			return
		}
		in.EventID = id
	}
	reg, err := h.svc.Register(c.Request.Context(), in)
	if err != nil {
		response.Error(c, err, "failed to register attendee")
		return
	}
	response.Created(c, reg)
}

// ListAttendees handles GET /api/events/:id/attendees.
func (h *Handler) ListAttendees(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid event id")
		return
	}
	list, err := h.svc.ListAttendees(c.Request.Context(), caller, eventID)
	if err != nil {
		response.Error(c, err, "failed to fetch attendees")
		return
	}
	response.OK(c, list)
}

// Get handles GET /api/registrations/:id.
func (h *Handler) Get(c *gin.Context) {
	caller, id, ok := h.target(c)
	if !ok {
		return
	}
	reg, err := h.svc.Get(c.Request.Context(), caller, id)
	if err != nil {
		response.Error(c, err, "failed to fetch registration")
		return
	}
	response.OK(c, reg)
}

// Update handles PUT /api/registrations/:id.
func (h *Handler) Update(c *gin.Context) {
	caller, id, ok := h.target(c)
	if !ok {
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	reg, err := h.svc.Update(c.Request.Context(), caller, id, models.RegistrationUpdate{
		Name:        req.Name,
		Email:       req.Email,
		ContactInfo: req.ContactInfo,
	})
	if err != nil {
		response.Error(c, err, "failed to update registration")
		return
	}
	response.OK(c, reg)
}

// Delete handles DELETE /api/registrations/:id.
func (h *Handler) Delete(c *gin.Context) {
	caller, id, ok := h.target(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), caller, id); err != nil {
		response.Error(c, err, "failed to delete registration")
		return
	}
	response.OK(c, gin.H{"message": "registration deleted"})
}

func (h *Handler) target(c *gin.Context) (models.Identity, uuid.UUID, bool) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return caller, uuid.Nil, false
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid registration id")
		return caller, uuid.Nil, false
	}
	return caller, id, true
}
