package speakers

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/speakerhub/backend/internal/auth"
	"github.com/speakerhub/backend/internal/middleware"
	"github.com/speakerhub/backend/internal/models"
	"github.com/speakerhub/backend/pkg/response"
	"github.com/speakerhub/backend/pkg/storage"
	"github.com/speakerhub/backend/pkg/utils"
)

// Directory is the user lookup the profile endpoints need.
type Directory interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	ListByRole(ctx context.Context, role models.Role) ([]models.UserPublic, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, p auth.ProfileUpdate) (*models.User, error)
}

// PhotoStore keeps uploaded profile photos.
type PhotoStore interface {
	UploadPhoto(ctx context.Context, key, contentType string, body io.Reader, contentLength int64) (string, error)
	DeletePhoto(ctx context.Context, key string) error
}

// ProfileRequest is the JSON body for PUT /api/speakers/me. Absent fields are left unchanged.
type ProfileRequest struct {
	Name        *string `json:"name"`
	Email       *string `json:"email" binding:"omitempty,email"`
	Bio         *string `json:"bio"`
	ContactInfo *string `json:"contact_info"`
	PhotoURL    *string `json:"photo_url"`
}

// Handler serves the speaker directory and the caller's own profile.
type Handler struct {
	users  Directory
	photos PhotoStore
	logger *zap.Logger
}

// NewHandler creates a speakers handler. photos may be nil when object storage is not configured.
func NewHandler(users Directory, photos PhotoStore, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{users: users, photos: photos, logger: logger}
}

// List handles GET /api/speakers (public).
func (h *Handler) List(c *gin.Context) {
	list, err := h.users.ListByRole(c.Request.Context(), models.RoleSpeaker)
	if err != nil {
		response.Error(c, err, "failed to fetch speakers")
		return
	}
	response.OK(c, list)
}

// Me handles GET /api/speakers/me.
func (h *Handler) Me(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	u, err := h.users.GetByID(c.Request.Context(), caller.ID)
	if err != nil {
		response.Error(c, err, "failed to fetch profile")
		return
	}
	response.OK(c, u.ToPublic())
}

// UpdateMe handles PUT /api/speakers/me with either JSON or a multipart form carrying a photo file.
func (h *Handler) UpdateMe(c *gin.Context) {
	caller, ok := middleware.MustCaller(c)
	if !ok {
		return
	}
	var upd auth.ProfileUpdate
	var uploadedKey string
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		upd = formUpdate(c)
		key, url, done := h.uploadPhoto(c, caller.ID)
		if !done {
			return
		}
		if key != "" {
			uploadedKey = key
			upd.PhotoURL = &url
		}
	} else {
		var req ProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "invalid request: "+err.Error())
			return
		}
		upd = auth.ProfileUpdate{Name: req.Name, Email: req.Email, Bio: req.Bio, ContactInfo: req.ContactInfo, PhotoURL: req.PhotoURL}
	}

	if err := normalize(&upd); err != nil {
		h.discard(uploadedKey)
		response.Error(c, err, "invalid profile")
		return
	}
	u, err := h.users.UpdateProfile(c.Request.Context(), caller.ID, upd)
	if err != nil {
		h.discard(uploadedKey)
		response.Error(c, err, "failed to update profile")
		return
	}
	response.OK(c, u.ToPublic())
}

// uploadPhoto stores the optional "photo" form file. done is false when a response was already written.
func (h *Handler) uploadPhoto(c *gin.Context, userID uuid.UUID) (key, url string, done bool) {
	fh, err := c.FormFile("photo")
	if err != nil {
		return "", "", true
	}
	if h.photos == nil {
		response.ServiceUnavailable(c, "photo storage is not configured")
		return "", "", false
	}
	if fh.Size > storage.MaxPhotoFileSize {
		response.BadRequest(c, "photo exceeds 5MB")
		return "", "", false
	}
	contentType := fh.Header.Get("Content-Type")
	ext, ok := storage.PhotoExtension(contentType)
	if !ok {
		response.BadRequest(c, "photo must be jpeg, png, webp or gif")
		return "", "", false
	}
	f, err := fh.Open()
	if err != nil {
		response.BadRequest(c, "unreadable photo")
		return "", "", false
	}
	defer f.Close()

	key = storage.PhotoKey(userID.String(), time.Now(), ext)
	url, err = h.photos.UploadPhoto(c.Request.Context(), key, contentType, f, fh.Size)
	if err != nil {
		h.logger.Error("photo upload failed", zap.Error(err), zap.String("user_id", userID.String()))
		response.Internal(c, "failed to upload photo")
		return "", "", false
	}
	return key, url, true
}

func (h *Handler) discard(key string) {
	if key == "" || h.photos == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := h.photos.DeletePhoto(ctx, key); err != nil {
		h.logger.Warn("orphaned photo left in bucket", zap.String("key", key), zap.Error(err))
	}
}

func formUpdate(c *gin.Context) auth.ProfileUpdate {
	field := func(name string) *string {
		if v, ok := c.GetPostForm(name); ok {
			return &v
		}
		return nil
	}
	return auth.ProfileUpdate{
		Name:        field("name"),
		Email:       field("email"),
		Bio:         field("bio"),
		ContactInfo: field("contact_info"),
	}
}

func normalize(p *auth.ProfileUpdate) error {
	if p.Name != nil {
		n := strings.TrimSpace(*p.Name)
		if n == "" {
			return models.Invalid("name cannot be empty")
		}
		p.Name = &n
	}
	if p.Email != nil {
		e := strings.ToLower(strings.TrimSpace(*p.Email))
		if !utils.IsEmail(e) {
			return models.Invalid("email is invalid")
		}
		p.Email = &e
	}
	return nil
}
