package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/speakerhub/backend/internal/models"
	"github.com/speakerhub/backend/pkg/response"
	"github.com/speakerhub/backend/pkg/utils"
)

// UserStore is the persistence the auth handler needs.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
}

// SignupRequest is the body for POST /auth/signup.
type SignupRequest struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=6"`
	Role        string `json:"role" binding:"required"`
	Bio         string `json:"bio"`
	PhotoURL    string `json:"photo_url"`
	ContactInfo string `json:"contact_info"`
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is the auth response with JWT.
type TokenResponse struct {
	Token string            `json:"token"`
	User  models.UserPublic `json:"user"`
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	repo   UserStore
	jwt    *JWTService
	logger *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(repo UserStore, jwt *JWTService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, jwt: jwt, logger: logger}
}

// Signup handles POST /auth/signup. The new user is logged in immediately.
func (h *Handler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	role, err := models.ParseRole(req.Role)
	if err != nil {
		response.Error(c, err, "invalid role")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "failed to hash password")
		return
	}

	user := &models.User{
		Name:        strings.TrimSpace(req.Name),
		Email:       normalizeEmail(req.Email),
		Password:    hash,
		Role:        role,
		Bio:         req.Bio,
		PhotoURL:    req.PhotoURL,
		ContactInfo: req.ContactInfo,
	}
	if err := h.repo.Create(c.Request.Context(), user); err != nil {
		if !errors.Is(err, models.ErrEmailTaken) {
			h.logger.Error("create user failed", zap.Error(err))
		}
		response.Error(c, err, "signup failed")
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Email, string(user.Role))
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}

	response.Created(c, TokenResponse{Token: token, User: user.ToPublic()})
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	user, err := h.repo.GetByEmail(c.Request.Context(), normalizeEmail(req.Email))
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			response.Error(c, err, "login failed")
			return
		}
		utils.BurnPasswordCheck(req.Password)
		response.Unauthorized(c, "invalid email or password")
		return
	}

	if !utils.CheckPassword(req.Password, user.Password) {
		response.Unauthorized(c, "invalid email or password")
		return
	}

	token, err := h.jwt.Generate(user.ID, user.Email, string(user.Role))
	if err != nil {
		response.Internal(c, "failed to generate token")
		return
	}

	response.OK(c, TokenResponse{Token: token, User: user.ToPublic()})
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
