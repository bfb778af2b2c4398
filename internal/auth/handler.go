package auth

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/cte-escapes/waiver-backend/config"
	"github.com/cte-escapes/waiver-backend/pkg/response"
)

// LoginRequest is the body for POST /api/auth/login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Handler authenticates the configured staff account and issues JWTs for the
// analytics API.
type Handler struct {
	cfg    config.AuthConfig
	jwt    *JWTService
	logger *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(cfg config.AuthConfig, jwtService *JWTService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{cfg: cfg, jwt: jwtService, logger: logger}
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if h.cfg.StaffPasswordHash == "" {
		response.Unauthorized(c, "staff login disabled")
		return
	}
	if req.Username != h.cfg.StaffUsername ||
		bcrypt.CompareHashAndPassword([]byte(h.cfg.StaffPasswordHash), []byte(req.Password)) != nil {
		h.logger.Warn("failed staff login", zap.String("username", req.Username))
		response.Unauthorized(c, "invalid credentials")
		return
	}
	token, err := h.jwt.Generate(req.Username)
	if err != nil {
		h.logger.Error("token generation failed", zap.Error(err))
		response.Internal(c, "failed to issue token")
		return
	}
	response.OK(c, gin.H{"token": token})
}
