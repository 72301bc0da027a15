package handlers

import (
	"errors"
	"net/http"
	"regexp"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/sirrryasir/edoskill360-sub000/internal/auth"
	"github.com/sirrryasir/edoskill360-sub000/internal/config"
	"github.com/sirrryasir/edoskill360-sub000/internal/services"
)

// RestAuthHandler handles registration and login.
type RestAuthHandler struct {
	cfg         *config.Config
	userService services.IUserService
}

// NewRestAuthHandler creates a RestAuthHandler and registers the password
// strength rule with gin's validator engine.
func NewRestAuthHandler(cfg *config.Config, userService services.IUserService) *RestAuthHandler {
	h := &RestAuthHandler{cfg: cfg, userService: userService}

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		passwordRe := regexp.MustCompile(cfg.PasswordRegexp)
		_ = v.RegisterValidation("password_strength", func(fl validator.FieldLevel) bool {
			return passwordRe.MatchString(fl.Field().String())
		})
	}
	return h
}

type registerRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,password_strength"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  interface{} `json:"user"`
}

// Register handles POST /v1/auth/register.
func (h *RestAuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrEmailExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "Email already in use"})
			return
		}
		writeServiceError(c, err)
		return
	}

	token, err := auth.GenerateJWT(user.ID, user.Role, h.cfg.JwtSecret, h.cfg.JwtTTL)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, authResponse{Token: token, User: user})
}

// Login handles POST /v1/auth/login.
func (h *RestAuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		writeServiceError(c, err)
		return
	}

	token, err := auth.GenerateJWT(user.ID, user.Role, h.cfg.JwtSecret, h.cfg.JwtTTL)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, authResponse{Token: token, User: user})
}
