package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/avergin/sessionguard/internal/usecase"
)

const bearerPrefix = "Bearer "

// AuthHandler exposes signup, login, 2FA verification, token verification, and
// logout endpoints.
type AuthHandler struct {
	auth   *usecase.AuthService
	signup *usecase.SignupService
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *usecase.AuthService, signup *usecase.SignupService) *AuthHandler {
	return &AuthHandler{auth: auth, signup: signup}
}

// RegisterRoutes binds authentication routes on the group.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/signup", h.handleSignup)
	r.POST("/login", h.handleLogin)
	r.POST("/verify-2fa", h.handleVerify2FA)
	r.POST("/verify-token", h.handleVerifyToken)
	r.POST("/logout", h.handleLogout)
}

func (h *AuthHandler) handleSignup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid signup payload"))
		return
	}

	err := h.signup.Signup(c.Request.Context(), req.Email, req.Password, req.Requires2FA)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid email or password"))
		case errors.Is(err, usecase.ErrUserAlreadyExists):
			c.JSON(http.StatusConflict, NewErrorResponse(c, "user already exists"))
		default:
			c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to create user"))
		}
		return
	}

	c.JSON(http.StatusCreated, MessageResponse{Message: "User created successfully!"})
}

func (h *AuthHandler) handleLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid login payload"))
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid email or password"))
		case errors.Is(err, usecase.ErrIncorrectCredentials):
			c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "incorrect credentials"))
		default:
			c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "login failed"))
		}
		return
	}

	if result.TwoFARequired {
		// 206: the login is accepted but incomplete until the code round-trips.
		c.JSON(http.StatusPartialContent, TwoFARequiredResponse{
			Message:        "2FA required",
			LoginAttemptID: result.AttemptID,
		})
		return
	}

	c.JSON(http.StatusOK, TokenResponse{Token: result.Token})
}

func (h *AuthHandler) handleVerify2FA(c *gin.Context) {
	var req Verify2FARequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid verification payload"))
		return
	}

	token, err := h.auth.Verify2FA(c.Request.Context(), req.Email, req.LoginAttemptID, req.TwoFACode)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrInvalidInput):
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid verification payload"))
		case errors.Is(err, usecase.ErrIncorrectCredentials):
			c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "incorrect credentials"))
		default:
			c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "verification failed"))
		}
		return
	}

	c.JSON(http.StatusOK, TokenResponse{Token: token})
}

func (h *AuthHandler) handleVerifyToken(c *gin.Context) {
	token, ok := h.extractToken(c)
	if !ok {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "missing token"))
		return
	}

	if _, err := h.auth.VerifyToken(c.Request.Context(), token); err != nil {
		if errors.Is(err, usecase.ErrInvalidToken) {
			c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid token"))
			return
		}
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "token verification failed"))
		return
	}

	c.Status(http.StatusOK)
}

func (h *AuthHandler) handleLogout(c *gin.Context) {
	token, ok := h.extractToken(c)
	if !ok {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "missing token"))
		return
	}

	if err := h.auth.Logout(c.Request.Context(), token); err != nil {
		if errors.Is(err, usecase.ErrInvalidToken) {
			c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "invalid token"))
			return
		}
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "logout failed"))
		return
	}

	c.Status(http.StatusOK)
}

// extractToken reads the session token from the Authorization bearer header or
// the request body, header taking precedence.
func (h *AuthHandler) extractToken(c *gin.Context) (string, bool) {
	if header := c.GetHeader("Authorization"); strings.HasPrefix(header, bearerPrefix) {
		token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
		if token != "" {
			return token, true
		}
	}

	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return "", false
	}

	token := strings.TrimSpace(req.Token)
	return token, token != ""
}
