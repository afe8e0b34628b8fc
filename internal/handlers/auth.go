package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"issue-tracker/internal/middleware"
	"issue-tracker/internal/models"
	"issue-tracker/internal/services"
	"issue-tracker/internal/validation"
)

type AuthHandler struct {
	auth         services.AuthService
	log          *logrus.Logger
	cookieSecure bool
}

type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

func NewAuthHandler(auth services.AuthService, log *logrus.Logger, cookieSecure bool) *AuthHandler {
	return &AuthHandler{auth: auth, log: log, cookieSecure: cookieSecure}
}

func (h *AuthHandler) Register(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	var input validation.Register
	if errs := validation.Validate(body, &input); errs != nil {
		c.JSON(http.StatusBadRequest, errs.Issues())
		return
	}

	user, err := h.auth.Register(c.Request.Context(), input)
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "Email already exists"})
			return
		}
		internalError(c, h.log, err, "register user failed")
		return
	}
	c.JSON(http.StatusCreated, user)
}

// Login answers with the token and also sets it as an HttpOnly cookie for
// the browser pages.
func (h *AuthHandler) Login(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	var input validation.Login
	if errs := validation.Validate(body, &input); errs != nil {
		c.JSON(http.StatusBadRequest, errs.Issues())
		return
	}

	user, err := h.auth.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		internalError(c, h.log, err, "login failed")
		return
	}

	token, expiresAt, err := h.auth.GenerateToken(user)
	if err != nil {
		internalError(c, h.log, err, "token generation failed")
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, token, int(time.Until(expiresAt).Seconds()), "/", "", h.cookieSecure, true)

	h.log.WithField("user_id", user.ID).Info("user logged in")
	c.JSON(http.StatusOK, LoginResponse{Token: token, ExpiresAt: expiresAt, User: user})
}

// Logout clears the session cookie. Tokens are stateless, so a bearer token
// stays valid until it expires.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", h.cookieSecure, true)
	c.JSON(http.StatusOK, gin.H{})
}
