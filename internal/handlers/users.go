package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"issue-tracker/internal/models"
	"issue-tracker/internal/services"
)

type UserHandler struct {
	users services.UserService
	log   *logrus.Logger
}

func NewUserHandler(users services.UserService, log *logrus.Logger) *UserHandler {
	return &UserHandler{users: users, log: log}
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		internalError(c, h.log, err, "list users failed")
		return
	}
	if users == nil {
		users = []models.User{}
	}
	c.JSON(http.StatusOK, users)
}
