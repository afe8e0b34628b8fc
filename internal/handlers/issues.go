package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"issue-tracker/internal/models"
	"issue-tracker/internal/repositories"
	"issue-tracker/internal/services"
	"issue-tracker/internal/validation"
)

const maxPageSize = 100

type IssueHandler struct {
	issues services.IssueService
	log    *logrus.Logger
}

func NewIssueHandler(issues services.IssueService, log *logrus.Logger) *IssueHandler {
	return &IssueHandler{issues: issues, log: log}
}

func (h *IssueHandler) CreateIssue(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	h.log.WithField("body", string(body)).Debug("create issue payload")

	var input validation.CreateIssue
	if errs := validation.Validate(body, &input); errs != nil {
		c.JSON(http.StatusBadRequest, errs.Issues())
		return
	}

	issue, err := h.issues.CreateIssue(c.Request.Context(), input)
	if err != nil {
		internalError(c, h.log, err, "create issue failed")
		return
	}
	c.JSON(http.StatusCreated, issue)
}

func (h *IssueHandler) ListIssues(c *gin.Context) {
	filter := repositories.IssueFilter{
		OrderBy: c.DefaultQuery("orderBy", "createdAt"),
		Desc:    c.Query("order") == "desc",
	}

	if status := c.Query("status"); status != "" {
		filter.Status = models.Status(status)
		if !filter.Status.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status"})
			return
		}
	}

	var ok bool
	if filter.Page, ok = queryInt(c, "page", 1); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page"})
		return
	}
	if filter.PageSize, ok = queryInt(c, "pageSize", 10); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page size"})
		return
	}
	if filter.PageSize > maxPageSize {
		filter.PageSize = maxPageSize
	}
	if filter.Page > repositories.MaxPage(filter.PageSize) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid page"})
		return
	}

	issues, total, err := h.issues.ListIssues(c.Request.Context(), filter)
	if err != nil {
		internalError(c, h.log, err, "list issues failed")
		return
	}
	if issues == nil {
		issues = []models.Issue{}
	}
	c.JSON(http.StatusOK, gin.H{"issues": issues, "total": total})
}

func (h *IssueHandler) GetIssue(c *gin.Context) {
	id, ok := parseIssueID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	issue, err := h.issues.GetIssue(c.Request.Context(), id)
	if err != nil {
		h.issueError(c, err, "get issue failed")
		return
	}
	c.JSON(http.StatusOK, issue)
}

// UpdateIssue validates the body before looking at the path so that a bad
// body is reported even when the id is also bad.
func (h *IssueHandler) UpdateIssue(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	var input validation.PatchIssue
	if errs := validation.Validate(body, &input); errs != nil {
		c.JSON(http.StatusBadRequest, errs.Format())
		return
	}

	id, ok := parseIssueID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	issue, err := h.issues.UpdateIssue(c.Request.Context(), id, input)
	if err != nil {
		h.issueError(c, err, "update issue failed")
		return
	}
	c.JSON(http.StatusOK, issue)
}

func (h *IssueHandler) DeleteIssue(c *gin.Context) {
	id, ok := parseIssueID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid issue ID"})
		return
	}

	if err := h.issues.DeleteIssue(c.Request.Context(), id); err != nil {
		h.issueError(c, err, "delete issue failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func (h *IssueHandler) issueError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, services.ErrIssueNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Issue not found"})
	case errors.Is(err, services.ErrInvalidUser):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user."})
	default:
		internalError(c, h.log, err, msg)
	}
}

func queryInt(c *gin.Context, key string, fallback int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return 0, false
	}
	return value, true
}
