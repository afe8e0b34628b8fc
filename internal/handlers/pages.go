package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"issue-tracker/internal/middleware"
	"issue-tracker/internal/models"
	"issue-tracker/internal/repositories"
	"issue-tracker/internal/services"
	"issue-tracker/internal/views"
)

const issuesPerPage = 10

// PageHandler renders the HTML pages. The templates must be installed on the
// engine with SetHTMLTemplate(views.Templates()).
type PageHandler struct {
	issues services.IssueService
	users  services.UserService
	log    *logrus.Logger
	delay  time.Duration
}

// NewPageHandler builds the page handler. delay holds the detail page back
// before rendering; zero disables it.
func NewPageHandler(issues services.IssueService, users services.UserService, log *logrus.Logger, delay time.Duration) *PageHandler {
	return &PageHandler{issues: issues, users: users, log: log, delay: delay}
}

func layout(c *gin.Context, title string) views.Layout {
	l := views.Layout{Title: title}
	if session, ok := middleware.SessionFrom(c); ok {
		l.UserName = session.Name
	}
	return l
}

func (h *PageHandler) Home(c *gin.Context) {
	c.Redirect(http.StatusFound, "/issues")
}

func (h *PageHandler) IssueList(c *gin.Context) {
	page := views.IssueListPage{Layout: layout(c, "Issues")}

	filter := repositories.IssueFilter{OrderBy: "createdAt", Desc: true, PageSize: issuesPerPage}
	if status := models.Status(c.Query("status")); status.Valid() {
		filter.Status = status
		page.Status = status
	}
	filter.Page, _ = queryInt(c, "page", 1)
	if filter.Page == 0 {
		filter.Page = 1
	}

	issues, total, err := h.issues.ListIssues(c.Request.Context(), filter)
	if err != nil {
		h.pageError(c, err, "render issue list failed")
		return
	}

	page.Issues = issues
	page.Total = total
	page.Page = filter.Page
	page.TotalPages = int((total + issuesPerPage - 1) / issuesPerPage)
	if page.TotalPages == 0 {
		page.TotalPages = 1
	}
	c.HTML(http.StatusOK, views.IssueListTemplate, page)
}

func (h *PageHandler) IssueDetail(c *gin.Context) {
	issue, ok := h.loadIssue(c)
	if !ok {
		return
	}

	if h.delay > 0 {
		timer := time.NewTimer(h.delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-c.Request.Context().Done():
			c.Abort()
			return
		}
	}

	c.HTML(http.StatusOK, views.IssueDetailTemplate, views.IssueDetailPage{
		Layout: layout(c, issue.Title),
		Issue:  issue,
	})
}

func (h *PageHandler) NewIssue(c *gin.Context) {
	c.HTML(http.StatusOK, views.IssueFormTemplate, views.IssueFormPage{Layout: layout(c, "New Issue")})
}

func (h *PageHandler) EditIssue(c *gin.Context) {
	issue, ok := h.loadIssue(c)
	if !ok {
		return
	}

	users, err := h.users.ListUsers(c.Request.Context())
	if err != nil {
		h.pageError(c, err, "load assignees failed")
		return
	}

	c.HTML(http.StatusOK, views.IssueFormTemplate, views.IssueFormPage{
		Layout: layout(c, "Edit "+issue.Title),
		Issue:  issue,
		Users:  users,
	})
}

func (h *PageHandler) Login(c *gin.Context) {
	c.HTML(http.StatusOK, views.LoginTemplate, views.LoginPage{Layout: layout(c, "Log in")})
}

func (h *PageHandler) NotFound(c *gin.Context) {
	c.HTML(http.StatusNotFound, views.NotFoundTemplate, views.NotFoundPage{Layout: layout(c, "Not found")})
}

// loadIssue resolves the :id path parameter. A non-numeric id is treated the
// same as a missing issue.
func (h *PageHandler) loadIssue(c *gin.Context) (*models.Issue, bool) {
	id, ok := parseIssueID(c)
	if !ok {
		h.NotFound(c)
		return nil, false
	}

	issue, err := h.issues.GetIssue(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, services.ErrIssueNotFound) {
			h.NotFound(c)
			return nil, false
		}
		h.pageError(c, err, "load issue failed")
		return nil, false
	}
	return issue, true
}

func (h *PageHandler) pageError(c *gin.Context, err error, msg string) {
	h.log.WithError(err).WithField("path", c.Request.URL.Path).Error(msg)
	c.String(http.StatusInternalServerError, "Internal Server Error")
}
