package views

import "issue-tracker/internal/models"

// Layout is shared by every page.
type Layout struct {
	Title    string
	UserName string
}

func (l Layout) SignedIn() bool { return l.UserName != "" }

type IssueListPage struct {
	Layout
	Issues     []models.Issue
	Status     models.Status
	Page       int
	TotalPages int
	Total      int64
}

func (p IssueListPage) HasPrev() bool { return p.Page > 1 }
func (p IssueListPage) HasNext() bool { return p.Page < p.TotalPages }

type IssueDetailPage struct {
	Layout
	Issue *models.Issue
}

// IssueFormPage backs both the new and the edit form; Issue is nil for new.
type IssueFormPage struct {
	Layout
	Issue *models.Issue
	Users []models.User
}

func (p IssueFormPage) Editing() bool { return p.Issue != nil }

// Assigned reports whether user is the current assignee of the edited issue.
func (p IssueFormPage) Assigned(userID string) bool {
	return p.Issue != nil && p.Issue.AssignedToUserID != nil && *p.Issue.AssignedToUserID == userID
}

type LoginPage struct {
	Layout
}

type NotFoundPage struct {
	Layout
}

const (
	IssueListTemplate   = "issue_list"
	IssueDetailTemplate = "issue_detail"
	IssueFormTemplate   = "issue_form"
	LoginTemplate       = "login"
	NotFoundTemplate    = "not_found"
)
