package services

import (
	"context"
	"errors"
	"fmt"

	"issue-tracker/internal/models"
	"issue-tracker/internal/repositories"
	"issue-tracker/internal/validation"
)

type IssueService interface {
	CreateIssue(ctx context.Context, input validation.CreateIssue) (*models.Issue, error)
	GetIssue(ctx context.Context, id int) (*models.Issue, error)
	ListIssues(ctx context.Context, filter repositories.IssueFilter) ([]models.Issue, int64, error)
	UpdateIssue(ctx context.Context, id int, input validation.PatchIssue) (*models.Issue, error)
	DeleteIssue(ctx context.Context, id int) error
}

type IssueServiceImpl struct {
	issues repositories.IssueRepository
	users  repositories.UserRepository
}

func NewIssueService(issues repositories.IssueRepository, users repositories.UserRepository) *IssueServiceImpl {
	return &IssueServiceImpl{issues: issues, users: users}
}

// CreateIssue stores only title and description; status takes its default.
func (s *IssueServiceImpl) CreateIssue(ctx context.Context, input validation.CreateIssue) (*models.Issue, error) {
	issue := &models.Issue{
		Title:       input.Title,
		Description: input.Description,
	}
	if err := s.issues.Create(ctx, issue); err != nil {
		return nil, fmt.Errorf("create issue: %w", err)
	}
	return issue, nil
}

func (s *IssueServiceImpl) GetIssue(ctx context.Context, id int) (*models.Issue, error) {
	issue, err := s.issues.FindByID(ctx, id)
	if err != nil {
		return nil, issueError(err)
	}
	return issue, nil
}

func (s *IssueServiceImpl) ListIssues(ctx context.Context, filter repositories.IssueFilter) ([]models.Issue, int64, error) {
	issues, total, err := s.issues.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("list issues: %w", err)
	}
	return issues, total, nil
}

// UpdateIssue checks the assignee before the issue itself. The two lookups and
// the write are separate round trips with no transaction around them.
func (s *IssueServiceImpl) UpdateIssue(ctx context.Context, id int, input validation.PatchIssue) (*models.Issue, error) {
	if input.AssignedToUserID != nil {
		if _, err := s.users.FindByID(ctx, *input.AssignedToUserID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, ErrInvalidUser
			}
			return nil, fmt.Errorf("find assignee: %w", err)
		}
	}

	if _, err := s.issues.FindByID(ctx, id); err != nil {
		return nil, issueError(err)
	}

	updated, err := s.issues.Update(ctx, id, patchChanges(input))
	if err != nil {
		return nil, issueError(err)
	}
	return updated, nil
}

func (s *IssueServiceImpl) DeleteIssue(ctx context.Context, id int) error {
	if _, err := s.issues.FindByID(ctx, id); err != nil {
		return issueError(err)
	}
	if err := s.issues.Delete(ctx, id); err != nil {
		return issueError(err)
	}
	return nil
}

func patchChanges(input validation.PatchIssue) map[string]interface{} {
	changes := map[string]interface{}{}
	if input.Title != nil {
		changes["title"] = *input.Title
	}
	if input.Description != nil {
		changes["description"] = *input.Description
	}
	if input.AssigneeProvided {
		if input.AssignedToUserID == nil {
			changes["assigned_to_user_id"] = nil
		} else {
			changes["assigned_to_user_id"] = *input.AssignedToUserID
		}
	}
	return changes
}

func issueError(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrIssueNotFound
	}
	return fmt.Errorf("issue store: %w", err)
}
