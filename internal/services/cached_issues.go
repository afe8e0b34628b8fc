package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"issue-tracker/internal/cache"
	"issue-tracker/internal/models"
	"issue-tracker/internal/repositories"
	"issue-tracker/internal/validation"
)

// CachedIssueService reads single issues through the cache. Lists are always
// served by the database. Cache failures are logged and never surface to the
// caller.
type CachedIssueService struct {
	next  IssueService
	cache cache.Cache
	ttl   time.Duration
	log   *logrus.Logger
}

func NewCachedIssueService(next IssueService, c cache.Cache, ttl time.Duration, log *logrus.Logger) *CachedIssueService {
	return &CachedIssueService{next: next, cache: c, ttl: ttl, log: log}
}

func issueKey(id int) string {
	return fmt.Sprintf("issue:%d", id)
}

func (s *CachedIssueService) CreateIssue(ctx context.Context, input validation.CreateIssue) (*models.Issue, error) {
	issue, err := s.next.CreateIssue(ctx, input)
	if err != nil {
		return nil, err
	}
	s.store(ctx, issue)
	return issue, nil
}

func (s *CachedIssueService) GetIssue(ctx context.Context, id int) (*models.Issue, error) {
	var cached models.Issue
	err := s.cache.Get(ctx, issueKey(id), &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.log.WithError(err).WithField("issue_id", id).Warn("issue cache read failed")
	}

	issue, err := s.next.GetIssue(ctx, id)
	if err != nil {
		return nil, err
	}
	s.store(ctx, issue)
	return issue, nil
}

func (s *CachedIssueService) ListIssues(ctx context.Context, filter repositories.IssueFilter) ([]models.Issue, int64, error) {
	return s.next.ListIssues(ctx, filter)
}

// UpdateIssue overwrites the cached entry with the row as written, so a
// reader that loaded the old row during the write cannot leave it behind
// once the write has returned.
func (s *CachedIssueService) UpdateIssue(ctx context.Context, id int, input validation.PatchIssue) (*models.Issue, error) {
	s.invalidate(ctx, id)
	issue, err := s.next.UpdateIssue(ctx, id, input)
	if err != nil {
		s.invalidate(ctx, id)
		return nil, err
	}
	s.store(ctx, issue)
	return issue, nil
}

// DeleteIssue drops the entry before and after the delete.
func (s *CachedIssueService) DeleteIssue(ctx context.Context, id int) error {
	s.invalidate(ctx, id)
	err := s.next.DeleteIssue(ctx, id)
	s.invalidate(ctx, id)
	return err
}

func (s *CachedIssueService) store(ctx context.Context, issue *models.Issue) {
	if err := s.cache.Set(ctx, issueKey(issue.ID), issue, s.ttl); err != nil {
		s.log.WithError(err).WithField("issue_id", issue.ID).Warn("issue cache write failed")
	}
}

func (s *CachedIssueService) invalidate(ctx context.Context, id int) {
	if err := s.cache.Delete(ctx, issueKey(id)); err != nil {
		s.log.WithError(err).WithField("issue_id", id).Warn("issue cache invalidation failed")
	}
}
