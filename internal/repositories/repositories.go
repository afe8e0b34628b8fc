package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"issue-tracker/internal/models"
)

var ErrNotFound = errors.New("record not found")

type IssueFilter struct {
	Status   models.Status
	OrderBy  string
	Desc     bool
	Page     int
	PageSize int
}

type IssueRepository interface {
	Create(ctx context.Context, issue *models.Issue) error
	FindByID(ctx context.Context, id int) (*models.Issue, error)
	List(ctx context.Context, filter IssueFilter) ([]models.Issue, int64, error)
	Update(ctx context.Context, id int, changes map[string]interface{}) (*models.Issue, error)
	Delete(ctx context.Context, id int) error
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
