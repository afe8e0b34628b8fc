package repositories

import (
	"context"
	"math"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"issue-tracker/internal/models"
)

var issueOrderColumns = map[string]string{
	"title":     "title",
	"status":    "status",
	"createdAt": "created_at",
}

type GormIssueRepository struct {
	db *gorm.DB
}

func NewIssueRepository(db *gorm.DB) *GormIssueRepository {
	return &GormIssueRepository{db: db}
}

func (r *GormIssueRepository) Create(ctx context.Context, issue *models.Issue) error {
	return r.db.WithContext(ctx).Create(issue).Error
}

func (r *GormIssueRepository) FindByID(ctx context.Context, id int) (*models.Issue, error) {
	var issue models.Issue
	if err := r.db.WithContext(ctx).First(&issue, id).Error; err != nil {
		return nil, translate(err)
	}
	return &issue, nil
}

func (r *GormIssueRepository) List(ctx context.Context, filter IssueFilter) ([]models.Issue, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Issue{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := issueOrderColumns[filter.OrderBy]
	if !ok {
		column = "created_at"
	}

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 10
	}

	issues := make([]models.Issue, 0, filter.PageSize)
	if filter.Page > MaxPage(filter.PageSize) {
		return issues, total, nil
	}
	err := query.
		Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: filter.Desc}).
		Order("id").
		Offset((filter.Page - 1) * filter.PageSize).
		Limit(filter.PageSize).
		Find(&issues).Error
	if err != nil {
		return nil, 0, err
	}

	return issues, total, nil
}

// MaxPage is the highest page whose offset still fits in an int32, the
// narrowest OFFSET the supported databases accept.
func MaxPage(pageSize int) int {
	if pageSize < 1 {
		pageSize = 1
	}
	return math.MaxInt32/pageSize + 1
}

// Update writes the given columns and returns the row as stored.
func (r *GormIssueRepository) Update(ctx context.Context, id int, changes map[string]interface{}) (*models.Issue, error) {
	if len(changes) > 0 {
		result := r.db.WithContext(ctx).Model(&models.Issue{ID: id}).Updates(changes)
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}
	return r.FindByID(ctx, id)
}

func (r *GormIssueRepository) Delete(ctx context.Context, id int) error {
	result := r.db.WithContext(ctx).Delete(&models.Issue{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
