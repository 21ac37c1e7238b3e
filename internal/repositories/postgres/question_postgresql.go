package postgres

import (
	"context"

	"github.com/cpns-tryout/exam-service/internal/models"
	"github.com/cpns-tryout/exam-service/internal/repositories"
	"gorm.io/gorm"
)

type QuestionPostgreSQL struct {
	db *gorm.DB
}

func NewQuestionPostgreSQL(db *gorm.DB) repositories.QuestionRepository {
	return &QuestionPostgreSQL{db: db}
}

func (q QuestionPostgreSQL) Create(ctx context.Context, question *models.Question) error {
	return q.db.WithContext(ctx).Create(question).Error
}

func (q QuestionPostgreSQL) CreateBatch(ctx context.Context, questions []*models.Question) error {
	if len(questions) == 0 {
		return nil
	}
	return q.db.WithContext(ctx).Create(questions).Error
}

func (q QuestionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	var question models.Question
	if err := q.db.WithContext(ctx).First(&question, id).Error; err != nil {
		return nil, err
	}
	return &question, nil
}

func (q QuestionPostgreSQL) Update(ctx context.Context, question *models.Question) error {
	return q.db.WithContext(ctx).Save(question).Error
}

func (q QuestionPostgreSQL) List(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	var questions []*models.Question
	var total int64

	// apply filter first
	query := q.db.WithContext(ctx).Model(&models.Question{})
	query = q.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// then apply pagination and sorting
	query = q.applyPaginationAndSort(query, filters)

	if err := query.Find(&questions).Error; err != nil {
		return nil, 0, err
	}

	return questions, total, nil
}

func (q QuestionPostgreSQL) ListActive(ctx context.Context) ([]*models.Question, error) {
	var questions []*models.Question
	if err := q.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id asc").
		Find(&questions).Error; err != nil {
		return nil, err
	}
	return questions, nil
}

func (q QuestionPostgreSQL) CountActive(ctx context.Context) (int64, error) {
	var count int64
	if err := q.db.WithContext(ctx).
		Model(&models.Question{}).
		Where("is_active = ?", true).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (q QuestionPostgreSQL) applyFilters(query *gorm.DB, filters repositories.QuestionFilters) *gorm.DB {
	if filters.Category != nil {
		query = query.Where("category = ?", *filters.Category)
	}
	if filters.IsActive != nil {
		query = query.Where("is_active = ?", *filters.IsActive)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}
	return query
}

func (q QuestionPostgreSQL) applyPaginationAndSort(query *gorm.DB, filters repositories.QuestionFilters) *gorm.DB {
	sortBy := filters.SortBy
	switch sortBy {
	case "created_at", "category", "id":
	default:
		sortBy = "id"
	}
	order := "asc"
	if filters.SortOrder == "desc" {
		order = "desc"
	}
	query = query.Order(sortBy + " " + order)

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}
	return query
}
