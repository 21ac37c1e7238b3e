package repositories

import (
	"context"
	"errors"

	"github.com/cpns-tryout/exam-service/internal/models"
	"gorm.io/gorm"
)

// ===== SHARED FILTER STRUCTS =====

type QuestionFilters struct {
	Category  *models.QuestionCategory `json:"category"`
	IsActive  *bool                    `json:"is_active"`
	CreatedBy *string                  `json:"created_by"`
	Limit     int                      `json:"limit"`
	Offset    int                      `json:"offset"`
	SortBy    string                   `json:"sort_by"`    // "created_at", "category"
	SortOrder string                   `json:"sort_order"` // "asc", "desc"
}

// ===== REPOSITORY INTERFACES =====

type QuestionRepository interface {
	Create(ctx context.Context, question *models.Question) error
	CreateBatch(ctx context.Context, questions []*models.Question) error
	GetByID(ctx context.Context, id uint) (*models.Question, error)
	Update(ctx context.Context, question *models.Question) error
	List(ctx context.Context, filters QuestionFilters) ([]*models.Question, int64, error)

	// ListActive returns the currently visible catalog, the set every exam is
	// drawn from and scored against.
	ListActive(ctx context.Context) ([]*models.Question, error)
	CountActive(ctx context.Context) (int64, error)
}

type ExamRepository interface {
	Create(ctx context.Context, exam *models.Exam) error
	GetByID(ctx context.Context, id uint) (*models.Exam, error)

	// Finalize writes the finish timestamp, answers and score fields in a
	// single conditional update guarded on finished_at IS NULL. It reports
	// false when the exam was already submitted, which is how a concurrent
	// double submit loses the race without corrupting scores.
	Finalize(ctx context.Context, exam *models.Exam) (bool, error)

	// ListFinishedByUser returns submitted exams only, most recent first.
	ListFinishedByUser(ctx context.Context, userID string) ([]*models.Exam, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	Upsert(ctx context.Context, user *models.User) error
}

// Repository aggregates all repositories behind one constructor-injected
// dependency, the shape services are written against.
type Repository interface {
	Question() QuestionRepository
	Exam() ExamRepository
	User() UserRepository
}

// IsNotFoundError checks whether a repository error means the row is missing.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
