package postgres

import (
	"context"

	"github.com/cpns-tryout/exam-service/internal/models"
	"github.com/cpns-tryout/exam-service/internal/repositories"
	"gorm.io/gorm"
)

type ExamPostgreSQL struct {
	db *gorm.DB
}

func NewExamPostgreSQL(db *gorm.DB) repositories.ExamRepository {
	return &ExamPostgreSQL{db: db}
}

func (e ExamPostgreSQL) Create(ctx context.Context, exam *models.Exam) error {
	return e.db.WithContext(ctx).Create(exam).Error
}

func (e ExamPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Exam, error) {
	var exam models.Exam
	if err := e.db.WithContext(ctx).First(&exam, id).Error; err != nil {
		return nil, err
	}
	return &exam, nil
}

// Finalize is the only write path after Create. The finished_at IS NULL guard
// makes the in_progress -> submitted transition happen at most once: the
// loser of a concurrent double submit updates zero rows.
func (e ExamPostgreSQL) Finalize(ctx context.Context, exam *models.Exam) (bool, error) {
	result := e.db.WithContext(ctx).
		Model(&models.Exam{}).
		Where("id = ? AND finished_at IS NULL", exam.ID).
		Updates(map[string]interface{}{
			"finished_at":        exam.FinishedAt,
			"duration_seconds":   exam.DurationSeconds,
			"answers":            exam.Answers,
			"correct_answers":    exam.CorrectAnswers,
			"percentage":         exam.Percentage,
			"civic_score":        exam.CivicScore,
			"civic_total":        exam.CivicTotal,
			"intelligence_score": exam.IntelligenceScore,
			"intelligence_total": exam.IntelligenceTotal,
			"character_score":    exam.CharacterScore,
			"character_total":    exam.CharacterTotal,
			"passed":             exam.Passed,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (e ExamPostgreSQL) ListFinishedByUser(ctx context.Context, userID string) ([]*models.Exam, error) {
	var exams []*models.Exam
	if err := e.db.WithContext(ctx).
		Where("user_id = ? AND finished_at IS NOT NULL", userID).
		Order("finished_at desc").
		Find(&exams).Error; err != nil {
		return nil, err
	}
	return exams, nil
}
