package postgres

import (
	"github.com/cpns-tryout/exam-service/internal/repositories"
	"gorm.io/gorm"
)

type repository struct {
	question repositories.QuestionRepository
	exam     repositories.ExamRepository
	user     repositories.UserRepository
}

// NewRepository wires all PostgreSQL repositories over one gorm connection.
func NewRepository(db *gorm.DB) repositories.Repository {
	return &repository{
		question: NewQuestionPostgreSQL(db),
		exam:     NewExamPostgreSQL(db),
		user:     NewUserPostgreSQL(db),
	}
}

func (r *repository) Question() repositories.QuestionRepository { return r.question }
func (r *repository) Exam() repositories.ExamRepository         { return r.exam }
func (r *repository) User() repositories.UserRepository         { return r.user }
