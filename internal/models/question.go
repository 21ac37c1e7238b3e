package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuestionCategory string

const (
	CategoryCivicKnowledge      QuestionCategory = "civic_knowledge"
	CategoryGeneralIntelligence QuestionCategory = "general_intelligence"
	CategoryPersonalCharacter   QuestionCategory = "personal_character"
)

// AllCategories is the fixed set of categories an exam is scored against.
var AllCategories = []QuestionCategory{
	CategoryCivicKnowledge,
	CategoryGeneralIntelligence,
	CategoryPersonalCharacter,
}

func (c QuestionCategory) IsValid() bool {
	switch c {
	case CategoryCivicKnowledge, CategoryGeneralIntelligence, CategoryPersonalCharacter:
		return true
	}
	return false
}

// QuestionOptionCount is fixed: every question carries exactly four options,
// so a valid correct-answer index is always in [0,3].
const QuestionOptionCount = 4

type Question struct {
	ID       uint                        `json:"id" gorm:"primaryKey"`
	Category QuestionCategory            `json:"category" gorm:"not null;size:32;index" validate:"required,question_category"`
	Prompt   string                      `json:"question" gorm:"type:text;not null" validate:"required"`
	Options  datatypes.JSONSlice[string] `json:"options" gorm:"not null" validate:"required,len=4,dive,required"`

	// CorrectAnswer is the index into Options. Never serialized to exam takers;
	// handlers expose it only in admin and post-submit review responses.
	CorrectAnswer int `json:"correct_answer" gorm:"not null" validate:"min=0,max=3"`

	// IsActive is the admin-facing visibility toggle. Inactive questions are
	// excluded from exams and from scoring, but stay referenced by past answers.
	IsActive bool `json:"is_active" gorm:"default:true;index"`

	CreatedBy string `json:"created_by" gorm:"size:255;index"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Question) TableName() string {
	return "questions"
}
