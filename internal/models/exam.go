package models

import (
	"time"

	"gorm.io/datatypes"
)

// AnswerSheet maps a question ID to the selected option index (0-3).
// A question missing from the sheet is unanswered and scores as incorrect.
type AnswerSheet map[uint]int

// Exam is one attempt by one user. It is created by start with FinishedAt nil
// and finalized exactly once by submit; every nullable score field below is
// written in that single conditional update and never touched again.
type Exam struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	UserID string `json:"user_id" gorm:"not null;size:255;index"`

	StartedAt  time.Time  `json:"started_at" gorm:"not null"`
	FinishedAt *time.Time `json:"finished_at"`

	// DurationSeconds is FinishedAt - StartedAt in whole seconds.
	DurationSeconds *int `json:"duration_seconds"`

	Answers datatypes.JSONType[AnswerSheet] `json:"answers"`

	// TotalQuestions is the active-question count at start time. Scoring runs
	// against the live catalog at submit, so the report total can diverge from
	// this if the catalog changed mid-exam.
	TotalQuestions int `json:"total_questions" gorm:"not null"`

	CorrectAnswers *int     `json:"correct_answers"`
	Percentage     *float64 `json:"percentage" gorm:"type:decimal(5,2)"`

	CivicScore        *int `json:"civic_score"`
	CivicTotal        *int `json:"civic_total"`
	IntelligenceScore *int `json:"intelligence_score"`
	IntelligenceTotal *int `json:"intelligence_total"`
	CharacterScore    *int `json:"character_score"`
	CharacterTotal    *int `json:"character_total"`

	Passed *bool `json:"passed"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}

func (Exam) TableName() string {
	return "exams"
}

// IsSubmitted reports whether the exam has reached its terminal state.
func (e *Exam) IsSubmitted() bool {
	return e.FinishedAt != nil
}
