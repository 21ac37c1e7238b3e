package events

import (
	"time"
)

// EventType represents different types of notification events
type EventType string

const (
	EventExamStarted   EventType = "exam.started"
	EventExamSubmitted EventType = "exam.submitted"
)

// NotificationEvent is the base event structure for all notification events
type NotificationEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Exam notification event payloads

type ExamStartedEvent struct {
	ExamID         uint      `json:"exam_id"`
	UserID         string    `json:"user_id"`
	StartedAt      time.Time `json:"started_at"`
	TotalQuestions int       `json:"total_questions"`
}

type ExamSubmittedEvent struct {
	ExamID          uint      `json:"exam_id"`
	UserID          string    `json:"user_id"`
	SubmittedAt     time.Time `json:"submitted_at"`
	DurationSeconds int       `json:"duration_seconds"`
	CorrectAnswers  int       `json:"correct_answers"`
	TotalQuestions  int       `json:"total_questions"`
	Percentage      float64   `json:"percentage"`
	Passed          bool      `json:"passed"`
}
