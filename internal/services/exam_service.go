package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	apperrors "github.com/cpns-tryout/exam-service/internal/errors"
	"github.com/cpns-tryout/exam-service/internal/events"
	"github.com/cpns-tryout/exam-service/internal/models"
	"github.com/cpns-tryout/exam-service/internal/repositories"
	"github.com/cpns-tryout/exam-service/internal/scoring"
	"github.com/cpns-tryout/exam-service/internal/validator"
	validatorlib "github.com/go-playground/validator/v10"
	"gorm.io/datatypes"
)

type StartExamResponse struct {
	ExamID    uint      `json:"exam_id"`
	StartedAt time.Time `json:"started_at"`
}

type SubmitExamRequest struct {
	ExamID uint `json:"exam_id" validate:"required"`

	// An empty sheet is a valid submission: every question scores as
	// unanswered and the result is 0%.
	Answers models.AnswerSheet `json:"answers" validate:"dive,answer_index"`
}

type SubmitExamResponse struct {
	ExamID  uint            `json:"exam_id"`
	Results *scoring.Report `json:"results"`
	Exam    *models.Exam    `json:"exam"`
}

type ExamDetailResponse struct {
	Exam      *models.Exam             `json:"exam"`
	Questions []scoring.QuestionReview `json:"questions"`
}

type ExamService interface {
	Start(ctx context.Context, userID string) (*StartExamResponse, error)
	Submit(ctx context.Context, req *SubmitExamRequest, userID string) (*SubmitExamResponse, error)
	History(ctx context.Context, userID string) ([]*models.Exam, error)
	Detail(ctx context.Context, examID uint, userID string) (*ExamDetailResponse, error)
}

type examService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
}

func NewExamService(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger, v *validator.Validator) ExamService {
	return &examService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		validator: v,
	}
}

// Start creates a new in-progress exam for the caller. There is no
// precondition: a user may hold several open exams at once.
func (s *examService) Start(ctx context.Context, userID string) (*StartExamResponse, error) {
	total, err := s.repo.Question().CountActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count active questions: %w", err)
	}

	exam := &models.Exam{
		UserID:         userID,
		StartedAt:      time.Now(),
		Answers:        datatypes.NewJSONType(models.AnswerSheet{}),
		TotalQuestions: int(total),
	}

	if err := s.repo.Exam().Create(ctx, exam); err != nil {
		return nil, fmt.Errorf("failed to create exam: %w", err)
	}

	s.logger.Info("Exam started",
		"exam_id", exam.ID,
		"user_id", userID,
		"total_questions", exam.TotalQuestions)

	s.publishEvent(ctx, events.EventExamStarted, events.ExamStartedEvent{
		ExamID:         exam.ID,
		UserID:         userID,
		StartedAt:      exam.StartedAt,
		TotalQuestions: exam.TotalQuestions,
	})

	return &StartExamResponse{
		ExamID:    exam.ID,
		StartedAt: exam.StartedAt,
	}, nil
}

// Submit finalizes an in-progress exam: it scores the answer sheet against
// the live active catalog, stamps the finish time and persists everything in
// one conditional update. The exam is terminal afterwards.
func (s *examService) Submit(ctx context.Context, req *SubmitExamRequest, userID string) (*SubmitExamResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, s.asValidationError(err)
	}

	exam, err := s.repo.Exam().GetByID(ctx, req.ExamID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}

	if exam.UserID != userID {
		return nil, ErrExamAccessDenied
	}

	if exam.IsSubmitted() {
		return nil, ErrExamAlreadySubmitted
	}

	questions, err := s.repo.Question().ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active questions: %w", err)
	}

	report := scoring.Score(questions, req.Answers)

	finishedAt := time.Now()
	duration := int(finishedAt.Sub(exam.StartedAt).Seconds())

	civic := report.Categories[models.CategoryCivicKnowledge]
	intelligence := report.Categories[models.CategoryGeneralIntelligence]
	character := report.Categories[models.CategoryPersonalCharacter]

	exam.FinishedAt = &finishedAt
	exam.DurationSeconds = &duration
	exam.Answers = datatypes.NewJSONType(req.Answers)
	exam.CorrectAnswers = &report.Correct
	exam.Percentage = &report.Percentage
	exam.CivicScore = &civic.Score
	exam.CivicTotal = &civic.Total
	exam.IntelligenceScore = &intelligence.Score
	exam.IntelligenceTotal = &intelligence.Total
	exam.CharacterScore = &character.Score
	exam.CharacterTotal = &character.Total
	exam.Passed = &report.Passed

	ok, err := s.repo.Exam().Finalize(ctx, exam)
	if err != nil {
		return nil, fmt.Errorf("failed to finalize exam: %w", err)
	}
	if !ok {
		// Lost a concurrent submit race; the first writer's scores stand.
		return nil, ErrExamAlreadySubmitted
	}

	s.logger.Info("Exam submitted",
		"exam_id", exam.ID,
		"user_id", userID,
		"correct", report.Correct,
		"total", report.Total,
		"percentage", report.Percentage,
		"passed", report.Passed)

	s.publishEvent(ctx, events.EventExamSubmitted, events.ExamSubmittedEvent{
		ExamID:          exam.ID,
		UserID:          userID,
		SubmittedAt:     finishedAt,
		DurationSeconds: duration,
		CorrectAnswers:  report.Correct,
		TotalQuestions:  report.Total,
		Percentage:      report.Percentage,
		Passed:          report.Passed,
	})

	return &SubmitExamResponse{
		ExamID:  exam.ID,
		Results: report,
		Exam:    exam,
	}, nil
}

// History lists the caller's finalized exams, most recent first. In-progress
// exams are excluded.
func (s *examService) History(ctx context.Context, userID string) ([]*models.Exam, error) {
	exams, err := s.repo.Exam().ListFinishedByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list exam history: %w", err)
	}
	return exams, nil
}

// Detail returns one exam together with a per-question review built against
// the live active catalog.
func (s *examService) Detail(ctx context.Context, examID uint, userID string) (*ExamDetailResponse, error) {
	exam, err := s.repo.Exam().GetByID(ctx, examID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}

	if exam.UserID != userID {
		return nil, ErrExamAccessDenied
	}

	questions, err := s.repo.Question().ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active questions: %w", err)
	}

	return &ExamDetailResponse{
		Exam:      exam,
		Questions: scoring.Review(questions, exam.Answers.Data()),
	}, nil
}

// publishEvent is fire-and-forget: notification delivery never fails an exam
// operation.
func (s *examService) publishEvent(ctx context.Context, eventType events.EventType, payload interface{}) {
	event := &events.NotificationEvent{
		ID:        watermill.NewUUID(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    "exam-service",
		Version:   "1.0",
		Data:      payload,
	}
	if err := s.publisher.PublishNotificationEvent(ctx, event); err != nil {
		s.logger.Error("Failed to publish event", "event_type", eventType, "error", err)
	}
}

func (s *examService) asValidationError(err error) error {
	var verrs validatorlib.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.ToValidationErrors(err)
	}
	return fmt.Errorf("%w: %v", ErrValidationFailed, err)
}
