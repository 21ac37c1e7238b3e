package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cpns-tryout/exam-service/internal/cache"
	apperrors "github.com/cpns-tryout/exam-service/internal/errors"
	"github.com/cpns-tryout/exam-service/internal/models"
	"github.com/cpns-tryout/exam-service/internal/repositories"
	"github.com/cpns-tryout/exam-service/internal/validator"
	validatorlib "github.com/go-playground/validator/v10"
	"gorm.io/datatypes"
)

const (
	activeQuestionsCacheKey = "questions:active"
	questionsCachePattern   = "questions:*"
	questionsCacheTTL       = 5 * time.Minute
)

// QuestionView is a question as shown to an exam taker: the correct option
// index is withheld.
type QuestionView struct {
	ID       uint                    `json:"id"`
	Category models.QuestionCategory `json:"category"`
	Prompt   string                  `json:"question"`
	Options  []string                `json:"options"`
}

type CreateQuestionRequest struct {
	Category      models.QuestionCategory `json:"category" validate:"required,question_category"`
	Prompt        string                  `json:"question" validate:"required"`
	Options       []string                `json:"options" validate:"required,len=4,dive,required"`
	CorrectAnswer int                     `json:"correct_answer" validate:"answer_index"`
}

// UpdateQuestionRequest carries partial updates; nil fields are left alone.
type UpdateQuestionRequest struct {
	Category      *models.QuestionCategory `json:"category" validate:"omitempty,question_category"`
	Prompt        *string                  `json:"question" validate:"omitempty,min=1"`
	Options       []string                 `json:"options" validate:"omitempty,len=4,dive,required"`
	CorrectAnswer *int                     `json:"correct_answer" validate:"omitempty,answer_index"`
	IsActive      *bool                    `json:"is_active"`
}

type QuestionService interface {
	// ListActive returns the catalog an exam is taken against, correct
	// answers withheld.
	ListActive(ctx context.Context) ([]*QuestionView, error)

	// Admin catalog management.
	Create(ctx context.Context, req *CreateQuestionRequest, creatorID string) (*models.Question, error)
	Update(ctx context.Context, id uint, req *UpdateQuestionRequest) (*models.Question, error)
	Deactivate(ctx context.Context, id uint) error
	List(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, int64, error)
}

type questionService struct {
	repo      repositories.Repository
	cache     cache.CacheService
	logger    *slog.Logger
	validator *validator.Validator
}

func NewQuestionService(repo repositories.Repository, cacheService cache.CacheService, logger *slog.Logger, v *validator.Validator) QuestionService {
	return &questionService{
		repo:      repo,
		cache:     cacheService,
		logger:    logger,
		validator: v,
	}
}

func (s *questionService) ListActive(ctx context.Context) ([]*QuestionView, error) {
	var views []*QuestionView
	if err := s.cache.Get(ctx, activeQuestionsCacheKey, &views); err == nil {
		return views, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("Active question cache read failed", "error", err)
	}

	questions, err := s.repo.Question().ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active questions: %w", err)
	}

	views = make([]*QuestionView, len(questions))
	for i, q := range questions {
		views[i] = &QuestionView{
			ID:       q.ID,
			Category: q.Category,
			Prompt:   q.Prompt,
			Options:  []string(q.Options),
		}
	}

	if err := s.cache.Set(ctx, activeQuestionsCacheKey, views, questionsCacheTTL); err != nil {
		s.logger.Warn("Active question cache write failed", "error", err)
	}

	return views, nil
}

func (s *questionService) Create(ctx context.Context, req *CreateQuestionRequest, creatorID string) (*models.Question, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, s.asValidationError(err)
	}

	question := &models.Question{
		Category:      req.Category,
		Prompt:        req.Prompt,
		Options:       datatypes.NewJSONSlice(req.Options),
		CorrectAnswer: req.CorrectAnswer,
		IsActive:      true,
		CreatedBy:     creatorID,
	}

	if err := s.repo.Question().Create(ctx, question); err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}

	s.invalidateCatalogCache(ctx)

	s.logger.Info("Question created",
		"question_id", question.ID,
		"category", question.Category,
		"created_by", creatorID)

	return question, nil
}

func (s *questionService) Update(ctx context.Context, id uint, req *UpdateQuestionRequest) (*models.Question, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, s.asValidationError(err)
	}

	question, err := s.repo.Question().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("failed to get question: %w", err)
	}

	if req.Category != nil {
		question.Category = *req.Category
	}
	if req.Prompt != nil {
		question.Prompt = *req.Prompt
	}
	if req.Options != nil {
		question.Options = datatypes.NewJSONSlice(req.Options)
	}
	if req.CorrectAnswer != nil {
		question.CorrectAnswer = *req.CorrectAnswer
	}
	if req.IsActive != nil {
		question.IsActive = *req.IsActive
	}

	if err := s.repo.Question().Update(ctx, question); err != nil {
		return nil, fmt.Errorf("failed to update question: %w", err)
	}

	s.invalidateCatalogCache(ctx)

	s.logger.Info("Question updated", "question_id", question.ID)

	return question, nil
}

func (s *questionService) Deactivate(ctx context.Context, id uint) error {
	question, err := s.repo.Question().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("failed to get question: %w", err)
	}

	if !question.IsActive {
		return nil
	}

	question.IsActive = false
	if err := s.repo.Question().Update(ctx, question); err != nil {
		return fmt.Errorf("failed to deactivate question: %w", err)
	}

	s.invalidateCatalogCache(ctx)

	s.logger.Info("Question deactivated", "question_id", id)

	return nil
}

func (s *questionService) List(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	questions, total, err := s.repo.Question().List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list questions: %w", err)
	}
	return questions, total, nil
}

func (s *questionService) invalidateCatalogCache(ctx context.Context) {
	if err := s.cache.DeletePattern(ctx, questionsCachePattern); err != nil {
		s.logger.Warn("Failed to invalidate question cache", "error", err)
	}
}

func (s *questionService) asValidationError(err error) error {
	var verrs validatorlib.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.ToValidationErrors(err)
	}
	return fmt.Errorf("%w: %v", ErrValidationFailed, err)
}
