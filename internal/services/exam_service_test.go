package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/cpns-tryout/exam-service/internal/events"
	"github.com/cpns-tryout/exam-service/internal/models"
	"github.com/cpns-tryout/exam-service/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newExamServiceForTest(repo *mockRepository) (ExamService, *events.MockEventPublisher) {
	publisher := events.NewMockEventPublisher(testLogger())
	svc := NewExamService(repo, publisher, testLogger(), validator.New())
	return svc, publisher
}

func activeQuestion(id uint, category models.QuestionCategory, correct int) *models.Question {
	return &models.Question{
		ID:            id,
		Category:      category,
		Prompt:        "question",
		Options:       datatypes.NewJSONSlice([]string{"a", "b", "c", "d"}),
		CorrectAnswer: correct,
		IsActive:      true,
	}
}

func TestStartExam(t *testing.T) {
	repo := newMockRepository()
	svc, publisher := newExamServiceForTest(repo)

	repo.question.On("CountActive", mock.Anything).Return(int64(3), nil)
	repo.exam.On("Create", mock.Anything, mock.AnythingOfType("*models.Exam")).Return(nil)

	resp, err := svc.Start(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, uint(1), resp.ExamID)
	assert.False(t, resp.StartedAt.IsZero())

	published := publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventExamStarted, published[0].Type)

	repo.exam.AssertCalled(t, "Create", mock.Anything, mock.MatchedBy(func(e *models.Exam) bool {
		return e.UserID == "user-1" && e.TotalQuestions == 3 && e.FinishedAt == nil
	}))
	repo.question.AssertExpectations(t)
	repo.exam.AssertExpectations(t)
}

func TestSubmitExam(t *testing.T) {
	repo := newMockRepository()
	svc, publisher := newExamServiceForTest(repo)

	started := time.Now().Add(-10 * time.Minute)
	exam := &models.Exam{
		ID:             7,
		UserID:         "user-1",
		StartedAt:      started,
		TotalQuestions: 3,
	}
	questions := []*models.Question{
		activeQuestion(1, models.CategoryCivicKnowledge, 1),
		activeQuestion(2, models.CategoryGeneralIntelligence, 2),
		activeQuestion(3, models.CategoryPersonalCharacter, 0),
	}

	repo.exam.On("GetByID", mock.Anything, uint(7)).Return(exam, nil)
	repo.question.On("ListActive", mock.Anything).Return(questions, nil)
	repo.exam.On("Finalize", mock.Anything, exam).Return(true, nil)

	resp, err := svc.Submit(context.Background(), &SubmitExamRequest{
		ExamID:  7,
		Answers: models.AnswerSheet{1: 1, 2: 2, 3: 3},
	}, "user-1")

	require.NoError(t, err)
	assert.Equal(t, 2, resp.Results.Correct)
	assert.Equal(t, 3, resp.Results.Total)
	assert.Equal(t, 66.67, resp.Results.Percentage)
	assert.True(t, resp.Results.Passed)

	require.NotNil(t, exam.FinishedAt)
	require.NotNil(t, exam.DurationSeconds)
	assert.GreaterOrEqual(t, *exam.DurationSeconds, 600)
	assert.Equal(t, 2, *exam.CorrectAnswers)
	assert.Equal(t, 66.67, *exam.Percentage)
	assert.Equal(t, 1, *exam.CivicScore)
	assert.Equal(t, 1, *exam.CivicTotal)
	assert.Equal(t, 1, *exam.IntelligenceScore)
	assert.Equal(t, 0, *exam.CharacterScore)
	assert.True(t, *exam.Passed)

	published := publisher.GetPublishedEvents()
	require.Len(t, published, 1)
	assert.Equal(t, events.EventExamSubmitted, published[0].Type)

	repo.exam.AssertExpectations(t)
	repo.question.AssertExpectations(t)
}

func TestSubmitExamEmptyAnswerSheet(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newExamServiceForTest(repo)

	exam := &models.Exam{ID: 8, UserID: "user-1", StartedAt: time.Now(), TotalQuestions: 2}
	questions := []*models.Question{
		activeQuestion(1, models.CategoryCivicKnowledge, 0),
		activeQuestion(2, models.CategoryPersonalCharacter, 1),
	}

	repo.exam.On("GetByID", mock.Anything, uint(8)).Return(exam, nil)
	repo.question.On("ListActive", mock.Anything).Return(questions, nil)
	repo.exam.On("Finalize", mock.Anything, exam).Return(true, nil)

	resp, err := svc.Submit(context.Background(), &SubmitExamRequest{
		ExamID:  8,
		Answers: models.AnswerSheet{},
	}, "user-1")

	require.NoError(t, err)
	assert.Equal(t, 0, resp.Results.Correct)
	assert.Equal(t, 0.0, resp.Results.Percentage)
	assert.False(t, resp.Results.Passed)
}

func TestSubmitExamAlreadySubmitted(t *testing.T) {
	repo := newMockRepository()
	svc, publisher := newExamServiceForTest(repo)

	finished := time.Now()
	exam := &models.Exam{ID: 9, UserID: "user-1", StartedAt: finished.Add(-time.Hour), FinishedAt: &finished}

	repo.exam.On("GetByID", mock.Anything, uint(9)).Return(exam, nil)

	_, err := svc.Submit(context.Background(), &SubmitExamRequest{ExamID: 9}, "user-1")

	assert.ErrorIs(t, err, ErrExamAlreadySubmitted)
	assert.True(t, IsConflict(err))
	repo.exam.AssertNotCalled(t, "Finalize", mock.Anything, mock.Anything)
	assert.Empty(t, publisher.GetPublishedEvents())
}

func TestSubmitExamLosesRace(t *testing.T) {
	repo := newMockRepository()
	svc, publisher := newExamServiceForTest(repo)

	exam := &models.Exam{ID: 10, UserID: "user-1", StartedAt: time.Now()}
	questions := []*models.Question{activeQuestion(1, models.CategoryCivicKnowledge, 0)}

	repo.exam.On("GetByID", mock.Anything, uint(10)).Return(exam, nil)
	repo.question.On("ListActive", mock.Anything).Return(questions, nil)
	repo.exam.On("Finalize", mock.Anything, exam).Return(false, nil)

	_, err := svc.Submit(context.Background(), &SubmitExamRequest{
		ExamID:  10,
		Answers: models.AnswerSheet{1: 0},
	}, "user-1")

	assert.ErrorIs(t, err, ErrExamAlreadySubmitted)
	assert.Empty(t, publisher.GetPublishedEvents())
}

func TestSubmitExamAccessDenied(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newExamServiceForTest(repo)

	exam := &models.Exam{ID: 11, UserID: "owner", StartedAt: time.Now()}

	repo.exam.On("GetByID", mock.Anything, uint(11)).Return(exam, nil)

	_, err := svc.Submit(context.Background(), &SubmitExamRequest{ExamID: 11}, "intruder")

	assert.ErrorIs(t, err, ErrExamAccessDenied)
	assert.True(t, IsUnauthorized(err))
	repo.exam.AssertNotCalled(t, "Finalize", mock.Anything, mock.Anything)
}

func TestSubmitExamNotFound(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newExamServiceForTest(repo)

	repo.exam.On("GetByID", mock.Anything, uint(404)).Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.Submit(context.Background(), &SubmitExamRequest{ExamID: 404}, "user-1")

	assert.ErrorIs(t, err, ErrExamNotFound)
	assert.True(t, IsNotFound(err))
}

func TestSubmitExamRejectsOutOfRangeAnswer(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newExamServiceForTest(repo)

	_, err := svc.Submit(context.Background(), &SubmitExamRequest{
		ExamID:  12,
		Answers: models.AnswerSheet{1: 7},
	}, "user-1")

	require.Error(t, err)
	assert.True(t, IsValidation(err))
	repo.exam.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestExamHistory(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newExamServiceForTest(repo)

	finished := time.Now()
	exams := []*models.Exam{
		{ID: 2, UserID: "user-1", FinishedAt: &finished},
		{ID: 1, UserID: "user-1", FinishedAt: &finished},
	}

	repo.exam.On("ListFinishedByUser", mock.Anything, "user-1").Return(exams, nil)

	got, err := svc.History(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, exams, got)
}

func TestExamDetail(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newExamServiceForTest(repo)

	finished := time.Now()
	exam := &models.Exam{
		ID:         3,
		UserID:     "user-1",
		StartedAt:  finished.Add(-time.Hour),
		FinishedAt: &finished,
		Answers:    datatypes.NewJSONType(models.AnswerSheet{1: 1, 2: 0}),
	}
	questions := []*models.Question{
		activeQuestion(1, models.CategoryCivicKnowledge, 1),
		activeQuestion(2, models.CategoryGeneralIntelligence, 3),
	}

	repo.exam.On("GetByID", mock.Anything, uint(3)).Return(exam, nil)
	repo.question.On("ListActive", mock.Anything).Return(questions, nil)

	resp, err := svc.Detail(context.Background(), 3, "user-1")

	require.NoError(t, err)
	require.Len(t, resp.Questions, 2)
	assert.True(t, resp.Questions[0].IsCorrect)
	assert.Equal(t, 1, resp.Questions[0].CorrectAnswer)
	assert.False(t, resp.Questions[1].IsCorrect)
}

func TestExamDetailAccessDenied(t *testing.T) {
	repo := newMockRepository()
	svc, _ := newExamServiceForTest(repo)

	exam := &models.Exam{ID: 4, UserID: "owner"}

	repo.exam.On("GetByID", mock.Anything, uint(4)).Return(exam, nil)

	_, err := svc.Detail(context.Background(), 4, "intruder")

	assert.ErrorIs(t, err, ErrExamAccessDenied)
	repo.question.AssertNotCalled(t, "ListActive", mock.Anything)
}
