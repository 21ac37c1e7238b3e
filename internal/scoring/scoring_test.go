package scoring

import (
	"testing"

	"github.com/cpns-tryout/exam-service/internal/models"
	"gorm.io/datatypes"
)

func q(id uint, category models.QuestionCategory, correct int) *models.Question {
	return &models.Question{
		ID:            id,
		Category:      category,
		Prompt:        "prompt",
		Options:       datatypes.NewJSONSlice([]string{"a", "b", "c", "d"}),
		CorrectAnswer: correct,
		IsActive:      true,
	}
}

func TestScoreTwoOfThree(t *testing.T) {
	questions := []*models.Question{
		q(1, models.CategoryCivicKnowledge, 1),
		q(2, models.CategoryGeneralIntelligence, 2),
		q(3, models.CategoryPersonalCharacter, 0),
	}
	answers := models.AnswerSheet{1: 1, 2: 2, 3: 3}

	report := Score(questions, answers)

	if report.Correct != 2 {
		t.Errorf("Expected correct to be 2, got %d", report.Correct)
	}
	if report.Total != 3 {
		t.Errorf("Expected total to be 3, got %d", report.Total)
	}
	if report.Percentage != 66.67 {
		t.Errorf("Expected percentage to be 66.67, got %v", report.Percentage)
	}
	if !report.Passed {
		t.Error("Expected a 66.67%% result to pass")
	}
}

func TestScoreEmptyAnswerSheet(t *testing.T) {
	questions := []*models.Question{
		q(1, models.CategoryCivicKnowledge, 0),
		q(2, models.CategoryGeneralIntelligence, 3),
	}

	report := Score(questions, models.AnswerSheet{})

	if report.Correct != 0 {
		t.Errorf("Expected correct to be 0, got %d", report.Correct)
	}
	if report.Percentage != 0.00 {
		t.Errorf("Expected percentage to be 0.00, got %v", report.Percentage)
	}
	if report.Passed {
		t.Error("Expected an unanswered exam to fail")
	}
}

func TestScoreNoActiveQuestions(t *testing.T) {
	report := Score(nil, models.AnswerSheet{1: 0})

	if report.Total != 0 || report.Correct != 0 {
		t.Errorf("Expected zero totals, got correct=%d total=%d", report.Correct, report.Total)
	}
	if report.Percentage != 0 {
		t.Errorf("Expected percentage 0 with no questions, got %v", report.Percentage)
	}
	if report.Passed {
		t.Error("Expected no-question exam not to pass")
	}
}

func TestScoreCategoryBreakdown(t *testing.T) {
	questions := []*models.Question{
		q(1, models.CategoryCivicKnowledge, 0),
		q(2, models.CategoryCivicKnowledge, 1),
		q(3, models.CategoryGeneralIntelligence, 2),
		q(4, models.CategoryPersonalCharacter, 3),
	}
	// civic 2/2, intelligence 0/1, character 1/1
	answers := models.AnswerSheet{1: 0, 2: 1, 3: 0, 4: 3}

	report := Score(questions, answers)

	if report.Correct != 3 || report.Total != 4 {
		t.Errorf("Expected 3/4, got %d/%d", report.Correct, report.Total)
	}
	if report.Percentage != 75.00 {
		t.Errorf("Expected percentage 75.00, got %v", report.Percentage)
	}

	expected := map[models.QuestionCategory]CategoryScore{
		models.CategoryCivicKnowledge:      {Score: 2, Total: 2},
		models.CategoryGeneralIntelligence: {Score: 0, Total: 1},
		models.CategoryPersonalCharacter:   {Score: 1, Total: 1},
	}
	for category, want := range expected {
		got := report.Categories[category]
		if got != want {
			t.Errorf("Category %s: expected %+v, got %+v", category, want, got)
		}
	}
}

func TestScoreOutOfRangeAnswerCountsAsWrong(t *testing.T) {
	questions := []*models.Question{q(1, models.CategoryCivicKnowledge, 2)}

	for _, selected := range []int{-1, 4, 999} {
		report := Score(questions, models.AnswerSheet{1: selected})
		if report.Correct != 0 {
			t.Errorf("Answer %d: expected correct to be 0, got %d", selected, report.Correct)
		}
	}
}

func TestScoreInvariants(t *testing.T) {
	questions := []*models.Question{
		q(1, models.CategoryCivicKnowledge, 0),
		q(2, models.CategoryCivicKnowledge, 1),
		q(3, models.CategoryGeneralIntelligence, 2),
		q(4, models.CategoryGeneralIntelligence, 3),
		q(5, models.CategoryPersonalCharacter, 1),
	}
	sheets := []models.AnswerSheet{
		{},
		{1: 0},
		{1: 0, 2: 1, 3: 2, 4: 3, 5: 1},
		{1: 3, 2: 3, 3: 3, 4: 3, 5: 3},
		{1: 0, 2: 0, 3: 2, 99: 1},
		{1: -5, 2: 12},
	}

	for i, answers := range sheets {
		report := Score(questions, answers)

		sumScore, sumTotal := 0, 0
		for _, cs := range report.Categories {
			sumScore += cs.Score
			sumTotal += cs.Total
		}
		if sumScore != report.Correct {
			t.Errorf("Sheet %d: category scores sum to %d, global correct is %d", i, sumScore, report.Correct)
		}
		if sumTotal != report.Total {
			t.Errorf("Sheet %d: category totals sum to %d, global total is %d", i, sumTotal, report.Total)
		}
		if report.Percentage < 0 || report.Percentage > 100 {
			t.Errorf("Sheet %d: percentage %v out of [0,100]", i, report.Percentage)
		}
		if report.Passed != (report.Percentage >= PassThreshold) {
			t.Errorf("Sheet %d: passed=%v inconsistent with percentage %v", i, report.Passed, report.Percentage)
		}
	}
}

func TestReview(t *testing.T) {
	questions := []*models.Question{
		q(1, models.CategoryCivicKnowledge, 1),
		q(2, models.CategoryGeneralIntelligence, 2),
	}
	answers := models.AnswerSheet{1: 1}

	reviews := Review(questions, answers)

	if len(reviews) != 2 {
		t.Fatalf("Expected 2 review rows, got %d", len(reviews))
	}

	first := reviews[0]
	if first.UserAnswer == nil || *first.UserAnswer != 1 {
		t.Errorf("Expected recorded answer 1, got %v", first.UserAnswer)
	}
	if !first.IsCorrect {
		t.Error("Expected first answer to be marked correct")
	}
	if first.CorrectAnswer != 1 {
		t.Errorf("Expected review to expose correct answer 1, got %d", first.CorrectAnswer)
	}

	second := reviews[1]
	if second.UserAnswer != nil {
		t.Errorf("Expected unanswered question to have nil answer, got %v", *second.UserAnswer)
	}
	if second.IsCorrect {
		t.Error("Expected unanswered question to be marked incorrect")
	}
}
