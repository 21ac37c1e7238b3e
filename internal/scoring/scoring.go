// Package scoring computes exam results. It is pure: callers pass the active
// question set and the submitted answer sheet, persistence of the report is
// their problem.
package scoring

import (
	"math"

	"github.com/cpns-tryout/exam-service/internal/models"
)

// PassThreshold is the fixed passing grade in percent.
const PassThreshold = 65.0

type CategoryScore struct {
	Score int `json:"score"`
	Total int `json:"total"`
}

type Report struct {
	Correct    int                                       `json:"correct"`
	Total      int                                       `json:"total"`
	Percentage float64                                   `json:"percentage"`
	Passed     bool                                      `json:"passed"`
	Categories map[models.QuestionCategory]CategoryScore `json:"categories"`
}

// Score runs one pass over the active questions. An answer that is missing or
// outside the option range never matches the correct index and counts as
// incorrect; category totals come from the question set passed in, which is
// the live catalog at scoring time, not the snapshot taken at start.
func Score(questions []*models.Question, answers models.AnswerSheet) *Report {
	report := &Report{
		Categories: make(map[models.QuestionCategory]CategoryScore, len(models.AllCategories)),
	}
	for _, c := range models.AllCategories {
		report.Categories[c] = CategoryScore{}
	}

	for _, q := range questions {
		cs := report.Categories[q.Category]
		cs.Total++

		if selected, ok := answers[q.ID]; ok && selected == q.CorrectAnswer {
			cs.Score++
			report.Correct++
		}

		report.Categories[q.Category] = cs
		report.Total++
	}

	if report.Total > 0 {
		report.Percentage = round2(float64(report.Correct) / float64(report.Total) * 100)
	}
	report.Passed = report.Percentage >= PassThreshold

	return report
}

// QuestionReview is one row of the post-submit answer review. Unlike the
// exam-taking view it does expose the correct index.
type QuestionReview struct {
	ID            uint                    `json:"id"`
	Category      models.QuestionCategory `json:"category"`
	Prompt        string                  `json:"question"`
	Options       []string                `json:"options"`
	CorrectAnswer int                     `json:"correct_answer"`
	UserAnswer    *int                    `json:"user_answer"`
	IsCorrect     bool                    `json:"is_correct"`
}

// Review pairs each active question with the user's recorded answer.
func Review(questions []*models.Question, answers models.AnswerSheet) []QuestionReview {
	reviews := make([]QuestionReview, 0, len(questions))
	for _, q := range questions {
		review := QuestionReview{
			ID:            q.ID,
			Category:      q.Category,
			Prompt:        q.Prompt,
			Options:       []string(q.Options),
			CorrectAnswer: q.CorrectAnswer,
		}
		if selected, ok := answers[q.ID]; ok {
			review.UserAnswer = &selected
			review.IsCorrect = selected == q.CorrectAnswer
		}
		reviews = append(reviews, review)
	}
	return reviews
}

// round2 rounds half away from zero to two decimals, matching how the stored
// percentage column is declared.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
