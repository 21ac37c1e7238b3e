package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"path/filepath"
	"strconv"
	"strings"

	apperrors "github.com/cpns-tryout/exam-service/internal/errors"
	"github.com/cpns-tryout/exam-service/internal/models"
	"github.com/cpns-tryout/exam-service/internal/repositories"
	"github.com/cpns-tryout/exam-service/internal/scoring"
	"github.com/cpns-tryout/exam-service/internal/validator"
	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"
)

// ImportExportService handles bulk question import and result export for
// administrators.
type ImportExportService interface {
	ImportQuestionsFromFile(ctx context.Context, file multipart.File, filename string, creatorID string) (*ImportResult, error)
	ImportQuestionsFromCSV(ctx context.Context, reader io.Reader, creatorID string) (*ImportResult, error)
	ImportQuestionsFromExcel(ctx context.Context, reader io.Reader, creatorID string) (*ImportResult, error)

	ExportQuestionsToCSV(ctx context.Context) ([]byte, error)
	ExportQuestionsToExcel(ctx context.Context) ([]byte, error)

	// ExportExamResults renders a finalized exam as a spreadsheet for the
	// exam's owner.
	ExportExamResults(ctx context.Context, examID uint, userID string) ([]byte, error)
}

type RowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ImportResult struct {
	TotalRows    int                `json:"total_rows"`
	SuccessCount int                `json:"success_count"`
	ErrorCount   int                `json:"error_count"`
	Errors       []RowError         `json:"errors,omitempty"`
	Questions    []*models.Question `json:"questions,omitempty"`
}

type importExportService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewImportExportService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator) ImportExportService {
	return &importExportService{
		repo:      repo,
		logger:    logger,
		validator: v,
	}
}

// importColumns is the required header set for both CSV and Excel imports.
var importColumns = []string{"category", "question", "option_a", "option_b", "option_c", "option_d", "correct_answer"}

func (s *importExportService) ImportQuestionsFromFile(ctx context.Context, file multipart.File, filename string, creatorID string) (*ImportResult, error) {
	s.logger.Info("Starting question import", "filename", filename, "creator_id", creatorID)

	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".csv":
		return s.ImportQuestionsFromCSV(ctx, file, creatorID)
	case ".xlsx", ".xls":
		return s.ImportQuestionsFromExcel(ctx, file, creatorID)
	default:
		return nil, apperrors.NewValidationError("file", "unsupported file format", ext)
	}
}

func (s *importExportService) ImportQuestionsFromCSV(ctx context.Context, reader io.Reader, creatorID string) (*ImportResult, error) {
	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true

	records, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	return s.importRows(ctx, records, creatorID)
}

func (s *importExportService) ImportQuestionsFromExcel(ctx context.Context, reader io.Reader, creatorID string) (*ImportResult, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.NewValidationError("file", "workbook has no sheets", nil)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read Excel rows: %w", err)
	}

	return s.importRows(ctx, rows, creatorID)
}

func (s *importExportService) importRows(ctx context.Context, records [][]string, creatorID string) (*ImportResult, error) {
	if len(records) < 2 {
		return nil, apperrors.NewValidationError("file", "file must have a header row and at least one data row", len(records))
	}

	headerMap := make(map[string]int)
	for i, header := range records[0] {
		headerMap[strings.ToLower(strings.TrimSpace(header))] = i
	}
	for _, col := range importColumns {
		if _, exists := headerMap[col]; !exists {
			return nil, apperrors.NewValidationError("headers", fmt.Sprintf("missing required column: %s", col), col)
		}
	}

	result := &ImportResult{TotalRows: len(records) - 1}
	var questions []*models.Question

	for rowIndex, record := range records[1:] {
		question, rowErrors := s.parseRow(record, headerMap, rowIndex+2, creatorID)
		if len(rowErrors) > 0 {
			result.Errors = append(result.Errors, rowErrors...)
			result.ErrorCount++
			continue
		}
		questions = append(questions, question)
	}

	if len(questions) > 0 {
		if err := s.repo.Question().CreateBatch(ctx, questions); err != nil {
			return nil, fmt.Errorf("failed to save imported questions: %w", err)
		}
	}
	result.SuccessCount = len(questions)
	result.Questions = questions

	s.logger.Info("Question import finished",
		"total_rows", result.TotalRows,
		"imported", result.SuccessCount,
		"errors", result.ErrorCount)

	return result, nil
}

func (s *importExportService) parseRow(record []string, headerMap map[string]int, rowNum int, creatorID string) (*models.Question, []RowError) {
	var errs []RowError

	cell := func(col string) string {
		idx, ok := headerMap[col]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	category := cell("category")
	prompt := cell("question")
	options := []string{cell("option_a"), cell("option_b"), cell("option_c"), cell("option_d")}

	correct, err := strconv.Atoi(cell("correct_answer"))
	if err != nil {
		errs = append(errs, RowError{Row: rowNum, Field: "correct_answer", Message: "must be an integer"})
	}

	req := &CreateQuestionRequest{
		Category:      models.QuestionCategory(category),
		Prompt:        prompt,
		Options:       options,
		CorrectAnswer: correct,
	}
	if verr := s.validator.Validate(req); verr != nil {
		for _, ve := range apperrors.ToValidationErrors(verr) {
			errs = append(errs, RowError{Row: rowNum, Field: ve.Field, Message: ve.Message})
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}

	return &models.Question{
		Category:      req.Category,
		Prompt:        req.Prompt,
		Options:       datatypes.NewJSONSlice(req.Options),
		CorrectAnswer: req.CorrectAnswer,
		IsActive:      true,
		CreatedBy:     creatorID,
	}, nil
}

// ===== EXPORT OPERATIONS =====

func (s *importExportService) ExportQuestionsToCSV(ctx context.Context) ([]byte, error) {
	questions, err := s.allQuestions(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(append([]string{}, append(importColumns, "is_active")...)); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, q := range questions {
		if err := w.Write(questionToRow(q)); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *importExportService) ExportQuestionsToExcel(ctx context.Context) ([]byte, error) {
	questions, err := s.allQuestions(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	header := append([]string{}, append(importColumns, "is_active")...)
	for col, name := range header {
		cellName, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cellName, name)
	}
	for i, q := range questions {
		for col, value := range questionToRow(q) {
			cellName, _ := excelize.CoordinatesToCellName(col+1, i+2)
			f.SetCellValue(sheet, cellName, value)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *importExportService) ExportExamResults(ctx context.Context, examID uint, userID string) ([]byte, error) {
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
	if !exam.IsSubmitted() {
		return nil, ErrExamNotSubmitted
	}

	questions, err := s.repo.Question().ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active questions: %w", err)
	}
	reviews := scoring.Review(questions, exam.Answers.Data())

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	f.SetSheetName(sheet, "Results")
	sheet = "Results"

	f.SetCellValue(sheet, "A1", "Exam ID")
	f.SetCellValue(sheet, "B1", exam.ID)
	f.SetCellValue(sheet, "A2", "Finished At")
	f.SetCellValue(sheet, "B2", exam.FinishedAt.Format("2006-01-02 15:04:05"))
	f.SetCellValue(sheet, "A3", "Correct")
	f.SetCellValue(sheet, "B3", derefInt(exam.CorrectAnswers))
	f.SetCellValue(sheet, "A4", "Percentage")
	f.SetCellValue(sheet, "B4", derefFloat(exam.Percentage))
	f.SetCellValue(sheet, "A5", "Passed")
	f.SetCellValue(sheet, "B5", exam.Passed != nil && *exam.Passed)

	reviewHeader := []string{"Question ID", "Category", "Question", "Correct Answer", "Your Answer", "Correct"}
	for col, name := range reviewHeader {
		cellName, _ := excelize.CoordinatesToCellName(col+1, 7)
		f.SetCellValue(sheet, cellName, name)
	}
	for i, r := range reviews {
		row := i + 8
		answer := ""
		if r.UserAnswer != nil {
			answer = strconv.Itoa(*r.UserAnswer)
		}
		values := []interface{}{r.ID, string(r.Category), r.Prompt, r.CorrectAnswer, answer, r.IsCorrect}
		for col, value := range values {
			cellName, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(sheet, cellName, value)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *importExportService) allQuestions(ctx context.Context) ([]*models.Question, error) {
	questions, _, err := s.repo.Question().List(ctx, repositories.QuestionFilters{SortBy: "id", SortOrder: "asc"})
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	return questions, nil
}

func questionToRow(q *models.Question) []string {
	opts := make([]string, models.QuestionOptionCount)
	copy(opts, q.Options)
	return []string{
		string(q.Category),
		q.Prompt,
		opts[0], opts[1], opts[2], opts[3],
		strconv.Itoa(q.CorrectAnswer),
		strconv.FormatBool(q.IsActive),
	}
}

func derefInt(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

func derefFloat(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
