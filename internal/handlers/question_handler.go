package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/cpns-tryout/exam-service/internal/services"
	"github.com/cpns-tryout/exam-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type QuestionHandler struct {
	BaseHandler
	questionService services.QuestionService
	importExport    services.ImportExportService
}

func NewQuestionHandler(
	questionService services.QuestionService,
	importExport services.ImportExportService,
	logger utils.Logger,
) *QuestionHandler {
	return &QuestionHandler{
		BaseHandler:     NewBaseHandler(logger),
		questionService: questionService,
		importExport:    importExport,
	}
}

// ListQuestions returns the active catalog for exam takers. The correct
// option index is never present in this response.
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	questions, err := h.questionService.ListActive(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: questions})
}

// CreateQuestion creates a new question (admin only)
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	h.LogRequest(c, "Creating question")

	var req services.CreateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID, ok := CurrentUserID(c)
	if !ok {
		return
	}

	question, err := h.questionService.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Message: "Question created successfully",
		Data:    question,
	})
}

// UpdateQuestion applies a partial update to a question (admin only)
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	id := ParseUintParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Updating question", "question_id", id)

	var req services.UpdateQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	question, err := h.questionService.Update(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Question updated successfully",
		Data:    question,
	})
}

// DeactivateQuestion hides a question from future exams (admin only). The
// row is kept so past exams can still be reviewed.
func (h *QuestionHandler) DeactivateQuestion(c *gin.Context) {
	id := ParseUintParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deactivating question", "question_id", id)

	if err := h.questionService.Deactivate(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Question deactivated successfully",
	})
}

// ImportQuestions bulk-loads questions from an uploaded CSV or Excel file
// (admin only)
func (h *QuestionHandler) ImportQuestions(c *gin.Context) {
	h.LogRequest(c, "Importing questions")

	userID, ok := CurrentUserID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing file upload",
			Details: err.Error(),
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Cannot read uploaded file",
			Details: err.Error(),
		})
		return
	}
	defer file.Close()

	result, err := h.importExport.ImportQuestionsFromFile(c.Request.Context(), file, fileHeader.Filename, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Import finished",
		Data:    result,
	})
}

// ExportQuestions streams the full catalog as CSV or XLSX (admin only)
func (h *QuestionHandler) ExportQuestions(c *gin.Context) {
	h.LogRequest(c, "Exporting questions")

	format := c.DefaultQuery("format", "xlsx")

	var (
		data        []byte
		err         error
		contentType string
	)
	switch format {
	case "csv":
		data, err = h.importExport.ExportQuestionsToCSV(c.Request.Context())
		contentType = "text/csv"
	case "xlsx":
		data, err = h.importExport.ExportQuestionsToExcel(c.Request.Context())
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid format",
			Details: "format must be csv or xlsx",
		})
		return
	}
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := "questions-" + time.Now().Format("20060102") + "." + format
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Content-Length", strconv.Itoa(len(data)))
	c.Data(http.StatusOK, contentType, data)
}
