package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/cpns-tryout/exam-service/internal/services"
	"github.com/cpns-tryout/exam-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type ExamHandler struct {
	BaseHandler
	examService  services.ExamService
	importExport services.ImportExportService
}

func NewExamHandler(
	examService services.ExamService,
	importExport services.ImportExportService,
	logger utils.Logger,
) *ExamHandler {
	return &ExamHandler{
		BaseHandler:  NewBaseHandler(logger),
		examService:  examService,
		importExport: importExport,
	}
}

// StartExam opens a new exam session for the caller
func (h *ExamHandler) StartExam(c *gin.Context) {
	h.LogRequest(c, "Starting exam")

	userID, ok := CurrentUserID(c)
	if !ok {
		return
	}

	resp, err := h.examService.Start(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SuccessResponse{
		Message: "Exam started",
		Data:    resp,
	})
}

// SubmitExam finalizes an exam session and returns the score report
func (h *ExamHandler) SubmitExam(c *gin.Context) {
	h.LogRequest(c, "Submitting exam")

	var req services.SubmitExamRequest
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

	resp, err := h.examService.Submit(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Exam submitted successfully",
		Data:    resp,
	})
}

// ExamHistory lists the caller's finalized exams, most recent first
func (h *ExamHandler) ExamHistory(c *gin.Context) {
	userID, ok := CurrentUserID(c)
	if !ok {
		return
	}

	exams, err := h.examService.History(c.Request.Context(), userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: exams})
}

// ExamDetail returns one exam with its per-question answer review
func (h *ExamHandler) ExamDetail(c *gin.Context) {
	id := ParseUintParam(c, "id")
	if id == 0 {
		return
	}

	userID, ok := CurrentUserID(c)
	if !ok {
		return
	}

	detail, err := h.examService.Detail(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Data: detail})
}

// ExportExamResults streams a finalized exam as an XLSX workbook
func (h *ExamHandler) ExportExamResults(c *gin.Context) {
	id := ParseUintParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Exporting exam results", "exam_id", id)

	userID, ok := CurrentUserID(c)
	if !ok {
		return
	}

	data, err := h.importExport.ExportExamResults(c.Request.Context(), id, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := "exam-" + strconv.FormatUint(uint64(id), 10) + "-" + time.Now().Format("20060102") + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Content-Length", strconv.Itoa(len(data)))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
