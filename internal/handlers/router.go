package handlers

import (
	"github.com/cpns-tryout/exam-service/internal/repositories"
	"github.com/cpns-tryout/exam-service/internal/services"
	"github.com/cpns-tryout/exam-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type HandlerManager struct {
	questionHandler *QuestionHandler
	examHandler     *ExamHandler
	userRepo        repositories.UserRepository
	logger          utils.Logger
}

func NewHandlerManager(
	questionService services.QuestionService,
	examService services.ExamService,
	importExport services.ImportExportService,
	userRepo repositories.UserRepository,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		questionHandler: NewQuestionHandler(questionService, importExport, logger),
		examHandler:     NewExamHandler(examService, importExport, logger),
		userRepo:        userRepo,
		logger:          logger,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "exam-service",
		})
	})

	v1 := router.Group("/api/v1")
	v1.Use(AuthRequired(hm.userRepo, hm.logger))
	{
		// Question catalog
		questions := v1.Group("/questions")
		{
			questions.GET("", hm.questionHandler.ListQuestions)

			admin := questions.Group("")
			admin.Use(AdminRequired())
			{
				admin.POST("", hm.questionHandler.CreateQuestion)
				admin.PUT("/:id", hm.questionHandler.UpdateQuestion)
				admin.DELETE("/:id", hm.questionHandler.DeactivateQuestion)
				admin.POST("/import", hm.questionHandler.ImportQuestions)
				admin.GET("/export", hm.questionHandler.ExportQuestions)
			}
		}

		// Exams
		exams := v1.Group("/exams")
		{
			exams.POST("/start", hm.examHandler.StartExam)
			exams.POST("/submit", hm.examHandler.SubmitExam)
			exams.GET("/history", hm.examHandler.ExamHistory)
			exams.GET("/:id", hm.examHandler.ExamDetail)
			exams.GET("/:id/export", hm.examHandler.ExportExamResults)
		}
	}
}
