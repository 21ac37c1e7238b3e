package validator

import (
	"reflect"
	"strings"

	"github.com/cpns-tryout/exam-service/internal/models"
	"github.com/go-playground/validator/v10"
)

// Validator wraps go-playground struct validation with the custom tags the
// exam domain needs.
type Validator struct {
	structValidator *validator.Validate
}

// New creates a new validator instance with all custom tags registered.
func New() *Validator {
	structValidator := validator.New()
	registerCustomValidators(structValidator)

	return &Validator{
		structValidator: structValidator,
	}
}

// Validate validates struct tags and returns the raw validator error, which
// handlers translate through errors.ToValidationErrors.
func (v *Validator) Validate(s interface{}) error {
	return v.structValidator.Struct(s)
}

// registerCustomValidators registers all custom validation functions
func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("question_category", validateQuestionCategory)
	validate.RegisterValidation("answer_index", validateAnswerIndex)

	// Custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

func validateQuestionCategory(fl validator.FieldLevel) bool {
	return models.QuestionCategory(fl.Field().String()).IsValid()
}

func validateAnswerIndex(fl validator.FieldLevel) bool {
	idx := fl.Field().Int()
	return idx >= 0 && idx < models.QuestionOptionCount
}
