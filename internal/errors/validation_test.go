package errors

import (
	"testing"
)

func TestValidationError(t *testing.T) {
	err := NewValidationError("category", "test message", "sports")

	if err.Field != "category" {
		t.Errorf("Expected field to be 'category', got '%s'", err.Field)
	}

	if err.Message != "test message" {
		t.Errorf("Expected message to be 'test message', got '%s'", err.Message)
	}

	if err.Value != "sports" {
		t.Errorf("Expected value to be 'sports', got '%v'", err.Value)
	}

	// Test Error method
	expected := "validation error on field 'category': test message"
	if err.Error() != expected {
		t.Errorf("Expected error message to be '%s', got '%s'", expected, err.Error())
	}
}

func TestValidationErrors(t *testing.T) {
	// Test empty ValidationErrors
	var errs ValidationErrors
	if errs.Error() != "validation failed" {
		t.Errorf("Expected 'validation failed' for empty errors, got '%s'", errs.Error())
	}

	// Test single ValidationError
	errs = append(errs, *NewValidationError("options", "must have exactly 4 entries", nil))
	expected := "validation failed: options must have exactly 4 entries"
	if errs.Error() != expected {
		t.Errorf("Expected '%s' for single error, got '%s'", expected, errs.Error())
	}

	// Test multiple ValidationErrors
	errs = append(errs, *NewValidationError("correct_answer", "must be at most 3", nil))
	expected = "validation failed: 2 field errors"
	if errs.Error() != expected {
		t.Errorf("Expected '%s' for multiple errors, got '%s'", expected, errs.Error())
	}
}

func TestNewValidationErrorWithRule(t *testing.T) {
	err := NewValidationErrorWithRule("category", "test message", "question_category", "sports")

	if err.Rule != "question_category" {
		t.Errorf("Expected rule to be 'question_category', got '%s'", err.Rule)
	}

	if err.Field != "category" {
		t.Errorf("Expected field to be 'category', got '%s'", err.Field)
	}
}
