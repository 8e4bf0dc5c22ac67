package apperr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/DjordjeVuckovic/jart-trainer/internal/apperr"
)

func TestNewValidation(t *testing.T) {
	err := apperr.NewValidation("field is required")

	if err.Error() != "field is required" {
		t.Errorf("expected 'field is required', got %q", err.Error())
	}
	if err.Unwrap() != nil {
		t.Errorf("expected nil unwrap, got %v", err.Unwrap())
	}
}

func TestNewValidationWrap(t *testing.T) {
	inner := fmt.Errorf("parse failed")
	err := apperr.NewValidationWrap("invalid expression", inner)

	if err.Error() != "invalid expression: parse failed" {
		t.Errorf("expected 'invalid expression: parse failed', got %q", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("expected Unwrap to return inner error")
	}
}

func TestValidationError_SurvivesFmtWrapping(t *testing.T) {
	original := apperr.NewValidation("empty parentheses")

	wrapped := fmt.Errorf("failed to parse: %w", original)
	doubleWrapped := fmt.Errorf("storage error: %w", wrapped)

	var ve *apperr.ValidationError
	if !errors.As(doubleWrapped, &ve) {
		t.Fatal("errors.As should find ValidationError through double wrapping")
	}
	if ve.Message != "empty parentheses" {
		t.Errorf("expected 'empty parentheses', got %q", ve.Message)
	}
}

func TestValidationError_NotFoundForPlainErrors(t *testing.T) {
	plain := fmt.Errorf("database connection failed")
	wrapped := fmt.Errorf("storage error: %w", plain)

	var ve *apperr.ValidationError
	if errors.As(wrapped, &ve) {
		t.Fatal("errors.As should NOT find ValidationError in plain error chain")
	}
}

func TestConfigError_MissingKey(t *testing.T) {
	err := apperr.NewMissingKey("noise.ldet.upper_bound")
	wrapped := fmt.Errorf("load config: %w", err)

	var ce *apperr.ConfigError
	if !errors.As(wrapped, &ce) {
		t.Fatal("errors.As should find ConfigError")
	}
	if ce.Key != "noise.ldet.upper_bound" {
		t.Errorf("expected key 'noise.ldet.upper_bound', got %q", ce.Key)
	}
	if !errors.Is(wrapped, apperr.ErrMissingKey) {
		t.Error("expected ErrMissingKey in chain")
	}
	if err.Error() != "configuration: key noise.ldet.upper_bound: required key is missing" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestConfigError_WithPath(t *testing.T) {
	inner := fmt.Errorf("open noise_free.yml: no such file or directory")
	err := apperr.NewConfigWrap("noise_free.yml", inner)

	if err.Error() != "configuration noise_free.yml: open noise_free.yml: no such file or directory" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, inner) {
		t.Error("expected Unwrap to return inner error")
	}
}

func TestLibraryError(t *testing.T) {
	inner := fmt.Errorf("shape mismatch")
	err := apperr.NewLibrary("forward", inner)

	if err.Error() != "forward: shape mismatch" {
		t.Errorf("unexpected message %q", err.Error())
	}

	var le *apperr.LibraryError
	if !errors.As(fmt.Errorf("repeat 0: %w", err), &le) {
		t.Fatal("errors.As should find LibraryError")
	}
	if le.Op != "forward" {
		t.Errorf("expected op 'forward', got %q", le.Op)
	}
}
