// # internal/core/errors/errors_test.go
package errors

import (
	"errors"
	"testing"
)

func TestDomainError(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		err := New(CodeNotFound, "config file not found")
		if err.Error() != "[NOT_FOUND] config file not found" {
			t.Errorf("expected [NOT_FOUND] config file not found, got %s", err.Error())
		}
	})

	t.Run("Wrap", func(t *testing.T) {
		original := errors.New("syntax error at byte 12")
		err := Wrap(original, CodeParseError, "parse failed")
		expected := "[PARSE_ERROR] parse failed: syntax error at byte 12"
		if err.Error() != expected {
			t.Errorf("expected %s, got %s", expected, err.Error())
		}
	})

	t.Run("AddContext", func(t *testing.T) {
		err := New(CodeScopeError, "no binding for nonlocal name")
		err = AddContext(err, CtxPath, "pkg/module.py")
		var de *DomainError
		if !errors.As(err, &de) {
			t.Fatal("expected a DomainError")
		}
		if de.Context[CtxPath] != "pkg/module.py" {
			t.Errorf("expected path context, got %v", de.Context)
		}
	})

	t.Run("IsCode", func(t *testing.T) {
		err := New(CodeValidationError, "unknown dialect")
		if !IsCode(err, CodeValidationError) {
			t.Error("expected IsCode to return true for CodeValidationError")
		}
		if IsCode(err, CodeNotFound) {
			t.Error("expected IsCode to return false for CodeNotFound")
		}
	})

	t.Run("IsCodeWithWrapped", func(t *testing.T) {
		original := errors.New("disk full")
		err := Wrap(original, CodeInternal, "history write failed")
		if !IsCode(err, CodeInternal) {
			t.Error("expected IsCode to return true for wrapped CodeInternal")
		}
	})
}
