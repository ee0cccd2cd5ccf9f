package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestToDomainError_PassesThroughWrappedDomainErrors(t *testing.T) {
	base := NewForbidden("nope")
	wrapped := fmt.Errorf("while updating: %w", base)

	de := ToDomainError(wrapped)
	if de.Code != CodeForbidden {
		t.Fatalf("expected %s, got %s", CodeForbidden, de.Code)
	}
	if de.HTTPStatus != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", de.HTTPStatus)
	}
}

func TestToDomainError_UnknownErrorBecomesInternal(t *testing.T) {
	cause := errors.New("connection reset by peer")
	de := ToDomainError(cause)
	if de.Code != CodeInternal || de.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal error, got %s/%d", de.Code, de.HTTPStatus)
	}
	if de.Message != "internal server error" {
		t.Fatalf("internal detail leaked into message: %q", de.Message)
	}
	if !errors.Is(de, cause) {
		t.Fatalf("expected cause to stay reachable through Unwrap")
	}
}

func TestToDomainError_Nil(t *testing.T) {
	if ToDomainError(nil) != nil {
		t.Fatalf("expected nil")
	}
}

func TestNewNotFound_Message(t *testing.T) {
	err := NewNotFound("task")
	if err.Error() != "task not found" {
		t.Fatalf("unexpected message %q", err.Error())
	}
	if !HasCode(err, CodeNotFound) {
		t.Fatalf("expected NOT_FOUND code")
	}
}
