package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("confirm lunchbox: %w", Forbidden("lunchbox %d belongs to another user", 7))

	if got := KindOf(err); got != KindForbidden {
		t.Errorf("kind = %q, want %q", got, KindForbidden)
	}
	if !Is(err, KindForbidden) {
		t.Error("expected Is(err, KindForbidden)")
	}
	if Is(err, KindNotFound) {
		t.Error("did not expect Is(err, KindNotFound)")
	}
}

func TestKindOfPlainError(t *testing.T) {
	if got := KindOf(errors.New("disk full")); got != "" {
		t.Errorf("kind = %q, want empty", got)
	}
	if Is(nil, KindNotFound) {
		t.Error("nil error should match no kind")
	}
}

func TestErrorMessage(t *testing.T) {
	err := NotFound("food item %d not found", 42)
	if err.Error() != "food item 42 not found" {
		t.Errorf("message = %q", err.Error())
	}

	cause := errors.New("UNIQUE constraint failed: users.email")
	wrapped := Wrap(KindConflict, cause, "email already registered")
	if !errors.Is(wrapped, cause) {
		t.Error("expected wrapped error to unwrap to cause")
	}
	if wrapped.Message != "email already registered" {
		t.Errorf("message = %q", wrapped.Message)
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindNotFound, http.StatusNotFound},
		{KindForbidden, http.StatusForbidden},
		{KindPermission, http.StatusForbidden},
		{KindValidation, http.StatusBadRequest},
		{KindConflict, http.StatusConflict},
		{KindUnauthorized, http.StatusUnauthorized},
		{"", http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := HTTPStatus(tt.kind); got != tt.want {
			t.Errorf("HTTPStatus(%q) = %d, want %d", tt.kind, got, tt.want)
		}
	}
}
