package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestRecover_WithPanic(t *testing.T) {
	testFunc := func() (err error) {
		defer Recover(&err, "dt.Fit")
		panic("index out of range")
	}

	err := testFunc()
	if err == nil {
		t.Fatal("Expected error from recovered panic, got nil")
	}

	var panicErr *PanicError
	if !errors.As(err, &panicErr) {
		t.Fatalf("Expected PanicError, got %T", err)
	}
	if panicErr.Operation != "dt.Fit" {
		t.Errorf("Expected operation 'dt.Fit', got '%s'", panicErr.Operation)
	}
	if panicErr.StackTrace == "" {
		t.Error("Expected non-empty stack trace")
	}
	if want := "panic in dt.Fit: index out of range"; panicErr.Error() != want {
		t.Errorf("Error() = %q, want %q", panicErr.Error(), want)
	}
	if !strings.Contains(panicErr.String(), "Stack trace:") {
		t.Error("String() should include the stack trace")
	}
}

func TestRecover_WithExistingError(t *testing.T) {
	original := fmt.Errorf("solver diverged")
	testFunc := func() (err error) {
		defer Recover(&err, "svm.Fit")
		err = original
		panic("nil weights")
	}

	err := testFunc()
	if !errors.Is(err, original) {
		t.Errorf("expected the original error to stay in the chain, got %v", err)
	}
	if !strings.Contains(err.Error(), "nil weights") {
		t.Errorf("expected panic value in message, got %q", err.Error())
	}
}

func TestSafeExecute(t *testing.T) {
	tests := []struct {
		name      string
		fn        func() error
		wantErr   bool
		wantPanic bool
	}{
		{name: "success", fn: func() error { return nil }},
		{name: "returned error", fn: func() error { return fmt.Errorf("boom") }, wantErr: true},
		{name: "panic", fn: func() error { panic("boom") }, wantErr: true, wantPanic: true},
		{name: "panic with error value", fn: func() error { panic(fmt.Errorf("boom")) }, wantErr: true, wantPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := SafeExecute("evaluate", tt.fn)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SafeExecute() error = %v, wantErr %v", err, tt.wantErr)
			}
			var panicErr *PanicError
			if got := errors.As(err, &panicErr); got != tt.wantPanic {
				t.Errorf("PanicError = %v, want %v", got, tt.wantPanic)
			}
		})
	}
}
