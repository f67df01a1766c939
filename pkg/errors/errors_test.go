package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataFor(t *testing.T) {
	if got := MetadataFor(CodeInsufficientFunds).HTTPStatus; got != http.StatusUnprocessableEntity {
		t.Fatalf("insufficient funds should map to 422, got %d", got)
	}
	if got := MetadataFor(Code("made_up")).HTTPStatus; got != http.StatusInternalServerError {
		t.Fatalf("unknown codes should map to 500, got %d", got)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("row locked")
	err := Wrap(CodeConflict, cause, "debit wallet")

	if !stdErrors.Is(err, cause) {
		t.Fatal("wrapped error should match its cause with errors.Is")
	}
	if err.Code() != CodeConflict {
		t.Fatalf("unexpected code %s", err.Code())
	}
	if err.Error() != "CONFLICT: debit wallet" {
		t.Fatalf("unexpected rendering %q", err.Error())
	}
}

func TestAsThroughWrapping(t *testing.T) {
	inner := New(CodeNotFound, "order not found")
	outer := fmt.Errorf("handling request: %w", inner)

	typed := As(outer)
	if typed == nil || typed.Code() != CodeNotFound {
		t.Fatalf("expected typed NOT_FOUND error, got %v", typed)
	}
	if !IsCode(outer, CodeNotFound) {
		t.Fatal("IsCode should see through wrapping")
	}
}

func TestWithDetails(t *testing.T) {
	err := New(CodeValidation, "validation failed").WithDetails(map[string]string{"items": "must not be empty"})
	details, ok := err.Details().(map[string]string)
	if !ok || details["items"] != "must not be empty" {
		t.Fatalf("unexpected details %v", err.Details())
	}
}

func TestDumpChain(t *testing.T) {
	err := Wrap(CodeDependency, stdErrors.New("connection refused"), "load order")
	dump := Dump(err)
	if dump.Code != CodeDependency {
		t.Fatalf("unexpected code %s", dump.Code)
	}
	if len(dump.Chain) != 2 {
		t.Fatalf("expected 2 chain entries, got %d", len(dump.Chain))
	}
}
