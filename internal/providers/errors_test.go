package providers

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifyErrorTransient(t *testing.T) {
	cases := []error{
		&APIError{Provider: "gemini", Status: 429, Body: "rate limited"},
		&APIError{Provider: "gemini", Status: 500, Body: "internal"},
		&APIError{Provider: "gemini", Status: 503, Body: "overloaded"},
		fmt.Errorf("speech reply has no inline audio: %w", ErrMalformedResponse),
	}
	for _, err := range cases {
		if got := ClassifyError(err); got != ErrorTransient {
			t.Fatalf("expected transient for %v, got %s", err, got)
		}
	}
}

func TestClassifyErrorPermanent(t *testing.T) {
	cases := []error{
		&APIError{Provider: "gemini", Status: 400, Body: "bad request"},
		&APIError{Provider: "gemini", Status: 403, Body: "forbidden"},
		errors.New("gemini key missing"),
	}
	for _, err := range cases {
		if got := ClassifyError(err); got != ErrorPermanent {
			t.Fatalf("expected permanent for %v, got %s", err, got)
		}
	}
}

func TestClassifyErrorWrapped(t *testing.T) {
	err := fmt.Errorf("synthesize chunk 3: %w", &APIError{Provider: "gemini", Status: 503})
	if got := ClassifyError(err); got != ErrorTransient {
		t.Fatalf("expected transient through wrapping, got %s", got)
	}
}
