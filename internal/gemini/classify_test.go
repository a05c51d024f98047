package gemini

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"status 401", &APIError{StatusCode: 401, Message: "unauthorized"}, KindAuth},
		{"api key message", &APIError{StatusCode: 400, Message: "API key not valid"}, KindAuth},
		{"status 429", &APIError{StatusCode: 429, Message: "rate limited"}, KindQuotaOrNotFound},
		{"quota message", &APIError{StatusCode: 403, Message: "Quota exceeded for model"}, KindQuotaOrNotFound},
		{"status 404", &APIError{StatusCode: 404, Message: "model missing"}, KindQuotaOrNotFound},
		{"not found message", &APIError{StatusCode: 400, Message: "model Not Found"}, KindQuotaOrNotFound},
		{"server error", &APIError{StatusCode: 500, Message: "internal"}, KindOther},
		{"plain error", errors.New("connection refused"), KindOther},
		{"plain quota error", errors.New("429 Too Many Requests"), KindQuotaOrNotFound},
		{"wrapped api error", fmt.Errorf("call failed: %w", &APIError{StatusCode: 429, Message: "slow down"}), KindQuotaOrNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.err); got != tc.want {
				t.Fatalf("Classify(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestClassifyAuthWinsOverQuota(t *testing.T) {
	// A message mentioning both the API key and quota is an auth failure.
	err := &APIError{StatusCode: 429, Message: "API key quota exceeded"}
	if got := Classify(err); got != KindAuth {
		t.Fatalf("expected KindAuth, got %v", got)
	}
}
