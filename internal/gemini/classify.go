package gemini

import (
	"errors"
	"strconv"
	"strings"
)

// ErrorKind classifies backend failures for the fallback policy.
type ErrorKind int

const (
	// KindOther is terminal: report the backend's message, no fallback.
	KindOther ErrorKind = iota
	// KindAuth is terminal: missing or invalid API key.
	KindAuth
	// KindQuotaOrNotFound means the next candidate model should be tried.
	KindQuotaOrNotFound
)

// Classify maps a backend error to its fallback behaviour. The backend does
// not expose structured error codes, so this matches status and message
// substrings; keep all such matching here so a structured replacement only
// touches this function.
func Classify(err error) ErrorKind {
	if err == nil {
		return KindOther
	}

	hay := strings.ToLower(err.Error())
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		hay = strconv.Itoa(apiErr.StatusCode) + " " + strings.ToLower(apiErr.Message)
	}

	if strings.Contains(hay, "api key") || strings.Contains(hay, "401") {
		return KindAuth
	}
	if strings.Contains(hay, "429") || strings.Contains(hay, "quota") ||
		strings.Contains(hay, "404") || strings.Contains(hay, "not found") {
		return KindQuotaOrNotFound
	}
	return KindOther
}
