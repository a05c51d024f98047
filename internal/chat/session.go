// Package chat maintains per-channel conversation sessions and the
// model-fallback chat operation against the Gemini backend.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/kamir/trubot/internal/gemini"
)

// DefaultMaxTurns is the number of user+model pairs kept per session.
const DefaultMaxTurns = 20

// DefaultModels are the candidate models in fallback order, highest free
// requests-per-day first so stricter quotas are only consumed on fallback.
var DefaultModels = []string{
	"gemini-2.0-flash-lite",
	"gemini-2.0-flash",
	"gemini-2.5-flash",
}

const (
	authErrorReply = "Invalid or missing Gemini API key. Set GEMINI_API_KEY in .env or get a key at https://aistudio.google.com/apikey"
	exhaustedReply = "All free-tier models are out of quota for today. Resets at midnight Pacific. See https://ai.google.dev/gemini-api/docs/rate-limits"

	errMessageLimit = 200
)

// Session is one bounded conversation transcript. A mutex serializes Chat
// calls so concurrent invocations cannot interleave user/model turn pairs.
type Session struct {
	mu       sync.Mutex
	backend  gemini.Client
	models   []string
	maxTurns int
	genCfg   gemini.GenerationConfig
	turns    []gemini.Turn
}

// NewSession creates a session. Zero-valued arguments fall back to the
// package defaults.
func NewSession(backend gemini.Client, models []string, maxTurns int, genCfg gemini.GenerationConfig) *Session {
	if len(models) == 0 {
		models = DefaultModels
	}
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	if genCfg.Temperature == 0 {
		genCfg.Temperature = 0.7
	}
	if genCfg.MaxOutputTokens == 0 {
		genCfg.MaxOutputTokens = 2048
	}
	return &Session{
		backend:  backend,
		models:   models,
		maxTurns: maxTurns,
		genCfg:   genCfg,
	}
}

// Chat appends a user turn, sends the transcript to the backend (falling
// back across candidate models on quota/not-found errors) and returns the
// reply text. All failure paths return a user-visible message; the user turn
// stays appended so a retry resends the full history.
func (s *Session) Chat(ctx context.Context, userMessage string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.turns = append(s.turns, gemini.Turn{Role: gemini.RoleUser, Text: userMessage})
	s.truncate()

	for _, model := range s.models {
		text, err := s.backend.GenerateContent(ctx, model, s.turns, s.genCfg)
		if err == nil {
			s.turns = append(s.turns, gemini.Turn{Role: gemini.RoleModel, Text: text})
			return text
		}

		switch gemini.Classify(err) {
		case gemini.KindAuth:
			return authErrorReply
		case gemini.KindQuotaOrNotFound:
			slog.Debug("Model unavailable, trying next", "model", model, "error", err)
			continue
		default:
			return "Gemini API error: " + truncateMessage(errorMessage(err))
		}
	}

	return exhaustedReply
}

// Clear discards all turns.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = nil
}

// HasHistory reports whether any turn has ever been appended.
func (s *Session) HasHistory() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns) > 0
}

// Turns returns a copy of the current transcript.
func (s *Session) Turns() []gemini.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]gemini.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// truncate drops the oldest turns so the transcript never exceeds
// 2*maxTurns entries. Truncation is destructive: only what gets sent is
// kept. Callers must hold s.mu.
func (s *Session) truncate() {
	max := s.maxTurns * 2
	if len(s.turns) > max {
		s.turns = append(s.turns[:0:0], s.turns[len(s.turns)-max:]...)
	}
}

// errorMessage prefers the backend's own message over the wrapped form.
func errorMessage(err error) string {
	var apiErr *gemini.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

func truncateMessage(msg string) string {
	if len(msg) > errMessageLimit {
		return msg[:errMessageLimit] + "…"
	}
	return msg
}
