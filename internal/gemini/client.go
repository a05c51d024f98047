// Package gemini implements the Gemini generateContent backend client.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// NoResponseText is returned when the backend answers 2xx but carries no
// extractable candidate text. It is a reply, not an error.
const NoResponseText = "(No response.)"

// Role tags for conversation turns.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Turn is one role-tagged message in a conversation transcript.
type Turn struct {
	Role string
	Text string
}

// GenerationConfig carries the generation parameters for a request.
type GenerationConfig struct {
	Temperature     float64
	MaxOutputTokens int
}

// Client is the backend text-generation interface.
type Client interface {
	GenerateContent(ctx context.Context, model string, turns []Turn, cfg GenerationConfig) (string, error)
}

// APIError is a structured backend failure carrying the HTTP status and the
// error message extracted from the response body.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// HTTPClient calls the generativelanguage REST endpoint.
type HTTPClient struct {
	apiKey  string
	baseURL string
	httpc   *http.Client
}

// NewClient creates a Gemini client. baseURL may be empty to use the public
// endpoint.
func NewClient(apiKey, baseURL string) *HTTPClient {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &HTTPClient{
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpc:   &http.Client{Timeout: 120 * time.Second},
	}
}

type wirePart struct {
	Text string `json:"text"`
}

type wireContent struct {
	Role  string     `json:"role"`
	Parts []wirePart `json:"parts"`
}

type wireGenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type generateRequest struct {
	Contents         []wireContent        `json:"contents"`
	GenerationConfig wireGenerationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content wireContent `json:"content"`
	} `json:"candidates"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// GenerateContent sends the transcript to the named model and returns the
// generated text. HTTP errors surface as *APIError.
func (c *HTTPClient) GenerateContent(ctx context.Context, model string, turns []Turn, cfg GenerationConfig) (string, error) {
	payload := generateRequest{
		Contents: make([]wireContent, 0, len(turns)),
		GenerationConfig: wireGenerationConfig{
			Temperature:     cfg.Temperature,
			MaxOutputTokens: cfg.MaxOutputTokens,
		},
	}
	for _, t := range turns {
		payload.Contents = append(payload.Contents, wireContent{
			Role:  t.Role,
			Parts: []wirePart{{Text: t.Text}},
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		msg := fmt.Sprintf("HTTP %d", resp.StatusCode)
		var errResp errorResponse
		if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error.Message != "" {
			msg = errResp.Error.Message
		} else if len(data) > 0 {
			msg = string(data)
		}
		return "", &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	var genResp generateResponse
	if err := json.Unmarshal(data, &genResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return NoResponseText, nil
	}
	text := strings.TrimSpace(genResp.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return NoResponseText, nil
	}
	return text, nil
}
