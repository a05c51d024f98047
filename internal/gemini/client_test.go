package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGenerateContentSuccess(t *testing.T) {
	var gotPath, gotKey string
	var gotReq generateRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"  hello there  "}]}}]}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", srv.URL)
	text, err := c.GenerateContent(context.Background(), "gemini-2.0-flash", []Turn{
		{Role: RoleUser, Text: "hi"},
	}, GenerationConfig{Temperature: 0.7, MaxOutputTokens: 2048})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "hello there" {
		t.Fatalf("unexpected text: %q", text)
	}
	if gotPath != "/models/gemini-2.0-flash:generateContent" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if gotKey != "test-key" {
		t.Fatalf("api key header not set")
	}
	if len(gotReq.Contents) != 1 || gotReq.Contents[0].Role != RoleUser {
		t.Fatalf("unexpected request contents: %+v", gotReq.Contents)
	}
	if gotReq.GenerationConfig.MaxOutputTokens != 2048 {
		t.Fatalf("generation config not sent: %+v", gotReq.GenerationConfig)
	}
}

func TestGenerateContentAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"Quota exceeded","status":"RESOURCE_EXHAUSTED"}}`))
	}))
	defer srv.Close()

	c := NewClient("k", srv.URL)
	_, err := c.GenerateContent(context.Background(), "m", nil, GenerationConfig{})
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("expected *APIError, got %T (%v)", err, err)
	}
	if apiErr.StatusCode != 429 || apiErr.Message != "Quota exceeded" {
		t.Fatalf("unexpected error: %+v", apiErr)
	}
}

func TestGenerateContentNoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	c := NewClient("k", srv.URL)
	text, err := c.GenerateContent(context.Background(), "m", nil, GenerationConfig{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != NoResponseText {
		t.Fatalf("expected placeholder reply, got %q", text)
	}
}
