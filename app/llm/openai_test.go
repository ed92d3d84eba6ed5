package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"
)

type mockTransport struct {
	body       string
	statusCode int
	err        error
	lastReq    *http.Request
	lastBody   []byte
}

func (m *mockTransport) Do(req *http.Request) (*http.Response, error) {
	m.lastReq = req
	if req.Body != nil {
		m.lastBody, _ = io.ReadAll(req.Body)
	}
	if m.err != nil {
		return nil, m.err
	}
	return &http.Response{
		StatusCode: m.statusCode,
		Status:     http.StatusText(m.statusCode),
		Body:       io.NopCloser(bytes.NewBufferString(m.body)),
	}, nil
}

func TestCompleteSuccess(t *testing.T) {
	transport := &mockTransport{
		statusCode: 200,
		body:       `{"choices":[{"message":{"content":"  generated title\n"}}]}`,
	}
	client := NewClientWithHTTP("https://api.example/v1/chat", "gpt-4-turbo", "sk-test", transport)

	got, err := client.Complete(context.Background(), "system prompt", "user prompt", 0.7, 150)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "generated title" {
		t.Errorf("Complete() = %q, want trimmed content", got)
	}

	if auth := transport.lastReq.Header.Get("Authorization"); auth != "Bearer sk-test" {
		t.Errorf("Authorization = %q", auth)
	}

	var req chatRequest
	if err := json.Unmarshal(transport.lastBody, &req); err != nil {
		t.Fatalf("request body not valid JSON: %v", err)
	}
	if req.Model != "gpt-4-turbo" {
		t.Errorf("model = %q", req.Model)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
		t.Errorf("messages = %+v", req.Messages)
	}
	if req.Temperature != 0.7 || req.MaxTokens != 150 {
		t.Errorf("temperature/max_tokens = %v/%v", req.Temperature, req.MaxTokens)
	}
}

func TestCompleteHTTPError(t *testing.T) {
	transport := &mockTransport{statusCode: 429, body: `{"error":"rate limited"}`}
	client := NewClientWithHTTP("https://api.example/v1/chat", "gpt-4-turbo", "sk-test", transport)

	_, err := client.Complete(context.Background(), "s", "u", 0.7, 150)
	if err == nil {
		t.Fatal("expected error for HTTP 429")
	}
}

func TestCompleteTransportError(t *testing.T) {
	transport := &mockTransport{err: io.ErrUnexpectedEOF}
	client := NewClientWithHTTP("https://api.example/v1/chat", "gpt-4-turbo", "sk-test", transport)

	if _, err := client.Complete(context.Background(), "s", "u", 0.7, 150); err == nil {
		t.Fatal("expected error for transport failure")
	}
}

func TestCompleteNoChoices(t *testing.T) {
	transport := &mockTransport{statusCode: 200, body: `{"choices":[]}`}
	client := NewClientWithHTTP("https://api.example/v1/chat", "gpt-4-turbo", "sk-test", transport)

	if _, err := client.Complete(context.Background(), "s", "u", 0.7, 150); err == nil {
		t.Fatal("expected error for empty choices")
	}
}

func TestCompleteMisconfigured(t *testing.T) {
	client := NewClientWithHTTP("", "gpt-4-turbo", "", &mockTransport{})

	if _, err := client.Complete(context.Background(), "s", "u", 0.7, 150); err == nil {
		t.Fatal("expected error for missing configuration")
	}
}
