package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func newTestClient(url string) *Client {
	return NewClient("test-key", WithBaseURL(url), WithRateLimit(1000))
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient("k")
	if c.baseURL != BaseURL {
		t.Errorf("baseURL = %s, want %s", c.baseURL, BaseURL)
	}
	if c.model != DefaultModel {
		t.Errorf("model = %s, want %s", c.model, DefaultModel)
	}
	if c.maxTokens != DefaultMaxTokens {
		t.Errorf("maxTokens = %d, want %d", c.maxTokens, DefaultMaxTokens)
	}
	if c.httpClient.Timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", c.httpClient.Timeout, DefaultTimeout)
	}
}

func TestComplete_SendsMessageAndReturnsText(t *testing.T) {
	var captured messageRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("x-api-key = %q", got)
		}
		if got := r.Header.Get("anthropic-version"); got != APIVersion {
			t.Errorf("anthropic-version = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"# Summary"}],"stop_reason":"end_turn"}`))
	}))
	defer server.Close()

	c := NewClient("test-key", WithBaseURL(server.URL+"/"), WithModel("m1"), WithMaxTokens(42), WithRateLimit(1000))
	got, err := c.Complete(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "# Summary" {
		t.Errorf("Complete() = %q, want %q", got, "# Summary")
	}
	if captured.Model != "m1" || captured.MaxTokens != 42 {
		t.Errorf("request model/max_tokens = %s/%d", captured.Model, captured.MaxTokens)
	}
	if len(captured.Messages) != 1 || captured.Messages[0].Role != "user" || captured.Messages[0].Content != "hello" {
		t.Errorf("request messages = %+v", captured.Messages)
	}
}

func TestComplete_StatusErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{"auth", http.StatusUnauthorized, `{"error":{"type":"authentication_error","message":"bad key"}}`, IsAuthError},
		{"rate limited", http.StatusTooManyRequests, `{"error":{"type":"rate_limit_error","message":"slow down"}}`, IsRateLimited},
		{"overloaded", 529, `{"error":{"type":"overloaded_error","message":"busy"}}`, func(err error) bool { return errors.Is(err, ErrOverloaded) }},
		{"bad request", http.StatusBadRequest, `{"error":{"type":"invalid_request_error","message":"too long"}}`, func(err error) bool {
			var apiErr *APIError
			return errors.As(err, &apiErr) && apiErr.Type == "invalid_request_error" && apiErr.Message == "too long"
		}},
		{"plain text body", http.StatusBadGateway, "upstream down", func(err error) bool {
			var apiErr *APIError
			return errors.As(err, &apiErr) && apiErr.Message == "upstream down"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestClient(server.URL).Complete(context.Background(), "p")
			if err == nil {
				t.Fatal("expected error")
			}
			if !tt.check(err) {
				t.Errorf("unexpected error classification: %v", err)
			}
		})
	}
}

func TestComplete_NoTextContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"content":[],"stop_reason":"max_tokens"}`))
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Complete(context.Background(), "p")
	if !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("error = %v, want ErrInvalidResponse", err)
	}
}

func TestComplete_CircuitOpensAfterBackendFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	for i := 0; i < breakerConsecutiveFailures; i++ {
		if _, err := c.Complete(context.Background(), "p"); err == nil {
			t.Fatalf("call %d: expected error", i)
		}
	}

	_, err := c.Complete(context.Background(), "p")
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("error = %v, want ErrCircuitOpen", err)
	}
	if got := calls.Load(); got != breakerConsecutiveFailures {
		t.Errorf("server calls = %d, want %d", got, breakerConsecutiveFailures)
	}
}

func TestComplete_RequestErrorsDoNotOpenCircuit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"type":"invalid_request_error","message":"nope"}}`, http.StatusBadRequest)
	}))
	defer server.Close()

	c := newTestClient(server.URL)
	for i := 0; i < breakerConsecutiveFailures+2; i++ {
		_, err := c.Complete(context.Background(), "p")
		if errors.Is(err, ErrCircuitOpen) {
			t.Fatalf("call %d: circuit opened on request errors", i)
		}
	}
}
