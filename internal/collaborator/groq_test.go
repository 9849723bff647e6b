package collaborator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGroqClient(url string) *GroqClient {
	c := NewGroqClientWithConfig(GroqConfig{APIKey: "test-key", BaseURL: url})
	// Tests should not sleep between requests.
	c.lastRequest = time.Time{}
	return c
}

func TestGroqCompleteWithSystem(t *testing.T) {
	var gotReq groqRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "  hello  "}},
			},
		})
	}))
	defer srv.Close()

	client := newTestGroqClient(srv.URL)
	got, err := client.CompleteWithSystem(context.Background(), "be brief", "say hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", got)

	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, "user", gotReq.Messages[1].Role)
}

func TestGroqRetriesOn429(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": "ok"}},
			},
		})
	}))
	defer srv.Close()

	client := newTestGroqClient(srv.URL)
	got, err := client.Complete(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 2, attempts)
}

func TestGroqNonRetryableStatusIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"message": "bad key"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := newTestGroqClient(srv.URL)
	_, err := client.Complete(context.Background(), "x")

	var transport *TransportError
	require.ErrorAs(t, err, &transport)
	assert.Equal(t, "groq", transport.Provider)
}

func TestGroqMissingAPIKey(t *testing.T) {
	client := NewGroqClient("")
	_, err := client.Complete(context.Background(), "x")

	var transport *TransportError
	require.ErrorAs(t, err, &transport)
}

func TestGroqEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	client := newTestGroqClient(srv.URL)
	_, err := client.Complete(context.Background(), "x")

	var transport *TransportError
	require.ErrorAs(t, err, &transport)
	assert.Contains(t, transport.Error(), "no completion")
}
