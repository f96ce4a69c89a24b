package inference

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(&ClientConfig{
		ServerURL: server.URL,
		Timeout:   2 * time.Second,
	}, zerolog.Nop())
}

func TestInferSendsInstructionOnly(t *testing.T) {
	var got generateRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/generate", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(generateResponse{Text: "advice text"})
	})

	text, err := client.Infer(context.Background(), "help my wheat", "")
	require.NoError(t, err)
	assert.Equal(t, "advice text", text)
	assert.Equal(t, "help my wheat", got.Instruction)
	assert.Empty(t, got.Image)
	assert.Empty(t, got.MimeType)
}

func TestInferSendsImageWithMimeType(t *testing.T) {
	var got generateRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(generateResponse{Text: "diagnosis"})
	})

	_, err := client.Infer(context.Background(), "diagnose", "aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, "aGVsbG8=", got.Image)
	assert.Equal(t, "image/jpeg", got.MimeType)
}

func TestInferHTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	})

	_, err := client.Infer(context.Background(), "q", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestInferGatewayError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(generateResponse{Error: "model unavailable"})
	})

	_, err := client.Infer(context.Background(), "q", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model unavailable")
}

func TestInferMalformedResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	})

	_, err := client.Infer(context.Background(), "q", "")
	require.Error(t, err)
}

func TestInferContextCancelled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Infer(ctx, "q", "")
	require.Error(t, err)
}

func TestHealth(t *testing.T) {
	healthy := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/healthz", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})
	assert.NoError(t, healthy.Health(context.Background()))

	unhealthy := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	assert.Error(t, unhealthy.Health(context.Background()))
}

func TestTruncateForLog(t *testing.T) {
	assert.Equal(t, "short", truncateForLog("short", 10))
	assert.Equal(t, "abcde...", truncateForLog("abcdefgh", 5))
}
