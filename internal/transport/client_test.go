package transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientOpen(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, streamPath, r.URL.Path)
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Empty(t, r.Header.Get("Accept-Encoding"))

		var req StreamRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "acct-1", req.AccountID)
		assert.True(t, req.Stream)

		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "data: hi\n")
	}))
	defer upstream.Close()

	c := NewClient(upstream.URL, "test-key")
	body, err := c.Open(context.Background(), StreamRequest{AccountID: "acct-1"}, nil)
	require.NoError(t, err)
	defer body.Close()

	raw, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "data: hi\n", string(raw))
}

func TestClientForwardsCallerHeaders(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "trace-123", r.Header.Get("X-Trace-Id"))
		// Caller auth wins over the configured key.
		assert.Equal(t, "Bearer caller-key", r.Header.Get("Authorization"))
		assert.Empty(t, r.Header.Get("Connection"))

		w.Header().Set("Content-Type", "text/event-stream")
	}))
	defer upstream.Close()

	caller := http.Header{}
	caller.Set("X-Trace-Id", "trace-123")
	caller.Set("Authorization", "Bearer caller-key")
	caller.Set("Connection", "keep-alive")

	c := NewClient(upstream.URL, "configured-key")
	body, err := c.Open(context.Background(), StreamRequest{AccountID: "acct-1"}, caller)
	require.NoError(t, err)
	body.Close()
}

func TestClientNonSuccessStatus(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusServiceUnavailable)
	}))
	defer upstream.Close()

	c := NewClient(upstream.URL, "")
	_, err := c.Open(context.Background(), StreamRequest{AccountID: "acct-1"}, nil)
	assert.ErrorIs(t, err, ErrTransportUnavailable)
}

func TestClientUnreachableUpstream(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	upstream.Close() // nothing listening anymore

	c := NewClient(upstream.URL, "")
	_, err := c.Open(context.Background(), StreamRequest{AccountID: "acct-1"}, nil)
	assert.ErrorIs(t, err, ErrTransportUnavailable)
}

func TestClientNonStreamResponse(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"ok":true}`)
	}))
	defer upstream.Close()

	c := NewClient(upstream.URL, "")
	_, err := c.Open(context.Background(), StreamRequest{AccountID: "acct-1"}, nil)
	assert.ErrorIs(t, err, ErrStreamUnsupported)
}
