package llm_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopchat/backend/internal/llm"
)

// newStreamServer builds a mock model service whose streaming endpoint writes
// the given SSE lines and whose fallback endpoint is a 404.
func newStreamServer(t *testing.T, lines ...string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/gemini/chat/rag/stream" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, line := range lines {
			fmt.Fprintf(w, "%s\n\n", line)
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}
	}))
}

func collect(ch <-chan llm.StreamDelta) []string {
	var out []string
	for d := range ch {
		out = append(out, d.Content)
	}
	return out
}

func TestClient_Stream_AccumulatesChunks(t *testing.T) {
	server := newStreamServer(t,
		`data: {"type":"start","model":"gemini-2.0-flash"}`,
		`data: {"type":"chunk","text":"Hello"}`,
		`data: {"type":"chunk","text":" world"}`,
		`data: {"type":"done"}`,
	)
	defer server.Close()

	provider := llm.NewClient(server.URL, "/gemini/chat/rag/stream", "/gemini/chat/rag")

	ch := make(chan llm.StreamDelta, 8)
	final, err := provider.Stream(context.Background(), &llm.ChatRequest{Message: "hi"}, ch)
	require.NoError(t, err)

	assert.Equal(t, "Hello world", final)
	// Published totals grow monotonically, never shrink or skip backward.
	totals := collect(ch)
	assert.Equal(t, []string{"Hello", "Hello world"}, totals)
}

func TestClient_Stream_ErrorFrame(t *testing.T) {
	server := newStreamServer(t,
		`data: {"type":"chunk","text":"par"}`,
		`data: {"type":"error","error":"quota exceeded"}`,
	)
	defer server.Close()

	provider := llm.NewClient(server.URL, "/gemini/chat/rag/stream", "/gemini/chat/rag")

	ch := make(chan llm.StreamDelta, 8)
	_, err := provider.Stream(context.Background(), &llm.ChatRequest{Message: "hi"}, ch)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestClient_Stream_EmptyStreamIsFailure(t *testing.T) {
	// A stream that ends normally without content must be reported as a
	// transport failure so the orchestrator falls back.
	server := newStreamServer(t,
		`data: {"type":"start","model":"gemini-2.0-flash"}`,
		`data: {"type":"done"}`,
	)
	defer server.Close()

	provider := llm.NewClient(server.URL, "/gemini/chat/rag/stream", "/gemini/chat/rag")

	ch := make(chan llm.StreamDelta, 8)
	_, err := provider.Stream(context.Background(), &llm.ChatRequest{Message: "hi"}, ch)
	assert.ErrorIs(t, err, llm.ErrEmptyStream)
}

func TestClient_Stream_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	provider := llm.NewClient(server.URL, "/gemini/chat/rag/stream", "/gemini/chat/rag")

	ch := make(chan llm.StreamDelta, 8)
	_, err := provider.Stream(context.Background(), &llm.ChatRequest{Message: "hi"}, ch)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestClient_Stream_ClosesChannel(t *testing.T) {
	server := newStreamServer(t, `data: {"type":"chunk","text":"x"}`)
	defer server.Close()

	provider := llm.NewClient(server.URL, "/gemini/chat/rag/stream", "/gemini/chat/rag")

	ch := make(chan llm.StreamDelta, 8)
	_, err := provider.Stream(context.Background(), &llm.ChatRequest{Message: "hi"}, ch)
	require.NoError(t, err)

	_, open := <-ch // first delta
	assert.True(t, open)
	_, open = <-ch // channel closed after resolution
	assert.False(t, open)
}

func TestClient_Complete(t *testing.T) {
	var capturedBody llm.ChatRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/gemini/chat/rag", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&capturedBody))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"response":"OK","products":[{"id":7,"name":"Acer Aspire 5","price":18990000}]}`)
	}))
	defer server.Close()

	provider := llm.NewClient(server.URL, "/gemini/chat/rag/stream", "/gemini/chat/rag")

	req := &llm.ChatRequest{Message: "đơn hàng của tôi", Model: "gemini-2.0-flash", SessionID: "s1", UserID: "42"}
	resp, err := provider.Complete(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "OK", resp.Response)
	require.Len(t, resp.Products, 1)
	assert.Equal(t, 7, resp.Products[0].ID)
	assert.Equal(t, "18990000", string(resp.Products[0].Price))
	// The fallback receives the identical request body.
	assert.Equal(t, *req, capturedBody)
}

func TestClient_Complete_NonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	provider := llm.NewClient(server.URL, "/gemini/chat/rag/stream", "/gemini/chat/rag")

	_, err := provider.Complete(context.Background(), &llm.ChatRequest{Message: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
