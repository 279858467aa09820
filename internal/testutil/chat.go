package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
)

// ChatServer is a fake OpenAI-compatible chat completions backend.
type ChatServer struct {
	*httptest.Server

	mu        sync.Mutex
	content   string
	reasoning string

	calls atomic.Int32
	last  atomic.Value // map[string]any
}

// NewChatServer starts a fake backend answering every chat completion with
// content. It is closed when the test ends.
func NewChatServer(t *testing.T, content string) *ChatServer {
	t.Helper()
	cs := &ChatServer{content: content}
	cs.Server = httptest.NewServer(http.HandlerFunc(cs.handle))
	t.Cleanup(cs.Close)
	return cs
}

func (cs *ChatServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost || r.URL.Path != "/v1/chat/completions" {
		http.NotFound(w, r)
		return
	}
	cs.calls.Add(1)

	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":{"message":"bad json"}}`, http.StatusBadRequest)
		return
	}
	cs.last.Store(body)

	cs.mu.Lock()
	message := map[string]any{"role": "assistant", "content": cs.content}
	if cs.reasoning != "" {
		message["reasoning_content"] = cs.reasoning
	}
	cs.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 0,
		"model":   body["model"],
		"choices": []map[string]any{{
			"index":         0,
			"message":       message,
			"finish_reason": "stop",
		}},
		"usage": map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
	})
}

// SetReply changes the assistant content and reasoning returned from now on.
func (cs *ChatServer) SetReply(content, reasoning string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.content = content
	cs.reasoning = reasoning
}

// Calls returns the number of chat completions served.
func (cs *ChatServer) Calls() int {
	return int(cs.calls.Load())
}

// LastBody returns the most recent decoded request body, or nil.
func (cs *ChatServer) LastBody() map[string]any {
	body, _ := cs.last.Load().(map[string]any)
	return body
}
