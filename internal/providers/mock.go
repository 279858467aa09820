package providers

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const MockClientName = "mock"

// MockClient is a VisionClient returning canned responses. It records
// every request it receives.
type MockClient struct {
	// Configurable behavior
	Latency   time.Duration
	Content   string
	Reasoning string
	Err       error

	mu       sync.Mutex
	requests []*ChatRequest
}

// NewMockClient creates a mock client that answers with content.
func NewMockClient(content string) *MockClient {
	return &MockClient{Content: content}
}

// Name returns the client identifier.
func (c *MockClient) Name() string {
	return MockClientName
}

// Complete records the request and returns the configured response.
func (c *MockClient) Complete(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	c.mu.Lock()
	c.requests = append(c.requests, req)
	count := len(c.requests)
	c.mu.Unlock()

	if c.Latency > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.Latency):
		}
	}
	if c.Err != nil {
		return nil, c.Err
	}

	requestID := req.RequestID
	if requestID == "" {
		requestID = fmt.Sprintf("mock-%d", count)
	}
	return &ChatResult{
		Content:   c.Content,
		Reasoning: c.Reasoning,
		Provider:  MockClientName,
		ModelUsed: req.Model,
		RequestID: requestID,
		Attempts:  1,
	}, nil
}

// Requests returns the requests received so far.
func (c *MockClient) Requests() []*ChatRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*ChatRequest, len(c.requests))
	copy(out, c.requests)
	return out
}

// LastRequest returns the most recent request, or nil.
func (c *MockClient) LastRequest() *ChatRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.requests) == 0 {
		return nil
	}
	return c.requests[len(c.requests)-1]
}

var _ VisionClient = (*MockClient)(nil)
