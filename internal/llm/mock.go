package llm

import (
	"context"
	"sync"
)

// MockClient is a scripted generation client used in tests and as the mock
// runtime mode when no API key is configured. Scripted replies are consumed
// in order; an exhausted script returns the fallback reply.
type MockClient struct {
	mu       sync.Mutex
	replies  []string
	fallback string
	failErr  error
	prompts  []string
}

func NewMockClient(replies ...string) *MockClient {
	return &MockClient{
		replies:  replies,
		fallback: `{"type": "1-2", "content": "（离线模式）我在，请继续。"}`,
	}
}

func (m *MockClient) Generate(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prompts = append(m.prompts, prompt)
	if m.failErr != nil {
		return "", m.failErr
	}
	if len(m.replies) == 0 {
		return m.fallback, nil
	}
	reply := m.replies[0]
	m.replies = m.replies[1:]
	return reply, nil
}

// Script appends replies to the pending script.
func (m *MockClient) Script(replies ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, replies...)
}

// SetFallback replaces the reply returned once the script is exhausted.
func (m *MockClient) SetFallback(reply string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = reply
}

// Fail makes every subsequent Generate call return err; nil restores normal
// operation.
func (m *MockClient) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failErr = err
}

// Prompts returns a copy of every prompt seen, in order.
func (m *MockClient) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// CallCount reports how many Generate calls were made.
func (m *MockClient) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}
