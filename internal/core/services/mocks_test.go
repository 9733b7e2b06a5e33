package services

import (
	"context"
	"errors"
	"sync"

	"github.com/leaflib/curator-cli/internal/core/domain"
	"github.com/leaflib/curator-cli/internal/core/ports/driven"
)

// mockLLM replays scripted responses in order. When the script runs out
// the last response repeats.
type mockLLM struct {
	mu        sync.Mutex
	responses []string
	calls     [][]driven.ChatMessage
	chatErr   error
	pingErr   error
}

func (m *mockLLM) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.ChatOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	copied := make([]driven.ChatMessage, len(messages))
	copy(copied, messages)
	m.calls = append(m.calls, copied)

	if m.chatErr != nil {
		return "", m.chatErr
	}
	if len(m.responses) == 0 {
		return "", errors.New("mock: no responses scripted")
	}
	idx := len(m.calls) - 1
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	return m.responses[idx], nil
}

func (m *mockLLM) ModelName() string { return "mock-model" }

func (m *mockLLM) Ping(context.Context) error { return m.pingErr }

func (m *mockLLM) Close() error { return nil }

func (m *mockLLM) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockLLM) lastCall() []driven.ChatMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return nil
	}
	return m.calls[len(m.calls)-1]
}

// mockExtractor returns fixed text, or an error, for every path.
type mockExtractor struct {
	mu    sync.Mutex
	text  string
	err   error
	paths []string
}

func (m *mockExtractor) Extract(_ context.Context, path string, _ int) (*domain.Extraction, error) {
	m.mu.Lock()
	m.paths = append(m.paths, path)
	m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	return &domain.Extraction{Text: m.text, Method: "mock", WordCount: len(m.text)}, nil
}

func (m *mockExtractor) extractedPaths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.paths...)
}
