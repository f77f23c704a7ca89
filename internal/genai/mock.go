package genai

import (
	"context"
	"sync"
)

// MockService implements Service for testing. Each call delegates to
// the matching function field when set and otherwise returns a canned
// response. Call counts are tracked per method.
type MockService struct {
	TextFunc         func(ctx context.Context, systemInstruction, userPrompt string) (string, error)
	ImageFunc        func(ctx context.Context, prompt, style string) (string, error)
	SpeechFunc       func(ctx context.Context, text, voice string) (string, error)
	ColoringPageFunc func(ctx context.Context, subject string) (string, error)

	mu            sync.Mutex
	TextCalls     int
	ImageCalls    int
	SpeechCalls   int
	ColoringCalls int

	// LastSystemInstruction and LastUserPrompt capture the most recent
	// GenerateText arguments for assertions.
	LastSystemInstruction string
	LastUserPrompt        string
}

func (m *MockService) GenerateText(ctx context.Context, systemInstruction, userPrompt string) (string, error) {
	m.mu.Lock()
	m.TextCalls++
	m.LastSystemInstruction = systemInstruction
	m.LastUserPrompt = userPrompt
	m.mu.Unlock()

	if m.TextFunc != nil {
		return m.TextFunc(ctx, systemInstruction, userPrompt)
	}
	return `{"title":"Mock Story","content":"Once upon a time, everything worked."}`, nil
}

func (m *MockService) GenerateImage(ctx context.Context, prompt, style string) (string, error) {
	m.mu.Lock()
	m.ImageCalls++
	m.mu.Unlock()

	if m.ImageFunc != nil {
		return m.ImageFunc(ctx, prompt, style)
	}
	return "data:image/png;base64,bW9jaw==", nil
}

func (m *MockService) GenerateSpeech(ctx context.Context, text, voice string) (string, error) {
	m.mu.Lock()
	m.SpeechCalls++
	m.mu.Unlock()

	if m.SpeechFunc != nil {
		return m.SpeechFunc(ctx, text, voice)
	}
	return "data:audio/mpeg;base64,bW9jaw==", nil
}

func (m *MockService) GenerateColoringPage(ctx context.Context, subject string) (string, error) {
	m.mu.Lock()
	m.ColoringCalls++
	m.mu.Unlock()

	if m.ColoringPageFunc != nil {
		return m.ColoringPageFunc(ctx, subject)
	}
	return "data:image/png;base64,bW9jaw==", nil
}

var _ Service = (*MockService)(nil)
