package genai

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"fable/internal/logging"
)

// OpenAIConfig configures the OpenAI-backed Service.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string // optional, for compatible gateways
	TextModel   string
	ImageModel  string
	SpeechModel string
	Voice       string
	Timeout     time.Duration
}

func (c OpenAIConfig) withDefaults() OpenAIConfig {
	if c.TextModel == "" {
		c.TextModel = openai.GPT4oMini
	}
	if c.ImageModel == "" {
		c.ImageModel = openai.CreateImageModelDallE3
	}
	if c.SpeechModel == "" {
		c.SpeechModel = string(openai.TTSModel1)
	}
	if c.Voice == "" {
		c.Voice = string(openai.VoiceAlloy)
	}
	if c.Timeout <= 0 {
		c.Timeout = 120 * time.Second
	}
	return c
}

// OpenAIService implements Service on top of the OpenAI API.
type OpenAIService struct {
	client *openai.Client
	cfg    OpenAIConfig
	logger logging.Logger
}

// NewOpenAIService builds a Service from the given configuration.
func NewOpenAIService(cfg OpenAIConfig, logger logging.Logger) (*OpenAIService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: api key is required")
	}
	cfg = cfg.withDefaults()

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIService{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
		logger: logging.OrNop(logger),
	}, nil
}

// GenerateText sends a JSON-mode chat completion and returns the raw
// document text.
func (s *OpenAIService) GenerateText(ctx context.Context, systemInstruction, userPrompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.cfg.TextModel,
		Temperature: 0.8,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemInstruction},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// GenerateImage renders an illustration and returns it as a PNG data URL.
// An empty string means the model produced nothing usable.
func (s *OpenAIService) GenerateImage(ctx context.Context, prompt, style string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	imagePrompt := fmt.Sprintf(
		"A children's book illustration of %s. Style: %s. No text, no words, no letters in the image.",
		prompt, style,
	)

	resp, err := s.client.CreateImage(ctx, openai.ImageRequest{
		Model:          s.cfg.ImageModel,
		Prompt:         imagePrompt,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return "", fmt.Errorf("create image: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		s.logger.Warn("image generation returned no data for prompt %q", prompt)
		return "", nil
	}
	return "data:image/png;base64," + resp.Data[0].B64JSON, nil
}

// GenerateSpeech narrates text and returns MP3 audio as a data URL.
func (s *OpenAIService) GenerateSpeech(ctx context.Context, text, voice string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	if voice == "" {
		voice = s.cfg.Voice
	}

	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(s.cfg.SpeechModel),
		Input:          text,
		Voice:          openai.SpeechVoice(voice),
		ResponseFormat: openai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return "", fmt.Errorf("create speech: %w", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return "", fmt.Errorf("read speech response: %w", err)
	}
	if len(audio) == 0 {
		s.logger.Warn("speech generation returned no audio")
		return "", nil
	}
	return "data:audio/mpeg;base64," + base64.StdEncoding.EncodeToString(audio), nil
}

// GenerateColoringPage renders printable line art for a story subject.
func (s *OpenAIService) GenerateColoringPage(ctx context.Context, subject string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	prompt := fmt.Sprintf(
		"A black and white line art coloring page of %s. Clean bold outlines, no shading, no color, white background, suitable for children to color in.",
		subject,
	)

	resp, err := s.client.CreateImage(ctx, openai.ImageRequest{
		Model:          s.cfg.ImageModel,
		Prompt:         prompt,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return "", fmt.Errorf("create coloring page: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		s.logger.Warn("coloring page generation returned no data for %q", subject)
		return "", nil
	}
	return "data:image/png;base64," + resp.Data[0].B64JSON, nil
}

var _ Service = (*OpenAIService)(nil)
