package generate

import (
	"context"
	"encoding/json"
	"strings"

	"google.golang.org/genai"
)

// DefaultGeminiModel is the model used when none is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiBackend is a Backend over the Google GenAI API.
type GeminiBackend struct {
	client *genai.Client
	model  string
}

// NewGeminiBackend builds a Gemini backend. An empty key yields a keyless
// backend whose calls fail with ErrNoBackendKey, so callers can still probe
// HasKey without special-casing construction.
func NewGeminiBackend(ctx context.Context, apiKey, model string) (*GeminiBackend, error) {
	if model == "" {
		model = DefaultGeminiModel
	}
	if apiKey == "" {
		return &GeminiBackend{model: model}, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, &UpstreamError{Status: 500, Detail: "creating GenAI client: " + err.Error()}
	}
	return &GeminiBackend{client: client, model: model}, nil
}

func (b *GeminiBackend) Name() string { return "gemini:" + b.model }

func (b *GeminiBackend) HasKey() bool { return b.client != nil }

// Generate runs a single text completion.
func (b *GeminiBackend) Generate(ctx context.Context, prompt string) (string, error) {
	if b.client == nil {
		return "", ErrNoBackendKey
	}
	resp, err := b.client.Models.GenerateContent(ctx, b.model, genai.Text(prompt), nil)
	if err != nil {
		return "", &UpstreamError{Status: 502, Detail: err.Error()}
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", &UpstreamError{Status: 502, Detail: "model returned empty response"}
	}
	return text, nil
}

const transcribePrompt = `Transcribe the attached audio. Respond with a single JSON object:
{"text": "<full transcript>", "lang": "<two-letter language code>", "confidence": <0..1>}`

// Transcribe sends audio bytes to the model and parses the transcript reply.
// A reply that is not valid JSON is treated as the raw transcript text.
func (b *GeminiBackend) Transcribe(ctx context.Context, data []byte, mimeType string) (Transcription, error) {
	if b.client == nil {
		return Transcription{}, ErrNoBackendKey
	}
	if mimeType == "" {
		mimeType = "audio/wav"
	}

	content := genai.NewContentFromParts([]*genai.Part{
		genai.NewPartFromBytes(data, mimeType),
		genai.NewPartFromText(transcribePrompt),
	}, genai.RoleUser)

	resp, err := b.client.Models.GenerateContent(ctx, b.model, []*genai.Content{content}, nil)
	if err != nil {
		return Transcription{}, &UpstreamError{Status: 502, Detail: err.Error()}
	}

	raw := strings.TrimSpace(resp.Text())
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var t Transcription
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &t); err != nil {
		t = Transcription{Text: strings.TrimSpace(raw), Confidence: 0.5}
	}
	if t.Lang == "" {
		t.Lang = "en"
	}
	t.Words = len(strings.Fields(t.Text))
	return t, nil
}
