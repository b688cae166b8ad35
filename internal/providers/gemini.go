package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const (
	geminiBaseURL     = "https://generativelanguage.googleapis.com/v1beta/models"
	geminiTextModel   = "gemini-2.5-flash"
	geminiSpeechModel = "gemini-2.5-flash-preview-tts"
)

// GeminiProvider talks to the Generative Language REST API. The same client
// serves text generation and speech synthesis; only the model and the
// generation config differ.
type GeminiProvider struct {
	keyName string
	apiKey  string
	client  *http.Client
}

func NewGeminiProvider(keyName string) *GeminiProvider {
	return &GeminiProvider{
		keyName: keyName,
		apiKey:  resolveGeminiKey(keyName),
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

type geminiPart struct {
	Text       string `json:"text,omitempty"`
	InlineData *struct {
		MimeType string `json:"mimeType"`
		Data     string `json:"data"`
	} `json:"inlineData,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

func (g *GeminiProvider) Generate(ctx context.Context, req GenerateRequest) (string, ProviderInfo, error) {
	info := ProviderInfo{Name: "gemini", Model: geminiTextModel}
	payload := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": req.Prompt}}},
		},
	}
	parsed, err := g.call(ctx, geminiTextModel, payload)
	if err != nil {
		return "", info, err
	}
	text, err := firstText(parsed)
	if err != nil {
		return "", info, err
	}
	return text, info, nil
}

func (g *GeminiProvider) GenerateStructured(ctx context.Context, req GenerateRequest, out any) (ProviderInfo, error) {
	info := ProviderInfo{Name: "gemini", Model: geminiTextModel}
	payload := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": req.Prompt}}},
		},
		"generationConfig": map[string]any{
			"responseMimeType": "application/json",
		},
	}
	parsed, err := g.call(ctx, geminiTextModel, payload)
	if err != nil {
		return info, err
	}
	text, err := firstText(parsed)
	if err != nil {
		return info, err
	}
	if err := json.Unmarshal([]byte(text), out); err != nil {
		return info, fmt.Errorf("decode structured %s reply: %w", req.Operation, err)
	}
	return info, nil
}

func (g *GeminiProvider) Synthesize(ctx context.Context, text string) ([]byte, ProviderInfo, error) {
	info := ProviderInfo{Name: "gemini", Model: geminiSpeechModel}
	payload := map[string]any{
		"contents": []map[string]any{
			{"parts": []map[string]string{{"text": text}}},
		},
		"generationConfig": map[string]any{
			"responseModalities": []string{"AUDIO"},
			"speechConfig": map[string]any{
				"multiSpeakerVoiceConfig": map[string]any{
					"speakerVoiceConfigs": []map[string]any{
						speakerVoice("Speaker1", "Alnilam"),
						speakerVoice("Speaker2", "Autonoe"),
					},
				},
			},
		},
	}
	parsed, err := g.call(ctx, geminiSpeechModel, payload)
	if err != nil {
		return nil, info, err
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return nil, info, fmt.Errorf("speech reply has no candidates: %w", ErrMalformedResponse)
	}
	inline := parsed.Candidates[0].Content.Parts[0].InlineData
	if inline == nil || inline.Data == "" {
		return nil, info, fmt.Errorf("speech reply has no inline audio: %w", ErrMalformedResponse)
	}
	pcm, err := base64.StdEncoding.DecodeString(inline.Data)
	if err != nil {
		return nil, info, fmt.Errorf("decode inline audio: %w", ErrMalformedResponse)
	}
	return pcm, info, nil
}

func (g *GeminiProvider) call(ctx context.Context, model string, payload any) (*geminiResponse, error) {
	if g.apiKey == "" {
		return nil, fmt.Errorf("gemini key missing for alias %q", g.keyName)
	}
	body, _ := json.Marshal(payload)
	url := fmt.Sprintf("%s/%s:generateContent?key=%s", geminiBaseURL, model, g.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build gemini request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return nil, &APIError{Provider: "gemini", Status: resp.StatusCode, Body: string(raw)}
	}
	var parsed geminiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode gemini response: %w", ErrMalformedResponse)
	}
	return &parsed, nil
}

func firstText(parsed *geminiResponse) (string, error) {
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini reply has no candidates: %w", ErrMalformedResponse)
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}

func speakerVoice(speaker, voice string) map[string]any {
	return map[string]any{
		"speaker": speaker,
		"voiceConfig": map[string]any{
			"prebuiltVoiceConfig": map[string]string{"voiceName": voice},
		},
	}
}

func resolveGeminiKey(alias string) string {
	if alias != "" {
		k := os.Getenv("PAPERCAST_GEMINI_KEY_" + strings.ToUpper(alias))
		if k != "" {
			return k
		}
	}
	return os.Getenv("GEMINI_API_KEY")
}
