package providers

import "context"

type ProviderInfo struct {
	Name  string `json:"name"`
	Model string `json:"model"`
}

type GenerateRequest struct {
	Operation string `json:"operation"`
	Prompt    string `json:"prompt"`
}

// TextGenerator is the text-generation capability threaded through the
// script-writing stages. GenerateStructured enforces the expected result
// shape: a reply that does not decode into out is a permanent failure.
type TextGenerator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, ProviderInfo, error)
	GenerateStructured(ctx context.Context, req GenerateRequest, out any) (ProviderInfo, error)
}

// SpeechSynthesizer converts one script chunk into raw single-channel
// 16-bit PCM at 24 kHz.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, ProviderInfo, error)
}
