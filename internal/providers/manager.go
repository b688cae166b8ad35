package providers

import (
	"fmt"
	"strings"

	"papercast/internal/config"
)

type ProviderRef struct {
	Raw      string
	Name     string
	KeyAlias string
}

// ParseProviderList parses a "name[:keyalias]|name..." list from config.
func ParseProviderList(raw string) []ProviderRef {
	parts := strings.Split(raw, "|")
	out := make([]ProviderRef, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		ref := ProviderRef{Raw: p, Name: p}
		if name, alias, ok := strings.Cut(p, ":"); ok {
			ref.Name = strings.TrimSpace(name)
			ref.KeyAlias = strings.TrimSpace(alias)
		}
		out = append(out, ref)
	}
	if len(out) == 0 {
		out = append(out, ProviderRef{Raw: "mock", Name: "mock"})
	}
	return out
}

// Manager owns the configured text and speech providers. The first entry of
// each list is the active one; the mock provider backstops empty config.
type Manager struct {
	text   TextGenerator
	speech SpeechSynthesizer
}

func NewManager(cfg config.Config) (*Manager, error) {
	textRef := ParseProviderList(cfg.TextProviders)[0]
	speechRef := ParseProviderList(cfg.SpeechProviders)[0]

	text, err := buildTextProvider(textRef)
	if err != nil {
		return nil, err
	}
	speech, err := buildSpeechProvider(speechRef)
	if err != nil {
		return nil, err
	}
	return &Manager{text: text, speech: speech}, nil
}

func (m *Manager) Text() TextGenerator {
	return m.text
}

func (m *Manager) Speech() SpeechSynthesizer {
	return m.speech
}

func buildTextProvider(ref ProviderRef) (TextGenerator, error) {
	switch strings.ToLower(ref.Name) {
	case "mock":
		return NewMockProvider(), nil
	case "gemini":
		return NewGeminiProvider(ref.KeyAlias), nil
	default:
		return nil, fmt.Errorf("unsupported text provider: %s", ref.Name)
	}
}

func buildSpeechProvider(ref ProviderRef) (SpeechSynthesizer, error) {
	switch strings.ToLower(ref.Name) {
	case "mock":
		return NewMockProvider(), nil
	case "gemini":
		return NewGeminiProvider(ref.KeyAlias), nil
	default:
		return nil, fmt.Errorf("unsupported speech provider: %s", ref.Name)
	}
}
