package providers

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"math"
	"strings"
)

// MockProvider returns deterministic replies keyed on the operation name.
// It exists for tests and for running the pipeline without API keys.
type MockProvider struct{}

func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (m *MockProvider) Generate(ctx context.Context, req GenerateRequest) (string, ProviderInfo, error) {
	_ = ctx
	info := ProviderInfo{Name: "mock", Model: "mock-text-v1"}
	if strings.Contains(strings.ToLower(req.Operation), "relevant") {
		return "yes", info, nil
	}
	return "Mock reply.", info, nil
}

func (m *MockProvider) GenerateStructured(ctx context.Context, req GenerateRequest, out any) (ProviderInfo, error) {
	_ = ctx
	info := ProviderInfo{Name: "mock", Model: "mock-text-v1"}
	var canned any
	op := strings.ToLower(req.Operation)
	switch {
	case strings.Contains(op, "summarize"):
		canned = map[string]any{"summary": "Deterministic mock summary."}
	case strings.Contains(op, "evaluate"):
		canned = map[string]any{"is_valid": true, "feedback_message": "Good script"}
	default:
		canned = map[string]any{"script": "Speaker1: Mock opening.\nSpeaker2: Mock reply."}
	}
	b, _ := json.Marshal(canned)
	if err := json.Unmarshal(b, out); err != nil {
		return info, err
	}
	return info, nil
}

// Synthesize emits one second of a low sine tone as 16-bit PCM at 24 kHz,
// enough for the assembler to treat it as real speech in tests and dev runs.
func (m *MockProvider) Synthesize(ctx context.Context, text string) ([]byte, ProviderInfo, error) {
	_ = ctx
	_ = text
	const (
		rate = 24000
		freq = 220.0
		amp  = 8000.0
	)
	out := make([]byte, rate*2)
	for i := 0; i < rate; i++ {
		v := int16(amp * math.Sin(2*math.Pi*freq*float64(i)/rate))
		binary.LittleEndian.PutUint16(out[i*2:], uint16(v))
	}
	return out, ProviderInfo{Name: "mock", Model: "mock-speech-v1"}, nil
}
