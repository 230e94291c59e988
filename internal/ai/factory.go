package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	VendorOpenAI = "openai"
	VendorClaude = "claude"
	VendorGemini = "gemini"
	VendorOllama = "ollama"
)

var defaultModels = map[string]string{
	VendorOpenAI: "gpt-4",
	VendorClaude: "claude-sonnet-4-5-20250929",
	VendorGemini: "gemini-2.5-flash",
	VendorOllama: "llama3",
}

var vendorDisplayNames = map[string]string{
	VendorOpenAI: "OpenAI",
	VendorClaude: "Claude",
	VendorGemini: "Gemini",
	VendorOllama: "Ollama",
}

// placeholderAPIKey is the sample value shipped in env templates.
const placeholderAPIKey = "your-api-key-here"

// ClientConfig selects and configures a vendor client.
type ClientConfig struct {
	Provider  string
	Model     string
	APIKey    string
	BaseURL   string
	MaxTokens int
	// Timeout bounds the HTTP transport; generation deadlines are set by the generator.
	Timeout time.Duration
	// ConnectTimeout bounds dialing the provider.
	ConnectTimeout time.Duration
}

// HasCredential reports whether key is set and is not the placeholder.
func HasCredential(key string) bool {
	key = strings.TrimSpace(key)
	return key != "" && key != placeholderAPIKey
}

// NewTextClient builds the client for cfg.Provider. A vendor without a usable
// credential yields a client whose Configured reports false.
func NewTextClient(ctx context.Context, cfg ClientConfig, logger *zap.Logger) (TextClient, error) {
	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if _, ok := defaultModels[provider]; !ok {
		return nil, fmt.Errorf("unknown AI provider: '%s'", cfg.Provider)
	}
	if cfg.Model == "" {
		cfg.Model = defaultModels[provider]
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2000
	}

	log := logger.With(zap.String("provider", provider), zap.String("model", cfg.Model))

	if provider == VendorOllama {
		if strings.TrimSpace(cfg.BaseURL) == "" {
			log.Warn("Ollama base URL not set, AI generation disabled")
			return &unconfiguredClient{vendor: provider, model: cfg.Model}, nil
		}
		log.Info("Using Ollama AI client", zap.String("baseURL", cfg.BaseURL))
		return newOllamaClient(cfg, logger)
	}

	if !HasCredential(cfg.APIKey) {
		log.Warn("AI API key not configured, AI generation disabled")
		return &unconfiguredClient{vendor: provider, model: cfg.Model}, nil
	}

	switch provider {
	case VendorOpenAI:
		log.Info("Using OpenAI AI client")
		return newOpenAIClient(cfg, logger), nil
	case VendorClaude:
		log.Info("Using Claude AI client")
		return newClaudeClient(ctx, cfg, logger)
	default:
		log.Info("Using Gemini AI client")
		return newGeminiClient(ctx, cfg, logger)
	}
}

// displayName renders a vendor and model as "Claude - claude-sonnet-...".
func displayName(vendor, model string) string {
	name, ok := vendorDisplayNames[vendor]
	if !ok {
		name = vendor
	}
	return fmt.Sprintf("%s - %s", name, model)
}
