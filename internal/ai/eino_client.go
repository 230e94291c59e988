package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// einoClient adapts an eino chat model (Claude, Gemini) to TextClient.
type einoClient struct {
	chat   model.BaseChatModel
	vendor string
	model  string
	logger *zap.Logger
}

func claudeConfig(cfg ClientConfig) *claude.Config {
	claudeCfg := &claude.Config{
		APIKey:     cfg.APIKey,
		Model:      cfg.Model,
		MaxTokens:  cfg.MaxTokens,
		HTTPClient: newHTTPClient(cfg),
	}
	if cfg.BaseURL != "" {
		baseURL := cfg.BaseURL
		claudeCfg.BaseURL = &baseURL
	}
	return claudeCfg
}

func newClaudeClient(ctx context.Context, cfg ClientConfig, logger *zap.Logger) (*einoClient, error) {
	chat, err := claude.NewChatModel(ctx, claudeConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create claude chat model: %w", err)
	}
	return &einoClient{chat: chat, vendor: VendorClaude, model: cfg.Model, logger: logger.Named("ClaudeClient")}, nil
}

func geminiClientConfig(cfg ClientConfig) *genai.ClientConfig {
	return &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: newHTTPClient(cfg),
	}
}

func newGeminiClient(ctx context.Context, cfg ClientConfig, logger *zap.Logger) (*einoClient, error) {
	client, err := genai.NewClient(ctx, geminiClientConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	chat, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client: client,
		Model:  cfg.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini chat model: %w", err)
	}
	return &einoClient{chat: chat, vendor: VendorGemini, model: cfg.Model, logger: logger.Named("GeminiClient")}, nil
}

func (c *einoClient) GenerateText(ctx context.Context, systemPrompt, userPrompt string, params GenerationParams) (string, UsageInfo, error) {
	usage := UsageInfo{}
	opts := []model.Option{}
	if params.Temperature != nil {
		opts = append(opts, model.WithTemperature(float32(*params.Temperature)))
	}
	if params.MaxTokens != nil {
		opts = append(opts, model.WithMaxTokens(*params.MaxTokens))
	}

	msg, err := c.chat.Generate(ctx, []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(userPrompt),
	}, opts...)
	if err != nil {
		return "", usage, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return "", usage, fmt.Errorf("%w: empty response", ErrGenerationFailed)
	}

	if msg.ResponseMeta != nil && msg.ResponseMeta.Usage != nil {
		usage.PromptTokens = msg.ResponseMeta.Usage.PromptTokens
		usage.CompletionTokens = msg.ResponseMeta.Usage.CompletionTokens
		usage.TotalTokens = msg.ResponseMeta.Usage.TotalTokens
	}
	c.logger.Debug("Chat model usage",
		zap.String("model", c.model),
		zap.Int("promptTokens", usage.PromptTokens),
		zap.Int("completionTokens", usage.CompletionTokens),
	)
	return msg.Content, usage, nil
}

func (c *einoClient) Configured() bool { return true }
func (c *einoClient) Model() string    { return c.model }
func (c *einoClient) Vendor() string   { return c.vendor }
