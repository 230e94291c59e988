package ai

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/pkoukk/tiktoken-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// TextClient is a single vendor's text completion endpoint.
type TextClient interface {
	// GenerateText returns the completion for the given prompts.
	GenerateText(ctx context.Context, systemPrompt, userPrompt string, params GenerationParams) (string, UsageInfo, error)
	// Configured reports whether the client has what it needs to call the vendor.
	Configured() bool
	Model() string
	Vendor() string
}

var (
	aiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyengine_ai_requests_total",
			Help: "Total number of requests to the AI provider.",
		},
		[]string{"model", "status"},
	)
	aiRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storyengine_ai_request_duration_seconds",
			Help:    "Histogram of AI provider request durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model"},
	)
	aiPromptTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storyengine_ai_prompt_tokens",
			Help:    "Histogram of prompt token counts.",
			Buckets: prometheus.LinearBuckets(100, 100, 20),
		},
		[]string{"model"},
	)
	aiCompletionTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storyengine_ai_completion_tokens",
			Help:    "Histogram of completion token counts.",
			Buckets: prometheus.LinearBuckets(100, 100, 20),
		},
		[]string{"model"},
	)
)

const tokenEncoding = "cl100k_base"

var (
	encOnce sync.Once
	enc     *tiktoken.Tiktoken
)

// estimateTokens approximates a token count when the vendor reports none.
// Without an encoder it falls back to a whitespace word count.
func estimateTokens(texts ...string) int {
	encOnce.Do(func() {
		e, err := tiktoken.GetEncoding(tokenEncoding)
		if err == nil {
			enc = e
		}
	})
	n := 0
	for _, t := range texts {
		if enc != nil {
			n += len(enc.Encode(t, nil, nil))
		} else {
			n += len(strings.Fields(t))
		}
	}
	return n
}

// fillUsage completes usage figures the vendor left empty.
func fillUsage(u UsageInfo, systemPrompt, userPrompt, completion string) UsageInfo {
	if u.PromptTokens == 0 {
		u.PromptTokens = estimateTokens(systemPrompt, userPrompt)
	}
	if u.CompletionTokens == 0 {
		u.CompletionTokens = estimateTokens(completion)
	}
	if u.TotalTokens == 0 {
		u.TotalTokens = u.PromptTokens + u.CompletionTokens
	}
	return u
}

func float32Val(f64 *float64, def float32) float32 {
	if f64 == nil {
		return def
	}
	return float32(*f64)
}

func intVal(i *int, def int) int {
	if i == nil {
		return def
	}
	return *i
}

// unconfiguredClient stands in for a vendor whose credential is missing.
type unconfiguredClient struct {
	vendor string
	model  string
}

func (c *unconfiguredClient) GenerateText(context.Context, string, string, GenerationParams) (string, UsageInfo, error) {
	return "", UsageInfo{}, ErrProviderUnavailable
}

func (c *unconfiguredClient) Configured() bool { return false }
func (c *unconfiguredClient) Model() string    { return c.model }
func (c *unconfiguredClient) Vendor() string   { return c.vendor }

// newHTTPClient builds the transport shared by the HTTP-based vendors.
func newHTTPClient(cfg ClientConfig) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.ConnectTimeout > 0 {
		transport.DialContext = (&net.Dialer{
			Timeout:   cfg.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext
		transport.TLSHandshakeTimeout = cfg.ConnectTimeout
	}
	return &http.Client{Timeout: cfg.Timeout, Transport: transport}
}
