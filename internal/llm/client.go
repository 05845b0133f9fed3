package llm

import (
	"context"
	"time"
)

// Client is a text generation provider.
type Client interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ImageClient is a provider that can answer a prompt about an image.
type ImageClient interface {
	Client
	GenerateWithImage(ctx context.Context, prompt string, image Image) (string, error)
}

// Config holds configuration for the model providers and the classifier.
type Config struct {
	Provider         string
	APIKey           string
	Model            string
	BaseURL          string
	MaxRetries       int
	RetryDelay       time.Duration
	CallTimeout      time.Duration
	CacheTTL         time.Duration
	CacheSize        int
	RateLimit        int
	SummaryThreshold int
	Temperature      float64
	MaxTokens        int
}

// Defaults applied by NewClassifier when the config leaves a value unset.
const (
	DefaultCallTimeout      = 10 * time.Second
	DefaultSummaryThreshold = 800
	DefaultCacheTTL         = 15 * time.Minute
	DefaultCacheSize        = 512
	DefaultRateLimit        = 60
)
