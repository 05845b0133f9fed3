package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Veraticus/memoflow/internal/common"
	"github.com/Veraticus/memoflow/internal/labels"
	"github.com/Veraticus/memoflow/internal/model"
	"github.com/Veraticus/memoflow/internal/service"
)

// Classifier turns note content into categories. Every method is best-effort:
// provider failures, timeouts and unusable replies yield ok == false.
type Classifier struct {
	client           Client
	catalog          *labels.Catalog
	cache            *classificationCache
	breaker          *CircuitBreaker
	logger           *slog.Logger
	rateLimiter      *rateLimiter
	guards           *guards
	retryOpts        service.RetryOptions
	callTimeout      time.Duration
	summaryThreshold int
	ownsGuards       bool
}

// NewClassifier creates a classifier backed by the provider named in cfg.
func NewClassifier(cfg Config, catalog *labels.Catalog, logger *slog.Logger) (*Classifier, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return NewClassifierWithClient(client, cfg, catalog, logger), nil
}

// NewClassifierWithClient creates a classifier around an existing client.
// The classifier owns its limiter, breaker and cache; use a Pool to share
// them between classifiers.
func NewClassifierWithClient(client Client, cfg Config, catalog *labels.Catalog, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	c := newClassifier(client, cfg, catalog, logger, newGuards(cfg, logger))
	c.ownsGuards = true
	return c
}

// guards is the state every classifier built from one Pool shares.
type guards struct {
	cache       *classificationCache
	breaker     *CircuitBreaker
	rateLimiter *rateLimiter
}

func newGuards(cfg Config, logger *slog.Logger) *guards {
	return &guards{
		cache:       newClassificationCache(cfg.CacheSize, cfg.CacheTTL),
		breaker:     NewCircuitBreaker(logger),
		rateLimiter: newRateLimiter(cfg.RateLimit),
	}
}

func (g *guards) close() {
	g.cache.Close()
	g.rateLimiter.Close()
}

func newClassifier(client Client, cfg Config, catalog *labels.Catalog, logger *slog.Logger, g *guards) *Classifier {
	if catalog == nil {
		catalog = labels.MustLoad("")
	}

	retryOpts := service.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 2
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = 500 * time.Millisecond
	}

	callTimeout := cfg.CallTimeout
	if callTimeout <= 0 {
		callTimeout = DefaultCallTimeout
	}
	threshold := cfg.SummaryThreshold
	if threshold <= 0 {
		threshold = DefaultSummaryThreshold
	}

	return &Classifier{
		client:           client,
		catalog:          catalog,
		cache:            g.cache,
		breaker:          g.breaker,
		logger:           logger,
		rateLimiter:      g.rateLimiter,
		guards:           g,
		retryOpts:        retryOpts,
		callTimeout:      callTimeout,
		summaryThreshold: threshold,
	}
}

// Close releases the cache and rate limiter when the classifier owns them.
// Classifiers handed out by a Pool leave them to Pool.Close.
func (c *Classifier) Close() error {
	if c.ownsGuards {
		c.guards.close()
	}
	return nil
}

// call runs one model request through the limiter, breaker and retry loop,
// bounded by the per-call timeout. It never returns an error or panics.
func (c *Classifier) call(ctx context.Context, op string, fn func(ctx context.Context) (string, error)) (reply string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("model call panicked", "op", op, "panic", r)
			reply, ok = "", false
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	err := common.WithRetry(ctx, func(ctx context.Context) error {
		if err := c.rateLimiter.wait(ctx); err != nil {
			return &common.RetryableError{Err: err, Retryable: false}
		}

		out, err := c.breaker.Execute(ctx, fn)
		if err != nil {
			if errors.Is(err, ErrCircuitOpen) {
				return &common.RetryableError{Err: err, Retryable: false}
			}
			c.logger.Debug("model call attempt failed", "op", op, "error", err)
			return &common.RetryableError{Err: err, Retryable: true}
		}

		reply = out
		return nil
	}, c.retryOpts)
	if err != nil {
		c.logger.Warn("model call failed", "op", op, "error", err)
		return "", false
	}

	return reply, true
}

func (c *Classifier) generate(ctx context.Context, op, prompt string) (string, bool) {
	return c.call(ctx, op, func(ctx context.Context) (string, error) {
		return c.client.Generate(ctx, prompt)
	})
}

// Classify labels a text note. Content longer than the summary threshold is
// summarized first and the summary is classified instead.
func (c *Classifier) Classify(ctx context.Context, content, sourceApp string) (model.Classification, bool) {
	content = strings.TrimSpace(content)
	if content == "" {
		return model.Classification{}, false
	}

	key := cacheKey(content, sourceApp)
	if cached, found := c.cache.get(key); found {
		c.logger.Debug("cache hit for content", "category", cached.Category)
		return cached, true
	}

	text := content
	var summary string
	if utf8.RuneCountInString(content) > c.summaryThreshold {
		if s, ok := c.Summarize(ctx, content); ok {
			summary = s
			text = s
		} else {
			text = truncateRunes(content, c.summaryThreshold)
		}
	}

	reply, ok := c.generate(ctx, "classify", buildClassifyPrompt(text, sourceApp))
	if !ok {
		return model.Classification{}, false
	}
	category := cleanLabel(reply)
	if category == "" {
		c.logger.Warn("classification reply unusable", "reply", truncateRunes(reply, 80))
		return model.Classification{}, false
	}

	result := model.Classification{
		Category:    category,
		SubCategory: c.subCategory(ctx, text, category),
		Summary:     summary,
	}
	c.cache.set(key, result)

	c.logger.Info("content classified",
		"category", result.Category,
		"sub_category", result.SubCategory,
		"source_app", sourceApp)

	return result, true
}

// subCategory asks for a short context phrase. Declines and reserved labels
// become an empty string.
func (c *Classifier) subCategory(ctx context.Context, content, category string) string {
	reply, ok := c.generate(ctx, "sub_category", buildSubCategoryPrompt(content, category))
	if !ok {
		return ""
	}
	phrase := cleanLabel(reply)
	if isDecline(phrase) || c.catalog.IsReserved(phrase) || strings.EqualFold(phrase, category) {
		return ""
	}
	return phrase
}

// Summarize returns a one-sentence summary of content.
func (c *Classifier) Summarize(ctx context.Context, content string) (string, bool) {
	reply, ok := c.generate(ctx, "summarize", buildSummaryPrompt(content))
	if !ok {
		return "", false
	}
	summary := firstLine(reply)
	if summary == "" {
		return "", false
	}
	return summary, true
}

// DescribeImage describes the image behind imageRef and classifies the
// description. It needs an ImageClient; text-only providers yield no result.
// When the description succeeds but classification does not, the returned
// classification carries only the description.
func (c *Classifier) DescribeImage(ctx context.Context, imageRef, sourceApp string) (model.Classification, bool) {
	imageClient, supported := c.client.(ImageClient)
	if !supported {
		c.logger.Warn("provider cannot describe images")
		return model.Classification{}, false
	}

	img, err := LoadImage(imageRef)
	if err != nil {
		c.logger.Warn("failed to load image", "image_ref", imageRef, "error", err)
		return model.Classification{}, false
	}

	prompt := buildDescribePrompt(sourceApp)
	reply, ok := c.call(ctx, "describe_image", func(ctx context.Context) (string, error) {
		return imageClient.GenerateWithImage(ctx, prompt, img)
	})
	if !ok {
		return model.Classification{}, false
	}
	description := strings.TrimSpace(reply)
	if description == "" {
		return model.Classification{}, false
	}

	result, ok := c.Classify(ctx, description, sourceApp)
	if !ok {
		return model.Classification{Description: description}, true
	}
	result.Description = description
	return result, true
}

// MatchFromList asks the model whether content clearly belongs to one of
// candidates. The answer must name a candidate or give its 1-based index;
// anything else, including NONE, is no match.
func (c *Classifier) MatchFromList(ctx context.Context, content, suggested string, candidates []string) (string, bool) {
	if len(candidates) == 0 || strings.TrimSpace(content) == "" {
		return "", false
	}

	reply, ok := c.generate(ctx, "match_from_list", buildMatchPrompt(content, suggested, candidates))
	if !ok {
		return "", false
	}

	match, found := parseListChoice(reply, candidates)
	if found {
		c.logger.Debug("content matched listed category", "suggested", suggested, "category", match)
	}
	return match, found
}
