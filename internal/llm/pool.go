package llm

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/Veraticus/memoflow/internal/labels"
)

// Pool hands out classifiers that share one provider client and one set of
// guards: the rate budget, the circuit breaker and the result cache. Each
// background task takes its own classifier, but a dead provider or a spent
// budget is seen by all of them. A Pool is safe for concurrent use.
type Pool struct {
	client  Client
	catalog *labels.Catalog
	logger  *slog.Logger
	guards  *guards
	cfg     Config
	once    sync.Once
}

// NewPool creates a pool backed by the provider named in cfg.
func NewPool(cfg Config, catalog *labels.Catalog, logger *slog.Logger) (*Pool, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return NewPoolWithClient(client, cfg, catalog, logger), nil
}

// NewPoolWithClient creates a pool around an existing client.
func NewPoolWithClient(client Client, cfg Config, catalog *labels.Catalog, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		client:  client,
		catalog: catalog,
		logger:  logger,
		guards:  newGuards(cfg, logger),
		cfg:     cfg,
	}
}

// Classifier returns a classifier bound to the pool's shared state. Closing
// it leaves that state alone.
func (p *Pool) Classifier() *Classifier {
	return newClassifier(p.client, p.cfg, p.catalog, p.logger, p.guards)
}

// BreakerState reports the shared circuit breaker's state.
func (p *Pool) BreakerState() string {
	return p.guards.breaker.State()
}

// Close releases the shared cache and rate limiter. Classifiers still in use
// stop making model calls.
func (p *Pool) Close() error {
	p.once.Do(p.guards.close)
	return nil
}
