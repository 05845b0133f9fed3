// Package llm wraps generative model providers (Ollama, OpenAI and Anthropic)
// behind a best-effort classifier. Every model call is rate limited, guarded
// by a circuit breaker, retried and bounded by a hard timeout; failures surface
// as "no result" rather than errors.
package llm
