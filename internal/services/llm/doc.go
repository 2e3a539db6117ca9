// Package llm provides an OpenRouter-compatible chat client that returns JSON
// completions.
//
// The AI selector uses CompleteJSON to ask a model which catalog candidate a
// filename refers to; preflight uses HealthCheck to verify the key and model.
//
// # Configuration
//
// Requires api_key and model, and optionally base_url, referer, title and
// timeout.
//
// # Retry Behaviour
//
// Completions run under the injected retry.Policy. HTTP 408/429/5xx, network
// timeouts and empty completions are retried; Retry-After is honoured up to
// the policy's maximum delay. HealthCheck makes a single attempt. Context
// cancellation aborts retries immediately.
//
// # Parsing
//
// DecodeJSON tolerates code fences and prose around the JSON object, which
// several providers emit even in JSON mode.
package llm
