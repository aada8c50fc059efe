// Package llm provides an OpenRouter chat client used to clean transcript
// paragraphs and to propose chapter headings.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.Format: one chat completion with a system instruction and user text.
// Client.HealthCheck: verify API key and model availability.
// ParagraphPrompt and StructurePrompt: system instructions for the two calls.
//
// # Failure Classification
//
// Format never retries. Every failure is a *services.RemoteCallError whose
// Kind drives the caller's backoff: timeouts (deadline, 408, 504), network
// (transport errors, 429, 5xx, with Retry-After), and other (4xx, empty or
// undecodable replies). Context cancellation is returned unwrapped.
package llm
