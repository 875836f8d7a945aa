// Package llm talks to an OpenAI-compatible chat completion endpoint (Gemini by
// default) to propose video titles, descriptions and tags.
//
// Requests are retried on 408, 429, 5xx, timeouts and empty completions with
// exponential backoff that honours Retry-After. Failures are tagged with the
// markers from package services so callers can tell a missing key from an
// outage. DecodeLLMJSON tolerates the code fences and stray prose models tend
// to wrap around JSON replies.
package llm
