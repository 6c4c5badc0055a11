// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

// Package llm provides clients for LLM completion APIs.
//
// The command interpreter treats the model as an untrusted parsing
// oracle: one non-streaming completion per chat message, text in, text
// out. Two wire implementations exist: Anthropic's Messages API and
// the OpenAI chat completions format (which also covers OpenRouter,
// vLLM, Ollama, and other compatible servers). Both satisfy [Provider],
// so the interpreter never knows which vendor is configured.
//
// Nothing in this package inspects or validates the model's output.
// That is deliberate: sanitizing untrusted completions is the
// interpreter's job, and it assumes the worst regardless of vendor.
package llm
