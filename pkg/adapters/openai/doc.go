// Package openai implements ports.ChatModel over an OpenAI-compatible
// chat-completions HTTP API, with tool calling.
package openai
