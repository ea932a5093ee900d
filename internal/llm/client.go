// Package llm talks to OpenAI-compatible chat completion endpoints.
package llm

import (
	"context"

	"github.com/openai/openai-go/v3"
)

// ToolCall is a native function call. Arguments is the raw JSON string the
// endpoint returned; the tools package decodes and repairs it.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Response is one assistant message.
type Response struct {
	Content      string
	ToolCalls    []ToolCall
	Model        string
	FinishReason string
}

// Request carries messages and, optionally, native tool definitions.
type Request struct {
	Model      string
	Messages   []openai.ChatCompletionMessageParamUnion
	Tools      []openai.ChatCompletionToolUnionParam
	ToolChoice openai.ChatCompletionToolChoiceOptionUnionParam
}

// Client produces one completion per call.
type Client interface {
	Create(ctx context.Context, req Request) (Response, error)
}
