package agent

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/packages/param"
	"go.uber.org/zap"

	"toolcall/internal/events"
	"toolcall/internal/llm"
	"toolcall/internal/render"
	"toolcall/internal/tools"
	"toolcall/internal/util"
)

// TurnResult captures one turn for JSON output.
type TurnResult struct {
	RunID       string         `json:"run_id"`
	StartedAt   time.Time      `json:"timestamp_start"`
	FinishedAt  time.Time      `json:"timestamp_end"`
	Question    string         `json:"question"`
	Model       string         `json:"model"`
	Status      string         `json:"status"`
	Response    string         `json:"response"`
	FinalAnswer string         `json:"final_answer"`
	Calls       []CallRecord   `json:"calls"`
	Events      []events.Event `json:"events"`
}

// CallRecord pairs a dispatched call with its result.
type CallRecord struct {
	Call   tools.ToolCall   `json:"call"`
	Result tools.ToolResult `json:"result"`
}

// Options tune a turn.
type Options struct {
	Model string
	// NativeTools also offers the catalog as function tools.
	NativeTools bool
	// FollowUp asks the model once more with the tool results.
	FollowUp bool
}

// Agent runs a single model turn through the extraction pipeline.
type Agent struct {
	client   llm.Client
	registry *tools.Registry
	renderer render.Renderer
	logger   *zap.Logger
	opts     Options
}

// NewAgent constructs an Agent. renderer may be nil.
func NewAgent(client llm.Client, registry *tools.Registry, renderer render.Renderer, logger *zap.Logger, opts Options) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{client: client, registry: registry, renderer: renderer, logger: logger, opts: opts}
}

// Turn asks the model, extracts tool calls from its reply, dispatches them,
// and optionally asks once more for a final answer.
func (a *Agent) Turn(ctx context.Context, question string) (TurnResult, error) {
	started := time.Now()
	result := TurnResult{
		RunID:     uuid.NewString(),
		StartedAt: started,
		Question:  question,
		Model:     a.opts.Model,
		Status:    "failure",
	}
	logger := a.logger.With(zap.String("run_id", result.RunID))
	emit := func(event events.Event) {
		result.Events = append(result.Events, event)
		if a.renderer != nil {
			a.renderer.Emit(event)
		}
	}
	fail := func(err error) (TurnResult, error) {
		logger.Error("turn failed", zap.Error(err))
		emit(events.New(events.TurnError, events.TurnErrorPayload{Message: err.Error()}))
		result.FinishedAt = time.Now()
		return result, err
	}

	emit(events.New(events.TurnStarted, events.TurnStartedPayload{
		RunID:     result.RunID,
		Model:     a.opts.Model,
		Question:  question,
		StartedAt: started,
	}))

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(systemPrompt()),
		openai.DeveloperMessage(developerPrompt(a.registry.Catalog(), a.registry.Context().Available())),
		openai.UserMessage(question),
	}
	req := llm.Request{Model: a.opts.Model, Messages: messages}
	if a.opts.NativeTools {
		req.Tools = a.registry.Catalog().OpenAITools()
		req.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{OfAuto: param.NewOpt("auto")}
	}

	response, err := a.client.Create(ctx, req)
	if err != nil {
		return fail(err)
	}
	result.Response = response.Content
	logger.Debug("model responded",
		zap.String("served_model", response.Model),
		zap.String("finish_reason", response.FinishReason),
		zap.Int("native_calls", len(response.ToolCalls)))
	emit(events.New(events.ModelResponded, events.ModelRespondedPayload{Text: response.Content, NativeCalls: len(response.ToolCalls)}))

	calls := a.collectCalls(logger, response)
	names := make([]string, 0, len(calls))
	for _, call := range calls {
		names = append(names, call.Tool)
	}
	emit(events.New(events.ToolCallsExtracted, events.ToolCallsExtractedPayload{Count: len(calls), Tools: names}))
	logger.Debug("tool calls extracted", zap.Strings("tools", names))

	results := a.registry.ExecuteAll(ctx, calls)
	for i, call := range calls {
		result.Calls = append(result.Calls, CallRecord{Call: call, Result: results[i]})
	}

	result.FinalAnswer = strings.TrimSpace(stripToolBlocks(response.Content))
	if len(calls) > 0 && a.opts.FollowUp {
		followUp := append(messages,
			openai.AssistantMessage(response.Content),
			openai.DeveloperMessage(followUpPrompt(result.Calls)),
		)
		final, err := a.client.Create(ctx, llm.Request{Model: a.opts.Model, Messages: followUp})
		if err != nil {
			return fail(err)
		}
		result.FinalAnswer = strings.TrimSpace(final.Content)
	}

	result.Status = "success"
	result.FinishedAt = time.Now()
	emit(events.New(events.TurnFinished, events.TurnFinishedPayload{
		Status:     result.Status,
		Answer:     result.FinalAnswer,
		Calls:      len(result.Calls),
		FinishedAt: result.FinishedAt,
	}))
	return result, nil
}

// collectCalls merges calls found in the text with native function calls.
func (a *Agent) collectCalls(logger *zap.Logger, response llm.Response) []tools.ToolCall {
	calls := a.registry.Extract(response.Content)
	for _, native := range response.ToolCalls {
		call, ok := tools.FromNative(native.Name, native.Arguments)
		if !ok {
			logger.Warn("dropping malformed native tool call",
				zap.String("tool", native.Name),
				zap.String("arguments", util.RedactSecrets(native.Arguments)))
			continue
		}
		if _, known := a.registry.Lookup(call.Tool); !known {
			logger.Warn("dropping native call to unknown tool", zap.String("tool", call.Tool))
			continue
		}
		calls = append(calls, call)
	}
	return tools.Dedupe(calls)
}

// stripToolBlocks removes fenced blocks so the remaining prose can stand as
// an answer.
func stripToolBlocks(text string) string {
	var b strings.Builder
	for {
		open := strings.Index(text, "```")
		if open < 0 {
			b.WriteString(text)
			break
		}
		b.WriteString(text[:open])
		rest := text[open+3:]
		end := strings.Index(rest, "```")
		if end < 0 {
			break
		}
		text = rest[end+3:]
	}
	return b.String()
}
