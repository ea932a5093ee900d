package tools

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"toolcall/internal/events"
	"toolcall/internal/util"
)

const (
	DefaultMaxOutputBytes = 16 * 1024
	DefaultConcurrency    = 4
)

// Registry dispatches validated calls to handlers. It is safe for
// concurrent use.
type Registry struct {
	mu      sync.RWMutex
	catalog *Catalog
	tools   map[string]RegisteredTool
	execCtx ExecutionContext

	logger         *zap.Logger
	sink           events.Sink
	searcher       Searcher
	maxOutputBytes int
	concurrency    int
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the dispatch logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithSearcher sets the web_search backend.
func WithSearcher(searcher Searcher) Option {
	return func(r *Registry) { r.searcher = searcher }
}

// WithEventSink receives tool call events.
func WithEventSink(sink events.Sink) Option {
	return func(r *Registry) { r.sink = sink }
}

// WithMaxOutputBytes caps ToolResult.Output. Zero disables the cap.
func WithMaxOutputBytes(n int) Option {
	return func(r *Registry) { r.maxOutputBytes = n }
}

// WithConcurrency bounds ExecuteAll.
func WithConcurrency(n int) Option {
	return func(r *Registry) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// NewRegistry binds every definition in catalog to its built-in handler.
// A nil catalog means DefaultCatalog.
func NewRegistry(catalog *Catalog, opts ...Option) (*Registry, error) {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	r := &Registry{
		catalog:        catalog,
		tools:          make(map[string]RegisteredTool, len(catalog.defs)),
		logger:         zap.NewNop(),
		maxOutputBytes: DefaultMaxOutputBytes,
		concurrency:    DefaultConcurrency,
	}
	for _, opt := range opts {
		opt(r)
	}
	handlers := builtinHandlers(r)
	for _, def := range catalog.List() {
		handler, ok := handlers[def.HandlerKey]
		if !ok {
			return nil, fmt.Errorf("tool %s: no handler for key %q", def.Name, def.HandlerKey)
		}
		r.tools[def.Name] = RegisteredTool{Definition: def, Handler: handler}
	}
	return r, nil
}

// Lookup resolves name against the effective catalog.
func (r *Registry) Lookup(name string) (ToolDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool.Definition, ok
}

// Names returns tool names in catalog order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.catalog.Names()
}

// Catalog returns the effective catalog, including runtime registrations.
func (r *Registry) Catalog() *Catalog {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.catalog
}

// Context returns the current execution context.
func (r *Registry) Context() ExecutionContext {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.execCtx
}

// SetContext merges the non-nil capabilities of partial into the current
// context. Existing capabilities are never removed.
func (r *Registry) SetContext(partial ExecutionContext) {
	r.mu.Lock()
	r.execCtx = r.execCtx.Merge(partial)
	available := r.execCtx.Available()
	r.mu.Unlock()
	r.logger.Debug("execution context updated", zap.Strings("capabilities", available))
}

// Register adds a tool beyond the built-in catalog.
func (r *Registry) Register(def ToolDefinition, handler Handler) error {
	if handler == nil {
		return fmt.Errorf("tool %s: nil handler", def.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	extended, err := r.catalog.extend(def)
	if err != nil {
		return err
	}
	def, _ = extended.Lookup(def.Name)
	r.catalog = extended
	r.tools[def.Name] = RegisteredTool{Definition: def, Handler: handler}
	r.logger.Debug("tool registered", zap.String("tool", def.Name))
	return nil
}

// Extract runs the extractor against the effective catalog.
func (r *Registry) Extract(text string) []ToolCall {
	return NewExtractor(r).Extract(text)
}

// Run extracts every call in text and executes them.
func (r *Registry) Run(ctx context.Context, text string) []ToolResult {
	calls := r.Extract(text)
	names := make([]string, 0, len(calls))
	for _, call := range calls {
		names = append(names, call.Tool)
	}
	r.sink.Emit(events.New(events.ToolCallsExtracted, events.ToolCallsExtractedPayload{Count: len(calls), Tools: names}))
	return r.ExecuteAll(ctx, calls)
}

// ExecuteAll executes calls concurrently and returns results in call order.
func (r *Registry) ExecuteAll(ctx context.Context, calls []ToolCall) []ToolResult {
	results := make([]ToolResult, len(calls))
	var g errgroup.Group
	g.SetLimit(r.concurrency)
	for i, call := range calls {
		g.Go(func() error {
			results[i] = r.Execute(ctx, call)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Execute validates and runs one call. Every outcome, including unknown
// tools, validation failures, handler errors, and panics, is a ToolResult.
func (r *Registry) Execute(ctx context.Context, call ToolCall) ToolResult {
	callID := uuid.NewString()
	logger := r.logger.With(zap.String("tool", call.Tool), zap.String("call_id", callID))

	r.mu.RLock()
	tool, ok := r.tools[call.Tool]
	execCtx := r.execCtx
	r.mu.RUnlock()
	if !ok {
		logger.Warn("unknown tool")
		return r.finish(callID, call.Tool, time.Now(), Failed("%s: %q", ErrUnknownTool, call.Tool))
	}

	prepared, err := Prepare(tool.Definition, call)
	if err != nil {
		logger.Warn("tool call rejected", zap.Error(err))
		return r.finish(callID, call.Tool, time.Now(), Failed("%s", err))
	}

	startedAt := time.Now()
	r.sink.Emit(events.New(events.ToolCallStarted, events.ToolCallStartedPayload{
		CallID:    callID,
		ToolName:  call.Tool,
		Input:     prepared.Parameters,
		StartedAt: startedAt,
	}))
	logger.Debug("tool call started")

	result := r.invoke(ctx, logger, tool, prepared.Parameters, execCtx)
	if !result.Success {
		logger.Warn("tool call failed", zap.String("output", util.Preview(result.Output, 1, 200)))
	} else {
		logger.Debug("tool call finished", zap.Duration("duration", time.Since(startedAt)))
	}
	return r.finish(callID, call.Tool, startedAt, result)
}

func (r *Registry) invoke(ctx context.Context, logger *zap.Logger, tool RegisteredTool, params Params, execCtx ExecutionContext) (result ToolResult) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("tool handler panicked", zap.Any("panic", rec), zap.ByteString("stack", debug.Stack()))
			result = Failed("%s failed: panic: %v", tool.Definition.Name, rec)
		}
	}()
	res, err := tool.Handler(ctx, params, execCtx)
	if err != nil {
		return Failed("%s failed: %v", tool.Definition.Name, err)
	}
	return res
}

func (r *Registry) finish(callID, name string, startedAt time.Time, result ToolResult) ToolResult {
	output, truncated := util.CapOutput(result.Output, r.maxOutputBytes)
	result.Output = output

	eventType, status := events.ToolCallFinished, "success"
	if !result.Success {
		eventType, status = events.ToolCallFailed, "error"
	}
	r.sink.Emit(events.New(eventType, events.ToolCallFinishedPayload{
		CallID:     callID,
		ToolName:   name,
		Status:     status,
		Preview:    util.Preview(output, 5, 400),
		LineCount:  util.LineCount(output),
		ByteCount:  len(output),
		Truncated:  truncated,
		DurationMs: time.Since(startedAt).Milliseconds(),
	}))
	return result
}
