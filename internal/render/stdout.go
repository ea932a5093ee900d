package render

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"toolcall/internal/events"
)

// StdoutRenderer writes events to a plain text writer.
type StdoutRenderer struct {
	w          io.Writer
	mu         sync.Mutex
	verbose    bool
	quiet      bool
	showHeader bool
	showTools  bool
}

// NewStdoutRenderer creates a plain text renderer.
func NewStdoutRenderer(w io.Writer, verbose bool, quiet bool, showHeader bool, showTools bool) *StdoutRenderer {
	return &StdoutRenderer{w: w, verbose: verbose, quiet: quiet, showHeader: showHeader, showTools: showTools}
}

func (r *StdoutRenderer) Emit(event events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch event.Type {
	case events.TurnStarted:
		if payload, ok := event.Payload.(events.TurnStartedPayload); ok {
			if r.quiet || !r.showHeader {
				return
			}
			fmt.Fprintf(r.w, "toolcall | model: %s | run: %s\n", payload.Model, payload.RunID)
			fmt.Fprintf(r.w, "Started: %s\n", payload.StartedAt.Format("2006-01-02T15:04:05Z07:00"))
		}
	case events.ModelResponded:
		if payload, ok := event.Payload.(events.ModelRespondedPayload); ok {
			if r.quiet || !r.verbose {
				return
			}
			fmt.Fprintln(r.w, "model:")
			for _, line := range strings.Split(strings.TrimRight(payload.Text, "\n"), "\n") {
				fmt.Fprintf(r.w, "  %s\n", line)
			}
		}
	case events.ToolCallsExtracted:
		if payload, ok := event.Payload.(events.ToolCallsExtractedPayload); ok {
			if r.quiet || !r.showTools {
				return
			}
			if payload.Count == 0 {
				fmt.Fprintln(r.w, "tools: none")
				return
			}
			fmt.Fprintf(r.w, "tools: %s\n", strings.Join(payload.Tools, ", "))
		}
	case events.ToolCallStarted:
		if payload, ok := event.Payload.(events.ToolCallStartedPayload); ok {
			if r.quiet || !r.showTools || !r.verbose {
				return
			}
			fmt.Fprintf(r.w, "tool: %s start\n", payload.ToolName)
			fmt.Fprintf(r.w, "input: %v\n", payload.Input)
		}
	case events.ToolCallFinished, events.ToolCallFailed:
		if payload, ok := event.Payload.(events.ToolCallFinishedPayload); ok {
			if r.quiet || !r.showTools {
				return
			}
			status := payload.Status
			if status == "success" {
				status = "ok"
			} else if status == "error" {
				status = "err"
			}
			trunc := ""
			if payload.Truncated {
				trunc = ", truncated"
			}
			fmt.Fprintf(r.w, "tool: %s %s (%dms, %d lines, %d bytes%s)\n", payload.ToolName, status, payload.DurationMs, payload.LineCount, payload.ByteCount, trunc)
			if (r.verbose || payload.Status == "error") && payload.Preview != "" {
				fmt.Fprintln(r.w, "preview:")
				for _, line := range strings.Split(payload.Preview, "\n") {
					fmt.Fprintf(r.w, "  %s\n", line)
				}
			}
		}
	case events.TurnFinished:
		if payload, ok := event.Payload.(events.TurnFinishedPayload); ok {
			if payload.Answer == "" {
				return
			}
			fmt.Fprintf(r.w, "answer: %s\n", payload.Answer)
		}
	case events.TurnError:
		if payload, ok := event.Payload.(events.TurnErrorPayload); ok {
			fmt.Fprintf(r.w, "\nError: %s\n", payload.Message)
		}
	}
}

func (r *StdoutRenderer) Close() error {
	return nil
}
