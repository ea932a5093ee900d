package agent

import (
	"fmt"
	"strings"

	"toolcall/internal/tools"
)

func systemPrompt() string {
	return strings.TrimSpace(`You are a helpful assistant that can call tools.

Requirements:
- When a tool can answer more reliably than you can, call it instead of guessing.
- Emit each tool call as one fenced JSON block and nothing else inside the block.
- Use exactly the parameter names listed for the tool.
- Do not invent tool names.
- When no tool is needed, answer directly and concisely.`)
}

func developerPrompt(catalog *tools.Catalog, capabilities []string) string {
	note := "No session capabilities are connected; only self-contained tools will succeed."
	if len(capabilities) > 0 {
		note = "Connected capabilities: " + strings.Join(capabilities, ", ") + "."
	}
	return strings.TrimSpace(fmt.Sprintf("%s\n%s", catalog.PromptSummary(), note))
}

func followUpPrompt(records []CallRecord) string {
	var b strings.Builder
	b.WriteString("Tool results:\n")
	for _, record := range records {
		status := "ok"
		if !record.Result.Success {
			status = "failed"
		}
		fmt.Fprintf(&b, "\n[%s %s]\n%s\n", record.Call.Tool, status, strings.TrimSpace(record.Result.Output))
	}
	b.WriteString("\nAnswer the user's question using these results. If a tool failed, say so and answer as well as you can without it. Do not call tools again.")
	return b.String()
}
