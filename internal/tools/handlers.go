package tools

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"toolcall/internal/calc"
)

const (
	defaultSearchResults = 5
	maxWebSearchResults  = 10
	maxDocumentResults   = 20
	defaultImagePrompt   = "Describe this image."
	noOutput             = "(no output)"
)

// builtinHandlers returns the handler table keyed by HandlerKey.
func builtinHandlers(r *Registry) map[string]Handler {
	return map[string]Handler{
		"web_search":       r.webSearch,
		"calculate":        calculate,
		"run_python":       runPython,
		"run_javascript":   runJavaScript,
		"execute_sql":      executeSQL,
		"read_file":        readFile,
		"write_file":       writeFile,
		"list_files":       listFiles,
		"search_documents": searchDocuments,
		"analyze_image":    analyzeImage,
	}
}

func calculate(_ context.Context, params Params, _ ExecutionContext) (ToolResult, error) {
	expression := strings.TrimSpace(params.Str("expression"))
	value, err := calc.Evaluate(expression)
	if err != nil {
		return Failed("calculate: %v", err), nil
	}
	formatted := calc.Format(value)
	return NewResult(fmt.Sprintf("%s = %s", expression, formatted), map[string]any{
		"expression": expression,
		"result":     value,
	}), nil
}

func (r *Registry) webSearch(ctx context.Context, params Params, ec ExecutionContext) (ToolResult, error) {
	query := strings.TrimSpace(params.Str("query"))
	limit := clampLimit(params, "num_results", defaultSearchResults, maxWebSearchResults)

	search := ec.WebSearch
	if search == nil && r.searcher != nil {
		search = r.searcher.Search
	}
	if search == nil {
		return Failed("web_search: no search backend is configured"), nil
	}
	results, err := search(ctx, query, limit)
	if err != nil {
		return ToolResult{}, err
	}
	if len(results) > limit {
		results = results[:limit]
	}
	if len(results) == 0 {
		return NewResult(fmt.Sprintf("No results found for %q.", query), results), nil
	}
	return NewResult(formatResults(results), results), nil
}

func runPython(ctx context.Context, params Params, ec ExecutionContext) (ToolResult, error) {
	if ec.RunPython == nil {
		return unavailable(CapRunPython), nil
	}
	out, err := ec.RunPython(ctx, params.Str("code"))
	if err != nil {
		return ToolResult{}, err
	}
	return NewResult(orNoOutput(out), nil), nil
}

func runJavaScript(ctx context.Context, params Params, ec ExecutionContext) (ToolResult, error) {
	if ec.RunJavaScript == nil {
		return unavailable(CapRunJavaScript), nil
	}
	out, err := ec.RunJavaScript(ctx, params.Str("code"))
	if err != nil {
		return ToolResult{}, err
	}
	return NewResult(orNoOutput(out), nil), nil
}

func executeSQL(ctx context.Context, params Params, ec ExecutionContext) (ToolResult, error) {
	if ec.ExecuteSQL == nil {
		return unavailable(CapExecuteSQL), nil
	}
	out, err := ec.ExecuteSQL(ctx, params.Str("query"))
	if err != nil {
		return ToolResult{}, err
	}
	return NewResult(orNoOutput(out), nil), nil
}

func readFile(ctx context.Context, params Params, ec ExecutionContext) (ToolResult, error) {
	if ec.ReadFile == nil {
		return unavailable(CapReadFile), nil
	}
	path := params.Str("path")
	content, err := ec.ReadFile(ctx, path)
	if err != nil {
		return ToolResult{}, err
	}
	if params.Str("encoding") == "base64" {
		content = base64.StdEncoding.EncodeToString([]byte(content))
	}
	return NewResult(content, map[string]any{"path": path, "bytes": len(content)}), nil
}

func writeFile(ctx context.Context, params Params, ec ExecutionContext) (ToolResult, error) {
	if ec.WriteFile == nil {
		return unavailable(CapWriteFile), nil
	}
	path, content := params.Str("path"), params.Str("content")
	if err := ec.WriteFile(ctx, path, content); err != nil {
		return ToolResult{}, err
	}
	return NewResult(fmt.Sprintf("Wrote %d bytes to %s", len(content), path), nil), nil
}

func listFiles(ctx context.Context, params Params, ec ExecutionContext) (ToolResult, error) {
	if ec.ListFiles == nil {
		return unavailable(CapListFiles), nil
	}
	path := params.Str("path")
	if strings.TrimSpace(path) == "" {
		path = "."
	}
	entries, err := ec.ListFiles(ctx, path)
	if err != nil {
		return ToolResult{}, err
	}
	if len(entries) == 0 {
		return NewResult("(empty directory)", entries), nil
	}
	return NewResult(strings.Join(entries, "\n"), entries), nil
}

func searchDocuments(ctx context.Context, params Params, ec ExecutionContext) (ToolResult, error) {
	if ec.SearchDocuments == nil {
		return unavailable(CapSearchDocuments), nil
	}
	query := params.Str("query")
	limit := clampLimit(params, "limit", defaultSearchResults, maxDocumentResults)
	results, err := ec.SearchDocuments(ctx, query, limit)
	if err != nil {
		return ToolResult{}, err
	}
	if len(results) == 0 {
		return NewResult(fmt.Sprintf("No documents matched %q.", query), results), nil
	}
	return NewResult(formatResults(results), results), nil
}

func analyzeImage(ctx context.Context, params Params, ec ExecutionContext) (ToolResult, error) {
	if ec.AnalyzeImage == nil {
		return unavailable(CapAnalyzeImage), nil
	}
	prompt := params.Str("prompt")
	if strings.TrimSpace(prompt) == "" {
		prompt = defaultImagePrompt
	}
	out, err := ec.AnalyzeImage(ctx, params.Str("image_path"), prompt)
	if err != nil {
		return ToolResult{}, err
	}
	if strings.TrimSpace(out) == "" {
		return ToolResult{}, errors.New("image analysis returned nothing")
	}
	return NewResult(out, nil), nil
}

func clampLimit(params Params, name string, fallback, upper int) int {
	n, ok := params.Int(name)
	if !ok || n <= 0 {
		return fallback
	}
	return min(n, upper)
}

func formatResults(results []SearchResult) string {
	var b strings.Builder
	for i, result := range results {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%d. %s\n   %s\n", i+1, result.Title, result.URL)
		if snippet := strings.TrimSpace(result.Snippet); snippet != "" {
			fmt.Fprintf(&b, "   %s\n", snippet)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func orNoOutput(out string) string {
	if strings.TrimSpace(out) == "" {
		return noOutput
	}
	return out
}
