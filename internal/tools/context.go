package tools

import (
	"context"
	"fmt"
)

// Capability names, as reported in "not available" failures.
const (
	CapRunPython       = "runPython"
	CapRunJavaScript   = "runJavaScript"
	CapExecuteSQL      = "executeSQL"
	CapReadFile        = "readFile"
	CapWriteFile       = "writeFile"
	CapListFiles       = "listFiles"
	CapSearchDocuments = "searchDocuments"
	CapAnalyzeImage    = "analyzeImage"
	CapWebSearch       = "webSearch"
)

// SearchResult is one hit returned by web or document search.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// ExecutionContext holds the external capabilities context-dependent
// handlers call into. A nil field means the capability is unavailable.
type ExecutionContext struct {
	RunPython       func(ctx context.Context, code string) (string, error)
	RunJavaScript   func(ctx context.Context, code string) (string, error)
	ExecuteSQL      func(ctx context.Context, query string) (string, error)
	ReadFile        func(ctx context.Context, path string) (string, error)
	WriteFile       func(ctx context.Context, path, content string) error
	ListFiles       func(ctx context.Context, path string) ([]string, error)
	SearchDocuments func(ctx context.Context, query string, limit int) ([]SearchResult, error)
	AnalyzeImage    func(ctx context.Context, path, prompt string) (string, error)

	// WebSearch overrides the registry's searcher for this session.
	WebSearch func(ctx context.Context, query string, limit int) ([]SearchResult, error)
}

// Merge returns c with every non-nil capability of partial applied on top.
// Nil fields in partial never clear an existing capability.
func (c ExecutionContext) Merge(partial ExecutionContext) ExecutionContext {
	if partial.RunPython != nil {
		c.RunPython = partial.RunPython
	}
	if partial.RunJavaScript != nil {
		c.RunJavaScript = partial.RunJavaScript
	}
	if partial.ExecuteSQL != nil {
		c.ExecuteSQL = partial.ExecuteSQL
	}
	if partial.ReadFile != nil {
		c.ReadFile = partial.ReadFile
	}
	if partial.WriteFile != nil {
		c.WriteFile = partial.WriteFile
	}
	if partial.ListFiles != nil {
		c.ListFiles = partial.ListFiles
	}
	if partial.SearchDocuments != nil {
		c.SearchDocuments = partial.SearchDocuments
	}
	if partial.AnalyzeImage != nil {
		c.AnalyzeImage = partial.AnalyzeImage
	}
	if partial.WebSearch != nil {
		c.WebSearch = partial.WebSearch
	}
	return c
}

// Available lists the names of the capabilities that are set.
func (c ExecutionContext) Available() []string {
	var names []string
	add := func(set bool, name string) {
		if set {
			names = append(names, name)
		}
	}
	add(c.RunPython != nil, CapRunPython)
	add(c.RunJavaScript != nil, CapRunJavaScript)
	add(c.ExecuteSQL != nil, CapExecuteSQL)
	add(c.ReadFile != nil, CapReadFile)
	add(c.WriteFile != nil, CapWriteFile)
	add(c.ListFiles != nil, CapListFiles)
	add(c.SearchDocuments != nil, CapSearchDocuments)
	add(c.AnalyzeImage != nil, CapAnalyzeImage)
	add(c.WebSearch != nil, CapWebSearch)
	return names
}

func unavailable(capability string) ToolResult {
	return Failed("%s: %s is not available in this session", ErrCapabilityUnavailable, capability)
}

// Searcher is the network search backend used by web_search.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
}

// SearchFunc adapts a function to Searcher.
type SearchFunc func(ctx context.Context, query string, limit int) ([]SearchResult, error)

func (f SearchFunc) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	return f(ctx, query, limit)
}

// FallbackSearcher tries each searcher in order and returns the first
// non-empty answer. The last error is returned when every backend fails.
type FallbackSearcher []Searcher

func (f FallbackSearcher) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	var lastErr error
	for _, searcher := range f {
		if searcher == nil {
			continue
		}
		results, err := searcher.Search(ctx, query, limit)
		if err != nil {
			lastErr = err
			continue
		}
		if len(results) > 0 {
			return results, nil
		}
	}
	if lastErr != nil {
		return nil, fmt.Errorf("all search backends failed: %w", lastErr)
	}
	return nil, nil
}
