package tools

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestCalculateHandler(t *testing.T) {
	registry := newTestRegistry(t)
	cases := map[string]string{
		"2 + 3 * 4":     "2 + 3 * 4 = 14",
		"sqrt(16)":      "sqrt(16) = 4",
		"math.pow(2,3)": "math.pow(2,3) = 8",
		"2^10":          "2^10 = 1024",
		"10 % 3":        "10 % 3 = 1",
	}
	for expr, want := range cases {
		result := registry.Execute(context.Background(), call("calculate", Params{"expression": String(expr)}))
		if !result.Success || result.Output != want {
			t.Fatalf("%s: got %+v, want %q", expr, result, want)
		}
	}
}

func TestCalculateHandlerRejectsCode(t *testing.T) {
	registry := newTestRegistry(t)
	for _, expr := range []string{"__import__('os')", "open('x')", "1/0", ""} {
		result := registry.Execute(context.Background(), call("calculate", Params{"expression": String(expr)}))
		if result.Success {
			t.Fatalf("%q: expected failure, got %q", expr, result.Output)
		}
	}
}

func TestWebSearchHandler(t *testing.T) {
	var gotLimit int
	searcher := SearchFunc(func(_ context.Context, query string, limit int) ([]SearchResult, error) {
		gotLimit = limit
		if query == "nothing" {
			return nil, nil
		}
		return []SearchResult{{Title: "Go", URL: "https://go.dev", Snippet: "The Go language"}}, nil
	})
	registry := newTestRegistry(t, WithSearcher(searcher))

	result := registry.Execute(context.Background(), call("web_search", Params{"query": String("go"), "num_results": Number(50)}))
	if !result.Success {
		t.Fatalf("unexpected failure %q", result.Output)
	}
	if result.Output != "1. Go\n   https://go.dev\n   The Go language" {
		t.Fatalf("unexpected output %q", result.Output)
	}
	if gotLimit != maxWebSearchResults {
		t.Fatalf("limit not clamped: %d", gotLimit)
	}

	result = registry.Execute(context.Background(), call("web_search", Params{"query": String("nothing")}))
	if !result.Success || result.Output != `No results found for "nothing".` {
		t.Fatalf("unexpected result %+v", result)
	}
	if gotLimit != defaultSearchResults {
		t.Fatalf("default limit not applied: %d", gotLimit)
	}
}

func TestWebSearchContextOverridesSearcher(t *testing.T) {
	registry := newTestRegistry(t, WithSearcher(SearchFunc(func(context.Context, string, int) ([]SearchResult, error) {
		return nil, errors.New("registry searcher should not run")
	})))
	registry.SetContext(ExecutionContext{
		WebSearch: func(context.Context, string, int) ([]SearchResult, error) {
			return []SearchResult{{Title: "session", URL: "u"}}, nil
		},
	})
	result := registry.Execute(context.Background(), call("web_search", Params{"query": String("x")}))
	if !result.Success || !strings.Contains(result.Output, "session") {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestWebSearchWithoutBackend(t *testing.T) {
	result := newTestRegistry(t).Execute(context.Background(), call("web_search", Params{"query": String("x")}))
	if result.Success || !strings.Contains(result.Output, "no search backend") {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestFileHandlers(t *testing.T) {
	registry := newTestRegistry(t)
	written := map[string]string{}
	registry.SetContext(ExecutionContext{
		ReadFile: func(_ context.Context, path string) (string, error) {
			content, ok := written[path]
			if !ok {
				return "", errors.New("no such file")
			}
			return content, nil
		},
		WriteFile: func(_ context.Context, path, content string) error {
			written[path] = content
			return nil
		},
		ListFiles: func(_ context.Context, path string) ([]string, error) {
			if path != "." {
				return nil, nil
			}
			return []string{"a.txt", "docs/"}, nil
		},
	})
	ctx := context.Background()

	result := registry.Execute(ctx, call("write_file", Params{"path": String("a.txt"), "content": String("hi")}))
	if result.Output != "Wrote 2 bytes to a.txt" {
		t.Fatalf("unexpected write output %q", result.Output)
	}
	result = registry.Execute(ctx, call("read_file", Params{"file": String("a.txt"), "encoding": String("base64")}))
	if result.Output != "aGk=" {
		t.Fatalf("unexpected read output %q", result.Output)
	}
	result = registry.Execute(ctx, call("read_file", Params{"path": String("missing")}))
	if result.Success || result.Output != "read_file failed: no such file" {
		t.Fatalf("unexpected read failure %+v", result)
	}
	result = registry.Execute(ctx, call("list_files", Params{}))
	if result.Output != "a.txt\ndocs/" {
		t.Fatalf("unexpected listing %q", result.Output)
	}
	result = registry.Execute(ctx, call("list_files", Params{"path": String("empty")}))
	if result.Output != "(empty directory)" {
		t.Fatalf("unexpected empty listing %q", result.Output)
	}
}

func TestInterpreterHandlers(t *testing.T) {
	registry := newTestRegistry(t)
	registry.SetContext(ExecutionContext{
		RunPython:     func(_ context.Context, code string) (string, error) { return "", nil },
		RunJavaScript: func(_ context.Context, code string) (string, error) { return "3\n", nil },
		ExecuteSQL: func(_ context.Context, query string) (string, error) {
			return "", errors.New("no such table: users")
		},
	})
	ctx := context.Background()

	if result := registry.Execute(ctx, call("run_python", Params{"code": String("x = 1")})); result.Output != noOutput {
		t.Fatalf("unexpected python output %q", result.Output)
	}
	if result := registry.Execute(ctx, call("run_javascript", Params{"script": String("1+2")})); result.Output != "3\n" {
		t.Fatalf("unexpected javascript output %q", result.Output)
	}
	result := registry.Execute(ctx, call("execute_sql", Params{"sql": String("select * from users")}))
	if result.Success || !strings.Contains(result.Output, "no such table") {
		t.Fatalf("unexpected sql result %+v", result)
	}
}

func TestAnalyzeImageDefaultPrompt(t *testing.T) {
	registry := newTestRegistry(t)
	var gotPrompt string
	registry.SetContext(ExecutionContext{
		AnalyzeImage: func(_ context.Context, path, prompt string) (string, error) {
			gotPrompt = prompt
			return "a cat", nil
		},
	})
	result := registry.Execute(context.Background(), call("analyze_image", Params{"image": String("cat.png")}))
	if !result.Success || result.Output != "a cat" {
		t.Fatalf("unexpected result %+v", result)
	}
	if gotPrompt != defaultImagePrompt {
		t.Fatalf("unexpected prompt %q", gotPrompt)
	}
}

func TestSearchDocumentsHandler(t *testing.T) {
	registry := newTestRegistry(t)
	registry.SetContext(ExecutionContext{
		SearchDocuments: func(_ context.Context, query string, limit int) ([]SearchResult, error) {
			if limit != maxDocumentResults {
				t.Errorf("limit not clamped: %d", limit)
			}
			return []SearchResult{{Title: "notes.md", URL: "file://notes.md#L3", Snippet: "quarterly revenue"}}, nil
		},
	})
	result := registry.Execute(context.Background(), call("search_documents", Params{"query": String("revenue"), "top_k": Number(100)}))
	if !result.Success || !strings.HasPrefix(result.Output, "1. notes.md\n   file://notes.md#L3") {
		t.Fatalf("unexpected result %+v", result)
	}
}
