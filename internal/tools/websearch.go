package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	retryablehttp "github.com/hashicorp/go-retryablehttp"
)

const (
	exaEndpoint        = "https://api.exa.ai/search"
	defaultSnippetSize = 600
)

// ExaSearcher queries the Exa search API.
type ExaSearcher struct {
	apiKey      string
	endpoint    string
	timeout     time.Duration
	snippetSize int
	client      *retryablehttp.Client
}

// NewExaSearcher constructs a searcher. A zero timeout leaves the request
// bounded only by ctx.
func NewExaSearcher(apiKey string, timeout time.Duration) *ExaSearcher {
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.RetryWaitMin = 200 * time.Millisecond
	client.RetryWaitMax = 2 * time.Second
	client.Logger = nil
	return &ExaSearcher{
		apiKey:      apiKey,
		endpoint:    exaEndpoint,
		timeout:     timeout,
		snippetSize: defaultSnippetSize,
		client:      client,
	}
}

// WithEndpoint points the searcher at another base URL.
func (e *ExaSearcher) WithEndpoint(endpoint string) *ExaSearcher {
	e.endpoint = endpoint
	return e
}

func (e *ExaSearcher) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	if strings.TrimSpace(e.apiKey) == "" {
		return nil, errors.New("EXA_API_KEY is missing")
	}
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("query is required")
	}
	if limit <= 0 {
		limit = defaultSearchResults
	}
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	body, err := json.Marshal(map[string]any{
		"query":      query,
		"numResults": limit,
		"contents":   map[string]any{"text": map[string]any{"maxCharacters": e.snippetSize}},
	})
	if err != nil {
		return nil, err
	}
	request, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, e.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	request.Header.Set("x-api-key", e.apiKey)
	request.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(request)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("exa search failed: %s: %s", resp.Status, strings.TrimSpace(string(b)))
	}

	var raw struct {
		Results []struct {
			Title string `json:"title"`
			URL   string `json:"url"`
			Text  string `json:"text"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode exa response: %w", err)
	}

	results := make([]SearchResult, 0, len(raw.Results))
	for _, item := range raw.Results {
		results = append(results, SearchResult{
			Title:   strings.TrimSpace(item.Title),
			URL:     item.URL,
			Snippet: snippet(item.Text, e.snippetSize),
		})
	}
	return results, nil
}

func snippet(text string, size int) string {
	text = strings.Join(strings.Fields(text), " ")
	if len(text) <= size {
		return text
	}
	cut := strings.LastIndexByte(text[:size], ' ')
	if cut <= 0 {
		cut = size
	}
	return text[:cut] + "..."
}
