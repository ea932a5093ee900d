package tools

import (
	"regexp"
	"sort"
	"strings"
	"sync"
)

const fence = "```"

// maxFragmentBytes bounds how far a brace scan runs from one opener, which
// keeps inline and fuzzy scanning linear on text full of unclosed objects.
const maxFragmentBytes = 64 << 10

// envelopeKeys name the parameter wrapper, in priority order.
var envelopeKeys = []string{"parameters", "params", "arguments", "args", "input"}

// wrapperKeys hold an array of calls.
var wrapperKeys = []string{"tool_calls", "tools"}

var inlineToolKey = regexp.MustCompile(`["']?tool["']?\s*:`)

// Extractor finds candidate tool calls in model output.
type Extractor struct {
	lookup Lookup
}

// NewExtractor returns an extractor that keeps only names known to lookup.
func NewExtractor(lookup Lookup) *Extractor {
	return &Extractor{lookup: lookup}
}

type candidate struct {
	pos  int
	call ToolCall
}

// Extract returns the deduplicated calls found in text, in text order.
// Unknown tool names and unparseable fragments are dropped.
func (e *Extractor) Extract(text string) []ToolCall {
	var claimed spanSet
	found := e.fenced(text, &claimed)
	found = append(found, e.inline(text, &claimed)...)
	if len(found) == 0 {
		found = e.fuzzy(text)
	}
	// Fenced blocks win overlapping text; surviving calls report in text order.
	sort.SliceStable(found, func(i, j int) bool { return found[i].pos < found[j].pos })

	calls := make([]ToolCall, 0, len(found))
	for _, c := range found {
		calls = append(calls, c.call)
	}
	return Dedupe(calls)
}

// Dedupe drops calls whose tool and canonical parameters repeat an
// earlier call. Order of first occurrence is kept.
func Dedupe(calls []ToolCall) []ToolCall {
	seen := make(map[string]struct{}, len(calls))
	out := make([]ToolCall, 0, len(calls))
	for _, call := range calls {
		key := call.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, call)
	}
	return out
}

func (e *Extractor) known(call ToolCall) bool {
	_, ok := e.lookup.Lookup(call.Tool)
	return ok
}

// fenced scans ``` blocks. Every block is claimed, parsed or not.
func (e *Extractor) fenced(text string, claimed *spanSet) []candidate {
	var out []candidate
	for offset := 0; offset < len(text); {
		open := strings.Index(text[offset:], fence)
		if open < 0 {
			break
		}
		open += offset
		bodyStart := open + len(fence)
		bodyEnd, blockEnd := len(text), len(text)
		if closeAt := strings.Index(text[bodyStart:], fence); closeAt >= 0 {
			bodyEnd = bodyStart + closeAt
			blockEnd = bodyEnd + len(fence)
		}
		claimed.add(span{start: open, end: blockEnd})
		offset = blockEnd

		body := stripLanguageTag(text[bodyStart:bodyEnd])
		if body == "" || (body[0] != '{' && body[0] != '[') {
			continue
		}
		parsed, ok := ParseFragment(body)
		if !ok {
			continue
		}
		if call, ok := e.fromParsed(parsed); ok {
			out = append(out, candidate{pos: open, call: call})
		}
	}
	return out
}

// fromParsed accepts a single call object or a wrapper holding calls.
// A wrapper contributes only its first valid entry.
func (e *Extractor) fromParsed(parsed any) (ToolCall, bool) {
	var entries []any
	switch typed := parsed.(type) {
	case map[string]any:
		if call, ok := asCall(typed); ok {
			return call, e.known(call)
		}
		for _, key := range wrapperKeys {
			if list, ok := typed[key].([]any); ok {
				entries = list
				break
			}
		}
	case []any:
		entries = typed
	}
	for _, entry := range entries {
		obj, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		if call, ok := asCall(obj); ok && e.known(call) {
			return call, true
		}
	}
	return ToolCall{}, false
}

func stripLanguageTag(body string) string {
	trimmed := strings.TrimLeft(body, " \t")
	if trimmed != "" && (trimmed[0] == '{' || trimmed[0] == '[') {
		return strings.TrimSpace(trimmed)
	}
	nl := strings.IndexByte(body, '\n')
	if nl < 0 {
		return ""
	}
	tag := strings.TrimSpace(body[:nl])
	if strings.ContainsAny(tag, "{}[]") {
		return ""
	}
	return strings.TrimSpace(body[nl+1:])
}

// inline scans unclaimed {...} objects that carry a tool key.
func (e *Extractor) inline(text string, claimed *spanSet) []candidate {
	var out []candidate
	for i := 0; i < len(text); i++ {
		if text[i] != '{' || claimed.contains(i) {
			continue
		}
		end, _ := fragmentEnd(text, i)
		s := span{start: i, end: end}
		if claimed.overlaps(s) {
			continue
		}
		fragment := text[i:end]
		if !inlineToolKey.MatchString(fragment) {
			continue
		}
		parsed, ok := ParseFragment(fragment)
		if !ok {
			continue
		}
		obj, ok := parsed.(map[string]any)
		if !ok {
			continue
		}
		call, ok := asCall(obj)
		if !ok || !e.known(call) {
			continue
		}
		out = append(out, candidate{pos: i, call: call})
		i = end - 1
	}
	return out
}

// fuzzy locates a known tool name used as a key and parses the smallest
// object around it.
func (e *Extractor) fuzzy(text string) []candidate {
	var out []candidate
	for _, name := range e.lookup.Names() {
		mention := mentionPattern(name)
		for _, loc := range mention.FindAllStringIndex(text, -1) {
			open := enclosingOpen(text, loc[0]+1)
			if open < 0 {
				continue
			}
			end, _ := fragmentEnd(text, open)
			fragment := text[open:end]
			parsed, ok := ParseFragment(fragment)
			if !ok {
				parsed, ok = ParseFragment(equalsToColon(fragment, name))
			}
			if !ok {
				continue
			}
			obj, ok := parsed.(map[string]any)
			if !ok {
				continue
			}
			call := fuzzyCall(name, obj)
			if !e.known(call) {
				continue
			}
			out = append(out, candidate{pos: open, call: call})
		}
	}
	return out
}

// fuzzyCall reads obj as a full call when it has that shape, otherwise as
// the parameters of name.
func fuzzyCall(name string, obj map[string]any) ToolCall {
	if call, ok := asCall(obj); ok {
		return call
	}
	if nested, ok := obj[name].(map[string]any); ok {
		params, _ := ParamsFromMap(nested)
		return ToolCall{Tool: name, Parameters: params}
	}
	params, _ := ParamsFromMap(obj)
	return ToolCall{Tool: name, Parameters: params}
}

var mentionCache sync.Map

func mentionPattern(name string) *regexp.Regexp {
	if cached, ok := mentionCache.Load(name); ok {
		return cached.(*regexp.Regexp)
	}
	pattern := regexp.MustCompile(`(?:^|[^\w])["']?` + regexp.QuoteMeta(name) + `["']?\s*[:=]`)
	mentionCache.Store(name, pattern)
	return pattern
}

func equalsToColon(fragment, name string) string {
	pattern := regexp.MustCompile(`(["']?` + regexp.QuoteMeta(name) + `["']?\s*)=`)
	return pattern.ReplaceAllString(fragment, "$1:")
}

// asCall reads the call envelope. The tool name comes from "tool", then
// "name", then "function" (a string or an {name, arguments} object).
// Parameters come from the first envelope key holding an object or a JSON
// string of one; without an envelope, the remaining top-level keys are the
// parameters.
func asCall(obj map[string]any) (ToolCall, bool) {
	nameKey := ""
	var name string
	for _, key := range []string{"tool", "name"} {
		if s, ok := obj[key].(string); ok && strings.TrimSpace(s) != "" {
			nameKey, name = key, strings.TrimSpace(s)
			break
		}
	}
	if nameKey == "" {
		switch fn := obj["function"].(type) {
		case string:
			if strings.TrimSpace(fn) != "" {
				nameKey, name = "function", strings.TrimSpace(fn)
			}
		case map[string]any:
			if s, ok := fn["name"].(string); ok && strings.TrimSpace(s) != "" {
				call, ok := asCall(fn)
				return call, ok
			}
		}
	}
	if nameKey == "" {
		return ToolCall{}, false
	}

	for _, key := range envelopeKeys {
		raw, present := obj[key]
		if !present {
			continue
		}
		if fields, ok := envelopeObject(raw); ok {
			params, err := ParamsFromMap(fields)
			if err != nil {
				return ToolCall{}, false
			}
			return ToolCall{Tool: name, Parameters: params}, true
		}
	}

	rest := make(map[string]any, len(obj))
	for key, value := range obj {
		if key == nameKey || (nameKey != "tool" && (key == "id" || key == "type")) {
			continue
		}
		rest[key] = value
	}
	params, err := ParamsFromMap(rest)
	if err != nil {
		return ToolCall{}, false
	}
	return ToolCall{Tool: name, Parameters: params}, true
}

func envelopeObject(raw any) (map[string]any, bool) {
	switch typed := raw.(type) {
	case map[string]any:
		return typed, true
	case nil:
		return map[string]any{}, true
	case string:
		if strings.TrimSpace(typed) == "" {
			return map[string]any{}, true
		}
		parsed, ok := ParseFragment(typed)
		if !ok {
			return nil, false
		}
		fields, ok := parsed.(map[string]any)
		return fields, ok
	}
	return nil, false
}

// FromNative converts a structured function call returned by a model API.
func FromNative(name, arguments string) (ToolCall, bool) {
	fields, ok := envelopeObject(arguments)
	if !ok {
		return ToolCall{}, false
	}
	params, err := ParamsFromMap(fields)
	if err != nil || strings.TrimSpace(name) == "" {
		return ToolCall{}, false
	}
	return ToolCall{Tool: strings.TrimSpace(name), Parameters: params}, true
}
