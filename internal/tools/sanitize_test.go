package tools

import "testing"

func TestSingleToDoubleQuotes(t *testing.T) {
	cases := []struct{ input, want string }{
		{`{'tool': 'calculate'}`, `{"tool": "calculate"}`},
		{`{"q": "it's fine"}`, `{"q": "it's fine"}`},
		{`{'q': 'say "hi"'}`, `{"q": "say \"hi\""}`},
		{`{'q': 'don\'t'}`, `{"q": "don't"}`},
	}
	for _, tc := range cases {
		if got := SingleToDoubleQuotes(tc.input); got != tc.want {
			t.Fatalf("SingleToDoubleQuotes(%s) = %s, want %s", tc.input, got, tc.want)
		}
	}
}

func TestQuoteBareKeys(t *testing.T) {
	got := QuoteBareKeys(`{tool: "x", parameters: {q: 1}}`)
	if got != `{"tool": "x", "parameters": {"q": 1}}` {
		t.Fatalf("unexpected %s", got)
	}
	untouched := `{"note": "a,b: c"}`
	if got := QuoteBareKeys(untouched); got != untouched {
		t.Fatalf("string contents changed: %s", got)
	}
}

func TestRemoveTrailingCommas(t *testing.T) {
	if got := RemoveTrailingCommas(`{"a": [1, 2,], }`); got != `{"a": [1, 2]}` {
		t.Fatalf("unexpected %s", got)
	}
	untouched := `{"a": "x,}"}`
	if got := RemoveTrailingCommas(untouched); got != untouched {
		t.Fatalf("string contents changed: %s", got)
	}
}

func TestCloseBraces(t *testing.T) {
	if got := CloseBraces(`{"a": {"b": 1`); got != `{"a": {"b": 1}}` {
		t.Fatalf("unexpected %s", got)
	}
	if got := CloseBraces(`{"a": "{"`); got != `{"a": "{"}` {
		t.Fatalf("braces inside strings counted: %s", got)
	}
	if got := CloseBraces(`{}`); got != `{}` {
		t.Fatalf("balanced input changed: %s", got)
	}
}

func TestParseFragmentRepairs(t *testing.T) {
	parsed, ok := ParseFragment(`{tool: 'calculate', parameters: {expression: '1+1',}`)
	if !ok {
		t.Fatalf("expected repaired fragment to parse")
	}
	obj := parsed.(map[string]any)
	if obj["tool"] != "calculate" {
		t.Fatalf("unexpected tool %v", obj["tool"])
	}
	params := obj["parameters"].(map[string]any)
	if params["expression"] != "1+1" {
		t.Fatalf("unexpected params %v", params)
	}
}

func TestParseFragmentRejects(t *testing.T) {
	for _, input := range []string{"", "   ", `{"a": 1} trailing`, "not json at all"} {
		if _, ok := ParseFragment(input); ok {
			t.Fatalf("expected %q to be rejected", input)
		}
	}
}

func TestParseFragmentStripsDangerousKeys(t *testing.T) {
	parsed, ok := ParseFragment(`{"tool": "x", "__proto__": {"polluted": true}, "parameters": {"constructor": 1, "ok": 2, "list": [{"prototype": 3, "keep": 4}]}}`)
	if !ok {
		t.Fatalf("expected fragment to parse")
	}
	obj := parsed.(map[string]any)
	if _, found := obj["__proto__"]; found {
		t.Fatalf("__proto__ survived")
	}
	params := obj["parameters"].(map[string]any)
	if _, found := params["constructor"]; found {
		t.Fatalf("nested constructor survived")
	}
	if params["ok"] == nil {
		t.Fatalf("sibling key was dropped")
	}
	item := params["list"].([]any)[0].(map[string]any)
	if _, found := item["prototype"]; found {
		t.Fatalf("prototype inside array survived")
	}
	if item["keep"] == nil {
		t.Fatalf("array sibling was dropped")
	}
}

func TestStripDangerousKeysLeavesOriginal(t *testing.T) {
	original := map[string]any{"__proto__": 1, "a": 2}
	stripped := StripDangerousKeys(original).(map[string]any)
	if len(stripped) != 1 || stripped["a"] != 2 {
		t.Fatalf("unexpected stripped value %v", stripped)
	}
	if len(original) != 2 {
		t.Fatalf("original map was modified")
	}
}
