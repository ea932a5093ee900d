package tools

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"regexp"
	"strings"
)

// dangerousKeys can corrupt a shared prototype graph when a decoded object
// is merged into trusted state by a dynamically typed consumer.
var dangerousKeys = map[string]struct{}{
	"__proto__":   {},
	"constructor": {},
	"prototype":   {},
}

// IsDangerousKey reports whether key is stripped by StripDangerousKeys.
func IsDangerousKey(key string) bool {
	_, ok := dangerousKeys[key]
	return ok
}

// StripDangerousKeys removes dangerous keys at every depth of a decoded
// JSON tree. Maps and slices are copied; sibling values are untouched.
func StripDangerousKeys(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			if IsDangerousKey(key) {
				continue
			}
			out[key] = StripDangerousKeys(item)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = StripDangerousKeys(item)
		}
		return out
	default:
		return v
	}
}

// ParseFragment decodes a near-JSON fragment. A clean decode is tried
// first, then one pass of Repair. Dangerous keys are stripped from every
// successful result.
func ParseFragment(fragment string) (any, bool) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return nil, false
	}
	v, err := decodeStrict(fragment)
	if err != nil {
		v, err = decodeStrict(Repair(fragment))
		if err != nil {
			return nil, false
		}
	}
	return StripDangerousKeys(v), true
}

func decodeStrict(input string) (any, error) {
	decoder := json.NewDecoder(strings.NewReader(input))
	decoder.UseNumber()
	var v any
	if err := decoder.Decode(&v); err != nil {
		return nil, err
	}
	var trailing any
	if err := decoder.Decode(&trailing); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected trailing data")
	}
	return v, nil
}

// Repair applies the fixed sequence of textual repairs. It never fails;
// an unrepairable fragment simply stays unparseable.
func Repair(fragment string) string {
	out := SingleToDoubleQuotes(fragment)
	out = QuoteBareKeys(out)
	out = RemoveTrailingCommas(out)
	out = CloseBraces(out)
	return out
}

// SingleToDoubleQuotes rewrites single-quoted string literals as
// double-quoted ones. Apostrophes inside double-quoted strings survive.
func SingleToDoubleQuotes(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inDouble, inSingle, escaped := false, false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
			if inSingle && c == '\'' {
				// \' needs no escape once the delimiter is a double quote.
				trimmed := b.String()
				b.Reset()
				b.WriteString(trimmed[:len(trimmed)-1])
			}
			b.WriteByte(c)
		case c == '\\' && (inDouble || inSingle):
			escaped = true
			b.WriteByte(c)
		case inDouble:
			if c == '"' {
				inDouble = false
			}
			b.WriteByte(c)
		case inSingle:
			switch c {
			case '\'':
				inSingle = false
				b.WriteByte('"')
			case '"':
				b.WriteString(`\"`)
			default:
				b.WriteByte(c)
			}
		case c == '"':
			inDouble = true
			b.WriteByte(c)
		case c == '\'':
			inSingle = true
			b.WriteByte('"')
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

var (
	bareKeyPattern       = regexp.MustCompile(`([{,]\s*)([A-Za-z_$][A-Za-z0-9_$]*)(\s*:)`)
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
)

// QuoteBareKeys wraps identifier keys such as {tool: ...} in double quotes.
func QuoteBareKeys(s string) string {
	return rewriteOutsideStrings(s, func(code string) string {
		return bareKeyPattern.ReplaceAllString(code, `$1"$2"$3`)
	})
}

// RemoveTrailingCommas drops a comma directly before } or ].
func RemoveTrailingCommas(s string) string {
	return rewriteOutsideStrings(s, func(code string) string {
		return trailingCommaPattern.ReplaceAllString(code, "$1")
	})
}

// CloseBraces appends one } for every unmatched { outside strings.
func CloseBraces(s string) string {
	open := 0
	forEachCodeByte(s, func(_ int, c byte) {
		switch c {
		case '{':
			open++
		case '}':
			open--
		}
	})
	if open <= 0 {
		return s
	}
	return s + strings.Repeat("}", open)
}

// rewriteOutsideStrings applies f to every run of text that is not inside
// a double-quoted string literal.
func rewriteOutsideStrings(s string, f func(string) string) string {
	var out bytes.Buffer
	start := 0
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
				out.WriteString(s[start : i+1])
				start = i + 1
			}
			continue
		}
		if c == '"' {
			out.WriteString(f(s[start:i]))
			start = i
			inString = true
		}
	}
	if inString {
		out.WriteString(s[start:])
	} else {
		out.WriteString(f(s[start:]))
	}
	return out.String()
}

// forEachCodeByte calls fn for every byte outside double-quoted strings.
func forEachCodeByte(s string, fn func(i int, c byte)) {
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			continue
		}
		fn(i, c)
	}
}
