package tools

import "sort"

// span is a half-open byte range [start, end) of the scanned text.
type span struct {
	start, end int
}

func (s span) contains(pos int) bool { return pos >= s.start && pos < s.end }

func (s span) overlaps(o span) bool { return s.start < o.end && o.start < s.end }

// spanSet records regions already claimed by an earlier scanning pass.
type spanSet struct {
	spans []span
}

func (set *spanSet) add(s span) {
	i := sort.Search(len(set.spans), func(i int) bool { return set.spans[i].start >= s.start })
	set.spans = append(set.spans, span{})
	copy(set.spans[i+1:], set.spans[i:])
	set.spans[i] = s
}

func (set *spanSet) contains(pos int) bool {
	for _, s := range set.spans {
		if s.start > pos {
			return false
		}
		if s.contains(pos) {
			return true
		}
	}
	return false
}

func (set *spanSet) overlaps(o span) bool {
	for _, s := range set.spans {
		if s.overlaps(o) {
			return true
		}
	}
	return false
}

// balancedEnd returns the index just past the } that closes the { at
// start, skipping braces inside double-quoted strings. When the object is
// never closed it returns len(text) and false.
func balancedEnd(text string, start int) (int, bool) {
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(text); i++ {
		c := text[i]
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
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1, true
			}
		}
	}
	return len(text), false
}

// fragmentEnd is balancedEnd limited to maxFragmentBytes past start.
func fragmentEnd(text string, start int) (int, bool) {
	if limit := start + maxFragmentBytes; limit < len(text) {
		return balancedEnd(text[:limit], start)
	}
	return balancedEnd(text, start)
}

// enclosingOpen walks backward from pos to the nearest { that is not closed
// before pos. It returns -1 when there is none.
func enclosingOpen(text string, pos int) int {
	depth := 0
	for i := pos - 1; i >= 0; i-- {
		switch text[i] {
		case '}':
			depth++
		case '{':
			if depth == 0 {
				return i
			}
			depth--
		}
	}
	return -1
}
