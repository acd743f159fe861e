package recovery

import (
	"strings"
)

// fenceDelimiters are the code fence markers chat models wrap JSON in.
var fenceDelimiters = []string{"```", "~~~"}

// stripFence returns the trimmed interior of the first complete fenced block in s, skipping an optional
// "json" tag after the opening marker. The closing marker must match the opening one and the shortest
// block wins, so commentary after the fence is dropped. Text without a complete fence is returned as is.
func stripFence(s string) string {
	searchFrom := 0
	for searchFrom < len(s) {
		open, delim := -1, ""
		for _, d := range fenceDelimiters {
			if i := strings.Index(s[searchFrom:], d); i >= 0 && (open < 0 || searchFrom+i < open) {
				open, delim = searchFrom+i, d
			}
		}
		if open < 0 {
			return s
		}

		body := s[open+len(delim):]
		if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
			body = body[4:]
		}
		if end := strings.Index(body, delim); end >= 0 {
			return strings.TrimSpace(body[:end])
		}

		// Unclosed marker; a later marker of the other kind may still form a fence.
		searchFrom = open + len(delim)
	}
	return s
}

// extractBraces drops commentary before the first '{' (unless s already starts with one) and after the
// last '}'. The two trims are independent of each other.
func extractBraces(s string) string {
	if !strings.HasPrefix(s, "{") {
		if i := strings.IndexByte(s, '{'); i >= 0 {
			s = s[i:]
		}
	}
	if i := strings.LastIndexByte(s, '}'); i >= 0 {
		s = s[:i+1]
	}
	return s
}

// repairSyntax removes // line comments, then trailing commas before '}' or ']'.
func repairSyntax(s string) string {
	return stripTrailingCommas(stripLineComments(s))
}

// lexState tracks whether a byte scanner is inside a JSON string literal.
type lexState struct {
	inString bool
	escaped  bool
}

// step advances the state over c and reports whether c is part of a string literal,
// quotes included.
func (l *lexState) step(c byte) bool {
	if l.inString {
		switch {
		case l.escaped:
			l.escaped = false
		case c == '\\':
			l.escaped = true
		case c == '"':
			l.inString = false
		}
		return true
	}
	if c == '"' {
		l.inString = true
		return true
	}
	return false
}

// stripLineComments removes "//" comments up to the end of the line. String contents such as URLs are
// left untouched.
func stripLineComments(s string) string {
	if !strings.Contains(s, "//") {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	var lex lexState
	for i := 0; i < len(s); i++ {
		c := s[i]
		if lex.step(c) {
			b.WriteByte(c)
			continue
		}
		if c == '/' && i+1 < len(s) && s[i+1] == '/' {
			for i < len(s) && s[i] != '\n' {
				i++
			}
			if i < len(s) {
				b.WriteByte('\n')
			}
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// stripTrailingCommas removes a comma when the next non-whitespace byte closes an object or array.
func stripTrailingCommas(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	var lex lexState
	for i := 0; i < len(s); i++ {
		c := s[i]
		if lex.step(c) {
			b.WriteByte(c)
			continue
		}
		if c == ',' {
			j := i + 1
			for j < len(s) && isJSONSpace(s[j]) {
				j++
			}
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
		}
		b.WriteByte(c)
	}
	return b.String()
}

// collapseWhitespace turns every run of whitespace, literal newlines inside strings included, into a
// single space.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func isJSONSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
