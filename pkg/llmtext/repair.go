package llmtext

import "strings"

// Repair patches a JSON document that was cut off mid-generation. It closes
// an unterminated string literal (or drops the half-written key/value pair it
// belongs to), removes a dangling trailing comma, and appends the closing
// brackets still open at the end of the text. Best effort: the result is not
// guaranteed to parse, callers must still check.
func Repair(s string) string {
	s = strings.TrimRight(s, " \t\r\n")
	if s == "" {
		return s
	}
	s = finishLiteral(s)
	s = cutDanglingKey(s)
	s = stripTrailingCommas(s)
	return s + missingClosers(s)
}

// finishLiteral resolves a string literal left open at the end of the text.
// A value cut mid-string keeps its partial content; a pair or key that can be
// dropped whole (a comma or brace precedes it) is removed instead.
func finishLiteral(s string) string {
	open := openQuote(s)
	if open < 0 {
		return s
	}
	prev, at := lastNonSpace(s[:open])
	switch prev {
	case ':':
		if p, pi, ok := pairStart(s, at); ok && p == ',' {
			return strings.TrimRight(s[:pi], " \t\r\n")
		}
		return s + `"`
	case ',':
		return strings.TrimRight(s[:at], " \t\r\n")
	case '{':
		return s[:at+1]
	default:
		return s + `"`
	}
}

// cutDanglingKey removes a trailing `"key":` fragment that never received a
// value, together with the comma that introduced it.
func cutDanglingKey(s string) string {
	c, at := lastNonSpace(s)
	if c != ':' {
		return s
	}
	prev, pi, ok := pairStart(s, at)
	if !ok {
		return s
	}
	switch prev {
	case ',':
		return strings.TrimRight(s[:pi], " \t\r\n")
	case '{':
		return s[:pi+1]
	}
	return s
}

// stripTrailingCommas removes commas that directly precede a closing bracket
// or the end of the text. String contents are left untouched.
func stripTrailingCommas(s string) string {
	for {
		var b strings.Builder
		b.Grow(len(s))
		changed := false
		inString, escaped := false, false
		for i := 0; i < len(s); i++ {
			c := s[i]
			if inString {
				switch {
				case escaped:
					escaped = false
				case c == '\\':
					escaped = true
				case c == '"':
					inString = false
				}
				b.WriteByte(c)
				continue
			}
			if c == '"' {
				inString = true
				b.WriteByte(c)
				continue
			}
			if c == ',' {
				j := i + 1
				for j < len(s) && isSpace(s[j]) {
					j++
				}
				if j == len(s) || s[j] == '}' || s[j] == ']' {
					changed = true
					continue
				}
			}
			b.WriteByte(c)
		}
		if !changed {
			return s
		}
		s = b.String()
	}
}

// missingClosers returns the closing brackets for every container still open
// at the end of the text, innermost first.
func missingClosers(s string) string {
	var stack []byte
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if n := len(stack); n > 0 && stack[n-1] == c {
				stack = stack[:n-1]
			}
		}
	}
	var b strings.Builder
	for i := len(stack) - 1; i >= 0; i-- {
		b.WriteByte(stack[i])
	}
	return b.String()
}

// openQuote returns the index of the quote opening an unterminated string
// literal, or -1 when every literal in the text is closed.
func openQuote(s string) int {
	open := -1
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		if c == '"' {
			inString = true
			open = i
		}
	}
	if !inString {
		return -1
	}
	return open
}

// pairStart walks back from a key's colon and reports the character right
// before the pair (',' or '{' in well-formed input).
func pairStart(s string, colon int) (prev byte, prevIdx int, ok bool) {
	i := colon - 1
	for i >= 0 && isSpace(s[i]) {
		i--
	}
	if i < 0 || s[i] != '"' {
		return 0, -1, false
	}
	j := openingQuote(s, i)
	if j < 0 {
		return 0, -1, false
	}
	j--
	for j >= 0 && isSpace(s[j]) {
		j--
	}
	if j < 0 {
		return 0, -1, false
	}
	return s[j], j, true
}

// openingQuote finds the quote that opens the string literal closing at end,
// skipping quotes neutralised by a backslash run of odd length.
func openingQuote(s string, end int) int {
	for i := end - 1; i >= 0; i-- {
		if s[i] != '"' {
			continue
		}
		n := 0
		for k := i - 1; k >= 0 && s[k] == '\\'; k-- {
			n++
		}
		if n%2 == 0 {
			return i
		}
	}
	return -1
}

func lastNonSpace(s string) (byte, int) {
	for i := len(s) - 1; i >= 0; i-- {
		if !isSpace(s[i]) {
			return s[i], i
		}
	}
	return 0, -1
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
