package linefilter

import (
	"strings"
	"unicode"
)

// Mode selects how many parenthesized annotations are removed from a line
type Mode int

const (
	// FirstAnnotation removes only the leftmost span per line
	FirstAnnotation Mode = iota
	// AllAnnotations removes every non-overlapping span, left to right
	AllAnnotations
)

// String returns the configuration name of the mode
func (m Mode) String() string {
	switch m {
	case FirstAnnotation:
		return "first"
	case AllAnnotations:
		return "all"
	default:
		return "unknown"
	}
}

// ParseMode converts a configuration name into a Mode
func ParseMode(name string) (Mode, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "first":
		return FirstAnnotation, true
	case "all":
		return AllAnnotations, true
	default:
		return FirstAnnotation, false
	}
}

// findAnnotation returns the bounds of the shortest span starting at the
// first '(' and ending at the nearest following ')'. ok is false when
// the line has no such span.
func findAnnotation(line string) (start, end int, ok bool) {
	start = strings.IndexByte(line, '(')
	if start < 0 {
		return 0, 0, false
	}
	closing := strings.IndexByte(line[start+1:], ')')
	if closing < 0 {
		return 0, 0, false
	}
	return start, start + 1 + closing + 1, true
}

// StripAnnotation removes the first parenthesized span, delimiters included
func StripAnnotation(line string) string {
	out, _ := strip(line, FirstAnnotation)
	return out
}

// StripAllAnnotations removes every parenthesized span
func StripAllAnnotations(line string) string {
	out, _ := strip(line, AllAnnotations)
	return out
}

func strip(line string, mode Mode) (string, int) {
	start, end, ok := findAnnotation(line)
	if !ok {
		return line, 0
	}
	if mode == FirstAnnotation {
		return line[:start] + line[end:], 1
	}

	var sb strings.Builder
	sb.Grow(len(line))
	removed := 0
	rest := line
	for ok {
		sb.WriteString(rest[:start])
		rest = rest[end:]
		removed++
		start, end, ok = findAnnotation(rest)
	}
	sb.WriteString(rest)
	return sb.String(), removed
}

// IsBlank reports whether nothing but whitespace is left on the line
func IsBlank(line string) bool {
	return strings.TrimRightFunc(line, unicode.IsSpace) == ""
}
