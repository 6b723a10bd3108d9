package command

import (
	"strings"
	"unicode"
)

// ParseResult holds the parsed command name and arguments from a text line.
type ParseResult struct {
	// Command is the first word of the input, lowercased.
	Command string
	// Args are the remaining words after the command. Double quotes group
	// words into one argument and are removed.
	Args []string
	// RawArgs is the raw text after the command.
	RawArgs string
}

// Parse splits a text line into a command and arguments.
//
// Postcondition: Returns a ParseResult. If line is blank or a comment
// starting with '#', Command is empty.
func Parse(line string) ParseResult {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return ParseResult{}
	}

	spaceIdx := strings.IndexFunc(line, unicode.IsSpace)
	if spaceIdx < 0 {
		return ParseResult{
			Command: strings.ToLower(line),
		}
	}

	cmd := strings.ToLower(line[:spaceIdx])
	rest := strings.TrimSpace(line[spaceIdx+1:])

	return ParseResult{
		Command: cmd,
		Args:    Fields(rest),
		RawArgs: rest,
	}
}

// Fields splits s on whitespace outside double quotes. An unterminated quote
// runs to the end of s.
//
// Postcondition: Returns nil for blank input.
func Fields(s string) []string {
	var (
		out     []string
		cur     strings.Builder
		quoted  bool
		pending bool
	)
	for _, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
			pending = true
		case unicode.IsSpace(r) && !quoted:
			if pending {
				out = append(out, cur.String())
				cur.Reset()
				pending = false
			}
		default:
			cur.WriteRune(r)
			pending = true
		}
	}
	if pending {
		out = append(out, cur.String())
	}
	return out
}

// KeyValue splits an argument of the form key=value. The key is lowercased.
//
// Postcondition: ok is false when arg has no '=' or an empty key.
func KeyValue(arg string) (key, value string, ok bool) {
	key, value, ok = strings.Cut(arg, "=")
	key = strings.ToLower(strings.TrimSpace(key))
	if !ok || key == "" {
		return "", "", false
	}
	return key, value, true
}
