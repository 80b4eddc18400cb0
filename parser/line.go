package parser

import "strings"

// parseEnv reads dotenv-style KEY=VALUE lines. Malformed lines are
// skipped rather than failing the file; real .env files in the wild
// carry plenty of junk. Positions are 1-based.
func parseEnv(content []byte) []Entry {
	var entries []Entry

	for i, raw := range strings.Split(string(content), "\n") {
		line := strings.TrimRight(raw, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		// shell-sourceable files prefix with export
		withoutExport := strings.TrimPrefix(trimmed, "export ")

		key, value, ok := strings.Cut(withoutExport, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" || strings.ContainsAny(key, " \t") {
			continue
		}
		value = stripQuotes(strings.TrimSpace(value))

		// column points at the start of the value, 1-based
		col := strings.Index(line, "=") + 2
		if value != "" {
			if idx := strings.Index(line, value); idx >= 0 {
				col = idx + 1
			}
		}

		entries = append(entries, Entry{
			Key:    key,
			Value:  value,
			Line:   i + 1,
			Column: col,
		})
	}
	return entries
}

// parseINI reads sectioned key=value files. Both "=" and ":" are
// accepted as separators.
func parseINI(content []byte) []Entry {
	var entries []Entry
	section := ""

	for i, raw := range strings.Split(string(content), "\n") {
		line := strings.TrimSpace(strings.TrimRight(raw, "\r"))
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.TrimSpace(line[1 : len(line)-1])
			continue
		}

		sep := strings.IndexAny(line, "=:")
		if sep < 0 {
			continue
		}
		key := strings.TrimSpace(line[:sep])
		value := stripQuotes(strings.TrimSpace(line[sep+1:]))
		if key == "" {
			continue
		}

		entries = append(entries, Entry{
			Key:     key,
			Value:   value,
			Section: section,
			Line:    i + 1,
		})
	}
	return entries
}

func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
