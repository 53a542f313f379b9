package parse

import "strings"

// Tags splits a comma separated tag list, trimming blanks and dropping empty entries.
func Tags(raw string) []string {
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
