package utils

import "strings"

// HeaderList joins values into a comma separated header value. Blank and
// repeated entries are skipped.
func HeaderList(values []string) string {
	seen := make(map[string]struct{}, len(values))
	var b strings.Builder
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		b.WriteString(v)
	}
	return b.String()
}
