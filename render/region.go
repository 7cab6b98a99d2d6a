// Package render computes the desired artifact tree for an enriched document
// and merges it into existing files without touching user-owned content.
package render

import "strings"

// Managed region markers. They are matched by exact substring search, first
// occurrence only, so marker-like text later in a file is left alone.
const (
	StartMarker = "# === ANKLUME MANAGED ==="
	EndMarker   = "# === END ANKLUME MANAGED ==="

	noticeLine = "# Generated by anklume sync. Do not edit inside this block."
)

// Region wraps a YAML payload in the managed markers. The payload is
// expected to end with a newline.
func Region(payload string) string {
	var b strings.Builder
	b.WriteString(StartMarker)
	b.WriteByte('\n')
	b.WriteString(noticeLine)
	b.WriteByte('\n')
	b.WriteString(payload)
	if !strings.HasSuffix(payload, "\n") {
		b.WriteByte('\n')
	}
	b.WriteString(EndMarker)
	b.WriteByte('\n')
	return b.String()
}

// Splice replaces the first managed region of existing with region. When the
// markers are absent (or existing is empty) the region is inserted at the
// top and the rest of the content is preserved below it. Content outside the
// region passes through byte-for-byte.
func Splice(existing []byte, region string) []byte {
	content := string(existing)

	start := strings.Index(content, StartMarker)
	if start >= 0 {
		rest := content[start:]
		end := strings.Index(rest, EndMarker)
		if end >= 0 {
			tail := rest[end+len(EndMarker):]
			// The region owns its trailing newline.
			tail = strings.TrimPrefix(tail, "\n")
			return []byte(content[:start] + region + tail)
		}
	}

	if len(content) == 0 {
		return []byte(region)
	}
	return []byte(region + "\n" + content)
}

// Extract returns the payload between the markers of a generated file,
// without the notice line, and reports whether a managed region was found.
func Extract(content []byte) (string, bool) {
	s := string(content)
	start := strings.Index(s, StartMarker)
	if start < 0 {
		return "", false
	}
	rest := s[start+len(StartMarker):]
	end := strings.Index(rest, EndMarker)
	if end < 0 {
		return "", false
	}
	payload := rest[:end]
	payload = strings.TrimPrefix(payload, "\n")
	payload = strings.TrimPrefix(payload, noticeLine+"\n")
	return payload, true
}
