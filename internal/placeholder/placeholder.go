// Package placeholder generates the fallback visual shown when no validated
// logo exists: initials on a deterministic color swatch.
package placeholder

import (
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"
)

// palette holds the background colors initials are drawn on. The color for
// an entity is a pure function of its ID, so it never changes between
// renders or sessions.
var palette = []string{
	"#ef4444", "#f97316", "#f59e0b", "#84cc16",
	"#22c55e", "#14b8a6", "#06b6d4", "#3b82f6",
	"#6366f1", "#8b5cf6", "#a855f7", "#ec4899",
}

// Color returns the deterministic background color for an entity ID.
func Color(entityID string) string {
	h := fnv.New32a()
	h.Write([]byte(entityID))
	return palette[h.Sum32()%uint32(len(palette))]
}

// Initials derives up to two uppercase initials from a display name.
// Falls back to "?" for empty or non-letter names.
func Initials(name string) string {
	var initials []rune
	for _, word := range strings.Fields(name) {
		for _, r := range word {
			if unicode.IsLetter(r) || unicode.IsNumber(r) {
				initials = append(initials, unicode.ToUpper(r))
				break
			}
		}
		if len(initials) == 2 {
			break
		}
	}
	if len(initials) == 0 {
		return "?"
	}
	return string(initials)
}

// SVG renders the placeholder image for an entity. Same input, same output,
// forever; consumers may cache it indefinitely.
func SVG(entityID, name string) string {
	return fmt.Sprintf(
		`<svg xmlns="http://www.w3.org/2000/svg" width="128" height="128" viewBox="0 0 128 128">`+
			`<rect width="128" height="128" rx="24" fill="%s"/>`+
			`<text x="64" y="64" dy=".35em" text-anchor="middle" `+
			`font-family="system-ui, sans-serif" font-size="52" font-weight="600" fill="#ffffff">%s</text>`+
			`</svg>`,
		Color(entityID), escapeText(Initials(name)),
	)
}

func escapeText(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}
