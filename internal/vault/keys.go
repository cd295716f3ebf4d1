package vault

import (
	"fmt"
	"strings"
	"time"

	"github.com/checkpointhq/checkpoint/pkg/idx"
)

// ObjectKey builds the canonical key for a new upload:
//
//	{userID}/{dataType}/[{category}/]{yyyy}/{mm}/{HHMMSS}_{filename}
//
// The leading user id segment is what the ownership check relies on.
func ObjectKey(userID idx.ID, dt DataType, category, filename string, now time.Time) string {
	now = now.UTC()

	var b strings.Builder
	fmt.Fprintf(&b, "%s/%s/", userID, dt)
	if category = sanitizeSegment(category); category != "" {
		b.WriteString(category)
		b.WriteByte('/')
	}
	fmt.Fprintf(&b, "%04d/%02d/%s_%s",
		now.Year(), int(now.Month()), now.Format("150405"), SafeFilename(filename))
	return b.String()
}

// Owns reports whether key sits under the user's prefix.
func Owns(userID idx.ID, key string) bool {
	return strings.HasPrefix(key, string(userID)+"/")
}

// SafeFilename strips path separators and anything else that could break a
// key out of its prefix. Empty input becomes "file".
func SafeFilename(name string) string {
	// Drop any client-supplied directory part.
	if i := strings.LastIndexAny(name, "/\\"); i >= 0 {
		name = name[i+1:]
	}

	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}

	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "file"
	}
	return out
}

func sanitizeSegment(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return SafeFilename(s)
}
