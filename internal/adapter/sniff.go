package adapter

import (
	"strings"
	"unicode/utf8"

	"github.com/insightdelivered/upi-statement-converter/internal/models"
)

// sniffLimit bounds how much of an upload detection looks at.
const sniffLimit = 64 << 10

// textHead returns the start of data as text, or "" for binary content.
func textHead(data []byte) string {
	head := data
	if len(head) > sniffLimit {
		head = head[:sniffLimit]
	}
	// Cutting at the limit can split a rune.
	for i := 0; i < utf8.UTFMax-1 && len(head) > 0 && !utf8.Valid(head); i++ {
		head = head[:len(head)-1]
	}
	if !utf8.Valid(head) {
		return ""
	}
	return string(head)
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func containsAll(s string, substrs ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range substrs {
		if !strings.Contains(lower, strings.ToLower(sub)) {
			return false
		}
	}
	return true
}

// firstLine returns the first non-blank line of text, BOM stripped.
func firstLine(text string) string {
	text = strings.TrimPrefix(text, "\ufeff")
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			return l
		}
	}
	return ""
}

// tagWarnings stamps app and role on parser warnings.
func tagWarnings(app models.AppID, role models.Role, ws []models.Warning) []models.Warning {
	out := make([]models.Warning, 0, len(ws))
	for _, w := range ws {
		w.App = app
		w.Role = role
		out = append(out, w)
	}
	return out
}
