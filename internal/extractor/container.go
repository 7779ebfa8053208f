package extractor

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/insightdelivered/upi-statement-converter/internal/models"
)

// maxEntrySize caps how much of a single archive member is read.
const maxEntrySize = 64 << 20

// antiInjectionPrefix is the token some JSON endpoints prepend to stop the
// payload being evaluated as script.
const antiInjectionPrefix = ")]}'"

// RolePattern lists the candidate relative paths for one logical role.
// Patterns use path.Match syntax and are matched case-insensitively against
// every suffix of an entry path, so an unknown top-level directory is
// tolerated. Substrings are a looser fallback: every substring must appear
// in the entry path.
type RolePattern struct {
	Role       models.Role
	Patterns   []string
	Substrings []string
	// Format decides the post-processing: JSON payloads have the
	// anti-injection prefix stripped, CSV payloads from several entries are
	// joined under one header.
	Format models.PayloadFormat
}

// Layout is the set of roles an archive may contain.
type Layout []RolePattern

// Match returns the first role whose patterns accept entry.
func (l Layout) Match(entry string) (models.Role, bool) {
	for _, rp := range l {
		if rp.matches(entry) {
			return rp.Role, true
		}
	}
	return "", false
}

// ExtractArchive opens a ZIP archive held in memory and returns the text of
// every role found. Roles that are not present are omitted; it is up to the
// caller to decide whether that matters.
func ExtractArchive(name string, data []byte, layout Layout) (map[models.Role]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, unreadable(name, err)
	}

	files := make([]*zip.File, 0, len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		files = append(files, f)
	}
	sort.SliceStable(files, func(i, j int) bool { return files[i].Name < files[j].Name })

	out := make(map[models.Role]string)
	for _, rp := range layout {
		var parts []string
		for _, f := range files {
			if !rp.matches(f.Name) {
				continue
			}
			text, err := readEntry(f)
			if err != nil {
				return nil, unreadable(name+":"+f.Name, err)
			}
			parts = append(parts, text)
			if rp.Format != models.FormatCSV {
				break
			}
		}
		if len(parts) == 0 {
			continue
		}

		var text string
		switch rp.Format {
		case models.FormatCSV:
			text = joinCSV(parts)
		case models.FormatJSON:
			text = StripAntiInjectionPrefix(parts[0])
		default:
			text = parts[0]
		}
		if strings.TrimSpace(text) != "" {
			out[rp.Role] = text
		}
	}
	return out, nil
}

// ListEntries returns the file names inside an archive. Used for detection.
func ListEntries(data []byte) ([]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, unreadable("", err)
	}
	names := make([]string, 0, len(zr.File))
	for _, f := range zr.File {
		if !f.FileInfo().IsDir() {
			names = append(names, normalizePath(f.Name))
		}
	}
	return names, nil
}

// IsArchive reports whether data starts with a ZIP local file header.
func IsArchive(data []byte) bool {
	return len(data) >= 4 && bytes.Equal(data[:4], []byte("PK\x03\x04"))
}

// MatchPath reports whether entry matches pattern against any of its path
// suffixes.
func MatchPath(pattern, entry string) bool {
	pattern = strings.ToLower(normalizePath(pattern))
	parts := strings.Split(strings.ToLower(normalizePath(entry)), "/")
	for i := range parts {
		if ok, _ := path.Match(pattern, strings.Join(parts[i:], "/")); ok {
			return true
		}
	}
	return false
}

func (rp RolePattern) matches(entry string) bool {
	for _, p := range rp.Patterns {
		if MatchPath(p, entry) {
			return true
		}
	}
	if len(rp.Substrings) == 0 {
		return false
	}
	lower := strings.ToLower(normalizePath(entry))
	for _, s := range rp.Substrings {
		if !strings.Contains(lower, strings.ToLower(s)) {
			return false
		}
	}
	return true
}

func normalizePath(p string) string {
	return strings.TrimPrefix(strings.ReplaceAll(p, "\\", "/"), "./")
}

func readEntry(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxEntrySize+1))
	if err != nil {
		return "", err
	}
	if len(data) > maxEntrySize {
		return "", fmt.Errorf("entry %s exceeds %d bytes", f.Name, maxEntrySize)
	}
	return string(data), nil
}

// joinCSV concatenates CSV files that share a header, keeping the first
// header only.
func joinCSV(parts []string) string {
	if len(parts) == 1 {
		return parts[0]
	}
	var b strings.Builder
	b.WriteString(strings.TrimRight(parts[0], "\r\n"))
	for _, p := range parts[1:] {
		p = strings.TrimPrefix(p, "\ufeff")
		if i := strings.IndexByte(p, '\n'); i >= 0 {
			p = p[i+1:]
		} else {
			continue
		}
		p = strings.TrimRight(p, "\r\n")
		if p == "" {
			continue
		}
		b.WriteString("\n")
		b.WriteString(p)
	}
	b.WriteString("\n")
	return b.String()
}

// StripAntiInjectionPrefix removes a leading ")]}'" token and the line break
// after it. Payloads without the token are returned unchanged.
func StripAntiInjectionPrefix(text string) string {
	trimmed := strings.TrimLeft(text, "\ufeff \t")
	if !strings.HasPrefix(trimmed, antiInjectionPrefix) {
		return text
	}
	trimmed = trimmed[len(antiInjectionPrefix):]
	trimmed = strings.TrimPrefix(trimmed, ",")
	if strings.HasPrefix(trimmed, "\r\n") {
		return trimmed[2:]
	}
	return strings.TrimPrefix(trimmed, "\n")
}

// HasAntiInjectionPrefix reports whether text starts with the token.
func HasAntiInjectionPrefix(text string) bool {
	return strings.HasPrefix(strings.TrimLeft(text, "\ufeff \t"), antiInjectionPrefix)
}
