package extractor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// IsPDF reports whether data looks like a PDF document.
func IsPDF(data []byte) bool {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	return bytes.Contains(head, []byte("%PDF-"))
}

// IsEncryptedPDF reports whether the PDF trailer references an encryption
// dictionary. The document cannot be inspected further without a secret.
func IsEncryptedPDF(data []byte) bool {
	return IsPDF(data) && bytes.Contains(data, []byte("/Encrypt"))
}

// ExtractPDFText reads a PDF held in memory and returns the text of each
// page. password may be empty for unencrypted documents.
func ExtractPDFText(name string, data []byte, password string) ([]string, error) {
	return ExtractPDFTextFunc(name, data, password, nil)
}

// ExtractPDFTextFunc is ExtractPDFText with a caller score. Every text
// layout is tried and the readable one scoring highest is returned; ties go
// to the earlier layout. A nil score takes the first readable layout.
func ExtractPDFTextFunc(name string, data []byte, password string, score func(pages []string) int) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = unreadable(name, fmt.Errorf("PDF library crashed: %v", r))
		}
	}()

	if !IsPDF(data) {
		return nil, unreadable(name, errors.New("not a PDF document"))
	}

	r, err := openPDF(data, password)
	if err != nil {
		if errors.Is(err, pdf.ErrInvalidPassword) {
			if password == "" {
				return nil, &ExtractionError{Name: name, Err: ErrPasswordRequired}
			}
			return nil, &ExtractionError{Name: name, Err: ErrWrongPassword}
		}
		return nil, unreadable(name, err)
	}
	if r.NumPage() == 0 {
		return nil, unreadable(name, errors.New("PDF has no pages"))
	}

	var best []string
	bestScore := 0
	for _, layout := range pdfLayouts {
		got := tryLayout(layout, r)
		if !isReadableText(got) {
			continue
		}
		if score == nil {
			return got, nil
		}
		if n := score(got); best == nil || n > bestScore {
			best, bestScore = got, n
		}
	}
	if best != nil {
		return best, nil
	}
	return nil, unreadable(name, errors.New("no readable text could be extracted; the PDF may be image-based"))
}

// openPDF offers password once. The reader keeps prompting until it gets an
// empty answer.
func openPDF(data []byte, password string) (*pdf.Reader, error) {
	asked := false
	prompt := func() string {
		if asked {
			return ""
		}
		asked = true
		return password
	}
	return pdf.NewReaderEncrypted(bytes.NewReader(data), int64(len(data)), prompt)
}

// pdfLayouts are the ways of turning a page into lines, best first.
var pdfLayouts = []func(*pdf.Reader) []string{
	rowLines,
	glyphLines,
	plainText,
}

// tryLayout runs layout, treating a crash inside the library as no text.
func tryLayout(layout func(*pdf.Reader) []string, r *pdf.Reader) (pages []string) {
	defer func() {
		if recover() != nil {
			pages = nil
		}
	}()
	return layout(r)
}

// commonWords appear in virtually every UPI statement. Text containing none
// of them is treated as garbage from an undecodable font.
var commonWords = []string{
	"transaction", "statement", "paid", "received", "debit", "credit",
	"amount", "upi", "date", "utr",
}

func isReadableText(pages []string) bool {
	n := 0
	for _, p := range pages {
		n += len(strings.TrimSpace(p))
	}
	if n <= 30 {
		return false
	}
	if textQuality(pages) <= 0.6 {
		return false
	}
	combined := strings.ToLower(strings.Join(pages, " "))
	for _, word := range commonWords {
		if strings.Contains(combined, word) {
			return true
		}
	}
	return false
}

// textQuality returns the share of printable characters, 0.0-1.0.
func textQuality(pages []string) float64 {
	total := 0
	readable := 0
	for _, page := range pages {
		for _, r := range page {
			total++
			if r < unicode.MaxASCII && (unicode.IsPrint(r) || unicode.IsSpace(r)) || r == '₹' {
				readable++
			}
		}
	}
	if total == 0 {
		return 0
	}
	return float64(readable) / float64(total)
}

// columnGap is the horizontal jump, in points, that separates two cells of
// a statement row.
const columnGap = 15

// eachPage collects the non-blank lines fn finds on every page.
func eachPage(r *pdf.Reader, fn func(pdf.Page) []string) []string {
	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		var lines []string
		for _, line := range fn(page) {
			if line = strings.TrimSpace(line); line != "" {
				lines = append(lines, line)
			}
		}
		pages = append(pages, strings.Join(lines, "\n"))
	}
	return pages
}

// rowLines uses the library's row grouping. It follows absolute text
// matrices well but can fold relatively placed lines into one row.
func rowLines(r *pdf.Reader) []string {
	return eachPage(r, func(page pdf.Page) []string {
		rows, err := page.GetTextByRow()
		if err != nil {
			return nil
		}
		lines := make([]string, 0, len(rows))
		for _, row := range rows {
			words := make([]string, len(row.Content))
			for i, w := range row.Content {
				words[i] = w.S
			}
			lines = append(lines, strings.Join(words, " "))
		}
		return lines
	})
}

// glyphLines rebuilds lines from glyph positions: glyphs on one baseline
// form a line, read left to right.
func glyphLines(r *pdf.Reader) []string {
	return eachPage(r, func(page pdf.Page) []string {
		baselines := make(map[int][]pdf.Text)
		for _, g := range page.Content().Text {
			y := int(math.Round(g.Y))
			baselines[y] = append(baselines[y], g)
		}
		ys := make([]int, 0, len(baselines))
		for y := range baselines {
			ys = append(ys, y)
		}
		// Page space grows upwards.
		sort.Sort(sort.Reverse(sort.IntSlice(ys)))

		lines := make([]string, 0, len(ys))
		for _, y := range ys {
			glyphs := baselines[y]
			// Fonts without a width table put a whole string at one X.
			sort.SliceStable(glyphs, func(a, b int) bool { return glyphs[a].X < glyphs[b].X })

			var b strings.Builder
			spaced := true
			for i, g := range glyphs {
				if i > 0 && !spaced && g.X-(glyphs[i-1].X+glyphs[i-1].W) > columnGap {
					b.WriteByte(' ')
				}
				b.WriteString(g.S)
				spaced = strings.HasSuffix(g.S, " ")
			}
			lines = append(lines, b.String())
		}
		return lines
	})
}

func plainText(r *pdf.Reader) []string {
	rd, err := r.GetPlainText()
	if err != nil {
		return nil
	}
	data, err := io.ReadAll(rd)
	if err != nil {
		return nil
	}
	return []string{strings.TrimSpace(string(data))}
}
