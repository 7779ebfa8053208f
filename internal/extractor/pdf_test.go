package extractor

import (
	"errors"
	"strings"
	"testing"

	"github.com/insightdelivered/upi-statement-converter/internal/extractor/pdftest"
)

var statementPages = [][]string{
	{
		"Transaction Statement for 98XXXXXX10",
		"Date Transaction Details Type Amount",
		"Jan 15, 2024 Paid to Swiggy DEBIT Rs 250",
		"10:15 am Transaction ID T2401151015",
		"Page 1 of 2",
	},
	{
		"Jan 10, 2024 Paid to Uber India DEBIT Rs 320.50",
		"6:40 pm Transaction ID T2401101840",
		"Page 2 of 2",
	},
}

// hasLine reports whether any page holds want as a whole line.
func hasLine(pages []string, want string) bool {
	for _, p := range pages {
		for _, line := range strings.Split(p, "\n") {
			if line == want {
				return true
			}
		}
	}
	return false
}

func TestIsPDF(t *testing.T) {
	tests := []struct {
		name  string
		input string
		pdf   bool
		enc   bool
	}{
		{"plain pdf", "%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<< /Root 1 0 R >>", true, false},
		{"encrypted pdf", "%PDF-1.7\ntrailer\n<< /Root 1 0 R /Encrypt 5 0 R >>", true, true},
		{"html", "<html><body>PhonePe</body></html>", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPDF([]byte(tt.input)); got != tt.pdf {
				t.Errorf("IsPDF: got %v, want %v", got, tt.pdf)
			}
			if got := IsEncryptedPDF([]byte(tt.input)); got != tt.enc {
				t.Errorf("IsEncryptedPDF: got %v, want %v", got, tt.enc)
			}
		})
	}
}

func TestExtractPDFText_NotPDF(t *testing.T) {
	_, err := ExtractPDFText("statement.pdf", []byte("not a pdf"), "")
	if !errors.Is(err, ErrContainerUnreadable) {
		t.Errorf("expected ErrContainerUnreadable, got %v", err)
	}
}

func TestExtractPDFText_Truncated(t *testing.T) {
	_, err := ExtractPDFText("statement.pdf", []byte("%PDF-1.4\ngarbage"), "")
	if err == nil {
		t.Fatal("expected error for truncated PDF")
	}
	if !errors.Is(err, ErrContainerUnreadable) {
		t.Errorf("expected ErrContainerUnreadable, got %v", err)
	}
}

func TestIsReadableText(t *testing.T) {
	if !isReadableText([]string{"Transaction Statement for 98XXXXXX10\nDate Transaction Details Type Amount"}) {
		t.Error("expected statement text to be readable")
	}
	if isReadableText([]string{"\x00\x01\x02\x03\x04\x05\x06\x07\x08\x00\x01\x02\x03\x04\x05\x06\x07\x08\x00\x01\x02\x03\x04\x05\x06\x07\x08\x00\x01\x02\x03"}) {
		t.Error("expected binary garbage to be rejected")
	}
	if isReadableText([]string{"short"}) {
		t.Error("expected short text to be rejected")
	}
}

func TestExtractPDFText_Pages(t *testing.T) {
	data := pdftest.Build(statementPages, pdftest.Options{Placement: pdftest.Absolute})

	pages, err := ExtractPDFText("statement.pdf", data, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d: %q", len(pages), pages)
	}
	if !strings.HasPrefix(pages[0], "Transaction Statement for 98XXXXXX10\n") {
		t.Errorf("unexpected first page: %q", pages[0])
	}
	if !hasLine(pages[1:], "Jan 10, 2024 Paid to Uber India DEBIT Rs 320.50") {
		t.Errorf("expected second page to keep its lines, got %q", pages[1])
	}
}

func TestExtractPDFText_Password(t *testing.T) {
	data := pdftest.Build(statementPages, pdftest.Options{Password: "1234"})
	if !IsEncryptedPDF(data) {
		t.Fatal("expected the document to be sniffed as encrypted")
	}

	tests := []struct {
		name     string
		password string
		want     error
	}{
		{"missing", "", ErrPasswordRequired},
		{"wrong", "0000", ErrWrongPassword},
		{"correct", "1234", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages, err := ExtractPDFText("statement.pdf", data, tt.password)
			if tt.want != nil {
				if !errors.Is(err, tt.want) {
					t.Fatalf("expected %v, got %v", tt.want, err)
				}
				var extractionErr *ExtractionError
				if !errors.As(err, &extractionErr) || extractionErr.Name != "statement.pdf" {
					t.Errorf("expected ExtractionError naming the file, got %#v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !hasLine(pages, "Jan 15, 2024 Paid to Swiggy DEBIT Rs 250") {
				t.Errorf("expected decrypted text, got %q", pages)
			}
		})
	}
}

func TestExtractPDFTextFunc_RelativeLines(t *testing.T) {
	data := pdftest.Build(statementPages, pdftest.Options{Placement: pdftest.Relative})
	wanted := []string{
		"Jan 15, 2024 Paid to Swiggy DEBIT Rs 250",
		"10:15 am Transaction ID T2401151015",
		"6:40 pm Transaction ID T2401101840",
	}
	score := func(pages []string) int {
		n := 0
		for _, w := range wanted {
			if hasLine(pages, w) {
				n++
			}
		}
		return n
	}

	pages, err := ExtractPDFTextFunc("statement.pdf", data, "", score)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := score(pages); got != len(wanted) {
		t.Errorf("expected every line intact, got %q", pages)
	}
}

func TestExtractPDFTextFunc_TiesKeepFirstLayout(t *testing.T) {
	data := pdftest.Build(statementPages, pdftest.Options{})

	pages, err := ExtractPDFTextFunc("statement.pdf", data, "", func([]string) int { return 0 })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 2 || !hasLine(pages, "10:15 am Transaction ID T2401151015") {
		t.Errorf("expected the row layout back, got %q", pages)
	}
}

func TestExtractPDFText_NoReadableText(t *testing.T) {
	data := pdftest.Build([][]string{{"x"}}, pdftest.Options{})

	_, err := ExtractPDFText("scan.pdf", data, "")
	if !errors.Is(err, ErrContainerUnreadable) {
		t.Errorf("expected ErrContainerUnreadable, got %v", err)
	}
}
