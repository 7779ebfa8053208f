package writer

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/upi-statement-converter/internal/models"
)

var ist = time.FixedZone("IST", 5*3600+30*60)

func sampleData() *models.ParsedData {
	data := models.NewParsedData()
	data.Transactions = []models.Transaction{
		{
			Time:        time.Date(2024, 3, 15, 10, 30, 0, 0, ist),
			ID:          "G1",
			Description: "Paid to Swiggy, Koramangala",
			Category:    models.CategoryFood,
			Amount:      models.NewINR(decimal.RequireFromString("250")),
			SourceApp:   models.AppGooglePay,
		},
		{
			Time:        time.Date(2024, 3, 1, 12, 0, 0, 0, ist),
			ID:          "B1",
			Description: "Netflix",
			Category:    models.CategoryEntertainment,
			Amount:      models.Currency{Value: decimal.RequireFromString("9.99"), Currency: models.USD},
			SourceApp:   models.AppBHIM,
		},
	}
	data.AddSource(models.AppBHIM)
	data.AddSource(models.AppGooglePay)
	return data
}

func TestCSVWriter_Write(t *testing.T) {
	total := decimal.RequireFromString("1079.17")
	var buf bytes.Buffer
	w := &CSVWriter{
		IncludeHeader: true,
		Meta:          Metadata{Year: "2024", Apps: []string{"bhim", "googlepay"}, TotalSpend: &total},
	}
	if err := w.Write(&buf, sampleData()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()

	if !strings.Contains(output, "# Sources,bhim googlepay") {
		t.Error("expected sources metadata")
	}
	if !strings.Contains(output, "# Year,2024") {
		t.Error("expected year metadata")
	}
	if !strings.Contains(output, "# Total Spend (INR),1079.17") {
		t.Error("expected total spend metadata")
	}

	if !strings.Contains(output, "Date,Transaction ID,Description,Category,Amount,Currency,Source") {
		t.Error("expected column headers")
	}

	if !strings.Contains(output, `2024-03-15 10:30,G1,"Paid to Swiggy, Koramangala",Food,250.00,INR,googlepay`) {
		t.Errorf("expected quoted first row, got:\n%s", output)
	}
	if !strings.Contains(output, "2024-03-01 12:00,B1,Netflix,Entertainment,9.99,USD,bhim") {
		t.Error("expected second row")
	}

	lines := strings.Split(strings.TrimSpace(output), "\n")
	// 5 metadata lines + 1 header + 2 transactions = 8
	if len(lines) != 8 {
		t.Errorf("expected 8 lines, got %d", len(lines))
	}
}

func TestCSVWriter_WriteNoHeader(t *testing.T) {
	var buf bytes.Buffer
	w := &CSVWriter{IncludeHeader: false}
	if err := w.Write(&buf, sampleData()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()

	if strings.Contains(output, "# Sources") {
		t.Error("should not have metadata when header=false")
	}

	records, err := csv.NewReader(strings.NewReader(output)).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[1][2] != "Paid to Swiggy, Koramangala" {
		t.Errorf("got %q, want description with comma intact", records[1][2])
	}
}

func TestCSVWriter_WriteNil(t *testing.T) {
	var buf bytes.Buffer
	w := &CSVWriter{}
	if err := w.Write(&buf, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != strings.Join(Header, ",") {
		t.Errorf("got %q, want header only", got)
	}
}

func TestCSVWriter_WriteToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	w := &CSVWriter{}
	if err := w.WriteToFile(path, sampleData()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if !strings.Contains(string(b), "G1") {
		t.Error("expected transaction in file")
	}

	if err := w.WriteToFile(filepath.Join(t.TempDir(), "missing", "out.csv"), sampleData()); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"25.99", "25.99"},
		{"1234.5", "1234.50"},
		{"0", "0.00"},
		{"2500", "2500.00"},
	}

	for _, tt := range tests {
		got := formatAmount(decimal.RequireFromString(tt.input))
		if got != tt.expected {
			t.Errorf("formatAmount(%s): got %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleData()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"transactions": [`) {
		t.Errorf("expected indented transactions array, got:\n%s", out)
	}
	if !strings.Contains(out, `"groupExpenses": []`) {
		t.Error("expected empty collections as []")
	}
}
