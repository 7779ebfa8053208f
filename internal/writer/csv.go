package writer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/upi-statement-converter/internal/models"
)

// DateLayout is how transaction times are rendered. Times are written in the
// zone they were parsed in.
const DateLayout = "2006-01-02 15:04"

// Header is the column row of the unified transactions CSV.
var Header = []string{"Date", "Transaction ID", "Description", "Category", "Amount", "Currency", "Source"}

// Metadata is written above the column row when IncludeHeader is set.
// Empty fields are left out.
type Metadata struct {
	Year       string
	Apps       []string
	TotalSpend *decimal.Decimal
}

// CSVWriter writes unified transactions to CSV format.
type CSVWriter struct {
	IncludeHeader bool
	Meta          Metadata
}

// WriteToFile writes transactions to a CSV file at the given path.
func (w *CSVWriter) WriteToFile(path string, data *models.ParsedData) error {
	return WriteFile(path, func(out io.Writer) error { return w.Write(out, data) })
}

// Write writes transactions in CSV format to the given writer.
func (w *CSVWriter) Write(out io.Writer, data *models.ParsedData) error {
	if data == nil {
		data = models.NewParsedData()
	}
	writer := csv.NewWriter(out)

	if w.IncludeHeader {
		for _, row := range w.metadataRows(data) {
			if err := writer.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV metadata: %w", err)
			}
		}
	}

	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, txn := range data.Transactions {
		row := []string{
			formatTime(txn),
			txn.ID,
			txn.Description,
			string(txn.Category),
			formatAmount(txn.Amount.Value),
			string(txn.Amount.Currency),
			string(txn.SourceApp),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func (w *CSVWriter) metadataRows(data *models.ParsedData) [][]string {
	var rows [][]string
	if len(data.Sources) > 0 {
		sources := make([]string, len(data.Sources))
		for i, s := range data.Sources {
			sources[i] = string(s)
		}
		rows = append(rows, []string{"# Sources", strings.Join(sources, " ")})
	}
	if w.Meta.Year != "" {
		rows = append(rows, []string{"# Year", w.Meta.Year})
	}
	if len(w.Meta.Apps) > 0 {
		rows = append(rows, []string{"# Apps", strings.Join(w.Meta.Apps, " ")})
	}
	rows = append(rows, []string{"# Transactions", fmt.Sprint(len(data.Transactions))})
	if w.Meta.TotalSpend != nil {
		rows = append(rows, []string{"# Total Spend (INR)", formatAmount(*w.Meta.TotalSpend)})
	}
	return rows
}

func formatTime(txn models.Transaction) string {
	if txn.Time.IsZero() {
		return ""
	}
	return txn.Time.Format(DateLayout)
}

func formatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}
