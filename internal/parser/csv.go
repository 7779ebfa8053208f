package parser

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/insightdelivered/upi-statement-converter/internal/models"
)

// TransactionColumns names the CSV header of each transaction field.
// Required columns are Time, ID and Amount.
type TransactionColumns struct {
	Time          string
	ID            string
	Description   string
	Product       string
	PaymentMethod string
	Status        string
	Amount        string
}

// CashbackColumns names the CSV header of each cashback field.
// Required columns are Date and Amount.
type CashbackColumns struct {
	Date        string
	Currency    string
	Amount      string
	Description string
}

// csvTable is a decoded CSV payload with a header index.
type csvTable struct {
	index map[string]int
	rows  [][]string
}

func readCSV(text string) (*csvTable, error) {
	text = strings.TrimPrefix(text, "\ufeff")
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err == io.EOF {
		return nil, schemaErrorf("csv", "no header row")
	}
	if err != nil {
		return nil, &SchemaError{Format: "csv", Err: err}
	}

	t := &csvTable{index: make(map[string]int, len(header))}
	for i, h := range header {
		t.index[strings.ToLower(strings.TrimSpace(h))] = i
	}

	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				// A single broken line should not cost the rest of the file.
				t.rows = append(t.rows, nil)
				continue
			}
			return nil, &SchemaError{Format: "csv", Err: err}
		}
		if isBlankRecord(rec) {
			continue
		}
		t.rows = append(t.rows, rec)
	}
	return t, nil
}

func isBlankRecord(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// require checks that every named column exists in the header.
func (t *csvTable) require(names ...string) error {
	var missing []string
	for _, n := range names {
		if _, ok := t.index[strings.ToLower(n)]; !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return schemaErrorf("csv", "missing required columns: %s", strings.Join(missing, ", "))
	}
	return nil
}

// field returns the trimmed value of a named column, or "" when the column
// is unknown or the row is short.
func (t *csvTable) field(row []string, name string) (string, bool) {
	if name == "" {
		return "", false
	}
	i, ok := t.index[strings.ToLower(name)]
	if !ok || i >= len(row) {
		return "", false
	}
	return strings.TrimSpace(row[i]), true
}

// ParseTransactionsCSV maps each data row to a Transaction. Rows with a
// missing field, bad timestamp or bad amount are skipped.
func ParseTransactionsCSV(text string, cols TransactionColumns) (Result[models.Transaction], error) {
	var res Result[models.Transaction]

	t, err := readCSV(text)
	if err != nil {
		return res, err
	}
	if err := t.require(cols.Time, cols.ID, cols.Amount); err != nil {
		return res, err
	}

	for i, row := range t.rows {
		res.Rows++
		line := i + 2 // header is line 1
		if row == nil {
			res.warnf("line %d: malformed CSV row", line)
			continue
		}

		rawTime, ok1 := t.field(row, cols.Time)
		id, ok2 := t.field(row, cols.ID)
		rawAmount, ok3 := t.field(row, cols.Amount)
		if !ok1 || !ok2 || !ok3 || id == "" {
			res.warnf("line %d: missing required field", line)
			continue
		}

		ts, err := ParseTimestamp(rawTime)
		if err != nil {
			res.warnf("line %d: %v", line, err)
			continue
		}
		amount, err := ParseCurrency(rawAmount)
		if err != nil {
			res.warnf("line %d: %v", line, err)
			continue
		}

		txn := models.Transaction{
			Time:   ts,
			ID:     id,
			Amount: amount,
		}
		txn.Description, _ = t.field(row, cols.Description)
		txn.Product, _ = t.field(row, cols.Product)
		txn.PaymentMethod, _ = t.field(row, cols.PaymentMethod)
		txn.Status, _ = t.field(row, cols.Status)

		res.Data = append(res.Data, txn)
	}

	return res, nil
}

// ParseCashbackCSV maps each data row to a CashbackReward.
func ParseCashbackCSV(text string, cols CashbackColumns) (Result[models.CashbackReward], error) {
	var res Result[models.CashbackReward]

	t, err := readCSV(text)
	if err != nil {
		return res, err
	}
	if err := t.require(cols.Date, cols.Amount); err != nil {
		return res, err
	}

	for i, row := range t.rows {
		res.Rows++
		line := i + 2 // header is line 1
		if row == nil {
			res.warnf("line %d: malformed CSV row", line)
			continue
		}

		rawDate, ok1 := t.field(row, cols.Date)
		rawAmount, ok2 := t.field(row, cols.Amount)
		if !ok1 || !ok2 {
			res.warnf("line %d: missing required field", line)
			continue
		}

		date, err := ParseTimestamp(rawDate)
		if err != nil {
			res.warnf("line %d: %v", line, err)
			continue
		}
		amount, err := ParseCurrency(rawAmount)
		if err != nil {
			res.warnf("line %d: %v", line, err)
			continue
		}

		reward := models.CashbackReward{
			Date:     date,
			Currency: amount.Currency,
			Amount:   amount.Value,
		}
		if code, ok := t.field(row, cols.Currency); ok && code != "" {
			reward.Currency = models.CurrencyCode(strings.ToUpper(code))
		}
		reward.Description, _ = t.field(row, cols.Description)

		res.Data = append(res.Data, reward)
	}

	return res, nil
}
