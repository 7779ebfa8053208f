package parser

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

const legacyTable = `<html><body>
<h2>Transaction History</h2>
<table border="1">
  <tr><th>Date</th><th>Bank Name</th><th>Payment ID</th><th>Amount</th></tr>
  <tr><td>01/02/2024</td><td>SBI</td><td>P1</td><td>100.00</td></tr>
  <tr><td>02/02/2024</td><td>SBI<br/>Main</td><td>P2</td><td>200.00</td></tr>
  <tr><td>03/02/2024</td><td>SBI</td><td>P3</td></tr>
  <tr><td>04/02/2024</td><td>SBI</td><td>P4</td><td>oops</td></tr>
</table>
<table><tr><td>second table is ignored</td></tr></table>
</body></html>`

type tableRow struct {
	date, bank, id, amount string
}

func TestParseTable(t *testing.T) {
	res, err := ParseTable(legacyTable, 4, func(c []string) (tableRow, error) {
		if _, err := ParseAmount(c[3]); err != nil {
			return tableRow{}, err
		}
		return tableRow{c[0], c[1], c[2], c[3]}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Rows != 4 {
		t.Errorf("rows: got %d, want 4", res.Rows)
	}
	if len(res.Data) != 2 {
		t.Fatalf("data: got %d, want 2", len(res.Data))
	}
	if res.Data[1].bank != "SBI Main" {
		t.Errorf("cell text: got %q, want %q", res.Data[1].bank, "SBI Main")
	}
	if len(res.Warnings) != 2 {
		t.Errorf("warnings: got %d, want 2", len(res.Warnings))
	}
	for _, w := range res.Warnings {
		if !strings.Contains(w.Message, "table row") {
			t.Errorf("unexpected warning: %q", w.Message)
		}
	}
}

func TestParseTable_NoTable(t *testing.T) {
	_, err := ParseTable("<html><body>nothing</body></html>", 4, func(c []string) (string, error) {
		return "", fmt.Errorf("unreachable")
	})
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %v", err)
	}
}

func TestTableRows_HeaderIncluded(t *testing.T) {
	rows, err := TableRows(legacyTable)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 5 {
		t.Fatalf("rows: got %d, want 5", len(rows))
	}
	if strings.Join(rows[0], "|") != "Date|Bank Name|Payment ID|Amount" {
		t.Errorf("header: got %v", rows[0])
	}
}
