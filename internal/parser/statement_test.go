package parser

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseStatementText(t *testing.T) {
	pages := []string{
		`Transaction Statement for 98XXXXXX10
Jan 01, 2024 - Jan 31, 2024
Date Transaction Details Type Amount
Jan 15, 2024 Paid to Swiggy DEBIT ₹250
10:15 am Transaction ID T2401151015123456789
UTR No. 401512345678
Paid by XXXXXXXX1234
Jan 14, 2024 Received from Ravi CREDIT ₹1,000.50
09:00 pm Transaction ID T240114090012
UTR No. 401409001234
Credited to XXXXXXXX1234
Page 1 of 2`,
		`Jan 10 2024 Paid to Bharat Sanchar Nigam
Limited Broadband DEBIT ₹799
Jan 09, 2024 Paid to Nobody DEBIT Rs. 12
7:05:09 pm Transaction ID T9`,
	}

	res := ParseStatementText(pages)

	// The BSNL block never opens an entry since its first row carries no
	// direction or amount.
	if res.Rows != 3 {
		t.Errorf("rows: got %d, want 3", res.Rows)
	}
	if len(res.Data) != 3 {
		t.Fatalf("entries: got %d, want 3 (%+v)", len(res.Data), res.Warnings)
	}

	first := res.Data[0]
	if first.Details != "Paid to Swiggy" {
		t.Errorf("details: got %q", first.Details)
	}
	if first.Direction != "DEBIT" {
		t.Errorf("direction: got %q", first.Direction)
	}
	if !first.Amount.Value.Equal(decimal.NewFromInt(250)) {
		t.Errorf("amount: got %s", first.Amount.Value)
	}
	if first.TransactionID != "T2401151015123456789" || first.UTR != "401512345678" {
		t.Errorf("ids: got %q / %q", first.TransactionID, first.UTR)
	}
	if first.Account != "XXXXXXXX1234" {
		t.Errorf("account: got %q", first.Account)
	}
	want := time.Date(2024, time.January, 15, 10, 15, 0, 0, IST)
	if !first.Time.Equal(want) {
		t.Errorf("time: got %v, want %v", first.Time, want)
	}

	credit := res.Data[1]
	if credit.Direction != "CREDIT" || !credit.Amount.Value.Equal(decimal.RequireFromString("1000.50")) {
		t.Errorf("credit: got %+v", credit)
	}
	wantCredit := time.Date(2024, time.January, 14, 21, 0, 0, 0, IST)
	if !credit.Time.Equal(wantCredit) {
		t.Errorf("credit time: got %v, want %v", credit.Time, wantCredit)
	}

	withSeconds := res.Data[2]
	if withSeconds.TransactionID != "T9" {
		t.Errorf("third entry id: got %q", withSeconds.TransactionID)
	}
	wantSeconds := time.Date(2024, time.January, 9, 19, 5, 9, 0, IST)
	if !withSeconds.Time.Equal(wantSeconds) {
		t.Errorf("third entry time: got %v, want %v", withSeconds.Time, wantSeconds)
	}
}

func TestParseStatementText_BadDateIsWarning(t *testing.T) {
	res := ParseStatementText([]string{"Feb 30, 2024 Paid to Ghost DEBIT ₹10\n10:00 am Transaction ID T1"})

	if len(res.Data) != 0 {
		t.Fatalf("entries: got %d, want 0", len(res.Data))
	}
	if len(res.Warnings) != 1 {
		t.Errorf("warnings: got %d, want 1", len(res.Warnings))
	}
	if res.Skipped() != 1 {
		t.Errorf("skipped: got %d, want 1", res.Skipped())
	}
}

func TestParseStatementText_WrappedDetails(t *testing.T) {
	res := ParseStatementText([]string{
		"Mar 02, 2024 Paid to Bharat Sanchar DEBIT ₹799\nNigam Limited\n11:00 am Transaction ID T77",
	})
	if len(res.Data) != 1 {
		t.Fatalf("entries: got %d, want 1", len(res.Data))
	}
	if res.Data[0].Details != "Paid to Bharat Sanchar Nigam Limited" {
		t.Errorf("details: got %q", res.Data[0].Details)
	}
}
