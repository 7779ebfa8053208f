package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/insightdelivered/upi-statement-converter/internal/models"
)

// StatementEntry is one transaction block of a PDF wallet/UPI statement.
type StatementEntry struct {
	Time    time.Time
	Details string
	// Direction is DEBIT or CREDIT.
	Direction     string
	Amount        models.Currency
	TransactionID string
	UTR           string
	Account       string
}

// Statement rows look like this once extracted row by row:
//
//	Jan 15, 2024 Paid to Swiggy DEBIT ₹250
//	10:15 am Transaction ID T2401151015123456789
//	UTR No. 401512345678
//	Paid by XXXXXXXX1234
//
// The first line opens an entry; the following lines fill it in until the
// next entry starts.
var (
	statementEntryPattern = regexp.MustCompile(
		`^([A-Z][a-z]{2} \d{1,2},? \d{4})\s+(.+?)\s+(DEBIT|CREDIT|Debit|Credit)\s+((?:₹|Rs\.?|INR)\s?[\d,]+(?:\.\d{1,2})?)$`,
	)
	statementTimePattern    = regexp.MustCompile(`(?i)^(\d{1,2}:\d{2}(?::\d{2})?)\s?([ap]m)\b`)
	statementTxnIDPattern   = regexp.MustCompile(`(?i)Transaction ID\s*:?\s*([A-Z0-9]+)`)
	statementUTRPattern     = regexp.MustCompile(`(?i)UTR No\.?\s*:?\s*([A-Z0-9]+)`)
	statementAccountPattern = regexp.MustCompile(`(?i)^(?:Paid by|Debited from|Credited to)\s+(.+)$`)
)

// statementNoise are lines that never belong to an entry.
var statementNoise = []string{
	"page ", "system generated", "disclaimer", "transaction statement",
	"date transaction details", "support.phonepe", "do not reply",
}

type pendingEntry struct {
	line      int
	date      string
	clock     string
	details   []string
	direction string
	amount    string
	txnID     string
	utr       string
	account   string
}

// ParseStatementText reads the text of a PDF statement, one string per page.
// Blocks with an unreadable date or amount are skipped with a warning.
func ParseStatementText(pages []string) Result[StatementEntry] {
	var res Result[StatementEntry]
	var cur *pendingEntry

	flush := func() {
		if cur == nil {
			return
		}
		res.Rows++
		e, err := cur.build()
		if err != nil {
			res.warnf("statement line %d: %v", cur.line, err)
		} else {
			res.Data = append(res.Data, e)
		}
		cur = nil
	}

	lineNo := 0
	for _, page := range pages {
		for _, raw := range strings.Split(page, "\n") {
			lineNo++
			line := normalizeSpace(raw)
			if line == "" {
				continue
			}

			if m := statementEntryPattern.FindStringSubmatch(line); m != nil {
				flush()
				cur = &pendingEntry{
					line:      lineNo,
					date:      statementDate(m[1]),
					details:   []string{m[2]},
					direction: strings.ToUpper(m[3]),
					amount:    m[4],
				}
				continue
			}
			if cur == nil || isStatementNoise(line) {
				continue
			}

			matched := false
			if m := statementTimePattern.FindStringSubmatch(line); m != nil && cur.clock == "" {
				cur.clock = m[1] + " " + strings.ToUpper(m[2])
				matched = true
			}
			if m := statementTxnIDPattern.FindStringSubmatch(line); m != nil {
				cur.txnID = m[1]
				matched = true
			}
			if m := statementUTRPattern.FindStringSubmatch(line); m != nil {
				cur.utr = m[1]
				matched = true
			}
			if m := statementAccountPattern.FindStringSubmatch(line); m != nil {
				cur.account = m[1]
				matched = true
			}

			// A long counterparty name wraps onto the next row, before the
			// time row.
			if !matched && cur.clock == "" && cur.txnID == "" {
				cur.details = append(cur.details, line)
			}
		}
	}
	flush()

	return res
}

func (p *pendingEntry) build() (StatementEntry, error) {
	ts, err := ParseDateTime(p.date, p.clock)
	if err != nil {
		return StatementEntry{}, err
	}
	amount, err := ParseCurrency(p.amount)
	if err != nil {
		return StatementEntry{}, err
	}
	return StatementEntry{
		Time:          ts,
		Details:       strings.Join(p.details, " "),
		Direction:     p.direction,
		Amount:        amount,
		TransactionID: p.txnID,
		UTR:           p.utr,
		Account:       p.account,
	}, nil
}

// statementDate restores the comma some renderings drop: "Jan 15 2024".
func statementDate(s string) string {
	if strings.Contains(s, ",") {
		return s
	}
	i := strings.LastIndexByte(s, ' ')
	return s[:i] + "," + s[i:]
}

func isStatementNoise(line string) bool {
	lower := strings.ToLower(line)
	for _, n := range statementNoise {
		if strings.Contains(lower, n) {
			return true
		}
	}
	return false
}
