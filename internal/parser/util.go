package parser

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/insightdelivered/upi-statement-converter/internal/models"
)

// IST is the zone assumed for timestamps that carry none. A fixed zone keeps
// parsing independent of the host tzdata.
var IST = time.FixedZone("IST", 5*3600+30*60)

var errEmptyAmount = errors.New("empty amount")

// currencyPrefixes are stripped before numeric parsing, longest first.
var currencyPrefixes = []struct {
	token string
	code  models.CurrencyCode
}{
	{"USD", models.USD},
	{"INR", models.INR},
	{"Rs.", models.INR},
	{"Rs", models.INR},
	{"₹", models.INR},
	{"$", models.USD},
}

// ParseAmount converts strings like "1,234.56", "₹1,23,456.00" or
// "-INR 50" to a decimal. Thousands separators in either Western or Indian
// grouping are accepted.
func ParseAmount(s string) (decimal.Decimal, error) {
	v, _, err := parseMoney(s)
	return v, err
}

// ParseCurrency parses an amount and its currency. The value is returned as
// an absolute number; direction is carried by the record type.
func ParseCurrency(s string) (models.Currency, error) {
	v, code, err := parseMoney(s)
	if err != nil {
		return models.Currency{}, err
	}
	return models.Currency{Value: v.Abs(), Currency: code}, nil
}

func parseMoney(s string) (decimal.Decimal, models.CurrencyCode, error) {
	orig := s
	s = strings.TrimSpace(s)
	code := models.INR

	negative := false
	if strings.HasPrefix(s, "-") {
		negative = true
		s = strings.TrimSpace(s[1:])
	}
	for _, p := range currencyPrefixes {
		if strings.HasPrefix(s, p.token) {
			code = p.code
			s = strings.TrimSpace(s[len(p.token):])
			break
		}
	}
	// Some exports put the code after the number.
	for _, p := range currencyPrefixes[:2] {
		if strings.HasSuffix(s, p.token) {
			code = p.code
			s = strings.TrimSpace(s[:len(s)-len(p.token)])
			break
		}
	}
	if strings.HasPrefix(s, "-") {
		negative = !negative
		s = s[1:]
	}

	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "\u00a0", "")

	if s == "" {
		return decimal.Zero, code, errEmptyAmount
	}

	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, code, fmt.Errorf("invalid amount %q: %w", orig, err)
	}
	if negative {
		v = v.Neg()
	}
	return v, code, nil
}

// timestampLayouts are tried in order. Layouts without a zone are read in IST.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2 Jan 2006, 15:04:05",
	"2 Jan 2006, 15:04",
	"2 Jan 2006 15:04",
	"2 Jan 2006",
	"Jan 2, 2006, 3:04:05 PM",
	"Jan 2, 2006, 3:04 PM",
	"Jan 2, 2006 3:04:05 PM",
	"Jan 2, 2006 3:04 PM",
	"Jan 2, 2006",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2/1/2006 3:04 PM",
	"2/1/2006 03:04:05 PM",
	"2/1/2006",
	"2-1-2006 15:04:05",
	"2-1-2006 15:04",
	"2-1-2006",
	"2-Jan-2006 15:04",
	"2-Jan-2006",
}

// ParseTimestamp accepts ISO-8601 and the day-first locale formats seen in
// UPI exports.
func ParseTimestamp(s string) (time.Time, error) {
	orig := s
	s = normalizeSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	// "IST" is not a zone Go can resolve from an abbreviation.
	s = strings.TrimSuffix(s, " IST")
	s = strings.TrimSuffix(s, " GMT+05:30")
	s = strings.Replace(s, " am", " AM", 1)
	s = strings.Replace(s, " pm", " PM", 1)

	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, IST); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", orig)
}

// ParseDateTime joins a separate date and time component and parses them.
func ParseDateTime(date, clock string) (time.Time, error) {
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)
	if clock == "" {
		return ParseTimestamp(date)
	}
	return ParseTimestamp(date + " " + clock)
}

// normalizeSpace collapses whitespace runs, including the non-breaking and
// em spaces HTML rendering leaves behind.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeSpace is the exported version for use by adapters.
func NormalizeSpace(s string) string {
	return normalizeSpace(s)
}
