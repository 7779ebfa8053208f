// Package filter narrows a dataset by calendar year and source app. Filters
// never modify their input; every call returns fresh collections.
package filter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/insightdelivered/upi-statement-converter/internal/models"
	"github.com/insightdelivered/upi-statement-converter/internal/parser"
)

// ErrInvalidYear is returned for a year filter that is neither "all" nor a
// number between 1 and 9999.
var ErrInvalidYear = errors.New("invalid year")

// Query selects a view of a dataset. Empty fields mean "all".
type Query struct {
	Year string   `json:"year,omitempty"`
	Apps []string `json:"apps,omitempty"`
}

// Apply runs the year filter, then the app filter.
func Apply(data *models.ParsedData, q Query) (*models.ParsedData, error) {
	byYear, err := ByYear(data, q.Year)
	if err != nil {
		return nil, err
	}
	return ByApps(byYear, q.Apps), nil
}

// ParseYear reads a year filter value. ok is false for the "all" sentinel
// and for an empty value.
func ParseYear(year string) (y int, ok bool, err error) {
	year = strings.TrimSpace(year)
	if year == "" || strings.EqualFold(year, models.AllSentinel) {
		return 0, false, nil
	}
	y, err = strconv.Atoi(year)
	if err != nil || y < 1 || y > 9999 {
		return 0, false, fmt.Errorf("%w %q", ErrInvalidYear, year)
	}
	return y, true, nil
}

// ByYear keeps the records whose date falls in year on the Indian calendar,
// whatever zone the source wrote the timestamp in. Each collection uses its
// own date: transaction and activity time, group expense creation, cashback
// date and voucher expiry.
func ByYear(data *models.ParsedData, year string) (*models.ParsedData, error) {
	y, ok, err := ParseYear(year)
	if err != nil {
		return nil, err
	}
	if !ok || data == nil {
		return clone(data), nil
	}

	in := func(t time.Time) bool { return t.In(parser.IST).Year() == y }
	out := models.NewParsedData()
	out.Sources = append(out.Sources, data.Sources...)
	out.Transactions = keep(data.Transactions, func(t models.Transaction) bool { return in(t.Time) })
	out.GroupExpenses = keep(data.GroupExpenses, func(g models.GroupExpense) bool { return in(g.CreationTime) })
	out.CashbackRewards = keep(data.CashbackRewards, func(c models.CashbackReward) bool { return in(c.Date) })
	out.VoucherRewards = keep(data.VoucherRewards, func(v models.Voucher) bool { return in(v.ExpiryDate) })
	out.Activities = keep(data.Activities, func(a models.ActivityRecord) bool { return in(a.Time) })
	return out, nil
}

// ByApps keeps the records whose source app is listed. An empty list or one
// containing "all" keeps everything. Sources is narrowed the same way.
func ByApps(data *models.ParsedData, apps []string) *models.ParsedData {
	want := make(map[models.AppID]bool, len(apps))
	for _, a := range apps {
		a = strings.ToLower(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		if a == models.AllSentinel {
			return clone(data)
		}
		want[models.AppID(a)] = true
	}
	if len(want) == 0 || data == nil {
		return clone(data)
	}

	out := models.NewParsedData()
	out.Sources = keep(data.Sources, func(s models.AppID) bool { return want[s] })
	out.Transactions = keep(data.Transactions, func(t models.Transaction) bool { return want[t.SourceApp] })
	out.GroupExpenses = keep(data.GroupExpenses, func(g models.GroupExpense) bool { return want[g.SourceApp] })
	out.CashbackRewards = keep(data.CashbackRewards, func(c models.CashbackReward) bool { return want[c.SourceApp] })
	out.VoucherRewards = keep(data.VoucherRewards, func(v models.Voucher) bool { return want[v.SourceApp] })
	out.Activities = keep(data.Activities, func(a models.ActivityRecord) bool { return want[a.SourceApp] })
	return out
}

// SplitApps turns "googlepay,bhim" into its parts.
func SplitApps(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func keep[T any](in []T, pred func(T) bool) []T {
	out := make([]T, 0, len(in))
	for _, v := range in {
		if pred(v) {
			out = append(out, v)
		}
	}
	return out
}

func clone(data *models.ParsedData) *models.ParsedData {
	out := models.NewParsedData()
	out.Append(data)
	return out
}
