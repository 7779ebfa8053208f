package models

import (
	"fmt"
	"strings"
)

// ParsedData is the unified dataset handed to analytics and presentation.
type ParsedData struct {
	Transactions    []Transaction    `json:"transactions"`
	GroupExpenses   []GroupExpense   `json:"groupExpenses"`
	CashbackRewards []CashbackReward `json:"cashbackRewards"`
	VoucherRewards  []Voucher        `json:"voucherRewards"`
	Activities      []ActivityRecord `json:"activities"`
	Sources         []AppID          `json:"sources"`
}

// NewParsedData returns a dataset whose collections marshal as [] not null.
func NewParsedData() *ParsedData {
	return &ParsedData{
		Transactions:    []Transaction{},
		GroupExpenses:   []GroupExpense{},
		CashbackRewards: []CashbackReward{},
		VoucherRewards:  []Voucher{},
		Activities:      []ActivityRecord{},
		Sources:         []AppID{},
	}
}

// AddSource records a contributing app once.
func (d *ParsedData) AddSource(app AppID) {
	for _, s := range d.Sources {
		if s == app {
			return
		}
	}
	d.Sources = append(d.Sources, app)
}

// HasSource reports whether app contributed to the dataset.
func (d *ParsedData) HasSource(app AppID) bool {
	for _, s := range d.Sources {
		if s == app {
			return true
		}
	}
	return false
}

// Append folds a partial result into d. Existing entries are never touched.
func (d *ParsedData) Append(other *ParsedData) {
	if other == nil {
		return
	}
	d.Transactions = append(d.Transactions, other.Transactions...)
	d.GroupExpenses = append(d.GroupExpenses, other.GroupExpenses...)
	d.CashbackRewards = append(d.CashbackRewards, other.CashbackRewards...)
	d.VoucherRewards = append(d.VoucherRewards, other.VoucherRewards...)
	d.Activities = append(d.Activities, other.Activities...)
	for _, s := range other.Sources {
		d.AddSource(s)
	}
}

// Warning is a non-fatal diagnostic produced while parsing.
type Warning struct {
	App     AppID  `json:"app,omitempty"`
	Role    Role   `json:"role,omitempty"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	var b strings.Builder
	if w.App != "" {
		b.WriteString(string(w.App))
		b.WriteString(": ")
	}
	if w.Role != "" {
		b.WriteString(string(w.Role))
		b.WriteString(": ")
	}
	b.WriteString(w.Message)
	return b.String()
}

// Warnf builds a Warning with a formatted message.
func Warnf(app AppID, role Role, format string, args ...interface{}) Warning {
	return Warning{App: app, Role: role, Message: fmt.Sprintf(format, args...)}
}
