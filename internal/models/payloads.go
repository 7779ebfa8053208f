package models

import (
	"fmt"
	"strings"
)

// Role is the logical kind of content a raw payload carries, independent of
// its physical file format.
type Role string

const (
	RoleTransactions  Role = "transactions"
	RoleGroupExpenses Role = "group_expenses"
	RoleCashback      Role = "cashback"
	RoleVouchers      Role = "vouchers"
	RoleActivity      Role = "activity"
)

// Roles lists every role in extraction order.
var Roles = []Role{RoleTransactions, RoleGroupExpenses, RoleCashback, RoleVouchers, RoleActivity}

// PayloadFormat hints how a payload was encoded when the adapter cannot tell
// from content alone.
type PayloadFormat string

const (
	FormatUnknown PayloadFormat = ""
	FormatArchive PayloadFormat = "zip"
	FormatCSV     PayloadFormat = "csv"
	FormatJSON    PayloadFormat = "json"
	FormatHTML    PayloadFormat = "html"
	FormatPDFText PayloadFormat = "pdf-text"
)

// RawPayloads holds the raw text of one app's export, one optional field per
// role. It is owned by the orchestrator until parsed.
type RawPayloads struct {
	Transactions  string        `json:"transactions,omitempty"`
	GroupExpenses string        `json:"groupExpenses,omitempty"`
	Cashback      string        `json:"cashback,omitempty"`
	Vouchers      string        `json:"vouchers,omitempty"`
	Activity      string        `json:"activity,omitempty"`
	Format        PayloadFormat `json:"format,omitempty"`
}

// Set stores text for a role. Unknown roles and blank text are rejected so
// downstream parsers never see them.
func (r *RawPayloads) Set(role Role, text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("empty payload for role %q", role)
	}
	switch role {
	case RoleTransactions:
		r.Transactions = text
	case RoleGroupExpenses:
		r.GroupExpenses = text
	case RoleCashback:
		r.Cashback = text
	case RoleVouchers:
		r.Vouchers = text
	case RoleActivity:
		r.Activity = text
	default:
		return fmt.Errorf("unknown payload role %q", role)
	}
	return nil
}

// Get returns the text for a role, or "" when absent.
func (r RawPayloads) Get(role Role) string {
	switch role {
	case RoleTransactions:
		return r.Transactions
	case RoleGroupExpenses:
		return r.GroupExpenses
	case RoleCashback:
		return r.Cashback
	case RoleVouchers:
		return r.Vouchers
	case RoleActivity:
		return r.Activity
	}
	return ""
}

// Has reports whether a role is present.
func (r RawPayloads) Has(role Role) bool {
	return r.Get(role) != ""
}

// Present lists the roles that carry content.
func (r RawPayloads) Present() []Role {
	var out []Role
	for _, role := range Roles {
		if r.Has(role) {
			out = append(out, role)
		}
	}
	return out
}

// Empty reports whether no role carries content.
func (r RawPayloads) Empty() bool {
	return len(r.Present()) == 0
}

// Merge copies the roles present in other over r. Format is taken from other
// when set.
func (r *RawPayloads) Merge(other RawPayloads) {
	for _, role := range other.Present() {
		_ = r.Set(role, other.Get(role))
	}
	if other.Format != FormatUnknown {
		r.Format = other.Format
	}
}

// Upload is one user-supplied file read into memory.
type Upload struct {
	Name string
	Data []byte
}
