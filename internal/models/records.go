package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// GroupExpenseState is the lifecycle state of a shared bill.
type GroupExpenseState string

const (
	GroupExpenseOngoing   GroupExpenseState = "ONGOING"
	GroupExpenseCompleted GroupExpenseState = "COMPLETED"
	GroupExpenseClosed    GroupExpenseState = "CLOSED"
)

// ItemState tells whether a participant has settled their share.
type ItemState string

const (
	ItemPaidReceived ItemState = "PAID_RECEIVED"
	ItemUnpaid       ItemState = "UNPAID"
)

// GroupExpenseItem is one participant's share of a group expense.
type GroupExpenseItem struct {
	Amount Currency  `json:"amount"`
	State  ItemState `json:"state"`
	Payer  string    `json:"payer"`
}

// GroupExpense is a shared-bill record.
type GroupExpense struct {
	CreationTime time.Time          `json:"creationTime"`
	Creator      string             `json:"creator"`
	GroupName    string             `json:"groupName"`
	TotalAmount  Currency           `json:"totalAmount"`
	State        GroupExpenseState  `json:"state"`
	Title        string             `json:"title"`
	Items        []GroupExpenseItem `json:"items"`
	SourceApp    AppID              `json:"sourceApp"`
}

// ItemsTotal sums the item amounts. It should be close to TotalAmount but
// exports do not guarantee it.
func (g GroupExpense) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range g.Items {
		total = total.Add(it.Amount.Value)
	}
	return total
}

// CashbackReward is a standalone reward credit.
type CashbackReward struct {
	Date        time.Time       `json:"date"`
	Currency    CurrencyCode    `json:"currency"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	SourceApp   AppID           `json:"sourceApp"`
}

// Voucher is a reward voucher. Only its expiry date matters for filtering.
type Voucher struct {
	Code       string    `json:"code"`
	Details    string    `json:"details"`
	Summary    string    `json:"summary"`
	ExpiryDate time.Time `json:"expiryDate"`
	SourceApp  AppID     `json:"sourceApp"`
}

// TransactionType is the kind of money movement an activity describes.
type TransactionType string

const (
	TypeSent     TransactionType = "sent"
	TypeReceived TransactionType = "received"
	TypePaid     TransactionType = "paid"
	TypeRequest  TransactionType = "request"
	TypeOther    TransactionType = "other"
)

// ActivityDetails holds the structured part of an activity log entry.
type ActivityDetails struct {
	TransactionType TransactionType `json:"transactionType"`
	Amount          *Currency       `json:"amount,omitempty"`
	Recipient       string          `json:"recipient,omitempty"`
	Sender          string          `json:"sender,omitempty"`
	Category        Category        `json:"category,omitempty"`
}

// ActivityRecord is an app activity log entry. It is not necessarily a
// completed payment.
type ActivityRecord struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Time        time.Time        `json:"time"`
	Description string           `json:"description,omitempty"`
	Products    []string         `json:"products,omitempty"`
	Details     *ActivityDetails `json:"details,omitempty"`
	SourceApp   AppID            `json:"sourceApp"`
}

// IsSpend reports whether the record counts towards spend aggregations.
func (a ActivityRecord) IsSpend() bool {
	if a.Details == nil || a.Details.Amount == nil {
		return false
	}
	switch a.Details.TransactionType {
	case TypeSent, TypePaid:
		return true
	}
	return false
}
