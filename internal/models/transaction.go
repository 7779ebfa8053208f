package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AppID identifies the UPI app an export was produced by.
type AppID string

const (
	AppGooglePay AppID = "googlepay"
	AppBHIM      AppID = "bhim"
	AppPhonePe   AppID = "phonepe"
)

// AllSentinel is the filter value meaning "do not filter".
const AllSentinel = "all"

// CurrencyCode is an ISO currency code found in exports.
type CurrencyCode string

const (
	INR CurrencyCode = "INR"
	USD CurrencyCode = "USD"
)

// DefaultUSDToINR is the fixed approximate rate used when none is configured.
var DefaultUSDToINR = decimal.NewFromInt(83)

// Currency is a monetary amount. Value is non-negative for spend records.
type Currency struct {
	Value    decimal.Decimal `json:"value"`
	Currency CurrencyCode    `json:"currency"`
}

// NewINR is a shorthand used by parsers and tests.
func NewINR(v decimal.Decimal) Currency {
	return Currency{Value: v, Currency: INR}
}

// InINR converts the amount to rupees using a fixed rate.
func (c Currency) InINR(usdToINR decimal.Decimal) decimal.Decimal {
	if c.Currency == USD {
		return c.Value.Mul(usdToINR)
	}
	return c.Value
}

// Category is a spending bucket assigned by the classifier.
type Category string

const (
	CategoryFood          Category = "Food"
	CategoryGroceries     Category = "Groceries"
	CategoryShopping      Category = "Shopping"
	CategoryTravel        Category = "Travel"
	CategoryBills         Category = "Bills"
	CategoryEntertainment Category = "Entertainment"
	CategoryHealth        Category = "Health"
	CategoryTransfers     Category = "Transfers"
	CategoryOthers        Category = "Others"
)

// Transaction is a single completed payment.
type Transaction struct {
	Time          time.Time `json:"time"`
	ID            string    `json:"id"`
	Description   string    `json:"description"`
	Product       string    `json:"product,omitempty"`
	PaymentMethod string    `json:"paymentMethod,omitempty"`
	Status        string    `json:"status"`
	Amount        Currency  `json:"amount"`
	Category      Category  `json:"category,omitempty"`
	SourceApp     AppID     `json:"sourceApp"`
}
