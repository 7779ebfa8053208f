package adapter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/insightdelivered/upi-statement-converter/internal/classifier"
	"github.com/insightdelivered/upi-statement-converter/internal/dedupe"
	"github.com/insightdelivered/upi-statement-converter/internal/extractor"
	"github.com/insightdelivered/upi-statement-converter/internal/models"
	"github.com/insightdelivered/upi-statement-converter/internal/parser"
)

// activityNamespace seeds the deterministic ids given to activity entries,
// which carry no identifier of their own.
var activityNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("upi-statement-converter/activity"))

// googlePayLayout is where a Takeout archive keeps each role. The top-level
// directory ("Takeout", "Takeout 2", a localised name) varies and is ignored.
var googlePayLayout = extractor.Layout{
	{
		Role:       models.RoleTransactions,
		Patterns:   []string{"Google transactions/transactions_*.csv", "Google transactions/*.csv"},
		Substrings: []string{"google transactions", ".csv"},
		Format:     models.FormatCSV,
	},
	{
		Role:       models.RoleGroupExpenses,
		Patterns:   []string{"Group expenses/Group expenses.json"},
		Substrings: []string{"group expenses", ".json"},
		Format:     models.FormatJSON,
	},
	{
		Role:       models.RoleCashback,
		Patterns:   []string{"Rewards earned/Cashback rewards.csv"},
		Substrings: []string{"cashback", ".csv"},
		Format:     models.FormatCSV,
	},
	{
		Role:       models.RoleVouchers,
		Patterns:   []string{"Rewards earned/Voucher rewards.json"},
		Substrings: []string{"voucher", ".json"},
		Format:     models.FormatJSON,
	},
	{
		Role:       models.RoleActivity,
		Patterns:   []string{"My Activity/Google Pay/MyActivity.html", "My Activity/Google Pay/My Activity.html"},
		Substrings: []string{"my activity", "google pay", ".html"},
		Format:     models.FormatHTML,
	},
}

var googlePayTransactionColumns = parser.TransactionColumns{
	Time:          "Time",
	ID:            "Transaction ID",
	Description:   "Description",
	Product:       "Product",
	PaymentMethod: "Payment method",
	Status:        "Status",
	Amount:        "Amount",
}

var googlePayCashbackColumns = parser.CashbackColumns{
	Date:        "Date",
	Currency:    "Currency",
	Amount:      "Amount",
	Description: "Description",
}

// googlePayCompleted is the only transaction status kept.
const googlePayCompleted = "completed"

// GooglePay reads Google Takeout exports of Google Pay, either as the whole
// archive or as one of its files uploaded on its own.
type GooglePay struct {
	classifier *classifier.Classifier
}

// NewGooglePay returns a Google Pay adapter classifying with cls.
func NewGooglePay(cls *classifier.Classifier) *GooglePay {
	if cls == nil {
		cls = classifier.Default()
	}
	return &GooglePay{classifier: cls}
}

func (g *GooglePay) App() models.AppID { return models.AppGooglePay }

func (g *GooglePay) Name() string { return "Google Pay" }

// Detect claims archives that carry a Takeout layout entry. An archive that
// cannot be opened is still claimed on its signature so that Extract reports
// it as unreadable rather than unrecognized.
func (g *GooglePay) Detect(upload models.Upload) Detection {
	if extractor.IsArchive(upload.Data) {
		entries, err := extractor.ListEntries(upload.Data)
		if err != nil {
			return match(ConfidenceSniffed)
		}
		for _, e := range entries {
			if _, ok := googlePayLayout.Match(e); ok {
				return match(ConfidenceStrong)
			}
		}
		return noMatch()
	}

	if _, _, ok := sniffGooglePayFile(upload); ok {
		return match(ConfidenceStrong)
	}
	return noMatch()
}

func (g *GooglePay) Extract(_ context.Context, upload models.Upload, _ string) (models.RawPayloads, error) {
	var raw models.RawPayloads

	if extractor.IsArchive(upload.Data) {
		found, err := extractor.ExtractArchive(upload.Name, upload.Data, googlePayLayout)
		if err != nil {
			return raw, err
		}
		for role, text := range found {
			// Blank payloads are dropped by Set; that is the same as absent.
			_ = raw.Set(role, text)
		}
		if raw.Empty() {
			return raw, fmt.Errorf("%s: %w", upload.Name, ErrNoRecognizableData)
		}
		raw.Format = models.FormatArchive
		return raw, nil
	}

	role, format, ok := sniffGooglePayFile(upload)
	if !ok {
		return raw, fmt.Errorf("%s: %w", upload.Name, ErrNoRecognizableData)
	}
	text := string(upload.Data)
	if format == models.FormatJSON {
		text = extractor.StripAntiInjectionPrefix(text)
	}
	if err := raw.Set(role, text); err != nil {
		return raw, fmt.Errorf("%s: %w", upload.Name, ErrNoRecognizableData)
	}
	raw.Format = format
	return raw, nil
}

// Parse reads every role independently. A structurally broken payload costs
// only its own role; Parse fails only when no role could be read.
func (g *GooglePay) Parse(raw models.RawPayloads) (*ParseResult, error) {
	if raw.Empty() {
		return nil, fmt.Errorf("google pay: %w", ErrNoRecognizableData)
	}

	out := &ParseResult{Data: models.NewParsedData()}
	var schemaErrs []error
	parsed := 0

	fail := func(role models.Role, err error) {
		schemaErrs = append(schemaErrs, fmt.Errorf("%s: %w", role, err))
		out.Warnings = append(out.Warnings, models.Warnf(g.App(), role, "payload skipped: %v", err))
	}

	if text := raw.Transactions; text != "" {
		if res, err := parser.ParseTransactionsCSV(text, googlePayTransactionColumns); err != nil {
			fail(models.RoleTransactions, err)
		} else {
			parsed++
			out.Warnings = append(out.Warnings, tagWarnings(g.App(), models.RoleTransactions, res.Warnings)...)
			out.Data.Transactions = g.transactions(res.Data, &out.Warnings)
		}
	}

	if text := raw.GroupExpenses; text != "" {
		if res, err := parser.ParseGroupExpensesJSON(text); err != nil {
			fail(models.RoleGroupExpenses, err)
		} else {
			parsed++
			out.Warnings = append(out.Warnings, tagWarnings(g.App(), models.RoleGroupExpenses, res.Warnings)...)
			for _, ge := range res.Data {
				ge.SourceApp = g.App()
				out.Data.GroupExpenses = append(out.Data.GroupExpenses, ge)
			}
		}
	}

	if text := raw.Cashback; text != "" {
		if res, err := parser.ParseCashbackCSV(text, googlePayCashbackColumns); err != nil {
			fail(models.RoleCashback, err)
		} else {
			parsed++
			out.Warnings = append(out.Warnings, tagWarnings(g.App(), models.RoleCashback, res.Warnings)...)
			for _, cb := range res.Data {
				cb.SourceApp = g.App()
				out.Data.CashbackRewards = append(out.Data.CashbackRewards, cb)
			}
		}
	}

	if text := raw.Vouchers; text != "" {
		if res, err := parser.ParseVouchersJSON(text); err != nil {
			fail(models.RoleVouchers, err)
		} else {
			parsed++
			out.Warnings = append(out.Warnings, tagWarnings(g.App(), models.RoleVouchers, res.Warnings)...)
			for _, v := range res.Data {
				v.SourceApp = g.App()
				out.Data.VoucherRewards = append(out.Data.VoucherRewards, v)
			}
		}
	}

	if text := raw.Activity; text != "" {
		if res, err := parser.ParseActivityHTML(text); err != nil {
			fail(models.RoleActivity, err)
		} else {
			parsed++
			out.Warnings = append(out.Warnings, tagWarnings(g.App(), models.RoleActivity, res.Warnings)...)
			out.Data.Activities = g.activities(res.Data)
		}
	}

	if parsed == 0 {
		return nil, fmt.Errorf("google pay: %w", errors.Join(schemaErrs...))
	}
	out.Data.AddSource(g.App())
	return out, nil
}

func (g *GooglePay) Validate(data *models.ParsedData) bool {
	return DefaultValidate(data)
}

// transactions keeps completed payments only, then drops repeated ids. A
// missing status column is read as completed.
func (g *GooglePay) transactions(rows []models.Transaction, warnings *[]models.Warning) []models.Transaction {
	kept := make([]models.Transaction, 0, len(rows))
	for _, t := range rows {
		if t.Status != "" && !strings.EqualFold(t.Status, googlePayCompleted) {
			*warnings = append(*warnings, models.Warnf(g.App(), models.RoleTransactions,
				"transaction %s skipped: status %q", t.ID, t.Status))
			continue
		}
		t.SourceApp = g.App()
		t.Category = g.classifier.Classify(t.Description)
		kept = append(kept, t)
	}
	return dedupe.ByKey(kept, func(t models.Transaction) string { return t.ID })
}

func (g *GooglePay) activities(rows []models.ActivityRecord) []models.ActivityRecord {
	out := make([]models.ActivityRecord, 0, len(rows))
	for _, a := range rows {
		a.SourceApp = g.App()
		a.ID = activityID(g.App(), a.Title, a.Time)
		if a.Details != nil && a.Details.Amount != nil {
			subject := a.Details.Recipient
			if subject == "" {
				subject = a.Details.Sender
			}
			if subject == "" {
				subject = a.Title
			}
			a.Details.Category = g.classifier.Classify(subject)
		}
		out = append(out, a)
	}
	// The same entry exported twice hashes to the same id.
	return dedupe.ByKey(out, func(a models.ActivityRecord) string { return a.ID })
}

func activityID(app models.AppID, title string, t time.Time) string {
	key := string(app) + "|" + title + "|" + t.UTC().Format(time.RFC3339Nano)
	return uuid.NewSHA1(activityNamespace, []byte(key)).String()
}

// sniffGooglePayFile maps a standalone Takeout file to its role by content.
func sniffGooglePayFile(upload models.Upload) (models.Role, models.PayloadFormat, bool) {
	if extractor.IsPDF(upload.Data) {
		return "", models.FormatUnknown, false
	}
	head := textHead(upload.Data)
	if strings.TrimSpace(head) == "" {
		return "", models.FormatUnknown, false
	}

	body := strings.TrimSpace(extractor.StripAntiInjectionPrefix(strings.TrimPrefix(head, "\ufeff")))
	if extractor.HasAntiInjectionPrefix(head) || strings.HasPrefix(body, "{") || strings.HasPrefix(body, "[") {
		switch {
		case containsFold(body, "group_expenses") || containsAll(body, "group_name", "creation_time"):
			return models.RoleGroupExpenses, models.FormatJSON, true
		case containsFold(body, `"vouchers"`) || containsAll(body, "expiry_date", "code"):
			return models.RoleVouchers, models.FormatJSON, true
		}
		return "", models.FormatUnknown, false
	}

	if strings.HasPrefix(body, "<") {
		if containsAll(head, "outer-cell", "content-cell") && containsFold(head, "google pay") {
			return models.RoleActivity, models.FormatHTML, true
		}
		return "", models.FormatUnknown, false
	}

	header := strings.ToLower(firstLine(head))
	switch {
	case containsAll(header, "transaction id", "payment method", "amount"):
		return models.RoleTransactions, models.FormatCSV, true
	case containsAll(header, "date", "currency", "amount", "description"):
		return models.RoleCashback, models.FormatCSV, true
	}
	return "", models.FormatUnknown, false
}
