package adapter

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/insightdelivered/upi-statement-converter/internal/classifier"
	"github.com/insightdelivered/upi-statement-converter/internal/dedupe"
	"github.com/insightdelivered/upi-statement-converter/internal/extractor"
	"github.com/insightdelivered/upi-statement-converter/internal/models"
	"github.com/insightdelivered/upi-statement-converter/internal/parser"
)

// phonePeMarker appears in the header and footer of every statement page.
const phonePeMarker = "phonepe"

// pageBreak separates pages inside the single text payload.
const pageBreak = "\f"

// PhonePe reads the PDF transaction statement PhonePe e-mails on request.
// Statements are usually protected with a password the user chose when
// requesting them.
type PhonePe struct {
	classifier *classifier.Classifier
}

// NewPhonePe returns a PhonePe adapter classifying with cls.
func NewPhonePe(cls *classifier.Classifier) *PhonePe {
	if cls == nil {
		cls = classifier.Default()
	}
	return &PhonePe{classifier: cls}
}

func (p *PhonePe) App() models.AppID { return models.AppPhonePe }

func (p *PhonePe) Name() string { return "PhonePe" }

// Detect cannot look inside an encrypted statement, so any encrypted PDF is
// a low-confidence match that asks for a password. The missing secret is
// only reported as an error by Extract. A PDF that cannot be read at all is
// claimed the same way, so Extract reports it as unreadable.
func (p *PhonePe) Detect(upload models.Upload) Detection {
	if !extractor.IsPDF(upload.Data) {
		return noMatch()
	}
	if extractor.IsEncryptedPDF(upload.Data) {
		return Detection{CanHandle: true, Confidence: ConfidenceSniffed, RequiresPassword: true}
	}
	pages, err := extractor.ExtractPDFText(upload.Name, upload.Data, "")
	if errors.Is(err, extractor.ErrContainerUnreadable) {
		return match(ConfidenceSniffed)
	}
	if err != nil {
		return noMatch()
	}
	if containsFold(strings.Join(pages, "\n"), phonePeMarker) {
		return match(ConfidenceStrong)
	}
	return noMatch()
}

func (p *PhonePe) Extract(ctx context.Context, upload models.Upload, secret string) (models.RawPayloads, error) {
	var raw models.RawPayloads
	if err := ctx.Err(); err != nil {
		return raw, err
	}

	pages, err := extractor.ExtractPDFTextFunc(upload.Name, upload.Data, secret, countStatementEntries)
	if err != nil {
		return raw, err
	}
	text := strings.Join(pages, pageBreak)
	if !containsFold(text, phonePeMarker) {
		return raw, fmt.Errorf("%s: %w", upload.Name, ErrNoRecognizableData)
	}
	if err := raw.Set(models.RoleTransactions, text); err != nil {
		return raw, fmt.Errorf("%s: %w", upload.Name, ErrNoRecognizableData)
	}
	raw.Format = models.FormatPDFText
	return raw, nil
}

// Parse turns debits into transactions and credits into received
// activities. Statements list settled payments only.
func (p *PhonePe) Parse(raw models.RawPayloads) (*ParseResult, error) {
	text := raw.Transactions
	if text == "" {
		return nil, fmt.Errorf("phonepe: %w", ErrNoRecognizableData)
	}

	pages := strings.Split(text, pageBreak)
	res := parser.ParseStatementText(pages)
	warnings := res.Warnings
	if res.Rows == 0 {
		warnings = append(warnings, models.Warning{
			Message: fmt.Sprintf("no statement entries found in %d page(s)", len(pages)),
		})
	}
	out := &ParseResult{
		Data:     models.NewParsedData(),
		Warnings: tagWarnings(p.App(), models.RoleTransactions, warnings),
	}

	var (
		txns       []models.Transaction
		activities []models.ActivityRecord
	)
	for _, e := range res.Data {
		id := e.TransactionID
		if id == "" {
			id = e.UTR
		}
		switch e.Direction {
		case "DEBIT":
			txns = append(txns, models.Transaction{
				Time:          e.Time,
				ID:            id,
				Description:   e.Details,
				Product:       p.Name(),
				PaymentMethod: e.Account,
				Status:        "SUCCESS",
				Amount:        e.Amount,
				Category:      p.classifier.Classify(e.Details),
				SourceApp:     p.App(),
			})
		case "CREDIT":
			amount := e.Amount
			activities = append(activities, models.ActivityRecord{
				ID:          id,
				Title:       e.Details,
				Time:        e.Time,
				Description: e.Account,
				Products:    []string{p.Name()},
				Details: &models.ActivityDetails{
					TransactionType: models.TypeReceived,
					Amount:          &amount,
					Sender:          phonePeCounterparty(e.Details),
				},
				SourceApp: p.App(),
			})
		}
	}

	out.Data.Transactions = dedupe.ByKey(txns, func(t models.Transaction) string { return t.ID })
	out.Data.Activities = dedupe.ByKey(activities, func(a models.ActivityRecord) string { return a.ID })
	out.Data.AddSource(p.App())
	return out, nil
}

func (p *PhonePe) Validate(data *models.ParsedData) bool {
	return DefaultValidate(data)
}

// countStatementEntries ranks text layouts. One that folds the statement
// into a single row yields no usable entries.
func countStatementEntries(pages []string) int {
	return len(parser.ParseStatementText(pages).Data)
}

func phonePeCounterparty(details string) string {
	for _, prefix := range []string{"Received from ", "Paid to ", "Refund from "} {
		if len(details) > len(prefix) && strings.EqualFold(details[:len(prefix)], prefix) {
			return strings.TrimSpace(details[len(prefix):])
		}
	}
	return details
}
