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

// BHIM exports come in two variants:
//
//   - structured: the page carries <UPITransactions> XML in a script
//     variable, one <Transaction .../> element per payment with the data in
//     attributes, under a "BHIM" banner.
//   - legacy: a single HTML table with fixed columns
//     Date | Time | Payment ID | Bank Name | Name | Pay/Collect | DR/CR | Amount | Status
//
// A page can carry both. The structured variant is richer and always wins.
const (
	bhimXMLRoot    = "UPITransactions"
	bhimXMLElement = "Transaction"
	bhimBanner     = "BHIM"
)

var bhimLegacyMarkers = []string{"Bank Name", "Payment ID", "Pay/Collect", "DR/CR"}

// Legacy table column positions.
const (
	bhimColDate = iota
	bhimColTime
	bhimColPaymentID
	bhimColBank
	bhimColName
	bhimColPayCollect
	bhimColDirection
	bhimColAmount
	bhimColStatus
	bhimColumns
)

type bhimVariant int

const (
	bhimUnknown bhimVariant = iota
	bhimStructured
	bhimLegacy
)

// BHIM reads the HTML transaction history exported by the BHIM app.
type BHIM struct {
	classifier *classifier.Classifier
}

// NewBHIM returns a BHIM adapter classifying with cls.
func NewBHIM(cls *classifier.Classifier) *BHIM {
	if cls == nil {
		cls = classifier.Default()
	}
	return &BHIM{classifier: cls}
}

func (b *BHIM) App() models.AppID { return models.AppBHIM }

func (b *BHIM) Name() string { return "BHIM" }

func (b *BHIM) Detect(upload models.Upload) Detection {
	if extractor.IsArchive(upload.Data) || extractor.IsPDF(upload.Data) {
		return noMatch()
	}
	switch bhimDetectVariant(textHead(upload.Data)) {
	case bhimStructured:
		return match(ConfidenceStrong)
	case bhimLegacy:
		return match(ConfidenceLegacy)
	}
	return noMatch()
}

func (b *BHIM) Extract(_ context.Context, upload models.Upload, _ string) (models.RawPayloads, error) {
	var raw models.RawPayloads
	text := string(upload.Data)
	if bhimDetectVariant(text) == bhimUnknown {
		return raw, fmt.Errorf("%s: %w", upload.Name, ErrNoRecognizableData)
	}
	if err := raw.Set(models.RoleTransactions, text); err != nil {
		return raw, fmt.Errorf("%s: %w", upload.Name, ErrNoRecognizableData)
	}
	raw.Format = models.FormatHTML
	return raw, nil
}

// Parse keeps successful debits only. Credits and pending or failed payments
// are not spend and are dropped without a warning.
func (b *BHIM) Parse(raw models.RawPayloads) (*ParseResult, error) {
	text := raw.Transactions
	if text == "" {
		return nil, fmt.Errorf("bhim: %w", ErrNoRecognizableData)
	}

	var (
		txns     []models.Transaction
		warnings []models.Warning
		err      error
	)
	switch bhimParseVariant(text) {
	case bhimStructured:
		txns, warnings, err = b.parseStructured(text)
	case bhimLegacy:
		txns, warnings, err = b.parseLegacy(text)
	default:
		return nil, fmt.Errorf("bhim: %w", ErrNoRecognizableData)
	}
	if err != nil {
		return nil, fmt.Errorf("bhim: %w", err)
	}

	out := &ParseResult{Data: models.NewParsedData(), Warnings: warnings}
	for i := range txns {
		txns[i].SourceApp = b.App()
		txns[i].Category = b.classifier.Classify(txns[i].Description)
	}
	out.Data.Transactions = dedupe.ByKey(txns, func(t models.Transaction) string { return t.ID })
	out.Data.AddSource(b.App())
	return out, nil
}

func (b *BHIM) Validate(data *models.ParsedData) bool {
	return DefaultValidate(data)
}

func (b *BHIM) parseStructured(text string) ([]models.Transaction, []models.Warning, error) {
	elems, err := parser.ParseEmbeddedXML(text, bhimXMLRoot, bhimXMLElement)
	if err != nil {
		return nil, nil, err
	}

	var (
		txns     []models.Transaction
		warnings []models.Warning
	)
	for i, el := range elems {
		if !bhimIsDebit(el.Attr("drCr", "type", "txnType")) || !bhimIsSuccess(el.Attr("status", "txnStatus")) {
			continue
		}
		txn, err := bhimStructuredTransaction(el)
		if err != nil {
			warnings = append(warnings, models.Warnf(b.App(), models.RoleTransactions, "transaction %d: %v", i, err))
			continue
		}
		txns = append(txns, txn)
	}
	return txns, warnings, nil
}

func bhimStructuredTransaction(el parser.Element) (models.Transaction, error) {
	id, err := el.MustAttr("paymentId", "txnId", "transactionId", "rrn")
	if err != nil {
		return models.Transaction{}, err
	}
	date, err := el.MustAttr("date", "txnDate")
	if err != nil {
		return models.Transaction{}, err
	}
	ts, err := parser.ParseDateTime(date, el.Attr("time", "txnTime"))
	if err != nil {
		return models.Transaction{}, err
	}
	rawAmount, err := el.MustAttr("amount", "txnAmount")
	if err != nil {
		return models.Transaction{}, err
	}
	amount, err := parser.ParseCurrency(rawAmount)
	if err != nil {
		return models.Transaction{}, err
	}

	return models.Transaction{
		Time:          ts,
		ID:            id,
		Description:   el.Attr("payeeName", "name", "remarks", "payeeVpa"),
		Product:       bhimProduct(el.Attr("payCollect", "mode")),
		PaymentMethod: el.Attr("bankName", "bank"),
		Status:        strings.ToUpper(el.Attr("status", "txnStatus")),
		Amount:        amount,
	}, nil
}

type bhimLegacyRow struct {
	txn       models.Transaction
	direction string
}

func (b *BHIM) parseLegacy(text string) ([]models.Transaction, []models.Warning, error) {
	res, err := parser.ParseTable(text, bhimColumns, func(cells []string) (bhimLegacyRow, error) {
		row := bhimLegacyRow{direction: cells[bhimColDirection]}
		row.txn.Status = strings.ToUpper(cells[bhimColStatus])
		if !bhimIsDebit(row.direction) || !bhimIsSuccess(row.txn.Status) {
			// Filtered below; no need to decode.
			return row, nil
		}

		id := cells[bhimColPaymentID]
		if id == "" {
			return row, errors.New("missing payment id")
		}
		ts, err := parser.ParseDateTime(cells[bhimColDate], cells[bhimColTime])
		if err != nil {
			return row, err
		}
		amount, err := parser.ParseCurrency(cells[bhimColAmount])
		if err != nil {
			return row, err
		}

		row.txn.Time = ts
		row.txn.ID = id
		row.txn.Description = cells[bhimColName]
		row.txn.Product = bhimProduct(cells[bhimColPayCollect])
		row.txn.PaymentMethod = cells[bhimColBank]
		row.txn.Amount = amount
		return row, nil
	})
	if err != nil {
		return nil, nil, err
	}

	txns := make([]models.Transaction, 0, len(res.Data))
	for _, row := range res.Data {
		if bhimIsDebit(row.direction) && bhimIsSuccess(row.txn.Status) {
			txns = append(txns, row.txn)
		}
	}
	return txns, tagWarnings(b.App(), models.RoleTransactions, res.Warnings), nil
}

// bhimDetectVariant looks at marker strings only.
func bhimDetectVariant(text string) bhimVariant {
	if containsFold(text, bhimXMLRoot) && strings.Contains(text, bhimBanner) {
		return bhimStructured
	}
	if containsAll(text, bhimLegacyMarkers...) {
		return bhimLegacy
	}
	return bhimUnknown
}

// bhimParseVariant prefers an actual XML document over the banner check so a
// structured page with an unusual banner still parses as structured.
func bhimParseVariant(text string) bhimVariant {
	if _, ok := parser.EmbeddedXML(text, bhimXMLRoot); ok {
		return bhimStructured
	}
	return bhimDetectVariant(text)
}

func bhimIsDebit(s string) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DR", "DEBIT", "D":
		return true
	}
	return false
}

func bhimIsSuccess(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), "SUCCESS")
}

func bhimProduct(payCollect string) string {
	if payCollect == "" {
		return "UPI"
	}
	return "UPI " + strings.ToUpper(payCollect)
}
