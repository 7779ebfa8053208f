package parser

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/insightdelivered/upi-statement-converter/internal/models"
)

// activityTitlePattern matches titles such as "Paid ₹250.00 to Swiggy using
// Bank Account XXXX1234" or "Received ₹1,000.00".
var activityTitlePattern = regexp.MustCompile(
	`(?i)^(paid|sent|received|requested)\s+((?:₹|rs\.?|inr|\$|usd)\s?[\d,]+(?:\.\d+)?)\s*(.*)$`,
)

var (
	counterpartyTo   = regexp.MustCompile(`(?i)^to\s+(.+?)(?:\s+using\s+.*)?$`)
	counterpartyFrom = regexp.MustCompile(`(?i)^from\s+(.+?)(?:\s+using\s+.*)?$`)
)

// ParseActivityHTML reads a "My Activity" style page: one outer cell per
// entry, a body cell holding the title and timestamp lines, and an optional
// caption cell listing products and details. Entries without a readable
// timestamp are skipped.
func ParseActivityHTML(text string) (Result[models.ActivityRecord], error) {
	var res Result[models.ActivityRecord]

	doc, err := html.Parse(strings.NewReader(text))
	if err != nil {
		return res, &SchemaError{Format: "html", Err: err}
	}

	cells := findAllByClass(doc, "outer-cell")
	if len(cells) == 0 {
		// Older pages have no outer wrapper; treat every body cell as an entry.
		cells = findAllByClass(doc, "mdl-typography--body-1")
	}

	for i, cell := range cells {
		res.Rows++
		body := cell
		if hasClass(cell, "outer-cell") {
			body = findBodyCell(cell)
		}
		if body == nil {
			res.warnf("activity %d: no content cell", i)
			continue
		}

		lines := nodeLines(body)
		if len(lines) < 2 {
			res.warnf("activity %d: expected title and timestamp", i)
			continue
		}

		rec := models.ActivityRecord{Title: lines[0]}
		found := false
		var desc []string
		for _, l := range lines[1:] {
			if !found {
				if ts, err := ParseTimestamp(l); err == nil {
					rec.Time = ts
					found = true
					continue
				}
			}
			desc = append(desc, l)
		}
		if !found {
			res.warnf("activity %d: no timestamp in %q", i, strings.Join(lines, " | "))
			continue
		}

		if caption := findCaptionCell(cell); caption != nil {
			products, details := captionSections(nodeLines(caption))
			rec.Products = products
			desc = append(desc, details...)
		}
		rec.Description = strings.Join(desc, "; ")
		rec.Details = ParseActivityTitle(rec.Title)

		res.Data = append(res.Data, rec)
	}

	return res, nil
}

// ParseActivityTitle derives the structured fields from an activity title.
// Titles that do not describe a money movement yield TypeOther without an
// amount.
func ParseActivityTitle(title string) *models.ActivityDetails {
	m := activityTitlePattern.FindStringSubmatch(normalizeSpace(title))
	if m == nil {
		return &models.ActivityDetails{TransactionType: models.TypeOther}
	}

	d := &models.ActivityDetails{}
	switch strings.ToLower(m[1]) {
	case "paid":
		d.TransactionType = models.TypePaid
	case "sent":
		d.TransactionType = models.TypeSent
	case "received":
		d.TransactionType = models.TypeReceived
	default:
		d.TransactionType = models.TypeRequest
	}

	if amount, err := ParseCurrency(m[2]); err == nil {
		d.Amount = &amount
	}

	rest := strings.TrimSpace(m[3])
	if cm := counterpartyTo.FindStringSubmatch(rest); cm != nil {
		d.Recipient = cm[1]
	} else if cm := counterpartyFrom.FindStringSubmatch(rest); cm != nil {
		d.Sender = cm[1]
	}
	return d
}

// captionSections splits "Products:" and "Details:" blocks of a caption.
func captionSections(lines []string) (products, details []string) {
	section := ""
	for _, l := range lines {
		switch strings.ToLower(strings.TrimSuffix(l, ":")) {
		case "products":
			section = "products"
			continue
		case "details":
			section = "details"
			continue
		case "locations", "why is this here?":
			section = ""
			continue
		}
		switch section {
		case "products":
			products = append(products, l)
		case "details":
			details = append(details, l)
		}
	}
	return products, details
}

func findAllByClass(n *html.Node, class string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, class) {
			out = append(out, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

func findBodyCell(outer *html.Node) *html.Node {
	for _, c := range findAllByClass(outer, "content-cell") {
		if c.DataAtom == atom.Div && hasClass(c, "mdl-typography--body-1") && !hasClass(c, "mdl-typography--text-right") {
			return c
		}
	}
	return nil
}

func findCaptionCell(outer *html.Node) *html.Node {
	for _, c := range findAllByClass(outer, "content-cell") {
		if hasClass(c, "mdl-typography--caption") {
			return c
		}
	}
	return nil
}
