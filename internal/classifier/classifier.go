// Package classifier maps free-text transaction descriptions to spending
// categories using an ordered keyword table.
package classifier

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/insightdelivered/upi-statement-converter/internal/models"
)

// Rule lists the keywords that select a category.
type Rule struct {
	Category models.Category
	Keywords []string
}

// Classifier is safe for concurrent use; it never changes after New.
type Classifier struct {
	rules    []Rule
	fallback models.Category
}

// shortKeyword is the longest keyword that must match a whole word. Longer
// keywords may run on, so "swiggy" still matches "swiggylimited".
const shortKeyword = 3

// New builds a classifier over rules. Rules are tried in order and the first
// one with a keyword found in the description wins. A keyword must start a
// word of the description; short ones must be the whole word, so "ola" does
// not match "coca-cola" and "emi" does not match "premium". Keywords are
// lower-cased here so Classify only lower-cases the description.
func New(rules []Rule, fallback models.Category) *Classifier {
	if fallback == "" {
		fallback = models.CategoryOthers
	}
	c := &Classifier{rules: make([]Rule, 0, len(rules)), fallback: fallback}
	for _, r := range rules {
		kws := make([]string, 0, len(r.Keywords))
		for _, k := range r.Keywords {
			k = strings.ToLower(strings.TrimSpace(k))
			if k != "" {
				kws = append(kws, k)
			}
		}
		c.rules = append(c.rules, Rule{Category: r.Category, Keywords: kws})
	}
	return c
}

// Default returns a classifier over DefaultTable.
func Default() *Classifier {
	return New(DefaultTable(), models.CategoryOthers)
}

// Classify returns the category for a description.
func (c *Classifier) Classify(description string) models.Category {
	desc := strings.ToLower(description)
	if strings.TrimSpace(desc) == "" {
		return c.fallback
	}
	for _, r := range c.rules {
		for _, k := range r.Keywords {
			if containsKeyword(desc, k) {
				return r.Category
			}
		}
	}
	return c.fallback
}

func containsKeyword(desc, k string) bool {
	whole := utf8.RuneCountInString(k) <= shortKeyword
	for from := 0; from < len(desc); {
		i := strings.Index(desc[from:], k)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(k)
		if wordEdge(desc[:start], true) && (!whole || wordEdge(desc[end:], false)) {
			return true
		}
		_, size := utf8.DecodeRuneInString(desc[start:])
		from = start + size
	}
	return false
}

// wordEdge reports whether s ends (before) or starts (after) outside a word.
func wordEdge(s string, before bool) bool {
	if s == "" {
		return true
	}
	var r rune
	if before {
		r, _ = utf8.DecodeLastRuneInString(s)
	} else {
		r, _ = utf8.DecodeRuneInString(s)
	}
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// Rules returns a copy of the table in precedence order.
func (c *Classifier) Rules() []Rule {
	out := make([]Rule, len(c.rules))
	for i, r := range c.rules {
		out[i] = Rule{Category: r.Category, Keywords: append([]string(nil), r.Keywords...)}
	}
	return out
}

// DefaultTable is the built-in keyword table.
func DefaultTable() []Rule {
	return []Rule{
		{models.CategoryFood, []string{
			"swiggy", "zomato", "restaurant", "cafe", "dominos", "domino's", "pizza",
			"mcdonald", "kfc", "burger", "starbucks", "chaayos", "eatsure", "food",
		}},
		{models.CategoryGroceries, []string{
			"bigbasket", "blinkit", "grofers", "zepto", "dmart", "jiomart",
			"instamart", "kirana", "grocery", "supermarket", "milk",
		}},
		{models.CategoryShopping, []string{
			"amazon", "flipkart", "myntra", "ajio", "meesho", "nykaa", "tata cliq",
			"decathlon", "reliance digital", "croma", "shopping", "store",
		}},
		{models.CategoryTravel, []string{
			"uber", "ola", "olacabs", "rapido", "irctc", "redbus", "makemytrip", "goibibo",
			"indigo", "air india", "vistara", "metro", "fastag", "petrol", "fuel",
			"indian oil", "bharat petroleum", "hpcl",
		}},
		{models.CategoryBills, []string{
			"electricity", "bescom", "tata power", "adani", "water bill", "gas",
			"broadband", "airtel", "jio", "vodafone", "vi recharge", "recharge",
			"dth", "tata play", "insurance", "lic", "rent", "emi", "bill",
		}},
		{models.CategoryEntertainment, []string{
			"netflix", "hotstar", "prime video", "spotify", "youtube", "bookmyshow",
			"pvr", "inox", "steam", "playstation", "gaana", "movie",
		}},
		{models.CategoryHealth, []string{
			"pharmacy", "apollo", "medplus", "1mg", "pharmeasy", "netmeds",
			"hospital", "clinic", "diagnostic", "practo", "cult.fit", "gym",
		}},
		{models.CategoryTransfers, []string{
			"sent to", "transfer", "self", "upi lite", "wallet", "paytm", "phonepe",
		}},
	}
}
