package extraction

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/Veraticus/subscout/internal/model"
)

const maxMerchantRunes = 30

const amountPattern = `(\d{1,3}(?:[,.]\d{3})+(?:[.,]\d{1,2})?|\d+(?:[.,]\d{1,2})?)`

const currencyCodes = `USD|EUR|GBP|CAD|AUD|INR|JPY|CHF`

// amountMatcher pairs a regex with the submatch indexes of its amount and currency.
type amountMatcher struct {
	re       *regexp.Regexp
	amount   int
	currency int
}

// Currency-first forms. A number followed by a currency is only read when
// none of these match, so order and invoice numbers in front of a price are
// not mistaken for it.
var prefixedMatchers = []amountMatcher{
	{re: regexp.MustCompile(`([$€£])\s*` + amountPattern), currency: 1, amount: 2},
	{re: regexp.MustCompile(`(?i)\b(` + currencyCodes + `)\s*` + amountPattern), currency: 1, amount: 2},
}

var suffixedMatchers = []amountMatcher{
	{re: regexp.MustCompile(amountPattern + `\s*([$€£])`), amount: 1, currency: 2},
	{re: regexp.MustCompile(`(?i)` + amountPattern + `\s*(` + currencyCodes + `)\b`), amount: 1, currency: 2},
}

var yearlyPattern = regexp.MustCompile(`(?i)\b(annual|annually|yearly|per year)\b|/\s?(yr|year)\b`)

var symbolCurrencies = map[string]string{
	"$": "USD",
	"€": "EUR",
	"£": "GBP",
}

// HeuristicStage extracts fields with regular expressions. It never rejects:
// a message that passed the keyword gate is treated as a subscription.
type HeuristicStage struct{}

// NewHeuristicStage creates the fallback stage.
func NewHeuristicStage() *HeuristicStage {
	return &HeuristicStage{}
}

// Name identifies the stage.
func (s *HeuristicStage) Name() model.ExtractionSource {
	return model.SourceHeuristic
}

// Extract always returns an Extracted result.
func (s *HeuristicStage) Extract(_ context.Context, msg model.RawMessage) Result {
	text := msg.Subject + "\n" + msg.Body

	fields := Fields{
		MerchantName: merchantFromSubject(msg.Subject),
		Currency:     model.DefaultCurrency,
		Frequency:    model.FrequencyMonthly,
		BillingDate:  msg.ReceivedAt,
	}

	if amount, currency, ok := findAmount(text); ok {
		fields.Amount = amount
		fields.Currency = currency
		fields.HasAmount = true
	}
	if yearlyPattern.MatchString(text) {
		fields.Frequency = model.FrequencyYearly
	}

	return extracted(fields)
}

// findAmount returns the earliest currency-prefixed amount in text, falling
// back to the earliest currency-suffixed one.
func findAmount(text string) (float64, string, bool) {
	amountText, currencyText, ok := earliestMatch(text, prefixedMatchers)
	if !ok {
		amountText, currencyText, ok = earliestMatch(text, suffixedMatchers)
	}
	if !ok {
		return 0, "", false
	}

	amount, ok := parseAmount(amountText)
	if !ok {
		return 0, "", false
	}

	currency, isSymbol := symbolCurrencies[currencyText]
	if !isSymbol {
		currency = strings.ToUpper(currencyText)
	}
	return amount, currency, true
}

func earliestMatch(text string, matchers []amountMatcher) (amountText, currencyText string, ok bool) {
	bestStart := -1
	for _, m := range matchers {
		loc := m.re.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}
		if bestStart != -1 && loc[0] >= bestStart {
			continue
		}
		bestStart = loc[0]
		amountText = text[loc[2*m.amount]:loc[2*m.amount+1]]
		currencyText = text[loc[2*m.currency]:loc[2*m.currency+1]]
	}
	return amountText, currencyText, bestStart != -1
}

// parseAmount reads a number written with either "," or "." as the decimal
// separator. A final group of exactly three digits is a thousands group.
func parseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	last := strings.LastIndexAny(s, ",.")
	if last >= 0 && len(s)-last-1 != 3 {
		intPart := strings.NewReplacer(",", "", ".", "").Replace(s[:last])
		s = intPart + "." + s[last+1:]
	} else {
		s = strings.NewReplacer(",", "", ".", "").Replace(s)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// merchantFromSubject cuts the subject at the first colon, hyphen or en dash
// and limits it to 30 characters.
func merchantFromSubject(subject string) string {
	subject = strings.TrimSpace(subject)
	if subject == model.NoSubject {
		return subject
	}
	if i := strings.IndexAny(subject, ":-–"); i >= 0 {
		subject = subject[:i]
	}
	subject = strings.TrimSpace(subject)
	runes := []rune(subject)
	if len(runes) > maxMerchantRunes {
		subject = strings.TrimSpace(string(runes[:maxMerchantRunes]))
	}
	return subject
}
