package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/subscout/internal/common"
	"github.com/Veraticus/subscout/internal/llm"
	"github.com/Veraticus/subscout/internal/model"
)

const promptTemplate = `Decide whether this email is a receipt, invoice or renewal notice for a recurring subscription.

Subject: %s
Preview: %s
Body:
%s

Respond with a JSON object with exactly these keys:
{
  "is_subscription": true or false,
  "merchant_name": "the service being paid for",
  "amount": the charged amount as a number,
  "currency": "three letter ISO 4217 code",
  "billing_frequency": "monthly", "yearly" or "one_time",
  "billing_date": "YYYY-MM-DD"
}`

// ModelStage asks a text-generation model for the subscription fields.
type ModelStage struct {
	client     llm.Client
	logger     *slog.Logger
	bodyLength int
	timeout    time.Duration
}

// NewModelStage creates the model stage. Each call is bounded by timeout; an
// expired call is treated like any other model failure.
func NewModelStage(client llm.Client, bodyLength int, timeout time.Duration, logger *slog.Logger) *ModelStage {
	return &ModelStage{
		client:     client,
		bodyLength: bodyLength,
		timeout:    timeout,
		logger:     common.LoggerOrDefault(logger),
	}
}

// Name identifies the stage.
func (s *ModelStage) Name() model.ExtractionSource {
	return model.SourceModel
}

// Prompt renders the extraction prompt for msg.
func (s *ModelStage) Prompt(msg model.RawMessage) string {
	return fmt.Sprintf(promptTemplate,
		msg.Subject,
		msg.Snippet,
		common.TruncateRunes(msg.Body, s.bodyLength))
}

// Extract calls the model and parses its JSON answer.
func (s *ModelStage) Extract(ctx context.Context, msg model.RawMessage) Result {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	text, err := s.client.Complete(ctx, s.Prompt(msg))
	if err != nil {
		s.logger.Warn("model extraction failed", "message_id", msg.ID, "error", err)
		return unextractable(err.Error())
	}

	text = llm.CleanMarkdownWrapper(text)
	if text == "" {
		return unextractable("empty model response")
	}

	res, err := parseModelResponse(text, msg)
	if err != nil {
		s.logger.Warn("unparseable model response", "message_id", msg.ID, "error", err)
		return unextractable(err.Error())
	}
	return res
}

type modelResponse struct {
	IsSubscription   *bool          `json:"is_subscription"`
	Amount           *flexibleFloat `json:"amount"`
	MerchantName     string         `json:"merchant_name"`
	Currency         string         `json:"currency"`
	BillingFrequency string         `json:"billing_frequency"`
	BillingDate      string         `json:"billing_date"`
}

func parseModelResponse(text string, msg model.RawMessage) (Result, error) {
	var resp modelResponse
	if err := json.Unmarshal([]byte(text), &resp); err != nil {
		return Result{}, fmt.Errorf("failed to parse JSON response: %w", err)
	}
	if resp.IsSubscription == nil {
		return Result{}, fmt.Errorf("response missing is_subscription")
	}
	if !*resp.IsSubscription {
		return rejected("model classified message as not a subscription"), nil
	}

	fields := Fields{
		MerchantName: strings.TrimSpace(resp.MerchantName),
		Currency:     normalizeCurrency(resp.Currency),
		Frequency:    model.ParseBillingFrequency(resp.BillingFrequency),
		BillingDate:  parseBillingDate(resp.BillingDate, msg.ReceivedAt),
	}
	if resp.Amount != nil {
		fields.Amount = float64(*resp.Amount)
		fields.HasAmount = true
	}
	return extracted(fields), nil
}

// flexibleFloat accepts a JSON number, a numeric string, or null.
type flexibleFloat float64

func (f *flexibleFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, ok := parseAmount(strings.Trim(s, " $€£"))
		if !ok {
			return fmt.Errorf("invalid amount %q", s)
		}
		*f = flexibleFloat(v)
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}
	*f = flexibleFloat(v)
	return nil
}

var billingDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"January 2, 2006",
	"Jan 2, 2006",
}

func parseBillingDate(s string, fallback time.Time) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range billingDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return fallback
}

func normalizeCurrency(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	switch s {
	case "$":
		return "USD"
	case "€":
		return "EUR"
	case "£":
		return "GBP"
	}
	if len(s) != 3 {
		return model.DefaultCurrency
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return model.DefaultCurrency
		}
	}
	return s
}
