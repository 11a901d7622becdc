package receipt

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Pranay8282/Expense-Management/internal/models"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Extractor parses structured fields out of raw receipt text. Regex
// heuristics run first; when they find neither an amount nor a date and an
// OpenAI client is configured, the extractor falls back to asking the model.
type Extractor struct {
	client      *openai.Client
	model       string
	temperature float32
	logger      *zap.Logger
}

// NewExtractor creates an extractor. apiKey may be empty, in which case only
// the regex heuristics run.
func NewExtractor(apiKey, model string, temperature float32, logger *zap.Logger) *Extractor {
	e := &Extractor{
		model:       model,
		temperature: temperature,
		logger:      logger,
	}
	if apiKey != "" {
		e.client = openai.NewClient(apiKey)
	}
	return e
}

var (
	// Lines like "Total: 42.50", "AMOUNT DUE $1,299.00", "TOTAL 12,30"
	amountPattern = regexp.MustCompile(`(?i)(?:total|amount|sum|due|balance)\D{0,10}?([0-9][0-9.,]*[0-9]|[0-9])`)
	// Any standalone money-looking number, used when no labeled amount exists
	moneyPattern = regexp.MustCompile(`([0-9]{1,3}(?:,[0-9]{3})*\.[0-9]{2}|[0-9]+\.[0-9]{2})`)
	datePattern  = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2}|\d{2}/\d{2}/\d{4}|\d{2}-\d{2}-\d{4}|\d{2}\.\d{2}\.\d{4})\b`)
)

var dateLayouts = []string{"2006-01-02", "02/01/2006", "01/02/2006", "02-01-2006", "02.01.2006"}

// Extract builds an OCRRecord from raw receipt text.
func (e *Extractor) Extract(ctx context.Context, rawText string) *models.OCRRecord {
	record := &models.OCRRecord{RawText: rawText}

	if amount, ok := extractAmount(rawText); ok {
		record.ExtractedAmount = &amount
	}
	if date, ok := extractDate(rawText); ok {
		record.ExtractedDate = &date
	}
	if description, ok := extractDescription(rawText); ok {
		record.ExtractedDescription = &description
	}

	if record.ExtractedAmount == nil && record.ExtractedDate == nil && e.client != nil {
		e.assist(ctx, record)
	}
	return record
}

// extractAmount picks the labeled total when present, otherwise the largest
// money-looking number on the receipt.
func extractAmount(text string) (float64, bool) {
	if m := amountPattern.FindStringSubmatch(text); m != nil {
		if v, err := parseAmount(m[1]); err == nil {
			return v, true
		}
	}

	best := 0.0
	found := false
	for _, m := range moneyPattern.FindAllString(text, -1) {
		if v, err := parseAmount(m); err == nil && v > best {
			best = v
			found = true
		}
	}
	return best, found
}

func parseAmount(s string) (float64, error) {
	s = strings.ReplaceAll(s, ",", "")
	return strconv.ParseFloat(s, 64)
}

func extractDate(text string) (time.Time, bool) {
	m := datePattern.FindString(text)
	if m == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, m); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// extractDescription uses the first non-empty line, usually the merchant name.
func extractDescription(text string) (string, bool) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			if len(line) > 255 {
				line = line[:255]
			}
			return line, true
		}
	}
	return "", false
}

type assistResult struct {
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
}

// assist asks the model to pull amount/date/description out of receipt text
// the heuristics could not handle. Failures are logged and ignored; the
// record simply stays sparse.
func (e *Extractor) assist(ctx context.Context, record *models.OCRRecord) {
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: e.temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You extract structured data from retail receipt text. Respond with valid JSON only.",
			},
			{
				Role: openai.ChatMessageRoleUser,
				Content: fmt.Sprintf(
					"Extract the total amount, purchase date and a one-line description from this receipt text. "+
						"Return JSON {\"amount\": number, \"date\": \"YYYY-MM-DD\", \"description\": \"string\"}. "+
						"Use 0 or empty string for anything you cannot find.\n\n%s", record.RawText),
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		e.logger.Warn("LLM-assisted receipt extraction failed", zap.Error(err))
		return
	}
	if len(resp.Choices) == 0 {
		return
	}

	var result assistResult
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &result); err != nil {
		e.logger.Warn("Failed to parse LLM extraction result", zap.Error(err))
		return
	}

	if result.Amount > 0 {
		record.ExtractedAmount = &result.Amount
	}
	if result.Date != "" {
		if t, err := time.Parse("2006-01-02", result.Date); err == nil {
			record.ExtractedDate = &t
		}
	}
	if result.Description != "" && record.ExtractedDescription == nil {
		record.ExtractedDescription = &result.Description
	}
}
