package models

import "time"

// OCRRecord holds the raw text extracted from an uploaded receipt and the
// fields the extractor managed to parse out of it. ExpenseID is nil while the
// record is only a pre-fill suggestion and set once the expense is submitted.
type OCRRecord struct {
	ID                   int64      `json:"id"`
	ExpenseID            *int64     `json:"expense_id,omitempty"`
	RawText              string     `json:"raw_text"`
	ExtractedAmount      *float64   `json:"extracted_amount,omitempty"`
	ExtractedDate        *time.Time `json:"extracted_date,omitempty"`
	ExtractedDescription *string    `json:"extracted_description,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
}
