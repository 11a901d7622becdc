package receipt

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestExtractAmount(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
		ok   bool
	}{
		{
			name: "labeled total wins",
			text: "Coffee 4.50\nBagel 3.25\nTotal: 7.75",
			want: 7.75,
			ok:   true,
		},
		{
			name: "amount due with currency symbol and thousands separator",
			text: "AMOUNT DUE $1,299.00",
			want: 1299.00,
			ok:   true,
		},
		{
			name: "largest money number when nothing is labeled",
			text: "Latte 4.50\nSandwich 8.95\nCookie 2.25",
			want: 8.95,
			ok:   true,
		},
		{
			name: "no numbers at all",
			text: "Thank you for your visit",
			want: 0,
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractAmount(tt.text)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 0.001)
			}
		})
	}
}

func TestExtractDate(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
		ok   bool
	}{
		{name: "iso date", text: "Date: 2024-03-15\nTotal 10.00", want: "2024-03-15", ok: true},
		{name: "slash date", text: "15/03/2024 14:22", want: "2024-03-15", ok: true},
		{name: "dotted date", text: "15.03.2024", want: "2024-03-15", ok: true},
		{name: "no date", text: "Total 10.00", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractDate(tt.text)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got.Format("2006-01-02"))
			}
		})
	}
}

func TestExtractDescription(t *testing.T) {
	desc, ok := extractDescription("\n\n  Blue Bottle Coffee  \n123 Main St\nTotal 4.50")
	require.True(t, ok)
	assert.Equal(t, "Blue Bottle Coffee", desc)

	_, ok = extractDescription("   \n\t\n")
	assert.False(t, ok)
}

func TestExtractor_ExtractWithoutAPIKey(t *testing.T) {
	extractor := NewExtractor("", "gpt-4o-mini", 0.1, zap.NewNop())

	record := extractor.Extract(context.Background(),
		"Blue Bottle Coffee\n2024-03-15\nLatte 4.50\nTotal: 4.50")

	require.NotNil(t, record.ExtractedAmount)
	assert.InDelta(t, 4.50, *record.ExtractedAmount, 0.001)
	require.NotNil(t, record.ExtractedDate)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), *record.ExtractedDate)
	require.NotNil(t, record.ExtractedDescription)
	assert.Equal(t, "Blue Bottle Coffee", *record.ExtractedDescription)
}

func TestExtractor_ExtractSparseTextStaysSparse(t *testing.T) {
	// No API key means the heuristics are all there is; unparseable text
	// produces a record with raw text only.
	extractor := NewExtractor("", "gpt-4o-mini", 0.1, zap.NewNop())

	record := extractor.Extract(context.Background(), "illegible thermal paper")

	assert.Nil(t, record.ExtractedAmount)
	assert.Nil(t, record.ExtractedDate)
	require.NotNil(t, record.ExtractedDescription)
	assert.Equal(t, "illegible thermal paper", *record.ExtractedDescription)
	assert.Equal(t, "illegible thermal paper", record.RawText)
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("receipt.pdf"))
	assert.True(t, Supported("scan.PNG"))
	assert.True(t, Supported("photo.jpeg"))
	assert.True(t, Supported("photo.jpg"))
	assert.False(t, Supported("notes.txt"))
	assert.False(t, Supported("archive.zip"))
}
