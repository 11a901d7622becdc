package exchange

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestConverter(t *testing.T, handler http.HandlerFunc) *Converter {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewConverter(Config{BaseURL: server.URL, Timeout: 2 * time.Second}, zap.NewNop())
}

func TestConverter_Convert(t *testing.T) {
	converter := newTestConverter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/EUR", r.URL.Path)
		w.Write([]byte(`{"base":"EUR","rates":{"USD":1.25,"GBP":0.85}}`))
	})

	got, err := converter.Convert(context.Background(), 100, "EUR", "USD")
	require.NoError(t, err)
	assert.InDelta(t, 125.0, got, 0.001)
}

func TestConverter_ConvertNormalizesCurrencyCodes(t *testing.T) {
	converter := newTestConverter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/EUR", r.URL.Path)
		w.Write([]byte(`{"base":"EUR","rates":{"USD":2}}`))
	})

	got, err := converter.Convert(context.Background(), 10, " eur ", "usd")
	require.NoError(t, err)
	assert.InDelta(t, 20.0, got, 0.001)
}

func TestConverter_ConvertSameCurrencySkipsProvider(t *testing.T) {
	called := false
	converter := newTestConverter(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	got, err := converter.Convert(context.Background(), 42.5, "USD", "USD")
	require.NoError(t, err)
	assert.Equal(t, 42.5, got)
	assert.False(t, called)
}

func TestConverter_ConvertFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		from    string
		to      string
	}{
		{
			name: "provider error status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
			from: "EUR", to: "USD",
		},
		{
			name: "malformed payload",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`not json`))
			},
			from: "EUR", to: "USD",
		},
		{
			name: "rate missing for target currency",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"base":"EUR","rates":{"GBP":0.85}}`))
			},
			from: "EUR", to: "USD",
		},
		{
			name: "non-positive rate",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"base":"EUR","rates":{"USD":0}}`))
			},
			from: "EUR", to: "USD",
		},
		{
			name:    "empty currency code",
			handler: func(w http.ResponseWriter, r *http.Request) {},
			from:    "", to: "USD",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			converter := newTestConverter(t, tt.handler)
			_, err := converter.Convert(context.Background(), 100, tt.from, tt.to)
			assert.ErrorIs(t, err, ErrRateUnavailable)
		})
	}
}

func TestConverter_ConvertUnreachableProvider(t *testing.T) {
	converter := NewConverter(Config{
		BaseURL: "http://127.0.0.1:1",
		Timeout: 500 * time.Millisecond,
	}, zap.NewNop())

	_, err := converter.Convert(context.Background(), 100, "EUR", "USD")
	assert.ErrorIs(t, err, ErrRateUnavailable)
}
