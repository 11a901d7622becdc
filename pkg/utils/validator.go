package utils

import (
	"fmt"
	"regexp"
)

var currencyCodeRegex = regexp.MustCompile(`^[A-Za-z]{3}$`)

// ValidateCurrencyCode checks that code looks like an ISO 4217 currency code.
func ValidateCurrencyCode(code string) error {
	if !currencyCodeRegex.MatchString(code) {
		return fmt.Errorf("invalid currency code: %q", code)
	}
	return nil
}

// ValidateAmount validates an expense amount
func ValidateAmount(amount float64) error {
	if amount <= 0 {
		return fmt.Errorf("amount must be positive: %.2f", amount)
	}
	return nil
}

// SanitizeString removes control characters from free-text input.
func SanitizeString(s string) string {
	return regexp.MustCompile(`[\x00-\x1f\x7f]`).ReplaceAllString(s, "")
}
