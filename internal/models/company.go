package models

import "time"

// Company represents an organization whose employees submit expenses.
// Every user belongs to exactly one company; the company currency is the
// target currency for converted expense amounts.
type Company struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Country   string    `json:"country"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"created_at"`
}
