package domain

import "time"

// FundUsage records one disbursement category.
type FundUsage struct {
	ID          int64     `json:"id"`
	Category    string    `json:"category"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
}

// FundUsageInput carries the raw fields of a new fund-usage entry.
type FundUsageInput struct {
	Category    string `schema:"category" json:"category"`
	Amount      string `schema:"amount" json:"amount"`
	Description string `schema:"description" json:"description"`
}
