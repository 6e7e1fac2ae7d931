package domain

import "time"

// Currency is the only currency the ledger records.
const Currency = "IDR"

// PaymentMethod names how a donor transferred the money.
type PaymentMethod string

const (
	PaymentBankTransfer   PaymentMethod = "bank-transfer"
	PaymentDigitalPayment PaymentMethod = "digital-payment"
)

// PaymentMethods lists the accepted vocabulary.
var PaymentMethods = []PaymentMethod{PaymentBankTransfer, PaymentDigitalPayment}

// DonationStatus is stored on every donation but never transitioned.
type DonationStatus string

const StatusPending DonationStatus = "pending"

// Donation represents a supporter contribution record.
type Donation struct {
	ID            int64          `json:"id"`
	Name          string         `json:"name"`
	Email         string         `json:"email"`
	Phone         string         `json:"phone"`
	Amount        float64        `json:"amount"`
	PaymentMethod PaymentMethod  `json:"paymentMethod"`
	Message       string         `json:"message"`
	ProofImage    *string        `json:"proofImage"`
	Date          time.Time      `json:"date"`
	Status        DonationStatus `json:"status"`
}

// DonationInput carries the raw donor-supplied fields. Amount stays textual
// until the ledger parses it.
type DonationInput struct {
	Name          string `schema:"name" json:"name"`
	Email         string `schema:"email" json:"email"`
	Phone         string `schema:"phone" json:"phone"`
	Amount        string `schema:"amount" json:"amount"`
	PaymentMethod string `schema:"paymentMethod" json:"paymentMethod"`
	Message       string `schema:"message" json:"message"`
}

// ProofUpload is an uploaded proof-of-payment image.
type ProofUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Totals aggregates the donation collection.
type Totals struct {
	Total    float64 `json:"total"`
	Count    int     `json:"count"`
	Currency string  `json:"currency"`
}
