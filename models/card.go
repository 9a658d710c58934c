package models

import (
	// Go Internal Packages
	"time"

	// External Packages
	"github.com/shopspring/decimal"
)

// CardEvent is a card network event as returned by the card transactions endpoint.
type CardEvent struct {
	ID                  string          `json:"id"`
	CreatedAt           *time.Time      `json:"createdAt"`
	Kind                string          `json:"kind"`
	Status              string          `json:"status"`
	Merchant            Merchant        `json:"merchant"`
	TransactionAmount   decimal.Decimal `json:"transactionAmount"`
	TransactionCurrency string          `json:"transactionCurrency"`
	BillingAmount       decimal.Decimal `json:"billingAmount"`
	BillingCurrency     string          `json:"billingCurrency"`
}

type Merchant struct {
	Name    string `json:"name"`
	City    string `json:"city"`
	Country string `json:"country"`
}

// CardTransactionsResponse is the body of GET card/transactions.
type CardTransactionsResponse struct {
	Results []CardEvent `json:"results"`
}
