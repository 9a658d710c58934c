package models

import (
	// Go Internal Packages
	"time"

	// External Packages
	"github.com/shopspring/decimal"
)

const BankOrderKindIssue = "issue"

// BankOrder is an IBAN order (incoming issue or outgoing redemption).
type BankOrder struct {
	ID          string          `json:"id"`
	Kind        string          `json:"kind"`
	State       string          `json:"state"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Counterpart Counterpart     `json:"counterpart"`
	Memo        string          `json:"memo"`
	Meta        BankOrderMeta   `json:"meta"`
}

type BankOrderMeta struct {
	PlacedAt *time.Time `json:"placedAt"`
}

type Counterpart struct {
	Name string `json:"name"`
	IBAN string `json:"iban"`
	BIC  string `json:"bic"`
}

// IsIncoming reports whether the order credits the account.
func (o *BankOrder) IsIncoming() bool {
	return o.Kind == BankOrderKindIssue
}

// IbanOrdersResponse is the body of GET iban/orders.
type IbanOrdersResponse struct {
	Data []BankOrder `json:"data"`
}
