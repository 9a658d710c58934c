package models

import (
	// Go Internal Packages
	"time"

	// External Packages
	"github.com/shopspring/decimal"
)

type TransferDirection string

const (
	DirectionIncoming TransferDirection = "incoming"
	DirectionOutgoing TransferDirection = "outgoing"
)

// OnchainTransfer is a token transfer as stored by the chain indexer.
type OnchainTransfer struct {
	Hash         string            `json:"hash" bson:"hash"`
	LogIndex     int               `json:"log_index" bson:"log_index"`
	Date         *time.Time        `json:"date" bson:"date"`
	Direction    TransferDirection `json:"direction" bson:"direction"`
	Value        decimal.Decimal   `json:"value" bson:"-"`
	RawValue     string            `json:"-" bson:"value"`
	From         string            `json:"from" bson:"from"`
	To           string            `json:"to" bson:"to"`
	TokenAddress string            `json:"token_address" bson:"token_address"`
	Settlement   bool              `json:"settlement" bson:"settlement"`
}

// OnchainQuery mirrors the parameters of a transfer history lookup.
type OnchainQuery struct {
	Address                 string
	TokenAddress            string
	FromDate                time.Time
	SkipSettlementTransfers bool
}
