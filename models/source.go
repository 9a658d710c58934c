package models

import (
	// Go Internal Packages
	"fmt"
	"time"
)

// SourceKind identifies one of the independent transaction history providers.
type SourceKind string

const (
	SourceCard    SourceKind = "card"
	SourceBank    SourceKind = "bank"
	SourceOnchain SourceKind = "onchain"
)

// SourceKinds lists every source in concatenation order. The order is the
// tie-break for records sharing a timestamp.
var SourceKinds = []SourceKind{SourceCard, SourceBank, SourceOnchain}

func (k SourceKind) Valid() bool {
	switch k {
	case SourceCard, SourceBank, SourceOnchain:
		return true
	}
	return false
}

// NormalizedTransaction is the common shape every source record is merged as.
// Payload points back at the source record (*CardEvent, *BankOrder or *OnchainTransfer).
type NormalizedTransaction struct {
	ID         string     `json:"id"`
	Timestamp  time.Time  `json:"timestamp"`
	SourceKind SourceKind `json:"source_kind"`
	Payload    any        `json:"payload"`
}

// TxKey identifies a transaction across sources, ids are only unique within one.
type TxKey struct {
	SourceKind SourceKind
	ID         string
}

func (k TxKey) String() string {
	return fmt.Sprintf("%s:%s", k.SourceKind, k.ID)
}

func (t NormalizedTransaction) Key() TxKey {
	return TxKey{SourceKind: t.SourceKind, ID: t.ID}
}
