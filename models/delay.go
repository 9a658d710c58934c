package models

import (
	// Go Internal Packages
	"encoding/json"
	"strings"
	"time"
)

// DelayStatus is the server side state of a delayed transaction.
type DelayStatus string

const (
	DelayQueuing   DelayStatus = "QUEUING"
	DelayWaiting   DelayStatus = "WAITING"
	DelayExecuting DelayStatus = "EXECUTING"
	DelayExecuted  DelayStatus = "EXECUTED"
	DelayFailed    DelayStatus = "FAILED"
)

func (s *DelayStatus) UnmarshalText(text []byte) error {
	*s = DelayStatus(strings.ToUpper(strings.TrimSpace(string(text))))
	return nil
}

// Terminal reports whether no countdown should be shown for the status.
func (s DelayStatus) Terminal() bool {
	return s == DelayExecuted || s == DelayFailed
}

// DelayedTransaction is an on-chain transaction held in the security cooldown queue.
type DelayedTransaction struct {
	ID              string          `json:"id"`
	Status          DelayStatus     `json:"status"`
	ReadyAt         *time.Time      `json:"readyAt"`
	CreatedAt       *time.Time      `json:"createdAt,omitempty"`
	TransactionData json.RawMessage `json:"transactionData,omitempty"`
}
