package models

import (
	// Go Internal Packages
	"time"
)

type NotificationKind string

const (
	NotificationStarted   NotificationKind = "started"
	NotificationCountdown NotificationKind = "countdown"
	NotificationDismissed NotificationKind = "dismissed"
)

type DismissReason string

const (
	DismissElapsed  DismissReason = "elapsed"
	DismissVanished DismissReason = "vanished"
	DismissTerminal DismissReason = "terminal"
)

// Notification is one update of the live countdown shown for a delayed
// transaction. TxID is the notification identity.
type Notification struct {
	TxID      string           `json:"tx_id"`
	Kind      NotificationKind `json:"kind"`
	Status    DelayStatus      `json:"status"`
	ReadyAt   time.Time        `json:"ready_at"`
	Remaining time.Duration    `json:"remaining"`
	Reason    DismissReason    `json:"reason,omitempty"`
	At        time.Time        `json:"at"`
}
