package normalizer

import (
	// Go Internal Packages
	"fmt"

	// Local Packages
	errors "tx-feed/errors"
	models "tx-feed/models"
)

// Timestamp mapping per source:
//
//	card    -> CardEvent.CreatedAt
//	bank    -> BankOrder.Meta.PlacedAt
//	onchain -> OnchainTransfer.Date (block time)
//
// A missing timestamp is a DataIntegrity error, never "now".

// Normalize converts a raw source record into a NormalizedTransaction. raw must be
// the pointer type matching kind.
func Normalize(kind models.SourceKind, raw any) (models.NormalizedTransaction, error) {
	switch kind {
	case models.SourceCard:
		ev, ok := raw.(*models.CardEvent)
		if !ok || ev == nil {
			return models.NormalizedTransaction{}, mismatch(kind, raw)
		}
		return Card(ev)
	case models.SourceBank:
		o, ok := raw.(*models.BankOrder)
		if !ok || o == nil {
			return models.NormalizedTransaction{}, mismatch(kind, raw)
		}
		return Bank(o)
	case models.SourceOnchain:
		tr, ok := raw.(*models.OnchainTransfer)
		if !ok || tr == nil {
			return models.NormalizedTransaction{}, mismatch(kind, raw)
		}
		return Onchain(tr)
	}
	return models.NormalizedTransaction{}, errors.InvalidParamsErr(fmt.Errorf("unknown source kind %q", kind))
}

func Card(ev *models.CardEvent) (models.NormalizedTransaction, error) {
	if ev.CreatedAt == nil || ev.CreatedAt.IsZero() {
		return models.NormalizedTransaction{}, errors.DataIntegrityErr(string(models.SourceCard), ev.ID, "createdAt")
	}
	return models.NormalizedTransaction{
		ID:         ev.ID,
		Timestamp:  *ev.CreatedAt,
		SourceKind: models.SourceCard,
		Payload:    ev,
	}, nil
}

func Bank(o *models.BankOrder) (models.NormalizedTransaction, error) {
	if o.Meta.PlacedAt == nil || o.Meta.PlacedAt.IsZero() {
		return models.NormalizedTransaction{}, errors.DataIntegrityErr(string(models.SourceBank), o.ID, "meta.placedAt")
	}
	return models.NormalizedTransaction{
		ID:         o.ID,
		Timestamp:  *o.Meta.PlacedAt,
		SourceKind: models.SourceBank,
		Payload:    o,
	}, nil
}

// Onchain identifies a transfer by hash and log index, a single transaction
// hash may carry several transfers.
func Onchain(tr *models.OnchainTransfer) (models.NormalizedTransaction, error) {
	id := fmt.Sprintf("%s:%d", tr.Hash, tr.LogIndex)
	if tr.Date == nil || tr.Date.IsZero() {
		return models.NormalizedTransaction{}, errors.DataIntegrityErr(string(models.SourceOnchain), id, "date")
	}
	return models.NormalizedTransaction{
		ID:         id,
		Timestamp:  *tr.Date,
		SourceKind: models.SourceOnchain,
		Payload:    tr,
	}, nil
}

func mismatch(kind models.SourceKind, raw any) error {
	return errors.InvalidParamsErr(fmt.Errorf("record of type %T is not a %s record", raw, kind))
}
