package normalizer

import (
	// Go Internal Packages
	"testing"
	"time"

	// Local Packages
	errors "tx-feed/errors"
	models "tx-feed/models"

	// External Packages
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_TimestampMapping(t *testing.T) {
	created := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	placed := time.Date(2024, 6, 2, 11, 0, 0, 0, time.UTC)
	block := time.Date(2024, 6, 3, 12, 0, 0, 0, time.UTC)

	card := &models.CardEvent{ID: "c1", CreatedAt: &created}
	bank := &models.BankOrder{ID: "b1", Meta: models.BankOrderMeta{PlacedAt: &placed}}
	transfer := &models.OnchainTransfer{Hash: "0xabc", LogIndex: 2, Date: &block}

	testCases := []struct {
		name   string
		kind   models.SourceKind
		raw    any
		wantID string
		wantTS time.Time
	}{
		{name: "card uses createdAt", kind: models.SourceCard, raw: card, wantID: "c1", wantTS: created},
		{name: "bank uses meta.placedAt", kind: models.SourceBank, raw: bank, wantID: "b1", wantTS: placed},
		{name: "onchain uses block date", kind: models.SourceOnchain, raw: transfer, wantID: "0xabc:2", wantTS: block},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Normalize(tc.kind, tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.wantID, got.ID)
			assert.Equal(t, tc.wantTS, got.Timestamp)
			assert.Equal(t, tc.kind, got.SourceKind)
			assert.Same(t, tc.raw, got.Payload)
		})
	}
}

func TestNormalize_MissingTimestamp(t *testing.T) {
	testCases := []struct {
		name string
		kind models.SourceKind
		raw  any
	}{
		{name: "card", kind: models.SourceCard, raw: &models.CardEvent{ID: "c1"}},
		{name: "bank", kind: models.SourceBank, raw: &models.BankOrder{ID: "b1"}},
		{name: "onchain", kind: models.SourceOnchain, raw: &models.OnchainTransfer{Hash: "0x1"}},
		{name: "zero card time", kind: models.SourceCard, raw: &models.CardEvent{ID: "c2", CreatedAt: &time.Time{}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Normalize(tc.kind, tc.raw)
			require.Error(t, err)
			assert.True(t, errors.IsKind(err, errors.DataIntegrity))
		})
	}
}

func TestNormalize_WrongShape(t *testing.T) {
	_, err := Normalize(models.SourceCard, &models.BankOrder{ID: "b1"})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.Invalid))

	_, err = Normalize(models.SourceKind("paypal"), &models.CardEvent{})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.Invalid))
}
