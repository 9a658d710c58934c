package sources

import (
	// Go Internal Packages
	"context"
	stderrors "errors"
	"testing"
	"time"

	// Local Packages
	errors "tx-feed/errors"
	models "tx-feed/models"
	loader "tx-feed/services/loader"

	// External Packages
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cardAPIFunc func(ctx context.Context, limit int) ([]models.CardEvent, error)

func (f cardAPIFunc) CardTransactions(ctx context.Context, limit int) ([]models.CardEvent, error) {
	return f(ctx, limit)
}

type bankAPIFunc func(ctx context.Context) ([]models.BankOrder, error)

func (f bankAPIFunc) IbanOrders(ctx context.Context) ([]models.BankOrder, error) {
	return f(ctx)
}

type fakeTransfers struct {
	transfers []models.OnchainTransfer
	older     bool
	queries   []models.OnchainQuery
	err       error
}

func (f *fakeTransfers) Transfers(ctx context.Context, q models.OnchainQuery) ([]models.OnchainTransfer, error) {
	f.queries = append(f.queries, q)
	return f.transfers, f.err
}

func (f *fakeTransfers) HasTransfersBefore(ctx context.Context, q models.OnchainQuery) (bool, error) {
	return f.older, nil
}

func at(h int) *time.Time {
	t := time.Date(2024, 8, 1, h, 0, 0, 0, time.UTC)
	return &t
}

func TestCardSource_ShortPageIsExhausted(t *testing.T) {
	var gotLimit int
	api := cardAPIFunc(func(ctx context.Context, limit int) ([]models.CardEvent, error) {
		gotLimit = limit
		return []models.CardEvent{{ID: "c1", CreatedAt: at(10)}, {ID: "c2", CreatedAt: at(9)}}, nil
	})
	src := NewCardSource(api, Options{})

	page, err := src.Fetch(context.Background(), loader.Window{Span: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, gotLimit)
	assert.False(t, page.Exhausted)
	require.Len(t, page.Records, 2)
	assert.Equal(t, "c1", page.Records[0].ID)

	page, err = src.Fetch(context.Background(), loader.Window{Span: 5, Limit: 5})
	require.NoError(t, err)
	assert.True(t, page.Exhausted)
}

func TestCardSource_MissingTimestamp(t *testing.T) {
	api := cardAPIFunc(func(ctx context.Context, limit int) ([]models.CardEvent, error) {
		return []models.CardEvent{{ID: "c1", CreatedAt: at(10)}, {ID: "broken"}}, nil
	})

	page, err := NewCardSource(api, Options{}).Fetch(context.Background(), loader.Window{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	assert.Equal(t, "c1", page.Records[0].ID)
	assert.False(t, page.Exhausted, "exhaustion is judged on the raw page size")

	_, err = NewCardSource(api, Options{Strict: true}).Fetch(context.Background(), loader.Window{Limit: 2})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.DataIntegrity))
}

func TestCardSource_FetchError(t *testing.T) {
	api := cardAPIFunc(func(ctx context.Context, limit int) ([]models.CardEvent, error) {
		return nil, stderrors.New("timeout")
	})
	_, err := NewCardSource(api, Options{}).Fetch(context.Background(), loader.Window{Limit: 2})
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.Fetch))
}

func TestBankSource_WindowsByDay(t *testing.T) {
	api := bankAPIFunc(func(ctx context.Context) ([]models.BankOrder, error) {
		return []models.BankOrder{
			{ID: "b1", Kind: models.BankOrderKindIssue, Meta: models.BankOrderMeta{PlacedAt: at(12)}},
			{ID: "b2", Kind: "redeem", Meta: models.BankOrderMeta{PlacedAt: at(6)}},
			{ID: "b3", Kind: models.BankOrderKindIssue, Meta: models.BankOrderMeta{PlacedAt: at(1)}},
		}, nil
	})
	src := NewBankSource(api, Options{})

	page, err := src.Fetch(context.Background(), loader.Window{Since: *at(5)})
	require.NoError(t, err)
	require.Len(t, page.Records, 2)
	assert.Equal(t, "b1", page.Records[0].ID)
	assert.Equal(t, "b2", page.Records[1].ID)
	assert.False(t, page.Exhausted)

	page, err = src.Fetch(context.Background(), loader.Window{Since: *at(0)})
	require.NoError(t, err)
	assert.Len(t, page.Records, 3)
	assert.True(t, page.Exhausted)
}

func TestOnchainSource_PassesQuery(t *testing.T) {
	repo := &fakeTransfers{
		transfers: []models.OnchainTransfer{{Hash: "0x1", Date: at(8)}},
		older:     true,
	}
	src := NewOnchainSource(repo, models.OnchainQuery{
		Address:                 "0xsafe",
		TokenAddress:            "0xeure",
		SkipSettlementTransfers: true,
	}, Options{})

	page, err := src.Fetch(context.Background(), loader.Window{Since: *at(0)})
	require.NoError(t, err)
	require.Len(t, page.Records, 1)
	assert.Equal(t, "0x1:0", page.Records[0].ID)
	assert.False(t, page.Exhausted)

	require.Len(t, repo.queries, 1)
	assert.Equal(t, "0xsafe", repo.queries[0].Address)
	assert.Equal(t, "0xeure", repo.queries[0].TokenAddress)
	assert.Equal(t, *at(0), repo.queries[0].FromDate)
	assert.True(t, repo.queries[0].SkipSettlementTransfers)

	repo.older = false
	page, err = src.Fetch(context.Background(), loader.Window{Since: *at(0)})
	require.NoError(t, err)
	assert.True(t, page.Exhausted)
}
