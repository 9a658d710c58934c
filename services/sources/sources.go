package sources

import (
	// Go Internal Packages
	"context"

	// Local Packages
	errors "tx-feed/errors"
	metrics "tx-feed/metrics"
	models "tx-feed/models"
	loader "tx-feed/services/loader"
	normalizer "tx-feed/services/normalizer"

	// External Packages
	"go.uber.org/zap"
)

type CardAPI interface {
	CardTransactions(ctx context.Context, limit int) ([]models.CardEvent, error)
}

type BankAPI interface {
	IbanOrders(ctx context.Context) ([]models.BankOrder, error)
}

type TransferRepository interface {
	Transfers(ctx context.Context, q models.OnchainQuery) ([]models.OnchainTransfer, error)
	HasTransfersBefore(ctx context.Context, q models.OnchainQuery) (bool, error)
}

// Options shared by every source adapter.
type Options struct {
	// Strict fails the whole page when a record cannot be normalized instead
	// of dropping that record.
	Strict bool
	Logger *zap.Logger
}

// collect normalizes raw records, dropping or failing on integrity errors.
func collect[T any](kind models.SourceKind, raw []T, opts Options) ([]models.NormalizedTransaction, error) {
	out := make([]models.NormalizedTransaction, 0, len(raw))
	for i := range raw {
		tx, err := normalizer.Normalize(kind, &raw[i])
		if err != nil {
			if opts.Strict || !errors.IsKind(err, errors.DataIntegrity) {
				return nil, err
			}
			metrics.SourceRecordsDropped.WithLabelValues(string(kind)).Inc()
			opts.Logger.Warn("dropping record", zap.String("source", string(kind)), zap.Error(err))
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

// CardSource pages card events by count: the endpoint returns the newest
// limit events, so a short page means the history is exhausted.
type CardSource struct {
	api  CardAPI
	opts Options
}

func NewCardSource(api CardAPI, opts Options) *CardSource {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &CardSource{api: api, opts: opts}
}

func (s *CardSource) Fetch(ctx context.Context, w loader.Window) (loader.Page, error) {
	events, err := s.api.CardTransactions(ctx, w.Limit)
	if err != nil {
		return loader.Page{}, errors.FetchErr(string(models.SourceCard), err)
	}
	records, err := collect(models.SourceCard, events, s.opts)
	if err != nil {
		return loader.Page{}, err
	}
	return loader.Page{Records: records, Exhausted: len(events) < w.Limit}, nil
}

// BankSource windows the full IBAN order list by day on the client.
type BankSource struct {
	api  BankAPI
	opts Options
}

func NewBankSource(api BankAPI, opts Options) *BankSource {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &BankSource{api: api, opts: opts}
}

func (s *BankSource) Fetch(ctx context.Context, w loader.Window) (loader.Page, error) {
	orders, err := s.api.IbanOrders(ctx)
	if err != nil {
		return loader.Page{}, errors.FetchErr(string(models.SourceBank), err)
	}
	records, err := collect(models.SourceBank, orders, s.opts)
	if err != nil {
		return loader.Page{}, err
	}

	inWindow := records[:0]
	older := false
	for _, tx := range records {
		if tx.Timestamp.Before(w.Since) {
			older = true
			continue
		}
		inWindow = append(inWindow, tx)
	}
	return loader.Page{Records: inWindow, Exhausted: !older}, nil
}

// OnchainSource reads token transfers of one address from the indexer store.
type OnchainSource struct {
	repo  TransferRepository
	query models.OnchainQuery
	opts  Options
}

func NewOnchainSource(repo TransferRepository, query models.OnchainQuery, opts Options) *OnchainSource {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &OnchainSource{repo: repo, query: query, opts: opts}
}

func (s *OnchainSource) Fetch(ctx context.Context, w loader.Window) (loader.Page, error) {
	q := s.query
	q.FromDate = w.Since

	transfers, err := s.repo.Transfers(ctx, q)
	if err != nil {
		return loader.Page{}, errors.FetchErr(string(models.SourceOnchain), err)
	}
	records, err := collect(models.SourceOnchain, transfers, s.opts)
	if err != nil {
		return loader.Page{}, err
	}

	older, err := s.repo.HasTransfersBefore(ctx, q)
	if err != nil {
		return loader.Page{}, errors.FetchErr(string(models.SourceOnchain), err)
	}
	return loader.Page{Records: records, Exhausted: !older}, nil
}
