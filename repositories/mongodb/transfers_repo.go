package mongodb

import (
	// Go Internal Packages
	"context"
	"fmt"

	// Local Packages
	errors "tx-feed/errors"
	models "tx-feed/models"

	// External Packages
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// TransferRepository reads token transfers written by the chain indexer.
type TransferRepository struct {
	coll   *mongo.Collection
	logger *zap.Logger
}

func NewTransferRepository(coll *mongo.Collection, logger *zap.Logger) *TransferRepository {
	return &TransferRepository{coll: coll, logger: logger}
}

// Transfers returns the transfers of q.Address in q.TokenAddress dated on or
// after q.FromDate, newest first.
func (r *TransferRepository) Transfers(ctx context.Context, q models.OnchainQuery) ([]models.OnchainTransfer, error) {
	filter, err := transfersFilter(q, false)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "log_index", Value: -1}})
	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find transfers: %w", err)
	}
	defer cursor.Close(ctx)

	var transfers []models.OnchainTransfer
	if err := cursor.All(ctx, &transfers); err != nil {
		return nil, fmt.Errorf("decode transfers: %w", err)
	}

	for i := range transfers {
		tr := &transfers[i]
		if tr.RawValue == "" {
			continue
		}
		value, err := decimal.NewFromString(tr.RawValue)
		if err != nil {
			r.logger.Warn("transfer has a malformed value",
				zap.String("hash", tr.Hash), zap.String("value", tr.RawValue), zap.Error(err))
			continue
		}
		tr.Value = value
	}

	r.logger.Debug("fetched transfers",
		zap.String("address", q.Address), zap.Time("from_date", q.FromDate), zap.Int("count", len(transfers)))
	return transfers, nil
}

// HasTransfersBefore reports whether any matching transfer is dated before q.FromDate.
func (r *TransferRepository) HasTransfersBefore(ctx context.Context, q models.OnchainQuery) (bool, error) {
	if q.FromDate.IsZero() {
		return false, nil
	}
	filter, err := transfersFilter(q, true)
	if err != nil {
		return false, err
	}

	opts := options.FindOne().SetProjection(bson.D{{Key: "_id", Value: 1}})
	err = r.coll.FindOne(ctx, filter, opts).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("find older transfer: %w", err)
	}
	return true, nil
}

// transfersFilter selects transfers from or to q.Address. before flips the
// date bound to everything older than q.FromDate.
func transfersFilter(q models.OnchainQuery, before bool) (bson.D, error) {
	if q.Address == "" {
		return nil, errors.EmptyParamErr("address")
	}

	filter := bson.D{
		{Key: "$or", Value: bson.A{
			bson.D{{Key: "from", Value: q.Address}},
			bson.D{{Key: "to", Value: q.Address}},
		}},
	}
	if q.TokenAddress != "" {
		filter = append(filter, bson.E{Key: "token_address", Value: q.TokenAddress})
	}
	if !q.FromDate.IsZero() {
		op := "$gte"
		if before {
			op = "$lt"
		}
		filter = append(filter, bson.E{Key: "date", Value: bson.D{{Key: op, Value: q.FromDate}}})
	}
	if q.SkipSettlementTransfers {
		filter = append(filter, bson.E{Key: "settlement", Value: bson.D{{Key: "$ne", Value: true}}})
	}
	return filter, nil
}
