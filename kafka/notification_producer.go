package kafka

import (
	// Go Internal Packages
	"context"
	"encoding/json"
	"time"

	// Local Packages
	models "tx-feed/models"

	// External Packages
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kprom"
	"go.uber.org/zap"
)

type ProducerConfig struct {
	Brokers []string
	Topic   string
}

type recordProducer interface {
	Produce(ctx context.Context, r *kgo.Record, promise func(*kgo.Record, error))
}

// NotificationProducer publishes countdown notifications keyed by
// transaction id, so every update of one transaction lands on one partition.
type NotificationProducer struct {
	client   *kgo.Client
	producer recordProducer
	Logger   *zap.Logger
}

// NewNotificationProducer creates the kafka client. Records are produced
// asynchronously, Close flushes what is still buffered.
func NewNotificationProducer(conf *ProducerConfig, metrics *kprom.Metrics, logger *zap.Logger) (*NotificationProducer, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(conf.Brokers...),
		kgo.DefaultProduceTopic(conf.Topic),
		kgo.ProducerLinger(50 * time.Millisecond),
		kgo.RecordRetries(5),
	}
	if metrics != nil {
		opts = append(opts, kgo.WithHooks(metrics))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, err
	}
	return &NotificationProducer{client: client, producer: client, Logger: logger}, nil
}

// Notify produces n without waiting for the broker acknowledgement.
func (p *NotificationProducer) Notify(n models.Notification) {
	value, err := json.Marshal(n)
	if err != nil {
		p.Logger.Error("failed to marshal notification", zap.String("tx_id", n.TxID), zap.Error(err))
		return
	}

	record := &kgo.Record{
		Key:   []byte(n.TxID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "kind", Value: []byte(n.Kind)},
		},
	}
	p.producer.Produce(context.Background(), record, func(r *kgo.Record, err error) {
		if err != nil {
			p.Logger.Error("failed to produce notification", zap.String("tx_id", n.TxID), zap.Error(err))
		}
	})
}

// Close flushes buffered records and closes the client.
func (p *NotificationProducer) Close(ctx context.Context) {
	if p.client == nil {
		return
	}
	if err := p.client.Flush(ctx); err != nil {
		p.Logger.Warn("failed to flush notifications", zap.Error(err))
	}
	p.client.Close()
}
