package redis

import (
	// Go Internal Packages
	"context"
	"strconv"
	"time"

	// Local Packages
	models "tx-feed/models"
	utils "tx-feed/utils"

	// External Packages
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type StreamConfig struct {
	Stream  string
	MaxLen  int64
	Timeout time.Duration
}

// NotificationStream appends countdown notifications to a capped redis
// stream so other processes can render them.
type NotificationStream struct {
	client *redis.Client
	conf   StreamConfig
	logger *zap.Logger
}

func NewNotificationStream(client *redis.Client, conf StreamConfig, logger *zap.Logger) *NotificationStream {
	if conf.Stream == "" {
		conf.Stream = "tx-feed:notifications"
	}
	if conf.Timeout <= 0 {
		conf.Timeout = 2 * time.Second
	}
	return &NotificationStream{client: client, conf: conf, logger: logger.With(zap.String("component", "notification_stream"))}
}

// Notify appends n to the stream. Failures are logged and otherwise ignored.
func (s *NotificationStream) Notify(n models.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), s.conf.Timeout)
	defer cancel()

	args := &redis.XAddArgs{
		Stream: s.conf.Stream,
		Values: streamValues(n),
	}
	if s.conf.MaxLen > 0 {
		args.MaxLen = s.conf.MaxLen
		args.Approx = true
	}

	if err := s.client.XAdd(ctx, args).Err(); err != nil {
		s.logger.Error("failed to append notification", zap.String("tx_id", n.TxID), zap.Error(err))
	}
}

func streamValues(n models.Notification) []any {
	values := []any{
		"tx_id", n.TxID,
		"kind", string(n.Kind),
		"status", string(n.Status),
		"ready_at", n.ReadyAt.UTC().Format(time.RFC3339),
		"remaining", utils.FormatRemaining(n.Remaining),
		"remaining_ms", strconv.FormatInt(n.Remaining.Milliseconds(), 10),
	}
	if n.Reason != "" {
		values = append(values, "reason", string(n.Reason))
	}
	return values
}
