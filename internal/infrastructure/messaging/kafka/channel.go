package kafka

import (
	"context"

	appanalysis "github.com/turtacn/PatentSentinel/internal/application/analysis"
)

// NotificationChannel adapts the Producer to the alert dispatcher's
// NotificationChannel port.  The channel name selects the topic:
// "<topic_prefix>.<channel>", e.g. "alert.dispatch.email".
type NotificationChannel struct {
	producer *Producer
	prefix   string
}

var _ appanalysis.NotificationChannel = (*NotificationChannel)(nil)

// NewNotificationChannel constructs the adapter using the producer's
// configured topic prefix.
func NewNotificationChannel(producer *Producer) *NotificationChannel {
	return &NotificationChannel{producer: producer, prefix: producer.cfg.TopicPrefix}
}

// Topic returns the Kafka topic for a logical channel name.
func (n *NotificationChannel) Topic(channel string) string {
	if n.prefix == "" {
		return channel
	}
	return n.prefix + "." + channel
}

// Publish sends the rendered alert payload to the channel's topic, keyed by
// document so alerts for the same document land in one partition, in order.
func (n *NotificationChannel) Publish(ctx context.Context, channel, key string, payload []byte) error {
	return n.producer.Publish(ctx, n.Topic(channel), key, payload)
}
