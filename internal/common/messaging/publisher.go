// internal/common/messaging/publisher.go
package messaging

import (
	"context"
)

// ResultPublisher accepts one outbound message for transport. Implementations
// own any retry policy; the pipeline never retries a publish.
type ResultPublisher interface {
	Publish(ctx context.Context, topic string, body []byte) error
}

// AMQPPublisher publishes result messages on the topic exchange, using the
// bus topic as the routing key.
type AMQPPublisher struct {
	client   *Client
	exchange string
}

func NewAMQPPublisher(client *Client, exchange string) *AMQPPublisher {
	return &AMQPPublisher{client: client, exchange: exchange}
}

func (p *AMQPPublisher) Publish(ctx context.Context, topic string, body []byte) error {
	return p.client.PublishJSON(ctx, p.exchange, topic, body)
}
