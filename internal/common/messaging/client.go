// internal/common/messaging/client.go
package messaging

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	stderrors "cloud-image-tests/internal/common/errors"
)

// Client wraps an AMQP connection with connect-time retry logic. One client
// carries one channel; the consumer and the publisher each own a client so a
// slow publish never blocks delivery acknowledgements.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	config  *ClientConfig
}

// ClientConfig holds configuration for the AMQP client.
type ClientConfig struct {
	URL               string
	ConnectionTimeout time.Duration
	RetryConfig       *RetryConfig
}

// RetryConfig defines retry behavior for connection establishment.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultRetryConfig provides sensible defaults for broker startup races.
var DefaultRetryConfig = &RetryConfig{
	MaxRetries: 10,
	BaseDelay:  2 * time.Second,
	MaxDelay:   30 * time.Second,
}

// NewClient creates a new AMQP client with default configuration.
func NewClient(url string) (*Client, error) {
	config := &ClientConfig{
		URL:               url,
		ConnectionTimeout: 10 * time.Second,
		RetryConfig:       DefaultRetryConfig,
	}
	return NewClientWithConfig(config)
}

// NewClientWithConfig creates an AMQP client using explicit configuration,
// retrying the dial with exponential backoff.
func NewClientWithConfig(config *ClientConfig) (*Client, error) {
	if config.RetryConfig == nil {
		config.RetryConfig = DefaultRetryConfig
	}

	var conn *amqp.Connection
	var err error
	delay := config.RetryConfig.BaseDelay

	for attempt := 0; attempt <= config.RetryConfig.MaxRetries; attempt++ {
		conn, err = amqp.DialConfig(config.URL, amqp.Config{
			Dial: amqp.DefaultDial(config.ConnectionTimeout),
		})
		if err == nil {
			break
		}
		if attempt == config.RetryConfig.MaxRetries {
			return nil, stderrors.NewBusConnectionFailedError(err)
		}
		time.Sleep(delay)
		delay *= 2
		if delay > config.RetryConfig.MaxDelay {
			delay = config.RetryConfig.MaxDelay
		}
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open AMQP channel: %w", err)
	}

	return &Client{
		conn:    conn,
		channel: channel,
		config:  config,
	}, nil
}

// Channel returns the raw channel for advanced usage.
func (c *Client) Channel() *amqp.Channel {
	return c.channel
}

// Close releases the channel and the underlying connection.
func (c *Client) Close() error {
	if c.channel != nil {
		_ = c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// PublishJSON publishes a persistent JSON message on the topic exchange.
func (c *Client) PublishJSON(ctx context.Context, exchange, routingKey string, body []byte) error {
	return c.channel.PublishWithContext(ctx, exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}
