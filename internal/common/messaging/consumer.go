// internal/common/messaging/consumer.go
package messaging

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"cloud-image-tests/internal/common/config"
	stderrors "cloud-image-tests/internal/common/errors"
	"cloud-image-tests/internal/common/logger"
	"cloud-image-tests/internal/models"
)

// NotificationHandler receives one decoded notification per delivery. The
// handler owns all failure containment; Handle never reports an error back to
// the bus.
type NotificationHandler interface {
	Handle(ctx context.Context, n models.Notification)
}

// Consumer binds the queue to the uploader's publish topics and dispatches
// one handler task per delivery. Whether deliveries overlap is decided here,
// not in the pipeline: each delivery gets its own goroutine.
type Consumer struct {
	client  *Client
	config  config.AMQPConfig
	dedupe  *DedupeStore
	handler NotificationHandler
	logger  logger.Logger

	wg sync.WaitGroup
}

func NewConsumer(client *Client, cfg config.AMQPConfig, dedupe *DedupeStore, handler NotificationHandler, log logger.Logger) *Consumer {
	return &Consumer{
		client:  client,
		config:  cfg,
		dedupe:  dedupe,
		handler: handler,
		logger:  log.WithFields(map[string]interface{}{"queue": cfg.Queue}),
	}
}

// Start declares the queue, binds the routing keys, and consumes until ctx is
// cancelled. It returns after all in-flight runs finish.
func (c *Consumer) Start(ctx context.Context) error {
	ch := c.client.Channel()

	queue, err := ch.QueueDeclare(c.config.Queue, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue declare failed: %w", err)
	}

	for _, key := range c.config.RoutingKeys {
		if err := ch.QueueBind(queue.Name, key, c.config.Exchange, false, nil); err != nil {
			return fmt.Errorf("queue bind failed for %q: %w", key, err)
		}
	}

	deliveries, err := ch.Consume(queue.Name, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume failed: %w", err)
	}

	c.logger.Info("Consumer started", map[string]interface{}{
		"exchange":    c.config.Exchange,
		"routingKeys": c.config.RoutingKeys,
	})

	for {
		select {
		case <-ctx.Done():
			c.wg.Wait()
			return nil
		case delivery, ok := <-deliveries:
			if !ok {
				c.wg.Wait()
				return fmt.Errorf("delivery channel closed by broker")
			}
			c.dispatch(ctx, delivery)
		}
	}
}

func (c *Consumer) dispatch(ctx context.Context, delivery amqp.Delivery) {
	n, err := models.DecodeNotification(delivery.RoutingKey, delivery.MessageId, delivery.Body)
	if err != nil {
		// Malformed shape is a skip, never a crash.
		c.logger.Warn("Discarding undecodable notification", map[string]interface{}{
			"topic": delivery.RoutingKey,
			"error": stderrors.NewNotificationDecodeFailedError(err).Error(),
		})
		_ = delivery.Ack(false)
		return
	}

	if c.dedupe != nil {
		seen, err := c.dedupe.Seen(ctx, n.MessageID)
		if err != nil {
			c.logger.Warn("Dedupe check failed, processing anyway", map[string]interface{}{
				"messageId": n.MessageID,
				"error":     err.Error(),
			})
		} else if seen {
			c.logger.Info("Skipping already-processed delivery", map[string]interface{}{
				"messageId": n.MessageID,
			})
			_ = delivery.Ack(false)
			return
		}
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.handler.Handle(ctx, n)
		_ = delivery.Ack(false)
	}()
}
