// internal/workers/azure/image-test/publisher.go
package imagetest

import (
	"context"
	"encoding/json"

	stderrors "cloud-image-tests/internal/common/errors"
	"cloud-image-tests/internal/common/logger"
	"cloud-image-tests/internal/common/messaging"
	"cloud-image-tests/internal/common/validation"
	"cloud-image-tests/internal/models"
)

// Publisher maps one run's outcomes into the outbound result body and hands
// it to the transport. Failures are logged and absorbed here; the pipeline
// never retries a publish and never crashes because of one.
type Publisher struct {
	topic     string
	transport messaging.ResultPublisher
	logger    logger.Logger
}

func NewPublisher(topic string, transport messaging.ResultPublisher, log logger.Logger) *Publisher {
	return &Publisher{
		topic:     topic,
		transport: transport,
		logger:    log.WithFields(map[string]interface{}{"component": "publisher"}),
	}
}

// Publish builds, validates, and sends the result message. The three failure
// classes (schema violation, transport, anything else) are logged distinctly
// for operability; none is retried here.
func (p *Publisher) Publish(ctx context.Context, n models.Notification, summary *models.ReportSummary) bool {
	msg := models.NewResultMessage(n, summary)

	body, err := json.Marshal(msg)
	if err != nil {
		p.logger.WithError(stderrors.NewPublishUnexpectedError(err)).Error("Unexpected error while encoding result message", map[string]interface{}{
			"imageId": msg.ImageID,
		})
		return false
	}

	if err := validation.ValidateResultBody(body); err != nil {
		p.logger.WithError(stderrors.NewPublishValidationFailedError(err.Error())).Error("Result message failed schema validation", map[string]interface{}{
			"imageId": msg.ImageID,
		})
		return false
	}

	if err := p.transport.Publish(ctx, p.topic, body); err != nil {
		p.logger.WithError(stderrors.NewPublishTransportFailedError(err)).Error("Result message transport failure", map[string]interface{}{
			"imageId": msg.ImageID,
			"topic":   p.topic,
		})
		return false
	}

	p.logger.Info("Result message published", map[string]interface{}{
		"imageId": msg.ImageID,
		"topic":   p.topic,
		"passed":  summary.Passed.Count,
		"failed":  summary.Failed.Count,
		"skipped": summary.Skipped.Count,
	})
	return true
}
