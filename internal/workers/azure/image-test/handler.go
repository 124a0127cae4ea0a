// internal/workers/azure/image-test/handler.go
package imagetest

import (
	"context"
	"fmt"
	"time"

	stderrors "cloud-image-tests/internal/common/errors"
	"cloud-image-tests/internal/common/logger"
	"cloud-image-tests/internal/common/messaging"
	"cloud-image-tests/internal/common/metrics"
	"cloud-image-tests/internal/common/observability"
	"cloud-image-tests/internal/models"
)

// Run outcomes, one per terminal state of the pipeline.
const (
	outcomeFilteredOut = "filtered_out"
	outcomeWorkspace   = "workspace_failed"
	outcomeFailed      = "failed"
	outcomeParseFailed = "parse_failed"
	outcomePublishLost = "publish_failed"
	outcomePublished   = "published"
)

// Handler sequences one pipeline run per notification: resolve, provision,
// invoke, extract, publish. Every failure is contained inside the run; the
// workspace is released on every path out, including panics.
type Handler struct {
	config       *Config
	resolver     *Resolver
	provisioner  *Provisioner
	invoker      *Invoker
	extractor    *Extractor
	publisher    *Publisher
	errorHandler *stderrors.RunErrorHandler
	obs          *observability.Observability
	logger       logger.Logger
}

var _ messaging.NotificationHandler = (*Handler)(nil)

func NewHandler(
	config *Config,
	publisher *Publisher,
	obs *observability.Observability,
	log logger.Logger,
) *Handler {
	return &Handler{
		config:       config,
		resolver:     NewResolver(config, log),
		provisioner:  NewProvisioner(config, log),
		invoker:      NewInvoker(config, log),
		extractor:    NewExtractor(config, log),
		publisher:    publisher,
		errorHandler: stderrors.NewRunErrorHandler(log),
		obs:          obs,
		logger:       log.WithFields(map[string]interface{}{"component": "pipeline"}),
	}
}

// Handle processes one notification end to end. It never returns an error:
// every failure category is converted into a logged terminal state so one bad
// run cannot stop notification processing.
func (h *Handler) Handle(ctx context.Context, n models.Notification) {
	metrics.RunsReceived.Inc()
	metrics.RunsActive.Inc()
	defer metrics.RunsActive.Dec()

	start := time.Now()
	outcome := outcomeFilteredOut
	defer func() {
		metrics.RunDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
		if h.obs != nil {
			h.obs.RecordRunProcessed(ctx, outcome)
			h.obs.RecordRunDuration(ctx, time.Since(start), outcome)
		}
	}()

	h.logger.Info("Received message", map[string]interface{}{
		"topic":               n.Topic,
		"imageDefinitionName": n.Body.ImageDefinitionName,
		"imageVersionName":    n.Body.ImageVersionName,
	})

	imageRef, ok := h.resolver.Resolve(n)
	if !ok {
		// Out of scope is a silent skip, not an error.
		metrics.RunsFilteredOut.Inc()
		return
	}

	ws, err := h.provisioner.Provision(n.Body.ImageDefinitionName)
	if err != nil {
		outcome = outcomeWorkspace
		metrics.RunsFailed.WithLabelValues("workspace").Inc()
		h.errorHandler.HandleRunError("", err)
		return
	}
	defer ws.Cleanup()
	defer func() {
		if r := recover(); r != nil {
			outcome = outcomeFailed
			metrics.RunsFailed.WithLabelValues("internal").Inc()
			h.errorHandler.HandleRunError(ws.RunName, fmt.Errorf("run panicked: %v", r))
		}
	}()

	if !h.invoker.Invoke(ctx, h.config.Region, imageRef, ws) {
		outcome = outcomeFailed
		metrics.RunsFailed.WithLabelValues("invocation").Inc()
		h.logger.Error("Run ended in FAILED state, no result published", map[string]interface{}{
			"runName": ws.RunName,
		})
		return
	}

	summary, err := h.extractor.Extract(ws)
	if err != nil {
		outcome = outcomeParseFailed
		metrics.RunsFailed.WithLabelValues("report").Inc()
		h.errorHandler.HandleRunError(ws.RunName, err)
		return
	}

	if !h.publisher.Publish(ctx, n, summary) {
		outcome = outcomePublishLost
		metrics.RunsFailed.WithLabelValues("publish").Inc()
		return
	}
	outcome = outcomePublished
	metrics.RunsPublished.Inc()
}
