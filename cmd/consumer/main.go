package main

import (
	"context"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"cloud-image-tests/internal/common/aws"
	"cloud-image-tests/internal/common/config"
	"cloud-image-tests/internal/common/database"
	"cloud-image-tests/internal/common/logger"
	"cloud-image-tests/internal/common/messaging"
	"cloud-image-tests/internal/common/observability"
	imagetest "cloud-image-tests/internal/workers/azure/image-test"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootstrap := logger.New("info", "console")
		bootstrap.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting image test consumer",
		zap.String("app", cfg.App.Name),
		zap.String("environment", cfg.App.Environment),
		zap.String("region", cfg.Azure.Region),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Delivery dedupe store (optional) ---
	var dedupe *messaging.DedupeStore
	if cfg.Redis.Address != "" {
		redisClient, err := database.NewRedis(cfg.Redis)
		if err != nil {
			zapLog.Fatal("redis init failed", zap.Error(err))
		}
		defer redisClient.Close()
		if err := redisClient.Ping(ctx); err != nil {
			zapLog.Warn("redis unreachable, delivery dedupe disabled", zap.Error(err))
		} else {
			dedupe = messaging.NewDedupeStore(redisClient.GetClient(), cfg.Redis.DedupeTTL)
		}
	}

	// --- Inbound bus connection ---
	consumerClient, err := messaging.NewClient(cfg.Messaging.AMQP.URL)
	if err != nil {
		zapLog.Fatal("AMQP consumer connection failed", zap.Error(err))
	}
	defer consumerClient.Close()

	// --- Outbound result transport ---
	var transport messaging.ResultPublisher
	switch cfg.Messaging.Transport {
	case "sns":
		transport, err = aws.NewSNSPublisher(ctx, cfg.Messaging.SNS.Region, cfg.Messaging.SNS.TopicARN)
		if err != nil {
			zapLog.Fatal("SNS publisher init failed", zap.Error(err))
		}
	default:
		publisherClient, err := messaging.NewClient(cfg.Messaging.AMQP.URL)
		if err != nil {
			zapLog.Fatal("AMQP publisher connection failed", zap.Error(err))
		}
		defer publisherClient.Close()
		transport = messaging.NewAMQPPublisher(publisherClient, cfg.Messaging.AMQP.Exchange)
	}

	// --- Pipeline ---
	pipelineCfg := imagetest.LoadConfig(cfg)
	publisher := imagetest.NewPublisher(cfg.Messaging.AMQP.PublishTopic, transport, log)
	handler := imagetest.NewHandler(pipelineCfg, publisher, obs, log)

	// --- Metrics endpoint ---
	go func() {
		http.Handle("/metrics", promhttp.Handler())
		if err := http.ListenAndServe(cfg.Metrics.Addr, nil); err != nil && err != http.ErrServerClosed {
			zapLog.Warn("metrics server stopped", zap.Error(err))
		}
	}()

	consumer := messaging.NewConsumer(consumerClient, cfg.Messaging.AMQP, dedupe, handler, log)
	if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
		zapLog.Fatal("consumer stopped", zap.Error(err))
	}

	zapLog.Info("Shutdown complete")
}
