package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carlmjohnson/versioninfo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	remoaircon "github.com/eivy/remo-aircon"
	"github.com/eivy/remo-aircon/bridge"
	"github.com/eivy/remo-aircon/metrics"
	"github.com/eivy/remo-aircon/mqtt"
	"github.com/eivy/remo-aircon/remo"
	"github.com/eivy/remo-aircon/server"
)

func gracefulShutdown(ctx context.Context, apiServer *http.Server, logger *zap.Logger, done chan bool) {
	// Listen for the interrupt signal.
	<-ctx.Done()

	logger.Info("shutting down gracefully, press Ctrl+C again to force")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func main() {
	dump := flag.Bool("dump", false, "print the discovered aircons as YAML and exit")
	versioninfo.AddFlag(nil)
	flag.Parse()

	cfg, err := remoaircon.ReadConfig()
	if err != nil {
		log.Fatalf("config errors: %v", err)
	}

	// zap logger
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	logger := zap.Must(zapCfg.Build())
	defer logger.Sync()

	logger.Info("starting", zap.String("version", versioninfo.Short()), zap.Any("config", cfg.Redacted()))

	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector := metrics.NewCollector()
	client := remo.NewClient(cfg.Remo.Token, metrics.NewTransport(collector, nil), logger.Named("remo"),
		remo.WithAllowList(cfg.Appliances))

	if *dump {
		b := bridge.New(client, cfg.DefaultTemperatures(), logger.Named("bridge"))
		if err := b.Discover(ctx); err != nil {
			logger.Fatal("discovery failed", zap.Error(err))
		}
		enc := yaml.NewEncoder(os.Stdout)
		defer enc.Close()
		if err := enc.Encode(b.States()); err != nil {
			logger.Fatal("dump failed", zap.Error(err))
		}
		return
	}

	opts := []bridge.Option{bridge.WithRecorder(collector)}
	var mqttClient *mqtt.Client
	if cfg.MQTT.Host != "" {
		mqttClient = mqtt.NewClient(mqtt.Config{
			Broker:           cfg.MQTT.Host,
			Port:             cfg.MQTT.Port,
			Username:         cfg.MQTT.Username,
			Password:         cfg.MQTT.Password,
			ClientID:         cfg.MQTT.ClientID,
			BaseTopic:        cfg.MQTT.BaseTopic,
			HADiscoveryTopic: cfg.MQTT.HADiscoveryTopic,
		}, logger.Named("mqtt"))
		if err := mqttClient.Connect(); err != nil {
			logger.Fatal("mqtt connect failed", zap.Error(err))
		}
		defer mqttClient.Disconnect()
		opts = append(opts, bridge.WithPublisher(mqttClient, cfg.MQTT.HADiscoveryEnable))
	} else {
		logger.Info("mqtt.host not set, mqtt disabled")
	}

	b := bridge.New(client, cfg.DefaultTemperatures(), logger.Named("bridge"), opts...)
	if err := b.Discover(ctx); err != nil {
		logger.Fatal("discovery failed", zap.Error(err))
	}

	if mqttClient != nil {
		if err := mqttClient.SubscribeCommands(ctx, b); err != nil {
			logger.Error("failed to subscribe to mqtt commands", zap.Error(err))
		}
	}

	go func() {
		if err := b.Run(ctx, cfg.PollInterval); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("poller stopped", zap.Error(err))
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collector,
		metrics.NewExporter(b, remo.NewSensorCache(client, cfg.PollInterval), logger.Named("exporter")),
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var serverOpts []server.Option
	if mqttClient != nil {
		serverOpts = append(serverOpts, server.WithBroker(mqttClient))
	}
	apiServer := server.NewServer(*cfg, b, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), serverOpts...)
	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(ctx, apiServer, logger, done)

	logger.Info("http server listening", zap.String("addr", apiServer.Addr))
	err = apiServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		logger.Fatal("http server error", zap.Error(err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	logger.Info("graceful shutdown complete")
}
