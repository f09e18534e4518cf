package main

import (
	"context"
	"os"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := GetConfig()
	if err != nil {
		Logger.WithError(err).Fatal("Failed to load config")
	}
	ctx := context.Background()
	runID := uuid.NewString()
	log := Logger.WithFields(logrus.Fields{"runId": runID})

	rc, err := NewRedisClient(ctx, serverAddr)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to redis")
	}
	defer rc.Close()

	version, err := ProbeVersion(ctx, rc)
	if err != nil {
		log.WithError(err).Fatal("Failed to determine redis version")
	}
	if err := WriteVersion(os.Stdout, version); err != nil {
		log.WithError(err).Fatal("Failed to report redis version")
	}

	registry, err := NewSeenRegistry(cfg.SeenCapacity)
	if err != nil {
		log.WithError(err).Fatal("Failed to create seen registry")
	}

	var opts []MonitorOption
	opts = append(opts, WithLogger(log))
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		opts = append(opts, WithMetrics(NewMetrics(reg)))
		ServeMetrics(cfg.MetricsAddr, reg)
	}
	if cfg.ArchiveMongoURI != "" {
		archive, err := NewMongoArchive(ctx, cfg.ArchiveMongoURI, cfg.ArchiveDatabase, cfg.ArchiveCollection, runID, version)
		if err != nil {
			log.WithError(err).Fatal("Failed to open slowlog archive")
		}
		defer archive.Close()
		opts = append(opts, WithSinks(archive))
	}
	if cfg.GeminiAPIKey != "" {
		digest, err := NewGeminiLLMClient(ctx, cfg)
		if err != nil {
			log.WithError(err).Fatal("Failed to create digest client")
		}
		opts = append(opts, WithDigest(digest))
	}

	m := NewMonitor(rc, version, registry, NewLineReporter(os.Stdout), DefaultPollSettings(), opts...)
	log.WithFields(logrus.Fields{"addr": serverAddr, "schema": m.Schema().String()}).Info("Monitoring slowlog")
	if err := m.Run(ctx); err != nil {
		log.WithError(err).Fatal("Slowlog monitor stopped")
	}
}
