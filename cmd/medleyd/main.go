package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"medley/internal/audit"
	"medley/internal/config"
	"medley/internal/deps"
	"medley/internal/logging"
	"medley/internal/notifications"
	"medley/internal/plugin"
	"medley/internal/policy"
	"medley/internal/preflight"
	"medley/internal/synth"
	"medley/internal/worker"
)

func main() {
	var configPath string
	var scanInterval time.Duration
	var once bool
	pflag.StringVarP(&configPath, "config", "c", "", "Configuration file path")
	pflag.DurationVar(&scanInterval, "scan-interval", time.Minute, "Delay between library sweeps")
	pflag.BoolVar(&once, "once", false, "Sweep the library once, drain the queue, and exit")
	pflag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, logging.RetentionTarget{
		Dir:     cfg.Paths.LogDir,
		Pattern: "*.log",
		Exclude: []string{"medley.log"},
	})

	for _, status := range deps.CheckBinaries(deps.Requirements(cfg)) {
		if status.Available || status.Optional {
			continue
		}
		logger.Warn("required tool missing",
			logging.String("tool", status.Name),
			logging.String("detail", status.Detail))
	}
	for _, check := range preflight.RunAll(ctx, cfg) {
		if check.Passed {
			continue
		}
		logger.Warn("preflight check failed",
			logging.String("check", check.Name),
			logging.String("detail", check.Detail))
	}

	cache := policy.NewCache()
	pol, err := cache.Get(cfg.Paths.PolicyPath)
	if err != nil {
		logger.Error("load policy", logging.Error(err))
		return
	}
	logger.Info("policy loaded",
		logging.String("version", pol.VersionLabel()),
		logging.Int("rules", len(pol.Rules)))

	store, err := audit.Open(cfg.Paths.AuditDBPath)
	if err != nil {
		logger.Error("open audit store", logging.Error(err))
		return
	}
	defer store.Close()

	var capabilities *synth.Capabilities
	if len(pol.Synthesis) > 0 {
		encoders, err := deps.DetectEncoders(ctx, cfg.Tools.FFmpeg)
		if err != nil {
			logger.Warn("encoder detection failed, synthesis targets will be skipped",
				logging.Error(err))
		} else {
			capabilities = synth.NewCapabilities(encoders)
			logger.Info("encoders detected", logging.Int("count", len(encoders)))
		}
	}

	sources, err := plugin.FromConfig(cfg, logger)
	if err != nil {
		logger.Error("configure plugins", logging.Error(err))
		return
	}

	pipeline, err := buildPipeline(cfg, pol, store, capabilities, sources, logger)
	if err != nil {
		logger.Error("build pipeline", logging.Error(err))
		return
	}

	notifier := notifications.NewService(cfg)
	processor := worker.ProcessorFunc(func(ctx context.Context, path string) error {
		err := pipeline.Process(ctx, path)
		if err != nil && ctx.Err() == nil {
			if notifyErr := notifier.NotifyFileFailed(ctx, path, err); notifyErr != nil {
				logger.Warn("failure notification not delivered", logging.Error(notifyErr))
			}
		}
		return err
	})

	pool := worker.NewPoolWithQueueDepth(processor, cfg.Workers.Count, cfg.Workers.QueueDepth, logger)
	pool.Start(ctx)

	scanner := worker.NewScanner(cfg.Paths.LibraryDirs, cfg.Eligible, pool.Enqueue, logger)

	logger.Info("medleyd started",
		logging.Int("workers", pool.Size()),
		logging.Duration("scan_interval", scanInterval))

	if once {
		count, err := scanner.Scan(ctx)
		if err != nil {
			logger.Error("library scan failed", logging.Error(err))
		} else {
			logger.Info("library scan enqueued files", logging.Int("count", count))
		}
		pool.Stop()
		if err == nil {
			if notifyErr := notifier.NotifySweepCompleted(ctx, count); notifyErr != nil {
				logger.Warn("sweep notification not delivered", logging.Error(notifyErr))
			}
		}
		logger.Info("medleyd finished")
		return
	}

	err = scanner.Run(ctx, scanInterval)
	if err != nil && ctx.Err() == nil {
		logger.Error("scanner stopped", logging.Error(err))
	}

	logger.Info("medleyd shutting down")
	pool.Stop()
}
