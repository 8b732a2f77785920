package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"budgetbook/internal/amqp"
	"budgetbook/internal/backend"
	"budgetbook/internal/cli"
	"budgetbook/internal/config"
	"budgetbook/internal/launcher"
	"budgetbook/internal/log"
	"budgetbook/internal/sheets"
	"budgetbook/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		log.New(log.DefaultConfig()).Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg.LogLevel, os.Stdout)
	logger.Info("Starting budgetbook-mirror", log.FieldOperation, log.OpStartup)

	if err := run(cfg, logger); err != nil {
		logger.Error("Mirror worker stopped", log.FieldError, err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *log.Logger) error {
	if len(cfg.MirrorTargets) == 0 {
		return errors.New("no MIRROR_TARGETS configured, nothing to do")
	}
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}

	factory := backend.NewFactory(logger)
	setupCtx := context.Background()
	be, err := factory.CreateBackend(setupCtx, bcfg)
	if err != nil {
		return err
	}
	mirrors, err := factory.CreateMirrors(setupCtx, bcfg)
	if err != nil {
		return err
	}

	var consumer *amqp.Client
	if cfg.AMQPURL != "" {
		consumer, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return err
		}
	} else {
		logger.Info("AMQP disabled - mirrors are refreshed by periodic sync only")
	}

	cleanup := func() {
		if consumer != nil {
			consumer.Close()
		}
		if err := mirrors.Cleanup(); err != nil {
			logger.Warn("Failed to close mirrors", log.FieldError, err)
		}
		if be.Cleanup != nil {
			if err := be.Cleanup(); err != nil {
				logger.Warn("Failed to close backend", log.FieldError, err)
			}
		}
	}
	ctx, done := cli.GracefulShutdown(logger, cfg.ShutdownTimeout, nil)

	source := func(t launcher.Target) sheets.LedgerLoader { return be.Backend.StoreFor(t) }
	w := worker.NewMirrorWorker(source, be.Backend.List, mirrors.Mirrors, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.Run(gctx, cfg.MirrorSyncInterval)
	})
	if consumer != nil {
		g.Go(func() error {
			err := consumer.ConsumeLedgerChanged(gctx, w.HandleChange)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	err = g.Wait()
	cleanup()
	if ctx.Err() != nil {
		<-done
	}
	return err
}
