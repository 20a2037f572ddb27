package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/zerbitx/nockpoint/config"
	"github.com/zerbitx/nockpoint/metrics"
	"github.com/zerbitx/nockpoint/nocker"
	"github.com/zerbitx/nockpoint/registry"
	"github.com/zerbitx/nockpoint/store"
	"github.com/zerbitx/nockpoint/stub"
)

func main() {
	if err := newCommand(config.New()).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newCommand(cfg *config.Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "nockpoint",
		Short:         "Serve canned HTTP responses registered over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&cfg.Host, "host", "a", cfg.Host, "hostname to serve from")
	flags.IntVarP(&cfg.Port, "port", "p", cfg.Port, "port to utilize, the next free one is used if busy")
	flags.StringVarP(&cfg.Redis, "redis", "r", cfg.Redis, "redis host:port")
	flags.BoolVarP(&cfg.Silent, "silent", "s", cfg.Silent, "suppress logging")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")
	flags.IntVar(&cfg.MetricsPort, "metrics-port", cfg.MetricsPort, "port serving /metrics, 0 disables it")
	flags.StringVar(&cfg.SeedFile, "seed", cfg.SeedFile, "YAML file of stubs to register at startup")

	return cmd
}

func newLogger(cfg *config.Env) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if cfg.Silent {
		logger.SetOutput(io.Discard)
		return logger, nil
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(level)

	return logger, nil
}

func run(ctx context.Context, cfg *config.Env) error {
	logger, err := newLogger(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logger.WithError(err).WithField("redis", cfg.Redis).Error("failed to connect to endpoint store")
		return err
	}
	defer st.Close()

	reg := registry.New(st, registry.WithLogger(logger))

	if cfg.SeedFile != "" {
		if err := seed(ctx, reg, cfg.SeedFile, logger); err != nil {
			logger.WithError(err).Error("failed to seed endpoints")
			return err
		}
	}

	options := []nocker.Option{
		nocker.WithLogger(logger),
		nocker.WithHost(cfg.Host),
		nocker.WithPort(cfg.Port),
		nocker.WithPortAttempts(cfg.PortAttempts),
	}

	if cfg.MetricsPort != 0 {
		recorder := metrics.New()
		options = append(options, nocker.WithMetrics(recorder))

		metricsApp, err := serveMetrics(cfg, recorder, logger)
		if err != nil {
			logger.WithError(err).Error("failed to start metrics server")
			return err
		}
		defer metricsApp.Shutdown()
	}

	n := nocker.New(reg, options...)

	errc := make(chan error, 1)
	go func() {
		errc <- n.Start()
	}()

	var storeErrs <-chan error
	if cfg.StorePing > 0 {
		storeErrs = store.Monitor(ctx, st, cfg.StorePing)
	}

	select {
	case err := <-errc:
		if err != nil {
			logger.WithError(err).Error("server stopped")
		}
		return err
	case err := <-n.Fatal():
		logger.WithError(err).Error("endpoint store connection lost")
		return err
	case err := <-storeErrs:
		logger.WithError(err).Error("endpoint store connection lost")
		return err
	case <-ctx.Done():
		logger.Warn("server is shutting down")
		if err := n.Shutdown(); err != nil {
			return err
		}
	case <-n.Done():
	}

	return <-errc
}

// seed registers every stub in the YAML file at path
func seed(ctx context.Context, reg *registry.Registry, path string, logger logrus.FieldLogger) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	stubs, err := stub.LoadSeeds(f)
	if err != nil {
		return err
	}

	for key, def := range stubs {
		if err := reg.Put(ctx, key, def); err != nil {
			return err
		}
	}

	logger.WithFields(logrus.Fields{"file": path, "endpoints": len(stubs)}).Info("seeded endpoints")

	return nil
}

// serveMetrics binds the metrics port up front so a busy port fails startup,
// then serves /metrics in the background.
func serveMetrics(cfg *config.Env, recorder *metrics.Recorder, logger logrus.FieldLogger) (*fiber.App, error) {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.MetricsPort))

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("metrics port %d unavailable: %w", cfg.MetricsPort, err)
	}

	metricsApp := fiber.New(fiber.Config{DisableStartupMessage: true})
	metricsApp.Get("/metrics", adaptor.HTTPHandler(recorder.Handler()))

	go func() {
		logger.WithField("address", "http://"+ln.Addr().String()).Info("metrics listening")

		if err := metricsApp.Listener(ln); err != nil {
			logger.WithError(err).Error("metrics server stopped")
		}
	}()

	return metricsApp, nil
}
