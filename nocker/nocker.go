package nocker

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
	"github.com/zerbitx/nockpoint/encode"
	"github.com/zerbitx/nockpoint/metrics"
	"github.com/zerbitx/nockpoint/store"
	"github.com/zerbitx/nockpoint/stub"
)

type (
	// Registry is the endpoint storage stub traffic is replayed from.
	Registry interface {
		Lookup(ctx context.Context, key stub.Key) (stub.Definition, error)
		Put(ctx context.Context, key stub.Key, def stub.Definition) error
		Remove(ctx context.Context, key stub.Key) error
		Count(ctx context.Context) (int64, error)
	}

	nocker struct {
		app          *fiber.App
		registry     Registry
		logger       logrus.FieldLogger
		metrics      *metrics.Recorder
		host         string
		port         int
		portAttempts int
		bodyLimit    int

		done         chan struct{}
		fatal        chan error
		shutdownOnce sync.Once
		shutdownErr  error
	}

	config struct {
		port         int
		portAttempts int
		host         string
		bodyLimit    int
		logger       logrus.FieldLogger
		metrics      *metrics.Recorder
	}

	// Option is a function that can modify a default config
	Option func(c *config)

	errorBody struct {
		Error string `json:"error"`
	}
)

const (
	// ServerHeader is sent on every response
	ServerHeader = "NockPoint"

	// MaxAddBodySize is the largest add command body accepted, in bytes
	MaxAddBodySize = 1_000_000
)

// New returns a new nocker serving from reg, by default on localhost:8080
func New(reg Registry, options ...Option) *nocker {
	c := &config{
		port:         8080,
		portAttempts: 1,
		host:         "localhost",
		bodyLimit:    MaxAddBodySize,
		logger:       logrus.StandardLogger(),
	}

	for _, applyOption := range options {
		applyOption(c)
	}

	n := &nocker{
		registry:     reg,
		logger:       c.logger,
		metrics:      c.metrics,
		host:         c.host,
		port:         c.port,
		portAttempts: c.portAttempts,
		bodyLimit:    c.bodyLimit,
		done:         make(chan struct{}),
		fatal:        make(chan error, 1),
	}

	n.app = fiber.New(fiber.Config{
		ServerHeader:          ServerHeader,
		DisableStartupMessage: true,
		BodyLimit:             c.bodyLimit,
		StreamRequestBody:     true,
		ErrorHandler:          n.handleError,
	})

	n.app.Use(n.logExchange)
	n.app.Use(recover.New())
	n.app.Use(n.route)

	return n
}

// WithLogger overrides the default logger
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithHost sets the host
func WithHost(host string) Option {
	return func(c *config) {
		c.host = host
	}
}

// WithPort sets the first port tried
func WithPort(port int) Option {
	return func(c *config) {
		c.port = port
	}
}

// WithPortAttempts sets how many consecutive ports are tried when the first is busy
func WithPortAttempts(attempts int) Option {
	return func(c *config) {
		c.portAttempts = attempts
	}
}

// WithBodyLimit overrides MaxAddBodySize
func WithBodyLimit(limit int) Option {
	return func(c *config) {
		c.bodyLimit = limit
	}
}

// WithMetrics records stub and control traffic
func WithMetrics(m *metrics.Recorder) Option {
	return func(c *config) {
		c.metrics = m
	}
}

// Listen binds the configured host to the first free port in the search range.
func (n *nocker) Listen() (net.Listener, error) {
	return listen(n.host, n.port, n.portAttempts)
}

// Start listens and serves until Shutdown
func (n *nocker) Start() error {
	ln, err := n.Listen()
	if err != nil {
		return err
	}

	return n.Serve(ln)
}

// Serve serves on an existing listener until Shutdown
func (n *nocker) Serve(ln net.Listener) error {
	n.logger.WithField("address", "http://"+ln.Addr().String()).Info("server listening")

	return n.app.Listener(ln)
}

// Shutdown stops accepting connections and waits for open ones to close.
// Calling it again returns the first result.
func (n *nocker) Shutdown() error {
	n.shutdownOnce.Do(func() {
		close(n.done)

		if err := n.app.Shutdown(); err != nil {
			n.shutdownErr = fmt.Errorf("failed to shutdown app %w", err)
		}

		n.logger.Info("server connection closed")
	})

	return n.shutdownErr
}

// Done is closed once shutdown has begun
func (n *nocker) Done() <-chan struct{} {
	return n.done
}

// Fatal delivers the first store failure seen while serving. The process is
// expected to exit when it fires.
func (n *nocker) Fatal() <-chan error {
	return n.fatal
}

func (n *nocker) reportFatal(err error) {
	select {
	case n.fatal <- err:
	default:
	}
}

// handleError translates errors returned by handlers into responses.
func (n *nocker) handleError(c *fiber.Ctx, err error) error {
	var (
		validationErr  *stub.ValidationError
		unavailableErr *store.UnavailableError
		fiberErr       *fiber.Error
	)

	switch {
	case errors.As(err, &validationErr):
		return n.sendError(c, fiber.StatusBadRequest, validationErr.Reason)
	case errors.As(err, &unavailableErr):
		n.logger.WithError(err).Error("endpoint store failure")
		n.reportFatal(err)
		return n.sendError(c, fiber.StatusServiceUnavailable, "Endpoint store unavailable.")
	case errors.As(err, &fiberErr):
		return n.sendError(c, fiberErr.Code, "")
	}

	n.logger.WithError(err).Error("request failed")

	return n.sendError(c, fiber.StatusInternalServerError, "")
}

// sendError responds with code and, when a message is given, {"error": message}
func (n *nocker) sendError(c *fiber.Ctx, code int, message string) error {
	if message == "" {
		return n.sendResponse(c, code, nil)
	}

	return n.sendResponse(c, code, errorBody{Error: message})
}

// sendResponse writes a JSON control-plane response; a nil data sends no body
func (n *nocker) sendResponse(c *fiber.Ctx, code int, data interface{}) error {
	c.Status(code)
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	if data == nil {
		return nil
	}

	return encode.JSON(data, c)
}
