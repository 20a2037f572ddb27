package nocker

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/zerbitx/nockpoint/stub"
)

const (
	loggerKey  = "nockpoint.logger"
	commandKey = "nockpoint.command"
)

// logExchange logs every request and the response it produced, and records
// control-plane metrics once the final status is known.
func (n *nocker) logExchange(c *fiber.Ctx) error {
	logger := n.logger.WithFields(logrus.Fields{
		"request": uuid.NewString(),
		"method":  c.Method(),
		"url":     utils.CopyString(c.OriginalURL()),
	})
	logger.Info("request")
	c.Locals(loggerKey, logger)

	if err := c.Next(); err != nil {
		if handleErr := n.handleError(c, err); handleErr != nil {
			logger.WithError(handleErr).Error("failed to send error response")
		}
	}

	status := c.Response().StatusCode()
	if command, ok := c.Locals(commandKey).(string); ok {
		n.metrics.ControlHandled(command, status)
	}

	logger.WithFields(logrus.Fields{
		"status": status,
		"body":   string(c.Response().Body()),
	}).Info("response")

	return nil
}

// requestLogger returns the logger carrying the request id
func (n *nocker) requestLogger(c *fiber.Ctx) logrus.FieldLogger {
	if logger, ok := c.Locals(loggerKey).(logrus.FieldLogger); ok {
		return logger
	}

	return n.logger
}

// route sends anything mentioning the reserved prefix to the control plane
// and everything else to the stub dispatcher. No body has been read yet.
func (n *nocker) route(c *fiber.Ctx) error {
	url := utils.CopyString(c.OriginalURL())

	if !strings.Contains(url, stub.ReservedPrefix) {
		return n.dispatch(c, url)
	}

	return n.control(c, url)
}
