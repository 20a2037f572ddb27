package nocker

import (
	"bytes"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/zerbitx/nockpoint/encode"
	"github.com/zerbitx/nockpoint/stub"
)

var (
	statusRoute   = stub.ReservedPrefix + "/status"
	shutdownRoute = stub.ReservedPrefix + "/shutdown"
	addRoute      = stub.ReservedPrefix + "/" + stub.CommandAdd
	removeRoute   = stub.ReservedPrefix + "/" + stub.CommandRemove
)

type statusBody struct {
	Endpoints int64 `json:"endpoints"`
}

// control serves the reserved namespace. Unknown routes and wrong verbs get 405.
func (n *nocker) control(c *fiber.Ctx, url string) error {
	switch {
	case url == statusRoute:
		return n.command(c, "status", fiber.MethodGet, n.status)
	case url == shutdownRoute:
		return n.command(c, "shutdown", fiber.MethodPost, n.shutdown)
	case strings.HasPrefix(url, addRoute):
		return n.command(c, stub.CommandAdd, fiber.MethodPost, func(c *fiber.Ctx) error {
			return n.add(c, url)
		})
	case strings.HasPrefix(url, removeRoute):
		return n.command(c, stub.CommandRemove, fiber.MethodDelete, func(c *fiber.Ctx) error {
			return n.remove(c, url)
		})
	}

	c.Locals(commandKey, "unknown")

	return n.sendError(c, fiber.StatusMethodNotAllowed, "")
}

// command runs handler when the request uses method and answers 405 otherwise
func (n *nocker) command(c *fiber.Ctx, name, method string, handler fiber.Handler) error {
	c.Locals(commandKey, name)

	if c.Method() != method {
		return n.sendError(c, fiber.StatusMethodNotAllowed, "")
	}

	return handler(c)
}

func (n *nocker) status(c *fiber.Ctx) error {
	count, err := n.registry.Count(c.UserContext())
	if err != nil {
		return err
	}

	return n.sendResponse(c, fiber.StatusOK, statusBody{Endpoints: count})
}

// shutdown answers 204 on a connection that is closed afterwards, then stops
// the listener. In-flight responses on other connections may be cut off.
func (n *nocker) shutdown(c *fiber.Ctx) error {
	n.requestLogger(c).Warn("server is shutting down")

	c.Context().SetConnectionClose()

	go func() {
		if err := n.Shutdown(); err != nil {
			n.logger.WithError(err).Error("shutdown failed")
		}
	}()

	return n.sendResponse(c, fiber.StatusNoContent, nil)
}

// add registers the stub named by the URL with the definition in the body
func (n *nocker) add(c *fiber.Ctx, url string) error {
	logger := n.requestLogger(c)

	body, err := readBody(c, n.bodyLimit)
	if errors.Is(err, errBodyTooLarge) {
		logger.WithField("limit", n.bodyLimit).Error("request data exceeded maximum permitted length")
		c.Context().SetConnectionClose()
		return n.sendError(c, fiber.StatusRequestEntityTooLarge, "")
	}

	if err != nil {
		logger.WithError(err).Warn("failed to read request data")
		return fiber.ErrBadRequest
	}

	var registration stub.Registration
	if len(bytes.TrimSpace(body)) > 0 {
		if err := encode.Decode(body, &registration); err != nil {
			logger.WithError(err).Debug("rejecting endpoint definition")
			return stub.ErrMalformedDefinition
		}
	}

	key, err := stub.ParseAddTarget(url)
	if err != nil {
		return err
	}

	if err := n.registry.Put(c.UserContext(), key, registration.Definition()); err != nil {
		return err
	}

	return n.sendResponse(c, fiber.StatusCreated, key.String())
}

// remove deletes the stub named by the URL; absent stubs are not an error
func (n *nocker) remove(c *fiber.Ctx, url string) error {
	key, err := stub.ParseTarget(stub.CommandRemove, url)
	if err != nil {
		return err
	}

	if err := n.registry.Remove(c.UserContext(), key); err != nil {
		return err
	}

	return n.sendResponse(c, fiber.StatusNoContent, nil)
}
