package nocker

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/zerbitx/nockpoint/registry"
	"github.com/zerbitx/nockpoint/stub"
)

// dispatch replays the stub registered for the request's method and raw URL,
// or answers a bare 404.
func (n *nocker) dispatch(c *fiber.Ctx, url string) error {
	key := stub.Key{Method: c.Method(), Path: url}

	def, err := n.registry.Lookup(c.UserContext(), key)
	if errors.Is(err, registry.ErrNotFound) {
		n.metrics.StubServed(false)
		return n.sendError(c, fiber.StatusNotFound, "")
	}

	if err != nil {
		return err
	}

	n.metrics.StubServed(true)

	// Stubs carry their own Content-Type, if any.
	c.Response().Header.SetNoDefaultContentType(true)
	c.Status(def.StatusCode())

	pairs, skipped := def.HeaderPairs()
	if len(skipped) > 0 {
		n.requestLogger(c).WithField("headers", skipped).Warn("skipping malformed stub headers")
	}

	for _, h := range pairs {
		c.Set(h.Name, h.Value)
	}

	return c.SendString(def.Response)
}
