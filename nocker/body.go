package nocker

import (
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"
)

var errBodyTooLarge = errors.New("request body too large")

// readBody reads at most limit bytes of the request body. Bodies over the
// server's body limit arrive as a stream and are never buffered past limit+1.
func readBody(c *fiber.Ctx, limit int) ([]byte, error) {
	stream := c.Context().RequestBodyStream()
	if stream == nil {
		body := c.Body()
		if len(body) > limit {
			return nil, errBodyTooLarge
		}

		return body, nil
	}

	body, err := io.ReadAll(io.LimitReader(stream, int64(limit)+1))
	if err != nil {
		return nil, err
	}

	if len(body) > limit {
		return nil, errBodyTooLarge
	}

	return body, nil
}
