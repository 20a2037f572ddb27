package nocker

import (
	"errors"
	"fmt"
	"net"
	"strconv"
)

const maxPort = 65535

// listen tries port, port+1, ... until one binds or attempts run out.
// Port 0 binds an ephemeral port on the first attempt.
func listen(host string, port, attempts int) (net.Listener, error) {
	if attempts < 1 {
		attempts = 1
	}

	lastErr := errors.New("port out of range")
	for p := port; p < port+attempts && p <= maxPort; p++ {
		ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(p)))
		if err == nil {
			return ln, nil
		}

		lastErr = err
	}

	return nil, fmt.Errorf("server could not start on %s port %d (%d attempts): %w", host, port, attempts, lastErr)
}
