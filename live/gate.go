package live

import (
	"errors"

	"github.com/roach88/edsapi/backend"
)

// resolve returns the function behind b without requiring a connection.
// Checks run in a fixed order: a missing export is reported before a closed
// client, so callers learn about capability gaps even after Close.
func resolve[F any](c *Client, b *binding[F]) (F, error) {
	var zero F
	if !b.fn.Resolved() {
		return zero, c.unsupported(b.info)
	}
	fn, err := b.fn.Get()
	if err != nil {
		if errors.Is(err, backend.ErrReleased) {
			return zero, ErrClientClosed
		}
		return zero, err
	}
	return fn, nil
}

// dispatch is resolve plus the connection check every non-initialization
// operation needs.
func dispatch[F any](c *Client, b *binding[F]) (F, uintptr, error) {
	fn, err := resolve(c, b)
	if err != nil {
		return fn, 0, err
	}
	if c.conn == 0 {
		var zero F
		return zero, 0, ErrUninitializedClient
	}
	return fn, c.conn, nil
}

func (c *Client) unsupported(e Export) error {
	return &UnsupportedFunctionError{
		Method:  e.Method,
		Symbol:  e.Symbol,
		Version: c.version,
		Since:   e.Since,
	}
}
