package guard

import "fmt"

// Source is the session state a Client watches.
type Source interface {
	IsAuthenticated() bool
	Subscribe(fn func(authenticated bool)) (cancel func())
}

// Client is the client-side guard. It owns the current path and re-runs
// Decide whenever the path or the session changes, so a logout on a
// protected page is caught without a new navigation.
//
// Re-evaluation happens synchronously inside Navigate or inside the
// session's change notification.
type Client struct {
	src    Source
	routes Routes
	path   string
	cancel func()

	onRedirect func(from, to string)
}

type ClientOption func(*Client)

// OnRedirect registers a hook run after every redirect the client applies.
func OnRedirect(fn func(from, to string)) ClientOption {
	return func(c *Client) { c.onRedirect = fn }
}

// NewClient starts watching src. The route table is validated so that a
// misconfiguration fails at construction instead of looping at runtime.
func NewClient(src Source, routes Routes, opts ...ClientOption) (*Client, error) {
	if err := routes.Validate(); err != nil {
		return nil, fmt.Errorf("guard client: %w", err)
	}
	c := &Client{src: src, routes: routes, path: routes.LandingPath}
	for _, o := range opts {
		o(c)
	}
	c.cancel = src.Subscribe(func(bool) { c.evaluate() })
	return c, nil
}

// Navigate moves to p and returns where the client ends up.
func (c *Client) Navigate(p string) string {
	c.path = p
	c.evaluate()
	return c.path
}

// Path is the current location.
func (c *Client) Path() string { return c.path }

// Close stops watching the session.
func (c *Client) Close() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Client) evaluate() {
	target, ok := Decide(c.src.IsAuthenticated(), c.path, c.routes)
	if !ok {
		return
	}
	from := c.path
	c.path = target
	if c.onRedirect != nil {
		c.onRedirect(from, target)
	}
}
