package live

// subscription counts how often a point was registered in each role.
type subscription struct {
	input  int
	output int
}

type role int

const (
	roleInput role = iota
	roleOutput
)

// SetInput subscribes lid for reading. Calls are counted: a point set N
// times stays subscribed until it is unset N times. A point that is
// currently an output cannot become an input.
func (c *Client) SetInput(lid int32) error {
	return c.subscribe(&c.fns.setInput, lid, roleInput)
}

// SetOutput registers lid as originated by this client. A point that is
// currently an input cannot become an output.
func (c *Client) SetOutput(lid int32) error {
	return c.subscribe(&c.fns.setOutput, lid, roleOutput)
}

// UnsetInput drops one input subscription of lid.
func (c *Client) UnsetInput(lid int32) error {
	return c.unsubscribe(&c.fns.unsetInput, lid, roleInput)
}

// UnsetOutput drops one output registration of lid.
func (c *Client) UnsetOutput(lid int32) error {
	return c.unsubscribe(&c.fns.unsetOutput, lid, roleOutput)
}

// Subscriptions returns the input and output counts of lid.
func (c *Client) Subscriptions(lid int32) (input, output int) {
	if s, ok := c.subs[lid]; ok {
		return s.input, s.output
	}
	return 0, 0
}

func (c *Client) subscribe(b *binding[lidFunc], lid int32, r role) error {
	fn, conn, err := dispatch(c, b)
	if err != nil {
		return err
	}

	s := c.subs[lid]
	if s == nil {
		s = &subscription{}
	}
	mine, other := s.counts(r)
	if *mine == 0 && *other > 0 {
		return &BackendError{Code: CodeBidirectionalPoint}
	}

	if err := codeError(fn(conn, lid)); err != nil {
		return err
	}
	*mine++
	c.subs[lid] = s
	return nil
}

func (c *Client) unsubscribe(b *binding[lidFunc], lid int32, r role) error {
	fn, conn, err := dispatch(c, b)
	if err != nil {
		return err
	}
	if err := codeError(fn(conn, lid)); err != nil {
		return err
	}

	s, ok := c.subs[lid]
	if !ok {
		return nil
	}
	mine, _ := s.counts(r)
	if *mine > 0 {
		*mine--
	}
	if s.input == 0 && s.output == 0 {
		delete(c.subs, lid)
	}
	return nil
}

func (s *subscription) counts(r role) (mine, other *int) {
	if r == roleInput {
		return &s.input, &s.output
	}
	return &s.output, &s.input
}

// SynchronizeInput fetches new values of input points from the server.
//
// A retryable error (NotLoggedIn, NotSynchronized) means the connection is
// still being established; the client moves to StateConnecting and the call
// should be repeated.
func (c *Client) SynchronizeInput() error {
	fn, conn, err := dispatch(c, &c.fns.synchronizeInput)
	if err != nil {
		return err
	}
	err = codeError(fn(conn))
	switch {
	case err == nil:
		c.state = StateActive
	case IsRetryable(err):
		c.state = StateConnecting
	}
	return err
}

// SynchronizeOutput sends values written since the last call to the server.
func (c *Client) SynchronizeOutput() error {
	fn, conn, err := dispatch(c, &c.fns.synchronizeOutput)
	if err != nil {
		return err
	}
	return codeError(fn(conn))
}

// IsUpdateRequired reports whether the server expects output points to be
// refreshed.
func (c *Client) IsUpdateRequired() (bool, error) {
	return connBool(c, &c.fns.isUpdateRequired)
}

// StaticInfoChanged reports whether point metadata changed during the last
// SynchronizeInput.
func (c *Client) StaticInfoChanged() (bool, error) {
	return connBool(c, &c.fns.staticInfoChanged)
}

// DynamicInfoChanged reports whether point values changed during the last
// SynchronizeInput.
func (c *Client) DynamicInfoChanged() (bool, error) {
	return connBool(c, &c.fns.dynamicInfoChanged)
}

func connBool(c *Client, b *binding[connBoolFunc]) (bool, error) {
	fn, conn, err := dispatch(c, b)
	if err != nil {
		return false, err
	}
	var status int32
	v := fn(conn, &status)
	if err := codeError(status); err != nil {
		return false, err
	}
	return v, nil
}
