package central

import "github.com/geekforce/central.go/pkg/status"

// Outcome is the eventual result of one dispatched mutation. It is
// produced exactly once per mutation, after the remote call settles.
type Outcome struct {
	// Err is nil on success.
	Err *status.Error
}

// deliver hands a failed outcome to the registered write observer, at
// most once per mutation. With no observer registered the outcome is
// dropped, not queued. Observer panics are logged and swallowed: the
// dispatching caller returned long ago and has nothing to propagate
// them to.
func (c *Client) deliver(o Outcome) {
	if o.Err == nil {
		return
	}

	c.writeObserverLock.RLock()
	observer := c.writeObserver
	c.writeObserverLock.RUnlock()

	if observer == nil {
		c.logger.Warn("write rejected with no observer registered", "kind", o.Err.Kind, "error", o.Err.Message)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("write observer panicked", "panic", r)
		}
	}()
	observer(o.Err)
}
