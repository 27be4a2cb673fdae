package relay

// ViewerCount tracks connected sessions. It is not synchronised on its own;
// the hub mutates it under its lock.
type ViewerCount struct {
	n int
}

// Inc adds a viewer and returns the new count.
func (c *ViewerCount) Inc() int {
	c.n++
	return c.n
}

// Dec removes a viewer and returns the new count. It never goes below zero.
func (c *ViewerCount) Dec() int {
	if c.n > 0 {
		c.n--
	}
	return c.n
}

// Value returns the current count.
func (c *ViewerCount) Value() int {
	return c.n
}
