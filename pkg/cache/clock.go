package cache

// FrameClock counts evaluation cycles.
type FrameClock struct {
	frame int64
}

// NewFrameClock creates a clock at frame 0.
func NewFrameClock() *FrameClock {
	return &FrameClock{}
}

// Advance moves to the next frame and returns it.
func (c *FrameClock) Advance() int64 {
	c.frame++
	return c.frame
}

// Now returns the current frame.
func (c *FrameClock) Now() int64 {
	return c.frame
}
