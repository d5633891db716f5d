package scene

// ScreenProjection maps pixel coordinates with a top-left origin and Y
// pointing down onto clip space, for UI overlays and offscreen targets.
func ScreenProjection(width, height int) [16]float32 {
	return ortho(0, float32(width), float32(height), 0, -1, 1)
}

// Apply transforms the point (x, y) by the column-major matrix m.
func Apply(m [16]float32, x, y float32) (float32, float32) {
	return m[0]*x + m[4]*y + m[12], m[1]*x + m[5]*y + m[13]
}

// SetPosition moves the camera centre to (x, y) in world units.
func (c *OrthoCamera2D) SetPosition(x, y float32) {
	c.X, c.Y = x, y
	c.dirty = true
}

// Width and Height report the unzoomed view extent.
func (c *OrthoCamera2D) Width() float32  { return c.Right - c.Left }
func (c *OrthoCamera2D) Height() float32 { return c.Top - c.Bottom }
