package viz

import "math"

// Camera projects world-space particle positions onto the canvas. World
// coordinates are expected pre-normalized to roughly [-1, 1] on each axis;
// the player handles that scaling.
type Camera struct {
	RotX, RotY float64
	Zoom       float64
	dist       float64
}

func NewCamera() *Camera {
	return &Camera{Zoom: 1.0, dist: 4.0}
}

func (c *Camera) RotateX(a float64) { c.RotX += a }
func (c *Camera) RotateY(a float64) { c.RotY += a }
func (c *Camera) ZoomIn()           { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut()          { c.Zoom = math.Max(0.1, c.Zoom/1.2) }
func (c *Camera) Reset()            { c.RotX, c.RotY, c.Zoom = 0, 0, 1.0 }

func (c *Camera) rotate(x, y, z float64) (float64, float64, float64) {
	cx, sx := math.Cos(c.RotX), math.Sin(c.RotX)
	y, z = y*cx-z*sx, y*sx+z*cx
	cy, sy := math.Cos(c.RotY), math.Sin(c.RotY)
	x, z = x*cy+z*sy, -x*sy+z*cy
	return x, y, z
}

// Project converts a world point to sub-pixel canvas coordinates. The
// returned bool reports whether the point lies in front of the camera.
func (c *Camera) Project(x, y, z float64, sw, sh int) (int, int, bool) {
	rx, ry, rz := c.rotate(x, y, z)
	rx, ry, rz = rx*c.Zoom, ry*c.Zoom, rz*c.Zoom

	if rz >= c.dist-0.1 {
		return 0, 0, false
	}
	persp := c.dist / (c.dist - rz)

	minDim := float64(sh)
	if float64(sw) < minDim {
		minDim = float64(sw)
	}
	scale := minDim / 3.0

	sx := int(rx*persp*scale) + sw/2
	sy := int(-ry*persp*scale) + sh/2
	return sx, sy, true
}
