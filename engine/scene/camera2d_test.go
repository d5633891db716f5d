package scene

import (
	"math"
	"testing"

	"github.com/hubastard/quadstack/engine/core"
)

func near(a, b float32) bool { return math.Abs(float64(a-b)) < 1e-5 }

func TestScreenProjectionCorners(t *testing.T) {
	m := ScreenProjection(800, 600)
	tests := []struct {
		x, y, wx, wy float32
	}{
		{0, 0, -1, 1},
		{800, 600, 1, -1},
		{400, 300, 0, 0},
	}
	for _, tt := range tests {
		gx, gy := Apply(m, tt.x, tt.y)
		if !near(gx, tt.wx) || !near(gy, tt.wy) {
			t.Errorf("Apply(%v, %v) = (%v, %v), want (%v, %v)", tt.x, tt.y, gx, gy, tt.wx, tt.wy)
		}
	}
}

func TestCameraZoomAndPan(t *testing.T) {
	c := NewOrtho2D(200, 100)
	if x, y := Apply(c.VP(), 100, 50); !near(x, 1) || !near(y, 1) {
		t.Errorf("corner at zoom 1 = (%v, %v), want (1, 1)", x, y)
	}

	c.SetZoom(2)
	if x, _ := Apply(c.VP(), 50, 0); !near(x, 1) {
		t.Errorf("x at zoom 2 = %v, want 1", x)
	}

	c.SetZoom(1)
	c.Move(10, 5)
	if x, y := Apply(c.VP(), 10, 5); !near(x, 0) || !near(y, 0) {
		t.Errorf("camera centre = (%v, %v), want (0, 0)", x, y)
	}
}

func TestSetZoomClamp(t *testing.T) {
	c := NewOrtho2D(10, 10)
	c.SetZoom(0)
	if c.Zoom != 0.05 {
		t.Errorf("Zoom = %v, want 0.05", c.Zoom)
	}
}

func TestCameraSize(t *testing.T) {
	c := NewOrtho2D(320, 240)
	if c.Width() != 320 || c.Height() != 240 {
		t.Errorf("size = %vx%v, want 320x240", c.Width(), c.Height())
	}
	c.SetViewportPixels(64, 32)
	if c.Width() != 64 || c.Height() != 32 {
		t.Errorf("size after resize = %vx%v, want 64x32", c.Width(), c.Height())
	}
}

func TestControllerScrollZoom(t *testing.T) {
	c := NewOrtho2D(100, 100)
	cc := NewOrthoController2D(c)
	in := core.NewInput()
	in.Handle(core.EventScroll{Yoff: 2})
	cc.Update(in, 0)
	if !near(c.Zoom, 1.44) {
		t.Errorf("Zoom = %v, want 1.44", c.Zoom)
	}
	cc.Update(in, 0)
	if !near(c.Zoom, 1.44) {
		t.Error("scroll was applied twice")
	}
}

func TestControllerPan(t *testing.T) {
	c := NewOrtho2D(100, 100)
	cc := NewOrthoController2D(c)
	in := core.NewInput()
	in.Handle(core.EventKey{Key: core.KeyD, Down: true})
	cc.Update(in, 0.5)
	if !near(c.X, 120) || c.Y != 0 {
		t.Errorf("position = (%v, %v), want (120, 0)", c.X, c.Y)
	}
}
