package scene

import "github.com/hubastard/quadstack/engine/core"

// OrthoController2D pans with WASD and zooms with the scroll wheel.
type OrthoController2D struct {
	MoveSpeed float32 // world units per second at zoom 1
	ZoomSpeed float32 // zoom factor per scroll notch
	Camera    *OrthoCamera2D
}

func NewOrthoController2D(cam *OrthoCamera2D) *OrthoController2D {
	return &OrthoController2D{
		MoveSpeed: 240,
		ZoomSpeed: 1.2,
		Camera:    cam,
	}
}

func (cc *OrthoController2D) Update(in *core.Input, dt float32) {
	speed := cc.MoveSpeed * dt / cc.Camera.Zoom

	if in.IsKeyDown(core.KeyW) {
		cc.Camera.Move(0, speed)
	}
	if in.IsKeyDown(core.KeyS) {
		cc.Camera.Move(0, -speed)
	}
	if in.IsKeyDown(core.KeyA) {
		cc.Camera.Move(-speed, 0)
	}
	if in.IsKeyDown(core.KeyD) {
		cc.Camera.Move(speed, 0)
	}

	if dy := in.TakeScroll(); dy != 0 {
		z := cc.Camera.Zoom
		for ; dy > 0; dy-- {
			z *= cc.ZoomSpeed
		}
		for ; dy < 0; dy++ {
			z /= cc.ZoomSpeed
		}
		cc.Camera.SetZoom(z)
	}
}
