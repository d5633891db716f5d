package main

import (
	"math"

	"github.com/hubastard/quadstack/engine/colors"
	"github.com/hubastard/quadstack/engine/core"
	"github.com/hubastard/quadstack/engine/gfx/renderer2d"
	"github.com/hubastard/quadstack/engine/profiler"
	"github.com/hubastard/quadstack/engine/scene"
)

const offscreenSize = 256

// Layer2D draws a scene that walks every batching path: a large sprite
// field, blend changes, an offscreen pass composited back and a clip region.
type Layer2D struct {
	cam    *scene.OrthoCamera2D
	ctrl   *scene.OrthoController2D
	r2d    *renderer2d.Renderer2D
	sprite core.Texture
	target core.RenderTarget
	effect core.Pipeline // optional, applied to the sprite field
	stats  *renderer2d.Statistics
	t      float32
	w, h   int
}

func (l *Layer2D) OnAttach(e *core.Engine) {
	l.w, l.h = e.Window.FramebufferSize()
	l.cam = scene.NewOrtho2D(l.w, l.h)
	l.ctrl = scene.NewOrthoController2D(l.cam)
}

func (l *Layer2D) OnDetach(e *core.Engine) {}

func (l *Layer2D) OnUpdate(e *core.Engine, dt float64) {
	l.ctrl.Update(e.Input, float32(dt))
	l.t += float32(dt)

	if e.Input.IsKeyDown(core.KeyEscape) {
		e.Window.RequestClose()
	}
}

func (l *Layer2D) OnRender(e *core.Engine, alpha float64) {
	defer profiler.Start("sandbox.scene")()

	// bottom layer: the frame starts here and the debug overlay adds a
	// second scene to it
	l.r2d.BeginFrame()
	l.r2d.BeginScene(l.cam.VP())

	// sprite field: one batch regardless of count
	if l.effect != nil {
		l.r2d.PushEffect(l.effect)
	}
	for y := -10; y < 10; y++ {
		for x := -16; x < 16; x++ {
			tint := colors.Cyan.Lerp(colors.Magenta, float32(x+16)/32)
			l.r2d.DrawTexturedQuad(float32(x)*36, float32(y)*36, 32, 32, l.sprite, tint, l.t*0.5)
		}
	}

	if l.effect != nil {
		if err := l.r2d.PopEffect(); err != nil {
			core.Logger().Warn("sandbox: pop effect", "err", err)
		}
	}

	// additive glow forces a state change
	l.r2d.SetBlendMode(core.BlendAdditive)
	for i := 0; i < 12; i++ {
		a := float64(l.t) + float64(i)*math.Pi/6
		l.r2d.DrawQuad(float32(math.Cos(a))*200, float32(math.Sin(a))*200, 48, 48, colors.Yellow.WithAlpha(0.4), 0)
	}
	l.r2d.SetBlendMode(core.BlendNormal)

	// offscreen pass, composited onto the scene afterwards
	l.r2d.PushTarget(l.target, scene.ScreenProjection(offscreenSize, offscreenSize), colors.Black.WithAlpha(0.3))
	for i := 0; i < 8; i++ {
		s := float32(offscreenSize) / 8
		h := offscreenSize * (0.5 + 0.4*float32(math.Sin(float64(l.t)*2+float64(i))))
		l.r2d.DrawQuad(s*float32(i)+s/2, offscreenSize-h/2, s*0.8, h, colors.Red.Lerp(colors.Blue, float32(i)/7), 0)
	}
	if err := l.r2d.PopTarget(); err != nil {
		core.Logger().Warn("sandbox: pop target", "err", err)
	}
	l.r2d.DrawTarget(0, 0, offscreenSize, offscreenSize, l.target, colors.White.WithAlpha(0.9))

	// clip region in framebuffer pixels
	l.r2d.PushClip(core.Rect{X: int32(l.w/2 - 100), Y: int32(l.h/2 - 60), W: 200, H: 120})
	l.r2d.DrawTexturedQuad(0, 0, 400, 400, l.sprite, colors.Green, -l.t)
	if err := l.r2d.PopClip(); err != nil {
		core.Logger().Warn("sandbox: pop clip", "err", err)
	}

	if err := l.r2d.EndScene(); err != nil {
		core.Logger().Warn("sandbox: scene", "err", err)
	}
	*l.stats = l.r2d.Stats()
}

func (l *Layer2D) OnEvent(e *core.Engine, ev core.Event) bool {
	if v, ok := ev.(core.EventResize); ok {
		l.w, l.h = v.W, v.H
		l.cam.SetViewportPixels(v.W, v.H)
	}
	return false
}
