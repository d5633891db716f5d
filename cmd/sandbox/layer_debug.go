package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hubastard/quadstack/engine/colors"
	"github.com/hubastard/quadstack/engine/core"
	"github.com/hubastard/quadstack/engine/gfx/renderer2d"
	"github.com/hubastard/quadstack/engine/profiler"
	"github.com/hubastard/quadstack/engine/scene"
)

// LayerDebug overlays batching statistics as bars and reports them in the
// window title. Ctrl+P logs them, P dumps a speedscope capture (profile
// builds only) and T purges the batch stack.
type LayerDebug struct {
	r2d   *renderer2d.Renderer2D
	stats *renderer2d.Statistics
	w, h  int
	tick  int
}

func (l *LayerDebug) OnAttach(e *core.Engine) {
	l.w, l.h = e.Window.FramebufferSize()
}

func (l *LayerDebug) OnDetach(e *core.Engine) {}

func (l *LayerDebug) OnUpdate(e *core.Engine, dt float64) {
	l.tick++
	if l.tick%60 == 0 {
		st := *l.stats
		e.Window.SetTitle(fmt.Sprintf("%s | draws %d quads %d slots %d depth %d",
			e.Config.Title, st.DrawCalls, st.QuadCount, st.BatchSlots, st.StackDepth))
	}
}

func (l *LayerDebug) OnRender(e *core.Engine, alpha float64) {
	st := *l.stats
	bars := []struct {
		v     int
		scale float32
		c     colors.Color
	}{
		{st.DrawCalls, 20, colors.Yellow},
		{st.QuadCount, 0.25, colors.Cyan},
		{st.BatchSlots, 20, colors.Magenta},
		{st.StackDepth, 20, colors.Green},
	}

	l.r2d.BeginScene(scene.ScreenProjection(l.w, l.h))
	l.r2d.DrawQuad(110, 50, 200, 80, colors.Black.WithAlpha(0.5), 0)
	for i, b := range bars {
		w := min(float32(b.v)*b.scale, 180)
		l.r2d.DrawQuad(20+w/2, float32(20+i*18), w, 12, b.c, 0)
	}
	if err := l.r2d.EndScene(); err != nil {
		core.Logger().Warn("sandbox: debug overlay", "err", err)
	}
}

func (l *LayerDebug) OnEvent(e *core.Engine, ev core.Event) bool {
	switch v := ev.(type) {
	case core.EventKey:
		if v.Down && v.Key == core.KeyP && (v.Mods&core.ModCtrl) != 0 {
			st := *l.stats
			core.Logger().Info("sandbox: batch stats",
				"draws", st.DrawCalls, "quads", st.QuadCount, "vertices", st.TotalVertexCount(),
				"textures", st.TextureCount, "slots", st.BatchSlots, "depth", st.StackDepth)
			return true
		}
		if v.Down && v.Key == core.KeyP {
			path := filepath.Join(os.TempDir(), "quadstack.speedscope.json")
			if err := profiler.WriteSpeedscope(path); err != nil {
				core.Logger().Warn("sandbox: profile dump", "err", err)
			} else {
				core.Logger().Info("sandbox: profile written", "path", path)
			}
			return true
		}
		if v.Down && v.Key == core.KeyT {
			l.r2d.Purge()
			core.Logger().Info("sandbox: batch stack purged")
			return true
		}
	case core.EventResize:
		l.w, l.h = v.W, v.H
	}
	return false
}
