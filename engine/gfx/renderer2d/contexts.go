package renderer2d

import (
	"fmt"

	"github.com/hubastard/quadstack/engine/colors"
	"github.com/hubastard/quadstack/engine/core"
	"github.com/hubastard/quadstack/engine/gfx/quadbatch"
)

// Nested contexts. Entering or leaving one always finalizes the top batch,
// so content drawn inside a context is never merged with content outside
// it and painter's order is kept. The batch stack only provides the
// mechanics; the context stack here remembers what "outside" was.

// PushTarget redirects drawing into t, projected with vp, until PopTarget.
// The target is cleared to bg first; pass colors.Clear for a transparent
// pass. Clipping does not carry into the target.
func (rd *Renderer2D) PushTarget(t core.RenderTarget, vp [16]float32, bg colors.Color) {
	rd.ResumeTarget(t, vp)
	c := bg.Premultiplied()
	if err := rd.r.ClearTarget(t, c[0], c[1], c[2], c[3]); err != nil {
		rd.fail(fmt.Errorf("renderer2d: clear target: %w", err))
	}
}

// ResumeTarget is PushTarget without the clear: new content is drawn over
// what earlier passes left in t.
func (rd *Renderer2D) ResumeTarget(t core.RenderTarget, vp [16]float32) {
	st := rd.ctx().state
	st.Target = t
	st.Clip, st.Scissor = core.Rect{}, false
	rd.push(ctxTarget, vp, st)
}

func (rd *Renderer2D) PopTarget() error { return rd.popKind(ctxTarget) }

// PushClip restricts drawing to r (framebuffer pixels, top-left origin),
// intersected with any enclosing clip.
func (rd *Renderer2D) PushClip(r core.Rect) {
	st := rd.ctx().state
	if st.Scissor {
		r = st.Clip.Intersect(r)
	}
	st.Clip, st.Scissor = r, true
	rd.push(ctxClip, rd.ctx().vp, st)
}

func (rd *Renderer2D) PopClip() error { return rd.popKind(ctxClip) }

// PushEffect draws with pipeline p instead of the default quad shader. The
// pipeline must accept the quad vertex layout and the uVP/uTex uniforms.
func (rd *Renderer2D) PushEffect(p core.Pipeline) {
	st := rd.ctx().state
	st.Pipeline = p
	rd.push(ctxEffect, rd.ctx().vp, st)
}

func (rd *Renderer2D) PopEffect() error { return rd.popKind(ctxEffect) }

// ContextDepth is the number of open nested contexts.
func (rd *Renderer2D) ContextDepth() int { return len(rd.ctxs) - 1 }

func (rd *Renderer2D) push(kind contextKind, vp [16]float32, st quadbatch.State) {
	rd.finish()
	rd.ctxs = append(rd.ctxs, renderContext{kind: kind, vp: vp, state: st, depth: rd.stack.Pointer()})
}

func (rd *Renderer2D) popKind(kind contextKind) error {
	if len(rd.ctxs) == 1 {
		return fmt.Errorf("%w: pop %s with no open context", ErrUnbalancedContext, kind)
	}
	if inner := rd.ctx().kind; inner != kind {
		return fmt.Errorf("%w: pop %s while %s is innermost", ErrUnbalancedContext, kind, inner)
	}
	rd.pop()
	return nil
}

func (rd *Renderer2D) pop() {
	c := rd.ctx()
	rd.finish()
	core.Logger().Debug("renderer2d: context closed",
		"kind", c.kind, "batches", rd.stack.Pointer()-c.depth)
	rd.ctxs = rd.ctxs[:len(rd.ctxs)-1]
}
