package glbackend

import (
	"errors"
	"fmt"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/hubastard/quadstack/engine/core"
)

// RendererGL implements core.Renderer on an OpenGL 3.3 core context. The
// context must be current on the calling thread.
type RendererGL struct {
	win  core.Window
	w, h int

	pipes   []*pipeline
	texs    []*texture
	meshes  []*mesh
	targets []*renderTarget

	boundFBO uint32
}

func NewRendererGL(win core.Window, _ core.Config) (*RendererGL, error) {
	r := &RendererGL{win: win}
	if err := r.Init(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *RendererGL) Init() error {
	if r.win != nil {
		r.w, r.h = r.win.FramebufferSize()
	}
	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.CULL_FACE)
	gl.Enable(gl.BLEND)
	core.Logger().Info("gl: renderer ready",
		"vendor", r.GPUVendor(), "renderer", r.GPURenderer(), "version", r.GPUVersion())
	return nil
}

func (r *RendererGL) Shutdown() {
	for _, t := range r.targets {
		gl.DeleteFramebuffers(1, &t.fbo)
	}
	for _, m := range r.meshes {
		gl.DeleteBuffers(1, &m.vbo)
		gl.DeleteBuffers(1, &m.ebo)
		gl.DeleteVertexArrays(1, &m.vao)
	}
	for _, t := range r.texs {
		gl.DeleteTextures(1, &t.id)
	}
	for _, p := range r.pipes {
		gl.DeleteProgram(p.prog)
	}
	r.pipes, r.texs, r.meshes, r.targets = nil, nil, nil, nil
}

func (r *RendererGL) Resize(w, h int) {
	r.w, r.h = w, h
	gl.Viewport(0, 0, int32(w), int32(h))
}

func (r *RendererGL) Clear(rf, gf, bf, af float32) {
	r.bindTarget(nil)
	gl.ClearColor(rf, gf, bf, af)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

func (r *RendererGL) ClearTarget(t core.RenderTarget, rf, gf, bf, af float32) error {
	if _, ok := t.(*renderTarget); t != nil && !ok {
		return fmt.Errorf("gl: clear: target %T not created by this backend", t)
	}
	r.bindTarget(t)
	gl.ClearColor(rf, gf, bf, af)
	gl.Clear(gl.COLOR_BUFFER_BIT)
	return nil
}

func (r *RendererGL) GPUVendor() string   { return glString(gl.VENDOR) }
func (r *RendererGL) GPURenderer() string { return glString(gl.RENDERER) }
func (r *RendererGL) GPUVersion() string  { return glString(gl.VERSION) }

func glString(name uint32) string {
	p := gl.GetString(name)
	if p == nil {
		return ""
	}
	return gl.GoStr(p)
}

// Draw issues one indexed draw call.
func (r *RendererGL) Draw(cmd core.DrawCmd) error {
	p, ok := cmd.Pipe.(*pipeline)
	if !ok {
		return fmt.Errorf("gl: draw: pipeline %T not created by this backend", cmd.Pipe)
	}
	m, ok := cmd.Mesh.(*mesh)
	if !ok {
		return fmt.Errorf("gl: draw: mesh %T not created by this backend", cmd.Mesh)
	}
	if cmd.IndexCount <= 0 {
		return nil
	}

	fbH := r.bindTarget(cmd.Target)

	gl.UseProgram(p.prog)
	for name, v := range cmd.Uniforms {
		if err := setUniform(p.location(name), v); err != nil {
			return fmt.Errorf("gl: uniform %q: %w", name, err)
		}
	}
	unit := int32(0)
	for name, t := range cmd.Samplers {
		tex, ok := t.(*texture)
		if !ok {
			return fmt.Errorf("gl: sampler %q: texture %T not created by this backend", name, t)
		}
		gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
		gl.BindTexture(gl.TEXTURE_2D, tex.id)
		gl.Uniform1i(p.location(name), unit)
		unit++
	}

	if src, dst, on := blendFactors(cmd.Blend); on && p.blend {
		gl.Enable(gl.BLEND)
		gl.BlendFunc(src, dst)
	} else {
		gl.Disable(gl.BLEND)
	}
	if p.depth {
		gl.Enable(gl.DEPTH_TEST)
	} else {
		gl.Disable(gl.DEPTH_TEST)
	}

	if cmd.Scissor {
		x, y, w, h := scissorBox(cmd.Clip, fbH)
		gl.Enable(gl.SCISSOR_TEST)
		gl.Scissor(x, y, w, h)
	}

	gl.BindVertexArray(m.vao)
	gl.DrawElements(gl.TRIANGLES, int32(cmd.IndexCount), gl.UNSIGNED_INT, gl.PtrOffset(0))
	gl.BindVertexArray(0)

	if cmd.Scissor {
		gl.Disable(gl.SCISSOR_TEST)
	}
	return nil
}

// bindTarget makes t (or the window when nil) the draw framebuffer and
// returns its height in pixels.
func (r *RendererGL) bindTarget(t core.RenderTarget) int {
	fbo, w, h := uint32(0), r.w, r.h
	if rt, ok := t.(*renderTarget); ok {
		fbo, w, h = rt.fbo, rt.tex.w, rt.tex.h
	}
	if fbo != r.boundFBO {
		gl.BindFramebuffer(gl.FRAMEBUFFER, fbo)
		gl.Viewport(0, 0, int32(w), int32(h))
		r.boundFBO = fbo
	}
	return h
}

// blendFactors maps a blend mode onto premultiplied-alpha GL factors.
func blendFactors(b core.BlendMode) (src, dst uint32, enabled bool) {
	switch b {
	case core.BlendNormal:
		return gl.ONE, gl.ONE_MINUS_SRC_ALPHA, true
	case core.BlendAdditive:
		return gl.ONE, gl.ONE, true
	case core.BlendMultiply:
		return gl.DST_COLOR, gl.ONE_MINUS_SRC_ALPHA, true
	case core.BlendScreen:
		return gl.ONE, gl.ONE_MINUS_SRC_COLOR, true
	default:
		return gl.ONE, gl.ZERO, false
	}
}

// scissorBox converts a top-left origin rect into GL's bottom-left window
// coordinates.
func scissorBox(r core.Rect, fbHeight int) (x, y, w, h int32) {
	return r.X, int32(fbHeight) - r.Y - r.H, r.W, r.H
}

var errUniformType = errors.New("unsupported uniform type")

func setUniform(loc int32, v any) error {
	if loc < 0 {
		return nil // optimized out or not declared
	}
	switch x := v.(type) {
	case [16]float32:
		gl.UniformMatrix4fv(loc, 1, false, &x[0])
	case float32:
		gl.Uniform1f(loc, x)
	case [2]float32:
		gl.Uniform2f(loc, x[0], x[1])
	case [3]float32:
		gl.Uniform3f(loc, x[0], x[1], x[2])
	case [4]float32:
		gl.Uniform4f(loc, x[0], x[1], x[2], x[3])
	case int32:
		gl.Uniform1i(loc, x)
	case int:
		gl.Uniform1i(loc, int32(x))
	case bool:
		var i int32
		if x {
			i = 1
		}
		gl.Uniform1i(loc, i)
	default:
		return fmt.Errorf("%w %T", errUniformType, v)
	}
	return nil
}
