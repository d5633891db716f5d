package renderer2d

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/hubastard/quadstack/engine/colors"
	"github.com/hubastard/quadstack/engine/core"
	"github.com/hubastard/quadstack/engine/gfx/quadbatch"
	"github.com/hubastard/quadstack/engine/profiler"
)

// ErrUnbalancedContext is returned when a Pop does not match the innermost
// Push, or when a scene ends with nested contexts still open.
var ErrUnbalancedContext = errors.New("renderer2d: unbalanced render context")

// Statistics captures the counts generated during a renderer frame.
type Statistics struct {
	DrawCalls    int
	QuadCount    int
	TextureCount int // most textures bound by a single batch
	BatchSlots   int // slots allocated by the batch stack
	StackDepth   int // deepest batch slot used
}

// TotalVertexCount reports vertices submitted this frame.
func (s Statistics) TotalVertexCount() int { return s.QuadCount * quadbatch.VertsPerQuad }

// TotalIndexCount reports indices submitted this frame.
func (s Statistics) TotalIndexCount() int { return s.QuadCount * quadbatch.IndsPerQuad }

type Options struct {
	quadbatch.Options

	MaxQuads       int    // quads per draw call (default 10000)
	VertexSource   string // default: built-in quad shader
	FragmentSource string
	TrimEvery      int // frames between batch stack trims, 0 = never
}

type contextKind int

const (
	ctxScene contextKind = iota
	ctxTarget
	ctxClip
	ctxEffect
)

func (k contextKind) String() string {
	return [...]string{"scene", "target", "clip", "effect"}[k]
}

// renderContext is one level of nesting: the projection and batch state
// every quad drawn inside it uses, and the stack depth it started at.
type renderContext struct {
	kind  contextKind
	vp    [16]float32
	state quadbatch.State
	depth int
}

type Renderer2D struct {
	r     core.Renderer
	pipe  core.Pipeline
	white core.Texture // 1x1 white for untextured quads
	mesh  core.Mesh
	stack *quadbatch.Stack

	maxQuads       int
	trimEvery      int
	frame          uint64
	explicitFrames bool // BeginFrame was used; scenes no longer start frames

	ctxs []renderContext // ctxs[0] is the scene

	samplers map[string]core.Texture
	uniforms map[string]any
	texNames [quadbatch.MaxTextures]string

	extraUniforms map[string]any
	maxTextures   int
	err           error // first failure of the frame, reported by EndScene
}

// New creates the renderer and compiles the shader pipeline.
func New(r core.Renderer, opts Options) (*Renderer2D, error) {
	if opts.MaxQuads <= 0 {
		opts.MaxQuads = 10000
	}
	if opts.VertexSource == "" || opts.FragmentSource == "" {
		opts.VertexSource, opts.FragmentSource = DefaultVertexSource, DefaultFragmentSource
	}
	if opts.QuadCapacity <= 0 {
		opts.QuadCapacity = min(opts.MaxQuads, 1024)
	}

	pipe, err := r.CreatePipeline(core.PipelineDesc{
		VertexSource:   opts.VertexSource,
		FragmentSource: opts.FragmentSource,
		DepthTest:      false,
		Blend:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("renderer2d: pipeline: %w", err)
	}

	white, err := r.CreateTexture(core.TextureDesc{
		Width: 1, Height: 1,
		Format:    core.TextureRGBA8,
		Pixels:    []byte{255, 255, 255, 255},
		MinFilter: "nearest", MagFilter: "nearest",
		WrapU: "clamp", WrapV: "clamp",
	})
	if err != nil {
		return nil, fmt.Errorf("renderer2d: white texture: %w", err)
	}

	// One shared mesh, sized for the biggest batch; the stack hands batches
	// over one at a time.
	mesh, err := r.CreateMesh(core.MeshDesc{
		Vertices: make([]float32, opts.MaxQuads*quadbatch.VertsPerQuad*quadbatch.VertexStride),
		Indices:  make([]uint32, opts.MaxQuads*quadbatch.IndsPerQuad),
		Layout:   quadbatch.VertexLayout,
	})
	if err != nil {
		return nil, fmt.Errorf("renderer2d: mesh: %w", err)
	}

	rd := &Renderer2D{
		r: r, pipe: pipe, white: white, mesh: mesh,
		maxQuads:  opts.MaxQuads,
		trimEvery: opts.TrimEvery,
		ctxs:      make([]renderContext, 1, 8),
		samplers:  make(map[string]core.Texture, quadbatch.MaxTextures),
		uniforms:  make(map[string]any, 4),
	}
	for i := range rd.texNames {
		rd.texNames[i] = "uTex[" + strconv.Itoa(i) + "]"
	}
	rd.stack = quadbatch.New(quadbatch.SinkFunc(rd.submit), opts.Options)
	return rd, nil
}

// BeginFrame starts a frame made of several scenes, e.g. a world pass and
// a screen-space overlay. After the first call BeginScene no longer starts
// frames itself, so statistics and trimming cover every scene of a frame.
func (rd *Renderer2D) BeginFrame() {
	rd.explicitFrames = true
	rd.startFrame()
}

// BeginScene starts a scene drawn with the view-projection vp. Unless
// BeginFrame is in use, each scene is a frame of its own.
func (rd *Renderer2D) BeginScene(vp [16]float32) {
	if !rd.explicitFrames {
		rd.startFrame()
	}
	rd.err = nil
	rd.ctxs = rd.ctxs[:1]
	rd.ctxs[0] = renderContext{kind: ctxScene, vp: vp}
}

func (rd *Renderer2D) startFrame() {
	rd.frame++
	rd.maxTextures = 0
	rd.stack.PrepForNextFrame()
	if rd.trimEvery > 0 && rd.frame%uint64(rd.trimEvery) == 0 {
		rd.stack.TrimQuadBatches()
	}
}

// EndScene flushes the remaining geometry. Contexts left open are closed
// and reported as ErrUnbalancedContext.
func (rd *Renderer2D) EndScene() error {
	if open := len(rd.ctxs) - 1; open > 0 {
		core.Logger().Warn("renderer2d: scene ended with open contexts", "open", open, "innermost", rd.ctx().kind)
		for len(rd.ctxs) > 1 {
			rd.pop()
		}
		rd.fail(fmt.Errorf("%w: %d context(s) left open", ErrUnbalancedContext, open))
	}
	rd.finish()
	return rd.err
}

// Stats returns the statistics of the frame so far.
func (rd *Renderer2D) Stats() Statistics {
	st := rd.stack.Stats()
	return Statistics{
		DrawCalls:    st.DrawCalls,
		QuadCount:    st.Quads,
		TextureCount: rd.maxTextures,
		BatchSlots:   rd.stack.Len(),
		StackDepth:   st.Depth,
	}
}

// Purge releases all batch memory, e.g. on memory pressure. Must not be
// called between BeginScene and EndScene.
func (rd *Renderer2D) Purge() { rd.stack.PurgeBuffers() }

// SetUniform queues an additional uniform to be sent on every draw call.
// The uniform persists until overwritten; call with nil to remove.
func (rd *Renderer2D) SetUniform(name string, value any) {
	if rd.extraUniforms == nil {
		rd.extraUniforms = make(map[string]any)
	}
	if value == nil {
		delete(rd.extraUniforms, name)
		return
	}
	rd.extraUniforms[name] = value
}

// SetBlendMode applies to quads drawn after the call in the current context.
func (rd *Renderer2D) SetBlendMode(b core.BlendMode) { rd.ctx().state.Blend = b }

func (rd *Renderer2D) BlendMode() core.BlendMode { return rd.ctx().state.Blend }

// Draw solid color quad (uses the white texture)
func (rd *Renderer2D) DrawQuad(x, y, w, h float32, color colors.Color, rotationRad float32) {
	rd.appendQuad(quadbatch.Quad{X: x, Y: y, W: w, H: h, Rotation: rotationRad, Color: color, U1: 1, V1: 1}, rd.white)
}

// Draw textured quad with UVs (tint color)
func (rd *Renderer2D) DrawTexturedQuad(x, y, w, h float32, tex core.Texture, tint colors.Color, rotationRad float32) {
	rd.appendQuad(quadbatch.Quad{X: x, Y: y, W: w, H: h, Rotation: rotationRad, Color: tint, U1: 1, V1: 1}, tex)
}

// Draw textured sub-rect (UV rect: u0,v0 -> u1,v1)
func (rd *Renderer2D) DrawTexturedQuadUV(x, y, w, h float32, tex core.Texture, tint colors.Color, rotationRad float32, u0, v0, u1, v1 float32) {
	rd.appendQuad(quadbatch.Quad{X: x, Y: y, W: w, H: h, Rotation: rotationRad, Color: tint, U0: u0, V0: v0, U1: u1, V1: v1}, tex)
}

// DrawSubTexQuad draws a quad using a SubTexture2D (tint + rotation optional).
func (rd *Renderer2D) DrawSubTexQuad(x, y, w, h float32, sub SubTexture2D, tint colors.Color, rotationRad float32) {
	rd.DrawTexturedQuadUV(x, y, w, h, sub.Texture, tint, rotationRad, sub.U0, sub.V0, sub.U1, sub.V1)
}

// DrawTarget composites a render target filled by an earlier PushTarget /
// PopTarget pass. Target textures are stored bottom-up, so V is flipped.
func (rd *Renderer2D) DrawTarget(x, y, w, h float32, t core.RenderTarget, tint colors.Color) {
	rd.DrawTexturedQuadUV(x, y, w, h, t.Texture(), tint, 0, 0, 1, 1, 0)
}

// --- internals ---

func (rd *Renderer2D) ctx() *renderContext { return &rd.ctxs[len(rd.ctxs)-1] }

// appendQuad is the compatibility decider: the top batch is finalized when
// its state differs from the current context's, when it is full, or when
// tex cannot be bound to one of its texture units.
func (rd *Renderer2D) appendQuad(q quadbatch.Quad, tex core.Texture) {
	if tex == nil {
		tex = rd.white
	}
	c := rd.ctx()
	top := rd.stack.Top()
	if !top.Empty() && (top.State() != c.state || top.Full(rd.maxQuads)) {
		if top = rd.advance(); !top.Valid() {
			return
		}
	}
	if top.Empty() {
		top.SetState(c.state)
	}
	slot, ok := top.BindTexture(tex)
	if !ok {
		if top = rd.advance(); !top.Valid() {
			return
		}
		top.SetState(c.state)
		if slot, ok = top.BindTexture(tex); !ok {
			rd.fail(errors.New("renderer2d: no texture unit free in an empty batch"))
			return
		}
	}
	q.Color = q.Color.Premultiplied()
	top.AddQuad(q, slot)
	rd.maxTextures = max(rd.maxTextures, top.TextureCount())
}

// advance finishes the top and returns the new one, or a zero (invalid)
// View when finishing failed.
func (rd *Renderer2D) advance() quadbatch.View {
	if !rd.finish() {
		return quadbatch.View{}
	}
	return rd.stack.Top()
}

// finish closes the top batch with the current context's projection.
func (rd *Renderer2D) finish() bool {
	if err := rd.stack.FinishQuadBatch(rd.ctx().vp); err != nil {
		rd.fail(err)
		return false
	}
	return true
}

func (rd *Renderer2D) fail(err error) {
	if rd.err == nil {
		rd.err = err
		core.Logger().Warn("renderer2d: frame failed", "err", err)
	}
}

// submit is the stack's sink: one batch becomes one draw call.
func (rd *Renderer2D) submit(b *quadbatch.Batch, vp [16]float32) error {
	defer profiler.Start("renderer2d.submit")()

	if err := rd.r.UpdateMesh(rd.mesh, b.Vertices(), b.Indices()); err != nil {
		return fmt.Errorf("renderer2d: upload batch: %w", err)
	}

	clear(rd.samplers)
	for i, t := range b.Textures() {
		rd.samplers[rd.texNames[i]] = t
	}

	clear(rd.uniforms)
	rd.uniforms["uVP"] = vp
	for k, v := range rd.extraUniforms {
		rd.uniforms[k] = v
	}

	st := b.State()
	pipe := rd.pipe
	if st.Pipeline != nil {
		pipe = st.Pipeline
	}
	if err := rd.r.Draw(core.DrawCmd{
		Pipe:       pipe,
		Mesh:       rd.mesh,
		IndexCount: b.IndexCount(),
		Uniforms:   rd.uniforms,
		Samplers:   rd.samplers,
		Blend:      st.Blend,
		Target:     st.Target,
		Clip:       st.Clip,
		Scissor:    st.Scissor,
	}); err != nil {
		return fmt.Errorf("renderer2d: draw: %w", err)
	}
	return nil
}
