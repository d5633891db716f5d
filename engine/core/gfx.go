package core

// Renderer is the GPU backend the 2D batcher submits to.
type Renderer interface {
	Init() error
	Resize(w, h int)
	Clear(r, g, b, a float32)
	Shutdown()

	CreatePipeline(desc PipelineDesc) (Pipeline, error)
	CreateTexture(desc TextureDesc) (Texture, error)
	CreateMesh(desc MeshDesc) (Mesh, error)
	UpdateMesh(m Mesh, vertices []float32, indices []uint32) error
	CreateRenderTarget(w, h int) (RenderTarget, error)
	// ClearTarget fills t (the window when nil) with a premultiplied color.
	ClearTarget(t RenderTarget, r, g, b, a float32) error
	Draw(cmd DrawCmd) error

	GPUVendor() string
	GPURenderer() string
	GPUVersion() string
}

// Opaque GPU handles. Backends hand out pointer types so handles compare
// by identity and can be used inside batch state.
type (
	Texture  interface{ Size() (int, int) }
	Pipeline interface{ isPipeline() }
	Mesh     interface{ isMesh() }
)

// RenderTarget is an offscreen color buffer. Its Texture can be drawn like
// any other texture once the pass that fills it has been submitted.
type RenderTarget interface {
	Texture() Texture
	Size() (int, int)
}

// PipelineBase can be embedded by backends to satisfy Pipeline.
type PipelineBase struct{}

func (PipelineBase) isPipeline() {}

// MeshBase can be embedded by backends to satisfy Mesh.
type MeshBase struct{}

func (MeshBase) isMesh() {}

type PipelineDesc struct {
	VertexSource   string
	FragmentSource string
	DepthTest      bool
	Blend          bool
}

type TextureFormat int

const (
	TextureRGBA8 TextureFormat = iota
)

type TextureDesc struct {
	Width, Height        int
	Format               TextureFormat
	Pixels               []byte // tightly packed, may be nil for an empty texture
	MinFilter, MagFilter string // "nearest" | "linear"
	WrapU, WrapV         string // "clamp" | "repeat"
}

type AttribType int

const (
	AttribFloat32 AttribType = iota
)

type VertexAttrib struct {
	Location uint32
	Size     int32
	Type     AttribType
	Offset   int
}

type VertexLayout struct {
	Stride     int32 // bytes
	Attributes []VertexAttrib
}

type MeshDesc struct {
	Vertices []float32
	Indices  []uint32
	Layout   VertexLayout
}

// BlendMode selects the color blend equation of a draw.
type BlendMode int

const (
	BlendNormal BlendMode = iota // premultiplied-alpha "over"
	BlendAdditive
	BlendMultiply
	BlendScreen
	BlendNone
)

func (b BlendMode) String() string {
	switch b {
	case BlendNormal:
		return "normal"
	case BlendAdditive:
		return "additive"
	case BlendMultiply:
		return "multiply"
	case BlendScreen:
		return "screen"
	case BlendNone:
		return "none"
	default:
		return "unknown"
	}
}

// Rect is an integer pixel rectangle.
type Rect struct {
	X, Y, W, H int32
}

func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

// Intersect returns the overlap of r and o. Disjoint rects yield a
// zero-sized rect anchored at the overlap corner.
func (r Rect) Intersect(o Rect) Rect {
	x0, y0 := max(r.X, o.X), max(r.Y, o.Y)
	x1, y1 := min(r.X+r.W, o.X+o.W), min(r.Y+r.H, o.Y+o.H)
	return Rect{X: x0, Y: y0, W: max(x1-x0, 0), H: max(y1-y0, 0)}
}

// DrawCmd is one indexed draw call.
type DrawCmd struct {
	Pipe       Pipeline
	Mesh       Mesh
	IndexCount int
	Uniforms   map[string]any
	Samplers   map[string]Texture
	Blend      BlendMode
	Target     RenderTarget // nil draws to the default framebuffer
	Clip       Rect
	Scissor    bool
}
