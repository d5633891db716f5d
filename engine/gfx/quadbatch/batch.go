package quadbatch

import (
	"math"

	"github.com/hubastard/quadstack/engine/colors"
	"github.com/hubastard/quadstack/engine/core"
)

// MaxTextures is the number of texture units one batch may sample from
// (common GL limit is 16).
const MaxTextures = 16

// Vertex: pos2 + color4 + uv2 + texIndex1 => 9 floats
const (
	VertexStride = 9
	VertsPerQuad = 4
	IndsPerQuad  = 6
)

// VertexLayout describes the interleaved vertex format of a Batch.
var VertexLayout = core.VertexLayout{
	Stride: VertexStride * 4,
	Attributes: []core.VertexAttrib{
		{Location: 0, Size: 2, Type: core.AttribFloat32, Offset: 0},     // pos
		{Location: 1, Size: 4, Type: core.AttribFloat32, Offset: 2 * 4}, // color
		{Location: 2, Size: 2, Type: core.AttribFloat32, Offset: 6 * 4}, // uv
		{Location: 3, Size: 1, Type: core.AttribFloat32, Offset: 8 * 4}, // texIndex
	},
}

// Quad is a rectangle centred on (X, Y), rotated by Rotation radians,
// sampling the UV rect (U0,V0)-(U1,V1).
type Quad struct {
	X, Y, W, H     float32
	Rotation       float32
	Color          colors.Color
	U0, V0, U1, V1 float32
}

// State is the render state shared by every quad of a batch. Two batches
// can merge only when their states are equal.
type State struct {
	Blend    core.BlendMode
	Pipeline core.Pipeline     // nil = renderer default
	Target   core.RenderTarget // nil = default framebuffer
	Clip     core.Rect
	Scissor  bool
}

// Batch is one slot of the stack: the geometry and state of a single
// pending draw call.
type Batch struct {
	verts    []float32
	inds     []uint32
	textures [MaxTextures]core.Texture
	texCount int
	quads    int
	state    State

	frame uint64 // frame the slot was last reset in
}

func newBatch(quadCapacity int) *Batch {
	return &Batch{
		verts: make([]float32, 0, quadCapacity*VertsPerQuad*VertexStride),
		inds:  make([]uint32, 0, quadCapacity*IndsPerQuad),
	}
}

// AddQuad appends q sampling from texture slot texSlot.
func (b *Batch) AddQuad(q Quad, texSlot int) {
	halfW := q.W * 0.5
	halfH := q.H * 0.5

	// corners (TL, TR, BL, BR) with UVs. Positive Y goes down so top is -halfH.
	corners := [4][4]float32{
		{-halfW, -halfH, q.U0, q.V0},
		{halfW, -halfH, q.U1, q.V0},
		{-halfW, halfH, q.U0, q.V1},
		{halfW, halfH, q.U1, q.V1},
	}
	c, s := float32(1), float32(0)
	if q.Rotation != 0 {
		c, s = float32(math.Cos(float64(q.Rotation))), float32(math.Sin(float64(q.Rotation)))
	}

	start := uint32(len(b.verts) / VertexStride)
	tex := float32(texSlot)
	col := q.Color
	for _, p := range corners {
		rx := p[0]*c - p[1]*s + q.X
		ry := p[0]*s + p[1]*c + q.Y
		b.verts = append(b.verts,
			rx, ry,
			col[0], col[1], col[2], col[3],
			p[2], p[3],
			tex,
		)
	}
	b.inds = append(b.inds,
		start+0, start+2, start+1,
		start+1, start+2, start+3,
	)
	b.quads++
}

// BindTexture returns the slot t is bound to, binding it to a free slot if
// needed. ok is false when every slot is taken by other textures.
func (b *Batch) BindTexture(t core.Texture) (slot int, ok bool) {
	for i := 0; i < b.texCount; i++ {
		if b.textures[i] == t {
			return i, true
		}
	}
	if b.texCount >= MaxTextures {
		return -1, false
	}
	b.textures[b.texCount] = t
	b.texCount++
	return b.texCount - 1, true
}

// HasTexture reports whether t is already bound.
func (b *Batch) HasTexture(t core.Texture) bool {
	for i := 0; i < b.texCount; i++ {
		if b.textures[i] == t {
			return true
		}
	}
	return false
}

func (b *Batch) State() State      { return b.state }
func (b *Batch) SetState(s State)  { b.state = s }
func (b *Batch) QuadCount() int    { return b.quads }
func (b *Batch) Empty() bool       { return b.quads == 0 }
func (b *Batch) TextureCount() int { return b.texCount }

// Full reports whether another quad would exceed maxQuads.
func (b *Batch) Full(maxQuads int) bool { return maxQuads > 0 && b.quads >= maxQuads }

// Vertices, Indices and Textures alias the batch's storage. They are
// valid only while the batch is being submitted.
func (b *Batch) Vertices() []float32      { return b.verts }
func (b *Batch) Indices() []uint32        { return b.inds }
func (b *Batch) Textures() []core.Texture { return b.textures[:b.texCount] }
func (b *Batch) IndexCount() int          { return len(b.inds) }
func (b *Batch) VertexCount() int         { return len(b.verts) / VertexStride }

func (b *Batch) reset() {
	b.verts = b.verts[:0]
	b.inds = b.inds[:0]
	b.quads = 0
	for i := range b.textures {
		b.textures[i] = nil
	}
	b.texCount = 0
	b.state = State{}
}
