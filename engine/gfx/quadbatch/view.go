package quadbatch

import "github.com/hubastard/quadstack/engine/core"

// View is a short-lived handle to the top slot of a Stack. It must not be
// kept across a mutating Stack call; Valid reports whether it still may be
// used. Builds with the quaddebug tag panic with ErrStaleView on misuse.
type View struct {
	s     *Stack
	b     *Batch
	gen   uint64
	depth int
}

func (v View) Valid() bool { return v.s != nil && v.gen == v.s.gen }

func (v View) batch() *Batch {
	if checkViews && !v.Valid() {
		panic(ErrStaleView)
	}
	return v.b
}

// Depth is the stack index the view refers to.
func (v View) Depth() int { return v.depth }

func (v View) AddQuad(q Quad, texSlot int)                    { v.batch().AddQuad(q, texSlot) }
func (v View) BindTexture(t core.Texture) (slot int, ok bool) { return v.batch().BindTexture(t) }
func (v View) HasTexture(t core.Texture) bool                 { return v.batch().HasTexture(t) }
func (v View) State() State                                   { return v.batch().State() }
func (v View) SetState(st State)                              { v.batch().SetState(st) }
func (v View) QuadCount() int                                 { return v.batch().QuadCount() }
func (v View) TextureCount() int                              { return v.batch().TextureCount() }
func (v View) Empty() bool                                    { return v.batch().Empty() }
func (v View) Full(maxQuads int) bool                         { return v.batch().Full(maxQuads) }
