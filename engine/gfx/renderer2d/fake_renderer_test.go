package renderer2d

import (
	"maps"
	"slices"

	"github.com/hubastard/quadstack/engine/core"
)

type fakeTexture struct {
	name string
	w, h int
}

func (t *fakeTexture) Size() (int, int) { return t.w, t.h }

type fakePipeline struct {
	core.PipelineBase
	name string
}

type fakeMesh struct{ core.MeshBase }

type fakeTarget struct{ tex *fakeTexture }

func (t *fakeTarget) Texture() core.Texture { return t.tex }
func (t *fakeTarget) Size() (int, int)      { return t.tex.w, t.tex.h }

// recordedDraw is a DrawCmd plus the geometry uploaded right before it.
type recordedDraw struct {
	core.DrawCmd
	verts []float32
}

// recordedClear is a ClearTarget call and how many draws preceded it.
type recordedClear struct {
	target     core.RenderTarget
	color      [4]float32
	afterDraws int
}

type fakeRenderer struct {
	draws    []recordedDraw
	clears   []recordedClear
	lastVert []float32
	drawErr  error
	clearErr error
	pipes    int
}

func (f *fakeRenderer) Init() error              { return nil }
func (f *fakeRenderer) Resize(int, int)          {}
func (f *fakeRenderer) Clear(_, _, _, _ float32) {}
func (f *fakeRenderer) Shutdown()                {}
func (f *fakeRenderer) GPUVendor() string        { return "fake" }
func (f *fakeRenderer) GPURenderer() string      { return "fake" }
func (f *fakeRenderer) GPUVersion() string       { return "0" }

func (f *fakeRenderer) CreatePipeline(core.PipelineDesc) (core.Pipeline, error) {
	f.pipes++
	return &fakePipeline{name: "default"}, nil
}

func (f *fakeRenderer) CreateTexture(d core.TextureDesc) (core.Texture, error) {
	return &fakeTexture{name: "created", w: d.Width, h: d.Height}, nil
}

func (f *fakeRenderer) CreateMesh(core.MeshDesc) (core.Mesh, error) { return &fakeMesh{}, nil }

func (f *fakeRenderer) UpdateMesh(_ core.Mesh, v []float32, _ []uint32) error {
	f.lastVert = slices.Clone(v)
	return nil
}

func (f *fakeRenderer) CreateRenderTarget(w, h int) (core.RenderTarget, error) {
	return &fakeTarget{tex: &fakeTexture{name: "target", w: w, h: h}}, nil
}

func (f *fakeRenderer) ClearTarget(t core.RenderTarget, r, g, b, a float32) error {
	if f.clearErr != nil {
		return f.clearErr
	}
	f.clears = append(f.clears, recordedClear{target: t, color: [4]float32{r, g, b, a}, afterDraws: len(f.draws)})
	return nil
}

func (f *fakeRenderer) Draw(cmd core.DrawCmd) error {
	if f.drawErr != nil {
		return f.drawErr
	}
	// the renderer reuses its maps between draws
	cmd.Uniforms = maps.Clone(cmd.Uniforms)
	cmd.Samplers = maps.Clone(cmd.Samplers)
	f.draws = append(f.draws, recordedDraw{DrawCmd: cmd, verts: f.lastVert})
	return nil
}
