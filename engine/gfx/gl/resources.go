package glbackend

import (
	"fmt"
	"unsafe"

	"github.com/go-gl/gl/v3.3-core/gl"
	"github.com/hubastard/quadstack/engine/core"
)

type pipeline struct {
	core.PipelineBase
	prog  uint32
	blend bool
	depth bool
	locs  map[string]int32
}

func (p *pipeline) location(name string) int32 {
	if loc, ok := p.locs[name]; ok {
		return loc
	}
	loc := gl.GetUniformLocation(p.prog, gl.Str(name+"\x00"))
	p.locs[name] = loc
	return loc
}

type texture struct {
	id   uint32
	w, h int
}

func (t *texture) Size() (int, int) { return t.w, t.h }

type mesh struct {
	core.MeshBase
	vao, vbo, ebo uint32
	vcap, icap    int // buffer sizes in elements
}

type renderTarget struct {
	fbo uint32
	tex *texture
}

func (t *renderTarget) Texture() core.Texture { return t.tex }
func (t *renderTarget) Size() (int, int)      { return t.tex.w, t.tex.h }

func (r *RendererGL) CreatePipeline(desc core.PipelineDesc) (core.Pipeline, error) {
	prog, err := makeProgram(terminated(desc.VertexSource), terminated(desc.FragmentSource))
	if err != nil {
		return nil, err
	}
	p := &pipeline{prog: prog, blend: desc.Blend, depth: desc.DepthTest, locs: map[string]int32{}}
	r.pipes = append(r.pipes, p)
	return p, nil
}

func (r *RendererGL) CreateTexture(desc core.TextureDesc) (core.Texture, error) {
	if desc.Width <= 0 || desc.Height <= 0 {
		return nil, fmt.Errorf("gl: texture size %dx%d", desc.Width, desc.Height)
	}
	if desc.Format != core.TextureRGBA8 {
		return nil, fmt.Errorf("gl: unsupported texture format %d", desc.Format)
	}
	if desc.Pixels != nil && len(desc.Pixels) != desc.Width*desc.Height*4 {
		return nil, fmt.Errorf("gl: texture %dx%d needs %d bytes, got %d",
			desc.Width, desc.Height, desc.Width*desc.Height*4, len(desc.Pixels))
	}

	t := &texture{w: desc.Width, h: desc.Height}
	gl.GenTextures(1, &t.id)
	gl.BindTexture(gl.TEXTURE_2D, t.id)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, filterMode(desc.MinFilter))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, filterMode(desc.MagFilter))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, wrapMode(desc.WrapU))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, wrapMode(desc.WrapV))

	var px unsafe.Pointer
	if len(desc.Pixels) > 0 {
		px = gl.Ptr(desc.Pixels)
	}
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, int32(desc.Width), int32(desc.Height), 0,
		gl.RGBA, gl.UNSIGNED_BYTE, px)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	r.texs = append(r.texs, t)
	return t, nil
}

func (r *RendererGL) CreateMesh(desc core.MeshDesc) (core.Mesh, error) {
	m := &mesh{}
	gl.GenVertexArrays(1, &m.vao)
	gl.BindVertexArray(m.vao)

	gl.GenBuffers(1, &m.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	m.vcap = max(len(desc.Vertices), 1)
	gl.BufferData(gl.ARRAY_BUFFER, m.vcap*4, ptrOrNil(desc.Vertices), gl.DYNAMIC_DRAW)

	gl.GenBuffers(1, &m.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, m.ebo)
	m.icap = max(len(desc.Indices), 1)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, m.icap*4, ptrOrNil(desc.Indices), gl.DYNAMIC_DRAW)

	for _, a := range desc.Layout.Attributes {
		if a.Type != core.AttribFloat32 {
			gl.BindVertexArray(0)
			return nil, fmt.Errorf("gl: attribute %d: unsupported type %d", a.Location, a.Type)
		}
		gl.EnableVertexAttribArray(a.Location)
		gl.VertexAttribPointerWithOffset(a.Location, a.Size, gl.FLOAT, false, desc.Layout.Stride, uintptr(a.Offset))
	}

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	r.meshes = append(r.meshes, m)
	return m, nil
}

// UpdateMesh uploads new contents, growing the buffers when needed.
func (r *RendererGL) UpdateMesh(cm core.Mesh, vertices []float32, indices []uint32) error {
	m, ok := cm.(*mesh)
	if !ok {
		return fmt.Errorf("gl: update mesh: %T not created by this backend", cm)
	}
	// element array binding is VAO state
	gl.BindVertexArray(m.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, m.vbo)
	if len(vertices) > m.vcap {
		m.vcap = len(vertices)
		gl.BufferData(gl.ARRAY_BUFFER, m.vcap*4, gl.Ptr(vertices), gl.DYNAMIC_DRAW)
	} else if len(vertices) > 0 {
		gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(vertices)*4, gl.Ptr(vertices))
	}
	if len(indices) > m.icap {
		m.icap = len(indices)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, m.icap*4, gl.Ptr(indices), gl.DYNAMIC_DRAW)
	} else if len(indices) > 0 {
		gl.BufferSubData(gl.ELEMENT_ARRAY_BUFFER, 0, len(indices)*4, gl.Ptr(indices))
	}
	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return nil
}

func (r *RendererGL) CreateRenderTarget(w, h int) (core.RenderTarget, error) {
	ct, err := r.CreateTexture(core.TextureDesc{
		Width: w, Height: h,
		Format:    core.TextureRGBA8,
		MinFilter: "linear", MagFilter: "linear",
		WrapU: "clamp", WrapV: "clamp",
	})
	if err != nil {
		return nil, err
	}
	rt := &renderTarget{tex: ct.(*texture)}
	gl.GenFramebuffers(1, &rt.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, rt.fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, rt.tex.id, 0)
	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, r.boundFBO)
	if status != gl.FRAMEBUFFER_COMPLETE {
		gl.DeleteFramebuffers(1, &rt.fbo)
		return nil, fmt.Errorf("gl: framebuffer %dx%d incomplete: 0x%x", w, h, status)
	}

	r.bindTarget(rt)
	gl.ClearColor(0, 0, 0, 0)
	gl.Clear(gl.COLOR_BUFFER_BIT)
	r.bindTarget(nil)

	r.targets = append(r.targets, rt)
	return rt, nil
}

func filterMode(s string) int32 {
	if s == "linear" {
		return gl.LINEAR
	}
	return gl.NEAREST
}

func wrapMode(s string) int32 {
	if s == "repeat" {
		return gl.REPEAT
	}
	return gl.CLAMP_TO_EDGE
}

func ptrOrNil[T float32 | uint32](s []T) unsafe.Pointer {
	if len(s) == 0 {
		return nil
	}
	return gl.Ptr(s)
}

func terminated(src string) string {
	if len(src) == 0 || src[len(src)-1] != 0 {
		return src + "\x00"
	}
	return src
}
