package main

import (
	"flag"
	"log/slog"
	"os"
	"strings"

	"github.com/hubastard/quadstack/engine/assets"
	"github.com/hubastard/quadstack/engine/colors"
	"github.com/hubastard/quadstack/engine/core"
	glbackend "github.com/hubastard/quadstack/engine/gfx/gl"
	"github.com/hubastard/quadstack/engine/gfx/quadbatch"
	"github.com/hubastard/quadstack/engine/gfx/renderer2d"
	"github.com/hubastard/quadstack/engine/platform"
	"github.com/hubastard/quadstack/engine/profiler"
)

type App struct {
	texturePath string
	effectPath  string
	r2d         *renderer2d.Renderer2D
	stats       renderer2d.Statistics
}

func (a *App) OnStart(e *core.Engine) {
	b := e.Config.Batching
	var err error
	a.r2d, err = renderer2d.New(e.Renderer, renderer2d.Options{
		Options: quadbatch.Options{
			InitialSlots: b.InitialSlots,
			MinRetained:  b.MinRetained,
			MaxSlots:     b.MaxSlots,
		},
		MaxQuads:  b.MaxQuads,
		TrimEvery: b.TrimEvery,
	})
	if err != nil {
		fatal("create 2D renderer", err)
	}

	sprite, err := a.loadSprite(e.Renderer)
	if err != nil {
		fatal("load sprite", err)
	}
	target, err := e.Renderer.CreateRenderTarget(offscreenSize, offscreenSize)
	if err != nil {
		fatal("create render target", err)
	}

	effect, err := a.loadEffect(e.Renderer)
	if err != nil {
		fatal("load effect", err)
	}

	e.Layers.Push(&Layer2D{r2d: a.r2d, sprite: sprite, target: target, effect: effect, stats: &a.stats})
	e.Layers.Push(&LayerDebug{r2d: a.r2d, stats: &a.stats})
}

// loadSprite uses the configured texture file, or a generated checkerboard.
func (a *App) loadSprite(r core.Renderer) (core.Texture, error) {
	w, h := 64, 64
	var px []byte
	if a.texturePath != "" {
		var err error
		w, h, px, err = assets.LoadImage(a.texturePath)
		if err != nil {
			return nil, err
		}
	} else {
		px = assets.Checkerboard(w, h, 8, colors.White, colors.Gray)
	}
	return r.CreateTexture(core.TextureDesc{
		Width: w, Height: h,
		Format:    core.TextureRGBA8,
		Pixels:    px,
		MinFilter: "linear", MagFilter: "nearest",
		WrapU: "clamp", WrapV: "clamp",
	})
}

// loadEffect compiles the optional fragment shader applied to the sprite
// field. It must read the default vertex shader's outputs.
func (a *App) loadEffect(r core.Renderer) (core.Pipeline, error) {
	if a.effectPath == "" {
		return nil, nil
	}
	frag, err := assets.LoadShader(a.effectPath)
	if err != nil {
		return nil, err
	}
	return r.CreatePipeline(core.PipelineDesc{
		VertexSource:   renderer2d.DefaultVertexSource,
		FragmentSource: frag,
		Blend:          true,
	})
}

func (a *App) OnUpdate(e *core.Engine, dt float64)    {}
func (a *App) OnRender(e *core.Engine, alpha float64) {}
func (a *App) OnEvent(e *core.Engine, ev core.Event)  {}
func (a *App) OnShutdown(e *core.Engine)              {}

func main() {
	cfgPath := flag.String("config", "sandbox.yaml", "YAML config file (optional)")
	texPath := flag.String("texture", "", "sprite texture (png, jpeg, bmp, tga)")
	effectPath := flag.String("effect", "", "GLSL fragment shader for the sprite field")
	flag.Parse()

	cfg, err := core.LoadConfig(*cfgPath)
	if err != nil {
		fatal("load config", err)
	}
	core.SetLogger(newLogger(cfg.LogLevel))
	profiler.Init(1 << 18)

	app := &App{texturePath: *texPath, effectPath: *effectPath}
	var win *platform.GLFWWindow
	newWindow := func(cfg core.Config) (core.Window, error) {
		var err error
		win, err = platform.NewGLFWWindow(cfg, nil)
		return win, err
	}
	newRenderer := func(win core.Window, cfg core.Config) (core.Renderer, error) {
		return glbackend.NewRendererGL(win, cfg)
	}

	err = core.Run(app, cfg, newWindow, newRenderer)
	if win != nil {
		win.Destroy()
	}
	if err != nil {
		fatal("run", err)
	}
}

// newLogger maps the config log level onto a stderr text logger; an empty
// level keeps the engine silent.
func newLogger(level string) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "":
		return nil
	case "debug":
		l = slog.LevelDebug
	case "info":
		l = slog.LevelInfo
	case "warn":
		l = slog.LevelWarn
	default:
		l = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

func fatal(msg string, err error) {
	slog.Error(msg, "err", err)
	os.Exit(1)
}
