package rowan

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
)

// EngineState is the play state machine: stopped, playing, or paused.
type EngineState uint8

const (
	StateStopped EngineState = iota
	StatePlaying
	StatePaused
)

// fixedTimestep is the physics step interval.
const fixedTimestep = 1.0 / 60.0

// maxFrameDelta caps a frame's delta so a long stall cannot explode the
// physics accumulator.
const maxFrameDelta = 0.25

// activeEngine is the engine scripts and components reach through the
// package-level API. Set by NewEngine; at most one engine is active per
// process.
var activeEngine *Engine

// ActiveEngine returns the engine created last, or nil.
func ActiveEngine() *Engine { return activeEngine }

// Engine owns every runtime subsystem and drives the frame pipeline:
// input, scripts, fixed-step physics, animation, render, frame end.
//
// The engine is headless by construction: Step advances one full frame
// without a window, which is how tests and tools drive it. Run wraps the
// engine in an ebiten game loop for real windows.
type Engine struct {
	scene        *Scene
	input        *InputManager
	physics      *PhysicsBridge
	animator     *PropertyAnimator
	globals      *GlobalsManager
	localization *LocalizationManager
	lighting     *LightingSystem
	renderer     *Renderer

	state       EngineState
	accumulator float64
	frame       uint64
}

// NewEngine assembles an engine over the given device and render backends
// and makes it the active engine. Builtin component types are registered.
func NewEngine(device DeviceBackend, render RenderBackend) *Engine {
	RegisterBuiltinComponents()
	e := &Engine{
		input:        NewInputManager(device),
		physics:      NewPhysicsBridge(),
		animator:     NewPropertyAnimator(),
		globals:      NewGlobalsManager(),
		localization: NewLocalizationManager(),
		lighting:     NewLightingSystem(),
		renderer:     NewRenderer(render),
	}
	activeEngine = e
	return e
}

// NewHeadlessEngine assembles an engine over a queue device and a recording
// backend. The backends are returned through the accessors.
func NewHeadlessEngine() *Engine {
	return NewEngine(NewQueueDevice(), NewRecordingBackend())
}

// Scene returns the current scene, or nil.
func (e *Engine) Scene() *Scene { return e.scene }

// Input returns the input manager.
func (e *Engine) Input() *InputManager { return e.input }

// Physics returns the physics bridge.
func (e *Engine) Physics() *PhysicsBridge { return e.physics }

// Animator returns the property animator.
func (e *Engine) Animator() *PropertyAnimator { return e.animator }

// Globals returns the globals manager.
func (e *Engine) Globals() *GlobalsManager { return e.globals }

// Localization returns the localization manager.
func (e *Engine) Localization() *LocalizationManager { return e.localization }

// Lighting returns the lighting system.
func (e *Engine) Lighting() *LightingSystem { return e.lighting }

// Renderer returns the renderer.
func (e *Engine) Renderer() *Renderer { return e.renderer }

// State returns the play state.
func (e *Engine) State() EngineState { return e.state }

// Frame returns the number of completed frames.
func (e *Engine) Frame() uint64 { return e.frame }

// SetScene installs a scene. Installing while playing stops first.
func (e *Engine) SetScene(scene *Scene) {
	if e.state != StateStopped {
		e.Stop()
	}
	e.scene = scene
}

// Play starts (or resumes) the simulation. On the stopped-to-playing
// transition the autoloads are instantiated and the scene goes live.
func (e *Engine) Play() {
	switch e.state {
	case StatePlaying:
		return
	case StatePaused:
		e.state = StatePlaying
		return
	}
	if e.scene == nil {
		logger.Warn("play with no scene")
		return
	}
	e.globals.InitializeAutoloads(e.scene)
	e.scene.MakeLive()
	e.state = StatePlaying
}

// Pause suspends scripts, physics, and animation. Input and rendering keep
// running so the paused frame stays interactive.
func (e *Engine) Pause() {
	if e.state == StatePlaying {
		e.state = StatePaused
	}
}

// Stop ends the simulation: the scene shuts down, autoload nodes are
// removed, and globals reset to their defaults.
func (e *Engine) Stop() {
	if e.state == StateStopped {
		return
	}
	if e.scene != nil {
		e.scene.Shutdown()
		e.globals.CleanupAutoloads(e.scene)
	}
	e.globals.ResetAll()
	e.animator = NewPropertyAnimator()
	e.accumulator = 0
	e.state = StateStopped
}

// Step advances one complete frame: simulation then render. This is the
// headless entry point; the windowed loop calls the two halves separately.
func (e *Engine) Step(dt float64) {
	e.stepSimulation(dt)
	e.renderFrame()
	e.endFrame()
}

// stepSimulation runs the input, script, physics, and animation phases.
func (e *Engine) stepSimulation(dt float64) {
	if dt > maxFrameDelta {
		dt = maxFrameDelta
	}

	// input phase: snapshot devices, deliver raw events
	e.input.BeginFrame()
	if e.scene != nil && e.state != StateStopped {
		for _, ev := range e.input.Events() {
			e.scene.DispatchInput(ev)
		}
	}

	if e.state != StatePlaying || e.scene == nil {
		return
	}

	// script phase: variable-rate updates
	e.scene.Update(dt)

	// physics phase: fixed-rate accumulator. Worlds step and deliver their
	// contacts first, so on_physics_process callbacks observe the
	// already-integrated state.
	e.accumulator += dt
	for e.accumulator >= fixedTimestep {
		e.physics.Step(fixedTimestep)
		e.scene.PhysicsProcess(fixedTimestep)
		e.accumulator -= fixedTimestep
	}

	// animation phase
	e.animator.Update(dt)
}

// renderFrame runs the lighting and render phases.
func (e *Engine) renderFrame() {
	if e.scene == nil {
		return
	}
	e.lighting.UpdateLights(e.scene)
	e.lighting.RenderShadowMaps(e.scene, e.renderer.Backend())
	e.renderer.SetLighting(e.lighting.Environment())
	e.renderer.RenderFrame(e.scene)
}

// endFrame clears per-frame input state and advances the frame counter.
func (e *Engine) endFrame() {
	e.input.EndFrame()
	e.frame++
}

// --- Windowed loop ---

// RunConfig configures the window for Run.
type RunConfig struct {
	Title  string
	Width  int
	Height int
}

// game adapts the engine to ebiten's update/draw split.
type game struct {
	engine  *Engine
	backend *EbitenBackend
}

func (g *game) Update() error {
	g.engine.stepSimulation(1.0 / float64(ebiten.TPS()))
	g.engine.endFrame()
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	g.backend.SetScreen(screen)
	g.engine.renderFrame()
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return outsideWidth, outsideHeight
}

// Run opens a window and drives the engine until the window closes. The
// engine must have been created over an EbitenDevice and EbitenBackend.
func Run(e *Engine, cfg RunConfig) error {
	backend, ok := e.renderer.Backend().(*EbitenBackend)
	if !ok {
		return fmt.Errorf("run requires an ebiten render backend")
	}
	if cfg.Width <= 0 {
		cfg.Width = 1280
	}
	if cfg.Height <= 0 {
		cfg.Height = 720
	}
	if cfg.Title == "" {
		cfg.Title = "rowan"
	}
	ebiten.SetWindowSize(cfg.Width, cfg.Height)
	ebiten.SetWindowTitle(cfg.Title)
	return ebiten.RunGame(&game{engine: e, backend: backend})
}
