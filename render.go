package rowan

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// LightingEnvironment is the frame's lighting uniform block, handed to the
// backend before the main pass: ambient and fog terms plus the collected
// lights with their light-space matrices, index-aligned.
type LightingEnvironment struct {
	Ambient    Color
	Fog        FogSettings
	Lights     []LightData
	LightSpace []mgl32.Mat4
}

// RenderBackend is the drawing surface the renderer and the shadow pass
// target. The ebiten backend draws to the window; the recording backend
// captures the call stream for tests and headless runs.
type RenderBackend interface {
	// BeginFrame starts the main pass with the active camera's
	// view-projection and the clear color.
	BeginFrame(viewProj mgl32.Mat3, clear Color)
	// SetLighting binds the frame's lighting uniforms for the main pass.
	// Backends without lit shading may ignore it.
	SetLighting(env LightingEnvironment)
	DrawSprite(texturePath string, transform mgl32.Mat3, size mgl32.Vec2, tint Color)
	DrawText(textStr string, transform mgl32.Mat3, tint Color)
	DrawMesh(meshPath string, transform mgl32.Mat4, tint Color)
	EndFrame()

	// Shadow pass. BeginShadowPass saves the render state once;
	// EndShadowPass restores it once. Between them, one RenderShadowMap
	// call per shadow-casting light renders the casters depth-only with
	// front faces culled.
	BeginShadowPass(mapSize int)
	RenderShadowMap(slot int, lightSpace mgl32.Mat4, casters []*Node)
	EndShadowPass()
}

// drawable is implemented by components that render during the main pass.
type drawable interface {
	draw(backend RenderBackend, ctx RenderingContext)
}

// Renderer walks the visible tree each frame and issues draw calls for
// drawable components. Invisible or inactive nodes prune their subtree.
type Renderer struct {
	backend  RenderBackend
	context  RenderingContext
	clear    Color
	lighting LightingEnvironment
}

// NewRenderer creates a renderer over a backend in runtime context.
func NewRenderer(backend RenderBackend) *Renderer {
	return &Renderer{
		backend: backend,
		context: ContextRuntime,
		clear:   Color{0.1, 0.1, 0.1, 1},
	}
}

// Backend returns the render backend.
func (r *Renderer) Backend() RenderBackend { return r.backend }

// Context returns the rendering context the renderer draws for.
func (r *Renderer) Context() RenderingContext { return r.context }

// SetContext sets the rendering context. Drawables use it to skip contexts
// they don't apply to.
func (r *Renderer) SetContext(ctx RenderingContext) { r.context = ctx }

// SetClearColor sets the frame clear color.
func (r *Renderer) SetClearColor(c Color) { r.clear = c }

// SetLighting installs the lighting environment bound at the next
// RenderFrame. The engine refreshes it every frame from the lighting system.
func (r *Renderer) SetLighting(env LightingEnvironment) { r.lighting = env }

// RenderFrame draws one frame of the scene: camera selection, clear, then a
// pre-order walk of visible nodes.
func (r *Renderer) RenderFrame(scene *Scene) {
	if scene == nil || scene.Root() == nil {
		return
	}
	viewProj := mgl32.Ident3()
	if cam := findActiveCamera2D(scene.Root()); cam != nil {
		viewProj = cam.ViewMatrix()
	}
	r.backend.BeginFrame(viewProj, r.clear)
	r.backend.SetLighting(r.lighting)
	r.drawNode(scene.Root())
	r.backend.EndFrame()
}

func (r *Renderer) drawNode(n *Node) {
	if !n.Active || !n.Visible {
		return
	}
	for _, c := range n.Components() {
		if d, ok := c.(drawable); ok && c.Active() {
			d.draw(r.backend, r.context)
		}
	}
	for _, child := range n.Children() {
		r.drawNode(child)
	}
}

// findActiveCamera2D returns the first active, current Camera2D in
// pre-order.
func findActiveCamera2D(n *Node) *Camera2D {
	if !n.Active {
		return nil
	}
	for _, c := range n.Components() {
		if cam, ok := c.(*Camera2D); ok && c.Active() && cam.Current() {
			return cam
		}
	}
	for _, child := range n.Children() {
		if cam := findActiveCamera2D(child); cam != nil {
			return cam
		}
	}
	return nil
}

// --- Recording backend ---

// DrawOp is one recorded backend call.
type DrawOp struct {
	Op   string
	Ref  string // texture path, mesh path, or text
	Slot int    // shadow slot for shadow ops
}

// RecordingBackend captures the draw call stream instead of rendering.
// Tests assert against the recorded ops; headless engines use it as a
// no-cost sink.
type RecordingBackend struct {
	Ops []DrawOp

	shadowStateDepth int
}

// NewRecordingBackend creates an empty recorder.
func NewRecordingBackend() *RecordingBackend {
	return &RecordingBackend{}
}

// Reset clears the recorded ops.
func (b *RecordingBackend) Reset() { b.Ops = b.Ops[:0] }

func (b *RecordingBackend) record(op, ref string, slot int) {
	b.Ops = append(b.Ops, DrawOp{Op: op, Ref: ref, Slot: slot})
}

func (b *RecordingBackend) BeginFrame(mgl32.Mat3, Color) { b.record("begin_frame", "", 0) }

func (b *RecordingBackend) SetLighting(env LightingEnvironment) {
	b.record("set_lighting", fmt.Sprintf("lights=%d", len(env.Lights)), 0)
}

func (b *RecordingBackend) DrawSprite(texturePath string, _ mgl32.Mat3, _ mgl32.Vec2, _ Color) {
	b.record("sprite", texturePath, 0)
}

func (b *RecordingBackend) DrawText(textStr string, _ mgl32.Mat3, _ Color) {
	b.record("text", textStr, 0)
}

func (b *RecordingBackend) DrawMesh(meshPath string, _ mgl32.Mat4, _ Color) {
	b.record("mesh", meshPath, 0)
}

func (b *RecordingBackend) EndFrame() { b.record("end_frame", "", 0) }

func (b *RecordingBackend) BeginShadowPass(mapSize int) {
	b.shadowStateDepth++
	b.record("begin_shadow_pass", fmt.Sprintf("%d", mapSize), 0)
}

func (b *RecordingBackend) RenderShadowMap(slot int, _ mgl32.Mat4, casters []*Node) {
	b.record("shadow_map", fmt.Sprintf("casters=%d", len(casters)), slot)
}

func (b *RecordingBackend) EndShadowPass() {
	b.shadowStateDepth--
	b.record("end_shadow_pass", "", 0)
}

// ShadowStateBalanced reports whether every BeginShadowPass had a matching
// EndShadowPass.
func (b *RecordingBackend) ShadowStateBalanced() bool { return b.shadowStateDepth == 0 }

// CountOps returns how many recorded ops have the given name.
func (b *RecordingBackend) CountOps(op string) int {
	n := 0
	for _, o := range b.Ops {
		if o.Op == op {
			n++
		}
	}
	return n
}
