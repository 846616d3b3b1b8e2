package rowan

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Built-in drawable and camera components. Each one reads its settings from
// export variables so the editor and scene files configure them uniformly.

// --- Sprite2D ---

// Sprite2D draws a textured quad centered on its node's 2D transform.
type Sprite2D struct {
	BaseComponent
}

// NewSprite2D creates a sprite with no texture and a white tint.
func NewSprite2D() *Sprite2D {
	c := &Sprite2D{BaseComponent: NewBaseComponent("Sprite2D", "2D")}
	c.Exports().Add("texture_path", FilePathValue(""), "image file to draw")
	c.Exports().Add("size", Vec2Value(mgl32.Vec2{32, 32}), "quad size in world units")
	c.Exports().Add("tint", ColorValue(ColorWhite), "color modulation")
	return c
}

// Texture returns the configured texture path.
func (c *Sprite2D) Texture() string {
	v, _ := c.Exports().Get("texture_path")
	return v.S
}

// SetTexture sets the texture path.
func (c *Sprite2D) SetTexture(path string) {
	c.Exports().Set("texture_path", FilePathValue(path))
}

func (c *Sprite2D) draw(backend RenderBackend, ctx RenderingContext) {
	if ctx == ContextEditor3D {
		return
	}
	path := c.Texture()
	if path == "" || c.Owner() == nil {
		return
	}
	size, _ := c.Exports().Get("size")
	tint, _ := c.Exports().Get("tint")
	backend.DrawSprite(path, c.Owner().GlobalTransform2D(), size.V2, tint.Color())
}

// --- Label ---

// Label draws text at its node's 2D transform. When a localization key is
// set, the key resolves through the engine's localization tables each draw,
// so locale switches take effect without touching the label.
type Label struct {
	BaseComponent
}

// NewLabel creates an empty white label.
func NewLabel() *Label {
	c := &Label{BaseComponent: NewBaseComponent("Label", "UI")}
	c.Exports().Add("text", StringValue(""), "literal text, used when no key is set")
	c.Exports().Add("localization_key", StringValue(""), "key resolved through the locale tables")
	c.Exports().Add("tint", ColorValue(ColorWhite), "text color")
	return c
}

// Text returns the string the label will draw: the resolved localization
// key when one is set, otherwise the literal text.
func (c *Label) Text() string {
	key, _ := c.Exports().Get("localization_key")
	if key.S != "" {
		if e := activeEngine; e != nil {
			return e.Localization().Translate(key.S)
		}
		return key.S
	}
	v, _ := c.Exports().Get("text")
	return v.S
}

// SetText sets the literal text and clears the localization key.
func (c *Label) SetText(s string) {
	c.Exports().Set("text", StringValue(s))
	c.Exports().Set("localization_key", StringValue(""))
}

// SetLocalizationKey makes the label draw a translated key.
func (c *Label) SetLocalizationKey(key string) {
	c.Exports().Set("localization_key", StringValue(key))
}

func (c *Label) draw(backend RenderBackend, ctx RenderingContext) {
	if ctx == ContextEditor3D || c.Owner() == nil {
		return
	}
	s := c.Text()
	if s == "" {
		return
	}
	tint, _ := c.Exports().Get("tint")
	backend.DrawText(s, c.Owner().GlobalTransform2D(), tint.Color())
}

// --- Camera2D ---

// Camera2D defines the view transform of the 2D pass. The renderer uses the
// first active camera marked current.
type Camera2D struct {
	BaseComponent
}

// NewCamera2D creates a current camera with 1x zoom.
func NewCamera2D() *Camera2D {
	c := &Camera2D{BaseComponent: NewBaseComponent("Camera2D", "2D")}
	c.Exports().Add("zoom", FloatValue(1), "view scale factor")
	c.Exports().Add("offset", Vec2Value(mgl32.Vec2{}), "screen-space offset")
	c.Exports().Add("current", BoolValue(true), "use this camera for rendering")
	return c
}

// Current reports whether this camera wants to drive the view.
func (c *Camera2D) Current() bool {
	v, _ := c.Exports().Get("current")
	return v.B
}

// MakeCurrent marks this camera as the view source.
func (c *Camera2D) MakeCurrent() {
	c.Exports().Set("current", BoolValue(true))
}

// ViewMatrix returns the world-to-view transform: the inverse of the camera
// node's transform, scaled by zoom and shifted by the offset.
func (c *Camera2D) ViewMatrix() mgl32.Mat3 {
	view := mgl32.Ident3()
	if c.Owner() != nil {
		view = c.Owner().GlobalTransform2D().Inv()
	}
	zoom, _ := c.Exports().Get("zoom")
	offset, _ := c.Exports().Get("offset")
	z := float32(zoom.F)
	if z == 0 {
		z = 1
	}
	post := composeTransform2D(offset.V2, 0, mgl32.Vec2{z, z})
	return post.Mul3(view)
}

// --- Camera3D ---

// Camera3D defines the perspective view of the 3D pass.
type Camera3D struct {
	BaseComponent
}

// NewCamera3D creates a current 60 degree camera.
func NewCamera3D() *Camera3D {
	c := &Camera3D{BaseComponent: NewBaseComponent("Camera3D", "3D")}
	c.Exports().Add("fov_deg", FloatValue(60), "vertical field of view")
	c.Exports().Add("near", FloatValue(0.1), "near clip plane")
	c.Exports().Add("far", FloatValue(1000), "far clip plane")
	c.Exports().Add("current", BoolValue(true), "use this camera for rendering")
	return c
}

// Current reports whether this camera wants to drive the view.
func (c *Camera3D) Current() bool {
	v, _ := c.Exports().Get("current")
	return v.B
}

// ViewMatrix returns the world-to-view transform.
func (c *Camera3D) ViewMatrix() mgl32.Mat4 {
	if c.Owner() == nil {
		return mgl32.Ident4()
	}
	return c.Owner().GlobalTransform3D().Inv()
}

// ProjectionMatrix returns the perspective projection for an aspect ratio.
func (c *Camera3D) ProjectionMatrix(aspect float32) mgl32.Mat4 {
	fov, _ := c.Exports().Get("fov_deg")
	near, _ := c.Exports().Get("near")
	far, _ := c.Exports().Get("far")
	return mgl32.Perspective(mgl32.DegToRad(float32(fov.F)), aspect, float32(near.F), float32(far.F))
}

// --- MeshInstance3D ---

// MeshInstance3D draws a mesh at its node's 3D transform and optionally
// renders into shadow maps.
type MeshInstance3D struct {
	BaseComponent
}

// NewMeshInstance3D creates a shadow-casting mesh instance with no mesh.
func NewMeshInstance3D() *MeshInstance3D {
	c := &MeshInstance3D{BaseComponent: NewBaseComponent("MeshInstance3D", "3D")}
	c.Exports().Add("mesh_path", FilePathValue(""), "mesh file to draw")
	c.Exports().Add("cast_shadows", BoolValue(true), "render into shadow maps")
	c.Exports().Add("tint", ColorValue(ColorWhite), "color modulation")
	return c
}

// Mesh returns the configured mesh path.
func (c *MeshInstance3D) Mesh() string {
	v, _ := c.Exports().Get("mesh_path")
	return v.S
}

func (c *MeshInstance3D) castsShadows() bool {
	v, _ := c.Exports().Get("cast_shadows")
	return v.B
}

func (c *MeshInstance3D) draw(backend RenderBackend, ctx RenderingContext) {
	if ctx == ContextEditor2D || c.Owner() == nil {
		return
	}
	path := c.Mesh()
	if path == "" {
		return
	}
	tint, _ := c.Exports().Get("tint")
	backend.DrawMesh(path, c.Owner().GlobalTransform3D(), tint.Color())
}
