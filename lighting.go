package rowan

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// MaxLights is the hard cap on lights submitted to the renderer per frame.
const MaxLights = 16

// DefaultMaxShadowMaps is the default shadow map budget per frame.
const DefaultMaxShadowMaps = 4

// LightType orders lights for the shader: directional, then point, then
// spot.
type LightType uint8

const (
	LightDirectional LightType = iota
	LightPoint
	LightSpot
)

// LightData is one frame's snapshot of a light, ready for the renderer.
// ShadowSlot is -1 when the light casts no shadow this frame.
type LightData struct {
	Type      LightType
	Position  mgl32.Vec3
	Direction mgl32.Vec3
	Color     Color
	Intensity float32
	Range     float32

	AttenuationConstant  float32
	AttenuationLinear    float32
	AttenuationQuadratic float32

	InnerConeCos float32
	OuterConeCos float32

	CastsShadows  bool
	ShadowSlot    int
	ShadowBias    float32
	ShadowOpacity float32
}

// ShadowQuality selects the shadow map resolution.
type ShadowQuality uint8

const (
	ShadowLow    ShadowQuality = iota // 1024
	ShadowMedium                      // 2048
	ShadowHigh                        // 4096
)

// ShadowMapSize returns the texture size for a quality level.
func (q ShadowQuality) ShadowMapSize() int {
	switch q {
	case ShadowLow:
		return 1024
	case ShadowHigh:
		return 4096
	default:
		return 2048
	}
}

// FogSettings is the distance-fog configuration passed to the renderer.
type FogSettings struct {
	Enabled       bool
	Color         Color
	Density       float32
	Start         float32
	End           float32
	HeightFalloff float32
}

// lightSource is implemented by light components. The second result reports
// whether the light is enabled this frame.
type lightSource interface {
	lightData() (LightData, bool)
}

// LightingSystem gathers the scene's lights once per frame, allocates the
// shadow map slots, and computes the light-space matrices for the shadow
// pass. Slot allocation never mutates the source components: a light demoted
// for lack of slots keeps its own cast-shadows setting and competes again
// next frame.
type LightingSystem struct {
	ambient        Color
	fog            FogSettings
	shadowsEnabled bool
	quality        ShadowQuality
	maxShadowMaps  int

	lights   []LightData
	matrices [MaxLights]mgl32.Mat4
}

// NewLightingSystem creates a system with medium shadow quality, the default
// shadow map budget, and a dim ambient term.
func NewLightingSystem() *LightingSystem {
	return &LightingSystem{
		ambient:        Color{0.1, 0.1, 0.1, 1},
		fog:            FogSettings{Color: Color{0.7, 0.8, 0.9, 1}, Density: 0.02, Start: 10, End: 100, HeightFalloff: 0.1},
		shadowsEnabled: true,
		quality:        ShadowMedium,
		maxShadowMaps:  DefaultMaxShadowMaps,
	}
}

// Ambient returns the ambient light color.
func (ls *LightingSystem) Ambient() Color { return ls.ambient }

// SetAmbient sets the ambient light color.
func (ls *LightingSystem) SetAmbient(c Color) { ls.ambient = c }

// Fog returns the fog settings.
func (ls *LightingSystem) Fog() FogSettings { return ls.fog }

// SetFog sets the fog parameters, clamping them into sane ranges.
func (ls *LightingSystem) SetFog(fog FogSettings) {
	if fog.Density < 0 {
		fog.Density = 0
	}
	if fog.Start < 0 {
		fog.Start = 0
	}
	if fog.End < fog.Start+0.1 {
		fog.End = fog.Start + 0.1
	}
	if fog.HeightFalloff < 0 {
		fog.HeightFalloff = 0
	}
	ls.fog = fog
}

// ShadowsEnabled reports whether the shadow pass runs.
func (ls *LightingSystem) ShadowsEnabled() bool { return ls.shadowsEnabled }

// SetShadowsEnabled toggles the shadow pass.
func (ls *LightingSystem) SetShadowsEnabled(enabled bool) { ls.shadowsEnabled = enabled }

// Quality returns the shadow quality level.
func (ls *LightingSystem) Quality() ShadowQuality { return ls.quality }

// SetQuality sets the shadow quality level.
func (ls *LightingSystem) SetQuality(q ShadowQuality) { ls.quality = q }

// MaxShadowMaps returns the per-frame shadow map budget.
func (ls *LightingSystem) MaxShadowMaps() int { return ls.maxShadowMaps }

// SetMaxShadowMaps sets the per-frame shadow map budget, capped at MaxLights.
func (ls *LightingSystem) SetMaxShadowMaps(n int) {
	if n < 0 {
		n = 0
	}
	if n > MaxLights {
		n = MaxLights
	}
	ls.maxShadowMaps = n
}

// Lights returns the lights collected by the last UpdateLights call. The
// returned slice MUST NOT be mutated by the caller.
func (ls *LightingSystem) Lights() []LightData { return ls.lights }

// LightSpaceMatrix returns the light-space matrix computed for a light
// index by the last shadow pass.
func (ls *LightingSystem) LightSpaceMatrix(index int) mgl32.Mat4 {
	if index < 0 || index >= MaxLights {
		return mgl32.Ident4()
	}
	return ls.matrices[index]
}

// Environment packages the frame's lighting uniforms for the render
// backend: ambient, fog, and the collected lights with their light-space
// matrices, index-aligned.
func (ls *LightingSystem) Environment() LightingEnvironment {
	matrices := make([]mgl32.Mat4, len(ls.lights))
	for i := range ls.lights {
		matrices[i] = ls.matrices[i]
	}
	return LightingEnvironment{
		Ambient:    ls.ambient,
		Fog:        ls.fog,
		Lights:     ls.lights,
		LightSpace: matrices,
	}
}

// UpdateLights walks the scene, collecting up to MaxLights enabled lights
// from active nodes, sorted by type. Shadow slots are handed out in
// collection order until the budget runs out; lights beyond it are demoted
// for this frame only.
func (ls *LightingSystem) UpdateLights(scene *Scene) {
	ls.lights = ls.lights[:0]
	nextSlot := 0

	var walk func(n *Node)
	walk = func(n *Node) {
		if !n.Active {
			return
		}
		for _, c := range n.Components() {
			src, ok := c.(lightSource)
			if !ok || !c.Active() {
				continue
			}
			if len(ls.lights) >= MaxLights {
				return
			}
			data, enabled := src.lightData()
			if !enabled {
				continue
			}
			if data.CastsShadows && ls.shadowsEnabled && nextSlot < ls.maxShadowMaps {
				data.ShadowSlot = nextSlot
				nextSlot++
			} else {
				data.CastsShadows = false
				data.ShadowSlot = -1
			}
			ls.lights = append(ls.lights, data)
		}
		for _, child := range n.Children() {
			walk(child)
		}
	}
	if scene != nil && scene.Root() != nil {
		walk(scene.Root())
	}

	sort.SliceStable(ls.lights, func(i, j int) bool {
		return ls.lights[i].Type < ls.lights[j].Type
	})
}

// RenderShadowMaps runs the shadow pass: one depth render per shadow-casting
// light, front faces culled to reduce peter panning. The backend saves the
// render state once before the pass and restores it once after.
func (ls *LightingSystem) RenderShadowMaps(scene *Scene, backend RenderBackend) {
	if !ls.shadowsEnabled || scene == nil {
		return
	}
	for i := range ls.matrices {
		ls.matrices[i] = mgl32.Ident4()
	}

	casters := collectShadowCasters(scene.Root())
	backend.BeginShadowPass(ls.quality.ShadowMapSize())
	for i, light := range ls.lights {
		if !light.CastsShadows || light.ShadowSlot < 0 {
			continue
		}
		var matrix mgl32.Mat4
		switch light.Type {
		case LightDirectional:
			matrix = directionalLightMatrix(light)
		case LightPoint:
			matrix = pointLightMatrix(light)
		case LightSpot:
			matrix = spotLightMatrix(light)
		}
		if i < MaxLights {
			ls.matrices[i] = matrix
		}
		backend.RenderShadowMap(light.ShadowSlot, matrix, casters)
	}
	backend.EndShadowPass()
}

// shadowCaster is implemented by drawable components that render into
// shadow maps.
type shadowCaster interface {
	castsShadows() bool
}

func collectShadowCasters(n *Node) []*Node {
	var out []*Node
	var walk func(n *Node)
	walk = func(n *Node) {
		if !n.Active || !n.Visible {
			return
		}
		for _, c := range n.Components() {
			if sc, ok := c.(shadowCaster); ok && c.Active() && sc.castsShadows() {
				out = append(out, n)
				break
			}
		}
		for _, child := range n.Children() {
			walk(child)
		}
	}
	walk(n)
	return out
}

// --- Light-space matrices ---

// stableUp picks an up vector that is not parallel to the direction.
func stableUp(dir mgl32.Vec3) mgl32.Vec3 {
	up := mgl32.Vec3{0, 1, 0}
	if abs32(dir.Dot(up)) > 0.95 {
		up = mgl32.Vec3{1, 0, 0}
	}
	return up
}

// directionalLightMatrix builds an orthographic projection covering the
// scene from far along the light direction.
func directionalLightMatrix(light LightData) mgl32.Mat4 {
	dir := light.Direction.Normalize()
	center := mgl32.Vec3{}
	const sceneRadius float32 = 50

	pos := center.Sub(dir.Mul(sceneRadius * 3))
	up := stableUp(dir)
	up = dir.Cross(up).Cross(dir).Normalize()

	view := mgl32.LookAtV(pos, center, up)
	orthoSize := sceneRadius * 1.5
	proj := mgl32.Ortho(-orthoSize, orthoSize, -orthoSize, orthoSize, 0.1, sceneRadius*5)
	return proj.Mul4(view)
}

// pointLightMatrix approximates a point light with a single directional
// shadow: high lights cast straight down, low lights forward and down.
func pointLightMatrix(light LightData) mgl32.Mat4 {
	pos := light.Position
	var dir mgl32.Vec3
	if pos[1] > 5 {
		dir = mgl32.Vec3{0, -1, 0}
	} else {
		dir = mgl32.Vec3{0, -0.7, -0.7}.Normalize()
	}

	view := mgl32.LookAtV(pos, pos.Add(dir), stableUp(dir))
	orthoSize := light.Range * 1.2
	if orthoSize < 15 {
		orthoSize = 15
	}
	proj := mgl32.Ortho(-orthoSize, orthoSize, -orthoSize, orthoSize, 0.1, light.Range*2.5)
	return proj.Mul4(view)
}

// spotLightMatrix builds a perspective projection matching the spot cone.
// The FOV derives from the outer cone cosine, clamped to [1°, 179°].
func spotLightMatrix(light LightData) mgl32.Mat4 {
	pos := light.Position
	dir := light.Direction.Normalize()

	view := mgl32.LookAtV(pos, pos.Add(dir), stableUp(dir))

	cone := light.OuterConeCos
	if cone < 0 {
		cone = 0
	}
	if cone > 1 {
		cone = 1
	}
	fov := float32(math.Acos(float64(cone))) * 2
	fov = mgl32.Clamp(fov, mgl32.DegToRad(1), mgl32.DegToRad(179))

	far := light.Range
	if far < 1 {
		far = 1
	}
	proj := mgl32.Perspective(fov, 1, 0.1, far)
	return proj.Mul4(view)
}

// --- Light components ---

// lightDirection derives a light's world-space direction from its node's
// rotation, starting from -Z forward.
func lightDirection(n *Node) mgl32.Vec3 {
	if n == nil {
		return mgl32.Vec3{0, -1, 0}
	}
	return n.Rotation3D.Rotate(mgl32.Vec3{0, 0, -1}).Normalize()
}

func lightPosition(n *Node) mgl32.Vec3 {
	if n == nil {
		return mgl32.Vec3{}
	}
	return n.GlobalPosition3D()
}

// OmniLight is an omnidirectional point light with distance attenuation.
type OmniLight struct {
	BaseComponent
}

// NewOmniLight creates a white point light with a 10 unit range.
func NewOmniLight() *OmniLight {
	c := &OmniLight{BaseComponent: NewBaseComponent("OmniLight", "Light")}
	c.Exports().Add("color", ColorValue(ColorWhite), "light color")
	c.Exports().Add("intensity", FloatValue(1), "brightness multiplier")
	c.Exports().Add("range", FloatValue(10), "attenuation range")
	c.Exports().Add("attenuation_linear", FloatValue(0.09), "linear attenuation term")
	c.Exports().Add("attenuation_quadratic", FloatValue(0.032), "quadratic attenuation term")
	c.Exports().Add("cast_shadows", BoolValue(false), "render into a shadow map")
	c.Exports().Add("shadow_bias", FloatValue(0.005), "depth bias against acne")
	return c
}

func (c *OmniLight) lightData() (LightData, bool) {
	color, _ := c.Exports().Get("color")
	intensity, _ := c.Exports().Get("intensity")
	rng, _ := c.Exports().Get("range")
	attLin, _ := c.Exports().Get("attenuation_linear")
	attQuad, _ := c.Exports().Get("attenuation_quadratic")
	shadows, _ := c.Exports().Get("cast_shadows")
	bias, _ := c.Exports().Get("shadow_bias")
	return LightData{
		Type:                 LightPoint,
		Position:             lightPosition(c.Owner()),
		Color:                color.Color(),
		Intensity:            float32(intensity.F),
		Range:                float32(rng.F),
		AttenuationConstant:  1,
		AttenuationLinear:    float32(attLin.F),
		AttenuationQuadratic: float32(attQuad.F),
		CastsShadows:         shadows.B,
		ShadowSlot:           -1,
		ShadowBias:           float32(bias.F),
		ShadowOpacity:        1,
	}, true
}

// DirectionalLight is a sun-style light; only its node's rotation matters.
type DirectionalLight struct {
	BaseComponent
}

// NewDirectionalLight creates a white directional light casting shadows.
func NewDirectionalLight() *DirectionalLight {
	c := &DirectionalLight{BaseComponent: NewBaseComponent("DirectionalLight", "Light")}
	c.Exports().Add("color", ColorValue(ColorWhite), "light color")
	c.Exports().Add("intensity", FloatValue(1), "brightness multiplier")
	c.Exports().Add("cast_shadows", BoolValue(true), "render into a shadow map")
	c.Exports().Add("shadow_bias", FloatValue(0.005), "depth bias against acne")
	return c
}

func (c *DirectionalLight) lightData() (LightData, bool) {
	color, _ := c.Exports().Get("color")
	intensity, _ := c.Exports().Get("intensity")
	shadows, _ := c.Exports().Get("cast_shadows")
	bias, _ := c.Exports().Get("shadow_bias")
	return LightData{
		Type:                LightDirectional,
		Direction:           lightDirection(c.Owner()),
		Color:               color.Color(),
		Intensity:           float32(intensity.F),
		AttenuationConstant: 1,
		CastsShadows:        shadows.B,
		ShadowSlot:          -1,
		ShadowBias:          float32(bias.F),
		ShadowOpacity:       1,
	}, true
}

// SpotLight is a cone light. Cone angles are exported in degrees and
// converted to cosines for the renderer.
type SpotLight struct {
	BaseComponent
}

// NewSpotLight creates a white 45 degree spot with a 15 unit range.
func NewSpotLight() *SpotLight {
	c := &SpotLight{BaseComponent: NewBaseComponent("SpotLight", "Light")}
	c.Exports().Add("color", ColorValue(ColorWhite), "light color")
	c.Exports().Add("intensity", FloatValue(1), "brightness multiplier")
	c.Exports().Add("range", FloatValue(15), "attenuation range")
	c.Exports().Add("inner_cone_deg", FloatValue(30), "full-intensity cone angle")
	c.Exports().Add("outer_cone_deg", FloatValue(45), "falloff cone angle")
	c.Exports().Add("cast_shadows", BoolValue(false), "render into a shadow map")
	c.Exports().Add("shadow_bias", FloatValue(0.005), "depth bias against acne")
	return c
}

func (c *SpotLight) lightData() (LightData, bool) {
	color, _ := c.Exports().Get("color")
	intensity, _ := c.Exports().Get("intensity")
	rng, _ := c.Exports().Get("range")
	inner, _ := c.Exports().Get("inner_cone_deg")
	outer, _ := c.Exports().Get("outer_cone_deg")
	shadows, _ := c.Exports().Get("cast_shadows")
	bias, _ := c.Exports().Get("shadow_bias")
	return LightData{
		Type:                LightSpot,
		Position:            lightPosition(c.Owner()),
		Direction:           lightDirection(c.Owner()),
		Color:               color.Color(),
		Intensity:           float32(intensity.F),
		Range:               float32(rng.F),
		AttenuationConstant: 1,
		InnerConeCos:        float32(math.Cos(float64(mgl32.DegToRad(float32(inner.F)) / 2))),
		OuterConeCos:        float32(math.Cos(float64(mgl32.DegToRad(float32(outer.F)) / 2))),
		CastsShadows:        shadows.B,
		ShadowSlot:          -1,
		ShadowBias:          float32(bias.F),
		ShadowOpacity:       1,
	}, true
}
