package rowan

import (
	"image/color"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
)

// EbitenBackend draws the 2D pass to the window. Mesh draws and the shadow
// pass are accepted and dropped: ebiten has no 3D pipeline, so 3D content
// only affects the simulation, not this backend's output.
type EbitenBackend struct {
	screen   *ebiten.Image
	viewProj mgl32.Mat3
	face     text.Face
	textures map[string]*ebiten.Image
}

// NewEbitenBackend creates a window backend with an empty texture cache.
func NewEbitenBackend() *EbitenBackend {
	return &EbitenBackend{textures: make(map[string]*ebiten.Image)}
}

// SetScreen sets the frame's target image. Called by the engine's Draw.
func (b *EbitenBackend) SetScreen(screen *ebiten.Image) { b.screen = screen }

// SetFontFace sets the face used for text draws. Without a face, text is
// skipped.
func (b *EbitenBackend) SetFontFace(face text.Face) { b.face = face }

// texture loads and caches an image by path. A failed load caches nil so
// the miss is logged once.
func (b *EbitenBackend) texture(path string) *ebiten.Image {
	if img, ok := b.textures[path]; ok {
		return img
	}
	img, _, err := ebitenutil.NewImageFromFile(path)
	if err != nil {
		logger.Warnf("load texture %s: %v", path, err)
		img = nil
	}
	b.textures[path] = img
	return img
}

func (b *EbitenBackend) BeginFrame(viewProj mgl32.Mat3, clear Color) {
	b.viewProj = viewProj
	if b.screen != nil {
		b.screen.Fill(color.RGBA{
			R: uint8(clear.R * 255),
			G: uint8(clear.G * 255),
			B: uint8(clear.B * 255),
			A: uint8(clear.A * 255),
		})
	}
}

// SetLighting is accepted and dropped: the 2D pass has no lit shading.
func (b *EbitenBackend) SetLighting(LightingEnvironment) {}

// geoM converts a world transform through the camera into an ebiten GeoM.
func (b *EbitenBackend) geoM(transform mgl32.Mat3) ebiten.GeoM {
	m := b.viewProj.Mul3(transform)
	var g ebiten.GeoM
	g.SetElement(0, 0, float64(m.At(0, 0)))
	g.SetElement(0, 1, float64(m.At(0, 1)))
	g.SetElement(0, 2, float64(m.At(0, 2)))
	g.SetElement(1, 0, float64(m.At(1, 0)))
	g.SetElement(1, 1, float64(m.At(1, 1)))
	g.SetElement(1, 2, float64(m.At(1, 2)))
	return g
}

func (b *EbitenBackend) DrawSprite(texturePath string, transform mgl32.Mat3, size mgl32.Vec2, tint Color) {
	if b.screen == nil {
		return
	}
	img := b.texture(texturePath)
	if img == nil {
		return
	}
	op := &ebiten.DrawImageOptions{}
	bounds := img.Bounds()
	if size[0] > 0 && size[1] > 0 {
		op.GeoM.Scale(
			float64(size[0])/float64(bounds.Dx()),
			float64(size[1])/float64(bounds.Dy()))
	}
	// center the sprite on the node position
	op.GeoM.Translate(-float64(size[0])/2, -float64(size[1])/2)
	op.GeoM.Concat(b.geoM(transform))
	op.ColorScale.Scale(tint.R, tint.G, tint.B, tint.A)
	b.screen.DrawImage(img, op)
}

func (b *EbitenBackend) DrawText(textStr string, transform mgl32.Mat3, tint Color) {
	if b.screen == nil || b.face == nil {
		return
	}
	op := &text.DrawOptions{}
	op.GeoM = b.geoM(transform)
	op.ColorScale.Scale(tint.R, tint.G, tint.B, tint.A)
	text.Draw(b.screen, textStr, b.face, op)
}

func (b *EbitenBackend) DrawMesh(string, mgl32.Mat4, Color) {}

func (b *EbitenBackend) EndFrame() {}

func (b *EbitenBackend) BeginShadowPass(int) {}

func (b *EbitenBackend) RenderShadowMap(int, mgl32.Mat4, []*Node) {}

func (b *EbitenBackend) EndShadowPass() {}
