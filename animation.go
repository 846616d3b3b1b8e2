package rowan

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Easing selects the interpolation curve of a property animation. The zero
// value is linear. EaseCustom wraps a user-supplied curve.
type Easing struct {
	curve  easeCurve
	custom func(t float64) float64
}

type easeCurve uint8

const (
	easeLinear easeCurve = iota
	easeIn
	easeOut
	easeInOut
	easeBounce
	easeElastic
	easeBack
)

var (
	EaseLinear  = Easing{curve: easeLinear}
	EaseIn      = Easing{curve: easeIn}
	EaseOut     = Easing{curve: easeOut}
	EaseInOut   = Easing{curve: easeInOut}
	EaseBounce  = Easing{curve: easeBounce}
	EaseElastic = Easing{curve: easeElastic}
	EaseBack    = Easing{curve: easeBack}
)

// EaseCustom wraps a user-supplied curve mapping progress t in [0, 1] to
// eased progress. Values outside [0, 1] are the curve's own business.
func EaseCustom(fn func(t float64) float64) Easing {
	return Easing{custom: fn}
}

// easeFunc maps an Easing to its gween curve.
func easeFunc(e Easing) ease.TweenFunc {
	if e.custom != nil {
		fn := e.custom
		return func(t, b, c, d float32) float32 {
			if d <= 0 {
				return b + c
			}
			return b + c*float32(fn(float64(t/d)))
		}
	}
	switch e.curve {
	case easeIn:
		return ease.InQuad
	case easeOut:
		return ease.OutQuad
	case easeInOut:
		return ease.InOutQuad
	case easeBounce:
		return ease.OutBounce
	case easeElastic:
		return ease.OutElastic
	case easeBack:
		return ease.OutBack
	default:
		return ease.Linear
	}
}

// Interpolate blends two values of the same kind at eased progress t in
// [0, 1]. Numeric kinds lerp (ints round to nearest); bools, strings, and
// node references step: they hold the start value until t reaches 1.
func Interpolate(from, to Value, t float64) Value {
	if from.Kind != to.Kind {
		return from
	}
	switch from.Kind {
	case ValueFloat:
		return FloatValue(from.F + (to.F-from.F)*t)
	case ValueInt, ValueEnum:
		f := float64(from.I) + (float64(to.I)-float64(from.I))*t
		return Value{Kind: from.Kind, I: int(math.Round(f))}
	case ValueVec2:
		return Vec2Value(lerpVec2(from.V2, to.V2, float32(t)))
	case ValueVec3:
		return Vec3Value(lerpVec3(from.V3, to.V3, float32(t)))
	case ValueVec4, ValueColor:
		return Value{Kind: from.Kind, V4: lerpVec4(from.V4, to.V4, float32(t))}
	default:
		if t >= 1 {
			return to
		}
		return from
	}
}

func lerpVec2(a, b mgl32.Vec2, t float32) mgl32.Vec2 {
	return a.Add(b.Sub(a).Mul(t))
}

func lerpVec3(a, b mgl32.Vec3, t float32) mgl32.Vec3 {
	return a.Add(b.Sub(a).Mul(t))
}

func lerpVec4(a, b mgl32.Vec4, t float32) mgl32.Vec4 {
	return a.Add(b.Sub(a).Mul(t))
}

// --- Node property access ---

// Property paths on a node: bare names address transform fields
// ("position", "rotation", "scale", "size", "visible"), and
// "ComponentType.var" addresses a component export variable.

// getNodeProperty reads a property by path. Reports false for unknown paths.
func getNodeProperty(n *Node, property string) (Value, bool) {
	if typeName, varName, ok := strings.Cut(property, "."); ok {
		c := n.GetComponent(typeName)
		if c == nil {
			return Value{}, false
		}
		return c.Exports().Get(varName)
	}
	switch property {
	case "position":
		if n.Kind == KindNode3D {
			return Vec3Value(n.Position3D), true
		}
		return Vec2Value(n.Position2D), true
	case "rotation":
		if n.Kind == KindNode3D {
			return Vec3Value(quatToEuler(n.Rotation3D)), true
		}
		return FloatValue(float64(n.Rotation2D)), true
	case "scale":
		if n.Kind == KindNode3D {
			return Vec3Value(n.Scale3D), true
		}
		return Vec2Value(n.Scale2D), true
	case "size":
		return Vec2Value(n.Size), true
	case "visible":
		return BoolValue(n.Visible), true
	}
	return Value{}, false
}

// setNodeProperty writes a property by path. Reports false for unknown paths
// or kind mismatches.
func setNodeProperty(n *Node, property string, v Value) bool {
	if typeName, varName, ok := strings.Cut(property, "."); ok {
		c := n.GetComponent(typeName)
		if c == nil {
			return false
		}
		return c.Exports().Set(varName, v) == nil
	}
	switch property {
	case "position":
		if n.Kind == KindNode3D && v.Kind == ValueVec3 {
			n.Position3D = v.V3
			return true
		}
		if v.Kind == ValueVec2 {
			n.Position2D = v.V2
			return true
		}
	case "rotation":
		if n.Kind == KindNode3D && v.Kind == ValueVec3 {
			n.Rotation3D = eulerToQuat(v.V3)
			return true
		}
		if v.Kind == ValueFloat {
			n.Rotation2D = float32(v.F)
			return true
		}
	case "scale":
		if n.Kind == KindNode3D && v.Kind == ValueVec3 {
			n.Scale3D = v.V3
			return true
		}
		if v.Kind == ValueVec2 {
			n.Scale2D = v.V2
			return true
		}
	case "size":
		if v.Kind == ValueVec2 {
			n.Size = v.V2
			return true
		}
	case "visible":
		if v.Kind == ValueBool {
			n.Visible = v.B
			return true
		}
	}
	return false
}

// --- Property animator ---

type animKey struct {
	node     uuid.UUID
	property string
}

type propertyAnimation struct {
	node       *Node
	property   string
	from, to   Value
	tween      *gween.Tween
	onComplete func()
}

// PropertyAnimator drives timed property animations during the animation
// phase. At most one animation runs per (node, property) pair: starting a
// new one replaces the old without firing its completion.
type PropertyAnimator struct {
	anims map[animKey]*propertyAnimation
}

// NewPropertyAnimator creates an empty animator.
func NewPropertyAnimator() *PropertyAnimator {
	return &PropertyAnimator{anims: make(map[animKey]*propertyAnimation)}
}

// Animate starts animating a node property from its current value to the
// target over duration seconds. A non-positive duration applies the target
// and fires onComplete on the next Update. onComplete may be nil.
func (pa *PropertyAnimator) Animate(n *Node, property string, to Value, duration float64, easing Easing, onComplete func()) error {
	from, ok := getNodeProperty(n, property)
	if !ok {
		return fmt.Errorf("node %q has no property %q", n.Name, property)
	}
	if from.Kind != to.Kind {
		return fmt.Errorf("property %q is %s, got %s", property, from.Kind, to.Kind)
	}
	if duration < 0 {
		duration = 0
	}
	pa.anims[animKey{n.UUID(), property}] = &propertyAnimation{
		node:       n,
		property:   property,
		from:       from,
		to:         to,
		tween:      gween.New(0, 1, float32(duration), easeFunc(easing)),
		onComplete: onComplete,
	}
	return nil
}

// Update advances every animation by dt and applies the interpolated values.
// A finished animation applies its exact target value, fires its completion
// callback once, and is removed; new animations started from inside a
// callback run from the next Update on.
func (pa *PropertyAnimator) Update(dt float64) {
	var done []*propertyAnimation
	for key, a := range pa.anims {
		eased, finished := a.tween.Update(float32(dt))
		if finished {
			setNodeProperty(a.node, a.property, a.to)
			delete(pa.anims, key)
			done = append(done, a)
			continue
		}
		setNodeProperty(a.node, a.property, Interpolate(a.from, a.to, float64(eased)))
	}
	for _, a := range done {
		if a.onComplete != nil {
			a.onComplete()
		}
	}
}

// IsAnimating reports whether the (node, property) pair has a running
// animation.
func (pa *PropertyAnimator) IsAnimating(node uuid.UUID, property string) bool {
	_, ok := pa.anims[animKey{node, property}]
	return ok
}

// Stop cancels one animation without firing its completion. The property
// keeps its last applied value.
func (pa *PropertyAnimator) Stop(node uuid.UUID, property string) {
	delete(pa.anims, animKey{node, property})
}

// ClearNode cancels every animation targeting the node. Called when a node
// is removed from the scene.
func (pa *PropertyAnimator) ClearNode(node uuid.UUID) {
	for key := range pa.anims {
		if key.node == node {
			delete(pa.anims, key)
		}
	}
}

// NotifyDirectSet cancels a running animation because the property was set
// directly; the explicit write wins.
func (pa *PropertyAnimator) NotifyDirectSet(node uuid.UUID, property string) {
	pa.Stop(node, property)
}

// Len returns the number of running animations.
func (pa *PropertyAnimator) Len() int { return len(pa.anims) }
