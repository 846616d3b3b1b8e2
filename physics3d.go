package rowan

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// body3D is an axis-aligned box body in the 3D world.
type body3D struct {
	node     *Node
	bodyType BodyType
	sensor   bool

	position mgl32.Vec3
	velocity mgl32.Vec3
	half     mgl32.Vec3 // half extents
	mass     float32
}

type contactPair struct {
	a, b uuid.UUID
}

// world3D is a minimal AABB rigid-body world: semi-implicit Euler
// integration, pairwise overlap tests, and positional correction along the
// axis of least penetration. It covers gameplay triggers and simple
// movement, not stacked rigid-body dynamics.
type world3D struct {
	bridge   *PhysicsBridge
	gravity  mgl32.Vec3
	bodies   map[uuid.UUID]*body3D
	touching map[contactPair]bool
}

func newWorld3D(bridge *PhysicsBridge, gravity mgl32.Vec3) *world3D {
	return &world3D{
		bridge:   bridge,
		gravity:  gravity,
		bodies:   make(map[uuid.UUID]*body3D),
		touching: make(map[contactPair]bool),
	}
}

func (w *world3D) addBody(node *Node, bodyType BodyType, half mgl32.Vec3, mass float32, sensor bool) *body3D {
	w.removeNode(node.UUID())
	if mass <= 0 {
		mass = 1
	}
	b := &body3D{
		node:     node,
		bodyType: bodyType,
		sensor:   sensor,
		half:     half,
		mass:     mass,
	}
	if pos := node.GlobalPosition3D(); finiteVec3(pos) {
		b.position = pos
	}
	w.bodies[node.UUID()] = b
	return b
}

func (w *world3D) removeNode(id uuid.UUID) {
	if _, ok := w.bodies[id]; !ok {
		return
	}
	delete(w.bodies, id)
	for pair := range w.touching {
		if pair.a == id || pair.b == id {
			delete(w.touching, pair)
		}
	}
}

func (w *world3D) step(dt float64) {
	// node -> body for static bodies
	for _, b := range w.bodies {
		if b.bodyType != BodyStatic {
			continue
		}
		if pos := b.node.GlobalPosition3D(); finiteVec3(pos) {
			b.position = pos
		}
	}

	// integrate
	fdt := float32(dt)
	for _, b := range w.bodies {
		if b.bodyType != BodyDynamic {
			if b.bodyType == BodyKinematic {
				b.position = b.position.Add(b.velocity.Mul(fdt))
			}
			continue
		}
		b.velocity = b.velocity.Add(w.gravity.Mul(fdt))
		b.position = b.position.Add(b.velocity.Mul(fdt))
	}

	w.resolveContacts()

	// body -> node for simulated bodies
	for _, b := range w.bodies {
		if b.bodyType == BodyStatic {
			continue
		}
		if finiteVec3(b.position) {
			b.node.Position3D = b.position
		}
	}
}

// resolveContacts finds overlapping pairs, pushes dynamic bodies out along
// the axis of least penetration, and queues enter/exit events.
func (w *world3D) resolveContacts() {
	ids := make([]uuid.UUID, 0, len(w.bodies))
	for id := range w.bodies {
		ids = append(ids, id)
	}
	seen := make(map[contactPair]bool)

	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			a, b := w.bodies[ids[i]], w.bodies[ids[j]]
			pair := orderedPair(ids[i], ids[j])
			overlap, normal, depth := aabbOverlap(a, b)
			if !overlap {
				continue
			}
			seen[pair] = true
			sensor := a.sensor || b.sensor
			if !sensor {
				w.separate(a, b, normal, depth)
			}
			if !w.touching[pair] {
				w.touching[pair] = true
				w.bridge.queue(CollisionEvent{
					A:       a.node,
					B:       b.node,
					Point:   a.position.Add(b.position).Mul(0.5),
					Normal:  normal,
					Entered: true,
					Sensor:  sensor,
				})
			}
		}
	}

	for pair := range w.touching {
		if seen[pair] {
			continue
		}
		delete(w.touching, pair)
		a, okA := w.bodies[pair.a]
		b, okB := w.bodies[pair.b]
		if !okA || !okB {
			continue
		}
		w.bridge.queue(CollisionEvent{
			A: a.node, B: b.node, Normal: sensorExitNormal, Entered: false,
			Sensor: a.sensor || b.sensor,
		})
	}
}

// separate pushes the pair apart along the contact normal and kills the
// approaching velocity component. Static and kinematic bodies never move.
func (w *world3D) separate(a, b *body3D, normal mgl32.Vec3, depth float32) {
	aMoves := a.bodyType == BodyDynamic
	bMoves := b.bodyType == BodyDynamic
	switch {
	case aMoves && bMoves:
		a.position = a.position.Sub(normal.Mul(depth / 2))
		b.position = b.position.Add(normal.Mul(depth / 2))
	case aMoves:
		a.position = a.position.Sub(normal.Mul(depth))
	case bMoves:
		b.position = b.position.Add(normal.Mul(depth))
	default:
		return
	}
	if aMoves {
		if vn := a.velocity.Dot(normal); vn > 0 {
			a.velocity = a.velocity.Sub(normal.Mul(vn))
		}
	}
	if bMoves {
		if vn := b.velocity.Dot(normal); vn < 0 {
			b.velocity = b.velocity.Sub(normal.Mul(vn))
		}
	}
}

// aabbOverlap tests two boxes, returning the normal from a toward b and the
// penetration depth along the axis of least overlap.
func aabbOverlap(a, b *body3D) (bool, mgl32.Vec3, float32) {
	d := b.position.Sub(a.position)
	var overlap mgl32.Vec3
	for axis := 0; axis < 3; axis++ {
		o := a.half[axis] + b.half[axis] - abs32(d[axis])
		if o <= 0 {
			return false, mgl32.Vec3{}, 0
		}
		overlap[axis] = o
	}
	axis := 0
	if overlap[1] < overlap[axis] {
		axis = 1
	}
	if overlap[2] < overlap[axis] {
		axis = 2
	}
	var normal mgl32.Vec3
	if d[axis] >= 0 {
		normal[axis] = 1
	} else {
		normal[axis] = -1
	}
	return true, normal, overlap[axis]
}

func abs32(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}

func orderedPair(a, b uuid.UUID) contactPair {
	if a.String() < b.String() {
		return contactPair{a, b}
	}
	return contactPair{b, a}
}

// --- RigidBody3D ---

// RigidBody3D gives its node a box body in the 3D world.
type RigidBody3D struct {
	BaseComponent
	body *body3D
}

// NewRigidBody3D creates a dynamic unit-cube body component.
func NewRigidBody3D() *RigidBody3D {
	c := &RigidBody3D{BaseComponent: NewBaseComponent("RigidBody3D", "Physics")}
	c.Exports().AddEnum("body_type", 0, []string{"dynamic", "kinematic", "static"}, "how the body is simulated")
	c.Exports().Add("half_extents", Vec3Value(mgl32.Vec3{0.5, 0.5, 0.5}), "box half extents")
	c.Exports().Add("mass", FloatValue(1), "body mass")
	c.Exports().Add("sensor", BoolValue(false), "detect overlaps without colliding")
	return c
}

func (c *RigidBody3D) OnAwake() {
	c.Rebuild()
}

// Rebuild recreates the body from the current export values.
func (c *RigidBody3D) Rebuild() {
	e := activeEngine
	if e == nil || c.Owner() == nil {
		return
	}
	bt, _ := c.Exports().Get("body_type")
	half, _ := c.Exports().Get("half_extents")
	mass, _ := c.Exports().Get("mass")
	sensor, _ := c.Exports().Get("sensor")
	c.body = e.Physics().world3D.addBody(
		c.Owner(), BodyType(bt.I), half.V3, float32(mass.F), sensor.B)
}

// SetVelocity sets the body's linear velocity.
func (c *RigidBody3D) SetVelocity(v mgl32.Vec3) {
	if c.body != nil {
		c.body.velocity = v
	}
}

// Velocity returns the body's linear velocity.
func (c *RigidBody3D) Velocity() mgl32.Vec3 {
	if c.body == nil {
		return mgl32.Vec3{}
	}
	return c.body.velocity
}

func (c *RigidBody3D) OnDestroy() {
	if e := activeEngine; e != nil && c.Owner() != nil {
		e.Physics().world3D.removeNode(c.Owner().UUID())
	}
	c.body = nil
}
