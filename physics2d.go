package rowan

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/jakecoffman/cp/v2"
)

// Shape2D selects the collision shape of a 2D body.
type Shape2D uint8

const (
	ShapeBox Shape2D = iota
	ShapeCircle
)

// nodeCollisionType tags every shape so the wildcard handler sees all
// contacts.
const nodeCollisionType cp.CollisionType = 1

// body2D ties a chipmunk body to its node.
type body2D struct {
	node     *Node
	body     *cp.Body
	shape    *cp.Shape
	bodyType BodyType
	sensor   bool
}

// world2D wraps a chipmunk space. Sync policy: static bodies follow their
// node before the step, dynamic and kinematic bodies drive their node after
// it. Non-finite node transforms are skipped rather than fed into the
// solver.
type world2D struct {
	bridge *PhysicsBridge
	space  *cp.Space
	bodies map[uuid.UUID]*body2D
}

func newWorld2D(bridge *PhysicsBridge, gravity mgl32.Vec2) *world2D {
	w := &world2D{
		bridge: bridge,
		space:  cp.NewSpace(),
		bodies: make(map[uuid.UUID]*body2D),
	}
	w.space.SetGravity(cp.Vector{X: float64(gravity[0]), Y: float64(gravity[1])})

	handler := w.space.NewWildcardCollisionHandler(nodeCollisionType)
	handler.BeginFunc = func(arb *cp.Arbiter, _ *cp.Space, _ interface{}) bool {
		w.emit(arb, true)
		return true
	}
	handler.SeparateFunc = func(arb *cp.Arbiter, _ *cp.Space, _ interface{}) {
		w.emit(arb, false)
	}
	return w
}

func (w *world2D) setGravity(g mgl32.Vec2) {
	w.space.SetGravity(cp.Vector{X: float64(g[0]), Y: float64(g[1])})
}

func (w *world2D) emit(arb *cp.Arbiter, entered bool) {
	ba, bb := arb.Bodies()
	na, _ := ba.UserData.(*Node)
	nb, _ := bb.UserData.(*Node)
	if na == nil || nb == nil {
		return
	}
	// both shapes carry nodeCollisionType, so the wildcard handler runs once
	// per shape; emit only for the canonical order
	if na.UUID().String() > nb.UUID().String() {
		return
	}
	sa, sb := arb.Shapes()
	sensor := sa.Sensor() || sb.Sensor()

	normal := sensorExitNormal
	var point mgl32.Vec3
	if entered || !sensor {
		n := arb.Normal()
		normal = mgl32.Vec3{float32(n.X), float32(n.Y), 0}
	}
	if entered {
		if set := arb.ContactPointSet(); set.Count > 0 {
			p := set.Points[0].PointA
			point = mgl32.Vec3{float32(p.X), float32(p.Y), 0}
		}
	}
	w.bridge.queue(CollisionEvent{A: na, B: nb, Point: point, Normal: normal, Entered: entered, Sensor: sensor})
}

// addBody registers a body for the node, replacing any previous body the
// node had in this world.
func (w *world2D) addBody(node *Node, bodyType BodyType, shape Shape2D, size mgl32.Vec2, radius, mass float64, sensor bool) *body2D {
	w.removeNode(node.UUID())

	if mass <= 0 {
		mass = 1
	}
	var body *cp.Body
	switch bodyType {
	case BodyStatic:
		body = cp.NewStaticBody()
	case BodyKinematic:
		body = cp.NewKinematicBody()
	default:
		var moment float64
		if shape == ShapeCircle {
			moment = cp.MomentForCircle(mass, 0, radius, cp.Vector{})
		} else {
			moment = cp.MomentForBox(mass, float64(size[0]), float64(size[1]))
		}
		body = cp.NewBody(mass, moment)
	}
	body.UserData = node

	var cpShape *cp.Shape
	if shape == ShapeCircle {
		cpShape = cp.NewCircle(body, radius, cp.Vector{})
	} else {
		cpShape = cp.NewBox(body, float64(size[0]), float64(size[1]), 0)
	}
	cpShape.SetCollisionType(nodeCollisionType)
	cpShape.SetSensor(sensor)
	cpShape.SetFriction(0.7)
	cpShape.SetElasticity(0)

	pos := node.GlobalPosition2D()
	if finiteVec2(pos) {
		body.SetPosition(cp.Vector{X: float64(pos[0]), Y: float64(pos[1])})
		body.SetAngle(float64(node.Rotation2D))
	}

	w.space.AddBody(body)
	w.space.AddShape(cpShape)

	b := &body2D{node: node, body: body, shape: cpShape, bodyType: bodyType, sensor: sensor}
	w.bodies[node.UUID()] = b
	return b
}

func (w *world2D) removeNode(id uuid.UUID) {
	b, ok := w.bodies[id]
	if !ok {
		return
	}
	w.space.RemoveShape(b.shape)
	w.space.RemoveBody(b.body)
	delete(w.bodies, id)
}

func (w *world2D) step(dt float64) {
	// node -> body for static bodies
	for _, b := range w.bodies {
		if b.bodyType != BodyStatic {
			continue
		}
		pos := b.node.GlobalPosition2D()
		if !finiteVec2(pos) {
			continue
		}
		b.body.SetPosition(cp.Vector{X: float64(pos[0]), Y: float64(pos[1])})
		b.body.SetAngle(float64(b.node.Rotation2D))
	}

	w.space.Step(dt)

	// body -> node for simulated bodies. Bodies write local position: a
	// physics body under a transformed parent is unsupported and treated
	// as world space.
	for _, b := range w.bodies {
		if b.bodyType == BodyStatic {
			continue
		}
		pos := b.body.Position()
		b.node.Position2D = mgl32.Vec2{float32(pos.X), float32(pos.Y)}
		b.node.Rotation2D = float32(b.body.Angle())
	}
}

// --- RigidBody2D ---

// RigidBody2D gives its node a simulated 2D body. Export variables select
// body type, shape, and dimensions; changing them takes effect on the next
// awake or Rebuild.
type RigidBody2D struct {
	BaseComponent
	body *body2D
}

// NewRigidBody2D creates a dynamic 1x1 box body component.
func NewRigidBody2D() *RigidBody2D {
	c := &RigidBody2D{BaseComponent: NewBaseComponent("RigidBody2D", "Physics")}
	c.Exports().AddEnum("body_type", 0, []string{"dynamic", "kinematic", "static"}, "how the body is simulated")
	c.Exports().AddEnum("shape", 0, []string{"box", "circle"}, "collision shape")
	c.Exports().Add("size", Vec2Value(mgl32.Vec2{1, 1}), "box dimensions")
	c.Exports().Add("radius", FloatValue(0.5), "circle radius")
	c.Exports().Add("mass", FloatValue(1), "body mass")
	return c
}

func (c *RigidBody2D) bodyType() BodyType {
	v, _ := c.Exports().Get("body_type")
	return BodyType(v.I)
}

func (c *RigidBody2D) OnAwake() {
	c.Rebuild()
}

// Rebuild recreates the body from the current export values.
func (c *RigidBody2D) Rebuild() {
	e := activeEngine
	if e == nil || c.Owner() == nil {
		return
	}
	shape, _ := c.Exports().Get("shape")
	size, _ := c.Exports().Get("size")
	radius, _ := c.Exports().Get("radius")
	mass, _ := c.Exports().Get("mass")
	c.body = e.Physics().world2D.addBody(
		c.Owner(), c.bodyType(), Shape2D(shape.I), size.V2, radius.F, mass.F, false)
}

// SetVelocity sets the body's linear velocity.
func (c *RigidBody2D) SetVelocity(v mgl32.Vec2) {
	if c.body != nil {
		c.body.body.SetVelocityVector(cp.Vector{X: float64(v[0]), Y: float64(v[1])})
	}
}

// Velocity returns the body's linear velocity.
func (c *RigidBody2D) Velocity() mgl32.Vec2 {
	if c.body == nil {
		return mgl32.Vec2{}
	}
	v := c.body.body.Velocity()
	return mgl32.Vec2{float32(v.X), float32(v.Y)}
}

// ApplyImpulse applies an impulse at the body's center.
func (c *RigidBody2D) ApplyImpulse(impulse mgl32.Vec2) {
	if c.body != nil {
		c.body.body.ApplyImpulseAtLocalPoint(
			cp.Vector{X: float64(impulse[0]), Y: float64(impulse[1])}, cp.Vector{})
	}
}

func (c *RigidBody2D) OnDestroy() {
	if e := activeEngine; e != nil && c.Owner() != nil {
		e.Physics().world2D.removeNode(c.Owner().UUID())
	}
	c.body = nil
}

// --- Area2D ---

// Area2D gives its node a static sensor region: it detects overlaps without
// colliding. Enter and exit events reach OnBodyEntered/OnBodyExited
// callbacks; exits carry no meaningful contact normal.
type Area2D struct {
	BaseComponent
	body      *body2D
	onEntered func(other *Node)
	onExited  func(other *Node)
}

// NewArea2D creates a 1x1 box sensor component.
func NewArea2D() *Area2D {
	c := &Area2D{BaseComponent: NewBaseComponent("Area2D", "Physics")}
	c.Exports().AddEnum("shape", 0, []string{"box", "circle"}, "sensor shape")
	c.Exports().Add("size", Vec2Value(mgl32.Vec2{1, 1}), "box dimensions")
	c.Exports().Add("radius", FloatValue(0.5), "circle radius")
	return c
}

// OnBodyEntered sets the callback fired when a body enters the area.
func (c *Area2D) OnBodyEntered(fn func(other *Node)) { c.onEntered = fn }

// OnBodyExited sets the callback fired when a body leaves the area.
func (c *Area2D) OnBodyExited(fn func(other *Node)) { c.onExited = fn }

func (c *Area2D) OnAwake() {
	e := activeEngine
	if e == nil || c.Owner() == nil {
		return
	}
	shape, _ := c.Exports().Get("shape")
	size, _ := c.Exports().Get("size")
	radius, _ := c.Exports().Get("radius")
	c.body = e.Physics().world2D.addBody(
		c.Owner(), BodyStatic, Shape2D(shape.I), size.V2, radius.F, 1, true)
}

func (c *Area2D) onCollision(other *Node, ev CollisionEvent) {
	if !ev.Sensor {
		return
	}
	if ev.Entered {
		if c.onEntered != nil {
			c.onEntered(other)
		}
		return
	}
	if c.onExited != nil {
		c.onExited(other)
	}
}

func (c *Area2D) OnDestroy() {
	if e := activeEngine; e != nil && c.Owner() != nil {
		e.Physics().world2D.removeNode(c.Owner().UUID())
	}
	c.body = nil
}
