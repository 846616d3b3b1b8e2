package rowan

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// BodyType selects how a physics body moves and syncs with its node.
type BodyType uint8

const (
	// BodyDynamic is simulated; the body drives the node transform.
	BodyDynamic BodyType = iota
	// BodyKinematic moves under velocity only; the body drives the node.
	BodyKinematic
	// BodyStatic never moves in the simulation; the node drives the body.
	BodyStatic
)

func bodyTypeName(t BodyType) string {
	switch t {
	case BodyKinematic:
		return "kinematic"
	case BodyStatic:
		return "static"
	default:
		return "dynamic"
	}
}

// sensorExitNormal marks a sensor-separation event, which has no meaningful
// contact normal.
var sensorExitNormal = mgl32.Vec3{-1, 0, 0}

// CollisionEvent reports a contact or sensor transition between two nodes.
type CollisionEvent struct {
	A, B    *Node
	Point   mgl32.Vec3 // world-space contact point; zero on separation
	Normal  mgl32.Vec3
	Entered bool // false on separation
	Sensor  bool
}

// CollisionHandler receives collision events after each physics step.
type CollisionHandler func(ev CollisionEvent)

// PhysicsBridge owns both simulation worlds and fans collision events out
// to registered handlers. The engine steps it at the fixed rate; bodies are
// registered and removed by the physics components.
type PhysicsBridge struct {
	world2D  *world2D
	world3D  *world3D
	handlers []CollisionHandler
	pending  []CollisionEvent
}

// NewPhysicsBridge creates both worlds with default downward gravity.
func NewPhysicsBridge() *PhysicsBridge {
	p := &PhysicsBridge{}
	p.world2D = newWorld2D(p, mgl32.Vec2{0, -9.81})
	p.world3D = newWorld3D(p, mgl32.Vec3{0, -9.81, 0})
	return p
}

// SetGravity2D sets the 2D world gravity.
func (p *PhysicsBridge) SetGravity2D(g mgl32.Vec2) { p.world2D.setGravity(g) }

// SetGravity3D sets the 3D world gravity.
func (p *PhysicsBridge) SetGravity3D(g mgl32.Vec3) { p.world3D.gravity = g }

// OnCollision registers a collision handler. Handlers run after the step,
// in registration order.
func (p *PhysicsBridge) OnCollision(fn CollisionHandler) {
	p.handlers = append(p.handlers, fn)
}

// queue buffers an event raised during a step. Events are delivered after
// the step so handlers can freely mutate the worlds.
func (p *PhysicsBridge) queue(ev CollisionEvent) {
	p.pending = append(p.pending, ev)
}

// Step advances both worlds by the fixed timestep and delivers the queued
// collision events. A panic inside a world or a handler is recovered and
// logged so one bad body cannot stall the frame pipeline.
func (p *PhysicsBridge) Step(dt float64) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("physics step: %v", r)
		}
	}()
	p.world2D.step(dt)
	p.world3D.step(dt)

	events := p.pending
	p.pending = p.pending[:0]
	for _, ev := range events {
		for _, fn := range p.handlers {
			fn(ev)
		}
		notifyCollision(ev)
	}
}

// notifyCollision forwards an event to collision-aware components on both
// nodes.
func notifyCollision(ev CollisionEvent) {
	forward := func(n, other *Node) {
		if n == nil {
			return
		}
		for _, c := range n.Components() {
			if aware, ok := c.(collisionAware); ok && c.Active() {
				aware.onCollision(other, ev)
			}
		}
	}
	forward(ev.A, ev.B)
	forward(ev.B, ev.A)
}

// collisionAware is implemented by components that want collision events
// involving their node.
type collisionAware interface {
	onCollision(other *Node, ev CollisionEvent)
}

// RemoveNode drops every body owned by the node from both worlds. Called by
// physics components on destroy.
func (p *PhysicsBridge) RemoveNode(id uuid.UUID) {
	p.world2D.removeNode(id)
	p.world3D.removeNode(id)
}

// BodyCount2D returns the number of registered 2D bodies.
func (p *PhysicsBridge) BodyCount2D() int { return len(p.world2D.bodies) }

// BodyCount3D returns the number of registered 3D bodies.
func (p *PhysicsBridge) BodyCount3D() int { return len(p.world3D.bodies) }
