package rowan

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stepPhysics(e *Engine, steps int) {
	for i := 0; i < steps; i++ {
		e.Physics().Step(fixedTimestep)
	}
}

func TestRigidBody2DFallsUnderGravity(t *testing.T) {
	e, _, _ := newTestEngine(t)
	scene := NewScene("test")
	ball := NewNode2D("ball")
	body := NewRigidBody2D()
	require.NoError(t, ball.AddComponent(body))
	require.NoError(t, scene.Root().AddChild(ball))
	e.SetScene(scene)
	e.Play()
	require.Equal(t, 1, e.Physics().BodyCount2D())

	stepPhysics(e, 30)
	assert.Less(t, ball.Position2D[1], float32(0), "gravity pulls the body down")
	assert.Less(t, body.Velocity()[1], float32(0))
}

func TestRigidBody2DStaticFollowsNode(t *testing.T) {
	e, _, _ := newTestEngine(t)
	scene := NewScene("test")
	wall := NewNode2D("wall")
	body := NewRigidBody2D()
	require.NoError(t, body.Exports().Set("body_type", EnumValue(int(BodyStatic))))
	require.NoError(t, wall.AddComponent(body))
	require.NoError(t, scene.Root().AddChild(wall))
	e.SetScene(scene)
	e.Play()

	wall.Position2D = mgl32.Vec2{5, 0}
	stepPhysics(e, 1)
	assert.Equal(t, mgl32.Vec2{5, 0}, wall.Position2D, "static nodes drive the body, never the reverse")
}

func TestArea2DEnterAndExit(t *testing.T) {
	e, _, _ := newTestEngine(t)
	scene := NewScene("test")

	zone := NewNode2D("zone")
	area := NewArea2D()
	require.NoError(t, area.Exports().Set("size", Vec2Value(mgl32.Vec2{4, 2})))
	require.NoError(t, zone.AddComponent(area))
	require.NoError(t, scene.Root().AddChild(zone))

	ball := NewNode2D("ball")
	ball.Position2D = mgl32.Vec2{0, 4}
	body := NewRigidBody2D()
	require.NoError(t, ball.AddComponent(body))
	require.NoError(t, scene.Root().AddChild(ball))

	var entered, exited []*Node
	area.OnBodyEntered(func(other *Node) { entered = append(entered, other) })
	area.OnBodyExited(func(other *Node) { exited = append(exited, other) })

	var exitEvents []CollisionEvent
	e.Physics().OnCollision(func(ev CollisionEvent) {
		if !ev.Entered {
			exitEvents = append(exitEvents, ev)
		}
	})

	e.SetScene(scene)
	e.Play()

	// fall through the zone
	stepPhysics(e, 240)
	require.Len(t, entered, 1)
	assert.Same(t, ball, entered[0])
	require.Len(t, exited, 1)
	assert.Same(t, ball, exited[0])

	require.Len(t, exitEvents, 1)
	assert.Equal(t, sensorExitNormal, exitEvents[0].Normal, "sensor exits carry the marker normal")
	assert.True(t, exitEvents[0].Sensor)
}

func TestWorld3DDynamicLandsOnStaticFloor(t *testing.T) {
	e, _, _ := newTestEngine(t)
	scene := NewScene("test")

	floor := NewNode3D("floor")
	floor.Position3D = mgl32.Vec3{0, 0, 0}
	floorBody := NewRigidBody3D()
	require.NoError(t, floorBody.Exports().Set("body_type", EnumValue(int(BodyStatic))))
	require.NoError(t, floorBody.Exports().Set("half_extents", Vec3Value(mgl32.Vec3{10, 0.5, 10})))
	require.NoError(t, floor.AddComponent(floorBody))
	require.NoError(t, scene.Root().AddChild(floor))

	crate := NewNode3D("crate")
	crate.Position3D = mgl32.Vec3{0, 5, 0}
	crateBody := NewRigidBody3D()
	require.NoError(t, crate.AddComponent(crateBody))
	require.NoError(t, scene.Root().AddChild(crate))

	var enters int
	e.Physics().OnCollision(func(ev CollisionEvent) {
		if ev.Entered {
			enters++
		}
	})

	e.SetScene(scene)
	e.Play()
	require.Equal(t, 2, e.Physics().BodyCount3D())

	stepPhysics(e, 180)
	assert.Equal(t, 1, enters, "one enter event per touch")
	assert.InDelta(t, 1.0, crate.Position3D[1], 0.05, "crate rests on the floor surface")
	assert.InDelta(t, 0, crateBody.Velocity()[1], 0.01, "approach velocity is killed")
}

func TestWorld3DSensorDoesNotBlock(t *testing.T) {
	e, _, _ := newTestEngine(t)
	scene := NewScene("test")

	trigger := NewNode3D("trigger")
	trigger.Position3D = mgl32.Vec3{0, 2, 0}
	triggerBody := NewRigidBody3D()
	require.NoError(t, triggerBody.Exports().Set("body_type", EnumValue(int(BodyStatic))))
	require.NoError(t, triggerBody.Exports().Set("sensor", BoolValue(true)))
	require.NoError(t, trigger.AddComponent(triggerBody))
	require.NoError(t, scene.Root().AddChild(trigger))

	crate := NewNode3D("crate")
	crate.Position3D = mgl32.Vec3{0, 6, 0}
	require.NoError(t, crate.AddComponent(NewRigidBody3D()))
	require.NoError(t, scene.Root().AddChild(crate))

	var enters, exits int
	e.Physics().OnCollision(func(ev CollisionEvent) {
		require.True(t, ev.Sensor)
		if ev.Entered {
			enters++
		} else {
			exits++
		}
	})

	e.SetScene(scene)
	e.Play()
	stepPhysics(e, 180)

	assert.Equal(t, 1, enters)
	assert.Equal(t, 1, exits)
	assert.Less(t, crate.Position3D[1], float32(0), "sensors never stop the fall")
}

func TestRemoveNodeDropsBodies(t *testing.T) {
	e, _, _ := newTestEngine(t)
	scene := NewScene("test")
	n2 := NewNode2D("flat")
	require.NoError(t, n2.AddComponent(NewRigidBody2D()))
	require.NoError(t, scene.Root().AddChild(n2))
	n3 := NewNode3D("deep")
	require.NoError(t, n3.AddComponent(NewRigidBody3D()))
	require.NoError(t, scene.Root().AddChild(n3))
	e.SetScene(scene)
	e.Play()
	require.Equal(t, 1, e.Physics().BodyCount2D())
	require.Equal(t, 1, e.Physics().BodyCount3D())

	// destroying the nodes unregisters their bodies
	scene.Root().RemoveChild(n2.UUID())
	scene.Root().RemoveChild(n3.UUID())
	assert.Zero(t, e.Physics().BodyCount2D())
	assert.Zero(t, e.Physics().BodyCount3D())
}

func TestPhysicsStepRecoversFromHandlerPanic(t *testing.T) {
	e, _, _ := newTestEngine(t)
	e.Physics().OnCollision(func(CollisionEvent) { panic("handler bug") })

	scene := NewScene("test")
	a := NewNode3D("a")
	require.NoError(t, a.AddComponent(NewRigidBody3D()))
	require.NoError(t, scene.Root().AddChild(a))
	b := NewNode3D("b")
	require.NoError(t, b.AddComponent(NewRigidBody3D()))
	require.NoError(t, scene.Root().AddChild(b))
	e.SetScene(scene)
	e.Play()

	assert.NotPanics(t, func() { stepPhysics(e, 5) })
}

func TestSetGravity(t *testing.T) {
	e, _, _ := newTestEngine(t)
	e.Physics().SetGravity3D(mgl32.Vec3{0, 9.81, 0})

	scene := NewScene("test")
	balloon := NewNode3D("balloon")
	require.NoError(t, balloon.AddComponent(NewRigidBody3D()))
	require.NoError(t, scene.Root().AddChild(balloon))
	e.SetScene(scene)
	e.Play()

	stepPhysics(e, 30)
	assert.Greater(t, balloon.Position3D[1], float32(0), "inverted gravity lifts the body")
}
