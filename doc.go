// Package rowan is a scene-graph game engine core for 2D and 3D games.
//
// Rowan provides the node/component model, a deterministic per-frame
// pipeline (input, scripts, physics, animation, render), dual embedded
// scripting hosts (Lua and Starlark) sharing one API surface, an input
// action/axis layer, a physics bridge with 2D and 3D worlds, lighting and
// shadow-map dispatch, property animation, and scene/project serialization.
//
// # Quick start
//
// The simplest way to get started is [Run], which creates a window and game
// loop for you:
//
//	engine := rowan.NewEngine(rowan.NewEbitenDevice(), rowan.NewEbitenBackend())
//	scene := rowan.NewScene("main")
//	// ... add nodes and components ...
//	engine.SetScene(scene)
//	rowan.Run(engine, rowan.RunConfig{Title: "My Game", Width: 1280, Height: 720})
//
// For headless use (tests, servers, tools), build over the queue device and
// recording backend and drive frames yourself:
//
//	engine := rowan.NewHeadlessEngine()
//	engine.SetScene(scene)
//	engine.Play()
//	engine.Step(1.0 / 60.0)
//
// # Scene graph
//
// Every entity is a [Node]. Nodes form a tree rooted at [Scene.Root] and own
// their children and components; a node's parent pointer is a non-owning
// back-reference. Behavior attaches as [Component] values which receive
// lifecycle callbacks (OnAwake, OnReady, OnUpdate, OnPhysicsProcess,
// OnInput, OnDestroy) in documented tree order.
//
// # Frame pipeline
//
// Each frame runs six phases in a fixed order: input gather, script update,
// fixed-step physics, property animation, render, frame end. Everything runs
// on the main thread; there is no parallelism inside the core.
package rowan
