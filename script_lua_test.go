package rowan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, name, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	return path
}

func TestLuaExportDiscovery(t *testing.T) {
	path := writeScript(t, "mover.lua", `
script_name = "mover"
script_category = "AI"

export_vars = {
	speed = 3.5,
	lives = 2,
	label = "hero",
	enabled = true,
}

frame_budget = 99

function on_update(dt)
end
`)
	c := NewLuaScriptComponent()
	n := NewNode2D("npc")
	require.NoError(t, n.AddComponent(c))
	c.SetScriptPath(path)
	c.OnAwake()
	require.NoError(t, c.Err())

	v, ok := c.Exports().Get("speed")
	require.True(t, ok)
	assert.Equal(t, ValueFloat, v.Kind)
	assert.InDelta(t, 3.5, v.F, 1e-9)

	v, _ = c.Exports().Get("lives")
	assert.Equal(t, ValueInt, v.Kind)
	assert.Equal(t, 2, v.I)

	v, _ = c.Exports().Get("label")
	assert.Equal(t, "hero", v.S)

	v, _ = c.Exports().Get("enabled")
	assert.True(t, v.B)

	_, ok = c.Exports().Get("frame_budget")
	assert.False(t, ok, "globals outside export_vars stay private")
	_, ok = c.Exports().Get("export_vars")
	assert.False(t, ok)
	_, ok = c.Exports().Get("script_name")
	assert.False(t, ok, "metadata globals are not exports")
	_, ok = c.Exports().Get("on_update")
	assert.False(t, ok, "functions are not exports")

	assert.Equal(t, "mover", c.ScriptName())
	assert.Equal(t, "AI", c.ScriptCategory())
}

func TestLuaStoredExportValueWinsOverScriptDefault(t *testing.T) {
	path := writeScript(t, "tuned.lua", "export_vars = { speed = 1.5 }\n")
	c := NewLuaScriptComponent()
	// a scene file restored this value before the script loaded
	c.Exports().Add("speed", FloatValue(9), "")
	c.SetScriptPath(path)
	c.OnAwake()
	require.NoError(t, c.Err())

	v, _ := c.Exports().Get("speed")
	assert.Equal(t, 9.0, v.F)
}

func TestLuaUpdateSyncsExports(t *testing.T) {
	path := writeScript(t, "counter.lua", `
export_vars = { elapsed = 0.5 }

function on_update(dt)
	elapsed = elapsed + dt
end
`)
	c := NewLuaScriptComponent()
	c.SetScriptPath(path)
	c.OnAwake()
	require.NoError(t, c.Err())

	c.OnUpdate(0.25)
	v, _ := c.Exports().Get("elapsed")
	assert.InDelta(t, 0.75, v.F, 1e-9)

	// an editor-side write reaches the script on the next update
	require.NoError(t, c.Exports().Set("elapsed", FloatValue(100)))
	c.OnUpdate(0.25)
	v, _ = c.Exports().Get("elapsed")
	assert.InDelta(t, 100.25, v.F, 1e-9)
}

func TestLuaAwakeCallback(t *testing.T) {
	path := writeScript(t, "waker.lua", `
export_vars = { awoken = false }

function on_awake()
	awoken = true
end
`)
	c := NewLuaScriptComponent()
	c.SetScriptPath(path)
	c.OnAwake()
	require.NoError(t, c.Err())

	c.pullExports()
	v, _ := c.Exports().Get("awoken")
	assert.True(t, v.B, "on_awake runs right after the script loads")
}

func TestLuaPhysicsCallback(t *testing.T) {
	path := writeScript(t, "stepper.lua", `
export_vars = { steps = 0 }

function on_physics_process(dt)
	steps = steps + 1
end
`)
	c := NewLuaScriptComponent()
	c.SetScriptPath(path)
	c.OnAwake()
	require.NoError(t, c.Err())

	c.OnPhysicsProcess(1.0 / 60.0)
	c.pullExports()
	v, _ := c.Exports().Get("steps")
	assert.Equal(t, 1, v.I)
}

func TestLuaScriptSource(t *testing.T) {
	c := NewLuaScriptComponent()
	c.SetScriptSource(`
export_vars = { speed = 2.5 }

function on_update(dt)
	speed = speed + 0.25
end
`)
	c.OnAwake()
	require.NoError(t, c.Err())

	v, ok := c.Exports().Get("speed")
	require.True(t, ok, "exports discover from in-memory source")
	assert.InDelta(t, 2.5, v.F, 1e-9)

	c.OnUpdate(0.016)
	v, _ = c.Exports().Get("speed")
	assert.InDelta(t, 2.75, v.F, 1e-9)

	// replacing the source while awake reloads immediately
	c.SetScriptSource("export_vars = { gear = 1 }\n")
	require.NoError(t, c.Err())
	_, ok = c.Exports().Get("gear")
	assert.True(t, ok)
}

func TestLuaLoadErrorSuppressesCallbacks(t *testing.T) {
	bad := writeScript(t, "broken.lua", "this is not lua(\n")
	c := NewLuaScriptComponent()
	c.SetScriptPath(bad)
	c.OnAwake()
	assert.Error(t, c.Err())

	// callbacks are inert while errored
	assert.NotPanics(t, func() {
		c.OnReady()
		c.OnUpdate(0.016)
		c.OnPhysicsProcess(0.016)
	})

	// setting a good path clears the error; the next awake loads it
	good := writeScript(t, "fixed.lua", `
export_vars = { ticks = 0 }

function on_update(dt)
	ticks = ticks + 1
end
`)
	c.SetScriptPath(good)
	assert.NoError(t, c.Err())
	c.OnAwake()
	c.OnUpdate(0.016)
	v, _ := c.Exports().Get("ticks")
	assert.Equal(t, 1, v.I)
}

func TestLuaRuntimeErrorEntersErrorState(t *testing.T) {
	path := writeScript(t, "bomb.lua", `
export_vars = { count = 0 }

function on_ready()
	error("boom")
end

function on_update(dt)
	count = count + 1
end
`)
	c := NewLuaScriptComponent()
	c.SetScriptPath(path)
	c.OnAwake()
	require.NoError(t, c.Err())

	c.OnReady()
	assert.Error(t, c.Err())

	c.OnUpdate(0.016)
	v, _ := c.Exports().Get("count")
	assert.Equal(t, 0, v.I, "callbacks stay suppressed after the error")
}

func TestLuaInputCallback(t *testing.T) {
	path := writeScript(t, "listener.lua", `
export_vars = { last_code = -1 }

function on_input(ev)
	last_code = ev.code
end
`)
	c := NewLuaScriptComponent()
	c.SetScriptPath(path)
	c.OnAwake()
	require.NoError(t, c.Err())

	c.OnInput(InputEvent{Kind: EventKeyDown, Code: 42})
	c.pullExports()
	v, _ := c.Exports().Get("last_code")
	assert.Equal(t, 42, v.I)
}

func TestLuaHostGlobalsAPI(t *testing.T) {
	e, _, _ := newTestEngine(t)
	e.Globals().Register("score", IntValue(10), "")

	path := writeScript(t, "scorer.lua", `
function on_ready()
	set_global_int("score", get_global_int("score") + 5)
	set_global_string("last_event", "ready")
end
`)
	c := NewLuaScriptComponent()
	c.SetScriptPath(path)
	c.OnAwake()
	require.NoError(t, c.Err())
	c.OnReady()
	require.NoError(t, c.Err())

	v, _ := e.Globals().Get("score")
	assert.Equal(t, 15, v.I)
	v, ok := e.Globals().Get("last_event")
	require.True(t, ok, "undeclared globals are registered on first write")
	assert.Equal(t, "ready", v.S)
}

func TestLuaLocalizationAPI(t *testing.T) {
	e, _, _ := newTestEngine(t)
	e.Localization().AddTranslation("en", "menu.start", "Start")
	e.Localization().AddTranslation("fr", "menu.start", "Démarrer")

	path := writeScript(t, "menu.lua", `
export_vars = { started = "", missing = "", count = 0, ok = false }

function on_ready()
	started = tr("menu.start")
	missing = tr("menu.quit", "Quit")
	count = #get_supported_locales()
	ok = has_localization_key("menu.start")
		and is_locale_supported("fr")
		and not is_locale_supported("de")
end
`)
	c := NewLuaScriptComponent()
	c.SetScriptPath(path)
	c.OnAwake()
	require.NoError(t, c.Err())
	c.OnReady()
	require.NoError(t, c.Err())
	c.pullExports()

	v, _ := c.Exports().Get("started")
	assert.Equal(t, "Start", v.S)
	v, _ = c.Exports().Get("missing")
	assert.Equal(t, "Quit", v.S, "tr falls back to the provided text")
	v, _ = c.Exports().Get("count")
	assert.Equal(t, 2, v.I)
	v, _ = c.Exports().Get("ok")
	assert.True(t, v.B)
}

func TestLuaAutoloadHandle(t *testing.T) {
	e, _, _ := newTestEngine(t)
	audioPath := writeScript(t, "audio.lua", "export_vars = { volume = 0.5 }\n")
	require.NoError(t, e.Globals().RegisterAutoload("audio", audioPath, "lua"))

	consumerPath := writeScript(t, "consumer.lua", `
export_vars = { found = false, vol = 0.1 }

function on_ready()
	local audio = get_autoload("audio")
	if audio then
		found = audio.name == "audio"
		vol = audio.get("volume")
		audio.set("volume", 0.9)
	end
end
`)
	scene := NewScene("test")
	n := NewNode2D("consumer")
	c := NewLuaScriptComponent()
	require.NoError(t, n.AddComponent(c))
	c.SetScriptPath(consumerPath)
	require.NoError(t, scene.Root().AddChild(n))
	e.SetScene(scene)
	e.Play()
	require.NoError(t, c.Err())

	c.pullExports()
	v, _ := c.Exports().Get("found")
	assert.True(t, v.B)
	v, _ = c.Exports().Get("vol")
	assert.InDelta(t, 0.5, v.F, 1e-9)

	audio := scene.Root().FindChildByName("__autoload_audio", false)
	require.NotNil(t, audio)
	ac := audio.GetComponent("LuaScriptComponent")
	require.NotNil(t, ac)
	av, _ := ac.Exports().Get("volume")
	assert.InDelta(t, 0.9, av.F, 1e-9, "handle writes reach the autoload's exports")
}

func TestLuaNodeAPI(t *testing.T) {
	newTestEngine(t)
	path := writeScript(t, "walker.lua", `
function on_ready()
	set_position(3, 4)
end
`)
	c := NewLuaScriptComponent()
	n := NewNode2D("walker")
	require.NoError(t, n.AddComponent(c))
	c.SetScriptPath(path)
	c.OnAwake()
	c.OnReady()
	require.NoError(t, c.Err())

	assert.Equal(t, float32(3), n.Position2D[0])
	assert.Equal(t, float32(4), n.Position2D[1])
}

func TestLuaDestroyClosesState(t *testing.T) {
	path := writeScript(t, "closer.lua", "function on_destroy()\nend\n")
	c := NewLuaScriptComponent()
	c.SetScriptPath(path)
	c.OnAwake()
	require.NoError(t, c.Err())

	c.OnDestroy()
	assert.NotPanics(t, func() { c.OnUpdate(0.016) }, "callbacks after destroy are inert")
}
