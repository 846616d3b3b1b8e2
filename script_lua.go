package rowan

import (
	"math"

	lua "github.com/yuin/gopher-lua"
)

// LuaScriptComponent hosts one Lua script. The script's top level runs once
// at load; lifecycle callbacks are the global functions on_awake, on_ready,
// on_update, on_physics_process, on_input, and on_destroy, all optional.
//
// The export_vars global declares the script's export variables: a table of
// name to initial value of simple type (bool, number, string). Each declared
// export is mirrored as a plain global of the same name, pushed before each
// on_update and read back after, so the editor and the script see the same
// state.
//
// A load or runtime error puts the component in an error state: the error
// is logged once and every further callback is suppressed until the script
// path or source is set again.
type LuaScriptComponent struct {
	BaseComponent
	api hostAPI

	state          *lua.LState
	source         string
	scriptName     string
	scriptCategory string
	errored        bool
	lastErr        error
}

// NewLuaScriptComponent creates an unloaded Lua host.
func NewLuaScriptComponent() *LuaScriptComponent {
	c := &LuaScriptComponent{BaseComponent: NewBaseComponent("LuaScriptComponent", "Scripting")}
	c.Exports().Add("script_path", FilePathValue(""), "path to the .lua script")
	return c
}

// ScriptPath returns the configured script path.
func (c *LuaScriptComponent) ScriptPath() string {
	v, _ := c.Exports().Get("script_path")
	return v.S
}

// SetScriptPath sets the script path, clears any error state and in-memory
// source, and reloads when the component is already awake.
func (c *LuaScriptComponent) SetScriptPath(path string) {
	c.Exports().Set("script_path", FilePathValue(path))
	c.source = ""
	c.errored = false
	c.lastErr = nil
	if c.state != nil {
		c.load()
	}
}

// SetScriptSource loads the script from in-memory source text instead of a
// file, clears any error state, and reloads when the component is already
// awake. The source takes precedence over script_path until the path is set
// again.
func (c *LuaScriptComponent) SetScriptSource(src string) {
	c.source = src
	c.errored = false
	c.lastErr = nil
	if c.state != nil {
		c.load()
	}
}

// ScriptName returns the script's self-declared name, or the file path.
func (c *LuaScriptComponent) ScriptName() string {
	if c.scriptName != "" {
		return c.scriptName
	}
	return c.ScriptPath()
}

// ScriptCategory returns the script's self-declared category.
func (c *LuaScriptComponent) ScriptCategory() string { return c.scriptCategory }

// Err returns the load or runtime error holding the component in its error
// state, or nil.
func (c *LuaScriptComponent) Err() error { return c.lastErr }

func (c *LuaScriptComponent) fail(err error) {
	c.errored = true
	c.lastErr = err
	logger.Errorf("lua script %s: %v", c.scriptLabel(), err)
}

func (c *LuaScriptComponent) scriptLabel() string {
	if p := c.ScriptPath(); p != "" {
		return p
	}
	return "<source>"
}

// OnAwake loads and executes the script's top level, then invokes the
// script's on_awake callback.
func (c *LuaScriptComponent) OnAwake() {
	c.load()
}

func (c *LuaScriptComponent) load() {
	if c.state != nil {
		c.state.Close()
		c.state = nil
	}
	path := c.ScriptPath()
	if path == "" && c.source == "" {
		return
	}
	c.api = hostAPI{owner: c.Owner(), label: c.scriptLabel()}

	L := lua.NewState()
	c.registerAPI(L)
	var err error
	if c.source != "" {
		err = L.DoString(c.source)
	} else {
		err = L.DoFile(path)
	}
	if err != nil {
		L.Close()
		c.fail(err)
		return
	}
	c.state = L
	c.errored = false
	c.lastErr = nil
	c.readMetadata()
	c.discoverExports()
	c.pushExports()
	c.call("on_awake")
}

// readMetadata picks up script_name and script_category globals.
func (c *LuaScriptComponent) readMetadata() {
	if s, ok := c.state.GetGlobal("script_name").(lua.LString); ok {
		c.scriptName = string(s)
		c.api.label = c.scriptName
	}
	if s, ok := c.state.GetGlobal("script_category").(lua.LString); ok {
		c.scriptCategory = string(s)
	}
}

// discoverExports reads the export_vars table: every entry of simple type
// (bool, number, string) declares an export variable. A variable already
// declared (from a scene file) keeps its stored value; the script's initial
// value becomes the default for new declarations. Globals outside the table
// stay private to the script.
func (c *LuaScriptComponent) discoverExports() {
	tbl, ok := c.state.GetGlobal("export_vars").(*lua.LTable)
	if !ok {
		return
	}
	tbl.ForEach(func(k, v lua.LValue) {
		name, ok := k.(lua.LString)
		if !ok {
			return
		}
		n := string(name)
		if len(n) == 0 || reservedScriptGlobals[n] || n == "script_path" {
			return
		}
		val, ok := luaToValue(v)
		if !ok {
			return
		}
		if existing, declared := c.Exports().Get(n); declared {
			if existing.Kind == val.Kind {
				return // keep the stored value
			}
		}
		c.Exports().Add(n, val, "")
	})
}

// pushExports copies export values into script globals.
func (c *LuaScriptComponent) pushExports() {
	if c.state == nil {
		return
	}
	for _, v := range c.Exports().All() {
		if v.Name == "script_path" {
			continue
		}
		if lv, ok := valueToLua(v.Value); ok {
			c.state.SetGlobal(v.Name, lv)
		}
	}
}

// pullExports copies script globals back into export values.
func (c *LuaScriptComponent) pullExports() {
	if c.state == nil {
		return
	}
	for _, v := range c.Exports().All() {
		if v.Name == "script_path" {
			continue
		}
		if val, ok := luaToValue(c.state.GetGlobal(v.Name)); ok && val.Kind == v.Kind {
			v.Value = val
		}
	}
}

func (c *LuaScriptComponent) call(name string, args ...lua.LValue) {
	if c.state == nil || c.errored {
		return
	}
	fn := c.state.GetGlobal(name)
	if fn == lua.LNil {
		return
	}
	err := c.state.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, args...)
	if err != nil {
		c.fail(err)
	}
}

func (c *LuaScriptComponent) OnReady() {
	c.pushExports()
	c.call("on_ready")
}

func (c *LuaScriptComponent) OnUpdate(dt float64) {
	c.pushExports()
	c.call("on_update", lua.LNumber(dt))
	c.pullExports()
}

func (c *LuaScriptComponent) OnPhysicsProcess(dt float64) {
	c.call("on_physics_process", lua.LNumber(dt))
}

func (c *LuaScriptComponent) OnInput(ev InputEvent) {
	if c.state == nil || c.errored {
		return
	}
	t := c.state.NewTable()
	t.RawSetString("kind", lua.LNumber(ev.Kind))
	t.RawSetString("code", lua.LNumber(ev.Code))
	t.RawSetString("gamepad", lua.LNumber(ev.Gamepad))
	t.RawSetString("x", lua.LNumber(ev.X))
	t.RawSetString("y", lua.LNumber(ev.Y))
	c.call("on_input", t)
}

func (c *LuaScriptComponent) OnDestroy() {
	c.call("on_destroy")
	if c.state != nil {
		c.state.Close()
		c.state = nil
	}
}

// --- API registration ---

func (c *LuaScriptComponent) registerAPI(L *lua.LState) {
	api := &c.api

	reg := func(name string, fn lua.LGFunction) {
		L.SetGlobal(name, L.NewFunction(fn))
	}

	reg("print", func(L *lua.LState) int {
		top := L.GetTop()
		msg := ""
		for i := 1; i <= top; i++ {
			if i > 1 {
				msg += "\t"
			}
			msg += L.ToStringMeta(L.Get(i)).String()
		}
		api.print(msg)
		return 0
	})
	reg("node_name", func(L *lua.LState) int {
		L.Push(lua.LString(api.nodeName()))
		return 1
	})
	reg("get_position", func(L *lua.LState) int {
		p := api.position()
		L.Push(lua.LNumber(p[0]))
		L.Push(lua.LNumber(p[1]))
		return 2
	})
	reg("set_position", func(L *lua.LState) int {
		api.setPosition(float64(L.CheckNumber(1)), float64(L.CheckNumber(2)))
		return 0
	})

	reg("is_action_pressed", func(L *lua.LState) int {
		L.Push(lua.LBool(api.isActionPressed(L.CheckString(1))))
		return 1
	})
	reg("is_action_just_pressed", func(L *lua.LState) int {
		L.Push(lua.LBool(api.isActionJustPressed(L.CheckString(1))))
		return 1
	})
	reg("is_action_just_released", func(L *lua.LState) int {
		L.Push(lua.LBool(api.isActionJustReleased(L.CheckString(1))))
		return 1
	})
	reg("is_key_pressed", func(L *lua.LState) int {
		L.Push(lua.LBool(api.isKeyPressed(L.CheckInt(1))))
		return 1
	})
	reg("is_key_just_pressed", func(L *lua.LState) int {
		L.Push(lua.LBool(api.isKeyJustPressed(L.CheckInt(1))))
		return 1
	})
	reg("is_mouse_button_pressed", func(L *lua.LState) int {
		L.Push(lua.LBool(api.isMouseButtonPressed(L.CheckInt(1))))
		return 1
	})
	reg("is_mouse_button_just_pressed", func(L *lua.LState) int {
		L.Push(lua.LBool(api.isMouseButtonJustPressed(L.CheckInt(1))))
		return 1
	})
	reg("get_axis", func(L *lua.LState) int {
		L.Push(lua.LNumber(api.axis(L.CheckString(1))))
		return 1
	})

	reg("get_global_bool", func(L *lua.LState) int {
		L.Push(lua.LBool(api.getGlobalBool(L.CheckString(1))))
		return 1
	})
	reg("get_global_int", func(L *lua.LState) int {
		L.Push(lua.LNumber(api.getGlobalInt(L.CheckString(1))))
		return 1
	})
	reg("get_global_float", func(L *lua.LState) int {
		L.Push(lua.LNumber(api.getGlobalFloat(L.CheckString(1))))
		return 1
	})
	reg("get_global_string", func(L *lua.LState) int {
		L.Push(lua.LString(api.getGlobalString(L.CheckString(1))))
		return 1
	})
	reg("set_global_bool", func(L *lua.LState) int {
		api.setGlobal(L.CheckString(1), BoolValue(L.CheckBool(2)))
		return 0
	})
	reg("set_global_int", func(L *lua.LState) int {
		api.setGlobal(L.CheckString(1), IntValue(L.CheckInt(2)))
		return 0
	})
	reg("set_global_float", func(L *lua.LState) int {
		api.setGlobal(L.CheckString(1), FloatValue(float64(L.CheckNumber(2))))
		return 0
	})
	reg("set_global_string", func(L *lua.LState) int {
		api.setGlobal(L.CheckString(1), StringValue(L.CheckString(2)))
		return 0
	})
	reg("get_autoload", func(L *lua.LState) int {
		name := L.CheckString(1)
		comp := api.getAutoloadScript(name)
		if comp == nil {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(luaAutoloadHandle(L, name, comp))
		return 1
	})

	reg("tr", func(L *lua.LState) int {
		L.Push(lua.LString(api.translate(L.CheckString(1), L.OptString(2, ""))))
		return 1
	})
	reg("get_locale", func(L *lua.LState) int {
		L.Push(lua.LString(api.locale()))
		return 1
	})
	reg("set_locale", func(L *lua.LState) int {
		api.setLocale(L.CheckString(1))
		return 0
	})
	reg("get_supported_locales", func(L *lua.LState) int {
		t := L.NewTable()
		for i, code := range api.supportedLocales() {
			t.RawSetInt(i+1, lua.LString(code))
		}
		L.Push(t)
		return 1
	})
	reg("is_locale_supported", func(L *lua.LState) int {
		L.Push(lua.LBool(api.isLocaleSupported(L.CheckString(1))))
		return 1
	})
	reg("has_localization_key", func(L *lua.LState) int {
		L.Push(lua.LBool(api.hasLocalizationKey(L.CheckString(1))))
		return 1
	})
}

// luaAutoloadHandle wraps an autoload's script component as a table: a name
// field plus get/set accessors over its export variables. set returns false
// for undeclared names and kind mismatches.
func luaAutoloadHandle(L *lua.LState, name string, comp Component) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("name", lua.LString(name))
	t.RawSetString("get", L.NewFunction(func(L *lua.LState) int {
		v, ok := comp.Exports().Get(L.CheckString(1))
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		if lv, ok := valueToLua(v); ok {
			L.Push(lv)
		} else {
			L.Push(lua.LNil)
		}
		return 1
	}))
	t.RawSetString("set", L.NewFunction(func(L *lua.LState) int {
		key := L.CheckString(1)
		v, ok := luaToValue(L.CheckAny(2))
		if !ok {
			L.Push(lua.LFalse)
			return 1
		}
		if existing, declared := comp.Exports().Get(key); declared && existing.Kind == ValueFloat && v.Kind == ValueInt {
			v = FloatValue(float64(v.I))
		}
		L.Push(lua.LBool(comp.Exports().Set(key, v) == nil))
		return 1
	}))
	return t
}

// luaToValue converts a simple Lua value to an export value. Whole numbers
// become ints.
func luaToValue(v lua.LValue) (Value, bool) {
	switch lv := v.(type) {
	case lua.LBool:
		return BoolValue(bool(lv)), true
	case lua.LNumber:
		f := float64(lv)
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return IntValue(int(f)), true
		}
		return FloatValue(f), true
	case lua.LString:
		return StringValue(string(lv)), true
	}
	return Value{}, false
}

// valueToLua converts an export value to a Lua value. Vector kinds have no
// Lua form and report false.
func valueToLua(v Value) (lua.LValue, bool) {
	switch v.Kind {
	case ValueBool:
		return lua.LBool(v.B), true
	case ValueInt, ValueEnum:
		return lua.LNumber(v.I), true
	case ValueFloat:
		return lua.LNumber(v.F), true
	case ValueString, ValueFilePath:
		return lua.LString(v.S), true
	}
	return lua.LNil, false
}
