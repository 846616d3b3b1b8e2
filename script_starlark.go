package rowan

import (
	"fmt"

	"go.starlark.net/starlark"
)

// StarlarkScriptComponent hosts one Starlark script. The script's top level
// runs once at load; lifecycle callbacks are the module-level functions
// on_awake, on_ready, on_update, on_physics_process, on_input, and
// on_destroy, all optional.
//
// The export_vars module global declares the script's export variables: a
// dict of name to initial value of simple type, same contract as the Lua
// host. Starlark freezes module globals after execution, so scripts read
// and write exports through the get_export/set_export builtins instead of
// reassigning globals.
//
// Errors behave like the Lua host: the component enters an error state and
// suppresses callbacks until the script path or source is set again.
type StarlarkScriptComponent struct {
	BaseComponent
	api hostAPI

	thread         *starlark.Thread
	globals        starlark.StringDict
	source         string
	scriptName     string
	scriptCategory string
	errored        bool
	lastErr        error
}

// NewStarlarkScriptComponent creates an unloaded Starlark host.
func NewStarlarkScriptComponent() *StarlarkScriptComponent {
	c := &StarlarkScriptComponent{BaseComponent: NewBaseComponent("StarlarkScriptComponent", "Scripting")}
	c.Exports().Add("script_path", FilePathValue(""), "path to the .star script")
	return c
}

// ScriptPath returns the configured script path.
func (c *StarlarkScriptComponent) ScriptPath() string {
	v, _ := c.Exports().Get("script_path")
	return v.S
}

// SetScriptPath sets the script path, clears any error state and in-memory
// source, and reloads when the component is already awake.
func (c *StarlarkScriptComponent) SetScriptPath(path string) {
	c.Exports().Set("script_path", FilePathValue(path))
	c.source = ""
	c.errored = false
	c.lastErr = nil
	if c.thread != nil {
		c.load()
	}
}

// SetScriptSource loads the script from in-memory source text instead of a
// file, clears any error state, and reloads when the component is already
// awake. The source takes precedence over script_path until the path is set
// again.
func (c *StarlarkScriptComponent) SetScriptSource(src string) {
	c.source = src
	c.errored = false
	c.lastErr = nil
	if c.thread != nil {
		c.load()
	}
}

// ScriptName returns the script's self-declared name, or the file path.
func (c *StarlarkScriptComponent) ScriptName() string {
	if c.scriptName != "" {
		return c.scriptName
	}
	return c.ScriptPath()
}

// ScriptCategory returns the script's self-declared category.
func (c *StarlarkScriptComponent) ScriptCategory() string { return c.scriptCategory }

// Err returns the error holding the component in its error state, or nil.
func (c *StarlarkScriptComponent) Err() error { return c.lastErr }

func (c *StarlarkScriptComponent) fail(err error) {
	c.errored = true
	c.lastErr = err
	logger.Errorf("starlark script %s: %v", c.scriptLabel(), err)
}

func (c *StarlarkScriptComponent) scriptLabel() string {
	if p := c.ScriptPath(); p != "" {
		return p
	}
	return "<source>"
}

// OnAwake loads and executes the script's top level, then invokes the
// script's on_awake callback.
func (c *StarlarkScriptComponent) OnAwake() {
	c.load()
}

func (c *StarlarkScriptComponent) load() {
	c.thread = nil
	c.globals = nil
	path := c.ScriptPath()
	if path == "" && c.source == "" {
		return
	}
	label := c.scriptLabel()
	c.api = hostAPI{owner: c.Owner(), label: label}

	thread := &starlark.Thread{
		Name:  label,
		Print: func(_ *starlark.Thread, msg string) { c.api.print(msg) },
	}
	var src interface{}
	if c.source != "" {
		src = c.source
	}
	globals, err := starlark.ExecFile(thread, label, src, c.predeclared())
	if err != nil {
		c.fail(err)
		return
	}
	c.thread = thread
	c.globals = globals
	c.errored = false
	c.lastErr = nil
	c.readMetadata()
	c.discoverExports()
	c.call("on_awake")
}

func (c *StarlarkScriptComponent) readMetadata() {
	if s, ok := c.globals["script_name"].(starlark.String); ok {
		c.scriptName = string(s)
		c.api.label = c.scriptName
	}
	if s, ok := c.globals["script_category"].(starlark.String); ok {
		c.scriptCategory = string(s)
	}
}

// discoverExports reads the export_vars dict: every entry of simple type
// declares an export variable. A variable already declared from a scene
// file keeps its stored value. Globals outside the dict stay private to
// the script.
func (c *StarlarkScriptComponent) discoverExports() {
	d, ok := c.globals["export_vars"].(*starlark.Dict)
	if !ok {
		return
	}
	for _, item := range d.Items() {
		key, ok := item[0].(starlark.String)
		if !ok {
			continue
		}
		name := string(key)
		if len(name) == 0 || reservedScriptGlobals[name] || name == "script_path" {
			continue
		}
		val, ok := starlarkToValue(item[1])
		if !ok {
			continue
		}
		if existing, declared := c.Exports().Get(name); declared && existing.Kind == val.Kind {
			continue
		}
		c.Exports().Add(name, val, "")
	}
}

func (c *StarlarkScriptComponent) call(name string, args ...starlark.Value) {
	if c.thread == nil || c.errored {
		return
	}
	fn, ok := c.globals[name]
	if !ok {
		return
	}
	if _, err := starlark.Call(c.thread, fn, starlark.Tuple(args), nil); err != nil {
		c.fail(err)
	}
}

func (c *StarlarkScriptComponent) OnReady() {
	c.call("on_ready")
}

func (c *StarlarkScriptComponent) OnUpdate(dt float64) {
	c.call("on_update", starlark.Float(dt))
}

func (c *StarlarkScriptComponent) OnPhysicsProcess(dt float64) {
	c.call("on_physics_process", starlark.Float(dt))
}

func (c *StarlarkScriptComponent) OnInput(ev InputEvent) {
	if c.thread == nil || c.errored {
		return
	}
	d := starlark.NewDict(5)
	d.SetKey(starlark.String("kind"), starlark.MakeInt(int(ev.Kind)))
	d.SetKey(starlark.String("code"), starlark.MakeInt(ev.Code))
	d.SetKey(starlark.String("gamepad"), starlark.MakeInt(ev.Gamepad))
	d.SetKey(starlark.String("x"), starlark.Float(ev.X))
	d.SetKey(starlark.String("y"), starlark.Float(ev.Y))
	c.call("on_input", d)
}

func (c *StarlarkScriptComponent) OnDestroy() {
	c.call("on_destroy")
	c.thread = nil
	c.globals = nil
}

// --- API registration ---

func (c *StarlarkScriptComponent) predeclared() starlark.StringDict {
	api := &c.api

	str1 := func(name string, fn func(s string) starlark.Value) *starlark.Builtin {
		return starlark.NewBuiltin(name, func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var s string
			if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &s); err != nil {
				return nil, err
			}
			return fn(s), nil
		})
	}
	int1 := func(name string, fn func(i int) starlark.Value) *starlark.Builtin {
		return starlark.NewBuiltin(name, func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var i int
			if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &i); err != nil {
				return nil, err
			}
			return fn(i), nil
		})
	}

	dict := starlark.StringDict{
		"node_name": starlark.NewBuiltin("node_name", func(_ *starlark.Thread, _ *starlark.Builtin, _ starlark.Tuple, _ []starlark.Tuple) (starlark.Value, error) {
			return starlark.String(api.nodeName()), nil
		}),
		"get_position": starlark.NewBuiltin("get_position", func(_ *starlark.Thread, _ *starlark.Builtin, _ starlark.Tuple, _ []starlark.Tuple) (starlark.Value, error) {
			p := api.position()
			return starlark.Tuple{starlark.Float(p[0]), starlark.Float(p[1])}, nil
		}),
		"set_position": starlark.NewBuiltin("set_position", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var x, y float64
			if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &x, &y); err != nil {
				return nil, err
			}
			api.setPosition(x, y)
			return starlark.None, nil
		}),

		"is_action_pressed":       str1("is_action_pressed", func(s string) starlark.Value { return starlark.Bool(api.isActionPressed(s)) }),
		"is_action_just_pressed":  str1("is_action_just_pressed", func(s string) starlark.Value { return starlark.Bool(api.isActionJustPressed(s)) }),
		"is_action_just_released": str1("is_action_just_released", func(s string) starlark.Value { return starlark.Bool(api.isActionJustReleased(s)) }),
		"is_key_pressed":          int1("is_key_pressed", func(i int) starlark.Value { return starlark.Bool(api.isKeyPressed(i)) }),
		"is_key_just_pressed":     int1("is_key_just_pressed", func(i int) starlark.Value { return starlark.Bool(api.isKeyJustPressed(i)) }),
		"is_mouse_button_pressed": int1("is_mouse_button_pressed", func(i int) starlark.Value {
			return starlark.Bool(api.isMouseButtonPressed(i))
		}),
		"is_mouse_button_just_pressed": int1("is_mouse_button_just_pressed", func(i int) starlark.Value {
			return starlark.Bool(api.isMouseButtonJustPressed(i))
		}),
		"get_axis": str1("get_axis", func(s string) starlark.Value { return starlark.Float(api.axis(s)) }),

		"get_global_bool":   str1("get_global_bool", func(s string) starlark.Value { return starlark.Bool(api.getGlobalBool(s)) }),
		"get_global_int":    str1("get_global_int", func(s string) starlark.Value { return starlark.MakeInt(api.getGlobalInt(s)) }),
		"get_global_float":  str1("get_global_float", func(s string) starlark.Value { return starlark.Float(api.getGlobalFloat(s)) }),
		"get_global_string": str1("get_global_string", func(s string) starlark.Value { return starlark.String(api.getGlobalString(s)) }),

		"set_global_bool":   c.setGlobalBuiltin("set_global_bool", ValueBool),
		"set_global_int":    c.setGlobalBuiltin("set_global_int", ValueInt),
		"set_global_float":  c.setGlobalBuiltin("set_global_float", ValueFloat),
		"set_global_string": c.setGlobalBuiltin("set_global_string", ValueString),

		"get_autoload": str1("get_autoload", func(s string) starlark.Value {
			if comp := api.getAutoloadScript(s); comp != nil {
				return &autoloadHandle{name: s, comp: comp}
			}
			return starlark.None
		}),

		"tr": starlark.NewBuiltin("tr", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var key, fallback string
			if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &key, &fallback); err != nil {
				return nil, err
			}
			return starlark.String(api.translate(key, fallback)), nil
		}),
		"get_locale": starlark.NewBuiltin("get_locale", func(_ *starlark.Thread, _ *starlark.Builtin, _ starlark.Tuple, _ []starlark.Tuple) (starlark.Value, error) {
			return starlark.String(api.locale()), nil
		}),
		"set_locale": str1("set_locale", func(s string) starlark.Value {
			api.setLocale(s)
			return starlark.None
		}),
		"get_supported_locales": starlark.NewBuiltin("get_supported_locales", func(_ *starlark.Thread, _ *starlark.Builtin, _ starlark.Tuple, _ []starlark.Tuple) (starlark.Value, error) {
			codes := api.supportedLocales()
			elems := make([]starlark.Value, len(codes))
			for i, code := range codes {
				elems[i] = starlark.String(code)
			}
			return starlark.NewList(elems), nil
		}),
		"is_locale_supported":  str1("is_locale_supported", func(s string) starlark.Value { return starlark.Bool(api.isLocaleSupported(s)) }),
		"has_localization_key": str1("has_localization_key", func(s string) starlark.Value { return starlark.Bool(api.hasLocalizationKey(s)) }),

		"get_export": starlark.NewBuiltin("get_export", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var name string
			if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &name); err != nil {
				return nil, err
			}
			v, ok := c.Exports().Get(name)
			if !ok {
				return nil, fmt.Errorf("no export variable %q", name)
			}
			sv, ok := valueToStarlark(v)
			if !ok {
				return nil, fmt.Errorf("export variable %q has no starlark form", name)
			}
			return sv, nil
		}),
		"set_export": starlark.NewBuiltin("set_export", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var name string
			var raw starlark.Value
			if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &name, &raw); err != nil {
				return nil, err
			}
			v, ok := starlarkToValue(raw)
			if !ok {
				return nil, fmt.Errorf("set_export: unsupported value %s", raw.Type())
			}
			if err := c.Exports().Set(name, v); err != nil {
				return nil, err
			}
			return starlark.None, nil
		}),
	}
	return dict
}

func (c *StarlarkScriptComponent) setGlobalBuiltin(name string, kind ValueKind) *starlark.Builtin {
	api := &c.api
	return starlark.NewBuiltin(name, func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var gname string
		var raw starlark.Value
		if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &gname, &raw); err != nil {
			return nil, err
		}
		v, ok := starlarkToValue(raw)
		if !ok || v.Kind != kind {
			// int literals are accepted where floats are expected
			if ok && kind == ValueFloat && v.Kind == ValueInt {
				v = FloatValue(float64(v.I))
			} else {
				return nil, fmt.Errorf("%s: expected %s", b.Name(), kind)
			}
		}
		api.setGlobal(gname, v)
		return starlark.None, nil
	})
}

// autoloadHandle exposes an autoload's script component to Starlark: a name
// attribute plus get/set accessors over its export variables.
type autoloadHandle struct {
	name string
	comp Component
}

func (h *autoloadHandle) String() string        { return "autoload(" + h.name + ")" }
func (h *autoloadHandle) Type() string          { return "autoload" }
func (h *autoloadHandle) Freeze()               {}
func (h *autoloadHandle) Truth() starlark.Bool  { return starlark.True }
func (h *autoloadHandle) Hash() (uint32, error) { return starlark.String(h.name).Hash() }

func (h *autoloadHandle) AttrNames() []string { return []string{"get", "name", "set"} }

func (h *autoloadHandle) Attr(name string) (starlark.Value, error) {
	switch name {
	case "name":
		return starlark.String(h.name), nil
	case "get":
		return starlark.NewBuiltin("get", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var key string
			if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &key); err != nil {
				return nil, err
			}
			v, ok := h.comp.Exports().Get(key)
			if !ok {
				return starlark.None, nil
			}
			if sv, ok := valueToStarlark(v); ok {
				return sv, nil
			}
			return starlark.None, nil
		}), nil
	case "set":
		return starlark.NewBuiltin("set", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
			var key string
			var raw starlark.Value
			if err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 2, &key, &raw); err != nil {
				return nil, err
			}
			v, ok := starlarkToValue(raw)
			if !ok {
				return nil, fmt.Errorf("set: unsupported value %s", raw.Type())
			}
			if existing, declared := h.comp.Exports().Get(key); declared && existing.Kind == ValueFloat && v.Kind == ValueInt {
				v = FloatValue(float64(v.I))
			}
			if err := h.comp.Exports().Set(key, v); err != nil {
				return nil, err
			}
			return starlark.None, nil
		}), nil
	}
	return nil, nil
}

// starlarkToValue converts a simple Starlark value to an export value.
func starlarkToValue(v starlark.Value) (Value, bool) {
	switch sv := v.(type) {
	case starlark.Bool:
		return BoolValue(bool(sv)), true
	case starlark.Int:
		i, ok := sv.Int64()
		if !ok {
			return Value{}, false
		}
		return IntValue(int(i)), true
	case starlark.Float:
		return FloatValue(float64(sv)), true
	case starlark.String:
		return StringValue(string(sv)), true
	}
	return Value{}, false
}

// valueToStarlark converts an export value to a Starlark value.
func valueToStarlark(v Value) (starlark.Value, bool) {
	switch v.Kind {
	case ValueBool:
		return starlark.Bool(v.B), true
	case ValueInt, ValueEnum:
		return starlark.MakeInt(v.I), true
	case ValueFloat:
		return starlark.Float(v.F), true
	case ValueString, ValueFilePath:
		return starlark.String(v.S), true
	}
	return starlark.None, false
}
