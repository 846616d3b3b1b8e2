package rowan

import (
	"github.com/go-gl/mathgl/mgl32"
)

// Script hosts expose one shared API wall to both languages, backed by the
// running engine. Every function degrades gracefully when no engine is
// active (headless construction, tests): queries return zero values, writes
// are dropped.

// reservedScriptGlobals are script globals that carry metadata instead of
// export variables; export_vars entries with these names are ignored.
var reservedScriptGlobals = map[string]bool{
	"script_name":     true,
	"script_category": true,
	"export_vars":     true,
}

// scriptCallbackNames are the lifecycle functions a script may define.
var scriptCallbackNames = []string{
	"on_awake", "on_ready", "on_update", "on_physics_process", "on_input",
	"on_destroy",
}

// hostAPI is the bridge a script component hands to its language runtime.
// It carries the owning node so node-relative calls resolve without the
// script naming itself.
type hostAPI struct {
	owner *Node
	label string // script name for console output
}

func (h *hostAPI) print(msg string) {
	logger.Infof("[%s] %s", h.label, msg)
}

func (h *hostAPI) nodeName() string {
	if h.owner == nil {
		return ""
	}
	return h.owner.Name
}

func (h *hostAPI) position() mgl32.Vec2 {
	if h.owner == nil {
		return mgl32.Vec2{}
	}
	return h.owner.Position2D
}

func (h *hostAPI) setPosition(x, y float64) {
	if h.owner == nil {
		return
	}
	h.owner.Position2D = mgl32.Vec2{float32(x), float32(y)}
	if e := activeEngine; e != nil {
		e.Animator().NotifyDirectSet(h.owner.UUID(), "position")
	}
}

// --- Input queries ---

func (h *hostAPI) isActionPressed(name string) bool {
	if e := activeEngine; e != nil {
		return e.Input().IsActionPressed(name)
	}
	return false
}

func (h *hostAPI) isActionJustPressed(name string) bool {
	if e := activeEngine; e != nil {
		return e.Input().IsActionJustPressed(name)
	}
	return false
}

func (h *hostAPI) isActionJustReleased(name string) bool {
	if e := activeEngine; e != nil {
		return e.Input().IsActionJustReleased(name)
	}
	return false
}

func (h *hostAPI) isKeyPressed(code int) bool {
	if e := activeEngine; e != nil {
		return e.Input().IsKeyPressed(Key(code))
	}
	return false
}

func (h *hostAPI) isKeyJustPressed(code int) bool {
	if e := activeEngine; e != nil {
		return e.Input().IsKeyJustPressed(Key(code))
	}
	return false
}

func (h *hostAPI) isMouseButtonPressed(button int) bool {
	if e := activeEngine; e != nil {
		return e.Input().IsMouseButtonPressed(MouseButton(button))
	}
	return false
}

func (h *hostAPI) isMouseButtonJustPressed(button int) bool {
	if e := activeEngine; e != nil {
		return e.Input().IsMouseButtonJustPressed(MouseButton(button))
	}
	return false
}

func (h *hostAPI) axis(name string) float64 {
	if e := activeEngine; e != nil {
		return e.Input().GetAxis(name)
	}
	return 0
}

// --- Globals ---

func (h *hostAPI) globals() *GlobalsManager {
	if e := activeEngine; e != nil {
		return e.Globals()
	}
	return nil
}

func (h *hostAPI) getGlobalBool(name string) bool {
	if g := h.globals(); g != nil {
		if v, ok := g.Get(name); ok && v.Kind == ValueBool {
			return v.B
		}
	}
	return false
}

func (h *hostAPI) getGlobalInt(name string) int {
	if g := h.globals(); g != nil {
		if v, ok := g.Get(name); ok && (v.Kind == ValueInt || v.Kind == ValueEnum) {
			return v.I
		}
	}
	return 0
}

func (h *hostAPI) getGlobalFloat(name string) float64 {
	if g := h.globals(); g != nil {
		if v, ok := g.Get(name); ok && v.Kind == ValueFloat {
			return v.F
		}
	}
	return 0
}

func (h *hostAPI) getGlobalString(name string) string {
	if g := h.globals(); g != nil {
		if v, ok := g.Get(name); ok && (v.Kind == ValueString || v.Kind == ValueFilePath) {
			return v.S
		}
	}
	return ""
}

func (h *hostAPI) setGlobal(name string, v Value) {
	g := h.globals()
	if g == nil {
		return
	}
	if !g.Has(name) {
		g.Register(name, v, "")
		return
	}
	if err := g.Set(name, v); err != nil {
		logger.Warnf("[%s] %v", h.label, err)
	}
}

func (h *hostAPI) getAutoloadNode(name string) *Node {
	e := activeEngine
	if e == nil || e.Scene() == nil {
		return nil
	}
	return e.Scene().FindNodeByName(autoloadPrefix + name)
}

// getAutoloadScript returns the script component instantiated for an
// autoload, so scripts can reach its exported state through a handle.
func (h *hostAPI) getAutoloadScript(name string) Component {
	n := h.getAutoloadNode(name)
	if n == nil {
		return nil
	}
	for _, c := range n.Components() {
		switch c.(type) {
		case *LuaScriptComponent, *StarlarkScriptComponent:
			return c
		}
	}
	return nil
}

// --- Localization ---

func (h *hostAPI) translate(key, fallback string) string {
	if e := activeEngine; e != nil {
		return e.Localization().TranslateWithFallback(key, fallback)
	}
	if fallback != "" {
		return fallback
	}
	return key
}

func (h *hostAPI) hasLocalizationKey(key string) bool {
	if e := activeEngine; e != nil {
		return e.Localization().HasKey(key)
	}
	return false
}

func (h *hostAPI) supportedLocales() []string {
	if e := activeEngine; e != nil {
		return e.Localization().Locales()
	}
	return nil
}

func (h *hostAPI) isLocaleSupported(code string) bool {
	if e := activeEngine; e != nil {
		return e.Localization().HasLocale(code)
	}
	return false
}

func (h *hostAPI) locale() string {
	if e := activeEngine; e != nil {
		return e.Localization().CurrentLocale()
	}
	return ""
}

func (h *hostAPI) setLocale(locale string) {
	if e := activeEngine; e != nil {
		e.Localization().SetLocale(locale)
	}
}
