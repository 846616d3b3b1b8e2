package rowan

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strings"
)

// GlobalVariable is a typed, named value visible to every script host.
type GlobalVariable struct {
	Name        string
	Kind        ValueKind
	Value       Value
	Default     Value
	Description string
}

// GlobalsManager holds the project-wide typed variables and the autoload
// registry. One instance lives on the engine; scripts reach it through the
// host API.
type GlobalsManager struct {
	vars      map[string]*GlobalVariable
	autoloads []Autoload
}

// Autoload names a script instantiated once under the scene root when the
// engine starts playing. ScriptType is "lua" or "starlark". Disabled
// autoloads stay registered but are not instantiated.
type Autoload struct {
	Name       string
	ScriptPath string
	ScriptType string
	Enabled    bool
}

// NewGlobalsManager creates an empty manager.
func NewGlobalsManager() *GlobalsManager {
	return &GlobalsManager{vars: make(map[string]*GlobalVariable)}
}

// Register declares a global with its initial (and default) value.
// Redeclaring a name replaces it.
func (g *GlobalsManager) Register(name string, value Value, description string) {
	g.vars[name] = &GlobalVariable{
		Name:        name,
		Kind:        value.Kind,
		Value:       value,
		Default:     value,
		Description: description,
	}
}

// Unregister removes a global. Reports whether it existed.
func (g *GlobalsManager) Unregister(name string) bool {
	if _, ok := g.vars[name]; !ok {
		return false
	}
	delete(g.vars, name)
	return true
}

// Set updates a declared global. The value's kind must match the declared
// kind; a mismatch leaves the global untouched.
func (g *GlobalsManager) Set(name string, value Value) error {
	v, ok := g.vars[name]
	if !ok {
		return fmt.Errorf("global %q not declared", name)
	}
	if value.Kind != v.Kind {
		return fmt.Errorf("global %q is %s, got %s", name, v.Kind, value.Kind)
	}
	v.Value = value
	return nil
}

// Get returns a global's current value and whether it is declared.
func (g *GlobalsManager) Get(name string) (Value, bool) {
	v, ok := g.vars[name]
	if !ok {
		return Value{}, false
	}
	return v.Value, true
}

// Has reports whether a global is declared.
func (g *GlobalsManager) Has(name string) bool {
	_, ok := g.vars[name]
	return ok
}

// Reset restores one global to its default. Reports whether it existed.
func (g *GlobalsManager) Reset(name string) bool {
	v, ok := g.vars[name]
	if !ok {
		return false
	}
	v.Value = v.Default
	return true
}

// ResetAll restores every global to its default.
func (g *GlobalsManager) ResetAll() {
	for _, v := range g.vars {
		v.Value = v.Default
	}
}

// Names returns the declared global names, sorted.
func (g *GlobalsManager) Names() []string {
	names := make([]string, 0, len(g.vars))
	for name := range g.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Variable returns the full declaration of a global, or nil.
func (g *GlobalsManager) Variable(name string) *GlobalVariable {
	return g.vars[name]
}

// --- Text format ---

// The globals file is line-oriented:
//
//	name:type=value # description
//
// Vector components are space-separated inside the value. Blank lines and
// lines starting with # are skipped.

// Serialize writes the globals in their text form, sorted by name.
func (g *GlobalsManager) Serialize() string {
	var b strings.Builder
	for _, name := range g.Names() {
		v := g.vars[name]
		b.WriteString(name)
		b.WriteByte(':')
		b.WriteString(v.Kind.String())
		b.WriteByte('=')
		b.WriteString(v.Value.String())
		if v.Description != "" {
			b.WriteString(" # ")
			b.WriteString(v.Description)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Deserialize parses the text form, registering every parsed global.
// Malformed lines are skipped with a warning; parsing never fails hard.
func (g *GlobalsManager) Deserialize(text string) {
	scanner := bufio.NewScanner(strings.NewReader(text))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, _, value, desc, err := parseGlobalLine(line)
		if err != nil {
			logger.Warnf("globals line %d: %v", lineNo, err)
			continue
		}
		g.Register(name, value, desc)
	}
}

func parseGlobalLine(line string) (name string, kind ValueKind, value Value, desc string, err error) {
	head, tail, ok := strings.Cut(line, "=")
	if !ok {
		return "", 0, Value{}, "", fmt.Errorf("missing '=' in %q", line)
	}
	name, kindName, ok := strings.Cut(strings.TrimSpace(head), ":")
	if !ok {
		return "", 0, Value{}, "", fmt.Errorf("missing ':' in %q", head)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", 0, Value{}, "", fmt.Errorf("empty name in %q", line)
	}
	kind, ok = valueKindFromString(strings.TrimSpace(kindName))
	if !ok {
		return "", 0, Value{}, "", fmt.Errorf("unknown type %q", kindName)
	}
	raw := tail
	if i := strings.Index(tail, " # "); i >= 0 {
		raw = tail[:i]
		desc = strings.TrimSpace(tail[i+3:])
	}
	value, err = ParseValue(kind, strings.TrimSpace(raw))
	if err != nil {
		return "", 0, Value{}, "", err
	}
	return name, kind, value, desc, nil
}

// SaveFile writes the globals text form to a file.
func (g *GlobalsManager) SaveFile(path string) error {
	if err := os.WriteFile(path, []byte(g.Serialize()), 0o644); err != nil {
		return fmt.Errorf("write globals %s: %w", path, err)
	}
	return nil
}

// LoadFile reads and parses a globals file.
func (g *GlobalsManager) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read globals %s: %w", path, err)
	}
	g.Deserialize(string(data))
	return nil
}

// --- Autoloads ---

// RegisterAutoload declares an autoload script, enabled by default. Names
// must be unique; a duplicate is rejected.
func (g *GlobalsManager) RegisterAutoload(name, scriptPath, scriptType string) error {
	for _, a := range g.autoloads {
		if a.Name == name {
			return fmt.Errorf("autoload %q already registered", name)
		}
	}
	g.autoloads = append(g.autoloads, Autoload{Name: name, ScriptPath: scriptPath, ScriptType: scriptType, Enabled: true})
	return nil
}

// SetAutoloadEnabled toggles an autoload declaration. Takes effect on the
// next InitializeAutoloads. Reports whether the name is registered.
func (g *GlobalsManager) SetAutoloadEnabled(name string, enabled bool) bool {
	for i := range g.autoloads {
		if g.autoloads[i].Name == name {
			g.autoloads[i].Enabled = enabled
			return true
		}
	}
	return false
}

// UnregisterAutoload removes an autoload declaration. Reports whether it
// existed.
func (g *GlobalsManager) UnregisterAutoload(name string) bool {
	for i, a := range g.autoloads {
		if a.Name == name {
			g.autoloads = append(g.autoloads[:i], g.autoloads[i+1:]...)
			return true
		}
	}
	return false
}

// Autoloads returns the declarations in registration order. The returned
// slice MUST NOT be mutated by the caller.
func (g *GlobalsManager) Autoloads() []Autoload { return g.autoloads }

// autoloadPrefix marks nodes created by InitializeAutoloads so cleanup can
// find them.
const autoloadPrefix = "__autoload_"

// InitializeAutoloads instantiates one node per enabled autoload under the
// scene root, each carrying its script component. If the scene is live,
// scripts awake immediately.
func (g *GlobalsManager) InitializeAutoloads(scene *Scene) {
	for _, a := range g.autoloads {
		if !a.Enabled {
			continue
		}
		node := NewNode(autoloadPrefix + a.Name)
		var c Component
		switch a.ScriptType {
		case "starlark":
			sc := NewStarlarkScriptComponent()
			sc.SetScriptPath(a.ScriptPath)
			c = sc
		default:
			sc := NewLuaScriptComponent()
			sc.SetScriptPath(a.ScriptPath)
			c = sc
		}
		if err := node.AddComponent(c); err != nil {
			logger.Warnf("autoload %s: %v", a.Name, err)
			continue
		}
		if err := scene.Root().AddChild(node); err != nil {
			logger.Warnf("autoload %s: %v", a.Name, err)
		}
	}
}

// CleanupAutoloads removes every autoload node from the scene root.
func (g *GlobalsManager) CleanupAutoloads(scene *Scene) {
	root := scene.Root()
	for _, child := range append([]*Node(nil), root.Children()...) {
		if strings.HasPrefix(child.Name, autoloadPrefix) {
			root.RemoveChild(child.UUID())
		}
	}
}
