package rowan

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Project is a game's top-level description: its name, the scene to open
// first, and a flat set of typed settings keyed "section/name".
type Project struct {
	Name      string
	MainScene string
	dir       string
	settings  map[string]Value
}

// Well-known setting keys.
const (
	SettingDisplayWidth  = "display/width"
	SettingDisplayHeight = "display/height"
	SettingDisplayTitle  = "display/title"
	SettingUndoDepth     = "editor/undo_depth"
	SettingActionMap     = "input/action_map"
	SettingGlobalsFile   = "globals/file"
	SettingLocalization  = "localization/file"
	SettingDefaultLocale = "localization/default_locale"
	SettingShadowQuality = "rendering/shadow_quality"
	SettingMaxShadowMaps = "rendering/max_shadow_maps"
)

// NewProject creates a project with default settings.
func NewProject(name string) *Project {
	p := &Project{Name: name, settings: make(map[string]Value)}
	p.settings[SettingDisplayWidth] = IntValue(1280)
	p.settings[SettingDisplayHeight] = IntValue(720)
	p.settings[SettingDisplayTitle] = StringValue(name)
	p.settings[SettingUndoDepth] = IntValue(50)
	return p
}

// Dir returns the directory the project file was loaded from. Relative
// resource paths resolve against it.
func (p *Project) Dir() string { return p.dir }

// Setting returns a setting's value and whether it is set.
func (p *Project) Setting(key string) (Value, bool) {
	v, ok := p.settings[key]
	return v, ok
}

// SetSetting sets a setting. Any key is allowed; the well-known keys are
// the ones the runtime consults.
func (p *Project) SetSetting(key string, v Value) {
	p.settings[key] = v
}

// IntSetting returns an int setting or the fallback.
func (p *Project) IntSetting(key string, fallback int) int {
	if v, ok := p.settings[key]; ok && (v.Kind == ValueInt || v.Kind == ValueEnum) {
		return v.I
	}
	return fallback
}

// StringSetting returns a string setting or the fallback.
func (p *Project) StringSetting(key, fallback string) string {
	if v, ok := p.settings[key]; ok && (v.Kind == ValueString || v.Kind == ValueFilePath) {
		return v.S
	}
	return fallback
}

// ResolvePath resolves a project-relative resource path.
func (p *Project) ResolvePath(rel string) string {
	if rel == "" || filepath.IsAbs(rel) || p.dir == "" {
		return rel
	}
	return filepath.Join(p.dir, rel)
}

// Project file layout.
type projectFile struct {
	Name      string                `yaml:"name"`
	MainScene string                `yaml:"main_scene,omitempty"`
	Settings  map[string]exportYAML `yaml:"settings,omitempty"`
}

// SaveProject writes the project file.
func SaveProject(p *Project, path string) error {
	file := projectFile{Name: p.Name, MainScene: p.MainScene}
	if len(p.settings) > 0 {
		file.Settings = make(map[string]exportYAML, len(p.settings))
		for key, v := range p.settings {
			file.Settings[key] = exportYAML{Type: v.Kind.String(), Value: v.String()}
		}
	}
	data, err := yaml.Marshal(&file)
	if err != nil {
		return fmt.Errorf("marshal project: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write project %s: %w", path, err)
	}
	return nil
}

// LoadProject reads a project file. Malformed settings are skipped with
// warnings.
func LoadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project %s: %w", path, err)
	}
	var file projectFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse project %s: %w", path, err)
	}
	p := NewProject(file.Name)
	p.MainScene = file.MainScene
	p.dir = filepath.Dir(path)
	for key, ey := range file.Settings {
		kind, ok := valueKindFromString(ey.Type)
		if !ok {
			logger.Warnf("project setting %q has unknown type %q", key, ey.Type)
			continue
		}
		v, err := ParseValue(kind, ey.Value)
		if err != nil {
			logger.Warnf("project setting %q: %v", key, err)
			continue
		}
		p.settings[key] = v
	}
	return p, nil
}

// ApplyProject configures the engine from a project: action map, globals,
// localization, and rendering settings. Missing optional files only warn.
func (e *Engine) ApplyProject(p *Project) {
	if path := p.StringSetting(SettingActionMap, ""); path != "" {
		if err := e.input.LoadActionMap(p.ResolvePath(path)); err != nil {
			logger.Warnf("project action map: %v", err)
		}
	}
	if path := p.StringSetting(SettingGlobalsFile, ""); path != "" {
		if err := e.globals.LoadFile(p.ResolvePath(path)); err != nil {
			logger.Warnf("project globals: %v", err)
		}
	}
	if path := p.StringSetting(SettingLocalization, ""); path != "" {
		if err := e.localization.LoadFile(p.ResolvePath(path)); err != nil {
			logger.Warnf("project localization: %v", err)
		}
	}
	if locale := p.StringSetting(SettingDefaultLocale, ""); locale != "" {
		e.localization.SetDefaultLocale(locale)
	}
	if q, ok := p.Setting(SettingShadowQuality); ok && (q.Kind == ValueInt || q.Kind == ValueEnum) {
		e.lighting.SetQuality(ShadowQuality(q.I))
	}
	if n := p.IntSetting(SettingMaxShadowMaps, -1); n >= 0 {
		e.lighting.SetMaxShadowMaps(n)
	}
}
