package rowan

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// LocalizationManager maps string keys to translated text per locale.
// Lookup falls back from the current locale to the default locale, and
// finally to the key itself, so missing translations stay visible instead
// of blank.
type LocalizationManager struct {
	tables        map[string]map[string]string
	currentLocale string
	defaultLocale string
	onChange      []func(locale string)
}

// NewLocalizationManager creates a manager with "en" as the default and
// current locale.
func NewLocalizationManager() *LocalizationManager {
	return &LocalizationManager{
		tables:        make(map[string]map[string]string),
		currentLocale: "en",
		defaultLocale: "en",
	}
}

// CurrentLocale returns the active locale code.
func (l *LocalizationManager) CurrentLocale() string { return l.currentLocale }

// DefaultLocale returns the fallback locale code.
func (l *LocalizationManager) DefaultLocale() string { return l.defaultLocale }

// SetDefaultLocale sets the fallback locale.
func (l *LocalizationManager) SetDefaultLocale(locale string) { l.defaultLocale = locale }

// SetLocale switches the active locale and notifies the change listeners.
// Switching to the already-active locale is a no-op.
func (l *LocalizationManager) SetLocale(locale string) {
	if locale == l.currentLocale {
		return
	}
	l.currentLocale = locale
	for _, fn := range l.onChange {
		fn(locale)
	}
}

// OnLocaleChanged registers a listener fired after every locale switch.
// Label components use this to refresh their text.
func (l *LocalizationManager) OnLocaleChanged(fn func(locale string)) {
	l.onChange = append(l.onChange, fn)
}

// AddTranslation sets one key's text in a locale, creating the locale table
// on demand.
func (l *LocalizationManager) AddTranslation(locale, key, text string) {
	table, ok := l.tables[locale]
	if !ok {
		table = make(map[string]string)
		l.tables[locale] = table
	}
	table[key] = text
}

// RemoveTranslation deletes one key from a locale table.
func (l *LocalizationManager) RemoveTranslation(locale, key string) {
	if table, ok := l.tables[locale]; ok {
		delete(table, key)
	}
}

// Translate resolves a key through the fallback chain: current locale,
// default locale, then the key itself.
func (l *LocalizationManager) Translate(key string) string {
	if text, ok := l.tables[l.currentLocale][key]; ok {
		return text
	}
	if text, ok := l.tables[l.defaultLocale][key]; ok {
		return text
	}
	return key
}

// TranslateWithFallback resolves a key like Translate, but when no locale
// has it returns the provided fallback text instead of the key. An empty
// fallback behaves like Translate.
func (l *LocalizationManager) TranslateWithFallback(key, fallback string) string {
	if text, ok := l.tables[l.currentLocale][key]; ok {
		return text
	}
	if text, ok := l.tables[l.defaultLocale][key]; ok {
		return text
	}
	if fallback != "" {
		return fallback
	}
	return key
}

// HasKey reports whether the key exists in the current or default locale.
func (l *LocalizationManager) HasKey(key string) bool {
	if _, ok := l.tables[l.currentLocale][key]; ok {
		return true
	}
	_, ok := l.tables[l.defaultLocale][key]
	return ok
}

// Locales returns the locale codes with tables, sorted.
func (l *LocalizationManager) Locales() []string {
	codes := make([]string, 0, len(l.tables))
	for code := range l.tables {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// HasLocale reports whether a locale has a table.
func (l *LocalizationManager) HasLocale(code string) bool {
	_, ok := l.tables[code]
	return ok
}

// Localization file layout: default locale plus one table per locale.
type localizationFile struct {
	DefaultLocale string                       `yaml:"default_locale"`
	Locales       map[string]map[string]string `yaml:"locales"`
}

// SaveFile writes every locale table as YAML.
func (l *LocalizationManager) SaveFile(path string) error {
	file := localizationFile{
		DefaultLocale: l.defaultLocale,
		Locales:       l.tables,
	}
	data, err := yaml.Marshal(&file)
	if err != nil {
		return fmt.Errorf("marshal localization: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write localization %s: %w", path, err)
	}
	return nil
}

// LoadFile replaces the locale tables with a YAML file's contents. The
// current locale is kept if it still has a table, otherwise it snaps to the
// file's default.
func (l *LocalizationManager) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read localization %s: %w", path, err)
	}
	var file localizationFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse localization %s: %w", path, err)
	}
	if file.Locales == nil {
		file.Locales = make(map[string]map[string]string)
	}
	l.tables = file.Locales
	if file.DefaultLocale != "" {
		l.defaultLocale = file.DefaultLocale
	}
	if _, ok := l.tables[l.currentLocale]; !ok {
		l.SetLocale(l.defaultLocale)
	}
	return nil
}
