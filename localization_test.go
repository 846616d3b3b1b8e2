package rowan

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateFallbackChain(t *testing.T) {
	l := NewLocalizationManager()
	l.AddTranslation("en", "menu.start", "Start")
	l.AddTranslation("de", "menu.start", "Starten")

	assert.Equal(t, "Start", l.Translate("menu.start"))

	l.SetLocale("de")
	assert.Equal(t, "Starten", l.Translate("menu.start"))

	// missing in current locale falls back to default
	l.AddTranslation("en", "menu.quit", "Quit")
	assert.Equal(t, "Quit", l.Translate("menu.quit"))

	// missing everywhere falls back to the key
	assert.Equal(t, "menu.options", l.Translate("menu.options"))
}

func TestSetLocaleNotifiesListeners(t *testing.T) {
	l := NewLocalizationManager()
	var seen []string
	l.OnLocaleChanged(func(locale string) { seen = append(seen, locale) })

	l.SetLocale("fr")
	l.SetLocale("fr") // no-op, already active
	l.SetLocale("en")
	assert.Equal(t, []string{"fr", "en"}, seen)
}

func TestTranslateWithFallback(t *testing.T) {
	l := NewLocalizationManager()
	l.AddTranslation("en", "menu.start", "Start")

	// an existing key ignores the fallback
	assert.Equal(t, "Start", l.TranslateWithFallback("menu.start", "Go"))

	// a missing key returns the fallback instead of the key
	assert.Equal(t, "Quit", l.TranslateWithFallback("menu.quit", "Quit"))

	// an empty fallback behaves like Translate
	assert.Equal(t, "menu.quit", l.TranslateWithFallback("menu.quit", ""))
}

func TestHasLocale(t *testing.T) {
	l := NewLocalizationManager()
	l.AddTranslation("en", "hello", "Hello")
	l.AddTranslation("fr", "hello", "Bonjour")

	assert.True(t, l.HasLocale("fr"))
	assert.False(t, l.HasLocale("de"))
}

func TestHasKeyAndLocales(t *testing.T) {
	l := NewLocalizationManager()
	l.AddTranslation("en", "hello", "Hello")
	l.AddTranslation("ja", "hello", "こんにちは")

	assert.True(t, l.HasKey("hello"))
	assert.False(t, l.HasKey("bye"))
	assert.Equal(t, []string{"en", "ja"}, l.Locales())

	l.RemoveTranslation("en", "hello")
	assert.False(t, l.HasKey("hello"))
}

func TestLocalizationFileRoundTrip(t *testing.T) {
	l := NewLocalizationManager()
	l.SetDefaultLocale("en")
	l.AddTranslation("en", "hud.score", "Score")
	l.AddTranslation("de", "hud.score", "Punkte")

	path := filepath.Join(t.TempDir(), "strings.yaml")
	require.NoError(t, l.SaveFile(path))

	other := NewLocalizationManager()
	other.SetLocale("de")
	require.NoError(t, other.LoadFile(path))
	assert.Equal(t, "Punkte", other.Translate("hud.score"))
	assert.Equal(t, "de", other.CurrentLocale(), "current locale survives when its table exists")
}

func TestLoadFileSnapsToDefaultLocale(t *testing.T) {
	l := NewLocalizationManager()
	l.SetDefaultLocale("fr")
	l.AddTranslation("fr", "hello", "Bonjour")

	path := filepath.Join(t.TempDir(), "strings.yaml")
	require.NoError(t, l.SaveFile(path))

	other := NewLocalizationManager()
	other.SetLocale("ja") // no ja table in the file
	require.NoError(t, other.LoadFile(path))
	assert.Equal(t, "fr", other.CurrentLocale())
	assert.Equal(t, "Bonjour", other.Translate("hello"))

	assert.Error(t, other.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")))
}
