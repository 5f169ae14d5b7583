// Package lang provides language utilities for the messaging pipeline:
// heuristic language detection and static code → display-name/flag lookups.
// All functions are pure and never fail.
package lang

import "strings"

// Baseline is the default language code used when detection or a directory
// lookup cannot determine one.
const Baseline = "en"

// Character sets that distinguish the supported languages. Sets are checked
// in a fixed order, most distinctive first, so detection is deterministic.
// Characters shared between languages (ö, ü, é, ...) sit in the set of the
// language they most strongly indicate.
var detectionSets = []struct {
	code  string
	runes string
}{
	{"tr", "ğĞşŞıİ"},
	{"de", "ßäÄ"},
	{"es", "ñÑ¿¡"},
	{"fr", "œŒèÈêÊâÂîÎôÔûÛëË"},
	{"es", "áÁíÍóÓúÚ"},
	{"fr", "éÉàÀçÇùÙ"},
	{"tr", "öÖüÜ"},
}

// Detect guesses the language of text from its character set.
//
// This is a best-effort heuristic over diacritic ranges, not a language-ID
// model: plain-ASCII text in any language comes back as the baseline "en",
// and languages outside the supported set map to whichever set their
// diacritics happen to hit first. Deterministic: the same input always yields
// the same code.
func Detect(text string) string {
	for _, set := range detectionSets {
		if strings.ContainsAny(text, set.runes) {
			return set.code
		}
	}
	return Baseline
}

// displayNames maps supported language codes to their native display names.
var displayNames = map[string]string{
	"en": "English",
	"tr": "Türkçe",
	"de": "Deutsch",
	"fr": "Français",
	"es": "Español",
}

// flagGlyphs maps supported language codes to flag emoji.
var flagGlyphs = map[string]string{
	"en": "🇬🇧",
	"tr": "🇹🇷",
	"de": "🇩🇪",
	"fr": "🇫🇷",
	"es": "🇪🇸",
}

// globeGlyph is returned for codes with no flag mapping.
const globeGlyph = "🌐"

// DisplayName returns the native display name for a language code.
// Unknown codes are returned unchanged so callers can always render something.
func DisplayName(code string) string {
	if name, ok := displayNames[normalize(code)]; ok {
		return name
	}
	return code
}

// FlagGlyph returns a flag emoji for a language code, or a generic globe
// glyph for unknown codes.
func FlagGlyph(code string) string {
	if flag, ok := flagGlyphs[normalize(code)]; ok {
		return flag
	}
	return globeGlyph
}

// Supported returns the language codes with display-name and flag mappings.
func Supported() []string {
	return []string{"en", "tr", "de", "fr", "es"}
}

// IsSupported reports whether code has full display mappings.
func IsSupported(code string) bool {
	_, ok := displayNames[normalize(code)]
	return ok
}

func normalize(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
