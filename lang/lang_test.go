package lang

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{
			name:     "Turkish with dotless i",
			text:     "Merhaba, nasılsınız?",
			expected: "tr",
		},
		{
			name:     "Turkish with ğ and ş",
			text:     "Belgeyi yükledim, teşekkürler",
			expected: "tr",
		},
		{
			name:     "German with sharp s",
			text:     "Die Straße ist gesperrt",
			expected: "de",
		},
		{
			name:     "German with a-umlaut",
			text:     "Die Erklärung kommt morgen",
			expected: "de",
		},
		{
			name:     "French with grave accents",
			text:     "Très bien, à bientôt",
			expected: "fr",
		},
		{
			name:     "French with cedilla",
			text:     "Le reçu est joint",
			expected: "fr",
		},
		{
			name:     "Spanish with tilde n",
			text:     "Mañana por la tarde",
			expected: "es",
		},
		{
			name:     "Spanish with inverted question mark",
			text:     "¿Puede enviar la factura?",
			expected: "es",
		},
		{
			name:     "Plain ASCII defaults to baseline",
			text:     "Hello, how are you?",
			expected: "en",
		},
		{
			name:     "Empty string defaults to baseline",
			text:     "",
			expected: "en",
		},
		{
			name:     "Digits and punctuation default to baseline",
			text:     "Invoice #42 due 2026-09-01",
			expected: "en",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Detect(tt.text))

			// Detection must be deterministic
			assert.Equal(t, Detect(tt.text), Detect(tt.text))
		})
	}
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "English", DisplayName("en"))
	assert.Equal(t, "Türkçe", DisplayName("tr"))
	assert.Equal(t, "Deutsch", DisplayName("de"))
	assert.Equal(t, "Français", DisplayName("fr"))
	assert.Equal(t, "Español", DisplayName("es"))

	// Case and whitespace insensitive
	assert.Equal(t, "Türkçe", DisplayName(" TR "))

	// Unknown codes come back unchanged, never an error
	assert.Equal(t, "xx", DisplayName("xx"))
	assert.Equal(t, "", DisplayName(""))
}

func TestFlagGlyph(t *testing.T) {
	assert.Equal(t, "🇹🇷", FlagGlyph("tr"))
	assert.Equal(t, "🇬🇧", FlagGlyph("en"))
	assert.Equal(t, "🇩🇪", FlagGlyph("DE"))

	// Unknown codes get the globe glyph
	assert.Equal(t, "🌐", FlagGlyph("xx"))
	assert.Equal(t, "🌐", FlagGlyph(""))
}

func TestSupported(t *testing.T) {
	codes := Supported()
	assert.Len(t, codes, 5)

	for _, code := range codes {
		assert.True(t, IsSupported(code))
		assert.NotEqual(t, code, DisplayName(code))
		assert.NotEqual(t, "🌐", FlagGlyph(code))
	}

	assert.False(t, IsSupported("xx"))
}
