package i18n_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docexpiry/internal/i18n"
)

func TestBundle_Label(t *testing.T) {
	b, err := i18n.Load()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"en", "es"}, b.Locales())

	tests := []struct {
		name   string
		locale string
		key    string
		want   string
	}{
		{"english", "en", "tax_certificate", "Tax certificate"},
		{"spanish", "es", "tax_certificate", "Certificado fiscal"},
		{"unknown locale falls back to english", "fr", "license", "License"},
		{"unknown key returns key", "es", "boat_registration", "boat_registration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, b.Label(tt.locale, tt.key))
		})
	}
}

func TestBundle_AddFallsBackPerKey(t *testing.T) {
	b := &i18n.Bundle{}
	require.NoError(t, b.Add("en", []byte("LABELS:\n  a: Alpha\n  b: Beta\n")))
	require.NoError(t, b.Add("es", []byte("LABELS:\n  a: Alfa\n")))

	assert.Equal(t, "Alfa", b.Label("es", "a"))
	assert.Equal(t, "Beta", b.Label("es", "b"))
}

func TestBundle_AddRejectsInvalidYAML(t *testing.T) {
	b := &i18n.Bundle{}
	assert.Error(t, b.Add("en", []byte("LABELS: [unterminated")))
}
