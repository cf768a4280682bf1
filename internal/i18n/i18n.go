// Package i18n resolves human-readable labels for document types and kinds.
package i18n

import (
	"embed"
	"fmt"
	"path"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultLocale is used when a label is missing from the requested locale.
const DefaultLocale = "en"

//go:embed locales/*.yaml
var localeFS embed.FS

// Translations maps a label key to its text.
type Translations map[string]string

// Bundle holds the loaded locales. It is safe for concurrent use.
type Bundle struct {
	mu      sync.RWMutex
	locales map[string]Translations
}

// Load parses the embedded locale files.
func Load() (*Bundle, error) {
	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, err
	}
	b := &Bundle{locales: make(map[string]Translations)}
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".yaml" {
			continue
		}
		data, err := localeFS.ReadFile(path.Join("locales", entry.Name()))
		if err != nil {
			return nil, err
		}
		if err := b.Add(strings.TrimSuffix(entry.Name(), ".yaml"), data); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Add parses a YAML document with a LABELS map and merges it into locale.
func (b *Bundle) Add(locale string, data []byte) error {
	var doc struct {
		Labels Translations `yaml:"LABELS"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse locale %s: %w", locale, err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.locales == nil {
		b.locales = make(map[string]Translations)
	}
	t, ok := b.locales[locale]
	if !ok {
		t = make(Translations, len(doc.Labels))
		b.locales[locale] = t
	}
	for k, v := range doc.Labels {
		t[k] = v
	}
	return nil
}

// Label returns the text for key in locale, falling back to DefaultLocale and then to the key itself.
func (b *Bundle) Label(locale, key string) string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if t, ok := b.locales[locale]; ok {
		if v, ok := t[key]; ok {
			return v
		}
	}
	if locale != DefaultLocale {
		if t, ok := b.locales[DefaultLocale]; ok {
			if v, ok := t[key]; ok {
				return v
			}
		}
	}
	return key
}

// Locales lists the loaded locale names.
func (b *Bundle) Locales() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, 0, len(b.locales))
	for l := range b.locales {
		out = append(out, l)
	}
	return out
}
