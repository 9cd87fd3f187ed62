package i18n

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"golang.org/x/text/language"
)

// Bundle holds translated UI strings for every supported language.
type Bundle struct {
	dict      map[string]map[string]string
	fallback  string
	supported []string
	matcher   language.Matcher
}

// Load reads <lang>.json files from dir.
func Load(dir string, fallback string, supported []string) (*Bundle, error) {
	return LoadFS(os.DirFS(dir), fallback, supported)
}

// LoadFS reads <lang>.json files from fsys. Missing files are allowed for
// every language except the fallback.
func LoadFS(fsys fs.FS, fallback string, supported []string) (*Bundle, error) {
	if len(supported) == 0 {
		supported = []string{"zh-TW", "en", "ja"}
	}
	b := &Bundle{
		dict:     map[string]map[string]string{},
		fallback: fallback,
	}
	for _, l := range supported {
		raw, err := fs.ReadFile(fsys, l+".json")
		if err != nil {
			if l == fallback {
				return nil, fmt.Errorf("load locale %s: %w", l, err)
			}
			continue
		}
		var m map[string]string
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", l, err)
		}
		b.dict[l] = m
	}
	if _, ok := b.dict[fallback]; !ok {
		return nil, fmt.Errorf("fallback locale %s not loaded", fallback)
	}

	// the matcher returns index 0 when nothing matches, so the fallback goes first
	b.supported = append([]string{fallback}, without(supported, fallback)...)
	tags := make([]language.Tag, 0, len(b.supported))
	for _, l := range b.supported {
		tags = append(tags, language.Make(l))
	}
	b.matcher = language.NewMatcher(tags)
	return b, nil
}

// Supported returns the configured languages in sorted order.
func (b *Bundle) Supported() []string {
	out := append([]string(nil), b.supported...)
	sort.Strings(out)
	return out
}

// Fallback returns the configured fallback language.
func (b *Bundle) Fallback() string { return b.fallback }

// T returns translation for key in lang, falling back to default and finally key.
func (b *Bundle) T(lang, key string) string {
	if lang != "" {
		if m, ok := b.dict[lang]; ok {
			if v, ok := m[key]; ok {
				return v
			}
		}
	}
	if m, ok := b.dict[b.fallback]; ok {
		if v, ok := m[key]; ok {
			return v
		}
	}
	return key
}

// Tf formats the translation of key with args.
func (b *Bundle) Tf(lang, key string, args ...any) string {
	return fmt.Sprintf(b.T(lang, key), args...)
}

// Resolve chooses the best supported language from an Accept-Language header.
func (b *Bundle) Resolve(acceptLang string) string {
	prefs, _, err := language.ParseAcceptLanguage(acceptLang)
	if err != nil || len(prefs) == 0 {
		return b.fallback
	}
	_, idx, conf := b.matcher.Match(prefs...)
	if conf == language.No {
		return b.fallback
	}
	return b.supported[idx]
}

// Normalize maps a user supplied language code (e.g. "EN", "zh-tw") onto a
// supported language, or "" when it is not supported.
func (b *Bundle) Normalize(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	for _, l := range b.supported {
		if strings.EqualFold(l, code) {
			return l
		}
	}
	return ""
}

// For binds the bundle to one language.
func (b *Bundle) For(lang string) Localizer {
	return Localizer{bundle: b, lang: lang}
}

// Localizer translates keys for a fixed language.
type Localizer struct {
	bundle *Bundle
	lang   string
}

// Lang returns the bound language.
func (l Localizer) Lang() string { return l.lang }

// T translates key.
func (l Localizer) T(key string) string {
	if l.bundle == nil {
		return key
	}
	return l.bundle.T(l.lang, key)
}

// Tf translates key and formats it with args.
func (l Localizer) Tf(key string, args ...any) string {
	return fmt.Sprintf(l.T(key), args...)
}

func without(values []string, drop string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != drop {
			out = append(out, v)
		}
	}
	return out
}
