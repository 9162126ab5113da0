// Package i18n holds the display-language catalogs. Every lookup takes the
// language explicitly.
package i18n

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

type Lang string

const (
	English Lang = "en"
	French  Lang = "fr"
)

const DefaultLang = English

//go:embed locales/*.yaml
var localeFS embed.FS

var catalogs = mustLoadCatalogs()

func mustLoadCatalogs() map[Lang]map[string]string {
	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		panic(err)
	}
	out := map[Lang]map[string]string{}
	for _, e := range entries {
		b, err := localeFS.ReadFile(path.Join("locales", e.Name()))
		if err != nil {
			panic(err)
		}
		var m map[string]string
		if err := yaml.Unmarshal(b, &m); err != nil {
			panic(fmt.Sprintf("locale %s: %v", e.Name(), err))
		}
		out[Lang(strings.TrimSuffix(e.Name(), ".yaml"))] = m
	}
	return out
}

// Parse normalizes a language tag such as "FR" or "fr-BE". Unsupported tags
// are returned normalized but Supported reports false for them.
func Parse(tag string) Lang {
	t := strings.TrimSpace(strings.ToLower(tag))
	if t == "" {
		return DefaultLang
	}
	if i := strings.IndexAny(t, "-_"); i > 0 {
		t = t[:i]
	}
	return Lang(t)
}

func Supported(lang Lang) bool {
	_, ok := catalogs[lang]
	return ok
}

func Languages() []Lang {
	out := make([]Lang, 0, len(catalogs))
	for l := range catalogs {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Lookup returns the template for key in lang without falling back.
func Lookup(lang Lang, key string) (string, bool) {
	v, ok := catalogs[lang][key]
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

// Text looks key up in lang, then in the default language, then returns
// fallback.
func Text(lang Lang, key, fallback string) string {
	if v, ok := Lookup(lang, key); ok {
		return v
	}
	if v, ok := Lookup(DefaultLang, key); ok {
		return v
	}
	return fallback
}

// Format substitutes {name} placeholders.
func Format(template string, args map[string]string) string {
	if len(args) == 0 {
		return template
	}
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(args)*2)
	for _, k := range keys {
		pairs = append(pairs, "{"+k+"}", args[k])
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
