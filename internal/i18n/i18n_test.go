package i18n

import (
	"regexp"
	"sort"
	"strings"
	"testing"
)

var placeholder = regexp.MustCompile(`\{[a-z_]+\}`)

func TestCatalogsHaveTheSameKeys(t *testing.T) {
	en := catalogs[English]
	if len(en) == 0 {
		t.Fatal("english catalog is empty")
	}
	for _, lang := range Languages() {
		if lang == English {
			continue
		}
		other := catalogs[lang]
		var missing, extra []string
		for k := range en {
			if _, ok := other[k]; !ok {
				missing = append(missing, k)
			}
		}
		for k := range other {
			if _, ok := en[k]; !ok {
				extra = append(extra, k)
			}
		}
		sort.Strings(missing)
		sort.Strings(extra)
		if len(missing) > 0 || len(extra) > 0 {
			t.Fatalf("%s catalog differs from en: missing=%v extra=%v", lang, missing, extra)
		}
		for k, v := range en {
			if got, want := placeholders(other[k]), placeholders(v); got != want {
				t.Fatalf("%s %s uses placeholders %q, en uses %q", lang, k, got, want)
			}
		}
	}
}

func placeholders(s string) string {
	found := placeholder.FindAllString(s, -1)
	sort.Strings(found)
	return strings.Join(found, ",")
}

func TestParse(t *testing.T) {
	cases := map[string]Lang{
		"":       English,
		"FR":     French,
		"fr-BE":  French,
		" en_GB": English,
		"ar":     Lang("ar"),
	}
	for in, want := range cases {
		if got := Parse(in); got != want {
			t.Fatalf("Parse(%q)=%q want=%q", in, got, want)
		}
	}
	if Supported(Parse("ar")) {
		t.Fatal("ar must not be supported")
	}
	if got := Languages(); len(got) != 2 || got[0] != English || got[1] != French {
		t.Fatalf("unexpected languages: %v", got)
	}
}

func TestLookupAndText(t *testing.T) {
	if _, ok := Lookup(Lang("ar"), "status.ok"); ok {
		t.Fatal("Lookup must not fall back to another language")
	}
	if got := Text(Lang("ar"), "status.ok", "x"); got != catalogs[English]["status.ok"] {
		t.Fatalf("Text must fall back to english, got %q", got)
	}
	if got := Text(French, "no.such.key", "fallback"); got != "fallback" {
		t.Fatalf("unexpected fallback: %q", got)
	}
	if got := Format("{a} and {b}", map[string]string{"a": "1", "b": "{a}"}); got != "1 and {a}" {
		t.Fatalf("Format must substitute once, got %q", got)
	}
}
