package skills

import (
	"strconv"
	"strings"
)

const (
	GenderBoy     = "boy"
	GenderGirl    = "girl"
	GenderUnknown = "unknown"
)

var genderTokens = map[string]string{
	"1": GenderBoy, "boy": GenderBoy, "boys": GenderBoy, "male": GenderBoy, "m": GenderBoy, "homme": GenderBoy, "garçon": GenderBoy, "garcon": GenderBoy,
	"0": GenderGirl, "girl": GenderGirl, "girls": GenderGirl, "female": GenderGirl, "f": GenderGirl, "femme": GenderGirl, "fille": GenderGirl,
}

// NormalizeGender maps the numeric (1 boy, 0 girl) and textual codings found
// in survey exports to boy, girl or unknown.
func NormalizeGender(raw string) string {
	t := strings.TrimSpace(strings.ToLower(raw))
	if f, err := strconv.ParseFloat(t, 64); err == nil {
		t = strconv.FormatFloat(f, 'f', -1, 64)
	}
	if g, ok := genderTokens[t]; ok {
		return g
	}
	return GenderUnknown
}

var languageTokens = map[string]string{
	"english": "English", "eng": "English", "en": "English", "anglais": "English",
	"dutch": "Dutch", "nederlands": "Dutch", "nl": "Dutch", "néerlandais": "Dutch", "neerlandais": "Dutch",
}

// NormalizeLanguage folds the common spellings of instruction languages.
// Unrecognised values are kept as given.
func NormalizeLanguage(raw string) string {
	v := strings.TrimSpace(raw)
	if v == "" {
		return ""
	}
	if l, ok := languageTokens[strings.ToLower(v)]; ok {
		return l
	}
	return v
}

// Families returns the skill families of an assessment in task order.
func Families(assessment string) []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range Tasks() {
		if assessment != "" && t.Assessment != assessment {
			continue
		}
		if !seen[t.Family] {
			seen[t.Family] = true
			out = append(out, t.Family)
		}
	}
	return out
}

func FamilyTasks(family string) []string {
	var out []string
	for _, t := range Tasks() {
		if t.Family == family {
			out = append(out, t.Code)
		}
	}
	return out
}
