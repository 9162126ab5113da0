package skills

import (
	"strings"
	"testing"
)

func TestNormalizeGender(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"1", GenderBoy},
		{"1.0", GenderBoy},
		{"0", GenderGirl},
		{"0.00", GenderGirl},
		{"M", GenderBoy},
		{"f", GenderGirl},
		{" Garçon ", GenderBoy},
		{"garcon", GenderBoy},
		{"FILLE", GenderGirl},
		{"Female", GenderGirl},
		{"2", GenderUnknown},
		{"", GenderUnknown},
		{"n/a", GenderUnknown},
	}
	for _, tc := range cases {
		if got := NormalizeGender(tc.raw); got != tc.want {
			t.Fatalf("NormalizeGender(%q)=%q want=%q", tc.raw, got, tc.want)
		}
	}
}

func TestNormalizeLanguage(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"english", "English"},
		{" ENG ", "English"},
		{"Anglais", "English"},
		{"nl", "Dutch"},
		{"Néerlandais", "Dutch"},
		{"French", "French"},
		{"  Kiswahili ", "Kiswahili"},
		{"   ", ""},
	}
	for _, tc := range cases {
		if got := NormalizeLanguage(tc.raw); got != tc.want {
			t.Fatalf("NormalizeLanguage(%q)=%q want=%q", tc.raw, got, tc.want)
		}
	}
}

func TestStandardsFitTheTaskScale(t *testing.T) {
	for _, task := range Tasks() {
		s := task.Standard
		if !(task.MinScore <= s.EmergingMax && s.EmergingMax < s.DevelopingMax && s.DevelopingMax < task.MaxScore) {
			t.Fatalf("%s: standard %+v does not fit score range %g-%g", task.Code, s, task.MinScore, task.MaxScore)
		}
		if task.Benchmark <= task.MinScore || task.Benchmark > task.MaxScore {
			t.Fatalf("%s: benchmark %g outside score range", task.Code, task.Benchmark)
		}
	}
}

func TestCatalogOrderAndFamilies(t *testing.T) {
	if got := strings.Join(TaskCodes(AssessmentEGMA), ","); got != "number_id,discrimin,missing_number,addition,subtraction,problems" {
		t.Fatalf("unexpected EGMA order: %s", got)
	}
	if got := strings.Join(Families(AssessmentEGRA), ","); got != "decoding,fluency,comprehension" {
		t.Fatalf("unexpected EGRA families: %s", got)
	}
	codes := []string{"zzz", "orf", "CLPM", "addition"}
	SortCodes(codes)
	if got := strings.Join(codes, ","); got != "CLPM,orf,addition,zzz" {
		t.Fatalf("unexpected sort: %s", got)
	}
	if f, ok := (Catalog{}).FamilyOf("Phoneme"); !ok || f != FamilyDecoding {
		t.Fatalf("unexpected family: %q %v", f, ok)
	}
	if !IsDemographic(" STGENDER ") || IsDemographic("clpm") {
		t.Fatal("unexpected demographic classification")
	}
}
