package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	app.ExitErrHandler = func(*cli.Context, error) {}
	err := app.Run(append([]string{"egra-insight"}, args...))
	return out.String(), err
}

func TestClassifyCommand(t *testing.T) {
	out, err := runApp(t, "classify", "--kind", "zero_score_pct", "--subject", "clpm", "--value", "30")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "label=critical severity=0") {
		t.Fatalf("30%% zero scores must be critical: %s", out)
	}

	out, err = runApp(t, "classify", "--kind", "cronbach_alpha", "--value", "0.7", "--language", "fr")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "label=questionable") {
		t.Fatalf("alpha 0.7 must stay questionable: %s", out)
	}

	if _, err := runApp(t, "classify", "--kind", "shoe_size", "--value", "1"); err == nil || !strings.Contains(err.Error(), "known kinds") {
		t.Fatalf("expected unknown kind error, got %v", err)
	}

	_, err = runApp(t, "classify", "--kind", "pupil_standard", "--value", "3")
	if err == nil || !strings.Contains(err.Error(), "needs a subject") || !strings.Contains(err.Error(), "clpm") {
		t.Fatalf("expected subject required error, got %v", err)
	}
	if strings.Contains(err.Error(), "known kinds") {
		t.Fatalf("pupil_standard is a known kind: %v", err)
	}
}

func TestBandsCommand(t *testing.T) {
	out, err := runApp(t, "bands", "--kind", "zero_score_pct")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"zero_score_pct (higher_is_worse)", "[-Inf, 10)", "[30, +Inf)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("schema_version: \"1.0\"\nscales: []\nextra: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := runApp(t, "bands", "--validate", "--thresholds", bad); err == nil || !strings.Contains(err.Error(), "unknown field") {
		t.Fatalf("expected schema error, got %v", err)
	}

	good := filepath.Join(dir, "good.yaml")
	if err := os.WriteFile(good, []byte("schema_version: \"1.0\"\nscales: []\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err = runApp(t, "bands", "--validate", "--thresholds", good)
	if err != nil || !strings.Contains(out, "are valid") {
		t.Fatalf("expected valid thresholds, got %v: %s", err, out)
	}
}

func TestAnalyzeCommand(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "survey.csv")
	payload := "clpm\n0\n0\n0\n0\n50\n50\n60\n60\n70\n70\n"
	if err := os.WriteFile(data, []byte(payload), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "report.json")

	stdout, err := runApp(t, "analyze", "--dataset", data, "--analysis", "zero_scores", "--out", out, "--csv")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout, "status=attention_required results=1 most_severe=1") {
		t.Fatalf("unexpected summary line: %s", stdout)
	}
	for _, name := range []string{"report.json", "report.html", "classifications.csv", "checksums.sha256", "egra-insight.run.log"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}

	_, err = runApp(t, "analyze", "--dataset", data, "--analysis", "zero_scores", "--out", out, "--no-html", "--fail-on-attention")
	exit, ok := err.(cli.ExitCoder)
	if !ok || exit.ExitCode() != 1 {
		t.Fatalf("expected exit code 1, got %v", err)
	}
}

func TestAnalyzeRequiresDataset(t *testing.T) {
	_, err := runApp(t, "analyze", "--out", filepath.Join(t.TempDir(), "report.json"))
	if err == nil || !strings.Contains(err.Error(), "--dataset is required") {
		t.Fatalf("expected dataset error, got %v", err)
	}
}
