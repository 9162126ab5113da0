package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/solardome/egra-insight/internal/bands"
	"github.com/solardome/egra-insight/internal/i18n"
	"github.com/solardome/egra-insight/internal/insights"
	"github.com/solardome/egra-insight/internal/narrative"
)

func analyzeAction(c *cli.Context) error {
	outJSON := c.String("out")
	cfg := insights.Config{
		DatasetPath:     c.String("dataset"),
		ProfilePath:     c.String("profile"),
		ThresholdsPath:  c.String("thresholds"),
		Language:        c.String("language"),
		Analyses:        c.StringSlice("analysis"),
		Tasks:           c.StringSlice("task"),
		OutJSONPath:     outJSON,
		OutHTMLPath:     c.String("html"),
		ChecksumsPath:   c.String("checksums"),
		RunLogPath:      c.String("run-log"),
		WriteHTML:       !c.Bool("no-html"),
		WriteCSV:        c.Bool("csv"),
		LLMEnabled:      c.Bool("llm"),
		LLMModel:        c.String("llm-model"),
		AnthropicAPIKey: c.String("anthropic-api-key"),
	}
	report, err := insights.RunContext(c.Context, cfg)
	if err != nil {
		return err
	}
	checksums := firstNonBlank(cfg.ChecksumsPath, insights.DefaultChecksumsPath(outJSON))
	runLog := firstNonBlank(cfg.RunLogPath, insights.DefaultRunLogPath(outJSON))
	fmt.Fprintf(c.App.Writer, "status=%s results=%d most_severe=%d insufficient=%d report=%s checksums=%s run_log=%s\n",
		report.Status, report.Summary.Total, report.Summary.MostSevere, report.Summary.Insufficient, outJSON, checksums, runLog)
	if c.Bool("fail-on-attention") && report.Status == insights.StatusAttentionRequired {
		return cli.Exit("", 1)
	}
	return nil
}

func classifyAction(c *cli.Context) error {
	table, err := loadTable(c.String("thresholds"))
	if err != nil {
		return err
	}
	lang := i18n.Parse(c.String("language"))
	if !i18n.Supported(lang) {
		return fmt.Errorf("unsupported language %q", c.String("language"))
	}
	kind := bands.MetricKind(strings.TrimSpace(strings.ToLower(c.String("kind"))))
	r, err := table.Classify(kind, c.String("subject"), c.Float64("value"))
	if err != nil {
		if errors.Is(err, bands.ErrUnknownMetricKind) {
			return fmt.Errorf("%w (known kinds: %s)", err, joinKinds(table.Kinds()))
		}
		return err
	}
	fmt.Fprintf(c.App.Writer, "kind=%s subject=%s value=%s label=%s severity=%d\n", r.Kind, r.Subject, narrative.FormatValue(r.Kind, r.Value), r.Label, r.Severity)
	fmt.Fprintln(c.App.Writer, narrative.LabelText(r.Label, lang))
	if r.Recommendation != "" {
		fmt.Fprintln(c.App.Writer, r.Recommendation)
	}
	return nil
}

func bandsAction(c *cli.Context) error {
	path := c.String("thresholds")
	if c.Bool("validate") {
		if path == "" {
			return errors.New("--validate requires --thresholds")
		}
		if _, err := loadTable(path); err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "thresholds %s are valid\n", path)
		return nil
	}
	table, err := loadTable(path)
	if err != nil {
		return err
	}
	only := strings.TrimSpace(strings.ToLower(c.String("kind")))
	printed := 0
	for _, s := range table.Scales() {
		if only != "" && string(s.Kind) != only {
			continue
		}
		printed++
		name := string(s.Kind)
		if s.Subject != "" {
			name += "[" + s.Subject + "]"
		}
		fmt.Fprintf(c.App.Writer, "%s (%s)\n", name, s.Direction)
		for _, b := range s.Bands {
			fmt.Fprintf(c.App.Writer, "  %-20s %-18s severity=%d\n", b.Label, interval(s.Direction, b), b.Severity)
		}
	}
	if printed == 0 {
		return fmt.Errorf("no scale for kind %q (known kinds: %s)", only, joinKinds(table.Kinds()))
	}
	return nil
}

func loadTable(path string) (*bands.Table, error) {
	if strings.TrimSpace(path) == "" {
		return bands.Default(), nil
	}
	table, _, err := insights.LoadThresholds(path)
	return table, err
}

// interval prints a band with the closed end on its more severe side.
func interval(dir bands.Direction, b bands.Band) string {
	lo := strconv.FormatFloat(b.Lower, 'g', -1, 64)
	hi := strconv.FormatFloat(b.Upper, 'g', -1, 64)
	if dir == bands.HigherIsWorse {
		return "[" + lo + ", " + hi + ")"
	}
	return "(" + lo + ", " + hi + "]"
}

func joinKinds(kinds []bands.MetricKind) string {
	out := make([]string, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, string(k))
	}
	return strings.Join(out, ", ")
}

func firstNonBlank(v ...string) string {
	for _, s := range v {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}
