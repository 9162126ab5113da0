package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "egra-insight error:", err)
		os.Exit(2)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "egra-insight",
		Usage: "interpret EGRA/EGMA assessment results",
		Commands: []*cli.Command{
			{
				Name:      "analyze",
				Usage:     "run the analyses on a survey dataset and write the report artifacts",
				ArgsUsage: " ",
				Action:    analyzeAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "dataset", Aliases: []string{"d"}, Usage: "survey dataset (CSV or JSON)"},
					&cli.StringFlag{Name: "profile", Usage: "analysis profile YAML"},
					&cli.StringFlag{Name: "thresholds", Usage: "threshold overrides YAML"},
					&cli.StringFlag{Name: "language", Aliases: []string{"lang"}, EnvVars: []string{"EGRA_LANGUAGE"}, Usage: "report language (en, fr)"},
					&cli.StringSliceFlag{Name: "analysis", Aliases: []string{"a"}, Usage: "analysis to run (repeatable, default all)"},
					&cli.StringSliceFlag{Name: "task", Aliases: []string{"t"}, Usage: "task column to analyse (repeatable, default every task in the dataset)"},
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: "report.json", Usage: "report.json path"},
					&cli.StringFlag{Name: "html", Usage: "report.html path (default next to --out)"},
					&cli.BoolFlag{Name: "no-html", Usage: "do not write report.html"},
					&cli.BoolFlag{Name: "csv", Usage: "also write classifications.csv next to --out"},
					&cli.StringFlag{Name: "checksums", Usage: "checksums.sha256 path (default next to --out)"},
					&cli.StringFlag{Name: "run-log", Usage: "run log path (default next to --out)"},
					&cli.BoolFlag{Name: "llm", Usage: "add a non-authoritative LLM synthesis"},
					&cli.StringFlag{Name: "llm-model", EnvVars: []string{"EGRA_LLM_MODEL"}, Usage: "Anthropic model for the synthesis"},
					&cli.StringFlag{Name: "anthropic-api-key", EnvVars: []string{"ANTHROPIC_API_KEY"}, Usage: "Anthropic API key"},
					&cli.BoolFlag{Name: "fail-on-attention", Usage: "exit with status 1 when the report status is attention_required"},
				},
			},
			{
				Name:      "classify",
				Usage:     "classify a single value against the threshold table",
				ArgsUsage: " ",
				Action:    classifyAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "kind", Aliases: []string{"k"}, Required: true, Usage: "metric kind, e.g. zero_score_pct"},
					&cli.StringFlag{Name: "subject", Aliases: []string{"s"}, Usage: "subject, e.g. a task code"},
					&cli.Float64Flag{Name: "value", Aliases: []string{"v"}, Required: true, Usage: "value to classify"},
					&cli.StringFlag{Name: "thresholds", Usage: "threshold overrides YAML"},
					&cli.StringFlag{Name: "language", Aliases: []string{"lang"}, EnvVars: []string{"EGRA_LANGUAGE"}, Usage: "output language (en, fr)"},
				},
			},
			{
				Name:      "bands",
				Usage:     "print the threshold table, or validate a thresholds file",
				ArgsUsage: " ",
				Action:    bandsAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "thresholds", Usage: "threshold overrides YAML merged over the built-in table"},
					&cli.StringFlag{Name: "kind", Aliases: []string{"k"}, Usage: "only print scales of this kind"},
					&cli.BoolFlag{Name: "validate", Usage: "only validate --thresholds"},
				},
			},
		},
	}
}
