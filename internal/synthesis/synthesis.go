// Package synthesis produces the optional free-text synthesis stored next to
// the rule-based narrative. Its output is never used to classify anything.
package synthesis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/solardome/egra-insight/internal/i18n"
)

const (
	DefaultModel     = "claude-sonnet-4-5"
	defaultMaxTokens = 1024
)

var (
	ErrMissingAPIKey = errors.New("anthropic api key is not set")
	ErrEmptyResponse = errors.New("no text content in response")
)

// Request carries the deterministic results the synthesis is allowed to see.
type Request struct {
	Language  i18n.Lang
	Status    string
	Narrative []string
	Steps     []string
}

type Synthesizer interface {
	Synthesize(ctx context.Context, req Request) (string, error)
}

// Anthropic calls the Messages API.
type Anthropic struct {
	Model     string
	MaxTokens int64
	client    anthropic.Client
}

func NewAnthropic(apiKey, model string, opts ...option.RequestOption) (*Anthropic, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	all := append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Anthropic{
		Model:     model,
		MaxTokens: defaultMaxTokens,
		client:    anthropic.NewClient(all...),
	}, nil
}

func (a *Anthropic) Synthesize(ctx context.Context, req Request) (string, error) {
	system, user := BuildPrompt(req)
	message, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.Model),
		MaxTokens: a.MaxTokens,
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic messages: %w", err)
	}
	for _, block := range message.Content {
		if block.Type == "text" && strings.TrimSpace(block.Text) != "" {
			return strings.TrimSpace(block.Text), nil
		}
	}
	return "", ErrEmptyResponse
}

var languageNames = map[i18n.Lang]string{
	i18n.English: "English",
	i18n.French:  "French",
}

// BuildPrompt returns the system and user prompts for req.
func BuildPrompt(req Request) (string, string) {
	name, ok := languageNames[req.Language]
	if !ok {
		name = languageNames[i18n.DefaultLang]
	}
	system := "You are an educational specialist interpreting early grade reading (EGRA) and mathematics (EGMA) assessment results for teachers and school leaders. " +
		"Only use the classifications you are given. Do not change any level, value or recommendation. Answer in " + name + "."

	var b strings.Builder
	b.WriteString("Overall status: ")
	b.WriteString(req.Status)
	b.WriteString("\n\nInterpretation:\n")
	for _, line := range req.Narrative {
		b.WriteString(line)
		b.WriteString("\n")
	}
	if len(req.Steps) > 0 {
		b.WriteString("\nRecommended next steps:\n")
		for _, s := range req.Steps {
			b.WriteString("- ")
			b.WriteString(s)
			b.WriteString("\n")
		}
	}
	b.WriteString("\nWrite a short synthesis (at most three paragraphs) of the main strengths, the main concerns and the most useful classroom actions.")
	return system, b.String()
}

// Fallback is the deterministic synthesis used when no model is reachable.
type Fallback struct{}

func (Fallback) Synthesize(_ context.Context, req Request) (string, error) {
	lang := req.Language
	var parts []string
	parts = append(parts, i18n.Text(lang, "synthesis.intro", "Based on the analysis of results, the following observations can be made."))
	parts = append(parts, i18n.Text(lang, "synthesis.status."+req.Status, ""))
	for _, s := range req.Steps {
		parts = append(parts, "- "+s)
	}
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n"), nil
}
