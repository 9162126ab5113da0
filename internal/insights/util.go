package insights

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/solardome/egra-insight/internal/report"
)

func normalizeToken(s string) string {
	t := strings.TrimSpace(strings.ToLower(s))
	if t == "" {
		return "unknown"
	}
	return t
}

func firstNonEmpty(v ...string) string {
	for _, s := range v {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// readDigest returns the sha256 of the file at path with its content.
func readDigest(path string) (string, []byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", nil, err
	}
	return report.SHA256Hex(b), b, nil
}

// parseYAML decodes a strict YAML file into out. The document is checked
// against the schema for kind first, then converted to JSON so the struct
// json tags drive the decoding.
func parseYAML(path, kind string, out interface{}) (string, error) {
	hash, b, err := readDigest(path)
	if err != nil {
		return "", err
	}
	var root yaml.Node
	if err := yaml.Unmarshal(b, &root); err != nil {
		return hash, fmt.Errorf("parse %s: %w", path, err)
	}
	schemaErrs := validateYAMLSchema(kind, &root)
	if len(schemaErrs) > 0 {
		return hash, fmt.Errorf("%s", formatSchemaErrors(path, schemaErrs))
	}
	normalized := yamlNodeToValue(root.Content[0])
	j, err := json.Marshal(normalized)
	if err != nil {
		return hash, fmt.Errorf("normalize %s: %w", path, err)
	}
	if err := json.Unmarshal(j, out); err != nil {
		return hash, fmt.Errorf("decode %s: %w", path, err)
	}
	return hash, nil
}

func yamlNodeToValue(node *yaml.Node) interface{} {
	if node == nil {
		return nil
	}
	switch node.Kind {
	case yaml.DocumentNode:
		if len(node.Content) == 0 {
			return nil
		}
		return yamlNodeToValue(node.Content[0])
	case yaml.MappingNode:
		m := make(map[string]interface{}, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			m[node.Content[i].Value] = yamlNodeToValue(node.Content[i+1])
		}
		return m
	case yaml.SequenceNode:
		out := make([]interface{}, 0, len(node.Content))
		for _, c := range node.Content {
			out = append(out, yamlNodeToValue(c))
		}
		return out
	case yaml.ScalarNode:
		switch node.Tag {
		case "!!bool":
			return strings.EqualFold(node.Value, "true")
		case "!!int":
			var i int64
			if _, err := fmt.Sscan(node.Value, &i); err == nil {
				return i
			}
			return node.Value
		case "!!float":
			var f float64
			if err := node.Decode(&f); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
				return f
			}
			// .inf has no JSON form; an open bound is written as null.
			return nil
		case "!!null":
			return nil
		default:
			return node.Value
		}
	default:
		return node.Value
	}
}

func stableRunID(inputs []InputDigest, lang string, analyses, tasks []string) string {
	parts := make([]string, 0, len(inputs)+3)
	for _, in := range inputs {
		parts = append(parts, in.Kind+":"+in.Path+":"+in.SHA256)
	}
	parts = append(parts, "lang:"+lang, "analyses:"+strings.Join(analyses, ","), "tasks:"+strings.Join(tasks, ","))
	sort.Strings(parts)
	return report.SHA256Hex([]byte(strings.Join(parts, "|")))
}

func addTrace(state *EngineState, phase, result string, details map[string]interface{}) {
	state.Trace = append(state.Trace, TraceEntry{
		Order:   len(state.Trace) + 1,
		Phase:   phase,
		Result:  result,
		Details: details,
	})
}

func applyTraceVerbosity(trace []TraceEntry, verbosity string) []TraceEntry {
	out := make([]TraceEntry, 0, len(trace))
	mode := normalizeToken(verbosity)
	for _, t := range trace {
		entry := t
		if mode == "minimal" {
			entry.Details = nil
		}
		out = append(out, entry)
	}
	return out
}

func floatPtr(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
