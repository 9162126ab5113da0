package insights

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

type schemaError struct {
	Path    string
	Line    int
	Message string
}

func (e schemaError) String() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d field %s: %s", e.Line, e.Path, e.Message)
	}
	return fmt.Sprintf("field %s: %s", e.Path, e.Message)
}

func formatSchemaErrors(path string, errs []schemaError) string {
	sort.Slice(errs, func(i, j int) bool {
		if errs[i].Line != errs[j].Line {
			return errs[i].Line < errs[j].Line
		}
		if errs[i].Path != errs[j].Path {
			return errs[i].Path < errs[j].Path
		}
		return errs[i].Message < errs[j].Message
	})
	var b strings.Builder
	b.WriteString("schema validation failed for ")
	b.WriteString(path)
	for _, e := range errs {
		b.WriteString("\n- ")
		b.WriteString(e.String())
	}
	return b.String()
}

func validateYAMLSchema(kind string, root *yaml.Node) []schemaError {
	if root == nil || len(root.Content) == 0 {
		return []schemaError{{Path: kind, Line: 0, Message: "empty YAML document"}}
	}
	node := root.Content[0]
	switch kind {
	case "profile":
		return validateProfileYAML(node)
	case "thresholds":
		return validateThresholdsYAML(node)
	default:
		return nil
	}
}

func validateProfileYAML(node *yaml.Node) []schemaError {
	errList := []schemaError{}
	allowed := []string{"schema_version", "language", "analyses", "tasks", "min_rows", "outlier_z", "decision_trace_verbosity", "llm", "rules"}
	m := validateMapNode(node, "profile", allowed, []string{"schema_version"}, &errList)
	for _, key := range []string{"analyses", "tasks"} {
		if v, ok := m[key]; ok {
			for i, item := range validateSequenceNode(v, "profile."+key, &errList) {
				validateScalarNode(item, fmt.Sprintf("profile.%s[%d]", key, i), &errList)
			}
		}
	}
	if v, ok := m["llm"]; ok {
		validateMapNode(v, "profile.llm", []string{"enabled", "model"}, []string{"enabled"}, &errList)
	}
	if v, ok := m["rules"]; ok {
		for i, item := range validateSequenceNode(v, "profile.rules", &errList) {
			path := fmt.Sprintf("profile.rules[%d]", i)
			r := validateMapNode(item, path, []string{"rule_id", "enabled", "when", "then"}, []string{"rule_id", "then"}, &errList)
			if when, ok := r["when"]; ok {
				w := validateMapNode(when, path+".when", []string{"analyses", "kinds", "subjects", "labels"}, nil, &errList)
				for key, list := range w {
					for j, entry := range validateSequenceNode(list, path+".when."+key, &errList) {
						validateScalarNode(entry, fmt.Sprintf("%s.when.%s[%d]", path, key, j), &errList)
					}
				}
			}
			if then, ok := r["then"]; ok {
				t := validateMapNode(then, path+".then", []string{"add_recommended_step_ids"}, []string{"add_recommended_step_ids"}, &errList)
				if ids, ok := t["add_recommended_step_ids"]; ok {
					for j, entry := range validateSequenceNode(ids, path+".then.add_recommended_step_ids", &errList) {
						validateScalarNode(entry, fmt.Sprintf("%s.then.add_recommended_step_ids[%d]", path, j), &errList)
					}
				}
			}
		}
	}
	return errList
}

func validateThresholdsYAML(node *yaml.Node) []schemaError {
	errList := []schemaError{}
	m := validateMapNode(node, "thresholds", []string{"schema_version", "scales"}, []string{"schema_version", "scales"}, &errList)
	if scales, ok := m["scales"]; ok {
		for i, item := range validateSequenceNode(scales, "thresholds.scales", &errList) {
			path := fmt.Sprintf("thresholds.scales[%d]", i)
			s := validateMapNode(item, path, []string{"kind", "subject", "direction", "bands"}, []string{"kind", "direction", "bands"}, &errList)
			if bandsNode, ok := s["bands"]; ok {
				for j, b := range validateSequenceNode(bandsNode, path+".bands", &errList) {
					validateMapNode(b, fmt.Sprintf("%s.bands[%d]", path, j), []string{"label", "lower", "upper", "recommendation"}, []string{"label", "lower", "upper"}, &errList)
				}
			}
		}
	}
	return errList
}

func validateMapNode(node *yaml.Node, path string, allowed, required []string, errs *[]schemaError) map[string]*yaml.Node {
	result := map[string]*yaml.Node{}
	if node == nil {
		*errs = append(*errs, schemaError{Path: path, Line: 0, Message: "missing object"})
		return result
	}
	if node.Kind != yaml.MappingNode {
		*errs = append(*errs, schemaError{Path: path, Line: node.Line, Message: "must be a mapping/object"})
		return result
	}
	allowedSet := map[string]bool{}
	for _, a := range allowed {
		allowedSet[a] = true
	}
	seen := map[string]int{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		k := node.Content[i]
		v := node.Content[i+1]
		key := k.Value
		if prevLine, ok := seen[key]; ok {
			*errs = append(*errs, schemaError{Path: path + "." + key, Line: k.Line, Message: fmt.Sprintf("duplicate key (already defined at line %d)", prevLine)})
			continue
		}
		seen[key] = k.Line
		if !allowedSet[key] {
			*errs = append(*errs, schemaError{Path: path + "." + key, Line: k.Line, Message: "unknown field"})
		}
		result[key] = v
	}
	for _, req := range required {
		if _, ok := result[req]; !ok {
			*errs = append(*errs, schemaError{Path: path + "." + req, Line: node.Line, Message: "missing required field"})
		}
	}
	return result
}

func validateSequenceNode(node *yaml.Node, path string, errs *[]schemaError) []*yaml.Node {
	if node == nil {
		*errs = append(*errs, schemaError{Path: path, Line: 0, Message: "missing sequence"})
		return nil
	}
	if node.Kind != yaml.SequenceNode {
		*errs = append(*errs, schemaError{Path: path, Line: node.Line, Message: "must be a sequence/array"})
		return nil
	}
	return node.Content
}

func validateScalarNode(node *yaml.Node, path string, errs *[]schemaError) {
	if node != nil && node.Kind != yaml.ScalarNode {
		*errs = append(*errs, schemaError{Path: path, Line: node.Line, Message: "must be a scalar"})
	}
}
