package help

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sambeau/kvazz/pkg/kvazz/evaluator"
)

// FormatText formats a TopicResult for terminal output
func FormatText(result *TopicResult) string {
	var sb strings.Builder

	switch result.Kind {
	case "builtin":
		formatBuiltinText(&sb, result)
	case "builtin-list":
		formatBuiltinListText(&sb, result)
	case "operator-list":
		formatOperatorListText(&sb, result)
	case "type", "keyword":
		formatEntryText(&sb, result)
	case "type-list":
		formatTypeListText(&sb, result)
	case "keyword-list":
		formatKeywordListText(&sb, result)
	default:
		fmt.Fprintf(&sb, "Unknown result kind: %s\n", result.Kind)
	}

	return sb.String()
}

// FormatJSON formats a TopicResult as JSON
func FormatJSON(result *TopicResult) ([]byte, error) {
	return json.MarshalIndent(result, "", "  ")
}

func signature(name string, params []string) string {
	return fmt.Sprintf("%s(%s)", name, strings.Join(params, ", "))
}

func formatBuiltinText(sb *strings.Builder, result *TopicResult) {
	fmt.Fprintf(sb, "Builtin: %s\n\n", signature(result.Name, result.Params))
	if result.Description != "" {
		fmt.Fprintf(sb, "%s\n", result.Description)
	}
	fmt.Fprintf(sb, "\nArguments: %s\n", result.Arity)
	if result.Implemented != nil && !*result.Implemented {
		sb.WriteString("\nNot implemented: calling it is an error.\n")
	}
}

func formatBuiltinListText(sb *strings.Builder, result *TopicResult) {
	sb.WriteString("Builtin Functions\n")
	sb.WriteString("=================\n\n")

	maxLen := 0
	for _, b := range result.Builtins {
		if n := len(signature(b.Name, b.Params)); n > maxLen {
			maxLen = n
		}
	}

	for _, b := range result.Builtins {
		display := signature(b.Name, b.Params)
		padding := strings.Repeat(" ", maxLen-len(display)+2)
		fmt.Fprintf(sb, "  %s%s%s\n", display, padding, b.Description)
	}
}

func formatOperatorListText(sb *strings.Builder, result *TopicResult) {
	sb.WriteString("Operators\n")
	sb.WriteString("=========\n\n")

	byCategory := make(map[string][]evaluator.OperatorInfo)
	for _, op := range result.Operators {
		byCategory[op.Category] = append(byCategory[op.Category], op)
	}

	categoryOrder := []string{"arithmetic", "comparison", "logical", "unary", "assignment", "scope"}
	categoryNames := map[string]string{
		"arithmetic": "Arithmetic",
		"comparison": "Comparison",
		"logical":    "Logical",
		"unary":      "Unary",
		"assignment": "Assignment",
		"scope":      "Scope",
	}

	for _, cat := range categoryOrder {
		ops := byCategory[cat]
		if len(ops) == 0 {
			continue
		}
		fmt.Fprintf(sb, "%s:\n", categoryNames[cat])

		maxLen := 6
		for _, op := range ops {
			if len(op.Symbol) > maxLen {
				maxLen = len(op.Symbol)
			}
		}
		for _, op := range ops {
			padding := strings.Repeat(" ", maxLen-len(op.Symbol)+2)
			fmt.Fprintf(sb, "  %s%s%s\n", op.Symbol, padding, op.Description)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Precedence, loosest first: & and |, comparisons, + and -, * / %.\n")
}

func formatEntryText(sb *strings.Builder, result *TopicResult) {
	title := strings.ToUpper(result.Kind[:1]) + result.Kind[1:]
	fmt.Fprintf(sb, "%s: %s\n", title, result.Name)
	if result.Description != "" {
		fmt.Fprintf(sb, "\n%s\n", result.Description)
	}
	for _, p := range result.Params {
		fmt.Fprintf(sb, "\n  %s\n", p)
	}
}

func formatTypeListText(sb *strings.Builder, result *TopicResult) {
	sb.WriteString("Available Types\n")
	sb.WriteString("===============\n\n")

	maxLen := 0
	for _, t := range result.Types {
		if len(t.Name) > maxLen {
			maxLen = len(t.Name)
		}
	}
	for _, t := range result.Types {
		padding := strings.Repeat(" ", maxLen-len(t.Name)+2)
		fmt.Fprintf(sb, "  %s%s%s\n", t.Name, padding, t.Description)
	}
	sb.WriteString("\nUse 'kvazz describe <type>' for details on a specific type.\n")
}

func formatKeywordListText(sb *strings.Builder, result *TopicResult) {
	sb.WriteString("Keywords\n")
	sb.WriteString("========\n\n")

	maxLen := 0
	for _, k := range result.Keywords {
		if len(k.Name) > maxLen {
			maxLen = len(k.Name)
		}
	}
	for _, k := range result.Keywords {
		padding := strings.Repeat(" ", maxLen-len(k.Name)+2)
		fmt.Fprintf(sb, "  %s%s%s\n", k.Name, padding, k.Description)
	}
}
