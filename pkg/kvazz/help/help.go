// Package help provides topic-based documentation for Kvazz, shown by
// `kvazz describe <topic>` and the REPL's :describe command.
package help

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sambeau/kvazz/pkg/kvazz/errors"
	"github.com/sambeau/kvazz/pkg/kvazz/evaluator"
	"github.com/sambeau/kvazz/pkg/kvazz/lexer"
)

// TopicResult represents the help output for a topic
type TopicResult struct {
	Kind        string                   `json:"kind"`
	Name        string                   `json:"name"`
	Description string                   `json:"description,omitempty"`
	Builtins    []evaluator.BuiltinInfo  `json:"builtins,omitempty"`
	Operators   []evaluator.OperatorInfo `json:"operators,omitempty"`
	Types       []TypeEntry              `json:"types,omitempty"`
	Keywords    []KeywordEntry           `json:"keywords,omitempty"`
	Params      []string                 `json:"params,omitempty"`
	Arity       string                   `json:"arity,omitempty"`
	Implemented *bool                    `json:"implemented,omitempty"`
}

// TypeEntry describes one runtime value kind
type TypeEntry struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// KeywordEntry describes one reserved word
type KeywordEntry struct {
	Name        string `json:"name"`
	Syntax      string `json:"syntax,omitempty"`
	Description string `json:"description"`
}

var keywordDocs = map[string]KeywordEntry{
	"var":      {Syntax: "var name = expr;", Description: "declare a variable in the current block"},
	"function": {Syntax: "function name(a, b) { ... }", Description: "declare a function"},
	"return":   {Syntax: "return expr;", Description: "leave the current function with a value"},
	"if":       {Syntax: "if cond then { ... } else { ... }", Description: "run one of two blocks"},
	"then":     {Syntax: "if cond then { ... }", Description: "introduces the block of an if"},
	"else":     {Syntax: "... else { ... }", Description: "introduces the alternative block of an if"},
	"while":    {Syntax: "while cond do { ... }", Description: "repeat a block while cond is truthy"},
	"do":       {Syntax: "while cond do { ... }", Description: "introduces the body of a while loop"},
	"for":      {Description: "reserved"},
	"in":       {Description: "reserved"},
}

// Topics lists the fixed topic names
var Topics = []string{"builtins", "operators", "types", "keywords"}

// DescribeTopic returns help information for the given topic: one of the
// fixed topics, a type name, a keyword or a built-in name.
func DescribeTopic(topic string) (*TopicResult, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("no topic specified (try: %s)", strings.Join(Topics, ", "))
	}

	switch topic {
	case "builtins":
		return describeBuiltins(), nil
	case "operators":
		return describeOperators(), nil
	case "types":
		return describeTypes(), nil
	case "keywords":
		return describeKeywords(), nil
	}

	if result := describeBuiltinByName(topic); result != nil {
		return result, nil
	}
	if result := describeType(topic); result != nil {
		return result, nil
	}
	if result := describeKeyword(topic); result != nil {
		return result, nil
	}

	return nil, unknownTopicError(topic)
}

func describeBuiltins() *TopicResult {
	return &TopicResult{
		Kind:     "builtin-list",
		Name:     "builtins",
		Builtins: evaluator.Builtins(),
	}
}

func describeOperators() *TopicResult {
	operators := make([]evaluator.OperatorInfo, len(evaluator.OperatorMetadata))
	copy(operators, evaluator.OperatorMetadata)
	return &TopicResult{
		Kind:      "operator-list",
		Name:      "operators",
		Operators: operators,
	}
}

func describeTypes() *TopicResult {
	names := evaluator.TypeNames()
	types := make([]TypeEntry, 0, len(names))
	for _, name := range names {
		types = append(types, TypeEntry{
			Name:        name,
			Description: evaluator.TypeDescriptions[evaluator.ObjectType(name)],
		})
	}
	return &TopicResult{
		Kind:  "type-list",
		Name:  "types",
		Types: types,
	}
}

func describeKeywords() *TopicResult {
	names := make([]string, 0, len(lexer.Keywords))
	for name := range lexer.Keywords {
		names = append(names, name)
	}
	sort.Strings(names)

	keywords := make([]KeywordEntry, 0, len(names))
	for _, name := range names {
		entry := keywordDocs[name]
		entry.Name = name
		keywords = append(keywords, entry)
	}
	return &TopicResult{
		Kind:     "keyword-list",
		Name:     "keywords",
		Keywords: keywords,
	}
}

func describeBuiltinByName(name string) *TopicResult {
	for _, info := range evaluator.Builtins() {
		if info.Name != name {
			continue
		}
		implemented := info.Implemented
		return &TopicResult{
			Kind:        "builtin",
			Name:        info.Name,
			Description: info.Description,
			Params:      info.Params,
			Arity:       info.Arity,
			Implemented: &implemented,
		}
	}
	return nil
}

// describeType matches type names case-insensitively
func describeType(name string) *TopicResult {
	name = strings.ToLower(name)
	desc, ok := evaluator.TypeDescriptions[evaluator.ObjectType(name)]
	if !ok {
		return nil
	}
	return &TopicResult{
		Kind:        "type",
		Name:        name,
		Description: desc,
	}
}

func describeKeyword(name string) *TopicResult {
	if !lexer.Keywords[name] {
		return nil
	}
	entry := keywordDocs[name]
	return &TopicResult{
		Kind:        "keyword",
		Name:        name,
		Description: entry.Description,
		Params:      syntaxParams(entry.Syntax),
	}
}

func syntaxParams(syntax string) []string {
	if syntax == "" {
		return nil
	}
	return []string{syntax}
}

// allTopics is every name DescribeTopic accepts
func allTopics() []string {
	topics := append([]string{}, Topics...)
	for _, b := range evaluator.Builtins() {
		topics = append(topics, b.Name)
	}
	topics = append(topics, evaluator.TypeNames()...)
	for name := range lexer.Keywords {
		topics = append(topics, name)
	}
	return topics
}

func unknownTopicError(topic string) error {
	if suggestion := errors.FindClosestMatch(topic, allTopics()); suggestion != "" {
		return fmt.Errorf("unknown topic: %s\nDid you mean: %s?", topic, suggestion)
	}
	return fmt.Errorf("unknown topic: %s\nTry: %s, or a built-in name", topic, strings.Join(Topics, ", "))
}
