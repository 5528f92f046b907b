// Package dto holds the on-disk shape of stories and converts it to the domain model.
// It is shared by every adapter that reads authored content (YAML/JSON files, loam).
package dto

import (
	"encoding/json"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/aretw0/branchtale/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// StoryDefinition is the top-level document of a story file.
type StoryDefinition struct {
	ID          string                    `json:"id" mapstructure:"id"`
	Title       string                    `json:"title" mapstructure:"title"`
	Start       string                    `json:"start" mapstructure:"start"`
	InvalidText string                    `json:"invalid_text" mapstructure:"invalid_text"`
	Nodes       map[string]NodeDefinition `json:"nodes" mapstructure:"nodes"`
}

// NodeDefinition represents a node as authored, either inline in a story file or
// as the frontmatter of a markdown document.
type NodeDefinition struct {
	ID          string             `json:"id" mapstructure:"id"`
	Prompt      string             `json:"prompt" mapstructure:"prompt"`
	Choices     []ChoiceDefinition `json:"choices" mapstructure:"choices"`
	Ending      string             `json:"ending" mapstructure:"ending"`
	InvalidText string             `json:"invalid_text" mapstructure:"invalid_text"`

	// Start marks the entry node in directory-based stories.
	Start bool `json:"start" mapstructure:"start"`
}

// ChoiceDefinition is a choice as authored.
// To is polymorphic: a string or integer names a node, a map is an inline outcome ({tag, text}).
// Outcome is the explicit long form of an inline outcome.
type ChoiceDefinition struct {
	Key     string          `json:"key" mapstructure:"key"`
	Label   string          `json:"label" mapstructure:"label"`
	To      any             `json:"to" mapstructure:"to"`
	Outcome *domain.Outcome `json:"outcome" mapstructure:"outcome"`
}

// DecodeError locates a decoding failure inside an authored source.
type DecodeError struct {
	Source string // file path or document id
	NodeID string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.NodeID != "" {
		return fmt.Sprintf("decode %s: node %q: %v", e.Source, e.NodeID, e.Err)
	}
	return fmt.Sprintf("decode %s: %v", e.Source, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode converts a generic document (as produced by yaml.v3 or encoding/json)
// into a definition, rejecting unknown keys.
func Decode(raw any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

// DecodeStory converts a generic story document into a domain story.
func DecodeStory(source string, raw map[string]any) (*domain.Story, error) {
	var def StoryDefinition
	if err := Decode(raw, &def); err != nil {
		return nil, &DecodeError{Source: source, Err: err}
	}
	return def.ToDomain(source)
}

// ToDomain builds the domain story. Node IDs default to their map keys.
func (d StoryDefinition) ToDomain(source string) (*domain.Story, error) {
	id := d.ID
	if id == "" {
		id = TrimExtension(filepath.Base(source))
	}
	start := d.Start
	if start == "" {
		start = domain.DefaultStartNodeID
	}

	story := domain.NewStory(id, start)
	story.Title = d.Title
	story.InvalidText = d.InvalidText

	keys := make([]string, 0, len(d.Nodes))
	for k := range d.Nodes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		node, err := d.Nodes[key].ToDomain(key)
		if err != nil {
			return nil, &DecodeError{Source: source, NodeID: key, Err: err}
		}
		story.Nodes[key] = node
	}
	return story, nil
}

// ToDomain builds the domain node. fallbackID is used when the definition has no id.
func (d NodeDefinition) ToDomain(fallbackID string) (*domain.Node, error) {
	id := d.ID
	if id == "" {
		id = fallbackID
	}

	node := &domain.Node{
		ID:          id,
		Prompt:      strings.TrimRight(d.Prompt, "\n"),
		Ending:      domain.OutcomeTag(strings.ToUpper(d.Ending)),
		InvalidText: strings.TrimRight(d.InvalidText, "\n"),
	}

	for i, c := range d.Choices {
		choice, err := c.ToDomain()
		if err != nil {
			return nil, fmt.Errorf("choice #%d: %w", i+1, err)
		}
		node.Choices = append(node.Choices, choice)
	}
	return node, nil
}

// ToDomain resolves the polymorphic target of a choice.
func (c ChoiceDefinition) ToDomain() (domain.Choice, error) {
	choice := domain.Choice{Key: c.Key, Label: c.Label}

	if c.Outcome != nil {
		out := normalizeOutcome(*c.Outcome)
		choice.Outcome = &out
	}

	switch v := c.To.(type) {
	case nil:
	case string:
		choice.To = TrimExtension(v)
	case int, int64, uint64:
		choice.To = fmt.Sprint(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return choice, fmt.Errorf("invalid node id %s (want a string or integer)", v)
		}
		choice.To = strconv.FormatInt(n, 10)
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return choice, fmt.Errorf("invalid node id %v (want a string or integer)", v)
		}
		choice.To = strconv.FormatFloat(v, 'f', -1, 64)
	case map[string]any, map[any]any:
		var out domain.Outcome
		if err := Decode(v, &out); err != nil {
			return choice, fmt.Errorf("inline outcome: %w", err)
		}
		if choice.Outcome != nil {
			return choice, fmt.Errorf("outcome declared twice")
		}
		out = normalizeOutcome(out)
		choice.Outcome = &out
	default:
		return choice, fmt.Errorf("invalid target type %T (want node id or outcome)", v)
	}

	return choice, nil
}

func normalizeOutcome(o domain.Outcome) domain.Outcome {
	o.Tag = domain.OutcomeTag(strings.ToUpper(string(o.Tag)))
	o.Text = strings.TrimRight(o.Text, "\n")
	return o
}

// FromDomain converts a node back to its authored shape.
func FromDomain(n *domain.Node) NodeDefinition {
	def := NodeDefinition{
		ID:          n.ID,
		Prompt:      n.Prompt,
		Ending:      string(n.Ending),
		InvalidText: n.InvalidText,
	}
	for _, c := range n.Choices {
		cd := ChoiceDefinition{Key: c.Key, Label: c.Label}
		if c.Outcome != nil {
			out := *c.Outcome
			cd.Outcome = &out
		} else {
			cd.To = c.To
		}
		def.Choices = append(def.Choices, cd)
	}
	return def
}

// TrimExtension strips a file extension and normalizes separators, so that
// "cave/lake.md" and "cave/lake" name the same node.
func TrimExtension(id string) string {
	switch ext := filepath.Ext(id); ext {
	case ".md", ".json", ".yaml", ".yml":
		id = strings.TrimSuffix(id, ext)
	}
	return filepath.ToSlash(id)
}
