package schedule

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// payloadEntry is the value stored under each trigger time. Themed events
// carry a variation that identifies them more precisely than the name.
type payloadEntry struct {
	Name      string `json:"name" yaml:"name"`
	Variation string `json:"variation,omitempty" yaml:"variation,omitempty"`
}

func (e payloadEntry) identity() string {
	if e.Variation != "" {
		return e.Variation
	}
	return e.Name
}

// ParseJSON decodes a schedule payload of the form
//
//	{"default": {"HH:MM": {"name": "..."}}, "themed": {"HH:MM": {"name": "...", "variation": "..."}}}
//
// The objects are walked token by token so that declaration order survives;
// decoding into a map would lose it.
func ParseJSON(data []byte) (*Table, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := expectDelim(dec, '{'); err != nil {
		return nil, err
	}

	var defs []Definition
	for dec.More() {
		key, err := stringToken(dec)
		if err != nil {
			return nil, err
		}
		group, ok := payloadKeys[key]
		if !ok {
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, fmt.Errorf("skip %q: %w", key, err)
			}
			continue
		}

		if err := expectDelim(dec, '{'); err != nil {
			return nil, fmt.Errorf("group %q: %w", key, err)
		}
		for dec.More() {
			at, err := stringToken(dec)
			if err != nil {
				return nil, fmt.Errorf("group %q: %w", key, err)
			}
			var entry payloadEntry
			if err := dec.Decode(&entry); err != nil {
				return nil, fmt.Errorf("group %q at %s: %w", key, at, err)
			}
			def, err := newDefinition(group, at, entry)
			if err != nil {
				return nil, err
			}
			defs = append(defs, def)
		}
		if err := expectDelim(dec, '}'); err != nil {
			return nil, fmt.Errorf("group %q: %w", key, err)
		}
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, err
	}

	return NewTable(defs), nil
}

// ParseYAML decodes the same payload shape written as YAML. Mapping order in
// the document is the declaration order.
func ParseYAML(data []byte) (*Table, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse schedule yaml: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.New("empty schedule document")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.New("schedule root must be a mapping")
	}

	var defs []Definition
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i].Value
		group, ok := payloadKeys[key]
		if !ok {
			continue
		}
		times := root.Content[i+1]
		if times.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("group %q must be a mapping", key)
		}
		for j := 0; j+1 < len(times.Content); j += 2 {
			at := times.Content[j].Value
			var entry payloadEntry
			if err := times.Content[j+1].Decode(&entry); err != nil {
				return nil, fmt.Errorf("group %q at %s: %w", key, at, err)
			}
			def, err := newDefinition(group, at, entry)
			if err != nil {
				return nil, err
			}
			defs = append(defs, def)
		}
	}

	return NewTable(defs), nil
}

func newDefinition(group Group, at string, entry payloadEntry) (Definition, error) {
	tod, err := ParseTimeOfDay(at)
	if err != nil {
		return Definition{}, fmt.Errorf("group %q: %w", group, err)
	}
	id := entry.identity()
	if id == "" {
		return Definition{}, fmt.Errorf("group %q at %s: missing name", group, at)
	}
	return Definition{TimeOfDay: tod, ID: id, Group: group}, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("read schedule json: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("schedule json: expected %q, got %v", want, tok)
	}
	return nil
}

func stringToken(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", fmt.Errorf("read schedule json: %w", err)
	}
	s, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("schedule json: expected key, got %v", tok)
	}
	return s, nil
}
