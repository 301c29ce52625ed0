// Package presets ships sample inputs for every algorithm. Inputs are kept
// as YAML nodes so each solver decodes them into its own input type.
package presets

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed presets.yaml
var builtin []byte

var ErrNotFound = errors.New("preset not found")

type Preset struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Input       yaml.Node `yaml:"input"`
}

// Slug is the lower-case, dash-separated name used on the command line.
func (p Preset) Slug() string {
	return slug(p.Name)
}

func slug(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "-")
}

func (p Preset) MarshalJSON() ([]byte, error) {
	input, err := nodeJSON(&p.Input)
	if err != nil {
		return nil, fmt.Errorf("preset %q: %w", p.Name, err)
	}
	return json.Marshal(struct {
		Name        string          `json:"name"`
		Slug        string          `json:"slug"`
		Description string          `json:"description"`
		Input       json.RawMessage `json:"input"`
	}{p.Name, p.Slug(), p.Description, input})
}

// InputJSON renders the preset input as a request body. Mapping order is
// kept, so graph neighbor order survives.
func (p Preset) InputJSON() ([]byte, error) {
	return nodeJSON(&p.Input)
}

type Catalog struct {
	algorithms map[string][]Preset
	aliases    map[string]string
}

type catalogFile struct {
	Algorithms map[string][]Preset `yaml:"algorithms"`
	Aliases    map[string]string   `yaml:"aliases"`
}

func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse presets: %w", err)
	}
	for alias, target := range f.Aliases {
		if _, ok := f.Algorithms[target]; !ok {
			return nil, fmt.Errorf("alias %s points at unknown algorithm %s", alias, target)
		}
	}
	if f.Algorithms == nil {
		f.Algorithms = map[string][]Preset{}
	}
	return &Catalog{algorithms: f.Algorithms, aliases: f.Aliases}, nil
}

var loadDefault = sync.OnceValues(func() (*Catalog, error) {
	return Parse(builtin)
})

// Default returns the embedded catalog.
func Default() *Catalog {
	c, err := loadDefault()
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) resolve(algorithm string) string {
	if target, ok := c.aliases[algorithm]; ok {
		return target
	}
	return algorithm
}

// List returns the presets for algorithm, or nil if it has none.
func (c *Catalog) List(algorithm string) []Preset {
	return c.algorithms[c.resolve(algorithm)]
}

// Get matches name case-insensitively, as written or as a slug.
func (c *Catalog) Get(algorithm, name string) (Preset, error) {
	want := slug(name)
	for _, p := range c.List(algorithm) {
		if p.Slug() == want {
			return p, nil
		}
	}
	return Preset{}, fmt.Errorf("%w: %s/%s", ErrNotFound, algorithm, name)
}

// Algorithms lists every algorithm with presets, aliases included, sorted.
func (c *Catalog) Algorithms() []string {
	out := make([]string, 0, len(c.algorithms)+len(c.aliases))
	for name := range c.algorithms {
		out = append(out, name)
	}
	for alias := range c.aliases {
		out = append(out, alias)
	}
	sort.Strings(out)
	return out
}

func List(algorithm string) []Preset { return Default().List(algorithm) }

func Get(algorithm, name string) (Preset, error) { return Default().Get(algorithm, name) }

func Algorithms() []string { return Default().Algorithms() }

func nodeJSON(n *yaml.Node) (json.RawMessage, error) {
	switch n.Kind {
	case 0:
		return json.RawMessage("null"), nil
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return json.RawMessage("null"), nil
		}
		return nodeJSON(n.Content[0])
	case yaml.AliasNode:
		return nodeJSON(n.Alias)
	case yaml.MappingNode:
		var sb strings.Builder
		sb.WriteByte('{')
		for i := 0; i+1 < len(n.Content); i += 2 {
			if i > 0 {
				sb.WriteByte(',')
			}
			key, err := json.Marshal(n.Content[i].Value)
			if err != nil {
				return nil, err
			}
			val, err := nodeJSON(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			sb.Write(key)
			sb.WriteByte(':')
			sb.Write(val)
		}
		sb.WriteByte('}')
		return json.RawMessage(sb.String()), nil
	case yaml.SequenceNode:
		var sb strings.Builder
		sb.WriteByte('[')
		for i, c := range n.Content {
			if i > 0 {
				sb.WriteByte(',')
			}
			val, err := nodeJSON(c)
			if err != nil {
				return nil, err
			}
			sb.Write(val)
		}
		sb.WriteByte(']')
		return json.RawMessage(sb.String()), nil
	default:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return json.Marshal(v)
	}
}
