package wizard

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed brief.yaml
var defaultGraph []byte

// maxPayload is Telegram's limit on callback data length in bytes.
const maxPayload = 64

// Default returns the built-in website brief wizard.
func Default() *Graph {
	g, err := Load(bytes.NewReader(defaultGraph))
	if err != nil {
		panic("wizard: invalid embedded graph: " + err.Error())
	}
	return g
}

// LoadFile reads a graph definition from a YAML file.
func LoadFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wizard file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load decodes and validates a graph definition.
func Load(r io.Reader) (*Graph, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var g Graph
	if err := dec.Decode(&g); err != nil {
		return nil, fmt.Errorf("decode wizard: %w", err)
	}
	g.index()
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return &g, nil
}

// Validate checks that the graph is internally consistent.
func (g *Graph) Validate() error {
	if len(g.Steps) == 0 {
		return errors.New("wizard has no steps")
	}
	if g.byID == nil {
		g.index()
	}
	if len(g.byID) != len(g.Steps) {
		return errors.New("wizard has duplicate step ids")
	}
	if !g.Has(g.Entry) {
		return fmt.Errorf("entry: %w: %q", ErrUnknownStep, g.Entry)
	}

	terminals := 0
	fields := make(map[string]string, len(g.Steps))
	for _, s := range g.Steps {
		if s.ID == "" || s.Field == "" {
			return fmt.Errorf("step %q: id and field are required", s.ID)
		}
		if other, dup := fields[s.Field]; dup {
			return fmt.Errorf("step %q: field %q already used by %q", s.ID, s.Field, other)
		}
		fields[s.Field] = s.ID

		switch s.Kind {
		case KindSingle, KindMulti:
			if len(s.Options) == 0 {
				return fmt.Errorf("step %q: choice step without options", s.ID)
			}
			for _, o := range s.Options {
				if n := len("c:" + s.ID + ":" + o.Key); n > maxPayload {
					return fmt.Errorf("step %q: option key %q too long for a button payload", s.ID, o.Key)
				}
			}
		case KindText:
		default:
			return fmt.Errorf("step %q: unknown kind %q", s.ID, s.Kind)
		}

		if s.Terminal {
			terminals++
			continue
		}
		if !g.Has(s.Next) {
			return fmt.Errorf("step %q next: %w: %q", s.ID, ErrUnknownStep, s.Next)
		}
		for value, target := range s.Routes {
			if _, ok := g.Option(s.ID, value); !ok {
				return fmt.Errorf("step %q: route for unknown option %q", s.ID, value)
			}
			if !g.Has(target) {
				return fmt.Errorf("step %q route: %w: %q", s.ID, ErrUnknownStep, target)
			}
		}
	}
	if terminals != 1 {
		return fmt.Errorf("wizard must have exactly one terminal step, found %d", terminals)
	}

	for _, b := range g.Brief {
		if _, ok := fields[b.Field]; !ok {
			return fmt.Errorf("brief field %q is not collected by any step", b.Field)
		}
	}
	return nil
}
