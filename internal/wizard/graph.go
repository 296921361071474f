// Package wizard describes the question sequence of the intake wizard and the
// rules for moving through it. Everything here is pure: no I/O, no state.
package wizard

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/ashureev/briefbot/internal/domain"
)

// ErrUnknownStep is returned for a step id the graph does not define.
var ErrUnknownStep = errors.New("unknown step")

// Terminal is the successor of the last step.
const Terminal = ""

// Kind is the input a step expects.
type Kind string

const (
	KindSingle Kind = "single"
	KindMulti  Kind = "multi"
	KindText   Kind = "text"
)

// ValidatorContact marks a step whose answer must look like an email or phone.
const ValidatorContact = "contact"

// Option is one button of a choice step. Key is the short id carried in
// button payloads, Value is what gets stored.
type Option struct {
	Key   string `yaml:"key"`
	Label string `yaml:"label"`
	Value string `yaml:"value"`
}

// Step is one question of the wizard.
type Step struct {
	ID       string            `yaml:"id"`
	Field    string            `yaml:"field"`
	Kind     Kind              `yaml:"kind"`
	Prompt   string            `yaml:"prompt"`
	Options  []Option          `yaml:"options"`
	Next     string            `yaml:"next"`
	Routes   map[string]string `yaml:"routes"`
	Sub      bool              `yaml:"sub"`
	Validate string            `yaml:"validate"`
	Terminal bool              `yaml:"terminal"`
}

// IsChoice returns true for single- and multi-choice steps.
func (s *Step) IsChoice() bool {
	return s.Kind == KindSingle || s.Kind == KindMulti
}

// BriefField is one line of the rendered brief.
type BriefField struct {
	Field string `yaml:"field"`
	Label string `yaml:"label"`
}

// Graph is the ordered step table plus the brief layout.
type Graph struct {
	Entry string       `yaml:"entry"`
	Steps []*Step      `yaml:"steps"`
	Brief []BriefField `yaml:"brief"`

	byID map[string]*Step
	main []string
}

func (g *Graph) index() {
	g.byID = make(map[string]*Step, len(g.Steps))
	g.main = g.main[:0]
	for _, s := range g.Steps {
		for i := range s.Options {
			if s.Options[i].Label == "" {
				s.Options[i].Label = s.Options[i].Value
			}
			if s.Options[i].Key == "" {
				s.Options[i].Key = s.Options[i].Value
			}
		}
		g.byID[s.ID] = s
		if !s.Sub {
			g.main = append(g.main, s.ID)
		}
	}
}

// Prompt returns the step definition for id.
func (g *Graph) Prompt(id string) (*Step, error) {
	s, ok := g.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStep, id)
	}
	return s, nil
}

// Has reports whether id is a defined step.
func (g *Graph) Has(id string) bool {
	_, ok := g.byID[id]
	return ok
}

// TerminalID returns the id of the step whose answer completes the wizard.
func (g *Graph) TerminalID() string {
	for _, s := range g.Steps {
		if s.Terminal {
			return s.ID
		}
	}
	return ""
}

// Position returns the 1-based ordinal of a main step and the number of main
// steps. Sub steps report 0.
func (g *Graph) Position(id string) (int, int) {
	return slices.Index(g.main, id) + 1, len(g.main)
}

// Successor returns the step that follows id when it was answered with value.
func (g *Graph) Successor(id, value string) (string, error) {
	s, err := g.Prompt(id)
	if err != nil {
		return "", err
	}
	if next, ok := s.Routes[value]; ok {
		return next, nil
	}
	if s.Terminal {
		return Terminal, nil
	}
	return s.Next, nil
}

// Predecessor returns the step "back" leads to from id, or "" at the entry
// step. The path is replayed from the entry using the recorded answers, so a
// step reached through a route goes back to the route's target.
func (g *Graph) Predecessor(id string, answers map[string]domain.Answer) string {
	if id == g.Entry || !g.Has(id) {
		return ""
	}

	prev := ""
	cur := g.Entry
	seen := make(map[string]bool)
	for cur != Terminal && !seen[cur] {
		if cur == id {
			return prev
		}
		seen[cur] = true
		a, ok := answers[g.byID[cur].Field]
		if !ok {
			break
		}
		next, err := g.Successor(cur, a.Value)
		if err != nil {
			break
		}
		prev, cur = cur, next
	}
	return g.staticPredecessor(id)
}

func (g *Graph) staticPredecessor(id string) string {
	if g.byID[id].Sub {
		for _, s := range g.Steps {
			for _, target := range s.Routes {
				if target == id {
					return s.ID
				}
			}
		}
		return ""
	}
	i := slices.Index(g.main, id)
	if i <= 0 {
		return ""
	}
	return g.main[i-1]
}

// Option finds an option of step id by key or by value.
func (g *Graph) Option(id, ref string) (Option, bool) {
	s, ok := g.byID[id]
	if !ok {
		return Option{}, false
	}
	for _, o := range s.Options {
		if o.Key == ref || o.Value == ref {
			return o, true
		}
	}
	return Option{}, false
}

// Ordered returns selected values sorted in the step's option order.
func (g *Graph) Ordered(id string, selected []string) []string {
	s, ok := g.byID[id]
	if !ok {
		return slices.Clone(selected)
	}
	out := make([]string, 0, len(selected))
	for _, o := range s.Options {
		if slices.Contains(selected, o.Value) {
			out = append(out, o.Value)
		}
	}
	return out
}

// DisplayValue returns the value shown in the brief for field. When the
// answer routed to a sub step that was answered, the sub step's answer is
// shown instead.
func (g *Graph) DisplayValue(field string, answers map[string]domain.Answer) (string, bool) {
	a, ok := answers[field]
	if !ok {
		return "", false
	}
	for _, s := range g.Steps {
		if s.Field != field {
			continue
		}
		if target, routed := s.Routes[a.Value]; routed {
			if sub, ok := g.byID[target]; ok {
				if detail, ok := answers[sub.Field]; ok {
					return detail.Value, true
				}
			}
		}
		break
	}
	if a.Multi {
		return strings.Join(a.Values, ", "), true
	}
	return a.Value, true
}

// Toggle returns a new selection with value added if absent, removed if
// present. The input is not modified.
func Toggle(selected []string, value string) []string {
	if i := slices.Index(selected, value); i >= 0 {
		return slices.Delete(slices.Clone(selected), i, i+1)
	}
	return append(slices.Clone(selected), value)
}

// IsComplete reports whether a multi-choice selection may be submitted.
func IsComplete(selected []string) bool {
	return len(selected) > 0
}
