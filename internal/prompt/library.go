package prompt

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"dario.cat/mergo"
)

// Template names used by the pipelines.
const (
	AutoTopics        = "auto_topics"
	TopicGeneration   = "topic_generation"
	Submodules        = "submodules"
	ContentStructured = "content_structured"
	ContentNotebook   = "content_notebook"
	Quiz              = "quiz"
)

// Template is one named pair of instructions.
type Template struct {
	Name   string `yaml:"-" json:"-"`
	System string `yaml:"system" json:"system"`
	User   string `yaml:"user" json:"user"`
}

// Render expands both halves of the template.
func (t Template) Render(vars Vars) (system, user string, err error) {
	system, err = Expand(t.System, vars)
	if err != nil {
		return "", "", t.named(err)
	}
	user, err = Expand(t.User, vars)
	if err != nil {
		return "", "", t.named(err)
	}
	return system, user, nil
}

func (t Template) named(err error) error {
	var mv *MissingVarsError
	if errors.As(err, &mv) {
		mv.Template = t.Name
	}
	return err
}

// Library is an immutable set of templates.
type Library struct {
	templates map[string]Template
}

// ErrUnknownTemplate is returned by Get for a name the library lacks.
var ErrUnknownTemplate = errors.New("unknown prompt template")

// Defaults returns the built-in templates.
func Defaults() *Library {
	l := &Library{templates: make(map[string]Template, len(builtin))}
	for name, t := range builtin {
		t.Name = name
		l.templates[name] = t
	}
	return l
}

// With returns a copy of l where each override replaces the non-empty
// fields of the template with the same name. Overrides for unknown names
// are rejected.
func (l *Library) With(overrides map[string]Template) (*Library, error) {
	out := &Library{templates: maps.Clone(l.templates)}
	for name, o := range overrides {
		base, ok := out.templates[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
		}
		o.Name = ""
		if err := mergo.Merge(&base, o, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merge prompt %s: %w", name, err)
		}
		out.templates[name] = base
	}
	return out, nil
}

// Get returns the named template.
func (l *Library) Get(name string) (Template, error) {
	t, ok := l.templates[name]
	if !ok {
		return Template{}, fmt.Errorf("%w: %s", ErrUnknownTemplate, name)
	}
	return t, nil
}

// Names returns the template names in sorted order.
func (l *Library) Names() []string {
	return slices.Sorted(maps.Keys(l.templates))
}
