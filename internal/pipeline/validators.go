package pipeline

import (
	"fmt"
	"strings"

	"github.com/randalmurphal/cognigen/internal/domain"
	"github.com/randalmurphal/cognigen/internal/extract"
	fgerrors "github.com/randalmurphal/cognigen/pkg/flowgraph/errors"
)

// outline is a validated topic-generation reply.
type outline struct {
	Title       string
	Description string
	Topics      []domain.Topic
}

// draftSubmodule is a validated submodule-generation entry.
type draftSubmodule struct {
	Title   string
	Summary string
}

// listed returns the objects under key when v is an object, or the
// object elements of v when it is a bare array.
func listed(v any, key string) []extract.Payload {
	if m, ok := v.(map[string]any); ok {
		return extract.NewPayload(m).Objects(key)
	}
	return extract.ObjectsOf(v)
}

func validateTopicNames(v any) ([]string, error) {
	var names []string
	for _, t := range listed(v, "topics") {
		if name := topicName(t); name != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil, &fgerrors.ValidationError{Field: "topics", Message: "no named topics"}
	}
	return names, nil
}

func validateOutline(v any) (outline, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return outline{}, &fgerrors.ValidationError{Message: fmt.Sprintf("expected an object, got %T", v)}
	}
	p := extract.NewPayload(m)

	out := outline{
		Title:       strings.TrimSpace(p.String("title", "")),
		Description: strings.TrimSpace(p.String("description", "")),
	}
	for _, t := range p.Objects("topics") {
		name := topicName(t)
		if name == "" {
			continue
		}
		out.Topics = append(out.Topics, domain.Topic{Name: name, Order: t.Int("order", 0)})
	}
	if len(out.Topics) == 0 {
		return outline{}, &fgerrors.ValidationError{Field: "topics", Message: "no named topics"}
	}
	return out, nil
}

func validateSubmodules(v any) ([]draftSubmodule, error) {
	var subs []draftSubmodule
	for _, sm := range listed(v, "submodules") {
		title := strings.TrimSpace(sm.String("title", ""))
		if title == "" {
			continue
		}
		subs = append(subs, draftSubmodule{Title: title, Summary: strings.TrimSpace(sm.String("summary", ""))})
	}
	if len(subs) == 0 {
		return nil, &fgerrors.ValidationError{Field: "submodules", Message: "no titled submodules"}
	}
	return subs, nil
}

func topicName(p extract.Payload) string {
	if name := strings.TrimSpace(p.String("name", "")); name != "" {
		return name
	}
	return strings.TrimSpace(p.String("title", ""))
}
