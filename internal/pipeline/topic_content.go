package pipeline

import (
	"context"
	"slices"

	"github.com/randalmurphal/cognigen/internal/content"
	"github.com/randalmurphal/cognigen/internal/domain"
	"github.com/randalmurphal/cognigen/internal/extract"
	"github.com/randalmurphal/cognigen/internal/generate"
	"github.com/randalmurphal/cognigen/internal/prompt"
	"github.com/randalmurphal/cognigen/internal/resources"
	"github.com/randalmurphal/cognigen/pkg/flowgraph"
	fgerrors "github.com/randalmurphal/cognigen/pkg/flowgraph/errors"
	"github.com/randalmurphal/cognigen/pkg/flowgraph/observability"
	"github.com/randalmurphal/cognigen/pkg/flowgraph/state"
)

// TopicContentGraph is the topic-content graph name.
const TopicContentGraph = "topic_content"

// ContentState is the topic-content workflow state.
type ContentState struct {
	Request state.Overwrite[domain.TopicContentRequest]

	// Pending is the work list; it shrinks by one per loop pass.
	Pending state.Overwrite[[]domain.SubmoduleRef]
	Current state.Overwrite[domain.SubmoduleRef]
	Local   state.Overwrite[[]resources.Item]

	Artifacts state.Accumulate[domain.ContentArtifact]

	// Resources counts the items attached to each artifact.
	Resources state.Accumulate[int]
}

// Merge implements flowgraph.State.
func (s ContentState) Merge(u ContentState) ContentState {
	return ContentState{
		Request:   s.Request.Merge(u.Request),
		Pending:   s.Pending.Merge(u.Pending),
		Current:   s.Current.Merge(u.Current),
		Local:     s.Local.Merge(u.Local),
		Artifacts: s.Artifacts.Merge(u.Artifacts),
		Resources: s.Resources.Merge(u.Resources),
	}
}

func (p *Pipelines) topicContentGraph() *flowgraph.Graph[ContentState] {
	return flowgraph.NewGraph[ContentState]().
		Named(TopicContentGraph).
		AddNode("input", p.contentInput).
		AddNode("pick_submodule", pickSubmodule).
		AddNode("similarity_search", p.similaritySearch).
		AddNode("generate_content", p.generateContent).
		AddNode("pop_submodule", popSubmodule).
		AddConditionalEdge("input", routePending).
		AddEdge("pick_submodule", "similarity_search").
		AddEdge("similarity_search", "generate_content").
		AddEdge("generate_content", "pop_submodule").
		AddConditionalEdge("pop_submodule", routePending).
		SetEntry("input")
}

func routePending(_ flowgraph.Context, s ContentState) string {
	if len(s.Pending.Get()) > 0 {
		return "pick_submodule"
	}
	return flowgraph.END
}

// GenerateTopicContent runs the topic-content pipeline for req. A run that
// produces no artifact fails with a *errors.ContractError.
func (p *Pipelines) GenerateTopicContent(ctx context.Context, req domain.TopicContentRequest) (domain.TopicContentResponse, error) {
	final, err := p.content.Run(p.flowContext(ctx), ContentState{Request: state.Set(req)}, p.deps.RunOptions...)
	if err != nil {
		return domain.TopicContentResponse{}, err
	}

	artifacts := final.Artifacts.Items()
	if len(artifacts) == 0 {
		return domain.TopicContentResponse{}, &fgerrors.ContractError{Pipeline: TopicContentGraph, Message: "no content generated"}
	}

	summary := &domain.ContentSummary{Submodules: len(artifacts)}
	for _, art := range artifacts {
		if art.Degraded {
			summary.Degraded++
		}
	}
	for _, n := range final.Resources.Items() {
		summary.Resources += n
	}

	return domain.TopicContentResponse{
		TopicID:   req.TopicID,
		TopicName: req.TopicName,
		Content:   artifacts,
		Summary:   summary,
	}, nil
}

func (p *Pipelines) contentInput(_ flowgraph.Context, s ContentState) (ContentState, error) {
	req := s.Request.Get()
	if err := req.Validate(); err != nil {
		return ContentState{}, err
	}
	return ContentState{Pending: state.Set(slices.Clone(req.Submodules))}, nil
}

func pickSubmodule(_ flowgraph.Context, s ContentState) (ContentState, error) {
	return ContentState{Current: state.Set(s.Pending.Get()[0])}, nil
}

func popSubmodule(_ flowgraph.Context, s ContentState) (ContentState, error) {
	rest := slices.Clone(s.Pending.Get()[1:])
	return ContentState{Pending: state.Set(rest)}, nil
}

// resourceQuery is the lookup query for a submodule.
func resourceQuery(req domain.TopicContentRequest, sm domain.SubmoduleRef) string {
	return sm.Title + " " + req.TopicName
}

func (p *Pipelines) similaritySearch(ctx flowgraph.Context, s ContentState) (ContentState, error) {
	if p.deps.Local == nil {
		return ContentState{Local: state.Set([]resources.Item(nil))}, nil
	}

	query := resourceQuery(s.Request.Get(), s.Current.Get())
	items, err := p.deps.Local.Lookup(ctx, query, p.settings.LocalCandidates)
	if err != nil {
		observability.LogSourceFailure(ctx.Logger(), string(resources.SourceLocal), query, err)
		p.deps.Metrics.RecordSourceFailure(ctx, string(resources.SourceLocal))
		items = nil
	}
	return ContentState{Local: state.Set(items)}, nil
}

func (p *Pipelines) generateContent(ctx flowgraph.Context, s ContentState) (ContentState, error) {
	req := s.Request.Get()
	sm := s.Current.Get()
	sc := content.SubmoduleContext{
		ID:         sm.ID,
		Title:      sm.Title,
		Summary:    sm.Summary,
		TopicName:  req.TopicName,
		CourseName: req.CourseName,
		Level:      req.ExperienceLevel.Normalized(),
	}

	name := prompt.ContentStructured
	if p.deps.Normalizer.Shape() == content.ShapeNotebook {
		name = prompt.ContentNotebook
	}
	genReq, err := p.request(name, p.settings.Models.Content, prompt.Vars{
		"submodule": sm.Title,
		"summary":   sm.Summary,
		"topic":     req.TopicName,
		"course":    req.CourseName,
		"level":     string(sc.Level),
	})
	if err != nil {
		return ContentState{}, err
	}

	res := generate.Run(ctx, p.deps.Client, genReq, spec(p, name, p.deps.Normalizer.Validate, func() extract.Payload {
		return extract.Payload{}
	}))

	items := p.deps.Resolver.Resolve(ctx, resourceQuery(req, sm), s.Local.Get())

	var art domain.ContentArtifact
	if res.Degraded() {
		art = p.deps.Normalizer.Stub(sc, items)
	} else {
		art = p.deps.Normalizer.Normalize(res.Value, sc, items)
	}
	return ContentState{
		Artifacts: state.Append(art),
		Resources: state.Append(len(items)),
	}, nil
}
