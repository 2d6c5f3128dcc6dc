package pipeline

import (
	"context"
	"fmt"

	"github.com/randalmurphal/cognigen/internal/domain"
	"github.com/randalmurphal/cognigen/internal/generate"
	"github.com/randalmurphal/cognigen/internal/prompt"
	"github.com/randalmurphal/cognigen/pkg/flowgraph"
	fgerrors "github.com/randalmurphal/cognigen/pkg/flowgraph/errors"
	"github.com/randalmurphal/cognigen/pkg/flowgraph/state"
)

// LearningPathGraph is the learning-path graph name.
const LearningPathGraph = "learning_path"

// Custom-topic path texts.
const (
	customTitleSuffix = " - Custom Learning Path"
	customDescription = "Learning path generated only from user-provided custom topics."
)

// PathState is the learning-path workflow state.
type PathState struct {
	Request     state.Overwrite[domain.StudentProfile]
	Profile     state.Overwrite[domain.StudentProfile]
	AutoTopics  state.Overwrite[[]string]
	Title       state.Overwrite[string]
	Description state.Overwrite[string]

	// Topics is the outline; Cursor indexes the next topic needing
	// submodules.
	Topics state.Overwrite[[]domain.Topic]
	Cursor state.Overwrite[int]

	// Built collects topics with their submodules, in outline order.
	Built state.Accumulate[domain.Topic]

	// Degraded names the generation steps that fell back.
	Degraded state.Accumulate[string]

	Path state.Overwrite[domain.LearningPath]
}

// Merge implements flowgraph.State.
func (s PathState) Merge(u PathState) PathState {
	return PathState{
		Request:     s.Request.Merge(u.Request),
		Profile:     s.Profile.Merge(u.Profile),
		AutoTopics:  s.AutoTopics.Merge(u.AutoTopics),
		Title:       s.Title.Merge(u.Title),
		Description: s.Description.Merge(u.Description),
		Topics:      s.Topics.Merge(u.Topics),
		Cursor:      s.Cursor.Merge(u.Cursor),
		Built:       s.Built.Merge(u.Built),
		Degraded:    s.Degraded.Merge(u.Degraded),
		Path:        s.Path.Merge(u.Path),
	}
}

func (p *Pipelines) learningPathGraph() *flowgraph.Graph[PathState] {
	return flowgraph.NewGraph[PathState]().
		Named(LearningPathGraph).
		AddNode("input", p.pathInput).
		AddNode("profile", p.pathProfile).
		AddNode("auto_topics", p.autoTopics).
		AddNode("topic_generation", p.topicGeneration).
		AddNode("submodule_generation", p.submoduleGeneration).
		AddNode("path_assembly", p.pathAssembly).
		AddEdge("input", "profile").
		AddEdge("profile", "auto_topics").
		AddEdge("auto_topics", "topic_generation").
		AddConditionalEdge("topic_generation", nextTopic).
		AddConditionalEdge("submodule_generation", nextTopic).
		AddEdge("path_assembly", flowgraph.END).
		SetEntry("input")
}

// nextTopic loops submodule generation until the cursor passes the last
// topic. Every pass advances the cursor by one.
func nextTopic(_ flowgraph.Context, s PathState) string {
	if s.Cursor.Get() < len(s.Topics.Get()) {
		return "submodule_generation"
	}
	return "path_assembly"
}

// GenerateLearningPath runs the learning-path pipeline for profile.
func (p *Pipelines) GenerateLearningPath(ctx context.Context, profile domain.StudentProfile) (domain.LearningPath, error) {
	final, err := p.path.Run(p.flowContext(ctx), PathState{Request: state.Set(profile)}, p.deps.RunOptions...)
	if err != nil {
		return domain.LearningPath{}, err
	}
	if !final.Path.IsSet() {
		return domain.LearningPath{}, &fgerrors.ContractError{Pipeline: LearningPathGraph, Message: "graph returned no learning path"}
	}
	return final.Path.Get(), nil
}

func (p *Pipelines) pathInput(_ flowgraph.Context, s PathState) (PathState, error) {
	if err := s.Request.Get().Validate(); err != nil {
		return PathState{}, err
	}
	return PathState{}, nil
}

func (p *Pipelines) pathProfile(_ flowgraph.Context, s PathState) (PathState, error) {
	req := s.Request.Get()
	profile := req
	profile.ExperienceLevel = req.ExperienceLevel.Normalized()
	profile.CustomTopics = req.Topics()
	if profile.CustomTopics == nil {
		profile.CustomTopics = []string{}
	}
	return PathState{Profile: state.Set(profile)}, nil
}

func (p *Pipelines) autoTopics(ctx flowgraph.Context, s PathState) (PathState, error) {
	profile := s.Profile.Get()
	if len(profile.CustomTopics) > 0 {
		return PathState{}, nil
	}

	req, err := p.request(prompt.AutoTopics, p.settings.Models.Path, prompt.Vars{
		"course": profile.CourseName,
		"level":  string(profile.ExperienceLevel),
		"goal":   profile.Goal,
	})
	if err != nil {
		return PathState{}, err
	}

	res := generate.Run(ctx, p.deps.Client, req, spec(p, prompt.AutoTopics, validateTopicNames, func() []string {
		return []string{profile.CourseName}
	}))
	update := PathState{AutoTopics: state.Set(res.Value)}
	if res.Degraded() {
		update.Degraded = state.Append(prompt.AutoTopics)
	}
	return update, nil
}

func (p *Pipelines) topicGeneration(ctx flowgraph.Context, s PathState) (PathState, error) {
	profile := s.Profile.Get()
	level := profile.ExperienceLevel
	now := p.deps.Now()

	var (
		o        outline
		degraded bool
	)
	if len(profile.CustomTopics) > 0 {
		o = outline{
			Title:       profile.CourseName + customTitleSuffix,
			Description: customDescription,
			Topics:      topicsNamed(profile.CustomTopics),
		}
	} else {
		auto := s.AutoTopics.Get()
		req, err := p.request(prompt.TopicGeneration, p.settings.Models.Path, prompt.Vars{
			"course":      profile.CourseName,
			"level":       string(level),
			"goal":        profile.Goal,
			"core_topics": auto,
		})
		if err != nil {
			return PathState{}, err
		}
		res := generate.Run(ctx, p.deps.Client, req, spec(p, prompt.TopicGeneration, validateOutline, func() outline {
			names := auto
			if len(names) == 0 {
				names = []string{profile.CourseName}
			}
			return outline{Topics: topicsNamed(names)}
		}))
		o, degraded = res.Value, res.Degraded()
		if o.Title == "" {
			o.Title = profile.CourseName + " Learning Path"
		}
	}

	for i := range o.Topics {
		o.Topics[i].ID = p.deps.NewID()
	}
	topics := domain.NormalizeTopics(o.Topics, level, now)
	topics = domain.LimitTopics(topics, level, p.settings.MaxTopics)

	update := PathState{
		Title:       state.Set(o.Title),
		Description: state.Set(o.Description),
		Topics:      state.Set(topics),
		Cursor:      state.Set(0),
	}
	if degraded {
		update.Degraded = state.Append(prompt.TopicGeneration)
	}
	return update, nil
}

func topicsNamed(names []string) []domain.Topic {
	topics := make([]domain.Topic, len(names))
	for i, name := range names {
		topics[i] = domain.Topic{Name: name, Order: i + 1}
	}
	return topics
}

func (p *Pipelines) submoduleGeneration(ctx flowgraph.Context, s PathState) (PathState, error) {
	profile := s.Profile.Get()
	cursor := s.Cursor.Get()
	topic := s.Topics.Get()[cursor]
	limit := p.settings.SubmodulesPerTopic

	req, err := p.request(prompt.Submodules, p.settings.Models.Path, prompt.Vars{
		"count":  limit,
		"topic":  topic.Name,
		"course": profile.CourseName,
		"level":  string(profile.ExperienceLevel),
	})
	if err != nil {
		return PathState{}, err
	}

	res := generate.Run(ctx, p.deps.Client, req, spec(p, prompt.Submodules, validateSubmodules, func() []draftSubmodule {
		return []draftSubmodule{{Title: topic.Name}}
	}))

	drafts := res.Value
	if len(drafts) > limit {
		drafts = drafts[:limit]
	}
	now := p.deps.Now()
	topic.Submodules = make([]domain.Submodule, len(drafts))
	for i, d := range drafts {
		topic.Submodules[i] = domain.Submodule{
			ID:        p.deps.NewID(),
			Title:     d.Title,
			Summary:   d.Summary,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	domain.RenumberSubmodules(topic.Submodules)

	update := PathState{
		Built:  state.Append(topic),
		Cursor: state.Set(cursor + 1),
	}
	if res.Degraded() {
		update.Degraded = state.Append(fmt.Sprintf("%s:%s", prompt.Submodules, topic.Name))
	}
	return update, nil
}

func (p *Pipelines) pathAssembly(ctx flowgraph.Context, s PathState) (PathState, error) {
	topics := s.Built.Items()
	if len(topics) == 0 {
		return PathState{}, &fgerrors.ContractError{Pipeline: LearningPathGraph, Message: "no topics could be generated"}
	}
	domain.RenumberTopics(topics)

	if s.Degraded.Len() > 0 {
		ctx.Logger().Warn("learning path built with fallbacks", "degraded_steps", s.Degraded.Items())
	}

	now := p.deps.Now()
	profile := s.Profile.Get()
	path := domain.LearningPath{
		ID:             p.deps.NewID(),
		Title:          s.Title.Get(),
		Description:    s.Description.Get(),
		CourseName:     profile.CourseName,
		Goal:           profile.Goal,
		StudentProfile: profile,
		Topics:         topics,
		Progress:       domain.ComputeProgress(topics),
		Status:         domain.StatusDraft,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	return PathState{Path: state.Set(path)}, nil
}
