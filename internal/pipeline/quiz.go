package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/randalmurphal/cognigen/internal/content"
	"github.com/randalmurphal/cognigen/internal/domain"
	"github.com/randalmurphal/cognigen/internal/generate"
	"github.com/randalmurphal/cognigen/internal/prompt"
	"github.com/randalmurphal/cognigen/internal/textclean"
	"github.com/randalmurphal/cognigen/pkg/flowgraph"
	"github.com/randalmurphal/cognigen/pkg/flowgraph/llm"
	"github.com/randalmurphal/cognigen/pkg/flowgraph/state"
)

// QuizGraph is the quiz graph name.
const QuizGraph = "quiz"

const codeCellHeader = "# Code Example\n"

// QuizState is the quiz workflow state.
type QuizState struct {
	Request     state.Overwrite[domain.QuizRequest]
	Text        state.Overwrite[string]
	Quiz        state.Overwrite[[]domain.QuizQuestion]
	Degraded    state.Overwrite[bool]
	GeneratedAt state.Overwrite[time.Time]
}

// Merge implements flowgraph.State.
func (s QuizState) Merge(u QuizState) QuizState {
	return QuizState{
		Request:     s.Request.Merge(u.Request),
		Text:        s.Text.Merge(u.Text),
		Quiz:        s.Quiz.Merge(u.Quiz),
		Degraded:    s.Degraded.Merge(u.Degraded),
		GeneratedAt: s.GeneratedAt.Merge(u.GeneratedAt),
	}
}

func (p *Pipelines) quizGraph() *flowgraph.Graph[QuizState] {
	return flowgraph.NewGraph[QuizState]().
		Named(QuizGraph).
		AddNode("input", quizInput).
		AddNode("extract_text", p.extractText).
		AddNode("generate_quiz", p.generateQuiz).
		AddNode("finalize", p.finalizeQuiz).
		AddEdge("input", "extract_text").
		AddConditionalEdge("extract_text", func(_ flowgraph.Context, s QuizState) string {
			if strings.TrimSpace(s.Text.Get()) == "" {
				return "finalize"
			}
			return "generate_quiz"
		}).
		AddEdge("generate_quiz", "finalize").
		AddEdge("finalize", flowgraph.END).
		SetEntry("input")
}

// GenerateQuiz runs the quiz pipeline for req. Cells without learning text
// produce an empty quiz.
func (p *Pipelines) GenerateQuiz(ctx context.Context, req domain.QuizRequest) (domain.QuizResponse, error) {
	final, err := p.quiz.Run(p.flowContext(ctx), QuizState{Request: state.Set(req)}, p.deps.RunOptions...)
	if err != nil {
		return domain.QuizResponse{}, err
	}
	return domain.QuizResponse{
		SubmoduleID: req.SubmoduleID,
		Quiz:        final.Quiz.Get(),
		GeneratedAt: final.GeneratedAt.Get(),
	}, nil
}

func quizInput(_ flowgraph.Context, s QuizState) (QuizState, error) {
	if err := s.Request.Get().Validate(); err != nil {
		return QuizState{}, err
	}
	return QuizState{}, nil
}

// LearningText joins the markdown and code cells of an artifact body.
// Code cells are prefixed with a header so the generator can tell them
// apart from prose.
func LearningText(cells []domain.Cell) string {
	var chunks []string
	for _, c := range cells {
		switch c.Type {
		case domain.CellMarkdown:
			chunks = append(chunks, c.Text())
		case domain.CellCode:
			chunks = append(chunks, codeCellHeader+c.Text())
		}
	}
	return strings.Join(chunks, "\n\n")
}

func (p *Pipelines) extractText(_ flowgraph.Context, s QuizState) (QuizState, error) {
	text := textclean.Clip(LearningText(s.Request.Get().Cells), p.settings.MaxQuizTextChars)
	return QuizState{Text: state.Set(text)}, nil
}

func (p *Pipelines) generateQuiz(ctx flowgraph.Context, s QuizState) (QuizState, error) {
	req := s.Request.Get()
	title := req.SubmoduleTitle
	if title == "" {
		title = req.SubmoduleID
	}

	genReq, err := p.request(prompt.Quiz, p.settings.Models.Quiz,
		prompt.Vars{"title": title, "text": s.Text.Get()},
		llm.WithTemperature(p.settings.QuizTemperature),
	)
	if err != nil {
		return QuizState{}, err
	}

	res := generate.Run(ctx, p.deps.Client, genReq, spec(p, prompt.Quiz, content.ValidateQuiz, func() []domain.QuizQuestion {
		return []domain.QuizQuestion{}
	}))
	return QuizState{Quiz: state.Set(res.Value), Degraded: state.Set(res.Degraded())}, nil
}

func (p *Pipelines) finalizeQuiz(_ flowgraph.Context, s QuizState) (QuizState, error) {
	quiz := s.Quiz.Get()
	if quiz == nil {
		quiz = []domain.QuizQuestion{}
	}
	return QuizState{Quiz: state.Set(quiz), GeneratedAt: state.Set(p.deps.Now())}, nil
}
