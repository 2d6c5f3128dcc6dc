package content

import (
	"strings"

	"github.com/randalmurphal/cognigen/internal/domain"
	"github.com/randalmurphal/cognigen/internal/extract"
	fgerrors "github.com/randalmurphal/cognigen/pkg/flowgraph/errors"
)

// Quiz limits.
const (
	MaxQuizQuestions   = 5
	OptionsPerQuestion = 4
)

// PaddingOption fills option lists that arrive with fewer than four entries.
const PaddingOption = "None of the above"

var optionLabels = [OptionsPerQuestion]string{"A", "B", "C", "D"}

// RepairQuiz coerces raw question objects into well-formed questions.
//
// Questions with no text are dropped and at most MaxQuizQuestions are kept.
// Each option list keeps its first four string entries with any existing
// label removed, is padded to four, and is relabeled "A. ".."D. ". An
// answer outside A-D becomes "A". Difficulty defaults to "easy".
func RepairQuiz(raw []extract.Payload) []domain.QuizQuestion {
	out := make([]domain.QuizQuestion, 0, min(len(raw), MaxQuizQuestions))
	for _, q := range raw {
		if len(out) == MaxQuizQuestions {
			break
		}
		text := q.String("question", "")
		if text == "" {
			continue
		}
		out = append(out, domain.QuizQuestion{
			Question:   text,
			Options:    repairOptions(q.List("options")),
			Answer:     repairAnswer(q.Text("answer", "")),
			Difficulty: repairDifficulty(q.String("difficulty", "")),
		})
	}
	return out
}

func repairOptions(raw []any) []string {
	texts := make([]string, 0, OptionsPerQuestion)
	for _, o := range raw {
		if len(texts) == OptionsPerQuestion {
			break
		}
		s, ok := o.(string)
		if !ok {
			continue
		}
		if s = stripLabel(s); s != "" {
			texts = append(texts, s)
		}
	}
	for len(texts) < OptionsPerQuestion {
		texts = append(texts, PaddingOption)
	}

	opts := make([]string, OptionsPerQuestion)
	for i, t := range texts {
		opts[i] = optionLabels[i] + ". " + t
	}
	return opts
}

// stripLabel removes a leading "A." / "b)" / "C:" style label.
func stripLabel(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		letter := s[0] | 0x20
		sep := s[1]
		if letter >= 'a' && letter <= 'd' && (sep == '.' || sep == ')' || sep == ':') &&
			(len(s) == 2 || s[2] == ' ' || s[2] == '\t') {
			s = strings.TrimSpace(s[2:])
		}
	}
	return s
}

func repairAnswer(a string) string {
	a = strings.ToUpper(strings.TrimSpace(a))
	for _, l := range optionLabels {
		if a == l {
			return a
		}
	}
	return optionLabels[0]
}

func repairDifficulty(d string) string {
	switch d = strings.ToLower(d); d {
	case "easy", "medium", "hard":
		return d
	}
	return "easy"
}

// ValidateQuiz accepts {"quiz": [...]}, a bare question list, or a single
// question object and returns the repaired questions. It rejects payloads
// with no usable question.
func ValidateQuiz(v any) ([]domain.QuizQuestion, error) {
	var raw []extract.Payload
	if m, ok := v.(map[string]any); ok {
		p := extract.NewPayload(m)
		if raw = quizPayloads(p, "quiz", "questions", "mini_quiz"); raw == nil && p.Has("question") {
			raw = []extract.Payload{p}
		}
	} else {
		raw = extract.ObjectsOf(v)
	}

	quiz := RepairQuiz(raw)
	if len(quiz) == 0 {
		return nil, &fgerrors.ValidationError{Field: "quiz", Message: "no usable questions"}
	}
	return quiz, nil
}
