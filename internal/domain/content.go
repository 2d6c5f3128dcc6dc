package domain

import (
	"strings"
	"time"
)

// ContentVersion is the artifact schema version stamped on every artifact.
const ContentVersion = 2

// CellType identifies what a cell renders.
type CellType string

const (
	CellMarkdown  CellType = "markdown"
	CellCode      CellType = "code"
	CellResource  CellType = "resource"
	CellImage     CellType = "image"
	CellDiagram   CellType = "diagram"
	CellSeparator CellType = "separator"
)

// Valid reports whether t is a known cell type.
func (t CellType) Valid() bool {
	switch t {
	case CellMarkdown, CellCode, CellResource, CellImage, CellDiagram, CellSeparator:
		return true
	}
	return false
}

// Cell is one typed block of an artifact body. Content is a string for
// text cells and a list or object for resource and diagram cells.
type Cell struct {
	Type     CellType       `json:"type"`
	Content  any            `json:"content"`
	Title    string         `json:"title,omitempty"`
	Language string         `json:"language,omitempty"`
	Meta     map[string]any `json:"meta,omitempty"`
}

// Text returns Content when it is a string.
func (c Cell) Text() string {
	s, _ := c.Content.(string)
	return s
}

// CodeExample is one worked example in structured content.
type CodeExample struct {
	Title       string `json:"title"`
	Code        string `json:"code"`
	Explanation string `json:"explanation"`
	Language    string `json:"language,omitempty"`
}

// QuizQuestion is one multiple-choice question. Options carry their
// "A. " style labels and Answer is a bare letter.
type QuizQuestion struct {
	Question   string   `json:"question"`
	Options    []string `json:"options"`
	Answer     string   `json:"answer"`
	Difficulty string   `json:"difficulty,omitempty"`
}

// StructuredContent is the multi-field body of a structured artifact.
type StructuredContent struct {
	Explanation       string         `json:"explanation"`
	CodeExamples      []CodeExample  `json:"code_examples"`
	RealWorldExamples []string       `json:"real_world_examples"`
	StepByStep        []string       `json:"step_by_step"`
	MiniQuiz          []QuizQuestion `json:"mini_quiz"`
	ProjectSuggestion string         `json:"project_suggestion"`
}

// ContentArtifact is the generated content for one submodule.
type ContentArtifact struct {
	ID              string             `json:"id"`
	Title           string             `json:"title"`
	Summary         string             `json:"summary"`
	Cells           []Cell             `json:"cells"`
	MiniQuiz        []QuizQuestion     `json:"miniQuiz"`
	ContentVersion  int                `json:"contentVersion"`
	GeneratedAt     time.Time          `json:"generatedAt"`
	CreatedAt       time.Time          `json:"createdAt"`
	UpdatedAt       time.Time          `json:"updatedAt"`
	LastGeneratedAt time.Time          `json:"lastGeneratedAt"`
	Structured      *StructuredContent `json:"structured,omitempty"`

	// Degraded marks an artifact built by fallback rather than generation.
	Degraded bool `json:"degraded,omitempty"`
}

// SubmoduleRef identifies a submodule in a topic-content request.
type SubmoduleRef struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Summary string `json:"summary,omitempty"`
}

// TopicContentRequest asks for content for every listed submodule.
type TopicContentRequest struct {
	TopicID         string          `json:"topic_id"`
	TopicName       string          `json:"topic_name"`
	CourseName      string          `json:"course_name"`
	ExperienceLevel ExperienceLevel `json:"experience_level"`
	Submodules      []SubmoduleRef  `json:"submodules"`
}

// Validate checks required fields.
func (r TopicContentRequest) Validate() error {
	switch {
	case strings.TrimSpace(r.TopicID) == "":
		return required("topic_id")
	case strings.TrimSpace(r.TopicName) == "":
		return required("topic_name")
	case strings.TrimSpace(r.CourseName) == "":
		return required("course_name")
	case !r.ExperienceLevel.Valid():
		return invalidLevel(r.ExperienceLevel)
	}
	for _, sm := range r.Submodules {
		if strings.TrimSpace(sm.Title) == "" {
			return required("submodules[].title")
		}
	}
	return nil
}

// ContentSummary reports what a topic-content run produced.
type ContentSummary struct {
	Submodules int `json:"submodules"`
	Degraded   int `json:"degraded"`
	Resources  int `json:"resources"`
}

// TopicContentResponse is the output of the topic-content pipeline.
type TopicContentResponse struct {
	TopicID   string            `json:"topic_id"`
	TopicName string            `json:"topic_name"`
	Content   []ContentArtifact `json:"content"`
	Summary   *ContentSummary   `json:"summary,omitempty"`
}

// QuizRequest asks for a mini quiz over a submodule's cells.
type QuizRequest struct {
	SubmoduleID    string `json:"submodule_id"`
	SubmoduleTitle string `json:"submodule_title"`
	Cells          []Cell `json:"cells"`
}

// Validate checks required fields.
func (r QuizRequest) Validate() error {
	if strings.TrimSpace(r.SubmoduleID) == "" {
		return required("submodule_id")
	}
	return nil
}

// QuizResponse is the output of the quiz pipeline.
type QuizResponse struct {
	SubmoduleID string         `json:"submodule_id"`
	Quiz        []QuizQuestion `json:"quiz"`
	GeneratedAt time.Time      `json:"generatedAt"`
}
