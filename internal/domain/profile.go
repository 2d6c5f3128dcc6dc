package domain

import (
	"fmt"
	"strings"

	fgerrors "github.com/randalmurphal/cognigen/pkg/flowgraph/errors"
)

// ExperienceLevel is the learner's self-reported level.
type ExperienceLevel string

const (
	LevelBeginner     ExperienceLevel = "beginner"
	LevelIntermediate ExperienceLevel = "intermediate"
	LevelAdvanced     ExperienceLevel = "advanced"
)

// Valid reports whether l is a known level.
func (l ExperienceLevel) Valid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

// Normalized lowercases and trims l.
func (l ExperienceLevel) Normalized() ExperienceLevel {
	return ExperienceLevel(strings.ToLower(strings.TrimSpace(string(l))))
}

// LearningStyle is the learner's preferred mix of theory and practice.
type LearningStyle string

const (
	StyleTheory    LearningStyle = "theory"
	StylePractical LearningStyle = "practical"
	StyleMixed     LearningStyle = "mixed"
)

// Valid reports whether s is a known style.
func (s LearningStyle) Valid() bool {
	switch s {
	case StyleTheory, StylePractical, StyleMixed:
		return true
	}
	return false
}

// TimeAvailability is how much time the learner can spend.
type TimeAvailability struct {
	PerDayHours int `json:"per_day_hours"`
}

// StudentProfile is the learning-path request body. It is echoed back on
// the generated path.
type StudentProfile struct {
	UserID                 string           `json:"user_id"`
	CourseName             string           `json:"course_name"`
	ExperienceLevel        ExperienceLevel  `json:"experience_level"`
	CustomTopics           []string         `json:"custom_topics"`
	Goal                   string           `json:"goal"`
	PreferredLearningStyle LearningStyle    `json:"preferred_learning_style"`
	TimeAvailability       TimeAvailability `json:"time_availability"`
}

// Validate checks required fields and enumerations.
func (p StudentProfile) Validate() error {
	switch {
	case strings.TrimSpace(p.UserID) == "":
		return required("user_id")
	case strings.TrimSpace(p.CourseName) == "":
		return required("course_name")
	case strings.TrimSpace(p.Goal) == "":
		return required("goal")
	case !p.ExperienceLevel.Valid():
		return invalidLevel(p.ExperienceLevel)
	case !p.PreferredLearningStyle.Valid():
		return &fgerrors.ValidationError{
			Field:   "preferred_learning_style",
			Message: fmt.Sprintf("must be one of theory, practical, mixed; got %q", p.PreferredLearningStyle),
		}
	case p.TimeAvailability.PerDayHours < 1 || p.TimeAvailability.PerDayHours > 24:
		return &fgerrors.ValidationError{
			Field:   "time_availability.per_day_hours",
			Message: fmt.Sprintf("must be between 1 and 24; got %d", p.TimeAvailability.PerDayHours),
		}
	}
	return nil
}

// Topics returns the non-blank custom topic names, trimmed, in input order.
func (p StudentProfile) Topics() []string {
	out := make([]string, 0, len(p.CustomTopics))
	for _, t := range p.CustomTopics {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func required(field string) error {
	return &fgerrors.ValidationError{Field: field, Message: "is required"}
}

func invalidLevel(l ExperienceLevel) error {
	return &fgerrors.ValidationError{
		Field:   "experience_level",
		Message: fmt.Sprintf("must be one of beginner, intermediate, advanced; got %q", l),
	}
}
