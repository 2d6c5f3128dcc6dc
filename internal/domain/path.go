package domain

import (
	"math"
	"time"
)

// PathStatus is the lifecycle state of a learning path.
type PathStatus string

const (
	StatusDraft    PathStatus = "draft"
	StatusActive   PathStatus = "active"
	StatusArchived PathStatus = "archived"
)

// Submodule is one unit of study inside a topic.
type Submodule struct {
	ID        string           `json:"id"`
	Title     string           `json:"title"`
	Summary   string           `json:"summary"`
	Order     int              `json:"order"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
	Completed bool             `json:"completed"`
	Content   *ContentArtifact `json:"content,omitempty"`
}

// Topic is an ordered group of submodules.
type Topic struct {
	ID                 string      `json:"id"`
	Name               string      `json:"name"`
	Order              int         `json:"order"`
	Difficulty         string      `json:"difficulty"`
	EstimatedTimeHours int         `json:"estimated_time_hours"`
	Completed          bool        `json:"completed"`
	LastGeneratedAt    time.Time   `json:"lastGeneratedAt"`
	Submodules         []Submodule `json:"submodules"`
}

// Progress counts completion over a path's topic tree.
type Progress struct {
	TopicsCompleted     int     `json:"topics_completed"`
	TotalTopics         int     `json:"total_topics"`
	SubmodulesCompleted int     `json:"submodules_completed"`
	TotalSubmodules     int     `json:"total_submodules"`
	Percentage          float64 `json:"percentage"`
}

// LearningPath is the output of the learning-path pipeline.
type LearningPath struct {
	ID             string         `json:"id"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	CourseName     string         `json:"course_name"`
	Goal           string         `json:"goal"`
	StudentProfile StudentProfile `json:"student_profile"`
	Topics         []Topic        `json:"topics"`
	Progress       Progress       `json:"progress"`
	Status         PathStatus     `json:"status"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// ComputeProgress counts the topics and submodules actually present.
// Percentage is submodule completion rounded to two decimals.
func ComputeProgress(topics []Topic) Progress {
	var p Progress
	p.TotalTopics = len(topics)
	for _, t := range topics {
		if t.Completed {
			p.TopicsCompleted++
		}
		p.TotalSubmodules += len(t.Submodules)
		for _, sm := range t.Submodules {
			if sm.Completed {
				p.SubmodulesCompleted++
			}
		}
	}
	if p.TotalSubmodules > 0 {
		pct := float64(p.SubmodulesCompleted) / float64(p.TotalSubmodules) * 100
		p.Percentage = math.Round(pct*100) / 100
	}
	return p
}
