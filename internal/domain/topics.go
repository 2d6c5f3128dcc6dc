package domain

import (
	"slices"
	"time"
)

// DefaultMaxTopics is the topic cap applied after priority ordering.
const DefaultMaxTopics = 10

type levelRule struct {
	difficulty string
	baseHours  int
	priority   map[string]int
}

var levelRules = map[ExperienceLevel]levelRule{
	LevelBeginner: {
		difficulty: "easy",
		baseHours:  2,
		priority:   map[string]int{"easy": 1, "medium": 2, "hard": 3},
	},
	LevelIntermediate: {
		difficulty: "medium",
		baseHours:  3,
		priority:   map[string]int{"medium": 1, "hard": 2, "easy": 3},
	},
	LevelAdvanced: {
		difficulty: "hard",
		baseHours:  4,
		priority:   map[string]int{"hard": 1, "medium": 2, "easy": 3},
	},
}

func ruleFor(level ExperienceLevel) levelRule {
	if r, ok := levelRules[level.Normalized()]; ok {
		return r
	}
	return levelRules[LevelBeginner]
}

// NormalizeTopics stamps difficulty, estimated hours and generation time on
// a copy of topics. Difficulty follows the learner level; hours grow by one
// for every fifth position in the path. Unknown levels use beginner rules.
func NormalizeTopics(topics []Topic, level ExperienceLevel, now time.Time) []Topic {
	rule := ruleFor(level)
	out := make([]Topic, len(topics))
	for i, t := range topics {
		if t.Order < 1 {
			t.Order = i + 1
		}
		t.Difficulty = rule.difficulty
		t.EstimatedTimeHours = rule.baseHours + t.Order/5
		t.Completed = false
		t.LastGeneratedAt = now
		out[i] = t
	}
	return out
}

// LimitTopics orders a copy of topics by the level's difficulty priority,
// then by their current order, keeps at most limit of them and renumbers the
// survivors 1..n. A non-positive limit uses DefaultMaxTopics.
func LimitTopics(topics []Topic, level ExperienceLevel, limit int) []Topic {
	if limit <= 0 {
		limit = DefaultMaxTopics
	}
	prio := ruleFor(level).priority
	rank := func(t Topic) int {
		if p, ok := prio[t.Difficulty]; ok {
			return p
		}
		return 3
	}

	out := slices.Clone(topics)
	slices.SortStableFunc(out, func(a, b Topic) int {
		if ra, rb := rank(a), rank(b); ra != rb {
			return ra - rb
		}
		return a.Order - b.Order
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return RenumberTopics(out)
}

// RenumberTopics sets Order to the dense 1-based position of each topic.
func RenumberTopics(topics []Topic) []Topic {
	for i := range topics {
		topics[i].Order = i + 1
	}
	return topics
}

// RenumberSubmodules sets Order to the dense 1-based position of each
// submodule.
func RenumberSubmodules(subs []Submodule) []Submodule {
	for i := range subs {
		subs[i].Order = i + 1
	}
	return subs
}
