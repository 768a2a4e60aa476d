package question

import (
	"strings"
	"time"
)

// Type enumerates the supported question kinds.
type Type string

const (
	TypeMultipleChoice Type = "multipleChoice"
	TypeTrueFalse      Type = "trueFalse"
	TypeOpenEnded      Type = "openEnded"
)

// Valid reports whether t is one of the known kinds.
func (t Type) Valid() bool {
	switch t {
	case TypeMultipleChoice, TypeTrueFalse, TypeOpenEnded:
		return true
	default:
		return false
	}
}

// Option is one answer choice of a question.
type Option struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// Question is the stored record. ID and CreatedAt are owned by the store.
type Question struct {
	ID          string    `json:"id"`
	Text        string    `json:"text"`
	Type        Type      `json:"type"`
	Options     []Option  `json:"options"`
	Explanation string    `json:"explanation"`
	Category    string    `json:"category"`
	Subcategory string    `json:"subcategory"`
	Difficulty  string    `json:"difficulty"`
	Points      int       `json:"points"`
	Tags        []string  `json:"tags"`
	TrueAnswer  *bool     `json:"trueAnswer,omitempty"`
	ModelAnswer string    `json:"modelAnswer,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Validate enforces the record invariants that do not depend on the collection.
func (q Question) Validate() error {
	if !q.Type.Valid() {
		return &ValidationError{Field: "type", Message: "type must be one of multipleChoice, trueFalse, openEnded"}
	}
	if strings.TrimSpace(q.Text) == "" {
		return &ValidationError{Field: "text", Message: "text is required"}
	}
	if q.Points < 0 {
		return &ValidationError{Field: "points", Message: "points must not be negative"}
	}

	seen := make(map[string]struct{}, len(q.Options))
	correct := 0
	for _, opt := range q.Options {
		if opt.ID != "" {
			if _, dup := seen[opt.ID]; dup {
				return &ValidationError{Field: "options", Message: "option ids must be unique"}
			}
			seen[opt.ID] = struct{}{}
		}
		if opt.IsCorrect {
			correct++
		}
	}

	if q.Type == TypeMultipleChoice {
		if len(q.Options) == 0 {
			return &ValidationError{Field: "options", Message: "multiple choice questions need options"}
		}
		if correct == 0 {
			return &ValidationError{Field: "options", Message: "at least one option must be correct"}
		}
	}
	return nil
}

// Normalize returns a copy with tags reduced to a set and nil slices made empty,
// so the JSON shape is stable across backends.
func (q Question) Normalize() Question {
	q.Tags = normalizeTags(q.Tags)
	if q.Options == nil {
		q.Options = []Option{}
	} else {
		opts := make([]Option, len(q.Options))
		copy(opts, q.Options)
		q.Options = opts
	}
	return q
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// HasTag reports whether the question carries tag.
func (q Question) HasTag(tag string) bool {
	for _, t := range q.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// clone deep-copies the slices so callers cannot mutate stored state.
func (q Question) clone() Question {
	if q.Options != nil {
		opts := make([]Option, len(q.Options))
		copy(opts, q.Options)
		q.Options = opts
	}
	if q.Tags != nil {
		tags := make([]string, len(q.Tags))
		copy(tags, q.Tags)
		q.Tags = tags
	}
	if q.TrueAnswer != nil {
		v := *q.TrueAnswer
		q.TrueAnswer = &v
	}
	return q
}
