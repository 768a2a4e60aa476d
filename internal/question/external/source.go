package external

import (
	"context"
	"slices"
	"strings"

	"github.com/gokatarajesh/question-bank/internal/question"
)

// Request narrows what a source should return. Empty fields mean "any".
type Request struct {
	Amount     int
	Category   string
	Difficulty string
}

// Source produces candidate questions for seeding the bank. Returned
// questions carry no id or createdAt; the question service assigns both.
type Source interface {
	Name() string
	Fetch(ctx context.Context, req Request) ([]question.Question, error)
}

var difficultyNames = map[string]string{
	"easy":   "mudah",
	"medium": "sedang",
	"hard":   "sulit",
}

var difficultyPoints = map[string]int{
	"mudah":  10,
	"sedang": 20,
	"sulit":  30,
}

// LocalDifficulty maps the english difficulty names used by trivia APIs onto
// the bank's taxonomy ids. Unknown values pass through lowercased.
func LocalDifficulty(d string) string {
	d = strings.ToLower(strings.TrimSpace(d))
	if local, ok := difficultyNames[d]; ok {
		return local
	}
	return d
}

// RemoteDifficulty is the inverse of LocalDifficulty.
func RemoteDifficulty(d string) string {
	d = strings.ToLower(strings.TrimSpace(d))
	for remote, local := range difficultyNames {
		if local == d {
			return remote
		}
	}
	return d
}

// PointsFor scores a question by its local difficulty id. Unknown difficulties score 10.
func PointsFor(difficulty string) int {
	if p, ok := difficultyPoints[difficulty]; ok {
		return p
	}
	return 10
}

// choiceOptions builds a multiple-choice option list sorted by text so the
// correct answer's position does not leak from the upstream payload.
func choiceOptions(correct string, incorrect []string) []question.Option {
	texts := make([]string, 0, len(incorrect)+1)
	texts = append(texts, correct)
	texts = append(texts, incorrect...)
	slices.SortStableFunc(texts, func(a, b string) int {
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	})

	opts := make([]question.Option, 0, len(texts))
	for i, text := range texts {
		opts = append(opts, question.Option{
			ID:        string(rune('a' + i)),
			Text:      text,
			IsCorrect: text == correct,
		})
	}
	return opts
}

func trueFalse(answer string) ([]question.Option, *bool) {
	isTrue := strings.EqualFold(strings.TrimSpace(answer), "true")
	return []question.Option{
		{ID: "true", Text: "True", IsCorrect: isTrue},
		{ID: "false", Text: "False", IsCorrect: !isTrue},
	}, &isTrue
}
