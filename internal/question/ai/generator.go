package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/question-bank/internal/question"
	"github.com/gokatarajesh/question-bank/internal/question/external"
)

// Config holds connection details for the AI generator service.
type Config struct {
	GeneratorURL string
	GeneratorKey string
	Timeout      time.Duration
}

// Generator asks an external generation service for question drafts. Every
// question it returns is tagged "ai" so the dashboard can count them.
type Generator struct {
	httpClient  *http.Client
	config      Config
	logger      zerolog.Logger
	generateURL string
}

func NewGenerator(cfg Config, logger zerolog.Logger) *Generator {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	base := strings.TrimSuffix(cfg.GeneratorURL, "/")

	return &Generator{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		config:      cfg,
		logger:      logger.With().Str("component", "ai_generator").Logger(),
		generateURL: base + "/generate",
	}
}

func (g *Generator) Name() string { return "ai" }

// Fetch synchronously requests a batch of generated questions. Items that
// fail validation after normalization are dropped and logged.
func (g *Generator) Fetch(ctx context.Context, req external.Request) ([]question.Question, error) {
	if g.config.GeneratorURL == "" {
		return nil, fmt.Errorf("generator endpoint not configured")
	}

	payload := generatorRequest{
		Category:   req.Category,
		Difficulty: req.Difficulty,
		Count:      max(req.Amount, 1),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.generateURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if g.config.GeneratorKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.config.GeneratorKey)
	}

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("generator returned status %d", resp.StatusCode)
	}

	var genResp generatorResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return nil, fmt.Errorf("decode generator payload: %w", err)
	}

	questions := make([]question.Question, 0, len(genResp.Questions))
	for i, raw := range genResp.Questions {
		q := normalizeAIQuestion(raw, req)
		if err := q.Validate(); err != nil {
			g.logger.Warn().Err(err).Int("index", i).Msg("dropping generated question")
			continue
		}
		questions = append(questions, q)
	}

	if len(questions) == 0 {
		return nil, fmt.Errorf("generator returned empty question set")
	}
	return questions, nil
}

func normalizeAIQuestion(raw aiQuestion, req external.Request) question.Question {
	options := raw.Options
	if raw.Answer != "" && len(options) > 0 {
		found := false
		for _, opt := range options {
			if strings.EqualFold(opt, raw.Answer) {
				found = true
				break
			}
		}
		if !found {
			options = append(options, raw.Answer)
		}
	}

	category := raw.Category
	if category == "" {
		category = req.Category
	}
	difficulty := raw.Difficulty
	if difficulty == "" {
		difficulty = req.Difficulty
	}

	difficulty = external.LocalDifficulty(difficulty)
	q := question.Question{
		Text:        strings.TrimSpace(raw.Prompt),
		Explanation: raw.Explanation,
		Category:    category,
		Difficulty:  difficulty,
		Points:      external.PointsFor(difficulty),
		Tags:        []string{"ai"},
	}

	// Without options the generator produced a free-text question.
	if len(options) == 0 {
		q.Type = question.TypeOpenEnded
		q.Options = []question.Option{}
		q.ModelAnswer = raw.Answer
		return q
	}

	q.Type = question.TypeMultipleChoice
	q.Options = make([]question.Option, 0, len(options))
	for i, opt := range options {
		q.Options = append(q.Options, question.Option{
			ID:        string(rune('a' + i)),
			Text:      opt,
			IsCorrect: strings.EqualFold(opt, raw.Answer),
		})
	}
	return q
}

type generatorRequest struct {
	Category   string `json:"category"`
	Difficulty string `json:"difficulty"`
	Count      int    `json:"count"`
}

type aiQuestion struct {
	Prompt      string   `json:"prompt"`
	Options     []string `json:"options"`
	Answer      string   `json:"answer"`
	Explanation string   `json:"explanation"`
	Category    string   `json:"category"`
	Difficulty  string   `json:"difficulty"`
}

type generatorResponse struct {
	Questions []aiQuestion `json:"questions"`
}
