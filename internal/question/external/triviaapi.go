package external

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gokatarajesh/question-bank/internal/question"
)

// TriviaAPIClient integrates with the-trivia-api style endpoints. The key is optional.
type TriviaAPIClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewTriviaAPIClient(baseURL, apiKey string, httpClient *http.Client) *TriviaAPIClient {
	if baseURL == "" {
		baseURL = "https://the-trivia-api.com/v2"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &TriviaAPIClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// TriviaAPIQuestion mirrors one element of the /questions response.
type TriviaAPIQuestion struct {
	ID         string     `json:"id"`
	Category   string     `json:"category"`
	Question   triviaText `json:"question"`
	Difficulty string     `json:"difficulty"`
	Type       string     `json:"type"`
	Tags       []string   `json:"tags"`
	Correct    string     `json:"correctAnswer"`
	Incorrect  []string   `json:"incorrectAnswers"`
}

// triviaText accepts both the v1 plain string and the v2 {"text": ...} shape.
type triviaText string

func (t *triviaText) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = triviaText(s)
		return nil
	}
	var obj struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*t = triviaText(obj.Text)
	return nil
}

func (c *TriviaAPIClient) Name() string { return "triviaapi" }

func (c *TriviaAPIClient) Fetch(ctx context.Context, req Request) ([]question.Question, error) {
	values := url.Values{}
	values.Set("limit", fmt.Sprint(max(req.Amount, 1)))
	if req.Difficulty != "" {
		values.Set("difficulties", RemoteDifficulty(req.Difficulty))
	}
	if req.Category != "" {
		values.Set("categories", req.Category)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/questions?"+values.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		httpReq.Header.Set("X-API-Key", c.apiKey)
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("triviaapi non-200: %d", resp.StatusCode)
	}

	var payload []TriviaAPIQuestion
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode triviaapi payload: %w", err)
	}

	out := make([]question.Question, 0, len(payload))
	for _, p := range payload {
		out = append(out, p.ToQuestion())
	}
	return out, nil
}

// ToQuestion converts the payload into an unsaved bank question. Upstream
// tags are kept alongside the source marker.
func (p TriviaAPIQuestion) ToQuestion() question.Question {
	difficulty := LocalDifficulty(p.Difficulty)
	tags := append([]string{"triviaapi", "imported"}, p.Tags...)
	return question.Question{
		Text:       string(p.Question),
		Type:       question.TypeMultipleChoice,
		Options:    choiceOptions(p.Correct, p.Incorrect),
		Category:   strings.ReplaceAll(p.Category, "_", " "),
		Difficulty: difficulty,
		Points:     PointsFor(difficulty),
		Tags:       tags,
	}
}
