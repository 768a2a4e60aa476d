package external

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gokatarajesh/question-bank/internal/question"
)

// OpenTDBClient fetches questions from the Open Trivia DB (no API key).
type OpenTDBClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewOpenTDBClient(baseURL string, httpClient *http.Client) *OpenTDBClient {
	if baseURL == "" {
		baseURL = "https://opentdb.com"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 5 * time.Second}
	}
	return &OpenTDBClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

// OpenTDBQuestion is one result as returned by api.php. Text fields are HTML-escaped.
type OpenTDBQuestion struct {
	Category        string   `json:"category"`
	Type            string   `json:"type"`
	Difficulty      string   `json:"difficulty"`
	Question        string   `json:"question"`
	CorrectAnswer   string   `json:"correct_answer"`
	IncorrectAnswer []string `json:"incorrect_answers"`
}

type openTDBResponse struct {
	ResponseCode int               `json:"response_code"`
	Results      []OpenTDBQuestion `json:"results"`
}

func (c *OpenTDBClient) Name() string { return "opentdb" }

// Fetch requests req.Amount questions. OpenTDB categories are numeric, so
// req.Category is passed through only when it is one.
func (c *OpenTDBClient) Fetch(ctx context.Context, req Request) ([]question.Question, error) {
	values := url.Values{}
	values.Set("amount", fmt.Sprint(max(req.Amount, 1)))
	if req.Difficulty != "" {
		values.Set("difficulty", RemoteDifficulty(req.Difficulty))
	}
	if isNumeric(req.Category) {
		values.Set("category", req.Category)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api.php?"+values.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("opentdb non-200: %d", resp.StatusCode)
	}

	var payload openTDBResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode opentdb payload: %w", err)
	}
	if payload.ResponseCode != 0 {
		return nil, fmt.Errorf("opentdb response code %d", payload.ResponseCode)
	}

	out := make([]question.Question, 0, len(payload.Results))
	for _, r := range payload.Results {
		out = append(out, r.ToQuestion())
	}
	return out, nil
}

// ToQuestion converts the result into an unsaved bank question.
func (r OpenTDBQuestion) ToQuestion() question.Question {
	difficulty := LocalDifficulty(r.Difficulty)
	q := question.Question{
		Text:       html.UnescapeString(r.Question),
		Category:   html.UnescapeString(r.Category),
		Difficulty: difficulty,
		Points:     PointsFor(difficulty),
		Tags:       []string{"opentdb", "imported"},
	}
	if r.Type == "boolean" {
		q.Type = question.TypeTrueFalse
		q.Options, q.TrueAnswer = trueFalse(r.CorrectAnswer)
		return q
	}

	incorrect := make([]string, 0, len(r.IncorrectAnswer))
	for _, a := range r.IncorrectAnswer {
		incorrect = append(incorrect, html.UnescapeString(a))
	}
	q.Type = question.TypeMultipleChoice
	q.Options = choiceOptions(html.UnescapeString(r.CorrectAnswer), incorrect)
	return q
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
