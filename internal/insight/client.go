package insight

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"attendboard/internal/attendance"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-2.5-flash"
)

var (
	// ErrNotConfigured means no API key was provided; the feature is
	// unavailable rather than broken.
	ErrNotConfigured = errors.New("insight: no API key configured")
	// ErrAnalysisInFlight rejects a second analysis while one is outstanding.
	ErrAnalysisInFlight = errors.New("insight: analysis already in progress")
)

// AtRiskMember is one follow-up suggestion from the model.
type AtRiskMember struct {
	Name       string `json:"name"`
	Suggestion string `json:"suggestion"`
}

// Client calls the Gemini generateContent API to flag people with lapsing
// attendance. At most one analysis runs at a time; callers hitting the
// busy slot get ErrAnalysisInFlight instead of a queued request.
type Client struct {
	BaseURL string
	APIKey  string
	Model   string
	HTTP    *http.Client

	busy atomic.Bool
}

// New creates a client. An empty apiKey leaves the client unconfigured.
func New(baseURL, apiKey, model string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if model == "" {
		model = defaultModel
	}
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		HTTP: &http.Client{
			Timeout: 30 * time.Second, // model calls can take a while
		},
	}
}

// Configured reports whether the collaborator can be called at all.
func (c *Client) Configured() bool { return c.APIKey != "" }

// The model is constrained to this shape; anything that still comes back
// outside it is treated as a malformed response, never partially parsed.
const responseSchema = `{
  "type": "OBJECT",
  "properties": {
    "atRiskMembers": {
      "type": "ARRAY",
      "description": "People who have been absent from recent primary events.",
      "items": {
        "type": "OBJECT",
        "properties": {
          "name": {"type": "STRING"},
          "suggestion": {"type": "STRING"}
        },
        "required": ["name", "suggestion"]
      }
    }
  },
  "required": ["atRiskMembers"]
}`

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMIMEType string          `json:"responseMimeType"`
	ResponseSchema   json.RawMessage `json:"responseSchema"`
	Temperature      float64         `json:"temperature"`
}

// Analyze sends a per-person summary of event outcomes and returns the
// model's at-risk list. An empty list is a legitimate "nobody at risk"
// answer and is distinct from every error.
func (c *Client) Analyze(ctx context.Context, people []attendance.Person, records []attendance.Record, primaryEventName string) ([]AtRiskMember, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}
	if !c.busy.CompareAndSwap(false, true) {
		return nil, ErrAnalysisInFlight
	}
	defer c.busy.Store(false)

	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: buildPrompt(people, records, primaryEventName)}}}},
		GenerationConfig: generationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   json.RawMessage(responseSchema),
			Temperature:      0.2,
		},
	})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.BaseURL, c.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.APIKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("insight request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("insight service error %s: %s", resp.Status, string(bodyBytes))
	}

	var out struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("insight: decode response failed: %w", err)
	}
	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return nil, errors.New("insight: empty model response")
	}
	return parseResult(out.Candidates[0].Content.Parts[0].Text)
}

func parseResult(text string) ([]AtRiskMember, error) {
	var parsed struct {
		AtRiskMembers []AtRiskMember `json:"atRiskMembers"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &parsed); err != nil {
		return nil, fmt.Errorf("insight: malformed model output: %w", err)
	}
	if parsed.AtRiskMembers == nil {
		return nil, errors.New("insight: malformed model output: atRiskMembers missing")
	}
	for _, m := range parsed.AtRiskMembers {
		if m.Name == "" || m.Suggestion == "" {
			return nil, errors.New("insight: malformed model output: name and suggestion required")
		}
	}
	return parsed.AtRiskMembers, nil
}

func buildPrompt(people []attendance.Person, records []attendance.Record, primaryEventName string) string {
	var summary strings.Builder
	for _, p := range people {
		var outcomes []string
		for _, r := range records {
			if r.PersonID == p.ID {
				outcomes = append(outcomes, fmt.Sprintf("Checked into '%s' as %s", r.EventName, r.Status))
			}
		}
		line := "No check-ins"
		if len(outcomes) > 0 {
			line = strings.Join(outcomes, ", ")
		}
		fmt.Fprintf(&summary, "%s: %s\n", p.Name, line)
	}

	if primaryEventName == "" {
		primaryEventName = "the primary event"
	}
	return fmt.Sprintf(`You are an intelligent assistant for an attendance coordinator.
Analyze the following attendance data and identify people who might be lapsing in attendance.
A person is considered 'at-risk' if they have been marked 'Absent' for '%s' (the primary event) more than once recently.

Here is the attendance data:
%s
Based on this data, provide a list of at-risk members and a brief, friendly suggestion for what to do next.
If there are no at-risk members, return an empty list.
Provide your response in the requested JSON format.`, primaryEventName, summary.String())
}
