package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	sdk "github.com/openai/openai-go"

	"github.com/matzehuels/dealprep/pkg/env"
	errs "github.com/matzehuels/dealprep/pkg/errors"
	"github.com/matzehuels/dealprep/pkg/integrations"
	"github.com/matzehuels/dealprep/pkg/proxy"
)

const (
	// Provider is the adapter's name in cache keys and the service registry.
	Provider = env.EndpointOpenAI

	// DefaultTTL is how long a generated insight stays fresh.
	DefaultTTL = 24 * time.Hour

	// DefaultModel is the chat model requested from the proxy.
	DefaultModel = sdk.ChatModelGPT4oMini
)

// Executive is a person in the company's leadership.
type Executive struct {
	Name  string `json:"name"`
	Title string `json:"title"`
}

// Insight is the AI-generated briefing for a company.
type Insight struct {
	Company       string      `json:"company"`
	Summary       string      `json:"summary"`
	Industry      string      `json:"industry,omitempty"`
	Executives    []Executive `json:"executives"`
	TalkingPoints []string    `json:"talking_points"`
}

// Client requests company insights from the proxy's chat completion endpoint.
// All methods are safe for concurrent use.
type Client struct {
	*integrations.Client
	model sdk.ChatModel
}

// NewClient creates an insight adapter. A zero cfg.TTL selects [DefaultTTL].
func NewClient(cfg integrations.Config) *Client {
	return &Client{
		Client: integrations.NewClient(Provider, true, DefaultTTL, cfg),
		model:  DefaultModel,
	}
}

// Fetch returns an [Insight] for company.
//
// The proxy is asked for a chat completion whose first choice must be a
// JSON object with a non-empty summary. Anything else yields
// [Fallback](company) tagged as fallback.
func (c *Client) Fetch(ctx context.Context, company string) (integrations.Result[Insight], error) {
	return integrations.Fetch(ctx, c.Client, company, func(ctx context.Context) (Insight, error) {
		return c.fetch(ctx, company)
	}, Fallback)
}

const systemPrompt = "You are a research assistant preparing a sales meeting. " +
	"Answer with a single JSON object and nothing else."

func userPrompt(company string) string {
	return fmt.Sprintf(`Describe the company %q. Respond with JSON of the form
{"summary": string, "industry": string, "executives": [{"name": string, "title": string}], "talking_points": [string]}.
List at most 5 executives and 5 talking points.`, company)
}

func (c *Client) fetch(ctx context.Context, company string) (Insight, error) {
	if err := errs.ValidateQuery(company); err != nil {
		return Insight{}, err
	}

	params := sdk.ChatCompletionNewParams{
		Model: c.model,
		Messages: []sdk.ChatCompletionMessageParamUnion{
			sdk.SystemMessage(systemPrompt),
			sdk.UserMessage(userPrompt(company)),
		},
		Temperature: sdk.Float(0.2),
	}
	resp, err := c.Request(ctx, http.MethodPost, env.EndpointOpenAI, proxy.Params{Body: params})
	if err != nil {
		return Insight{}, err
	}

	var completion sdk.ChatCompletion
	if err := resp.DecodeJSON(&completion); err != nil {
		return Insight{}, err
	}
	if len(completion.Choices) == 0 {
		return Insight{}, errs.New(errs.ErrCodeMalformedResponse, "completion has no choices")
	}
	return parseInsight(company, completion.Choices[0].Message.Content)
}

type insightPayload struct {
	Summary       string      `json:"summary"`
	Industry      string      `json:"industry"`
	Executives    []Executive `json:"executives"`
	TalkingPoints []string    `json:"talking_points"`
}

// parseInsight validates the model's answer. Models often wrap JSON in a
// markdown fence, which is stripped first.
func parseInsight(company, content string) (Insight, error) {
	content = stripFence(content)

	var p insightPayload
	if err := json.Unmarshal([]byte(content), &p); err != nil {
		return Insight{}, errs.Wrap(errs.ErrCodeMalformedResponse, err, "completion content is not a JSON object")
	}
	summary := strings.TrimSpace(p.Summary)
	if summary == "" {
		return Insight{}, errs.New(errs.ErrCodeMalformedResponse, "completion has no summary")
	}

	in := Insight{
		Company:       company,
		Summary:       summary,
		Industry:      strings.TrimSpace(p.Industry),
		Executives:    []Executive{},
		TalkingPoints: []string{},
	}
	for _, e := range p.Executives {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			return Insight{}, errs.New(errs.ErrCodeMalformedResponse, "executive without a name")
		}
		in.Executives = append(in.Executives, Executive{Name: name, Title: strings.TrimSpace(e.Title)})
	}
	for _, tp := range p.TalkingPoints {
		if tp = strings.TrimSpace(tp); tp != "" {
			in.TalkingPoints = append(in.TalkingPoints, tp)
		}
	}
	return in, nil
}

func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
