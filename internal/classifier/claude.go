package classifier

import (
	"context"
	"errors"
	"strings"
	"time"

	"sentiment-lens/internal/api"
)

const (
	DefaultClaudeURL   = "https://api.anthropic.com/v1"
	DefaultClaudeModel = "claude-3-5-haiku-latest"
	anthropicVersion   = "2023-06-01"
)

// claudeModel asks an Anthropic messages model for class probabilities.
type claudeModel struct {
	client *api.Client
	model  string
	labels LabelMap
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeRequest struct {
	Model       string          `json:"model"`
	System      string          `json:"system"`
	Messages    []claudeMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature"`
}

type claudeResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (m *claudeModel) scores(ctx context.Context, text string) ([]float64, scoreKind, error) {
	resp, err := m.client.POST(ctx, "/messages", claudeRequest{
		Model:     m.model,
		System:    chatSystemPrompt,
		Messages:  []claudeMessage{{Role: "user", Content: truncate(text, 4000)}},
		MaxTokens: 64,
	})
	if err != nil {
		return nil, kindProbabilities, err
	}
	var out claudeResponse
	if err := resp.ParseJSON(&out); err != nil {
		return nil, kindProbabilities, err
	}

	var sb strings.Builder
	for _, c := range out.Content {
		if c.Type == "text" {
			sb.WriteString(c.Text)
		}
	}
	if sb.Len() == 0 {
		return nil, kindProbabilities, errors.New("empty message content")
	}
	probs, err := orderedProbabilities(m.labels, sb.String())
	return probs, kindProbabilities, err
}

// NewClaude builds a classifier backed by the Anthropic messages API.
// baseURL is optional; set it for proxies and gateways.
func NewClaude(apiKey, model, baseURL string, timeout time.Duration) (*Classifier, error) {
	if apiKey == "" {
		return nil, errors.New("CLAUDE_API_KEY missing")
	}
	if model == "" {
		model = DefaultClaudeModel
	}
	if baseURL == "" {
		baseURL = DefaultClaudeURL
	}
	client := api.NewClient(
		api.WithBaseURL(strings.TrimSuffix(baseURL, "/")),
		api.WithTimeout(timeout),
		api.WithHeader("x-api-key", apiKey),
		api.WithHeader("anthropic-version", anthropicVersion),
		api.WithLogging(true),
	)
	m := &claudeModel{client: client, model: model, labels: FinBERTLabels}
	return newClassifier("claude:"+model, m.labels, m)
}
