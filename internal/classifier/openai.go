package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

const chatSystemPrompt = `You are a financial news sentiment classifier.
Classify the sentiment of the article towards the company's stock.
Respond ONLY with compact JSON of class probabilities summing to 1, e.g.
{"positive":0.1,"negative":0.8,"neutral":0.1}`

// openAIModel asks a chat model for class probabilities.
type openAIModel struct {
	client openai.Client
	model  string
	labels LabelMap
}

func (m *openAIModel) scores(ctx context.Context, text string) ([]float64, scoreKind, error) {
	resp, err := m.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(m.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(chatSystemPrompt),
			openai.UserMessage(truncate(text, 4000)),
		},
		Temperature: openai.Float(0),
	})
	if err != nil {
		return nil, kindProbabilities, err
	}
	if len(resp.Choices) == 0 {
		return nil, kindProbabilities, errors.New("empty completion")
	}

	out, err := orderedProbabilities(m.labels, resp.Choices[0].Message.Content)
	return out, kindProbabilities, err
}

// orderedProbabilities parses a JSON probability object from a chat reply
// into labels order.
func orderedProbabilities(labels LabelMap, content string) ([]float64, error) {
	probs, err := parseProbabilities(content)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(labels))
	for i, l := range labels {
		out[i] = probs[string(l)]
	}
	return out, nil
}

func parseProbabilities(content string) (map[string]float64, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var raw map[string]float64
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse completion %q: %w", content, err)
	}
	probs := make(map[string]float64, len(raw))
	for k, v := range raw {
		probs[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return probs, nil
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// NewOpenAI builds a classifier backed by an OpenAI-compatible chat API.
// baseURL is optional.
func NewOpenAI(apiKey, model, baseURL string, timeout time.Duration) (*Classifier, error) {
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY missing")
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithRequestTimeout(timeout),
		option.WithMaxRetries(1),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	m := &openAIModel{
		client: openai.NewClient(opts...),
		model:  model,
		labels: FinBERTLabels,
	}
	return newClassifier("openai:"+model, m.labels, m)
}
