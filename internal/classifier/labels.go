package classifier

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"sentiment-lens/internal/types"
)

// LabelMap maps a model's output index to a sentiment label. Each backend
// emits scores in its own order; raw indices never leave this package.
type LabelMap []types.Sentiment

var (
	// FineTunedLabels is the output order of locally fine-tuned models.
	FineTunedLabels = LabelMap{types.SentimentNeutral, types.SentimentPositive, types.SentimentNegative}
	// FinBERTLabels is the output order of the pretrained ProsusAI/finbert model.
	FinBERTLabels = LabelMap{types.SentimentPositive, types.SentimentNegative, types.SentimentNeutral}
)

var ErrBadScores = errors.New("invalid model scores")

// ParseLabelMap builds a LabelMap from label names such as
// ["positive", "negative", "neutral"].
func ParseLabelMap(names []string) (LabelMap, error) {
	m := make(LabelMap, len(names))
	for i, n := range names {
		m[i] = types.Sentiment(strings.ToLower(strings.TrimSpace(n)))
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks that m is a permutation of the three sentiment labels.
func (m LabelMap) Validate() error {
	if len(m) != len(types.AllSentiments) {
		return fmt.Errorf("label map must have %d labels, got %d", len(types.AllSentiments), len(m))
	}
	seen := make(map[types.Sentiment]bool, len(m))
	for _, l := range m {
		if !l.Valid() {
			return fmt.Errorf("unknown label %q", l)
		}
		if seen[l] {
			return fmt.Errorf("duplicate label %q", l)
		}
		seen[l] = true
	}
	return nil
}

func (m LabelMap) String() string {
	names := make([]string, len(m))
	for i, l := range m {
		names[i] = string(l)
	}
	return strings.Join(names, ",")
}

// Index returns the output position of label.
func (m LabelMap) Index(label types.Sentiment) int {
	for i, l := range m {
		if l == label {
			return i
		}
	}
	return -1
}

// Decode converts raw logits to a prediction via softmax and argmax.
func (m LabelMap) Decode(logits []float64) (types.Prediction, error) {
	if err := m.checkScores(logits); err != nil {
		return types.Prediction{}, err
	}
	return m.argmax(Softmax(logits)), nil
}

// DecodeProbabilities converts class probabilities to a prediction. The
// vector is renormalized so small rounding drift never escapes [0, 1].
func (m LabelMap) DecodeProbabilities(probs []float64) (types.Prediction, error) {
	if err := m.checkScores(probs); err != nil {
		return types.Prediction{}, err
	}
	var sum float64
	for _, p := range probs {
		if p < 0 {
			return types.Prediction{}, fmt.Errorf("%w: negative probability %v", ErrBadScores, p)
		}
		sum += p
	}
	if sum == 0 {
		return types.Prediction{}, fmt.Errorf("%w: probabilities sum to zero", ErrBadScores)
	}
	norm := make([]float64, len(probs))
	for i, p := range probs {
		norm[i] = p / sum
	}
	return m.argmax(norm), nil
}

func (m LabelMap) checkScores(scores []float64) error {
	if len(scores) != len(m) {
		return fmt.Errorf("%w: expected %d scores, got %d", ErrBadScores, len(m), len(scores))
	}
	for _, s := range scores {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return fmt.Errorf("%w: non-finite score %v", ErrBadScores, s)
		}
	}
	return nil
}

func (m LabelMap) argmax(probs []float64) types.Prediction {
	best := 0
	for i := 1; i < len(probs); i++ {
		if probs[i] > probs[best] {
			best = i
		}
	}
	conf := math.Min(math.Max(probs[best], 0), 1)
	return types.Prediction{Sentiment: m[best], Confidence: conf}
}

// Softmax returns the numerically stable softmax of x.
func Softmax(x []float64) []float64 {
	if len(x) == 0 {
		return nil
	}
	maxV := x[0]
	for _, v := range x[1:] {
		if v > maxV {
			maxV = v
		}
	}
	out := make([]float64, len(x))
	var sum float64
	for i, v := range x {
		out[i] = math.Exp(v - maxV)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
