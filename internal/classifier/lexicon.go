package classifier

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"sentiment-lens/internal/filter"
	"sentiment-lens/internal/types"
)

// LexiconFile is the name of the fine-tuned lexicon inside a model directory.
const LexiconFile = "lexicon.yaml"

// Lexicon is the on-disk format of a fine-tuned lexicon.
type Lexicon struct {
	// Labels is the output order. Defaults to FineTunedLabels.
	Labels   []string `yaml:"labels"`
	Positive []string `yaml:"positive"`
	Negative []string `yaml:"negative"`
	// Weight scales each matched word's contribution to its class logit.
	Weight float64 `yaml:"weight"`
}

type lexiconModel struct {
	positive map[string]bool
	negative map[string]bool
	weight   float64
	labels   LabelMap
}

// neutralLogit is the baseline a text with no sentiment words falls back to.
const neutralLogit = 1.0

func (m *lexiconModel) scores(_ context.Context, text string) ([]float64, scoreKind, error) {
	var pos, neg int
	for _, w := range strings.Fields(filter.CleanText(text)) {
		if m.positive[w] {
			pos++
		}
		if m.negative[w] {
			neg++
		}
	}

	byLabel := map[types.Sentiment]float64{
		types.SentimentPositive: m.weight * float64(pos),
		types.SentimentNegative: m.weight * float64(neg),
		types.SentimentNeutral:  neutralLogit,
	}
	out := make([]float64, len(m.labels))
	for i, l := range m.labels {
		out[i] = byLabel[l]
	}
	return out, kindLogits, nil
}

// NewLexicon loads the fine-tuned lexicon in modelDir when the directory
// exists, otherwise the built-in financial lexicon. A model directory
// without a readable lexicon is an error.
func NewLexicon(modelDir string) (*Classifier, error) {
	if modelDir != "" {
		info, err := os.Stat(modelDir)
		switch {
		case err == nil && info.IsDir():
			return loadLexiconDir(modelDir)
		case err == nil:
			return nil, fmt.Errorf("model path %s is not a directory", modelDir)
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("failed to stat model path %s: %w", modelDir, err)
		}
	}
	return NewBuiltinLexicon()
}

// NewBuiltinLexicon returns the pretrained fallback lexicon, which reports
// scores in FinBERT label order.
func NewBuiltinLexicon() (*Classifier, error) {
	m := &lexiconModel{
		positive: toSet(builtinPositive),
		negative: toSet(builtinNegative),
		weight:   1.5,
		labels:   FinBERTLabels,
	}
	return newClassifier("lexicon:builtin", FinBERTLabels, m)
}

func loadLexiconDir(dir string) (*Classifier, error) {
	path := filepath.Join(dir, LexiconFile)
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load fine-tuned lexicon: %w", err)
	}

	var lex Lexicon
	if err := yaml.Unmarshal(b, &lex); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(lex.Positive) == 0 && len(lex.Negative) == 0 {
		return nil, fmt.Errorf("lexicon %s has no words", path)
	}

	labels := FineTunedLabels
	if len(lex.Labels) > 0 {
		if labels, err = ParseLabelMap(lex.Labels); err != nil {
			return nil, fmt.Errorf("lexicon %s: %w", path, err)
		}
	}
	if lex.Weight <= 0 {
		lex.Weight = 1.5
	}

	m := &lexiconModel{
		positive: toSet(lex.Positive),
		negative: toSet(lex.Negative),
		weight:   lex.Weight,
		labels:   labels,
	}
	return newClassifier("lexicon:"+filepath.Base(dir), labels, m)
}

func toSet(words []string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		if w = filter.CleanText(w); w != "" {
			m[w] = true
		}
	}
	return m
}

// Loughran-McDonald style word lists extended with common headline verbs.
var builtinPositive = []string{
	"achieve", "attain", "beat", "beats", "benefit", "better", "boost",
	"boosts", "breakthrough", "bullish", "climb", "climbs", "competitive",
	"delight", "enhance", "excellent", "exceptional", "expand", "expands",
	"favorable", "gain", "gains", "good", "great", "grew", "growth", "improve",
	"improved", "improvement", "innovation", "innovative", "jump", "jumps",
	"leader", "leading", "opportunity", "optimistic", "outperform",
	"outperforms", "positive", "profit", "profitable", "progress", "rally",
	"rallies", "rebound", "record", "remarkable", "rise", "rises", "robust",
	"soar", "soars", "solid", "strength", "strong", "stronger", "succeed",
	"success", "successful", "superior", "surge", "surges", "surpass",
	"tremendous", "upbeat", "upgrade", "upgraded", "upgrades", "winning",
}

var builtinNegative = []string{
	"abandon", "adverse", "bankruptcy", "bearish", "challenge", "challenging",
	"collapse", "concern", "concerns", "crash", "crisis", "cut", "cuts",
	"damage", "decline", "declines", "decrease", "deficit", "deteriorate",
	"difficult", "disappoint", "disappointing", "downgrade", "downgraded",
	"downgrades", "downturn", "drop", "drops", "erode", "fail", "failure",
	"fall", "falls", "falling", "fear", "fears", "fraud", "headwind",
	"headwinds", "impairment", "investigation", "lawsuit", "layoffs", "loss",
	"losses", "miss", "misses", "negative", "plummet", "plummets", "plunge",
	"plunges", "poor", "probe", "problem", "recall", "recession", "risk",
	"risks", "sink", "sinks", "slump", "slumps", "slowdown", "sue", "sued",
	"tumble", "tumbles", "uncertainty", "underperform", "unprofitable",
	"volatile", "warning", "weak", "weakness", "worse", "worst",
}
