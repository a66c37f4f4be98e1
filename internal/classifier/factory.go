package classifier

import (
	"fmt"
	"time"
)

// Options selects and configures a classifier backend.
type Options struct {
	Backend    string // lexicon, remote, openai or claude
	ModelPath  string
	Endpoint   string
	LabelOrder []string
	Model      string
	APIKey     string
	Timeout    time.Duration
}

// New constructs the configured backend. Construction failures are meant to
// be fatal at startup.
func New(opts Options) (*Classifier, error) {
	switch opts.Backend {
	case "", "lexicon":
		return NewLexicon(opts.ModelPath)
	case "remote":
		return NewRemote(opts.Endpoint, opts.LabelOrder, opts.Timeout)
	case "openai":
		return NewOpenAI(opts.APIKey, opts.Model, opts.Endpoint, opts.Timeout)
	case "claude":
		return NewClaude(opts.APIKey, opts.Model, opts.Endpoint, opts.Timeout)
	default:
		return nil, fmt.Errorf("unknown classifier backend %q", opts.Backend)
	}
}
