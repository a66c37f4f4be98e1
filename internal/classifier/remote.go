package classifier

import (
	"context"
	"errors"
	"time"

	"sentiment-lens/internal/api"
)

// remoteModel calls an HTTP inference server hosting a sequence
// classification model.
type remoteModel struct {
	client *api.Client
}

type remoteRequest struct {
	Inputs string `json:"inputs"`
}

type remoteResponse struct {
	Logits        []float64 `json:"logits"`
	Probabilities []float64 `json:"probabilities"`
}

func (m *remoteModel) scores(ctx context.Context, text string) ([]float64, scoreKind, error) {
	resp, err := m.client.POST(ctx, "", remoteRequest{Inputs: text})
	if err != nil {
		return nil, kindLogits, err
	}
	var out remoteResponse
	if err := resp.ParseJSON(&out); err != nil {
		return nil, kindLogits, err
	}
	switch {
	case len(out.Logits) > 0:
		return out.Logits, kindLogits, nil
	case len(out.Probabilities) > 0:
		return out.Probabilities, kindProbabilities, nil
	}
	return nil, kindLogits, errors.New("inference response has neither logits nor probabilities")
}

// NewRemote builds a classifier backed by the inference server at endpoint.
// labelOrder names the server's output order; empty means FinBERT order.
func NewRemote(endpoint string, labelOrder []string, timeout time.Duration) (*Classifier, error) {
	if endpoint == "" {
		return nil, errors.New("remote classifier endpoint is empty")
	}
	labels := FinBERTLabels
	if len(labelOrder) > 0 {
		var err error
		if labels, err = ParseLabelMap(labelOrder); err != nil {
			return nil, err
		}
	}
	client := api.NewClient(api.WithBaseURL(endpoint), api.WithTimeout(timeout), api.WithLogging(true))
	return newClassifier("remote", labels, &remoteModel{client: client})
}
