// Package predict guesses the locality kind of a raw place description with
// a Claude model, returning the best label and per-label scores.
package predict

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/georef-cli/internal/geoerr"
	"github.com/sells-group/georef-cli/internal/resilience"
	"github.com/sells-group/georef-cli/pkg/anthropic"
)

// Labels are the locality kinds the predictor may answer with, from the
// MaNIS georeferencing guidelines.
var Labels = map[string]string{
	"f":    "named feature only, e.g. \"Springfield\"",
	"foh":  "offset distance and heading from a feature, e.g. \"5 mi W of Springfield\"",
	"fo":   "offset distance without heading, e.g. \"5 mi from Springfield\"",
	"fh":   "heading without distance, e.g. \"W of Springfield\"",
	"foo":  "orthogonal offsets, e.g. \"2 mi N and 3 mi E of Springfield\"",
	"fpoh": "offset along a path, e.g. \"5 mi W of Springfield on Hwy 1\"",
	"fs":   "between two features, e.g. \"between Springfield and Shelbyville\"",
	"nf":   "no named feature, e.g. \"roadside\"",
	"und":  "undeterminable",
}

const systemPrompt = `You classify biological specimen locality descriptions by locality type.
Reply with a single JSON object and nothing else:
{"kind": "<label>", "scores": {"<label>": <probability>, ...}}
Scores must cover every plausible label and sum to roughly 1.
Labels:
`

// Prediction is a best-guess locality kind and the model's score per label.
type Prediction struct {
	Kind   string             `json:"kind"`
	Scores map[string]float64 `json:"scores"`
}

// Predictor classifies locality text.
type Predictor struct {
	client    anthropic.Client
	model     string
	maxTokens int64
	retry     resilience.RetryConfig
	system    string
}

// New creates a Predictor.
func New(client anthropic.Client, model string, maxTokens int64, retry resilience.RetryConfig) *Predictor {
	retry.ShouldRetry = anthropic.IsRetryable
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger("anthropic", "predict")
	}
	return &Predictor{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
		retry:     retry,
		system:    buildSystemPrompt(),
	}
}

func buildSystemPrompt() string {
	keys := make([]string, 0, len(Labels))
	for k := range Labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(systemPrompt)
	for _, k := range keys {
		b.WriteString("- ")
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(Labels[k])
		b.WriteString("\n")
	}
	return b.String()
}

// Predict returns the most likely locality kind for text. API failures that
// survive retries and unreadable replies are reported as an UpstreamError; a
// reply naming a label outside Labels is an UnsupportedKindError.
func (p *Predictor) Predict(ctx context.Context, text string) (*Prediction, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, geoerr.Missing("locality")
	}

	temp := 0.0
	req := anthropic.MessageRequest{
		Model:       p.model,
		MaxTokens:   p.maxTokens,
		System:      []anthropic.SystemBlock{{Text: p.system, Cacheable: true}},
		Messages:    []anthropic.Message{{Role: "user", Content: text}},
		Temperature: &temp,
	}

	resp, err := resilience.Do(ctx, p.retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return p.client.CreateMessage(ctx, req)
	})
	if err != nil {
		return nil, geoerr.Upstream("predict", err)
	}
	resp.Usage.Log(p.model, "predict")

	pred, err := ParseResponse(resp.Text())
	if err != nil {
		if geoerr.IsUnsupportedKind(err) {
			return nil, err
		}
		return nil, geoerr.Upstream("predict", err)
	}
	zap.L().Debug("predicted locality kind",
		zap.String("text", text),
		zap.String("kind", pred.Kind),
		zap.Float64("score", pred.Scores[pred.Kind]),
	)
	return pred, nil
}

// ParseResponse extracts a Prediction from model output. Text around the JSON
// object is ignored; scores for unknown labels are dropped. When the model
// names no kind, the highest-scoring label wins. A kind outside Labels yields
// an UnsupportedKindError.
func ParseResponse(out string) (*Prediction, error) {
	start := strings.Index(out, "{")
	end := strings.LastIndex(out, "}")
	if start < 0 || end < start {
		return nil, eris.Errorf("predict: no JSON object in response %q", out)
	}

	var raw Prediction
	if err := json.Unmarshal([]byte(out[start:end+1]), &raw); err != nil {
		return nil, eris.Wrap(err, "predict: parse response")
	}

	pred := &Prediction{
		Kind:   strings.ToLower(strings.TrimSpace(raw.Kind)),
		Scores: make(map[string]float64, len(raw.Scores)),
	}
	for label, score := range raw.Scores {
		label = strings.ToLower(strings.TrimSpace(label))
		if _, ok := Labels[label]; ok {
			pred.Scores[label] = score
		}
	}

	if pred.Kind == "" {
		pred.Kind = best(pred.Scores)
	}
	if pred.Kind == "" {
		return nil, eris.Errorf("predict: response names no locality kind %q", out)
	}
	if _, ok := Labels[pred.Kind]; !ok {
		return nil, &geoerr.UnsupportedKindError{Kind: pred.Kind}
	}
	return pred, nil
}

func best(scores map[string]float64) string {
	var kind string
	top := -1.0
	for label, s := range scores {
		if s > top || (s == top && label < kind) {
			kind, top = label, s
		}
	}
	return kind
}
