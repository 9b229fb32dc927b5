package risk

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"heartrisk/ml"
)

type Label string

const (
	LabelHigh Label = "High"
	LabelLow  Label = "Low"
)

const (
	highHeadline = "High Risk of Heart Disease! Risk Probability: %s"
	lowHeadline  = "Low Risk! Risk Probability: %s"
	highAdvice   = "Please consult a cardiologist and maintain a healthy lifestyle."
	lowAdvice    = "Keep up your healthy lifestyle and regular checkups!"
)

// Bars are the two chart values. Low is computed as 100-High so the pair
// always sums to 100.
type Bars struct {
	Low      float64 `json:"low"`
	High     float64 `json:"high"`
	LowText  string  `json:"low_text"`
	HighText string  `json:"high_text"`
}

// Result is the render payload of one prediction.
type Result struct {
	Class           int     `json:"class"`
	Label           Label   `json:"label"`
	Probability     float64 `json:"probability"`
	ProbabilityText string  `json:"probability_text"`
	Headline        string  `json:"headline"`
	Advice          string  `json:"advice"`
	Bars            Bars    `json:"bars"`
}

func (r Result) High() bool {
	return r.Label == LabelHigh
}

type Options struct {
	PositiveClass int
	CacheSize     int
	Language      string
	Logger        *zap.Logger
}

type Stats struct {
	Predictions int64 `json:"predictions"`
	CacheHits   int64 `json:"cache_hits"`
	HighRisk    int64 `json:"high_risk"`
	LowRisk     int64 `json:"low_risk"`
	Failures    int64 `json:"failures"`
}

// Predictor turns validated inputs into render payloads.
type Predictor struct {
	model         ml.ModelProvider
	positiveClass int
	formatter     *Formatter
	logger        *zap.Logger

	// mu orders cache writes against Purge. generation counts purges so a
	// result computed before a reload is never stored after it.
	mu         sync.Mutex
	cache      *lru.Cache[ml.FeatureVector, Result]
	generation uint64

	predictions atomic.Int64
	cacheHits   atomic.Int64
	highRisk    atomic.Int64
	lowRisk     atomic.Int64
	failures    atomic.Int64
}

func NewPredictor(model ml.ModelProvider, opts Options) (*Predictor, error) {
	if model == nil {
		return nil, fmt.Errorf("model provider is required")
	}
	if classes := model.Classes(); !slices.Contains(classes, opts.PositiveClass) {
		return nil, fmt.Errorf("positive class %d is not one of the classifier classes %v", opts.PositiveClass, classes)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Predictor{
		model:         model,
		positiveClass: opts.PositiveClass,
		formatter:     NewFormatter(opts.Language),
		logger:        logger,
	}
	if opts.CacheSize > 0 {
		cache, err := lru.New[ml.FeatureVector, Result](opts.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("create cache: %w", err)
		}
		p.cache = cache
	}
	return p, nil
}

func (p *Predictor) Predict(ctx context.Context, in Input) (Result, error) {
	v, err := in.Vector()
	if err != nil {
		return Result{}, err
	}
	return p.PredictVector(ctx, v)
}

// PredictVector runs inference on an already encoded vector. Inference is
// deterministic, so results are served from the cache when present.
func (p *Predictor) PredictVector(ctx context.Context, v ml.FeatureVector) (Result, error) {
	p.predictions.Add(1)
	if p.cache != nil {
		if result, ok := p.cache.Get(v); ok {
			p.cacheHits.Add(1)
			p.count(result)
			return result, nil
		}
	}

	generation := p.currentGeneration()
	prediction, err := p.model.Predict(ctx, v)
	if err != nil {
		p.failures.Add(1)
		p.logger.Error("inference failed", zap.Error(err))
		return Result{}, err
	}
	result := p.build(prediction)
	p.store(v, result, generation)
	p.count(result)
	p.logger.Debug("prediction",
		zap.String("label", string(result.Label)),
		zap.Float64("probability", result.Probability))
	return result, nil
}

func (p *Predictor) build(prediction ml.Prediction) Result {
	probability := clampPercent(prediction.Probability(p.positiveClass) * 100)
	result := Result{
		Class:           prediction.Class,
		Label:           LabelLow,
		Probability:     probability,
		ProbabilityText: p.formatter.Percent(probability),
		Advice:          lowAdvice,
		Bars: Bars{
			Low:      100 - probability,
			High:     probability,
			LowText:  p.formatter.BarPercent(100 - probability),
			HighText: p.formatter.BarPercent(probability),
		},
	}
	if prediction.Class == p.positiveClass {
		result.Label = LabelHigh
		result.Advice = highAdvice
		result.Headline = fmt.Sprintf(highHeadline, result.ProbabilityText)
	} else {
		result.Headline = fmt.Sprintf(lowHeadline, result.ProbabilityText)
	}
	return result
}

func (p *Predictor) count(result Result) {
	if result.High() {
		p.highRisk.Add(1)
	} else {
		p.lowRisk.Add(1)
	}
}

func (p *Predictor) currentGeneration() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generation
}

// store caches result unless the cache was purged since generation was read.
func (p *Predictor) store(v ml.FeatureVector, result Result, generation uint64) {
	if p.cache == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.generation == generation {
		p.cache.Add(v, result)
	}
}

// Purge drops cached results; call it whenever the artifacts change.
func (p *Predictor) Purge() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.generation++
	if p.cache != nil {
		p.cache.Purge()
	}
}

func (p *Predictor) Stats() Stats {
	return Stats{
		Predictions: p.predictions.Load(),
		CacheHits:   p.cacheHits.Load(),
		HighRisk:    p.highRisk.Load(),
		LowRisk:     p.lowRisk.Load(),
		Failures:    p.failures.Load(),
	}
}

func (p *Predictor) Formatter() *Formatter {
	return p.formatter
}

func clampPercent(v float64) float64 {
	switch {
	case v < 0 || math.IsNaN(v):
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
