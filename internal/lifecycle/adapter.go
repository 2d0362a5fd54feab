package lifecycle

import (
	"context"

	"govigil/domain/batch"
	"govigil/domain/core"
	"govigil/domain/run"
	"govigil/domain/tensor"
	"govigil/internal"
	"govigil/internal/metrics"
	"govigil/ports"
)

// Settings holds the evaluation parameters an Adapter is constructed with.
// DefaultImage and DefaultPixel seed the thresholds and remain the decision
// boundaries when adaptive computation is disabled.
type Settings struct {
	Task              batch.Task
	AdaptiveThreshold bool
	DefaultImage      float64
	DefaultPixel      float64
}

// Adapter owns the evaluation lifecycle around a single anomaly scorer.
// Step hooks delegate scoring to the scorer and post-process raw outputs;
// epoch-end hooks turn the accumulated outputs into decision boundaries,
// metric values and a per-sample results summary.
//
// The adapter is not safe for concurrent epoch-end calls. Run one
// evaluation phase at a time and feed it outputs in batch order.
type Adapter struct {
	settings Settings

	scorer ports.AnomalyScorer
	sink   ports.MetricSink
	logger *internal.Logger

	imageThreshold *metrics.AdaptiveThreshold
	pixelThreshold *metrics.AdaptiveThreshold

	trainingDistribution *metrics.ScoreDistribution
	minMax               *metrics.MinMax

	imageMetrics *metrics.Collection
	pixelMetrics *metrics.Collection

	results run.ResultsSummary
}

// NewAdapter wires an anomaly scorer into the evaluation lifecycle.
// The sink may be nil when no metric backend is attached.
func NewAdapter(settings Settings, scorer ports.AnomalyScorer, sink ports.MetricSink) (*Adapter, error) {
	if scorer == nil {
		return nil, core.ErrNilScorer
	}
	if !settings.Task.IsValid() {
		return nil, core.NewValidationError("task", "must be classification or segmentation")
	}

	return &Adapter{
		settings:             settings,
		scorer:               scorer,
		sink:                 sink,
		logger:               internal.DefaultLogger.Component("LifecycleAdapter"),
		imageThreshold:       metrics.NewAdaptiveThreshold(settings.DefaultImage),
		pixelThreshold:       metrics.NewAdaptiveThreshold(settings.DefaultPixel),
		trainingDistribution: metrics.NewScoreDistribution(),
		minMax:               metrics.NewMinMax(),
		imageMetrics:         metrics.NewDefaultCollection("image_", settings.DefaultImage),
		pixelMetrics:         metrics.NewDefaultCollection("pixel_", settings.DefaultPixel),
	}, nil
}

// Forward delegates raw map computation to the wrapped scorer
func (a *Adapter) Forward(ctx context.Context, b *batch.Batch) (*tensor.Tensor, error) {
	return a.scorer.Forward(ctx, b)
}

// ValidationStep scores one batch. The adapter supplies no default scoring
// logic; a scorer that does not implement it surfaces ErrNotImplemented.
func (a *Adapter) ValidationStep(ctx context.Context, b *batch.Batch) (*batch.BatchOutput, error) {
	return a.scorer.ValidationStep(ctx, b)
}

// TestStep reuses the validation scoring path unchanged
func (a *Adapter) TestStep(ctx context.Context, b *batch.Batch) (*batch.BatchOutput, error) {
	return a.ValidationStep(ctx, b)
}

// PredictStep scores one batch, post-processes it and attaches binary
// predictions by thresholding the scores at the current image boundary.
func (a *Adapter) PredictStep(ctx context.Context, b *batch.Batch) (*batch.BatchOutput, error) {
	out, err := a.ValidationStep(ctx, b)
	if err != nil {
		return nil, err
	}
	a.PostProcess(out)
	if !out.HasPredScores() {
		return nil, core.NewMissingFieldError("pred_scores")
	}
	a.ThresholdLabels(out)
	return out, nil
}

// ThresholdLabels stamps binary predictions onto an output by comparing
// its scores against the current image boundary
func (a *Adapter) ThresholdLabels(out *batch.BatchOutput) {
	if !out.HasPredScores() {
		return
	}
	boundary := a.imageThreshold.Value()
	out.PredLabels = make([]int, len(out.PredScores))
	for i, score := range out.PredScores {
		if score >= boundary {
			out.PredLabels[i] = 1
		}
	}
}

// PostProcess fills in pred_scores from the anomaly maps when the scorer
// produced only maps: each sample's score is the maximum over its map.
// Outputs that already carry scores pass through untouched, so applying
// it twice is the same as applying it once.
func (a *Adapter) PostProcess(out *batch.BatchOutput) {
	if out == nil || out.HasPredScores() || !out.HasAnomalyMaps() {
		return
	}
	n := out.AnomalyMaps.Samples()
	scores := make([]float64, n)
	for i := 0; i < n; i++ {
		scores[i] = out.AnomalyMaps.SampleMax(i)
	}
	out.PredScores = scores
}

// ValidationStepEnd post-processes one batch output before aggregation
func (a *Adapter) ValidationStepEnd(out *batch.BatchOutput) *batch.BatchOutput {
	a.PostProcess(out)
	return out
}

// TestStepEnd post-processes one batch output before aggregation
func (a *Adapter) TestStepEnd(out *batch.BatchOutput) *batch.BatchOutput {
	a.PostProcess(out)
	return out
}

// ValidationEpochEnd consumes the post-processed outputs of a full
// validation pass. With adaptive thresholding enabled it recomputes both
// decision boundaries first, then folds the outputs into the metric
// collections and emits their values.
func (a *Adapter) ValidationEpochEnd(outputs []*batch.BatchOutput) error {
	if len(outputs) == 0 {
		return core.ErrEmptyEpoch
	}
	if a.settings.AdaptiveThreshold {
		if err := a.computeAdaptiveThresholds(outputs); err != nil {
			return err
		}
	}
	if err := a.collectOutputs(a.imageMetrics, a.pixelMetrics, outputs); err != nil {
		return err
	}
	return a.logMetrics()
}

// TestEpochEnd consumes the post-processed outputs of a full test pass,
// folds them into the metric collections, assembles the per-sample results
// summary and emits the metric values. Thresholds are left as validation
// set them.
func (a *Adapter) TestEpochEnd(outputs []*batch.BatchOutput) error {
	if len(outputs) == 0 {
		return core.ErrEmptyEpoch
	}
	if err := a.collectOutputs(a.imageMetrics, a.pixelMetrics, outputs); err != nil {
		return err
	}
	if err := a.assembleResults(outputs); err != nil {
		return err
	}
	return a.logMetrics()
}

// computeAdaptiveThresholds feeds every output's image scores into the image
// threshold accumulator. The pixel threshold gets its own computation only
// when every output in the epoch carries both a mask and an anomaly map;
// otherwise it copies the image boundary. Both metric collections get their
// F1 cutoffs synchronized to the new boundaries afterwards.
func (a *Adapter) computeAdaptiveThresholds(outputs []*batch.BatchOutput) error {
	if err := a.collectOutputs(a.imageThreshold, a.pixelThreshold, outputs); err != nil {
		return err
	}
	if _, err := a.imageThreshold.Compute(); err != nil {
		return err
	}

	if allHavePixelData(outputs) {
		if _, err := a.pixelThreshold.Compute(); err != nil {
			return err
		}
	} else {
		a.pixelThreshold.SetValue(a.imageThreshold.Value())
	}

	a.imageMetrics.SetF1Threshold(a.imageThreshold.Value())
	a.pixelMetrics.SetF1Threshold(a.pixelThreshold.Value())

	a.logger.Info("adaptive thresholds computed: image=%.4f pixel=%.4f",
		a.imageThreshold.Value(), a.pixelThreshold.Value())
	return nil
}

// updater accepts per-sample scores paired with ground-truth targets.
// Metric collections and threshold accumulators both satisfy it.
type updater interface {
	Update(preds []float64, targets []int)
}

// collectOutputs folds outputs into an image-level and a pixel-level
// aggregator. Image scores and labels are required on every output; pixel
// data flows only from outputs that carry both a mask and an anomaly map.
func (a *Adapter) collectOutputs(imageAgg, pixelAgg updater, outputs []*batch.BatchOutput) error {
	for _, out := range outputs {
		if !out.HasPredScores() {
			return core.NewMissingFieldError("pred_scores")
		}
		if !out.HasLabels() {
			return core.NewMissingFieldError("labels")
		}
		if len(out.PredScores) != len(out.Labels) {
			return core.NewLengthMismatchError("labels", len(out.PredScores), len(out.Labels))
		}
		imageAgg.Update(out.PredScores, out.Labels)

		if out.HasPixelData() {
			if out.AnomalyMaps.Len() != out.Masks.Len() {
				return core.NewShapeError(out.AnomalyMaps.Shape(), out.Masks.Shape())
			}
			pixelAgg.Update(out.AnomalyMaps.Values(), maskTargets(out.Masks))
		}
	}
	return nil
}

// logMetrics computes and emits the image metrics, plus the pixel metrics
// for segmentation runs, then resets both collections for the next epoch.
func (a *Adapter) logMetrics() error {
	values, err := a.imageMetrics.Compute()
	if err != nil {
		return err
	}
	if a.settings.Task == batch.TaskSegmentation {
		pixelValues, err := a.pixelMetrics.Compute()
		if err != nil {
			return err
		}
		for name, v := range pixelValues {
			values[name] = v
		}
	}

	if a.sink != nil {
		a.sink.LogDict(values)
	}
	a.logger.Debug("logged %d metric values", len(values))

	a.imageMetrics.Reset()
	a.pixelMetrics.Reset()
	return nil
}

// assembleResults rebuilds the per-sample summary from test outputs.
// Outputs that already carry predicted labels keep them; otherwise labels
// come from thresholding scores at the image boundary. Outputs without
// sample names cannot be attributed and are skipped.
func (a *Adapter) assembleResults(outputs []*batch.BatchOutput) error {
	a.results = run.ResultsSummary{}
	boundary := a.imageThreshold.Value()
	for _, out := range outputs {
		if !out.HasNames() {
			a.logger.Warn("test output lacks sample names, skipping %d samples in results", out.Samples())
			continue
		}
		if len(out.Names) != len(out.PredScores) {
			return core.NewLengthMismatchError("names", len(out.PredScores), len(out.Names))
		}
		for i, name := range out.Names {
			pred := 0
			switch {
			case out.HasPredLabels():
				pred = out.PredLabels[i]
			case out.PredScores[i] >= boundary:
				pred = 1
			}
			a.results.Append(name, out.Labels[i], pred)
		}
	}
	return nil
}

// allHavePixelData reports whether every output carries pixel ground truth
func allHavePixelData(outputs []*batch.BatchOutput) bool {
	for _, out := range outputs {
		if !out.HasPixelData() {
			return false
		}
	}
	return len(outputs) > 0
}

// maskTargets flattens a ground-truth mask tensor into binary int targets
func maskTargets(masks *tensor.Tensor) []int {
	values := masks.Values()
	targets := make([]int, len(values))
	for i, v := range values {
		targets[i] = int(v)
	}
	return targets
}

// ===== ACCESSORS =====

// Settings returns the parameters the adapter was constructed with
func (a *Adapter) Settings() Settings {
	return a.settings
}

// Task returns the evaluation task the adapter was configured for
func (a *Adapter) Task() batch.Task {
	return a.settings.Task
}

// Adaptive reports whether epoch-end threshold recomputation is enabled
func (a *Adapter) Adaptive() bool {
	return a.settings.AdaptiveThreshold
}

// ScorerName returns the wrapped scorer's name
func (a *Adapter) ScorerName() string {
	return a.scorer.Name()
}

// ImageThreshold exposes the image-level decision boundary
func (a *Adapter) ImageThreshold() *metrics.AdaptiveThreshold {
	return a.imageThreshold
}

// PixelThreshold exposes the pixel-level decision boundary
func (a *Adapter) PixelThreshold() *metrics.AdaptiveThreshold {
	return a.pixelThreshold
}

// TrainingDistribution exposes the fitted score distribution used by
// CDF normalization
func (a *Adapter) TrainingDistribution() *metrics.ScoreDistribution {
	return a.trainingDistribution
}

// MinMax exposes the observed score range used by min-max normalization
func (a *Adapter) MinMax() *metrics.MinMax {
	return a.minMax
}

// ImageMetrics exposes the image-level metric collection
func (a *Adapter) ImageMetrics() *metrics.Collection {
	return a.imageMetrics
}

// PixelMetrics exposes the pixel-level metric collection
func (a *Adapter) PixelMetrics() *metrics.Collection {
	return a.pixelMetrics
}

// Results returns the summary assembled by the last test epoch
func (a *Adapter) Results() *run.ResultsSummary {
	return &a.results
}
