package normalize

import (
	"govigil/domain/batch"
	"govigil/domain/core"
	"govigil/internal/lifecycle"
)

// Method selects the score normalization applied after scoring
type Method string

const (
	MethodNone   Method = "none"
	MethodMinMax Method = "minmax"
	MethodCDF    Method = "cdf"
)

// ParseMethod validates a normalization method name
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodNone, MethodMinMax, MethodCDF:
		return Method(s), nil
	default:
		return "", core.NewValidationError("normalization", "must be none, minmax or cdf")
	}
}

// Normalizer rewrites raw batch outputs onto a common [0, 1] scale.
// Observe runs on every post-processed validation output, Fit once after
// the validation pass, and Apply on every test or predict output. With a
// normalizer attached, metric F1 cutoffs move to 0.5 for the test phase
// because the decision boundary itself normalizes to 0.5.
type Normalizer interface {
	Name() string
	Observe(out *batch.BatchOutput) error
	Fit() error
	// PrepareValidation rewrites a validation output before epoch-end
	// threshold computation, for methods whose thresholds live in a
	// transformed score space
	PrepareValidation(out *batch.BatchOutput) error
	Apply(out *batch.BatchOutput) error
}

// New builds the normalizer for the configured method, wired against the
// adapter's accumulators and decision boundaries. MethodNone yields nil.
func New(method Method, a *lifecycle.Adapter) (Normalizer, error) {
	switch method {
	case MethodNone, "":
		return nil, nil
	case MethodMinMax:
		return NewMinMaxNormalizer(a.MinMax(), a.ImageThreshold(), a.PixelThreshold()), nil
	case MethodCDF:
		return NewCDFNormalizer(a.TrainingDistribution(), a.ImageThreshold(), a.PixelThreshold()), nil
	default:
		return nil, core.NewValidationError("normalization", "unknown method "+string(method))
	}
}
