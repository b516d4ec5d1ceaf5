package linker

import (
	"math"

	perr "newslens/internal/platform/errors"
)

// Default scoring knobs
const (
	DefaultThreshold      = 0.09
	DefaultWeightEntities = 0.7
	DefaultWeightKeywords = 0.3
)

// Options configures scoring and the assign or create decision
type Options struct {
	// Threshold is the minimum combined score that counts as a match (inclusive)
	Threshold      float64
	WeightEntities float64
	WeightKeywords float64
}

// DefaultOptions returns the production scoring knobs
func DefaultOptions() Options {
	return Options{
		Threshold:      DefaultThreshold,
		WeightEntities: DefaultWeightEntities,
		WeightKeywords: DefaultWeightKeywords,
	}
}

// Validate rejects weights or thresholds outside [0,1]
func (o Options) Validate() error {
	check := func(name string, v float64) error {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return perr.WithField(perr.InvalidArgf("linker %s must be within [0,1] got %v", name, v), name)
		}
		return nil
	}
	if err := check("threshold", o.Threshold); err != nil {
		return err
	}
	if err := check("weight_entities", o.WeightEntities); err != nil {
		return err
	}
	return check("weight_keywords", o.WeightKeywords)
}

// NormalizeWeights min max scales a weight pair into [0,1]
// equal inputs carry no ranking information and both map to 0
func NormalizeWeights(wEnt, wKw float64) (float64, float64) {
	lo, hi := math.Min(wEnt, wKw), math.Max(wEnt, wKw)
	if hi-lo == 0 {
		return 0, 0
	}
	span := hi - lo
	return (wEnt - lo) / span, (wKw - lo) / span
}
