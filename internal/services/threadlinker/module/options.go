package module

import (
	"newslens/internal/core/linker"
	"newslens/internal/platform/config"
	factsdom "newslens/internal/services/facts/domain"
)

// Options for the linking workflow
type Options struct {
	Linker     linker.Options
	BatchLimit int
	Candidates factsdom.CandidateQuery
}

// FromConfig fills options from environment
// CORE_LINKER_THRESHOLD, CORE_LINKER_WEIGHT_ENTITIES and CORE_LINKER_WEIGHT_KEYWORDS tune scoring
// CORE_THREADS_SINCE_DAYS (14), CORE_THREADS_MAX_CANDIDATES (100) and CORE_THREADS_INCLUDE_CLOSED
// shape the candidate window; CORE_THREADS_BATCH_LIMIT (100) is the unassigned page size
func FromConfig(cfg config.Conf) Options {
	lc := cfg.Prefix("CORE_LINKER_")
	tc := cfg.Prefix("CORE_THREADS_")
	return Options{
		Linker: linker.Options{
			Threshold:      lc.MayFloat64("THRESHOLD", linker.DefaultThreshold),
			WeightEntities: lc.MayFloat64("WEIGHT_ENTITIES", linker.DefaultWeightEntities),
			WeightKeywords: lc.MayFloat64("WEIGHT_KEYWORDS", linker.DefaultWeightKeywords),
		},
		BatchLimit: tc.MayInt("BATCH_LIMIT", factsdom.DefaultUnassignedLimit),
		Candidates: factsdom.CandidateQuery{
			SinceDays:     tc.MayInt("SINCE_DAYS", factsdom.DefaultCandidateSinceDays),
			IncludeClosed: tc.MayBool("INCLUDE_CLOSED", false),
			Max:           tc.MayInt("MAX_CANDIDATES", factsdom.DefaultCandidateMax),
		},
	}
}
