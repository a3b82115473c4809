// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scoring computes deterministic relevance scores from the evidence
// flags of a reconciled study.
package scoring

import (
	"strings"

	"github.com/pdiddy/pharma-agent/pkg/types"
)

// Scoring weights. The final score is clamped to [0, 100].
const (
	biomarkerWeight   = 70
	unexpectedWeight  = 30
	missingDataWeight = 15
)

// Score sets RelevanceScore and ScoreJustification on the study from its
// three evidence flags. It reads nothing else and is idempotent: the same
// flags always produce the same score and justification.
func Score(study *types.Study) {
	score := 0
	var segments []string

	if study.HasBiomarkerMatch {
		score += biomarkerWeight
		segments = append(segments, "biomarker match (+70)")
	}
	if study.HasUnexpectedAE {
		score += unexpectedWeight
		segments = append(segments, "unexpected AE signal (+30)")
	}
	if study.MissingDataPenalty {
		score -= missingDataWeight
		segments = append(segments, "missing critical data (-15)")
	}

	study.RelevanceScore = clamp(score, 0, 100)

	if len(segments) == 0 {
		study.ScoreJustification = "baseline relevance (0)"
		return
	}
	study.ScoreJustification = strings.Join(segments, " + ")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
