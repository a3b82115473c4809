// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/pharma-agent/pkg/types"
)

// maxPayloadBytes bounds the text sent to the extraction service per record.
const maxPayloadBytes = 6000

// Enricher turns one RawRecord into a reconciled Study via a single
// extraction call. It is stateless across calls and safe for concurrent use.
type Enricher struct {
	backend Backend
	cache   *Cache
	logger  *slog.Logger
}

// NewEnricher builds an Enricher. cache may be nil to disable memoization.
func NewEnricher(backend Backend, cache *Cache) *Enricher {
	return &Enricher{
		backend: backend,
		cache:   cache,
		logger:  slog.Default().With("component", "enricher"),
	}
}

// Enrich calls the extraction service for one record and reconciles the
// response into a Study. An error means no study was produced for this
// record; the caller drops it and continues the batch.
func (e *Enricher) Enrich(ctx context.Context, raw types.RawRecord, query string) (*types.Study, error) {
	payload := BuildPayload(raw)
	key := cacheKey(payload, query)

	var data []byte
	if e.cache != nil {
		if cached, ok := e.cache.Get(key); ok {
			e.logger.Debug("extraction cache hit", "id", raw.ID)
			data = cached
		}
	}

	if data == nil {
		var err error
		data, err = e.backend.Extract(ctx, payload, query)
		if err != nil {
			return nil, fmt.Errorf("extracting record %s: %w", raw.ID, err)
		}
		if e.cache != nil {
			if err := e.cache.Put(key, data); err != nil {
				// Cache failures never fail the record.
				e.logger.Warn("extraction cache write failed", "id", raw.ID, "err", err)
			}
		}
	}

	ex, err := ParseExtraction(data)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", raw.ID, err)
	}

	return reconcile(raw, ex), nil
}

// BuildPayload serializes the record into the bounded text sent to the
// extraction service. Registry records carry their structured fields as
// JSON; literature records concatenate title, abstract, and journal.
func BuildPayload(raw types.RawRecord) string {
	var text string
	if raw.Source == types.SourceClinicalTrials {
		fields := map[string]any{
			"title":        raw.Title,
			"condition":    raw.Conditions,
			"intervention": raw.Interventions,
			"summary":      raw.Summary,
			"criteria":     raw.EligibilityCriteria,
			"outcomes":     raw.PrimaryOutcomes,
		}
		data, err := json.MarshalIndent(fields, "", "  ")
		if err != nil {
			text = raw.Title
		} else {
			text = string(data)
		}
	} else {
		text = fmt.Sprintf("Title: %s\nAbstract: %s\nJournal: %s", raw.Title, raw.Abstract, raw.Journal)
	}

	return truncate(text, maxPayloadBytes)
}

// truncate cuts s to at most n bytes without splitting a UTF-8 rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// reconcile merges authoritative source fields with extracted values.
// Source-provided values win for enrollment, classification, and
// publications; everything else comes from the extraction with sentinel
// defaults.
func reconcile(raw types.RawRecord, ex Extraction) *types.Study {
	study := &types.Study{
		ID:     raw.ID,
		Source: raw.Source,
		Title:  raw.Title,
		URL:    raw.URL,

		StudyType: raw.StudyType,
		Phase:     strings.Join(raw.Phases, ", "),
		Status:    raw.Status,

		Summary:       resolveString(ex.Summary, types.NotReported),
		Demographics:  resolveString(ex.Demographics, types.NotReported),
		Exposure:      resolveString(ex.Exposure, types.NotReported),
		Endpoints:     resolveString(ex.Endpoints, types.NotReported),
		Biomarkers:    resolveString(ex.Biomarkers, types.NotReported),
		ProteinData:   resolveString(ex.ProteinData, types.NotReported),
		BiologyNote:   resolveString(ex.BiologyNote, types.NotReported),
		AdverseEvents: resolveString(ex.AdverseEvents, types.NotReported),
		UnexpectedAEs: resolveString(ex.UnexpectedAEs, types.NoneIdentified),
		NextSteps:     resolveString(ex.NextSteps, types.NotReported),

		HasBiomarkerMatch:  ex.HasBiomarkerMatch,
		HasUnexpectedAE:    ex.HasUnexpectedAE,
		MissingDataPenalty: ex.MissingDataPenalty,

		Raw: &raw,
	}

	// Enrollment precedence: authoritative registry count, then the
	// extracted value, then the sentinel.
	if raw.Enrollment > 0 {
		study.Enrollment = strconv.Itoa(raw.Enrollment)
	} else {
		study.Enrollment = resolveString(ex.Enrollment, types.NotReported)
	}

	// Publications come verbatim from the source; literature sources have none.
	study.Publications = raw.Publications
	if study.Publications == nil {
		study.Publications = []string{}
	}

	return study
}

// cacheKey derives a stable content address for one extraction call.
func cacheKey(payload, query string) string {
	h := sha256.New()
	h.Write([]byte(payload))
	h.Write([]byte{0})
	h.Write([]byte(query))
	return fmt.Sprintf("%x", h.Sum(nil))
}
