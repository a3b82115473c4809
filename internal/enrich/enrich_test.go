// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/pdiddy/pharma-agent/pkg/types"
)

// --- mock backend ---

type mockBackend struct {
	response []byte
	err      error
	calls    int
}

func (m *mockBackend) Extract(_ context.Context, _, _ string) ([]byte, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.response, nil
}

func registryRecord() types.RawRecord {
	return types.RawRecord{
		ID:            "NCT04512345",
		Source:        types.SourceClinicalTrials,
		Title:         "Semaglutide in Depression",
		URL:           "https://clinicaltrials.gov/study/NCT04512345",
		Status:        "RECRUITING",
		Phases:        []string{"PHASE2"},
		StudyType:     "INTERVENTIONAL",
		Enrollment:    120,
		Conditions:    []string{"Depression"},
		Interventions: []string{"Semaglutide"},
		Publications:  []string{"31535829"},
	}
}

func literatureRecord() types.RawRecord {
	return types.RawRecord{
		ID:       "31535829",
		Source:   types.SourcePubMed,
		Title:    "Semaglutide and Cardiovascular Outcomes",
		URL:      "https://pubmed.ncbi.nlm.nih.gov/31535829/",
		Abstract: "Background and results.",
		Journal:  "NEJM",
		Year:     "2019",
	}
}

// --- reconciliation ---

func TestEnrichRegistryEnrollmentWins(t *testing.T) {
	// Raw registry enrollment (120) must beat the extracted value ("50").
	backend := &mockBackend{response: []byte(`{"enrollment": "50", "summary": "A trial."}`)}
	e := NewEnricher(backend, nil)

	study, err := e.Enrich(context.Background(), registryRecord(), "semaglutide depression")
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if study.Enrollment != "120" {
		t.Errorf("Enrollment = %q, want %q", study.Enrollment, "120")
	}
}

func TestEnrichExtractedEnrollmentUsedWhenRawAbsent(t *testing.T) {
	backend := &mockBackend{response: []byte(`{"enrollment": "approximately 200"}`)}
	e := NewEnricher(backend, nil)

	study, err := e.Enrich(context.Background(), literatureRecord(), "semaglutide")
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if study.Enrollment != "approximately 200" {
		t.Errorf("Enrollment = %q", study.Enrollment)
	}
}

func TestEnrichSentinelDefaults(t *testing.T) {
	// An empty JSON object must still produce a fully populated study.
	backend := &mockBackend{response: []byte(`{}`)}
	e := NewEnricher(backend, nil)

	study, err := e.Enrich(context.Background(), literatureRecord(), "semaglutide")
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}

	for name, got := range map[string]string{
		"Summary":       study.Summary,
		"Demographics":  study.Demographics,
		"Exposure":      study.Exposure,
		"Endpoints":     study.Endpoints,
		"Biomarkers":    study.Biomarkers,
		"ProteinData":   study.ProteinData,
		"BiologyNote":   study.BiologyNote,
		"AdverseEvents": study.AdverseEvents,
		"NextSteps":     study.NextSteps,
		"Enrollment":    study.Enrollment,
	} {
		if got != types.NotReported {
			t.Errorf("%s = %q, want sentinel %q", name, got, types.NotReported)
		}
	}
	if study.UnexpectedAEs != types.NoneIdentified {
		t.Errorf("UnexpectedAEs = %q, want %q", study.UnexpectedAEs, types.NoneIdentified)
	}
	if study.HasBiomarkerMatch || study.HasUnexpectedAE || study.MissingDataPenalty {
		t.Error("absent flags must default to false")
	}
	if study.Publications == nil || len(study.Publications) != 0 {
		t.Errorf("Publications = %v, want empty non-nil list", study.Publications)
	}
}

func TestEnrichClassificationFromRegistry(t *testing.T) {
	backend := &mockBackend{response: []byte(`{}`)}
	e := NewEnricher(backend, nil)

	study, err := e.Enrich(context.Background(), registryRecord(), "q")
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if study.StudyType != "INTERVENTIONAL" {
		t.Errorf("StudyType = %q", study.StudyType)
	}
	if study.Phase != "PHASE2" {
		t.Errorf("Phase = %q", study.Phase)
	}
	if study.Status != "RECRUITING" {
		t.Errorf("Status = %q", study.Status)
	}
	if len(study.Publications) != 1 || study.Publications[0] != "31535829" {
		t.Errorf("Publications = %v", study.Publications)
	}
}

func TestEnrichFlagsAndListCoercion(t *testing.T) {
	backend := &mockBackend{response: []byte(`{
		"biomarkers": ["HbA1c", "GLP-1R expression"],
		"has_biomarker_match": true,
		"has_unexpected_ae": true,
		"missing_data_penalty": false
	}`)}
	e := NewEnricher(backend, nil)

	study, err := e.Enrich(context.Background(), literatureRecord(), "q")
	if err != nil {
		t.Fatalf("Enrich: %v", err)
	}
	if study.Biomarkers != "HbA1c, GLP-1R expression" {
		t.Errorf("Biomarkers = %q, want comma-joined list", study.Biomarkers)
	}
	if !study.HasBiomarkerMatch || !study.HasUnexpectedAE || study.MissingDataPenalty {
		t.Errorf("flags = %v %v %v", study.HasBiomarkerMatch, study.HasUnexpectedAE, study.MissingDataPenalty)
	}
}

func TestEnrichExtractionFailure(t *testing.T) {
	backend := &mockBackend{err: fmt.Errorf("service unavailable")}
	e := NewEnricher(backend, nil)

	if _, err := e.Enrich(context.Background(), literatureRecord(), "q"); err == nil {
		t.Fatal("expected error when the extraction call fails")
	}
}

func TestEnrichMalformedResponse(t *testing.T) {
	backend := &mockBackend{response: []byte(`not json at all`)}
	e := NewEnricher(backend, nil)

	if _, err := e.Enrich(context.Background(), literatureRecord(), "q"); err == nil {
		t.Fatal("expected error for malformed extraction JSON")
	}
}

// --- payload building ---

func TestBuildPayloadRegistry(t *testing.T) {
	payload := BuildPayload(registryRecord())
	if !strings.Contains(payload, `"Semaglutide in Depression"`) {
		t.Errorf("payload missing title: %s", payload)
	}
	if !strings.Contains(payload, "Depression") {
		t.Errorf("payload missing condition: %s", payload)
	}
}

func TestBuildPayloadLiterature(t *testing.T) {
	payload := BuildPayload(literatureRecord())
	want := "Title: Semaglutide and Cardiovascular Outcomes\nAbstract: Background and results.\nJournal: NEJM"
	if payload != want {
		t.Errorf("payload = %q, want %q", payload, want)
	}
}

func TestBuildPayloadTruncation(t *testing.T) {
	raw := literatureRecord()
	raw.Abstract = strings.Repeat("x", 2*maxPayloadBytes)
	payload := BuildPayload(raw)
	if len(payload) != maxPayloadBytes {
		t.Errorf("len(payload) = %d, want %d", len(payload), maxPayloadBytes)
	}
}

func TestBuildPayloadTruncationKeepsValidUTF8(t *testing.T) {
	// Multi-byte runes straddling the byte limit must not be split.
	raw := literatureRecord()
	raw.Abstract = strings.Repeat("αβγ", maxPayloadBytes)
	payload := BuildPayload(raw)
	if len(payload) > maxPayloadBytes {
		t.Errorf("len(payload) = %d, exceeds %d", len(payload), maxPayloadBytes)
	}
	if !utf8.ValidString(payload) {
		t.Error("truncated payload is not valid UTF-8")
	}
}

// --- resolveString ---

func TestResolveString(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		sentinel string
		want     string
	}{
		{"nil", nil, types.NotReported, types.NotReported},
		{"empty string", "", types.NotReported, types.NotReported},
		{"whitespace string", "   ", types.NotReported, types.NotReported},
		{"plain string", "HbA1c", types.NotReported, "HbA1c"},
		{"list", []any{"a", "b"}, types.NotReported, "a, b"},
		{"empty list", []any{}, types.NotReported, types.NotReported},
		{"number", float64(50), types.NotReported, "50"},
		{"fractional number", 12.5, types.NotReported, "12.5"},
		{"bool", true, types.NotReported, "true"},
		{"mixed list", []any{"a", float64(3)}, types.NotReported, "a, 3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveString(tt.value, tt.sentinel); got != tt.want {
				t.Errorf("resolveString(%v) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

// --- cache integration ---

func TestEnrichUsesCache(t *testing.T) {
	cache, err := OpenCache(t.TempDir() + "/cache.db")
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	defer cache.Close()

	backend := &mockBackend{response: []byte(`{"summary": "Cached summary."}`)}
	e := NewEnricher(backend, cache)

	raw := literatureRecord()
	first, err := e.Enrich(context.Background(), raw, "q")
	if err != nil {
		t.Fatalf("first Enrich: %v", err)
	}

	// Second call with identical input must not hit the backend.
	second, err := e.Enrich(context.Background(), raw, "q")
	if err != nil {
		t.Fatalf("second Enrich: %v", err)
	}
	if backend.calls != 1 {
		t.Errorf("backend calls = %d, want 1 (cache hit)", backend.calls)
	}
	if first.Summary != second.Summary {
		t.Errorf("cached study differs: %q vs %q", first.Summary, second.Summary)
	}

	// A different query is a different cache key.
	if _, err := e.Enrich(context.Background(), raw, "other query"); err != nil {
		t.Fatalf("third Enrich: %v", err)
	}
	if backend.calls != 2 {
		t.Errorf("backend calls = %d, want 2 (different key)", backend.calls)
	}
}
