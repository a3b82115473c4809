// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the pharma-agent pipeline:
// raw source records, reconciled studies, and per-stage configuration.
package types

// SourceTag identifies the data source a record came from. The payload shape
// of a RawRecord is determined solely by its tag.
type SourceTag string

const (
	SourceClinicalTrials SourceTag = "ClinicalTrials.gov"
	SourcePubMed         SourceTag = "PubMed"
	SourceNEJM           SourceTag = "NEJM"
)

// Sentinel strings used in place of absent narrative values. Every narrative
// field of a Study carries one of these when nothing was reported, never an
// empty string, so formatting and question answering never branch on absence.
const (
	NotReported    = "Not reported"
	NoneIdentified = "None identified"
)

// RawRecord is the unprocessed output of one source adapter. Registry records
// (ClinicalTrials.gov) populate the structured fields; literature records
// (PubMed, NEJM) populate the free-text fields. ID and Source are always set.
type RawRecord struct {
	ID     string    `json:"id" yaml:"id"`
	Source SourceTag `json:"source" yaml:"source"`
	Title  string    `json:"title" yaml:"title"`
	URL    string    `json:"url" yaml:"url"`

	// Registry payload.
	Status              string   `json:"status,omitempty" yaml:"status,omitempty"`
	Phases              []string `json:"phases,omitempty" yaml:"phases,omitempty"`
	StudyType           string   `json:"study_type,omitempty" yaml:"study_type,omitempty"`
	Enrollment          int      `json:"enrollment,omitempty" yaml:"enrollment,omitempty"`
	Conditions          []string `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	Interventions       []string `json:"interventions,omitempty" yaml:"interventions,omitempty"`
	Summary             string   `json:"summary,omitempty" yaml:"summary,omitempty"`
	EligibilityCriteria string   `json:"eligibility_criteria,omitempty" yaml:"eligibility_criteria,omitempty"`
	PrimaryOutcomes     []string `json:"primary_outcomes,omitempty" yaml:"primary_outcomes,omitempty"`
	Publications        []string `json:"publications,omitempty" yaml:"publications,omitempty"`

	// Literature payload.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`
	Journal  string `json:"journal,omitempty" yaml:"journal,omitempty"`
	Year     string `json:"year,omitempty" yaml:"year,omitempty"`
}

// Study is the reconciled, scorable unit produced by the enrichment stage.
// Narrative fields hold sentinel strings when no value was reported. The
// scoring pair (RelevanceScore, ScoreJustification) is written exactly once
// by the scorer after all enrichment has completed.
type Study struct {
	ID     string    `json:"id" yaml:"id"`
	Source SourceTag `json:"source" yaml:"source"`
	Title  string    `json:"title" yaml:"title"`
	URL    string    `json:"url" yaml:"url"`

	// Classification, present when the source provides it (registry).
	StudyType string `json:"study_type,omitempty" yaml:"study_type,omitempty"`
	Phase     string `json:"phase,omitempty" yaml:"phase,omitempty"`
	Status    string `json:"status,omitempty" yaml:"status,omitempty"`

	// Enrollment is a string so it can carry either a count ("120") or a
	// descriptive value ("approximately 100 participants").
	Enrollment string `json:"enrollment" yaml:"enrollment"`

	// Narrative fields extracted from the source text. Never empty; absence
	// is represented by NotReported (or NoneIdentified for UnexpectedAEs).
	Summary       string `json:"summary" yaml:"summary"`
	Demographics  string `json:"demographics" yaml:"demographics"`
	Exposure      string `json:"exposure" yaml:"exposure"`
	Endpoints     string `json:"endpoints" yaml:"endpoints"`
	Biomarkers    string `json:"biomarkers" yaml:"biomarkers"`
	ProteinData   string `json:"protein_data" yaml:"protein_data"`
	BiologyNote   string `json:"biology_note" yaml:"biology_note"`
	AdverseEvents string `json:"adverse_events" yaml:"adverse_events"`
	UnexpectedAEs string `json:"unexpected_aes" yaml:"unexpected_aes"`
	NextSteps     string `json:"next_steps" yaml:"next_steps"`

	// Publications lists cross-reference identifiers (PMIDs) supplied by the
	// source. Literature sources yield an empty list.
	Publications []string `json:"publications" yaml:"publications"`

	// Evidence flags driving deterministic scoring.
	HasBiomarkerMatch  bool `json:"has_biomarker_match" yaml:"has_biomarker_match"`
	HasUnexpectedAE    bool `json:"has_unexpected_ae" yaml:"has_unexpected_ae"`
	MissingDataPenalty bool `json:"missing_data_penalty" yaml:"missing_data_penalty"`

	RelevanceScore     int    `json:"relevance_score" yaml:"relevance_score"`
	ScoreJustification string `json:"score_justification" yaml:"score_justification"`

	// Raw retains the adapter output for auditing.
	Raw *RawRecord `json:"-" yaml:"-"`
}
