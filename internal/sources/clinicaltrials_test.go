// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pdiddy/pharma-agent/pkg/types"
)

const sampleCTGovJSON = `{
  "studies": [
    {
      "protocolSection": {
        "identificationModule": {
          "nctId": "NCT04512345",
          "briefTitle": "GLP-1 Agonists and Depression",
          "officialTitle": "A Phase 2 Trial of GLP-1 Receptor Agonists in Treatment-Resistant Depression"
        },
        "statusModule": {"overallStatus": "RECRUITING"},
        "designModule": {
          "phases": ["PHASE2"],
          "studyType": "INTERVENTIONAL",
          "enrollmentInfo": {"count": 120}
        },
        "conditionsModule": {"conditions": ["Depression", "Obesity"]},
        "armsInterventionsModule": {
          "interventions": [{"name": "Semaglutide"}, {"name": "Placebo"}]
        },
        "descriptionModule": {"briefSummary": "Evaluates semaglutide for depressive symptoms."},
        "eligibilityModule": {"eligibilityCriteria": "Adults 18-65 with MDD."},
        "outcomesModule": {
          "primaryOutcomes": [{"measure": "Change in MADRS score"}]
        },
        "referencesModule": {
          "references": [
            {"pmid": "31535829", "citation": "Example citation"},
            {"pmid": "", "citation": "No PMID here"}
          ]
        }
      }
    },
    {
      "protocolSection": {
        "identificationModule": {"nctId": "", "briefTitle": "Missing ID"}
      }
    },
    {
      "protocolSection": {
        "identificationModule": {"nctId": "NCT00000001", "briefTitle": "Brief Only"}
      }
    }
  ]
}`

func ctgovTestServer(statusCode int, body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		fmt.Fprint(w, body)
	}))
}

func TestClinicalTrialsSearch(t *testing.T) {
	ts := ctgovTestServer(http.StatusOK, sampleCTGovJSON)
	defer ts.Close()

	old := clinicalTrialsBase
	clinicalTrialsBase = ts.URL
	defer func() { clinicalTrialsBase = old }()

	s := &ClinicalTrialsSource{Client: ts.Client(), UserAgent: "test/0.1"}
	records, err := s.Search(context.Background(), "GLP1 agonists depression", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	// Study with an empty NCT ID is skipped.
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}

	r0 := records[0]
	if r0.ID != "NCT04512345" {
		t.Errorf("ID = %q, want NCT04512345", r0.ID)
	}
	if r0.Source != types.SourceClinicalTrials {
		t.Errorf("Source = %q, want %q", r0.Source, types.SourceClinicalTrials)
	}
	// Official title wins over brief title.
	if r0.Title != "A Phase 2 Trial of GLP-1 Receptor Agonists in Treatment-Resistant Depression" {
		t.Errorf("Title = %q", r0.Title)
	}
	if r0.URL != "https://clinicaltrials.gov/study/NCT04512345" {
		t.Errorf("URL = %q", r0.URL)
	}
	if r0.Status != "RECRUITING" {
		t.Errorf("Status = %q", r0.Status)
	}
	if r0.Enrollment != 120 {
		t.Errorf("Enrollment = %d, want 120", r0.Enrollment)
	}
	if len(r0.Phases) != 1 || r0.Phases[0] != "PHASE2" {
		t.Errorf("Phases = %v, want [PHASE2]", r0.Phases)
	}
	if len(r0.Interventions) != 2 || r0.Interventions[0] != "Semaglutide" {
		t.Errorf("Interventions = %v", r0.Interventions)
	}
	if len(r0.PrimaryOutcomes) != 1 || r0.PrimaryOutcomes[0] != "Change in MADRS score" {
		t.Errorf("PrimaryOutcomes = %v", r0.PrimaryOutcomes)
	}
	// Only references with a PMID are kept.
	if len(r0.Publications) != 1 || r0.Publications[0] != "31535829" {
		t.Errorf("Publications = %v, want [31535829]", r0.Publications)
	}

	// The record with no official title falls back to the brief title.
	if records[1].Title != "Brief Only" {
		t.Errorf("Title = %q, want Brief Only", records[1].Title)
	}
}

func TestClinicalTrialsSearchHTTPError(t *testing.T) {
	ts := ctgovTestServer(http.StatusInternalServerError, "oops")
	defer ts.Close()

	old := clinicalTrialsBase
	clinicalTrialsBase = ts.URL
	defer func() { clinicalTrialsBase = old }()

	s := &ClinicalTrialsSource{Client: ts.Client(), UserAgent: "test/0.1"}
	_, err := s.Search(context.Background(), "anything", 5)
	if err == nil {
		t.Fatal("expected error for HTTP 500")
	}
}

func TestClinicalTrialsSearchMalformedJSON(t *testing.T) {
	ts := ctgovTestServer(http.StatusOK, "{not json")
	defer ts.Close()

	old := clinicalTrialsBase
	clinicalTrialsBase = ts.URL
	defer func() { clinicalTrialsBase = old }()

	s := &ClinicalTrialsSource{Client: ts.Client(), UserAgent: "test/0.1"}
	_, err := s.Search(context.Background(), "anything", 5)
	if err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}
