// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/pharma-agent/internal/httputil"
	"github.com/pdiddy/pharma-agent/pkg/types"
)

// clinicalTrialsBase is the ClinicalTrials.gov v2 studies endpoint. Declared
// as a var so tests can substitute an httptest server.
var clinicalTrialsBase = "https://clinicaltrials.gov/api/v2/studies"

// ctgovFields lists the study fields requested from the API. Keeping the
// field list fixed bounds response size.
const ctgovFields = "NCTId,BriefTitle,OfficialTitle,Phase,Condition,InterventionName,StudyType,LeadSponsorName,BriefSummary,EnrollmentCount,EligibilityCriteria,OutcomeMeasure,ReferencesModule"

// ClinicalTrialsSource queries the ClinicalTrials.gov v2 API.
type ClinicalTrialsSource struct {
	Client    *http.Client
	UserAgent string
}

// Name returns the source tag.
func (s *ClinicalTrialsSource) Name() types.SourceTag { return types.SourceClinicalTrials }

// Search queries ClinicalTrials.gov and shapes each study into a RawRecord.
func (s *ClinicalTrialsSource) Search(ctx context.Context, query string, limit int) ([]types.RawRecord, error) {
	if limit <= 0 {
		limit = 5
	}

	params := url.Values{
		"query.term": {query},
		"pageSize":   {strconv.Itoa(limit)},
		"fields":     {ctgovFields},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, clinicalTrialsBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, s.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("ClinicalTrials.gov request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ClinicalTrials.gov returned HTTP %d", resp.StatusCode)
	}

	var page ctgovPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("parsing ClinicalTrials.gov response: %w", err)
	}

	var records []types.RawRecord
	for _, study := range page.Studies {
		p := study.ProtocolSection

		nctID := p.Identification.NCTID
		if nctID == "" {
			continue
		}

		title := p.Identification.OfficialTitle
		if title == "" {
			title = p.Identification.BriefTitle
		}

		var interventions []string
		for _, iv := range p.ArmsInterventions.Interventions {
			if iv.Name != "" {
				interventions = append(interventions, iv.Name)
			}
		}

		var outcomes []string
		for _, o := range p.Outcomes.PrimaryOutcomes {
			if o.Measure != "" {
				outcomes = append(outcomes, o.Measure)
			}
		}

		records = append(records, types.RawRecord{
			ID:                  nctID,
			Source:              types.SourceClinicalTrials,
			Title:               title,
			URL:                 "https://clinicaltrials.gov/study/" + nctID,
			Status:              p.Status.OverallStatus,
			Phases:              p.Design.Phases,
			StudyType:           p.Design.StudyType,
			Enrollment:          p.Design.EnrollmentInfo.Count,
			Conditions:          p.Conditions.Conditions,
			Interventions:       interventions,
			Summary:             p.Description.BriefSummary,
			EligibilityCriteria: p.Eligibility.EligibilityCriteria,
			PrimaryOutcomes:     outcomes,
			Publications:        referencePMIDs(p.References.References),
		})
	}
	return records, nil
}

// referencePMIDs collects the cross-referenced PubMed identifiers.
func referencePMIDs(refs []ctgovReference) []string {
	var pmids []string
	for _, ref := range refs {
		if strings.TrimSpace(ref.PMID) != "" {
			pmids = append(pmids, strings.TrimSpace(ref.PMID))
		}
	}
	return pmids
}

// ClinicalTrials.gov v2 API JSON structures.
type ctgovPage struct {
	Studies []ctgovStudy `json:"studies"`
}

type ctgovStudy struct {
	ProtocolSection ctgovProtocol `json:"protocolSection"`
}

type ctgovProtocol struct {
	Identification    ctgovIdentification    `json:"identificationModule"`
	Status            ctgovStatus            `json:"statusModule"`
	Design            ctgovDesign            `json:"designModule"`
	Conditions        ctgovConditions        `json:"conditionsModule"`
	ArmsInterventions ctgovArmsInterventions `json:"armsInterventionsModule"`
	Description       ctgovDescription       `json:"descriptionModule"`
	Eligibility       ctgovEligibility       `json:"eligibilityModule"`
	Outcomes          ctgovOutcomes          `json:"outcomesModule"`
	References        ctgovReferences        `json:"referencesModule"`
}

type ctgovIdentification struct {
	NCTID         string `json:"nctId"`
	BriefTitle    string `json:"briefTitle"`
	OfficialTitle string `json:"officialTitle"`
}

type ctgovStatus struct {
	OverallStatus string `json:"overallStatus"`
}

type ctgovDesign struct {
	Phases         []string            `json:"phases"`
	StudyType      string              `json:"studyType"`
	EnrollmentInfo ctgovEnrollmentInfo `json:"enrollmentInfo"`
}

type ctgovEnrollmentInfo struct {
	Count int `json:"count"`
}

type ctgovConditions struct {
	Conditions []string `json:"conditions"`
}

type ctgovArmsInterventions struct {
	Interventions []ctgovIntervention `json:"interventions"`
}

type ctgovIntervention struct {
	Name string `json:"name"`
}

type ctgovDescription struct {
	BriefSummary string `json:"briefSummary"`
}

type ctgovEligibility struct {
	EligibilityCriteria string `json:"eligibilityCriteria"`
}

type ctgovOutcomes struct {
	PrimaryOutcomes []ctgovOutcome `json:"primaryOutcomes"`
}

type ctgovOutcome struct {
	Measure string `json:"measure"`
}

type ctgovReferences struct {
	References []ctgovReference `json:"references"`
}

type ctgovReference struct {
	PMID     string `json:"pmid"`
	Citation string `json:"citation"`
}
