// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package format renders ranked studies for the CLI. Every Study field is
// sentinel-valued rather than absent, so rendering never branches on
// nullability.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/pharma-agent/pkg/types"
)

// NoResultsMessage is shown when no source produced any record.
const NoResultsMessage = "No relevant records found in ClinicalTrials.gov / PubMed / NEJM within the specified timeframe.\n\nTry refining your search terms (e.g., specific drug or condition)."

// Markdown writes the ranked studies as human-readable Markdown sections.
func Markdown(studies []*types.Study, w io.Writer) {
	if len(studies) == 0 {
		fmt.Fprintln(w, NoResultsMessage)
		return
	}

	for i, s := range studies {
		if i > 0 {
			fmt.Fprint(w, "\n\n---\n\n")
		}
		fmt.Fprint(w, Study(s))
	}
	fmt.Fprintln(w)
}

// Study renders one study in the fixed field layout.
func Study(s *types.Study) string {
	citation := citationTag(s)

	studyType := s.StudyType
	if studyType == "" {
		studyType = "Not specified"
	}
	typeLine := strings.TrimSpace(studyType + " " + s.Phase)

	publications := "None listed"
	if len(s.Publications) > 0 {
		publications = strings.Join(s.Publications, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "### Title: %s\n", s.Title)
	fmt.Fprintf(&b, "%s %s\n\n", s.Summary, citation)
	fmt.Fprintf(&b, "- **Identifier**: %s ([Link](%s)) %s\n", s.ID, s.URL, citation)
	fmt.Fprintf(&b, "- **Type**: %s\n", typeLine)
	fmt.Fprintf(&b, "- **Enrollment**: %s\n", s.Enrollment)
	fmt.Fprintf(&b, "- **Demographics**: %s\n", s.Demographics)
	fmt.Fprintf(&b, "- **Exposure**: %s\n", s.Exposure)
	fmt.Fprintf(&b, "- **Endpoints**: %s\n", s.Endpoints)
	fmt.Fprintf(&b, "- **Biomarkers**: %s / %s\n", s.Biomarkers, s.ProteinData)
	fmt.Fprintf(&b, "- **Biology Note**: %s\n", s.BiologyNote)
	fmt.Fprintf(&b, "- **Adverse Events**: %s\n", s.AdverseEvents)
	fmt.Fprintf(&b, "  - *Unexpected Non-Serious*: %s\n", s.UnexpectedAEs)
	fmt.Fprintf(&b, "- **Publications**: %s\n\n", publications)
	fmt.Fprintf(&b, "*Relevance Score*: %d/100 (%s)\n", s.RelevanceScore, s.ScoreJustification)
	fmt.Fprintf(&b, "*Next Steps*: %s", s.NextSteps)
	return b.String()
}

// JSON writes the ranked studies as indented JSON. An empty batch renders
// as an empty list, never null.
func JSON(studies []*types.Study, w io.Writer) error {
	if studies == nil {
		studies = []*types.Study{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(studies)
}

// YAML writes the ranked studies as a YAML document. An empty batch renders
// as an empty list, never null.
func YAML(studies []*types.Study, w io.Writer) error {
	if studies == nil {
		studies = []*types.Study{}
	}
	data, err := yaml.Marshal(studies)
	if err != nil {
		return fmt.Errorf("marshaling studies: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// citationTag builds the bracketed source citation for a study.
func citationTag(s *types.Study) string {
	return fmt.Sprintf("[%s:%s]", s.Source, s.ID)
}
