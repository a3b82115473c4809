// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"bytes"
	"text/template"
)

// extractionPromptTmpl instructs the model to extract the evidence fields
// for one record. The output must be a bare JSON object so it can be parsed
// without prose stripping.
var extractionPromptTmpl = template.Must(template.New("extraction").Parse(`You are an expert Pharma Discovery Data Scientist. Analyze this study/article for the query: "{{.Query}}".

Extract the following fields strictly based on the text provided. Do NOT hallucinate.
If a value is not found, use "Not reported".

Required Output JSON format:
{
    "summary": "1-2 sentence evidence-first summary",
    "enrollment": "Number of participants/subjects if mentioned",
    "demographics": "Age, sex, N=...",
    "exposure": "Dose, duration, etc.",
    "endpoints": "Primary endpoints, results if any",
    "biomarkers": "List biomarkers mentioned or 'Not reported'",
    "protein_data": "Protein expression data or 'Not reported'",
    "biology_note": "1-2 lines on mechanism/biology",
    "adverse_events": "List AEs or 'Not reported'",
    "unexpected_aes": "Any UNEXPECTED non-serious AEs? If none, say 'None identified'",
    "has_biomarker_match": boolean (true if relevant biomarkers found),
    "has_unexpected_ae": boolean (true if unexpected non-serious AE found),
    "missing_data_penalty": boolean (true if critical biomarker/AE data is explicitly missing vs just not in abstract),
    "next_steps": "One clear recommendation for next steps"
}

Respond with the JSON object only. Do not include any text outside it.

Data to Analyze:
{{.Payload}}
`))

// refinePromptTmpl converts a natural-language question into a keyword query
// suitable for medical database search.
var refinePromptTmpl = template.Must(template.New("refine").Parse(`You are a helpful research assistant. Convert the following natural language query into a simple, effective keyword string for a medical database search (ClinicalTrials.gov, PubMed).

Rules:
- Remove stop words (do you have, show me, find, etc.).
- Focus on: Drug names, Conditions, Mechanisms, Gene targets.
- OUTPUT ONLY THE KEYWORDS. No quotes, no explanations.

User Query: "{{.Query}}"
`))

// answerPromptTmpl answers a follow-up question strictly from the retrieved
// study context.
var answerPromptTmpl = template.Must(template.New("answer").Parse(`You are a research assistant answering questions about a specific set of clinical studies found by the user.

User Question: "{{.Question}}"

Available Study Context:
{{.Context}}

Instructions:
- Answer strictly based on the provided studies.
- The context includes fields for 'Enrollment', 'Relevance Score', 'Biomarkers', etc. USE THEM.
- If the answer isn't in the studies, say "The provided studies do not mention this."
- Cite specific studies (e.g., "Study 1 mentions...") when applicable.
`))

func renderExtractionPrompt(payload, query string) (string, error) {
	var buf bytes.Buffer
	err := extractionPromptTmpl.Execute(&buf, struct{ Payload, Query string }{payload, query})
	return buf.String(), err
}

func renderRefinePrompt(query string) (string, error) {
	var buf bytes.Buffer
	err := refinePromptTmpl.Execute(&buf, struct{ Query string }{query})
	return buf.String(), err
}

func renderAnswerPrompt(studyContext, question string) (string, error) {
	var buf bytes.Buffer
	err := answerPromptTmpl.Execute(&buf, struct{ Context, Question string }{studyContext, question})
	return buf.String(), err
}
