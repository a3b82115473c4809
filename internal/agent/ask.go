// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agent

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/pharma-agent/pkg/types"
)

// maxContextBytes bounds the study context sent with a follow-up question.
const maxContextBytes = 15000

// Answerer answers a question from a prepared study context. The OpenAI
// backend implements it; tests supply a stub.
type Answerer interface {
	Answer(ctx context.Context, studyContext, question string) (string, error)
}

// Answer responds to a follow-up question using only the ranked studies as
// context. The answer is grounded: the model is instructed to cite studies
// and to say when the studies do not cover the question.
func Answer(ctx context.Context, backend Answerer, studies []*types.Study, question string) (string, error) {
	if len(studies) == 0 {
		return "", fmt.Errorf("no studies available to answer from")
	}

	answer, err := backend.Answer(ctx, BuildAnswerContext(studies), question)
	if err != nil {
		return "", fmt.Errorf("answering question: %w", err)
	}
	return answer, nil
}

// BuildAnswerContext renders the ranked studies into the bounded context
// string the answering prompt consumes.
func BuildAnswerContext(studies []*types.Study) string {
	var parts []string
	for i, s := range studies {
		parts = append(parts,
			fmt.Sprintf("Study %d: %s (%s)", i+1, s.Title, s.Source),
			"Summary: "+s.Summary,
			"Biomarkers: "+s.Biomarkers,
			"Adverse Events: "+s.AdverseEvents,
			"Demographics: "+s.Demographics,
			"Enrollment: "+s.Enrollment,
			fmt.Sprintf("Relevance Score: %d", s.RelevanceScore),
			"---",
		)
	}

	context := strings.Join(parts, "\n")
	if len(context) > maxContextBytes {
		// Back off to a rune boundary so the truncated tail stays valid UTF-8.
		cut := maxContextBytes
		for cut > 0 && !utf8.RuneStart(context[cut]) {
			cut--
		}
		context = context[:cut]
	}
	return context
}
