// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sources retrieves raw clinical-research records from external APIs
// and shapes them into the common RawRecord form. Each source implements the
// Source interface per the Strategy pattern; a failing source contributes
// nothing to a batch instead of aborting it.
package sources

import (
	"context"

	"github.com/pdiddy/pharma-agent/pkg/types"
)

// Source searches a single external API. Implementations return at most
// limit records; limit bounds the remote request, not a local post-filter.
// An error means the whole call yielded nothing — the orchestrator logs it
// and continues with the other sources.
type Source interface {
	Name() types.SourceTag
	Search(ctx context.Context, query string, limit int) ([]types.RawRecord, error)
}
