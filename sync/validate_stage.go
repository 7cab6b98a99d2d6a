// Package sync implements the stages a synchronize run is assembled from:
// validate, enrich, revalidate, render, write, orphan scan, manifest.
package sync

import (
	"context"

	"github.com/jmchantrein/anklume/pipeline"
	"github.com/jmchantrein/anklume/validate"
)

// ValidateStage runs the structural schema pass and the semantic pass over
// the raw user document. Violations from both are reported together.
type ValidateStage struct{}

func (s *ValidateStage) Name() string { return "validate-document" }

func (s *ValidateStage) Execute(ctx context.Context, sc *pipeline.SyncContext) error {
	structural, err := validate.SchemaViolations(sc.Doc)
	if err != nil {
		return err
	}

	r := validate.Document(sc.Doc)
	r.Errors = append(structural, r.Errors...)

	for _, w := range r.Warnings {
		sc.AddWarning(w)
	}
	return r.Err()
}

// RevalidateStage re-runs the identical semantic rules over the enriched
// document. It exists to catch violations introduced by synthesized
// entities, e.g. an auto-created machine colliding with a user address.
type RevalidateStage struct{}

func (s *RevalidateStage) Name() string { return "revalidate-enriched" }

func (s *RevalidateStage) Execute(ctx context.Context, sc *pipeline.SyncContext) error {
	r := validate.Document(sc.Enriched)
	// Warnings were already reported for the user document; only new
	// errors matter here.
	return r.Err()
}
