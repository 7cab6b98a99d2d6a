package sync

import (
	"context"

	"github.com/jmchantrein/anklume/enrich"
	"github.com/jmchantrein/anklume/pipeline"
)

// EnrichStage materializes implicit entities on a copy of the validated
// document and expands the network policies to primitive rules.
type EnrichStage struct{}

func (s *EnrichStage) Name() string { return "enrich-document" }

func (s *EnrichStage) Execute(ctx context.Context, sc *pipeline.SyncContext) error {
	enriched, err := enrich.Document(sc.Doc)
	if err != nil {
		return err
	}
	sc.Enriched = enriched

	rules, err := enrich.ExpandPolicies(enriched)
	if err != nil {
		return err
	}
	sc.Rules = rules
	return nil
}
