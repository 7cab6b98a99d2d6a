package sync

import (
	"context"
	"fmt"

	"github.com/jmchantrein/anklume/orphan"
	"github.com/jmchantrein/anklume/pipeline"
)

// OrphanStage scans the output tree for artifacts whose entity is gone from
// the document. Detection is informational; removal happens only with the
// explicit prune option, and protected orphans are skipped with a warning.
type OrphanStage struct{}

func (s *OrphanStage) Name() string { return "detect-orphans" }

func (s *OrphanStage) Execute(ctx context.Context, sc *pipeline.SyncContext) error {
	orphans, err := orphan.Detect(sc.Opts.OutputDir, sc.Enriched)
	if err != nil {
		return err
	}
	sc.Orphans = orphans

	if !sc.Opts.Prune || sc.Opts.DryRun || len(orphans) == 0 {
		return nil
	}

	res, err := orphan.Prune(sc.Opts.OutputDir, orphans)
	if err != nil {
		return err
	}
	sc.PruneResult = res
	for _, o := range res.Skipped {
		sc.AddWarning(fmt.Sprintf("orphan %s is protected (ephemeral: false), not removed", o.Path))
	}
	return nil
}
