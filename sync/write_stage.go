package sync

import (
	"context"

	"github.com/jmchantrein/anklume/pipeline"
)

// WriteStage applies the computed plan. On dry runs it does nothing; the
// caller prints the diff from the plan instead.
type WriteStage struct{}

func (s *WriteStage) Name() string { return "write-artifacts" }

func (s *WriteStage) Execute(ctx context.Context, sc *pipeline.SyncContext) error {
	if sc.Opts.DryRun {
		return nil
	}
	if err := sc.Plan.Apply(); err != nil {
		return err
	}
	for i := range sc.Plan.Changes {
		if sc.Plan.Changes[i].Changed() {
			sc.Written = append(sc.Written, sc.Plan.Changes[i].Path)
		}
	}
	return nil
}
