package sync

import (
	"context"

	"github.com/jmchantrein/anklume/pipeline"
	"github.com/jmchantrein/anklume/render"
)

// RenderStage computes every target artifact and the full write plan in
// memory. Nothing on disk changes here; the plan snapshot is also what the
// dry-run diff is printed from.
type RenderStage struct{}

func (s *RenderStage) Name() string { return "render-artifacts" }

func (s *RenderStage) Execute(ctx context.Context, sc *pipeline.SyncContext) error {
	artifacts, err := render.ComputeArtifacts(sc.Enriched, sc.Rules)
	if err != nil {
		return err
	}
	sc.Artifacts = artifacts

	plan, err := render.BuildPlan(sc.Opts.OutputDir, artifacts)
	if err != nil {
		return err
	}
	sc.Plan = plan
	return nil
}
