package pipeline

import (
	"github.com/jmchantrein/anklume/enrich"
	"github.com/jmchantrein/anklume/orphan"
	"github.com/jmchantrein/anklume/render"
	"github.com/jmchantrein/anklume/types"
)

// Options carries the run configuration shared by all stages.
type Options struct {
	SourcePath string
	OutputDir  string
	DryRun     bool
	Prune      bool
}

// SyncContext carries all state through the sync pipeline.
type SyncContext struct {
	Opts    Options
	Verbose bool

	// Doc is the merged user document; Enriched is its validated,
	// enriched successor. Stages never mutate Doc.
	Doc      *types.Document
	Enriched *types.Document

	Rules     []enrich.Rule
	Artifacts []render.Artifact
	Plan      *render.Plan

	Orphans     []orphan.Orphan
	PruneResult *orphan.PruneResult

	Warnings []string
	Written  []string // relative paths actually written by the apply phase
}

// NewSyncContext creates a SyncContext for the given options and document.
func NewSyncContext(opts Options, doc *types.Document) *SyncContext {
	return &SyncContext{Opts: opts, Doc: doc}
}

// AddWarning appends a warning message to the sync context.
func (sc *SyncContext) AddWarning(msg string) {
	sc.Warnings = append(sc.Warnings, msg)
}
