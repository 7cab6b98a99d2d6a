package sync

import "github.com/jmchantrein/anklume/pipeline"

// Stages returns the full sync pipeline in execution order.
func Stages() []pipeline.Stage {
	return []pipeline.Stage{
		&ValidateStage{},
		&EnrichStage{},
		&RevalidateStage{},
		&RenderStage{},
		&WriteStage{},
		&OrphanStage{},
		&ManifestStage{},
	}
}
