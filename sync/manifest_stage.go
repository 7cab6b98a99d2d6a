package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/jmchantrein/anklume/pipeline"
)

// ManifestStage records what the run generated in .anklume/sync-manifest.json.
// The manifest is deliberately timestamp-free so two runs over the same
// document produce byte-identical trees.
type ManifestStage struct{}

func (s *ManifestStage) Name() string { return "write-sync-manifest" }

func (s *ManifestStage) Execute(ctx context.Context, sc *pipeline.SyncContext) error {
	if sc.Opts.DryRun {
		return nil
	}

	files := make([]string, 0, len(sc.Artifacts))
	for _, a := range sc.Artifacts {
		files = append(files, filepath.ToSlash(a.Path))
	}
	sort.Strings(files)

	machines := 0
	for i := range sc.Enriched.Domains {
		machines += len(sc.Enriched.Domains[i].Machines)
	}

	manifest := map[string]any{
		"source":        sc.Opts.SourcePath,
		"domains":       len(sc.Enriched.Domains),
		"machines":      machines,
		"policy_rules":  len(sc.Rules),
		"firewall_mode": sc.Enriched.Global.FirewallMode,
		"files":         files,
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling sync manifest: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Join(sc.Opts.OutputDir, ".anklume")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	outPath := filepath.Join(dir, "sync-manifest.json")
	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return fmt.Errorf("writing sync manifest: %w", err)
	}
	return nil
}
