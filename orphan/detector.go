// Package orphan finds previously generated artifacts whose source entity is
// gone from the current document, and optionally removes the unprotected
// ones.
package orphan

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jmchantrein/anklume/render"
	"github.com/jmchantrein/anklume/types"
)

// Orphan is one stale artifact on disk.
type Orphan struct {
	Path   string // relative to the output root
	Kind   render.Kind
	Entity string

	// Protected is true when the artifact's recorded ephemeral flag is
	// false, or when the flag cannot be recovered. Protected orphans are
	// never removed, only reported.
	Protected bool
}

// Detect scans the output tree for generated files that no entity of the
// enriched document accounts for. Only files carrying a managed region are
// considered; anything else under the conventional directories is user
// property and ignored.
func Detect(outputDir string, doc *types.Document) ([]Orphan, error) {
	var orphans []Orphan

	domainNames := map[string]bool{}
	machineNames := map[string]bool{}
	for i := range doc.Domains {
		domainNames[doc.Domains[i].Name] = true
		for j := range doc.Domains[i].Machines {
			machineNames[doc.Domains[i].Machines[j].Name] = true
		}
	}

	scan := func(dir string, kind render.Kind, known map[string]bool) error {
		entries, err := os.ReadDir(filepath.Join(outputDir, dir))
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return fmt.Errorf("scanning %s: %w", dir, err)
		}
		for _, e := range entries {
			if e.IsDir() || filepath.Ext(e.Name()) != ".yml" {
				continue
			}
			entity := strings.TrimSuffix(e.Name(), ".yml")
			if entity == "all" && kind == render.KindDomainVars {
				continue // the global artifact, never an orphan
			}
			if known[entity] {
				continue
			}
			rel := filepath.Join(dir, e.Name())
			data, err := os.ReadFile(filepath.Join(outputDir, rel))
			if err != nil {
				return fmt.Errorf("reading %s: %w", rel, err)
			}
			payload, ok := render.Extract(data)
			if !ok {
				continue // no managed region: not ours
			}
			orphans = append(orphans, Orphan{
				Path:      rel,
				Kind:      kind,
				Entity:    entity,
				Protected: isProtected(payload),
			})
		}
		return nil
	}

	if err := scan("inventory", render.KindInventory, domainNames); err != nil {
		return nil, err
	}
	if err := scan("group_vars", render.KindDomainVars, domainNames); err != nil {
		return nil, err
	}
	if err := scan("host_vars", render.KindHostVars, machineNames); err != nil {
		return nil, err
	}

	resolveInventoryProtection(outputDir, orphans)
	return orphans, nil
}

// isProtected reads the recorded ephemeral flag out of a managed payload.
// An unreadable or missing flag counts as protected; destruction needs an
// explicit opt-in recorded at generation time.
func isProtected(payload string) bool {
	var vars struct {
		Ephemeral *bool `yaml:"anklume_ephemeral"`
	}
	if err := yaml.Unmarshal([]byte(payload), &vars); err != nil || vars.Ephemeral == nil {
		return true
	}
	return !*vars.Ephemeral
}

// resolveInventoryProtection copies a domain's protection flag onto its
// inventory orphan. Inventory files carry no vars themselves; the flag lives
// in the domain's group_vars artifact.
func resolveInventoryProtection(outputDir string, orphans []Orphan) {
	for i := range orphans {
		if orphans[i].Kind != render.KindInventory {
			continue
		}
		data, err := os.ReadFile(filepath.Join(outputDir, render.DomainVarsPath(orphans[i].Entity)))
		if err != nil {
			continue // no paired vars file: keep the conservative default
		}
		if payload, ok := render.Extract(data); ok {
			orphans[i].Protected = isProtected(payload)
		}
	}
}

// PruneResult reports what a destructive cleanup did.
type PruneResult struct {
	Removed []Orphan
	Skipped []Orphan
}

// Prune deletes unprotected orphans and reports protected ones as skipped.
// A failed removal aborts; everything removed so far stays removed.
func Prune(outputDir string, orphans []Orphan) (*PruneResult, error) {
	res := &PruneResult{}
	for _, o := range orphans {
		if o.Protected {
			res.Skipped = append(res.Skipped, o)
			continue
		}
		if err := os.Remove(filepath.Join(outputDir, o.Path)); err != nil {
			return res, fmt.Errorf("removing orphan %s: %w", o.Path, err)
		}
		res.Removed = append(res.Removed, o)
	}
	return res, nil
}
