package orphan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jmchantrein/anklume/enrich"
	"github.com/jmchantrein/anklume/render"
	"github.com/jmchantrein/anklume/types"
)

func testDoc(domains ...types.Domain) *types.Document {
	doc := &types.Document{Domains: domains}
	doc.ApplyDefaults()
	return doc
}

// generate runs the full render path into dir so the tree looks exactly like
// a previous sync left it.
func generate(t *testing.T, dir string, doc *types.Document) {
	t.Helper()
	enriched, err := enrich.Document(doc)
	if err != nil {
		t.Fatalf("enrich: %v", err)
	}
	artifacts, err := render.ComputeArtifacts(enriched, nil)
	if err != nil {
		t.Fatalf("artifacts: %v", err)
	}
	plan, err := render.BuildPlan(dir, artifacts)
	if err != nil {
		t.Fatalf("plan: %v", err)
	}
	if err := plan.Apply(); err != nil {
		t.Fatalf("apply: %v", err)
	}
}

func TestDetect_RemovedDomain(t *testing.T) {
	dir := t.TempDir()
	tr := true
	generate(t, dir, testDoc(
		types.Domain{Name: "admin", SubnetID: 0, Machines: []types.Machine{{Name: "admin-ctrl"}}},
		types.Domain{Name: "scratch", SubnetID: 5, Ephemeral: &tr, Machines: []types.Machine{{Name: "scratch-a"}}},
	))

	// The next document no longer declares scratch.
	current := testDoc(
		types.Domain{Name: "admin", SubnetID: 0, Machines: []types.Machine{{Name: "admin-ctrl"}}},
	)
	enriched, err := enrich.Document(current)
	if err != nil {
		t.Fatalf("enrich: %v", err)
	}

	orphans, err := Detect(dir, enriched)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(orphans) != 3 {
		t.Fatalf("expected 3 orphans (inventory, group_vars, host_vars), got %d: %+v", len(orphans), orphans)
	}

	byPath := map[string]Orphan{}
	for _, o := range orphans {
		byPath[o.Path] = o
	}
	for _, want := range []string{
		render.InventoryPath("scratch"),
		render.DomainVarsPath("scratch"),
		render.HostVarsPath("scratch-a"),
	} {
		o, ok := byPath[want]
		if !ok {
			t.Errorf("missing orphan %s", want)
			continue
		}
		if o.Protected {
			t.Errorf("%s: ephemeral entity wrongly protected", want)
		}
	}
}

func TestDetect_ProtectedWhenNotEphemeral(t *testing.T) {
	dir := t.TempDir()
	f := false
	generate(t, dir, testDoc(
		types.Domain{Name: "admin", SubnetID: 0, Machines: []types.Machine{{Name: "admin-ctrl"}}},
		types.Domain{Name: "vault", SubnetID: 3, Ephemeral: &f, Machines: []types.Machine{{Name: "vault-a"}}},
	))

	current := testDoc(
		types.Domain{Name: "admin", SubnetID: 0, Machines: []types.Machine{{Name: "admin-ctrl"}}},
	)
	enriched, err := enrich.Document(current)
	if err != nil {
		t.Fatalf("enrich: %v", err)
	}

	orphans, err := Detect(dir, enriched)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	for _, o := range orphans {
		if !o.Protected {
			t.Errorf("%s: non-ephemeral orphan must be protected", o.Path)
		}
	}
}

func TestDetect_IgnoresUnmanagedFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "host_vars"), 0755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	// A hand-written vars file with no managed region.
	if err := os.WriteFile(filepath.Join(dir, "host_vars", "pet.yml"), []byte("my_var: 1\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	enriched, err := enrich.Document(testDoc(
		types.Domain{Name: "admin", SubnetID: 0, Machines: []types.Machine{{Name: "admin-ctrl"}}},
	))
	if err != nil {
		t.Fatalf("enrich: %v", err)
	}

	orphans, err := Detect(dir, enriched)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	if len(orphans) != 0 {
		t.Fatalf("unmanaged file reported as orphan: %+v", orphans)
	}
}

func TestPrune(t *testing.T) {
	dir := t.TempDir()
	tr, f := true, false
	generate(t, dir, testDoc(
		types.Domain{Name: "admin", SubnetID: 0, Machines: []types.Machine{{Name: "admin-ctrl"}}},
		types.Domain{Name: "scratch", SubnetID: 5, Ephemeral: &tr, Machines: []types.Machine{{Name: "scratch-a"}}},
		types.Domain{Name: "vault", SubnetID: 3, Ephemeral: &f, Machines: []types.Machine{{Name: "vault-a"}}},
	))

	current := testDoc(
		types.Domain{Name: "admin", SubnetID: 0, Machines: []types.Machine{{Name: "admin-ctrl"}}},
	)
	enriched, err := enrich.Document(current)
	if err != nil {
		t.Fatalf("enrich: %v", err)
	}
	orphans, err := Detect(dir, enriched)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}

	res, err := Prune(dir, orphans)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if len(res.Removed) != 3 {
		t.Errorf("expected scratch's 3 files removed, got %d", len(res.Removed))
	}
	if len(res.Skipped) != 3 {
		t.Errorf("expected vault's 3 files skipped, got %d", len(res.Skipped))
	}

	if _, err := os.Stat(filepath.Join(dir, render.HostVarsPath("scratch-a"))); !os.IsNotExist(err) {
		t.Error("ephemeral orphan still on disk")
	}
	if _, err := os.Stat(filepath.Join(dir, render.HostVarsPath("vault-a"))); err != nil {
		t.Errorf("protected orphan was removed: %v", err)
	}
}
