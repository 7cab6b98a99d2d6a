package render

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
)

// WriteError reports a filesystem failure during the apply phase. All
// content is computed before any write starts, so this is always a
// permission or transport problem, never a derivation one.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("writing %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Change is one target file with its current and desired content.
type Change struct {
	Path   string // relative to the output root
	Abs    string
	Exists bool
	Old    []byte
	New    []byte
}

// Changed reports whether applying would modify the file.
func (c *Change) Changed() bool {
	return !c.Exists || !bytes.Equal(c.Old, c.New)
}

// Plan holds the fully computed desired state of the output tree. Building
// a plan only reads; applying it only writes.
type Plan struct {
	OutputDir string
	Changes   []Change
}

// BuildPlan reads every target file under outputDir and computes its final
// content by splicing the artifact's managed region into it. No file is
// modified.
func BuildPlan(outputDir string, artifacts []Artifact) (*Plan, error) {
	plan := &Plan{OutputDir: outputDir}
	for _, a := range artifacts {
		abs := filepath.Join(outputDir, a.Path)

		var old []byte
		exists := false
		if data, err := os.ReadFile(abs); err == nil {
			old = data
			exists = true
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading %s: %w", abs, err)
		}

		plan.Changes = append(plan.Changes, Change{
			Path:   a.Path,
			Abs:    abs,
			Exists: exists,
			Old:    old,
			New:    Splice(old, Region(a.Payload)),
		})
	}
	return plan, nil
}

// ChangedCount returns how many files applying would touch.
func (p *Plan) ChangedCount() int {
	n := 0
	for i := range p.Changes {
		if p.Changes[i].Changed() {
			n++
		}
	}
	return n
}

// Apply writes every changed file. Unchanged files are left alone so a
// second run over the same document touches nothing.
func (p *Plan) Apply() error {
	for i := range p.Changes {
		c := &p.Changes[i]
		if !c.Changed() {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(c.Abs), 0755); err != nil {
			return &WriteError{Path: c.Abs, Err: err}
		}
		if err := os.WriteFile(c.Abs, c.New, 0644); err != nil {
			return &WriteError{Path: c.Abs, Err: err}
		}
	}
	return nil
}
