package cmd

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTestSource(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "anklume.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing anklume.yml: %v", err)
	}
	return path
}

func setSource(t *testing.T, path string) {
	t.Helper()
	old := sourcePath
	sourcePath = path
	t.Cleanup(func() { sourcePath = old })
}

func TestRunValidate_ValidSource(t *testing.T) {
	path := writeTestSource(t, `
global:
  base_prefix: "10.42"

domains:
  - name: admin
    subnet_id: 0
    machines:
      - name: admin-ctrl
`)
	setSource(t, path)

	if err := runValidate(nil, nil); err != nil {
		t.Fatalf("runValidate() error: %v", err)
	}
}

func TestRunValidate_InvalidSource(t *testing.T) {
	path := writeTestSource(t, `
global:
  base_prefix: "10.42"

domains:
  - name: admin
    subnet_id: 0
  - name: admin
    subnet_id: 1
`)
	setSource(t, path)

	if err := runValidate(nil, nil); err == nil {
		t.Fatal("runValidate() accepted a duplicate domain name")
	}
}

func TestRunValidate_StrictTreatsWarningsAsErrors(t *testing.T) {
	// gpu_policy: shared on a gpu machine is a warning, not an error.
	path := writeTestSource(t, `
global:
  base_prefix: "10.42"
  gpu_policy: shared

domains:
  - name: admin
    subnet_id: 0
    machines:
      - name: admin-ctrl
        gpu: true
      - name: admin-aux
        gpu: true
`)
	setSource(t, path)

	if err := runValidate(nil, nil); err != nil {
		t.Fatalf("non-strict run should pass: %v", err)
	}

	old := strict
	strict = true
	t.Cleanup(func() { strict = old })

	if err := runValidate(nil, nil); err == nil {
		t.Fatal("strict run should fail on warnings")
	}
}
