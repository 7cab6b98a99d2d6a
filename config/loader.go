// Package config locates and loads an anklume source description, merging
// multi-file layouts into one document identical in shape to the single-file
// form.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/jmchantrein/anklume/types"
)

// Default source locations probed by Discover, in order.
const (
	DefaultFile = "anklume.yml"
	DefaultDir  = "anklume.d"
)

// Fragment names inside a directory layout.
const (
	globalFragment   = "global.yml"
	policiesFragment = "policies.yml"
	domainsSubdir    = "domains"
)

// MalformedSourceError reports a source file that could not be parsed. The
// wrapped yaml error carries the line/column context.
type MalformedSourceError struct {
	File string
	Err  error
}

func (e *MalformedSourceError) Error() string {
	return fmt.Sprintf("malformed source %s: %v", e.File, e.Err)
}

func (e *MalformedSourceError) Unwrap() error { return e.Err }

// Discover finds the default source in dir: anklume.yml if present,
// otherwise the anklume.d directory.
func Discover(dir string) (string, error) {
	file := filepath.Join(dir, DefaultFile)
	if info, err := os.Stat(file); err == nil && !info.IsDir() {
		return file, nil
	}
	d := filepath.Join(dir, DefaultDir)
	if info, err := os.Stat(d); err == nil && info.IsDir() {
		return d, nil
	}
	return "", fmt.Errorf("no source found in %s (looked for %s and %s/)", dir, DefaultFile, DefaultDir)
}

// Load reads the source at path, which is either a single document or a
// fragment directory, and returns the merged document with global defaults
// applied. On parse failure no partial document is returned.
func Load(path string) (*types.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading source %s: %w", path, err)
	}

	var doc *types.Document
	if info.IsDir() {
		doc, err = loadDir(path)
	} else {
		doc, err = loadFile(path)
	}
	if err != nil {
		return nil, err
	}

	doc.ApplyDefaults()
	return doc, nil
}

func loadFile(path string) (*types.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading source %s: %w", path, err)
	}
	doc, err := types.ParseDocument(data)
	if err != nil {
		return nil, &MalformedSourceError{File: path, Err: err}
	}
	return doc, nil
}

// loadDir merges global.yml, then domains/*.yml in lexicographic order, then
// policies.yml. The fixed order keeps repeated runs reproducible.
func loadDir(dir string) (*types.Document, error) {
	base, err := loadFile(filepath.Join(dir, globalFragment))
	if err != nil {
		return nil, err
	}

	domainDir := filepath.Join(dir, domainsSubdir)
	entries, err := os.ReadDir(domainDir)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading %s: %w", domainDir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".yml" {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(domainDir, name)
		frag, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		if err := mergeFragment(base, frag, path); err != nil {
			return nil, err
		}
	}

	polPath := filepath.Join(dir, policiesFragment)
	if _, err := os.Stat(polPath); err == nil {
		frag, err := loadFile(polPath)
		if err != nil {
			return nil, err
		}
		if err := mergeFragment(base, frag, polPath); err != nil {
			return nil, err
		}
	}

	return base, nil
}

// mergeFragment appends a fragment's domains and policies onto the base
// document. Fragments may not redefine global settings or a domain name the
// base already holds.
func mergeFragment(base, frag *types.Document, path string) error {
	if !zeroGlobal(frag.Global) {
		return &MalformedSourceError{
			File: path,
			Err:  fmt.Errorf("global settings belong in %s only", globalFragment),
		}
	}
	for _, dom := range frag.Domains {
		if base.FindDomain(dom.Name) != nil {
			return &MalformedSourceError{
				File: path,
				Err:  fmt.Errorf("domain %q already defined by an earlier fragment", dom.Name),
			}
		}
		base.Domains = append(base.Domains, dom)
	}
	base.Policies = append(base.Policies, frag.Policies...)
	return nil
}

// zeroGlobal reports whether a parsed global block is empty. GlobalConfig
// holds a map, so it is not directly comparable.
func zeroGlobal(g types.GlobalConfig) bool {
	return g.BasePrefix == "" && g.DefaultImage == "" && g.GPUPolicy == "" &&
		g.FirewallMode == "" && g.AIPolicy == (types.AIPolicy{}) && len(g.TrustOffsets) == 0
}
