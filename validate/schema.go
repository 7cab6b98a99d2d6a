// Package validate checks a merged document against the embedded JSON Schema
// and the cross-entity invariants. All violations are collected; nothing
// fails fast on the first error.
package validate

import (
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/jmchantrein/anklume/schemas"
	"github.com/jmchantrein/anklume/types"
)

var (
	compiledSchema *gojsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
)

func getSchema() (*gojsonschema.Schema, error) {
	compileOnce.Do(func() {
		loader := gojsonschema.NewBytesLoader(schemas.DocumentSchema)
		compiledSchema, compileErr = gojsonschema.NewSchema(loader)
	})
	return compiledSchema, compileErr
}

// SchemaViolations validates the document structure against the embedded
// schema. It returns one description per violation and an error only if the
// schema itself cannot be compiled or applied.
func SchemaViolations(doc *types.Document) ([]string, error) {
	schema, err := getSchema()
	if err != nil {
		return nil, fmt.Errorf("compiling document schema: %w", err)
	}

	// Round-trip through YAML so field names match the authored form.
	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshalling document for schema check: %w", err)
	}
	var generic map[string]any
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("normalizing document for schema check: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(generic))
	if err != nil {
		return nil, fmt.Errorf("validating document: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}

	errs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		errs = append(errs, e.String())
	}
	return errs, nil
}
