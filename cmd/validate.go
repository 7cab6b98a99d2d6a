package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmchantrein/anklume/config"
	"github.com/jmchantrein/anklume/enrich"
	"github.com/jmchantrein/anklume/validate"
)

var strict bool

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the source description without writing anything",
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&sourcePath, "source", "", "source file or directory (default: discover anklume.yml / anklume.d)")
	validateCmd.Flags().BoolVar(&strict, "strict", false, "treat warnings as errors")
}

func runValidate(cmd *cobra.Command, args []string) error {
	src := sourcePath
	if src == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}
		src, err = config.Discover(wd)
		if err != nil {
			return err
		}
	}

	doc, err := config.Load(src)
	if err != nil {
		return err
	}

	structural, err := validate.SchemaViolations(doc)
	if err != nil {
		return err
	}

	r := validate.Document(doc)
	r.Errors = append(structural, r.Errors...)

	// Enrichment and the second pass run too: a document is only usable
	// if its synthesized entities also hold up.
	if r.IsValid() {
		enriched, err := enrich.Document(doc)
		if err != nil {
			return err
		}
		second := validate.Document(enriched)
		r.Errors = append(r.Errors, second.Errors...)
	}

	for _, w := range r.Warnings {
		fmt.Fprintf(os.Stderr, "WARNING: %s\n", w)
	}
	for _, e := range r.Errors {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", e)
	}

	if strict && len(r.Warnings) > 0 {
		return fmt.Errorf("validation failed: %d warning(s) treated as errors in strict mode", len(r.Warnings))
	}
	if !r.IsValid() {
		return fmt.Errorf("validation failed: %d error(s)", len(r.Errors))
	}

	fmt.Println("Validation passed.")
	return nil
}
