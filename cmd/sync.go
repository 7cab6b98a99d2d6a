package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmchantrein/anklume/config"
	"github.com/jmchantrein/anklume/enrich"
	"github.com/jmchantrein/anklume/internal/tui"
	"github.com/jmchantrein/anklume/orphan"
	"github.com/jmchantrein/anklume/pipeline"
	"github.com/jmchantrein/anklume/render"
	"github.com/jmchantrein/anklume/sync"
	"github.com/jmchantrein/anklume/validate"
)

var (
	sourcePath string
	dryRun     bool
	prune      bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize the source description into the output tree",
	RunE:  runSync,
}

func init() {
	syncCmd.Flags().StringVar(&sourcePath, "source", "", "source file or directory (default: discover anklume.yml / anklume.d)")
	syncCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the diff without writing anything")
	syncCmd.Flags().BoolVar(&prune, "prune", false, "remove unprotected orphaned artifacts")
}

func runSync(cmd *cobra.Command, args []string) error {
	sc, err := runPipeline(cmd.Context())
	if err != nil {
		return reportPipelineError(err)
	}

	styles := tui.NewStyleSet(tui.DetectTheme(themeOverride))

	for _, w := range sc.Warnings {
		fmt.Fprintf(os.Stderr, "WARNING: %s\n", w)
	}

	if dryRun {
		printDiff(sc, styles)
	}

	reportOrphans(sc, styles)

	if dryRun {
		fmt.Printf("Dry run: %d of %d files would change.\n", sc.Plan.ChangedCount(), len(sc.Plan.Changes))
		return nil
	}

	fmt.Printf("Sync complete: %d files written, %d unchanged. Output: %s\n",
		len(sc.Written), len(sc.Plan.Changes)-len(sc.Written), outputDir)
	return nil
}

// runPipeline loads the source and drives the full stage pipeline.
func runPipeline(ctx context.Context) (*pipeline.SyncContext, error) {
	src := sourcePath
	if src == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		src, err = config.Discover(wd)
		if err != nil {
			return nil, err
		}
	}

	doc, err := config.Load(src)
	if err != nil {
		return nil, err
	}

	sc := pipeline.NewSyncContext(pipeline.Options{
		SourcePath: src,
		OutputDir:  outputDir,
		DryRun:     dryRun,
		Prune:      prune,
	}, doc)
	sc.Verbose = verbose

	p := pipeline.New(sync.Stages()...)
	if err := p.Run(ctx, sc); err != nil {
		return nil, err
	}
	return sc, nil
}

// reportPipelineError prints the full violation list when validation failed,
// and distinguishes enrichment conflicts from user-authored errors.
func reportPipelineError(err error) error {
	var verr *validate.Error
	if errors.As(err, &verr) {
		for _, v := range verr.Violations {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", v)
		}
		return fmt.Errorf("validation failed: %d error(s)", len(verr.Violations))
	}

	var cerr *enrich.ConflictError
	if errors.As(err, &cerr) {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", cerr.Reason)
		return errors.New("enrichment conflict: the document is missing a structural prerequisite")
	}

	var merr *config.MalformedSourceError
	if errors.As(err, &merr) {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", merr)
		return errors.New("source could not be parsed")
	}

	return err
}

func printDiff(sc *pipeline.SyncContext, styles *tui.StyleSet) {
	for i := range sc.Plan.Changes {
		c := &sc.Plan.Changes[i]
		if !c.Changed() {
			continue
		}
		fmt.Println(styles.Title.Render("--- " + c.Path))
		for _, line := range render.Diff(string(c.Old), string(c.New)) {
			switch line.Op {
			case '+':
				fmt.Println(styles.DiffAdd.Render("+ " + line.Text))
			case '-':
				fmt.Println(styles.DiffDel.Render("- " + line.Text))
			default:
				if verbose {
					fmt.Println(styles.DiffCtx.Render("  " + line.Text))
				}
			}
		}
		fmt.Println()
	}
}

func reportOrphans(sc *pipeline.SyncContext, styles *tui.StyleSet) {
	if len(sc.Orphans) == 0 {
		return
	}

	byKind := map[render.Kind][]orphan.Orphan{}
	var order []render.Kind
	for _, o := range sc.Orphans {
		if _, seen := byKind[o.Kind]; !seen {
			order = append(order, o.Kind)
		}
		byKind[o.Kind] = append(byKind[o.Kind], o)
	}

	fmt.Println(styles.WarnTxt.Render(fmt.Sprintf("%d orphaned artifact(s):", len(sc.Orphans))))
	for _, kind := range order {
		fmt.Printf("  %s:\n", kind)
		for _, o := range byKind[kind] {
			state := ""
			if o.Protected {
				state = "  (protected)"
			}
			fmt.Printf("    %s%s\n", o.Path, state)
		}
	}

	if sc.PruneResult != nil {
		for _, o := range sc.PruneResult.Removed {
			fmt.Println(styles.DimTxt.Render("removed " + o.Path))
		}
	} else if !prune {
		fmt.Println(styles.DimTxt.Render("run with --prune to remove unprotected orphans"))
	}
}
