package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jmchantrein/anklume/config"
	"github.com/jmchantrein/anklume/enrich"
	"github.com/jmchantrein/anklume/validate"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Print the expanded firewall rules for the source description",
	RunE:  runRules,
}

func init() {
	rulesCmd.Flags().StringVar(&sourcePath, "source", "", "source file or directory (default: discover anklume.yml / anklume.d)")
}

func runRules(cmd *cobra.Command, args []string) error {
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

	r := validate.Document(doc)
	if err := r.Err(); err != nil {
		for _, e := range r.Errors {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", e)
		}
		return fmt.Errorf("validation failed: %d error(s)", len(r.Errors))
	}

	enriched, err := enrich.Document(doc)
	if err != nil {
		return err
	}
	rules, err := enrich.ExpandPolicies(enriched)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SRC\tDST\tPROTO\tPORTS\tDESCRIPTION")
	for _, rule := range rules {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			rule.Src, rule.Dst, rule.Protocol, formatPorts(rule.Ports.All, rule.Ports.List), rule.Description)
	}
	return w.Flush()
}

func formatPorts(all bool, list []int) string {
	if all {
		return "all"
	}
	parts := make([]string, 0, len(list))
	for _, p := range list {
		parts = append(parts, strconv.Itoa(p))
	}
	return strings.Join(parts, ",")
}
