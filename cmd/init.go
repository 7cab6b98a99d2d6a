package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/spf13/cobra"

	"github.com/jmchantrein/anklume/internal/tui"
)

var (
	useDefaults bool
	force       bool
)

var initCmd = &cobra.Command{
	Use:   "init [name]",
	Short: "Scaffold a starter source description",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVar(&useDefaults, "defaults", false, "skip the wizard and scaffold with defaults")
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing anklume.yml")
}

const scaffoldTemplate = `# {{.ProjectName}} - anklume source description.
# Run "anklume sync" to generate the output tree from this file.
global:
  base_prefix: "10.42"
  default_image: "images:debian/12"
  gpu_policy: {{.GPUPolicy}}
  firewall_mode: {{.FirewallMode}}

domains:
  - name: admin
    subnet_id: 0
    trust: trusted
    ephemeral: false
    machines:
      - name: admin-ctrl
        roles: [base]

  - name: work
    subnet_id: 1
    machines:
      - name: work-dev
        roles: [base]

policies:
  - from: admin
    to: work
    ports: [22]
    description: admin ssh into the work domain
`

func runInit(cmd *cobra.Command, args []string) error {
	var res *tui.WizardResult

	if useDefaults {
		res = &tui.WizardResult{ProjectName: "anklume-lab", FirewallMode: "host", GPUPolicy: "exclusive"}
		if len(args) > 0 {
			res.ProjectName = args[0]
		}
	} else {
		var err error
		res, err = tui.RunWizard(tui.DetectTheme(themeOverride))
		if err != nil {
			return err
		}
	}

	dir := res.ProjectName
	target := filepath.Join(dir, "anklume.yml")
	if _, err := os.Stat(target); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", target)
	}

	tmpl, err := template.New("scaffold").Parse(scaffoldTemplate)
	if err != nil {
		return fmt.Errorf("parsing scaffold template: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, res); err != nil {
		return fmt.Errorf("rendering scaffold: %w", err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	if err := os.WriteFile(target, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", target, err)
	}

	fmt.Printf("Scaffolded %s. Edit it, then run: anklume sync --source %s\n", target, target)
	return nil
}
