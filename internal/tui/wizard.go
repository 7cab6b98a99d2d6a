package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jmchantrein/anklume/util"
)

// WizardResult is what the init wizard collects.
type WizardResult struct {
	ProjectName  string
	FirewallMode string
	GPUPolicy    string
}

type wizardStep int

const (
	stepName wizardStep = iota
	stepFirewall
	stepGPU
	stepDone
)

type selectOption struct {
	label string
	value string
	desc  string
}

// wizardModel is a compact three-step init wizard: project name, firewall
// mode, GPU policy.
type wizardModel struct {
	styles *StyleSet

	step      wizardStep
	name      textinput.Model
	nameErr   string
	options   []selectOption
	cursor    int
	result    WizardResult
	cancelled bool
}

var firewallOptions = []selectOption{
	{label: "Host nftables", value: "host", desc: "filter on the hypervisor host"},
	{label: "Firewall VM", value: "vm", desc: "dedicated gateway VM in the admin domain"},
}

var gpuOptions = []selectOption{
	{label: "Exclusive", value: "exclusive", desc: "one machine may claim the GPU"},
	{label: "Shared", value: "shared", desc: "several machines share it"},
}

func newWizardModel(theme TermTheme) wizardModel {
	ti := textinput.New()
	ti.Placeholder = "my-lab"
	ti.CharLimit = 64
	ti.Focus()

	return wizardModel{
		styles:  NewStyleSet(theme),
		step:    stepName,
		name:    ti,
		options: firewallOptions,
	}
}

func (m wizardModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m wizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if ok && (key.String() == "ctrl+c" || key.String() == "esc") {
		m.cancelled = true
		return m, tea.Quit
	}

	switch m.step {
	case stepName:
		if ok && key.String() == "enter" {
			name := util.Slugify(m.name.Value())
			if name == "" {
				m.nameErr = "project name must contain letters or digits"
				return m, nil
			}
			m.result.ProjectName = name
			m.step = stepFirewall
			m.options = firewallOptions
			m.cursor = 0
			return m, nil
		}
		var cmd tea.Cmd
		m.name, cmd = m.name.Update(msg)
		m.nameErr = ""
		return m, cmd

	case stepFirewall, stepGPU:
		if !ok {
			return m, nil
		}
		switch key.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.options)-1 {
				m.cursor++
			}
		case "enter":
			picked := m.options[m.cursor].value
			if m.step == stepFirewall {
				m.result.FirewallMode = picked
				m.step = stepGPU
				m.options = gpuOptions
				m.cursor = 0
			} else {
				m.result.GPUPolicy = picked
				m.step = stepDone
				return m, tea.Quit
			}
		}
	}
	return m, nil
}

func (m wizardModel) View() string {
	s := m.styles
	var b strings.Builder

	b.WriteString("\n  " + s.Title.Render("anklume init") + "\n\n")

	switch m.step {
	case stepName:
		b.WriteString("  " + s.Label.Render("Project name") + "\n\n")
		b.WriteString("  " + s.InputBorder.Render(m.name.View()) + "\n")
		if m.nameErr != "" {
			b.WriteString("  " + s.ErrorTxt.Render("✗ "+m.nameErr) + "\n")
		}
		if v := util.Slugify(m.name.Value()); v != "" {
			b.WriteString("  " + s.DimTxt.Render(fmt.Sprintf("→ ./%s/anklume.yml", v)) + "\n")
		}
	case stepFirewall, stepGPU:
		label := "Firewall mode"
		if m.step == stepGPU {
			label = "GPU policy"
		}
		b.WriteString("  " + s.Label.Render(label) + "\n\n")
		for i, opt := range m.options {
			line := fmt.Sprintf("%s - %s", opt.label, opt.desc)
			if i == m.cursor {
				b.WriteString("  " + s.ActiveBorder.Render("◉ "+line) + "\n")
			} else {
				b.WriteString("  " + s.InputBorder.Render(s.DimTxt.Render("○ "+line)) + "\n")
			}
		}
	case stepDone:
		return ""
	}

	b.WriteString("\n  " + s.DimTxt.Render("enter confirm · esc cancel") + "\n")
	return b.String()
}

// RunWizard drives the interactive init wizard and returns the collected
// answers, or an error when cancelled.
func RunWizard(theme TermTheme) (*WizardResult, error) {
	p := tea.NewProgram(newWizardModel(theme))
	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("running wizard: %w", err)
	}
	m, ok := final.(wizardModel)
	if !ok || m.cancelled || m.step != stepDone {
		return nil, fmt.Errorf("wizard cancelled")
	}
	return &m.result, nil
}
