// Package types holds the in-memory document model for an anklume source
// description: global addressing and policy settings, domains, machines,
// profiles, and cross-domain network policies.
package types

import (
	"bytes"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Reserved names and sentinels shared across the pipeline.
const (
	// AdminDomain is the administrative domain. Firewall VM synthesis
	// places the gateway machine here.
	AdminDomain = "admin"

	// FirewallMachine is the reserved gateway machine name. A user-declared
	// machine with this name suppresses synthesis.
	FirewallMachine = "anklume-fw"

	// HostSentinel is the policy endpoint keyword for the hypervisor host.
	HostSentinel = "host"
)

// MachineKind distinguishes containers from virtual machines.
type MachineKind string

const (
	KindContainer MachineKind = "container"
	KindVM        MachineKind = "vm"
)

// TrustLevel classifies a domain for addressing offsets.
type TrustLevel string

const (
	TrustTrusted   TrustLevel = "trusted"
	TrustSemi      TrustLevel = "semi"
	TrustUntrusted TrustLevel = "untrusted"
)

// GPUPolicy controls how many machines may request GPU access.
type GPUPolicy string

const (
	GPUExclusive GPUPolicy = "exclusive"
	GPUShared    GPUPolicy = "shared"
)

// FirewallMode selects where inter-domain filtering runs.
type FirewallMode string

const (
	FirewallHost FirewallMode = "host"
	FirewallVM   FirewallMode = "vm"
)

// AIMode controls access to the AI-services domain.
type AIMode string

const (
	AIOpen      AIMode = "open"
	AIExclusive AIMode = "exclusive"
)

// Protocol is a network policy protocol selector.
type Protocol string

const (
	ProtoTCP Protocol = "tcp"
	ProtoUDP Protocol = "udp"
	ProtoAll Protocol = "all"
)

// Document is the merged source description, shape-identical whether it was
// loaded from a single file or assembled from fragments.
type Document struct {
	Global   GlobalConfig `yaml:"global"`
	Domains  []Domain     `yaml:"domains"`
	Policies []Policy     `yaml:"policies,omitempty"`
}

// GlobalConfig carries document-wide settings. It is filled with defaults at
// load time and never mutated afterwards; every pipeline stage receives it as
// part of the document value.
type GlobalConfig struct {
	BasePrefix   string             `yaml:"base_prefix,omitempty"`
	DefaultImage string             `yaml:"default_image,omitempty"`
	GPUPolicy    GPUPolicy          `yaml:"gpu_policy,omitempty"`
	FirewallMode FirewallMode       `yaml:"firewall_mode,omitempty"`
	AIPolicy     AIPolicy           `yaml:"ai_policy,omitempty"`
	TrustOffsets map[TrustLevel]int `yaml:"trust_offsets,omitempty"`
}

// AIPolicy restricts which domain may reach the AI-services domain.
type AIPolicy struct {
	Mode          AIMode `yaml:"mode,omitempty"`
	Domain        string `yaml:"domain,omitempty"`
	DefaultDomain string `yaml:"default_domain,omitempty"`
}

// Domain is a named isolation boundary owning a /24 subnet, a set of
// profiles, and a set of machines.
type Domain struct {
	Name      string     `yaml:"name"`
	SubnetID  int        `yaml:"subnet_id"`
	Trust     TrustLevel `yaml:"trust,omitempty"`
	Ephemeral *bool      `yaml:"ephemeral,omitempty"`
	Profiles  []Profile  `yaml:"profiles,omitempty"`
	Machines  []Machine  `yaml:"machines,omitempty"`
}

// Profile is a reusable bundle of config/device overrides, referenced by
// machines of the same domain.
type Profile struct {
	Name    string                       `yaml:"name"`
	Config  map[string]string            `yaml:"config,omitempty"`
	Devices map[string]map[string]string `yaml:"devices,omitempty"`
}

// Machine is a container or VM inside exactly one domain.
type Machine struct {
	Name      string                       `yaml:"name"`
	Kind      MachineKind                  `yaml:"type,omitempty"`
	IP        string                       `yaml:"ip,omitempty"`
	Ephemeral *bool                        `yaml:"ephemeral,omitempty"`
	GPU       bool                         `yaml:"gpu,omitempty"`
	Image     string                       `yaml:"image,omitempty"`
	Profiles  []string                     `yaml:"profiles,omitempty"`
	Config    map[string]string            `yaml:"config,omitempty"`
	Devices   map[string]map[string]string `yaml:"devices,omitempty"`
	Roles     []string                     `yaml:"roles,omitempty"`

	// Synthesized marks machines materialized by enrichment rather than
	// authored by the user. Never serialized back into a source document.
	Synthesized bool `yaml:"-"`
}

// Ports is either an explicit port list or the "all" sentinel.
type Ports struct {
	All  bool
	List []int
}

// UnmarshalYAML accepts a sequence of integers or the literal string "all".
// Anything else is a type error; no coercion of alternate spellings.
func (p *Ports) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil || s != "all" {
			return fmt.Errorf("line %d: ports must be a list of integers or \"all\"", value.Line)
		}
		p.All = true
		return nil
	case yaml.SequenceNode:
		return value.Decode(&p.List)
	default:
		return fmt.Errorf("line %d: ports must be a list of integers or \"all\"", value.Line)
	}
}

// MarshalYAML renders the sentinel back as "all".
func (p Ports) MarshalYAML() (any, error) {
	if p.All {
		return "all", nil
	}
	return p.List, nil
}

// Policy is an explicit exception to the default deny-all cross-domain
// stance. From and To name a domain, a machine, or the host sentinel.
type Policy struct {
	From          string   `yaml:"from"`
	To            string   `yaml:"to"`
	Ports         Ports    `yaml:"ports,omitempty"`
	Protocol      Protocol `yaml:"protocol,omitempty"`
	Bidirectional bool     `yaml:"bidirectional,omitempty"`
	Description   string   `yaml:"description,omitempty"`
}

// ParseDocument decodes strict YAML into a Document. Unknown fields and
// mistyped values are errors; an empty document is valid and yields the zero
// Document.
func ParseDocument(data []byte) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return &Document{}, nil
		}
		return nil, err
	}
	return &doc, nil
}

// ApplyDefaults fills unset global fields. Called once by the loader after
// merging; enrichment and rendering rely on every field being populated.
func (d *Document) ApplyDefaults() {
	g := &d.Global
	if g.BasePrefix == "" {
		g.BasePrefix = "10.42"
	}
	if g.DefaultImage == "" {
		g.DefaultImage = "images:debian/12"
	}
	if g.GPUPolicy == "" {
		g.GPUPolicy = GPUExclusive
	}
	if g.FirewallMode == "" {
		g.FirewallMode = FirewallHost
	}
	if g.AIPolicy.Mode == "" {
		g.AIPolicy.Mode = AIOpen
	}
	if g.AIPolicy.Mode == AIExclusive && g.AIPolicy.Domain == "" {
		g.AIPolicy.Domain = "ollama"
	}
	for i := range d.Domains {
		dom := &d.Domains[i]
		for j := range dom.Machines {
			if dom.Machines[j].Kind == "" {
				dom.Machines[j].Kind = KindContainer
			}
		}
	}
	for i := range d.Policies {
		if d.Policies[i].Protocol == "" {
			d.Policies[i].Protocol = ProtoTCP
		}
	}
}

// FindDomain returns the named domain, or nil.
func (d *Document) FindDomain(name string) *Domain {
	for i := range d.Domains {
		if d.Domains[i].Name == name {
			return &d.Domains[i]
		}
	}
	return nil
}

// FindMachine returns the named machine and its domain, or nil, nil. Machine
// names are globally unique, so the first match is the only match in a valid
// document.
func (d *Document) FindMachine(name string) (*Machine, *Domain) {
	for i := range d.Domains {
		for j := range d.Domains[i].Machines {
			if d.Domains[i].Machines[j].Name == name {
				return &d.Domains[i].Machines[j], &d.Domains[i]
			}
		}
	}
	return nil, nil
}

// FindProfile resolves a profile name within a single domain.
func (dom *Domain) FindProfile(name string) *Profile {
	for i := range dom.Profiles {
		if dom.Profiles[i].Name == name {
			return &dom.Profiles[i]
		}
	}
	return nil
}

// EphemeralOrDefault resolves a domain's protection flag; unset means true
// (safe to recreate).
func (dom *Domain) EphemeralOrDefault() bool {
	if dom.Ephemeral == nil {
		return true
	}
	return *dom.Ephemeral
}

// MachineEphemeral resolves a machine's protection flag against its domain's
// default.
func (dom *Domain) MachineEphemeral(m *Machine) bool {
	if m.Ephemeral != nil {
		return *m.Ephemeral
	}
	return dom.EphemeralOrDefault()
}

// Clone returns a deep copy of the document. Enrichment transforms a copy so
// the user-authored document stays untouched.
func (d *Document) Clone() (*Document, error) {
	data, err := yaml.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("cloning document: %w", err)
	}
	clone, err := ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("cloning document: %w", err)
	}
	// Synthesized is not serialized; carry it across by position.
	for i := range d.Domains {
		for j := range d.Domains[i].Machines {
			clone.Domains[i].Machines[j].Synthesized = d.Domains[i].Machines[j].Synthesized
		}
	}
	return clone, nil
}
