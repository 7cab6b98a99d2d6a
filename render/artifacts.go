package render

import (
	"fmt"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/jmchantrein/anklume/enrich"
	"github.com/jmchantrein/anklume/types"
)

// Kind identifies which entity kind an artifact belongs to.
type Kind string

const (
	KindGlobalVars Kind = "global-vars"
	KindInventory  Kind = "inventory"
	KindDomainVars Kind = "domain-vars"
	KindHostVars   Kind = "host-vars"
)

// Artifact is one target file: its path relative to the output root, the
// entity it was derived from, and the managed-region payload.
type Artifact struct {
	Path    string
	Kind    Kind
	Entity  string
	Payload string
}

// Artifact path conventions. The orphan detector relies on these to map
// files back to entity kinds.
func InventoryPath(domain string) string {
	return filepath.Join("inventory", domain+".yml")
}

func DomainVarsPath(domain string) string {
	return filepath.Join("group_vars", domain+".yml")
}

func HostVarsPath(machine string) string {
	return filepath.Join("host_vars", machine+".yml")
}

// GlobalVarsPath is the single document-wide vars artifact.
func GlobalVarsPath() string {
	return filepath.Join("group_vars", "all.yml")
}

type aiVars struct {
	Mode          types.AIMode `yaml:"mode"`
	Domain        string       `yaml:"domain,omitempty"`
	DefaultDomain string       `yaml:"default_domain,omitempty"`
}

type globalVars struct {
	BasePrefix   string                   `yaml:"anklume_base_prefix"`
	DefaultImage string                   `yaml:"anklume_default_image"`
	GPUPolicy    types.GPUPolicy          `yaml:"anklume_gpu_policy"`
	FirewallMode types.FirewallMode       `yaml:"anklume_firewall_mode"`
	AIPolicy     aiVars                   `yaml:"anklume_ai_policy"`
	TrustOffsets map[types.TrustLevel]int `yaml:"anklume_trust_offsets,omitempty"`
	Domains      []string                 `yaml:"anklume_domains"`
	Rules        []enrich.Rule            `yaml:"anklume_firewall_rules"`
}

type domainVars struct {
	Domain    string           `yaml:"anklume_domain"`
	SubnetID  int              `yaml:"anklume_subnet_id"`
	Subnet    string           `yaml:"anklume_subnet"`
	Gateway   string           `yaml:"anklume_gateway"`
	Trust     types.TrustLevel `yaml:"anklume_trust,omitempty"`
	Ephemeral bool             `yaml:"anklume_ephemeral"`
	Profiles  []types.Profile  `yaml:"anklume_profiles,omitempty"`
}

type hostVars struct {
	Domain      string                       `yaml:"anklume_domain"`
	IP          string                       `yaml:"anklume_ip"`
	Kind        types.MachineKind            `yaml:"anklume_type"`
	Image       string                       `yaml:"anklume_image"`
	GPU         bool                         `yaml:"anklume_gpu,omitempty"`
	Ephemeral   bool                         `yaml:"anklume_ephemeral"`
	Synthesized bool                         `yaml:"anklume_synthesized,omitempty"`
	Profiles    []string                     `yaml:"anklume_profiles,omitempty"`
	Roles       []string                     `yaml:"anklume_roles,omitempty"`
	Config      map[string]string            `yaml:"anklume_config,omitempty"`
	Devices     map[string]map[string]string `yaml:"anklume_devices,omitempty"`
}

// inventoryHost is one hosts: entry of an Ansible YAML inventory.
type inventoryHost struct {
	AnsibleHost string `yaml:"ansible_host"`
}

// ComputeArtifacts derives every target artifact from an enriched document:
// one inventory and one vars file per domain, one vars file per machine, and
// the single global vars file. Output order follows declaration order with
// the global artifact first.
func ComputeArtifacts(doc *types.Document, rules []enrich.Rule) ([]Artifact, error) {
	var out []Artifact

	domains := make([]string, 0, len(doc.Domains))
	for i := range doc.Domains {
		domains = append(domains, doc.Domains[i].Name)
	}

	gv := globalVars{
		BasePrefix:   doc.Global.BasePrefix,
		DefaultImage: doc.Global.DefaultImage,
		GPUPolicy:    doc.Global.GPUPolicy,
		FirewallMode: doc.Global.FirewallMode,
		AIPolicy: aiVars{
			Mode:          doc.Global.AIPolicy.Mode,
			Domain:        doc.Global.AIPolicy.Domain,
			DefaultDomain: doc.Global.AIPolicy.DefaultDomain,
		},
		TrustOffsets: doc.Global.TrustOffsets,
		Domains:      domains,
		Rules:        rules,
	}
	a, err := makeArtifact(GlobalVarsPath(), KindGlobalVars, "global", gv)
	if err != nil {
		return nil, err
	}
	out = append(out, a)

	for i := range doc.Domains {
		dom := &doc.Domains[i]

		subnet, err := doc.Global.DomainSubnet(dom.SubnetID)
		if err != nil {
			return nil, fmt.Errorf("domain %q: %w", dom.Name, err)
		}
		gateway, err := doc.Global.GatewayAddr(dom.SubnetID)
		if err != nil {
			return nil, fmt.Errorf("domain %q: %w", dom.Name, err)
		}

		hosts := map[string]inventoryHost{}
		for j := range dom.Machines {
			hosts[dom.Machines[j].Name] = inventoryHost{AnsibleHost: dom.Machines[j].IP}
		}
		inventory := map[string]map[string]map[string]inventoryHost{
			dom.Name: {"hosts": hosts},
		}
		a, err := makeArtifact(InventoryPath(dom.Name), KindInventory, dom.Name, inventory)
		if err != nil {
			return nil, err
		}
		out = append(out, a)

		dv := domainVars{
			Domain:    dom.Name,
			SubnetID:  dom.SubnetID,
			Subnet:    subnet.String(),
			Gateway:   gateway.String(),
			Trust:     dom.Trust,
			Ephemeral: dom.EphemeralOrDefault(),
			Profiles:  dom.Profiles,
		}
		a, err = makeArtifact(DomainVarsPath(dom.Name), KindDomainVars, dom.Name, dv)
		if err != nil {
			return nil, err
		}
		out = append(out, a)

		for j := range dom.Machines {
			m := &dom.Machines[j]
			image := m.Image
			if image == "" {
				image = doc.Global.DefaultImage
			}
			hv := hostVars{
				Domain:      dom.Name,
				IP:          m.IP,
				Kind:        m.Kind,
				Image:       image,
				GPU:         m.GPU,
				Ephemeral:   dom.MachineEphemeral(m),
				Synthesized: m.Synthesized,
				Profiles:    m.Profiles,
				Roles:       m.Roles,
				Config:      m.Config,
				Devices:     m.Devices,
			}
			a, err := makeArtifact(HostVarsPath(m.Name), KindHostVars, m.Name, hv)
			if err != nil {
				return nil, err
			}
			out = append(out, a)
		}
	}

	return out, nil
}

func makeArtifact(path string, kind Kind, entity string, payload any) (Artifact, error) {
	data, err := yaml.Marshal(payload)
	if err != nil {
		return Artifact{}, fmt.Errorf("rendering %s: %w", path, err)
	}
	return Artifact{Path: path, Kind: kind, Entity: entity, Payload: string(data)}, nil
}
