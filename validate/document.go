package validate

import (
	"fmt"
	"net/netip"
	"regexp"

	"github.com/jmchantrein/anklume/types"
)

var (
	namePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

	knownTrust = map[types.TrustLevel]bool{
		types.TrustTrusted:   true,
		types.TrustSemi:      true,
		types.TrustUntrusted: true,
	}
	knownKinds = map[types.MachineKind]bool{
		types.KindContainer: true,
		types.KindVM:        true,
	}
	knownProtocols = map[types.Protocol]bool{
		types.ProtoTCP: true,
		types.ProtoUDP: true,
		types.ProtoAll: true,
	}
)

// Result holds errors and warnings collected over a whole document.
type Result struct {
	Errors   []string
	Warnings []string
}

// IsValid returns true if there are no validation errors.
func (r *Result) IsValid() bool {
	return len(r.Errors) == 0
}

func (r *Result) errorf(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Error carries the full violation list out of a failed validation pass so
// callers can print every violation, not just a summary.
type Error struct {
	Violations []string
}

func (e *Error) Error() string {
	return fmt.Sprintf("validation failed: %d violation(s)", len(e.Violations))
}

// Err converts a failed result into an *Error, or nil when valid.
func (r *Result) Err() error {
	if r.IsValid() {
		return nil
	}
	return &Error{Violations: r.Errors}
}

// Document runs every cross-entity invariant over the document and returns
// the full list of violations. It is invoked twice per run: on the raw user
// document and again after enrichment, with identical rules.
func Document(doc *types.Document) *Result {
	r := &Result{}

	validateGlobal(r, doc)

	domainByID := map[int]string{}
	machineDomain := map[string]string{}
	addrOwner := map[string]string{}

	for i := range doc.Domains {
		dom := &doc.Domains[i]

		if !namePattern.MatchString(dom.Name) {
			r.errorf("domain %q: name must match %s", dom.Name, namePattern)
		}
		if prev := doc.FindDomain(dom.Name); prev != dom {
			r.errorf("domain %q: name already used by an earlier domain", dom.Name)
		}

		if dom.SubnetID < 0 || dom.SubnetID > 255 {
			r.errorf("domain %q: subnet_id %d out of range 0..255", dom.Name, dom.SubnetID)
		} else if owner, dup := domainByID[dom.SubnetID]; dup {
			r.errorf("domain %q: subnet_id %d already used by domain %q", dom.Name, dom.SubnetID, owner)
		} else {
			domainByID[dom.SubnetID] = dom.Name
		}

		if dom.Trust != "" && !knownTrust[dom.Trust] {
			r.errorf("domain %q: trust %q must be one of: trusted, semi, untrusted", dom.Name, dom.Trust)
		}

		seenProfiles := map[string]bool{}
		for _, p := range dom.Profiles {
			if !namePattern.MatchString(p.Name) {
				r.errorf("profile %q in domain %q: name must match %s", p.Name, dom.Name, namePattern)
			}
			if seenProfiles[p.Name] {
				r.errorf("profile %q in domain %q: duplicate profile name", p.Name, dom.Name)
			}
			seenProfiles[p.Name] = true
		}

		for j := range dom.Machines {
			validateMachine(r, doc, dom, &dom.Machines[j], machineDomain, addrOwner)
		}
	}

	validateGPU(r, doc)
	validatePolicies(r, doc)

	return r
}

func validateGlobal(r *Result, doc *types.Document) {
	g := doc.Global
	if err := types.ValidateBasePrefix(g.BasePrefix); err != nil {
		r.errorf("global: %v", err)
	}
	if g.DefaultImage == "" {
		r.errorf("global: default_image is required")
	}
	if g.GPUPolicy != types.GPUExclusive && g.GPUPolicy != types.GPUShared {
		r.errorf("global: gpu_policy %q must be one of: exclusive, shared", g.GPUPolicy)
	}
	if g.FirewallMode != types.FirewallHost && g.FirewallMode != types.FirewallVM {
		r.errorf("global: firewall_mode %q must be one of: host, vm", g.FirewallMode)
	}
	if g.AIPolicy.Mode != types.AIOpen && g.AIPolicy.Mode != types.AIExclusive {
		r.errorf("global: ai_policy.mode %q must be one of: open, exclusive", g.AIPolicy.Mode)
	}
	for trust, offset := range g.TrustOffsets {
		if !knownTrust[trust] {
			r.errorf("global: trust_offsets key %q is not a trust level", trust)
		}
		if offset < 0 || offset > 255 {
			r.errorf("global: trust_offsets[%s] %d out of range 0..255", trust, offset)
		}
	}
}

func validateMachine(r *Result, doc *types.Document, dom *types.Domain, m *types.Machine, machineDomain, addrOwner map[string]string) {
	if !namePattern.MatchString(m.Name) {
		r.errorf("machine %q in domain %q: name must match %s", m.Name, dom.Name, namePattern)
	}

	// Machine names are unique across the whole document so downstream
	// tool lookups by name stay unambiguous.
	if owner, dup := machineDomain[m.Name]; dup {
		r.errorf("machine %q in domain %q: name already used in domain %q", m.Name, dom.Name, owner)
	} else {
		machineDomain[m.Name] = dom.Name
	}

	if !knownKinds[m.Kind] {
		r.errorf("machine %q in domain %q: type %q must be one of: container, vm", m.Name, dom.Name, m.Kind)
	}

	if m.IP != "" {
		validateAddress(r, doc, dom, m, addrOwner)
	}

	for _, ref := range m.Profiles {
		if dom.FindProfile(ref) == nil {
			r.errorf("machine %q in domain %q: profile %q not defined in this domain", m.Name, dom.Name, ref)
		}
	}
}

func validateAddress(r *Result, doc *types.Document, dom *types.Domain, m *types.Machine, addrOwner map[string]string) {
	addr, err := netip.ParseAddr(m.IP)
	if err != nil {
		r.errorf("machine %q in domain %q: ip %q is not a valid address", m.Name, dom.Name, m.IP)
		return
	}

	subnet, err := doc.Global.DomainSubnet(dom.SubnetID)
	if err != nil {
		// Reported once by validateGlobal/subnet checks.
		return
	}
	if !subnet.Contains(addr) {
		r.errorf("machine %q in domain %q: ip %s outside domain subnet %s", m.Name, dom.Name, addr, subnet)
	}

	if gw, err := doc.Global.GatewayAddr(dom.SubnetID); err == nil && addr == gw {
		r.errorf("machine %q in domain %q: ip %s is the reserved gateway address", m.Name, dom.Name, addr)
	}

	if owner, dup := addrOwner[addr.String()]; dup {
		r.errorf("machine %q in domain %q: ip %s already assigned to machine %q", m.Name, dom.Name, addr, owner)
	} else {
		addrOwner[addr.String()] = m.Name
	}
}

func validateGPU(r *Result, doc *types.Document) {
	var gpuMachines []string
	for i := range doc.Domains {
		for j := range doc.Domains[i].Machines {
			if doc.Domains[i].Machines[j].GPU {
				gpuMachines = append(gpuMachines, doc.Domains[i].Machines[j].Name)
			}
		}
	}
	if len(gpuMachines) < 2 {
		return
	}
	switch doc.Global.GPUPolicy {
	case types.GPUShared:
		r.warnf("gpu_policy is shared: machines %v will contend for the GPU", gpuMachines)
	default:
		r.errorf("gpu_policy is exclusive but %d machines request the GPU: %v", len(gpuMachines), gpuMachines)
	}
}

func validatePolicies(r *Result, doc *types.Document) {
	aiDomain := doc.Global.AIPolicy.Domain
	aiTargets := 0

	for i := range doc.Policies {
		p := &doc.Policies[i]
		label := fmt.Sprintf("policy %d (%s -> %s)", i+1, p.From, p.To)

		for _, ep := range []string{p.From, p.To} {
			if ep == types.HostSentinel {
				continue
			}
			if doc.FindDomain(ep) != nil {
				continue
			}
			if m, _ := doc.FindMachine(ep); m != nil {
				continue
			}
			r.errorf("%s: endpoint %q is not a domain, a machine, or %q", label, ep, types.HostSentinel)
		}

		if !p.Ports.All && len(p.Ports.List) == 0 {
			r.errorf("%s: ports is required (a list of ports or \"all\")", label)
		}
		for _, port := range p.Ports.List {
			if port < 1 || port > 65535 {
				r.errorf("%s: port %d out of range 1..65535", label, port)
			}
		}

		if !knownProtocols[p.Protocol] {
			r.errorf("%s: protocol %q must be one of: tcp, udp, all", label, p.Protocol)
		}

		if aiDomain != "" && p.To == aiDomain {
			aiTargets++
		}
	}

	if doc.Global.AIPolicy.Mode == types.AIExclusive {
		def := doc.Global.AIPolicy.DefaultDomain
		if def == "" {
			r.errorf("global: ai_policy.default_domain is required when ai_policy.mode is exclusive")
		} else if doc.FindDomain(def) == nil {
			r.errorf("global: ai_policy.default_domain %q does not exist", def)
		}
		if def != "" && def == aiDomain {
			r.errorf("global: ai_policy.default_domain %q must not be the AI-services domain itself", def)
		}
		if aiTargets > 1 {
			r.errorf("global: at most one policy may target the AI-services domain %q when ai_policy.mode is exclusive, found %d", aiDomain, aiTargets)
		}
	}
}
