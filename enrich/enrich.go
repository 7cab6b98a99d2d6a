// Package enrich materializes the entities and fields a source document
// leaves implicit: machine addresses, the firewall gateway VM, resolved
// protection flags, and expanded policy rules. Enrichment is a pure function
// from one validated document to a new one; the input is never mutated.
package enrich

import (
	"fmt"
	"net/netip"

	"github.com/jmchantrein/anklume/types"
)

// Resource sizing for a synthesized firewall VM.
const (
	firewallCPU    = "2"
	firewallMemory = "4GiB"
)

// ConflictError reports a structural prerequisite missing for enrichment,
// as opposed to a malformed user field.
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return "enrichment conflict: " + e.Reason
}

// Document returns an enriched deep copy of doc. The copy must pass the same
// validation rules as the original; the caller re-validates it before any
// file is written.
func Document(doc *types.Document) (*types.Document, error) {
	out, err := doc.Clone()
	if err != nil {
		return nil, err
	}

	if err := synthesizeFirewall(out); err != nil {
		return nil, err
	}
	if err := assignAddresses(out); err != nil {
		return nil, err
	}
	resolveEphemeral(out)

	return out, nil
}

// synthesizeFirewall creates the reserved gateway machine in the admin
// domain when firewall_mode is vm and the user did not declare one. A
// user-declared machine with the reserved name wins verbatim.
func synthesizeFirewall(doc *types.Document) error {
	if doc.Global.FirewallMode != types.FirewallVM {
		return nil
	}
	if m, _ := doc.FindMachine(types.FirewallMachine); m != nil {
		return nil
	}

	admin := doc.FindDomain(types.AdminDomain)
	if admin == nil {
		return &ConflictError{
			Reason: fmt.Sprintf("firewall_mode is vm but domain %q does not exist to hold the %s machine",
				types.AdminDomain, types.FirewallMachine),
		}
	}

	addr, err := doc.Global.FirewallAddr(admin.SubnetID)
	if err != nil {
		return &ConflictError{Reason: err.Error()}
	}

	ephemeral := false
	admin.Machines = append(admin.Machines, types.Machine{
		Name:      types.FirewallMachine,
		Kind:      types.KindVM,
		IP:        addr.String(),
		Ephemeral: &ephemeral,
		Config: map[string]string{
			"limits.cpu":    firewallCPU,
			"limits.memory": firewallMemory,
		},
		Synthesized: true,
	})
	return nil
}

// assignAddresses gives every machine without a static address the lowest
// unused host address of its domain subnet, in declaration order. The
// gateway address is never assignable. Determinism here is what makes
// re-running the generator on an unchanged document a no-op.
func assignAddresses(doc *types.Document) error {
	for i := range doc.Domains {
		dom := &doc.Domains[i]

		used := map[netip.Addr]bool{}
		for j := range dom.Machines {
			if ip := dom.Machines[j].IP; ip != "" {
				addr, err := netip.ParseAddr(ip)
				if err != nil {
					return fmt.Errorf("machine %q: ip %q: %w", dom.Machines[j].Name, ip, err)
				}
				used[addr] = true
			}
		}

		next := 1
		for j := range dom.Machines {
			m := &dom.Machines[j]
			if m.IP != "" {
				continue
			}
			addr, err := lowestFree(doc.Global, dom.SubnetID, used, &next)
			if err != nil {
				return fmt.Errorf("domain %q: %w", dom.Name, err)
			}
			m.IP = addr.String()
			used[addr] = true
		}
	}
	return nil
}

func lowestFree(g types.GlobalConfig, subnetID int, used map[netip.Addr]bool, next *int) (netip.Addr, error) {
	for ; *next < types.GatewayOctet; *next++ {
		addr, err := g.HostAddr(subnetID, *next)
		if err != nil {
			return netip.Addr{}, err
		}
		if !used[addr] {
			return addr, nil
		}
	}
	return netip.Addr{}, fmt.Errorf("subnet id %d has no free host addresses left", subnetID)
}

// resolveEphemeral pins the inherited protection flags onto every domain and
// machine so downstream consumers never re-derive them.
func resolveEphemeral(doc *types.Document) {
	for i := range doc.Domains {
		dom := &doc.Domains[i]
		domFlag := dom.EphemeralOrDefault()
		dom.Ephemeral = &domFlag
		for j := range dom.Machines {
			m := &dom.Machines[j]
			flag := domFlag
			if m.Ephemeral != nil {
				flag = *m.Ephemeral
			}
			m.Ephemeral = &flag
		}
	}
}
