package enrich

import (
	"fmt"

	"github.com/jmchantrein/anklume/types"
)

// HostCIDR is what the host sentinel endpoint expands to.
const HostCIDR = "0.0.0.0/0"

// Rule is one primitive directional allow rule, ready for a downstream
// firewall rule generator.
type Rule struct {
	Src         string         `yaml:"src"`
	Dst         string         `yaml:"dst"`
	Protocol    types.Protocol `yaml:"protocol"`
	Ports       types.Ports    `yaml:"ports"`
	Description string         `yaml:"description,omitempty"`
}

// ExpandPolicies lowers every policy of an enriched document to primitive
// (src CIDR, dst CIDR, protocol, ports) rules, in declaration order. A
// bidirectional policy yields its reverse rule immediately after the forward
// one. Endpoints must already have resolved addresses, so this runs on the
// enriched document only.
func ExpandPolicies(doc *types.Document) ([]Rule, error) {
	var rules []Rule
	for i := range doc.Policies {
		p := &doc.Policies[i]

		src, err := endpointCIDR(doc, p.From)
		if err != nil {
			return nil, fmt.Errorf("policy %d: %w", i+1, err)
		}
		dst, err := endpointCIDR(doc, p.To)
		if err != nil {
			return nil, fmt.Errorf("policy %d: %w", i+1, err)
		}

		rules = append(rules, Rule{
			Src:         src,
			Dst:         dst,
			Protocol:    p.Protocol,
			Ports:       p.Ports,
			Description: p.Description,
		})
		if p.Bidirectional {
			rules = append(rules, Rule{
				Src:         dst,
				Dst:         src,
				Protocol:    p.Protocol,
				Ports:       p.Ports,
				Description: p.Description,
			})
		}
	}
	return rules, nil
}

func endpointCIDR(doc *types.Document, ep string) (string, error) {
	if ep == types.HostSentinel {
		return HostCIDR, nil
	}
	if dom := doc.FindDomain(ep); dom != nil {
		subnet, err := doc.Global.DomainSubnet(dom.SubnetID)
		if err != nil {
			return "", err
		}
		return subnet.String(), nil
	}
	if m, _ := doc.FindMachine(ep); m != nil {
		if m.IP == "" {
			return "", fmt.Errorf("machine %q has no address; expand policies after enrichment", ep)
		}
		return m.IP + "/32", nil
	}
	return "", fmt.Errorf("endpoint %q is not a domain, a machine, or %q", ep, types.HostSentinel)
}
