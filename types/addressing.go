package types

import (
	"fmt"
	"net/netip"
)

// Host octets reserved inside every domain subnet.
const (
	// GatewayOctet is the subnet's highest host address, reserved for the
	// domain gateway. Never assignable to a machine.
	GatewayOctet = 254

	// FirewallOctet is the fixed host address given to a synthesized
	// firewall VM in the admin domain.
	FirewallOctet = 253
)

// ValidateBasePrefix checks that the addressing base is two dotted decimal
// octets forming a valid /16 (e.g. "10.42").
func ValidateBasePrefix(base string) error {
	if _, err := netip.ParsePrefix(base + ".0.0/16"); err != nil {
		return fmt.Errorf("base_prefix %q is not two octets of a valid /16", base)
	}
	return nil
}

// DomainSubnet computes the /24 owned by the domain with the given subnet id.
func (g GlobalConfig) DomainSubnet(id int) (netip.Prefix, error) {
	p, err := netip.ParsePrefix(fmt.Sprintf("%s.%d.0/24", g.BasePrefix, id))
	if err != nil {
		return netip.Prefix{}, fmt.Errorf("subnet for id %d under base_prefix %q: %w", id, g.BasePrefix, err)
	}
	return p, nil
}

// HostAddr returns host number n inside the domain subnet for the given id.
func (g GlobalConfig) HostAddr(id, n int) (netip.Addr, error) {
	a, err := netip.ParseAddr(fmt.Sprintf("%s.%d.%d", g.BasePrefix, id, n))
	if err != nil {
		return netip.Addr{}, fmt.Errorf("host %d in subnet id %d: %w", n, id, err)
	}
	return a, nil
}

// GatewayAddr returns the reserved gateway address of the domain subnet.
func (g GlobalConfig) GatewayAddr(id int) (netip.Addr, error) {
	return g.HostAddr(id, GatewayOctet)
}

// FirewallAddr returns the fixed address used when synthesizing the firewall
// VM in the admin domain.
func (g GlobalConfig) FirewallAddr(id int) (netip.Addr, error) {
	return g.HostAddr(id, FirewallOctet)
}
