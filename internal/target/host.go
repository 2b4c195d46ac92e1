package target

import "net/netip"

// Host is the host part of a target: either an IP address or a
// domain name, never both.
type Host struct {
	ip     netip.Addr
	domain string
}

func hostFromIP(ip netip.Addr) Host {
	return Host{ip: ip.Unmap()}
}

func hostFromDomain(domain string) Host {
	return Host{domain: domain}
}

// IsValid reports whether the Host carries anything at all.
func (h Host) IsValid() bool {
	return h.ip.IsValid() || h.domain != ""
}

// IP returns the host's IP address, if it is one.
func (h Host) IP() (netip.Addr, bool) {
	return h.ip, h.ip.IsValid()
}

// Domain returns the host's domain name, if it is one.
func (h Host) Domain() (string, bool) {
	return h.domain, h.domain != ""
}

// String renders the host in URI authority form: IPv6 addresses are
// bracketed, everything else is literal.
func (h Host) String() string {
	if h.ip.IsValid() {
		if h.ip.Is6() {
			return "[" + h.ip.String() + "]"
		}
		return h.ip.String()
	}
	return h.domain
}
