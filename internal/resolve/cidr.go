package resolve

import (
	"context"
	"iter"
	"net"
	"net/netip"

	gocidr "github.com/apparentlymart/go-cidr/cidr"

	"github.com/kush-sh/kush/internal/target"
)

// CidrResolver expands cidr: targets into one ip: target per host
// address in the block. IPv4 blocks of /30 and shorter exclude the
// network and broadcast addresses; IPv6 blocks and /31 and /32 IPv4
// blocks include every address.
type CidrResolver struct{}

// NewCidrResolver returns a CidrResolver.
func NewCidrResolver() *CidrResolver {
	return &CidrResolver{}
}

// ResolveFallible implements Resolve.
func (c *CidrResolver) ResolveFallible(_ context.Context, t *target.Target) iter.Seq2[*target.Target, error] {
	return func(yield func(*target.Target, error) bool) {
		prefix, ok := t.Cidr()
		if !ok {
			return
		}

		port, hasPort := t.Port()
		var portPtr *uint16
		if hasPort {
			portPtr = &port
		}
		user, _ := t.User()

		hosts, err := hostsOf(prefix)
		if err != nil {
			yield(nil, err)
			return
		}
		for _, ip := range hosts {
			child, err := target.NewIP(ip, portPtr, user)
			if err != nil {
				if !yield(nil, err) {
					return
				}
				continue
			}
			if !yield(child, nil) {
				return
			}
		}
	}
}

func hostsOf(prefix netip.Prefix) ([]netip.Addr, error) {
	network := prefix.Masked()
	base := network.Addr()
	ipnet := &net.IPNet{
		IP:   base.AsSlice(),
		Mask: net.CIDRMask(network.Bits(), base.BitLen()),
	}

	count := gocidr.AddressCount(ipnet)
	isV4 := base.Is4()
	hostBits := base.BitLen() - network.Bits()

	start, end := uint64(0), count
	if isV4 && hostBits >= 2 {
		start, end = 1, count-1
	}

	out := make([]netip.Addr, 0, end-start)
	for i := start; i < end; i++ {
		ip, err := gocidr.Host(ipnet, int(i))
		if err != nil {
			return nil, err
		}
		addr, ok := netip.AddrFromSlice(ip)
		if !ok {
			continue
		}
		if isV4 {
			addr = addr.Unmap()
		}
		out = append(out, addr)
	}
	return out, nil
}
