package resolve

import (
	"context"
	"fmt"
	"iter"
	"net"
	"net/netip"
	"strings"

	"github.com/miekg/dns"

	"github.com/kush-sh/kush/internal/target"
)

// DnsResolver resolves DNS queries - both forward and reverse - into
// targets, using the system's configured resolvers.
type DnsResolver struct {
	client  *dns.Client
	servers []string
	forward bool
	reverse bool
}

// NewDnsResolver builds a DnsResolver from /etc/resolv.conf. Forward
// resolution is enabled by default; reverse resolution is disabled.
func NewDnsResolver() (*DnsResolver, error) {
	cfg, err := dns.ClientConfigFromFile("/etc/resolv.conf")
	if err != nil {
		return nil, fmt.Errorf("loading resolv.conf: %w", err)
	}
	servers := make([]string, 0, len(cfg.Servers))
	for _, s := range cfg.Servers {
		servers = append(servers, net.JoinHostPort(s, cfg.Port))
	}
	return &DnsResolver{
		client:  new(dns.Client),
		servers: servers,
		forward: true,
		reverse: false,
	}, nil
}

// WithForward toggles forward (domain -> IP) resolution.
func (d *DnsResolver) WithForward(enable bool) *DnsResolver {
	d.forward = enable
	return d
}

// WithReverse toggles reverse (IP -> domain) resolution.
func (d *DnsResolver) WithReverse(enable bool) *DnsResolver {
	d.reverse = enable
	return d
}

// ResolveFallible implements Resolve.
func (d *DnsResolver) ResolveFallible(ctx context.Context, t *target.Target) iter.Seq2[*target.Target, error] {
	return func(yield func(*target.Target, error) bool) {
		host, ok := t.Host()
		if !ok {
			return
		}

		if domain, isDomain := host.Domain(); isDomain && d.forward {
			d.resolveDomain(ctx, domain, t, yield)
			return
		}
		if ip, isIP := host.IP(); isIP && d.reverse {
			d.resolveIP(ctx, ip, t, yield)
			return
		}
	}
}

func (d *DnsResolver) exchange(ctx context.Context, msg *dns.Msg) (*dns.Msg, error) {
	var lastErr error
	for _, server := range d.servers {
		resp, _, err := d.client.ExchangeContext(ctx, msg, server)
		if err == nil {
			return resp, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no DNS servers configured")
	}
	return nil, lastErr
}

func (d *DnsResolver) resolveDomain(ctx context.Context, name string, t *target.Target, yield func(*target.Target, error) bool) {
	port, hasPort := t.Port()
	var portPtr *uint16
	if hasPort {
		portPtr = &port
	}
	user, _ := t.User()

	fqdn := dns.Fqdn(name)
	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		msg := new(dns.Msg)
		msg.SetQuestion(fqdn, qtype)
		resp, err := d.exchange(ctx, msg)
		if err != nil {
			if !yield(nil, err) {
				return
			}
			continue
		}
		for _, rr := range resp.Answer {
			var ip netip.Addr
			switch rec := rr.(type) {
			case *dns.A:
				ip, _ = netip.AddrFromSlice(rec.A.To4())
			case *dns.AAAA:
				ip, _ = netip.AddrFromSlice(rec.AAAA.To16())
			default:
				continue
			}
			if !ip.IsValid() {
				continue
			}
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

func (d *DnsResolver) resolveIP(ctx context.Context, ip netip.Addr, t *target.Target, yield func(*target.Target, error) bool) {
	port, hasPort := t.Port()
	var portPtr *uint16
	if hasPort {
		portPtr = &port
	}
	user, _ := t.User()

	reverseName, err := dns.ReverseAddr(ip.String())
	if err != nil {
		yield(nil, err)
		return
	}
	msg := new(dns.Msg)
	msg.SetQuestion(reverseName, dns.TypePTR)
	resp, err := d.exchange(ctx, msg)
	if err != nil {
		yield(nil, err)
		return
	}
	for _, rr := range resp.Answer {
		ptr, ok := rr.(*dns.PTR)
		if !ok {
			continue
		}
		domain := strings.TrimSuffix(ptr.Ptr, ".")
		child, err := target.NewDNS(domain, portPtr, user)
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
