// Package target defines the uniform, URI-shaped value every part of
// kush addresses work by: a single Target type tagged with a Kind
// (ip, cidr, dns, ssh, file, k8s), parsed from either a canonical URI
// or one of a handful of ergonomic short forms (bare IPs, socket
// addresses, CIDR blocks, localhost). Every constructed Target
// round-trips through its string form.
package target

import (
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"strconv"
	"strings"
)

// sshDefaultPort is what Port returns for an ssh target that names
// none explicitly.
const sshDefaultPort uint16 = 22

// Target is one addressable thing: a host to ping, a block or name
// to expand, a file of further queries, or a pod to exec in. Targets
// are immutable after construction; share them freely across tasks.
type Target struct {
	kind Kind

	user     string
	password string

	host    Host
	port    uint16
	hasPort bool

	// prefix is set for cidr targets only.
	prefix netip.Prefix

	// path is set for file targets only.
	path string

	// Kubernetes coordinates, set for k8s targets only.
	cluster   string
	namespace string
	pod       string
	container string
}

// Parse reads a target from its string form. Short forms are tried
// first: a bare IP, a socket address, a CIDR block, or localhost
// (with optional port), each canonicalized to URI form on output.
// Everything else must be a URI with a recognized scheme.
func Parse(s string) (*Target, error) {
	if t, ok := parseShortForm(s); ok {
		return t, nil
	}

	u, err := url.Parse(s)
	if err != nil {
		return nil, &UnparsableTargetError{Raw: s}
	}
	kind, ok := kindFromScheme(u.Scheme)
	if !ok {
		return nil, &UnparsableTargetError{Raw: s}
	}

	t := &Target{kind: kind}
	if u.User != nil {
		t.user = u.User.Username()
		t.password, _ = u.User.Password()
	}

	switch kind {
	case Ip:
		if err := t.setIPHost(u); err != nil {
			return nil, &UnparsableTargetError{Raw: s}
		}
	case Cidr:
		addr, err := parseURLAddr(u)
		if err != nil {
			return nil, &UnparsableTargetError{Raw: s}
		}
		bits, err := strconv.Atoi(strings.TrimPrefix(u.Path, "/"))
		if err != nil || bits < 0 || bits > addr.BitLen() {
			return nil, &UnparsableTargetError{Raw: s}
		}
		t.prefix = netip.PrefixFrom(addr, bits)
		t.host = hostFromIP(addr)
		if err := t.setPort(u); err != nil {
			return nil, &UnparsableTargetError{Raw: s}
		}
	case Dns:
		name := u.Hostname()
		if name == "" {
			return nil, &UnparsableTargetError{Raw: s}
		}
		t.host = hostFromDomain(name)
		if err := t.setPort(u); err != nil {
			return nil, &UnparsableTargetError{Raw: s}
		}
	case Ssh:
		name := u.Hostname()
		if name == "" {
			return nil, &UnparsableTargetError{Raw: s}
		}
		if addr, err := netip.ParseAddr(name); err == nil {
			t.host = hostFromIP(addr)
		} else {
			t.host = hostFromDomain(name)
		}
		if err := t.setPort(u); err != nil {
			return nil, &UnparsableTargetError{Raw: s}
		}
	case File:
		path := u.Path
		if path == "" {
			path = u.Opaque
		}
		if path == "" {
			return nil, &UnparsableTargetError{Raw: s}
		}
		t.path = path
	case K8s:
		segments := u.Opaque
		if u.Host != "" || u.Path != "" {
			t.cluster = u.Host
			segments = strings.TrimPrefix(u.Path, "/")
		}
		if i := strings.IndexByte(segments, '/'); i >= 0 {
			t.namespace = segments[:i]
			t.pod = segments[i+1:]
		} else {
			t.pod = segments
		}
		t.container = u.Fragment
	}

	return t, nil
}

// parseShortForm recognizes the ergonomic non-URI spellings: a bare
// IP (bracketed counts as IPv6), an IP with port, a CIDR block, and
// localhost with an optional port.
func parseShortForm(s string) (*Target, bool) {
	if ap, err := netip.ParseAddrPort(s); err == nil {
		return &Target{kind: Ip, host: hostFromIP(ap.Addr()), port: ap.Port(), hasPort: true}, true
	}
	if addr, err := netip.ParseAddr(s); err == nil {
		return &Target{kind: Ip, host: hostFromIP(addr)}, true
	}
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		if addr, err := netip.ParseAddr(s[1 : len(s)-1]); err == nil && addr.Is6() {
			return &Target{kind: Ip, host: hostFromIP(addr)}, true
		}
	}
	if prefix, err := netip.ParsePrefix(s); err == nil {
		return &Target{kind: Cidr, prefix: prefix, host: hostFromIP(prefix.Addr())}, true
	}
	if s == "localhost" {
		return &Target{kind: Dns, host: hostFromDomain("localhost")}, true
	}
	if host, portStr, err := net.SplitHostPort(s); err == nil && host == "localhost" {
		if port, err := strconv.ParseUint(portStr, 10, 16); err == nil {
			return &Target{kind: Dns, host: hostFromDomain("localhost"), port: uint16(port), hasPort: true}, true
		}
	}
	return nil, false
}

func (t *Target) setIPHost(u *url.URL) error {
	addr, err := parseURLAddr(u)
	if err != nil {
		return err
	}
	t.host = hostFromIP(addr)
	return t.setPort(u)
}

func parseURLAddr(u *url.URL) (netip.Addr, error) {
	addr, err := netip.ParseAddr(u.Hostname())
	if err != nil {
		return netip.Addr{}, err
	}
	return addr.Unmap(), nil
}

func (t *Target) setPort(u *url.URL) error {
	portStr := u.Port()
	if portStr == "" {
		return nil
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return err
	}
	t.port = uint16(port)
	t.hasPort = true
	return nil
}

// NewIP builds an ip target from an address, an optional port, and
// an optional user (empty meaning absent).
func NewIP(ip netip.Addr, port *uint16, user string) (*Target, error) {
	if !ip.IsValid() {
		return nil, fmt.Errorf("target: invalid ip address")
	}
	t := &Target{kind: Ip, host: hostFromIP(ip), user: user}
	if port != nil {
		t.port = *port
		t.hasPort = true
	}
	return t, nil
}

// NewDNS builds a dns target from a domain name, an optional port,
// and an optional user (empty meaning absent).
func NewDNS(domain string, port *uint16, user string) (*Target, error) {
	if domain == "" {
		return nil, fmt.Errorf("target: empty domain name")
	}
	t := &Target{kind: Dns, host: hostFromDomain(domain), user: user}
	if port != nil {
		t.port = *port
		t.hasPort = true
	}
	return t, nil
}

// NewK8s builds a k8s target from its coordinates; cluster, pod,
// container, and user may each be empty.
func NewK8s(cluster, namespace, pod, container, user string) (*Target, error) {
	if namespace == "" && pod == "" {
		return nil, fmt.Errorf("target: k8s target needs a namespace or a pod")
	}
	return &Target{
		kind:      K8s,
		cluster:   cluster,
		namespace: namespace,
		pod:       pod,
		container: container,
		user:      user,
	}, nil
}

// Kind returns the target's addressing scheme.
func (t *Target) Kind() Kind {
	return t.kind
}

// User returns the target's user, if one was given.
func (t *Target) User() (string, bool) {
	return t.user, t.user != ""
}

// Password returns the target's password, if one was given.
func (t *Target) Password() (string, bool) {
	return t.password, t.password != ""
}

// Host returns the target's resolvable host. Only ip and dns targets
// have one: a cidr's address is reached through Cidr, an ssh
// endpoint through IP and SocketAddr, so that resolvers treating
// hosts as expandable leave atomic targets alone.
func (t *Target) Host() (Host, bool) {
	switch t.kind {
	case Ip, Dns:
		return t.host, t.host.IsValid()
	default:
		return Host{}, false
	}
}

// IP returns the target's host as an IP address, if it is one.
func (t *Target) IP() (netip.Addr, bool) {
	return t.host.IP()
}

// Domain returns the target's host as a domain name, if it is one.
func (t *Target) Domain() (string, bool) {
	return t.host.Domain()
}

// Port returns the target's port. An ssh target with none named
// defaults to 22.
func (t *Target) Port() (uint16, bool) {
	if t.hasPort {
		return t.port, true
	}
	if t.kind == Ssh {
		return sshDefaultPort, true
	}
	return 0, false
}

// SocketAddr returns the concrete address a transport can dial:
// present only when the target is an ip or ssh target whose host is
// an IP address and whose port is known.
func (t *Target) SocketAddr() (netip.AddrPort, bool) {
	switch t.kind {
	case Ip, Ssh:
	default:
		return netip.AddrPort{}, false
	}
	ip, ok := t.host.IP()
	if !ok {
		return netip.AddrPort{}, false
	}
	port, ok := t.Port()
	if !ok {
		return netip.AddrPort{}, false
	}
	return netip.AddrPortFrom(ip, port), true
}

// Cidr returns the prefix a cidr target covers.
func (t *Target) Cidr() (netip.Prefix, bool) {
	if t.kind != Cidr {
		return netip.Prefix{}, false
	}
	return t.prefix, t.prefix.IsValid()
}

// Path returns the local path a file target points at.
func (t *Target) Path() (string, bool) {
	if t.kind != File {
		return "", false
	}
	return t.path, t.path != ""
}

// K8sCluster returns a k8s target's cluster, if one was given.
func (t *Target) K8sCluster() (string, bool) {
	if t.kind != K8s {
		return "", false
	}
	return t.cluster, t.cluster != ""
}

// K8sNamespace returns a k8s target's namespace, if one was given.
func (t *Target) K8sNamespace() (string, bool) {
	if t.kind != K8s {
		return "", false
	}
	return t.namespace, t.namespace != ""
}

// K8sPod returns a k8s target's pod name, if one was given.
func (t *Target) K8sPod() (string, bool) {
	if t.kind != K8s {
		return "", false
	}
	return t.pod, t.pod != ""
}

// K8sContainer returns a k8s target's container, if one was given.
func (t *Target) K8sContainer() (string, bool) {
	if t.kind != K8s {
		return "", false
	}
	return t.container, t.container != ""
}

// K8sUser returns a k8s target's user, if one was given.
func (t *Target) K8sUser() (string, bool) {
	if t.kind != K8s {
		return "", false
	}
	return t.user, t.user != ""
}

// Compare orders targets by their canonical string form.
func (t *Target) Compare(o *Target) int {
	return strings.Compare(t.String(), o.String())
}

// String renders the target in canonical URI form. Parsing the
// result yields an equal target.
func (t *Target) String() string {
	switch t.kind {
	case Ip, Dns, Ssh:
		return t.kind.String() + "://" + t.authority()
	case Cidr:
		return fmt.Sprintf("cidr://%s/%d", t.authority(), t.prefix.Bits())
	case File:
		if strings.HasPrefix(t.path, "/") {
			return "file://" + t.path
		}
		return "file:" + t.path
	case K8s:
		return t.k8sString()
	default:
		return ""
	}
}

// authority renders [user[:password]@]host[:port], bracketing IPv6
// hosts and percent-encoding userinfo.
func (t *Target) authority() string {
	var b strings.Builder
	if t.user != "" {
		if t.password != "" {
			b.WriteString(url.UserPassword(t.user, t.password).String())
		} else {
			b.WriteString(url.User(t.user).String())
		}
		b.WriteByte('@')
	}
	b.WriteString(t.host.String())
	if t.hasPort {
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(int(t.port)))
	}
	return b.String()
}

func (t *Target) k8sString() string {
	var b strings.Builder
	b.WriteString("k8s:")
	if t.cluster != "" || t.user != "" {
		b.WriteString("//")
		if t.user != "" {
			b.WriteString(url.User(t.user).String())
			b.WriteByte('@')
		}
		b.WriteString(t.cluster)
		b.WriteByte('/')
	}
	if t.namespace != "" {
		b.WriteString(t.namespace)
		b.WriteByte('/')
	}
	b.WriteString(t.pod)
	if t.container != "" {
		b.WriteByte('#')
		b.WriteString(t.container)
	}
	return b.String()
}
