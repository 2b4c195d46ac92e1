package target

// Kind tags the addressing scheme a Target carries. It matches the
// URI scheme one-to-one.
type Kind int

const (
	// Ip is a single IP address, optionally with a port.
	Ip Kind = iota
	// Cidr is a block of IP addresses in prefix notation.
	Cidr
	// Dns is a domain name, optionally with a port.
	Dns
	// Ssh is an SSH endpoint; the port defaults to 22.
	Ssh
	// File is a local file containing one target query per line.
	File
	// K8s is a Kubernetes pod (or a whole namespace of pods).
	K8s
)

func (k Kind) String() string {
	switch k {
	case Ip:
		return "ip"
	case Cidr:
		return "cidr"
	case Dns:
		return "dns"
	case Ssh:
		return "ssh"
	case File:
		return "file"
	case K8s:
		return "k8s"
	default:
		return "unknown"
	}
}

// kindFromScheme maps a URI scheme to its Kind, reporting whether the
// scheme is one kush recognizes.
func kindFromScheme(scheme string) (Kind, bool) {
	switch scheme {
	case "ip":
		return Ip, true
	case "cidr":
		return Cidr, true
	case "dns":
		return Dns, true
	case "ssh":
		return Ssh, true
	case "file":
		return File, true
	case "k8s":
		return K8s, true
	default:
		return 0, false
	}
}
