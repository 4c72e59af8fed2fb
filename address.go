package droute

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// Default ports by protocol, used when a server address doesn't have one.
var (
	PlainDNSPort = "53"
	DoTPort      = "853"
	DoHPort      = "443"
)

// ServerAddress is a parsed upstream server address.
type ServerAddress struct {
	// One of "udp", "tcp", "dot" or "doh".
	Protocol string

	// host:port for udp, tcp and dot, the URL (template) for doh.
	Endpoint string

	// Hostname or IP of the server.
	Host string
}

// ParseServerAddress parses a server address. Plain addresses like "10.0.0.1"
// or "dns.example:5353" are sent queries over UDP. A "tcp://" prefix selects
// TCP, "tls://" DNS-over-TLS, and "https://" DNS-over-HTTPS, in which case the
// address can be a URI template such as "https://dns.example/dns-query{?dns}".
func ParseServerAddress(s string) (ServerAddress, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ServerAddress{}, errors.New("empty server address")
	}
	var protocol, port string
	switch {
	case strings.HasPrefix(s, "https://"):
		u, err := url.Parse(s)
		if err != nil {
			return ServerAddress{}, fmt.Errorf("invalid doh address '%s': %w", s, err)
		}
		if u.Hostname() == "" {
			return ServerAddress{}, fmt.Errorf("invalid doh address '%s': no host", s)
		}
		return ServerAddress{Protocol: "doh", Endpoint: s, Host: u.Hostname()}, nil
	case strings.HasPrefix(s, "tls://"):
		protocol, port, s = "dot", DoTPort, strings.TrimPrefix(s, "tls://")
	case strings.HasPrefix(s, "tcp://"):
		protocol, port, s = "tcp", PlainDNSPort, strings.TrimPrefix(s, "tcp://")
	case strings.HasPrefix(s, "udp://"):
		protocol, port, s = "udp", PlainDNSPort, strings.TrimPrefix(s, "udp://")
	case strings.Contains(s, "://"):
		return ServerAddress{}, fmt.Errorf("unsupported protocol in server address '%s'", s)
	default:
		protocol, port = "udp", PlainDNSPort
	}
	endpoint := AddressWithDefault(s, port)
	if err := validEndpoint(endpoint); err != nil {
		return ServerAddress{}, fmt.Errorf("invalid server address '%s': %w", s, err)
	}
	host, _, _ := net.SplitHostPort(endpoint)
	return ServerAddress{Protocol: protocol, Endpoint: endpoint, Host: host}, nil
}

func (a ServerAddress) String() string {
	if a.Protocol == "doh" {
		return a.Endpoint
	}
	return a.Protocol + "://" + a.Endpoint
}

// AddressWithDefault adds the default port to an address that doesn't have one.
// Bare IPv6 addresses are put in brackets.
func AddressWithDefault(addr, defaultPort string) string {
	if ip := net.ParseIP(strings.Trim(addr, "[]")); ip != nil {
		return net.JoinHostPort(ip.String(), defaultPort)
	}
	if _, port, err := net.SplitHostPort(addr); err == nil && port != "" {
		return addr
	}
	return net.JoinHostPort(addr, defaultPort)
}

func validEndpoint(addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	if _, err := strconv.ParseUint(port, 10, 16); err != nil {
		return fmt.Errorf("invalid port: %w", err)
	}
	// See if we have a valid IP
	if ip := net.ParseIP(host); ip != nil {
		return nil
	}
	return validHostname(host)
}

// Returns nil if the given name is a valid hostname as per https://tools.ietf.org/html/rfc3696#section-2
// and https://tools.ietf.org/html/rfc1123#page-13
func validHostname(name string) error {
	if name == "" {
		return errors.New("hostname empty")
	}
	if len(name) > 255 {
		return fmt.Errorf("invalid hostname %q: too long", name)
	}
	name = strings.TrimSuffix(name, ".")
	labels := strings.Split(name, ".")
	for _, label := range labels {
		if label == "" {
			return fmt.Errorf("invalid hostname %q: empty label", name)
		}
		if strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return fmt.Errorf("invalid hostname %q: label can not start or end with -", name)
		}
		for _, c := range label {
			switch {
			case c >= '0' && c <= '9', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '-':
			default:
				return fmt.Errorf("invalid hostname %q: invalid character %q", name, string(c))
			}
		}
	}
	// The last label can not be all-numeric
	for _, c := range labels[len(labels)-1] {
		if c < '0' || c > '9' {
			return nil
		}
	}
	return fmt.Errorf("invalid hostname %q: last label can not be all numeric", name)
}
