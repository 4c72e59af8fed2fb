package droute

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Time allowed for looking up the hostname of a server when a group is created.
const lookupTimeout = 5 * time.Second

// GroupOptions contain settings for server groups.
type GroupOptions struct {
	// Send all queries over TCP, including those to plain UDP servers.
	TCP bool

	// Accept truncated UDP responses instead of retrying over TCP.
	IgnoreTruncation bool

	// Time to wait for a response from a server. Defaults to 2 seconds.
	Timeout time.Duration

	// TLS settings for DoT and DoH servers.
	TLSConfig *tls.Config

	// HTTP method for DoH servers, GET or POST. Defaults to POST.
	DoHMethod string
}

// ServerGroup resolves queries with an ordered list of upstream servers. The
// first server is used until it fails, then the next one, and so on. Settings
// like the timeout or TSIG key apply to all servers of the group and can be
// changed at any time.
type ServerGroup struct {
	id       string
	servers  []string
	resolver Resolver
	settings *groupSettings
}

var _ ConfigurableResolver = &ServerGroup{}

// NewServerGroup returns a group for the given servers. See ParseServerAddress
// for the address formats. Fails if the list is empty or if any of the
// addresses is invalid or its hostname can't be resolved.
func NewServerGroup(id string, servers []string, opt GroupOptions) (*ServerGroup, error) {
	if len(servers) == 0 {
		return nil, fmt.Errorf("no servers defined for group '%s'", id)
	}
	settings := &groupSettings{s: querySettings{
		TCP:              opt.TCP,
		IgnoreTruncation: opt.IgnoreTruncation,
		Timeout:          opt.Timeout,
	}}
	resolvers := make([]Resolver, 0, len(servers))
	for i, s := range servers {
		addr, err := ParseServerAddress(s)
		if err != nil {
			return nil, err
		}
		if err := lookupServer(addr.Host); err != nil {
			return nil, err
		}
		clientID := fmt.Sprintf("%s-%d", id, i)
		var r Resolver
		switch addr.Protocol {
		case "udp", "tcp":
			r = newDNSClient(clientID, addr.Endpoint, addr.Protocol, nil, settings)
		case "dot":
			r = newDNSClient(clientID, addr.Endpoint, "tcp-tls", tlsConfigFor(opt.TLSConfig, addr.Host), settings)
		case "doh":
			r, err = newDoHClient(clientID, addr.Endpoint, opt.DoHMethod, tlsConfigFor(opt.TLSConfig, addr.Host), settings)
			if err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("unsupported protocol '%s' for server '%s'", addr.Protocol, s)
		}
		resolvers = append(resolvers, r)
	}
	Log.WithFields(logrus.Fields{"id": id, "servers": strings.Join(servers, ",")}).Debug("created server group")
	return &ServerGroup{
		id:       id,
		servers:  append([]string{}, servers...),
		resolver: NewFailRotate(id, resolvers...),
		settings: settings,
	}, nil
}

// Resolve a query with the active server of the group, failing over to the
// others on error.
func (g *ServerGroup) Resolve(q *dns.Msg, ci ClientInfo) (*dns.Msg, error) {
	return g.resolver.Resolve(q, ci)
}

// ResolveAsync resolves a query in a new goroutine and passes the result to cb.
func (g *ServerGroup) ResolveAsync(q *dns.Msg, ci ClientInfo, cb func(*dns.Msg, error)) error {
	if cb == nil {
		return errors.New("no callback for async query")
	}
	go func() {
		cb(g.Resolve(q, ci))
	}()
	return nil
}

func (g *ServerGroup) SetTCP(v bool) error {
	g.settings.update(func(s *querySettings) { s.TCP = v })
	return nil
}

func (g *ServerGroup) SetIgnoreTruncation(v bool) error {
	g.settings.update(func(s *querySettings) { s.IgnoreTruncation = v })
	return nil
}

func (g *ServerGroup) SetTimeout(d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("invalid timeout %s", d)
	}
	g.settings.update(func(s *querySettings) { s.Timeout = d })
	return nil
}

// SetTSIGKey signs all subsequent queries with the key. An empty name removes
// the key.
func (g *ServerGroup) SetTSIGKey(name, algorithm, secret string) error {
	if name == "" {
		g.settings.update(func(s *querySettings) { s.TSIGName, s.TSIGAlgorithm, s.TSIGSecret = "", "", "" })
		return nil
	}
	name, algorithm, err := parseTSIGKey(name, algorithm, secret)
	if err != nil {
		return err
	}
	g.settings.update(func(s *querySettings) { s.TSIGName, s.TSIGAlgorithm, s.TSIGSecret = name, algorithm, secret })
	return nil
}

func (g *ServerGroup) SetEDNS(version uint8, udpSize uint16, do bool) error {
	if udpSize < dns.MinMsgSize {
		udpSize = dns.MinMsgSize
	}
	g.settings.update(func(s *querySettings) {
		s.EDNS = true
		s.EDNSVersion = version
		s.EDNSUDPSize = udpSize
		s.EDNSDo = do
	})
	return nil
}

// Servers returns the servers of the group in order.
func (g *ServerGroup) Servers() []string {
	return append([]string{}, g.servers...)
}

func (g *ServerGroup) String() string {
	return fmt.Sprintf("%s(%s)", g.id, strings.Join(g.servers, ","))
}

// Makes sure a server hostname resolves. IPs are accepted as they are.
func lookupServer(host string) error {
	if net.ParseIP(host) != nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()
	if _, err := net.DefaultResolver.LookupHost(ctx, host); err != nil {
		return errors.Wrapf(err, "unable to resolve server '%s'", host)
	}
	return nil
}

// Returns a TLS config for a server, using the hostname for verification
// unless the config already names one.
func tlsConfigFor(cfg *tls.Config, host string) *tls.Config {
	if cfg == nil {
		cfg = &tls.Config{MinVersion: tls.VersionTLS12}
	} else {
		cfg = cfg.Clone()
	}
	if cfg.ServerName == "" && net.ParseIP(host) == nil {
		cfg.ServerName = host
	}
	return cfg
}
