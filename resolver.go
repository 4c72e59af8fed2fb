package droute

import (
	"fmt"
	"net"
	"time"

	"github.com/miekg/dns"
)

// Resolver is an interface to resolve DNS queries.
type Resolver interface {
	Resolve(*dns.Msg, ClientInfo) (*dns.Msg, error)
	fmt.Stringer
}

// ConfigurableResolver is a resolver whose transport and session settings can
// be changed at runtime. Implementations that can't honor a setting return
// ErrOperationNotSupported.
type ConfigurableResolver interface {
	Resolver

	// Use TCP for all queries instead of UDP.
	SetTCP(bool) error

	// Accept truncated UDP responses instead of retrying them over TCP.
	SetIgnoreTruncation(bool) error

	// Time to wait for a response from an upstream server.
	SetTimeout(time.Duration) error

	// Sign outgoing queries with TSIG. The algorithm is one of the dns.Hmac*
	// names, the secret is base64 encoded.
	SetTSIGKey(name, algorithm, secret string) error

	// Add an EDNS0 OPT record to outgoing queries that don't already have one.
	SetEDNS(version uint8, udpSize uint16, do bool) error

	// Resolve a query in the background and call cb with the result.
	ResolveAsync(q *dns.Msg, ci ClientInfo, cb func(*dns.Msg, error)) error
}

// ClientInfo carries information about the client making the request that
// can be used to route requests.
type ClientInfo struct {
	SourceIP net.IP
}
