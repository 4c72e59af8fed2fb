package droute

import (
	"crypto/tls"
	"errors"
	"net"

	"github.com/miekg/dns"
	"github.com/sirupsen/logrus"
)

// DNSClient sends queries to a single server over UDP, TCP or DNS-over-TLS.
type DNSClient struct {
	id        string
	endpoint  string
	net       string
	tlsConfig *tls.Config
	settings  *groupSettings
	metrics   *clientMetrics
}

var _ Resolver = &DNSClient{}

// newDNSClient returns a client for the endpoint. Network is one of "udp",
// "tcp" or "tcp-tls". Settings are read from the group for every query.
func newDNSClient(id, endpoint, network string, tlsConfig *tls.Config, settings *groupSettings) *DNSClient {
	return &DNSClient{
		id:        id,
		endpoint:  endpoint,
		net:       network,
		tlsConfig: tlsConfig,
		settings:  settings,
		metrics:   newClientMetrics(id),
	}
}

// Resolve a DNS query. UDP responses that are truncated are retried over TCP
// unless the group is set to ignore truncation.
func (d *DNSClient) Resolve(q *dns.Msg, ci ClientInfo) (*dns.Msg, error) {
	s := d.settings.get()

	// Packing a message is not always a read-only operation, make a copy
	q = q.Copy()
	s.prepare(q)

	network := d.net
	if network == "udp" && s.TCP {
		network = "tcp"
	}
	if network == "tcp-tls" {
		padQuery(q)
	}
	log := logger(d.id, q, ci).WithFields(logrus.Fields{"resolver": d.endpoint, "protocol": network})
	log.Debug("querying upstream resolver")

	a, err := d.exchange(q, network, s)
	if err == nil && a.Truncated && network == "udp" && !s.IgnoreTruncation {
		log.Debug("truncated response, retrying over tcp")
		d.metrics.err.Add("truncated", 1)
		a, err = d.exchange(q, "tcp", s)
	}
	if err == nil && network == "tcp-tls" {
		stripPadding(a)
	}
	return a, err
}

func (d *DNSClient) exchange(q *dns.Msg, network string, s querySettings) (*dns.Msg, error) {
	client := &dns.Client{
		Net:        network,
		Timeout:    s.timeout(),
		TLSConfig:  d.tlsConfig,
		TsigSecret: s.tsigSecret(),
	}
	d.metrics.query.Add(1)
	a, _, err := client.Exchange(q, d.endpoint)
	if err != nil {
		var nerr net.Error
		if errors.As(err, &nerr) && nerr.Timeout() {
			d.metrics.err.Add("timeout", 1)
			return nil, QueryTimeoutError{q}
		}
		d.metrics.err.Add("exchange", 1)
		return nil, err
	}
	d.metrics.response.Add(rCode(a), 1)
	return a, nil
}

func (d *DNSClient) String() string {
	return d.id
}
