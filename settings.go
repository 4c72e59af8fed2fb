package droute

import (
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/miekg/dns"
)

// Default time to wait for a response from an upstream server.
const defaultQueryTimeout = 2 * time.Second

// Fudge value for TSIG signatures, as recommended in RFC 8945.
const tsigFudge = 300

// querySettings are applied to every query sent by the clients of a group.
type querySettings struct {
	TCP              bool
	IgnoreTruncation bool
	Timeout          time.Duration

	TSIGName      string
	TSIGAlgorithm string
	TSIGSecret    string

	EDNS        bool
	EDNSVersion uint8
	EDNSUDPSize uint16
	EDNSDo      bool
}

// groupSettings holds the settings shared by all clients of a group. They can
// be changed while queries are in flight.
type groupSettings struct {
	mu sync.RWMutex
	s  querySettings
}

func (g *groupSettings) get() querySettings {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.s
}

func (g *groupSettings) update(f func(*querySettings)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	f(&g.s)
}

// Adds EDNS0 and TSIG records to a query as configured. The query is modified.
func (s querySettings) prepare(q *dns.Msg) {
	if s.EDNS && q.IsEdns0() == nil {
		q.SetEdns0(s.EDNSUDPSize, s.EDNSDo)
		q.IsEdns0().SetVersion(s.EDNSVersion)
	}
	if s.TSIGName != "" && q.IsTsig() == nil {
		q.SetTsig(s.TSIGName, s.TSIGAlgorithm, tsigFudge, time.Now().Unix())
	}
}

// Returns the secrets map for a dns.Client, or nil if queries aren't signed.
func (s querySettings) tsigSecret() map[string]string {
	if s.TSIGName == "" {
		return nil
	}
	return map[string]string{s.TSIGName: s.TSIGSecret}
}

func (s querySettings) timeout() time.Duration {
	if s.Timeout <= 0 {
		return defaultQueryTimeout
	}
	return s.Timeout
}

// Supported TSIG algorithms.
var tsigAlgorithms = map[string]struct{}{
	dns.HmacSHA1:   {},
	dns.HmacSHA256: {},
	dns.HmacSHA384: {},
	dns.HmacSHA512: {},
}

// Validates a TSIG key and returns its name and algorithm in canonical form.
func parseTSIGKey(name, algorithm, secret string) (string, string, error) {
	if name == "" {
		return "", "", fmt.Errorf("tsig key name empty")
	}
	algorithm = dns.Fqdn(strings.ToLower(algorithm))
	if _, ok := tsigAlgorithms[algorithm]; !ok {
		return "", "", fmt.Errorf("unsupported tsig algorithm '%s'", algorithm)
	}
	if _, err := base64.StdEncoding.DecodeString(secret); err != nil {
		return "", "", fmt.Errorf("invalid tsig secret for key '%s': %w", name, err)
	}
	return dns.Fqdn(strings.ToLower(name)), algorithm, nil
}
