package droute

import (
	"fmt"
	"strings"

	syslog "github.com/RackSec/srslog"
	"github.com/miekg/dns"
)

// Syslog passes queries to a resolver unmodified and logs them, and
// optionally the answers, to syslog.
type Syslog struct {
	id       string
	writer   *syslog.Writer
	resolver Resolver
	opt      SyslogOptions
}

var _ Resolver = &Syslog{}

// SyslogOptions contain settings for the syslog query log.
type SyslogOptions struct {
	// "udp", "tcp", "unix". Empty for the local syslog server.
	Network string

	// Remote address, empty for the local syslog server.
	Address string

	// Priority value as per https://pkg.go.dev/log/syslog#Priority
	Priority int

	// Syslog tag
	Tag string

	// Log the answers as well as the queries.
	LogResponse bool
}

// NewSyslog returns a resolver that logs queries to syslog before passing them on.
func NewSyslog(id string, resolver Resolver, opt SyslogOptions) (*Syslog, error) {
	writer, err := syslog.Dial(opt.Network, opt.Address, syslog.Priority(opt.Priority), opt.Tag)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize syslog for '%s': %w", id, err)
	}
	return newSyslog(id, writer, resolver, opt), nil
}

func newSyslog(id string, writer *syslog.Writer, resolver Resolver, opt SyslogOptions) *Syslog {
	return &Syslog{
		id:       id,
		writer:   writer,
		resolver: resolver,
		opt:      opt,
	}
}

// Resolve passes a DNS query through unmodified. Query details are sent via syslog.
// Failures to write to syslog are logged but don't fail the query.
func (r *Syslog) Resolve(q *dns.Msg, ci ClientInfo) (*dns.Msg, error) {
	r.write(q, ci, fmt.Sprintf("id=%s qid=%d type=query client=%s qtype=%s qname=%s", r.id, q.Id, ci.SourceIP, qType(q), qName(q)))

	a, err := r.resolver.Resolve(q, ci)
	if err != nil || a == nil || !r.opt.LogResponse {
		return a, err
	}
	if a.Rcode != dns.RcodeSuccess {
		r.write(q, ci, fmt.Sprintf("id=%s qid=%d type=answer qname=%s rcode=%s", r.id, q.Id, qName(q), rCode(a)))
		return a, err
	}
	for i, rr := range a.Answer {
		s := strings.ReplaceAll(rr.String(), "\t", " ")
		r.write(q, ci, fmt.Sprintf("id=%s qid=%d type=answer answer-num=%d/%d qname=%s answer=%q", r.id, q.Id, i+1, len(a.Answer), qName(q), s))
	}
	return a, err
}

func (r *Syslog) write(q *dns.Msg, ci ClientInfo, msg string) {
	if r.writer == nil {
		return
	}
	if _, err := r.writer.Write([]byte(msg)); err != nil {
		logger(r.id, q, ci).WithError(err).Error("failed to send syslog")
	}
}

func (r *Syslog) String() string {
	return r.id
}
